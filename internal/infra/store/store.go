// Package store is the persistence gateway. Every backend keeps the same
// record-oriented contract: records are JSON-shaped documents grouped in
// collections and addressed by a caller-assigned string "id".
package store

import (
	"context"
	"errors"
)

type Collection string

const (
	Users       Collection = "users"
	Assistants  Collection = "assistants"
	ChatThreads Collection = "chat_threads"
	Messages    Collection = "messages"
	Files       Collection = "files"
)

// AllCollections is the fixed set of collections ensured at startup.
var AllCollections = []Collection{Users, Assistants, ChatThreads, Messages, Files}

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record id")
	ErrMissingID = errors.New("record has no id")
)

// Patch is a partial update. A nil value stores null.
type Patch map[string]any

// Store is implemented by the file, mongo and sql backends.
//
// FindOne and UpdateOne decode into out (a struct pointer); FindMany decodes
// into a pointer to a slice. UpdateOne returns ErrNotFound when nothing
// matches and accepts a nil out.
type Store interface {
	Insert(ctx context.Context, coll Collection, doc any) error
	FindOne(ctx context.Context, coll Collection, filter Filter, out any) error
	FindMany(ctx context.Context, coll Collection, filter Filter, out any) error
	UpdateOne(ctx context.Context, coll Collection, filter Filter, patch Patch, out any) error
	RemoveMany(ctx context.Context, coll Collection, filter Filter) (int64, error)
	EnsureCollections(ctx context.Context) error
	Close(ctx context.Context) error
}
