package service

import (
	"errors"
	"fmt"

	"github.com/userlink/userlink-server/internal/infra/store"
)

// Service layer errors; handlers map them to HTTP status codes with errors.Is.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrAssistantNotFound  = errors.New("assistant not found")
	ErrChatThreadNotFound = errors.New("chat thread not found")
	ErrFileNotFound       = errors.New("file not found")

	ErrInvalidInput = errors.New("invalid input")
	ErrUserExists   = errors.New("user already exists")

	// ErrUpstream wraps failures of the remote assistant provider.
	ErrUpstream = errors.New("upstream error")
)

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

func upstream(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUpstream, op, err)
}

// notFound swaps a storage miss for the entity's own sentinel.
func notFound(err, sentinel error) error {
	if store.IsNotFound(err) {
		return sentinel
	}
	return err
}
