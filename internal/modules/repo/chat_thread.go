package repo

import (
	"context"

	"github.com/userlink/userlink-server/internal/infra/store"
	"github.com/userlink/userlink-server/internal/modules/model"
)

type ChatThreadRepo interface {
	Create(ctx context.Context, t *model.ChatThread) error
	Get(ctx context.Context, id string) (*model.ChatThread, error)
	List(ctx context.Context, userID string) ([]*model.ChatThread, error)
	FirstByUser(ctx context.Context, userID string) (*model.ChatThread, error)
	ListByExternalID(ctx context.Context, openaiThreadID string) ([]*model.ChatThread, error)
	Update(ctx context.Context, id string, patch store.Patch) (*model.ChatThread, error)
	Delete(ctx context.Context, id string) error
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

type chatThreadRepo struct{ s store.Store }

func NewChatThreadRepo(s store.Store) ChatThreadRepo {
	return &chatThreadRepo{s: s}
}

func (r *chatThreadRepo) Create(ctx context.Context, t *model.ChatThread) error {
	return r.s.Insert(ctx, store.ChatThreads, t)
}

func (r *chatThreadRepo) Get(ctx context.Context, id string) (*model.ChatThread, error) {
	var t model.ChatThread
	if err := r.s.FindOne(ctx, store.ChatThreads, store.ByID(id), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// List returns every chat thread, or only those owned by userID when it is set.
func (r *chatThreadRepo) List(ctx context.Context, userID string) ([]*model.ChatThread, error) {
	var f store.Filter
	if userID != "" {
		f = store.Where(store.Eq(FieldUserID, userID))
	}
	var out []*model.ChatThread
	if err := r.s.FindMany(ctx, store.ChatThreads, f, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *chatThreadRepo) FirstByUser(ctx context.Context, userID string) (*model.ChatThread, error) {
	var t model.ChatThread
	if err := r.s.FindOne(ctx, store.ChatThreads, store.Where(store.Eq(FieldUserID, userID)), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *chatThreadRepo) ListByExternalID(ctx context.Context, openaiThreadID string) ([]*model.ChatThread, error) {
	var out []*model.ChatThread
	if err := r.s.FindMany(ctx, store.ChatThreads, store.Where(store.Eq(FieldOpenAIThreadID, openaiThreadID)), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *chatThreadRepo) Update(ctx context.Context, id string, patch store.Patch) (*model.ChatThread, error) {
	var t model.ChatThread
	if err := r.s.UpdateOne(ctx, store.ChatThreads, store.ByID(id), patch, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *chatThreadRepo) Delete(ctx context.Context, id string) error {
	n, err := r.s.RemoveMany(ctx, store.ChatThreads, store.ByID(id))
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *chatThreadRepo) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return r.s.RemoveMany(ctx, store.ChatThreads, store.Where(store.In(FieldID, ids)))
}
