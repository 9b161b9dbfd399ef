package repo

import (
	"context"

	"github.com/userlink/userlink-server/internal/infra/store"
	"github.com/userlink/userlink-server/internal/modules/model"
)

type AssistantRepo interface {
	Create(ctx context.Context, a *model.Assistant) error
	Get(ctx context.Context, id string) (*model.Assistant, error)
	List(ctx context.Context) ([]*model.Assistant, error)
	FindByThreadID(ctx context.Context, threadID string) (*model.Assistant, error)
	Update(ctx context.Context, id string, patch store.Patch) (*model.Assistant, error)
	Delete(ctx context.Context, id string) error
}

type assistantRepo struct{ s store.Store }

func NewAssistantRepo(s store.Store) AssistantRepo {
	return &assistantRepo{s: s}
}

func (r *assistantRepo) Create(ctx context.Context, a *model.Assistant) error {
	return r.s.Insert(ctx, store.Assistants, a)
}

func (r *assistantRepo) Get(ctx context.Context, id string) (*model.Assistant, error) {
	var a model.Assistant
	if err := r.s.FindOne(ctx, store.Assistants, store.ByID(id), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assistantRepo) List(ctx context.Context) ([]*model.Assistant, error) {
	var out []*model.Assistant
	if err := r.s.FindMany(ctx, store.Assistants, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assistantRepo) FindByThreadID(ctx context.Context, threadID string) (*model.Assistant, error) {
	var a model.Assistant
	if err := r.s.FindOne(ctx, store.Assistants, store.Where(store.Eq(FieldThreadID, threadID)), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assistantRepo) Update(ctx context.Context, id string, patch store.Patch) (*model.Assistant, error) {
	var a model.Assistant
	if err := r.s.UpdateOne(ctx, store.Assistants, store.ByID(id), patch, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assistantRepo) Delete(ctx context.Context, id string) error {
	n, err := r.s.RemoveMany(ctx, store.Assistants, store.ByID(id))
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
