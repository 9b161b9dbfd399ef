package repo

import (
	"context"

	"github.com/userlink/userlink-server/internal/infra/store"
	"github.com/userlink/userlink-server/internal/modules/model"
)

type MessageRepo interface {
	Create(ctx context.Context, m *model.Message) error
	List(ctx context.Context, threadID, userID string) ([]*model.Message, error)
	ListByThreadKeys(ctx context.Context, keys model.ThreadKeySet) ([]*model.Message, error)
	DeleteByThreadKeys(ctx context.Context, keys model.ThreadKeySet) (int64, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

type messageRepo struct{ s store.Store }

func NewMessageRepo(s store.Store) MessageRepo {
	return &messageRepo{s: s}
}

func (r *messageRepo) Create(ctx context.Context, m *model.Message) error {
	return r.s.Insert(ctx, store.Messages, m)
}

// List applies the optional threadId and userId filters.
func (r *messageRepo) List(ctx context.Context, threadID, userID string) ([]*model.Message, error) {
	var f store.Filter
	if threadID != "" {
		f = append(f, store.Eq(FieldThreadID, threadID))
	}
	if userID != "" {
		f = append(f, store.Eq(FieldUserID, userID))
	}
	var out []*model.Message
	if err := r.s.FindMany(ctx, store.Messages, f, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *messageRepo) ListByThreadKeys(ctx context.Context, keys model.ThreadKeySet) ([]*model.Message, error) {
	if keys.Empty() {
		return []*model.Message{}, nil
	}
	var out []*model.Message
	if err := r.s.FindMany(ctx, store.Messages, store.Where(store.In(FieldThreadID, keys.Keys())), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *messageRepo) DeleteByThreadKeys(ctx context.Context, keys model.ThreadKeySet) (int64, error) {
	if keys.Empty() {
		return 0, nil
	}
	return r.s.RemoveMany(ctx, store.Messages, store.Where(store.In(FieldThreadID, keys.Keys())))
}

func (r *messageRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, nil
	}
	return r.s.RemoveMany(ctx, store.Messages, store.Where(store.Eq(FieldUserID, userID)))
}
