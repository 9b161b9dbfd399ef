package repo

import (
	"context"

	"github.com/userlink/userlink-server/internal/infra/store"
	"github.com/userlink/userlink-server/internal/modules/model"
)

type UserRepo interface {
	Create(ctx context.Context, u *model.User) error
	Get(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
	Update(ctx context.Context, id string, patch store.Patch) (*model.User, error)
	ClearAssistant(ctx context.Context, assistantID string) (int64, error)
	Delete(ctx context.Context, id string) error
}

type userRepo struct{ s store.Store }

func NewUserRepo(s store.Store) UserRepo {
	return &userRepo{s: s}
}

func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	return r.s.Insert(ctx, store.Users, u)
}

func (r *userRepo) Get(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := r.s.FindOne(ctx, store.Users, store.ByID(id), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := r.s.FindOne(ctx, store.Users, store.Where(store.Eq(FieldEmail, email)), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) List(ctx context.Context) ([]*model.User, error) {
	var out []*model.User
	if err := r.s.FindMany(ctx, store.Users, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userRepo) Update(ctx context.Context, id string, patch store.Patch) (*model.User, error) {
	var u model.User
	if err := r.s.UpdateOne(ctx, store.Users, store.ByID(id), patch, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ClearAssistant sets assistantId to null on every user pointing at assistantID.
func (r *userRepo) ClearAssistant(ctx context.Context, assistantID string) (int64, error) {
	var linked []*model.User
	if err := r.s.FindMany(ctx, store.Users, store.Where(store.Eq(FieldAssistantID, assistantID)), &linked); err != nil {
		return 0, err
	}
	var n int64
	for _, u := range linked {
		err := r.s.UpdateOne(ctx, store.Users, store.ByID(u.ID), store.Patch{FieldAssistantID: nil}, nil)
		if err != nil && !store.IsNotFound(err) {
			return n, err
		}
		if err == nil {
			n++
		}
	}
	return n, nil
}

func (r *userRepo) Delete(ctx context.Context, id string) error {
	n, err := r.s.RemoveMany(ctx, store.Users, store.ByID(id))
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
