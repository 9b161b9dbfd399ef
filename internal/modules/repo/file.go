package repo

import (
	"context"

	"github.com/userlink/userlink-server/internal/infra/store"
	"github.com/userlink/userlink-server/internal/modules/model"
)

type FileRepo interface {
	Create(ctx context.Context, f *model.File) error
	Get(ctx context.Context, id string) (*model.File, error)
	List(ctx context.Context, userID string) ([]*model.File, error)
	Update(ctx context.Context, id string, patch store.Patch) (*model.File, error)
	Delete(ctx context.Context, id string) error
	DeleteByAssistant(ctx context.Context, assistantID string) ([]*model.File, error)
	DeleteByUser(ctx context.Context, userID string) ([]*model.File, error)
}

type fileRepo struct{ s store.Store }

func NewFileRepo(s store.Store) FileRepo {
	return &fileRepo{s: s}
}

func (r *fileRepo) Create(ctx context.Context, f *model.File) error {
	return r.s.Insert(ctx, store.Files, f)
}

func (r *fileRepo) Get(ctx context.Context, id string) (*model.File, error) {
	var f model.File
	if err := r.s.FindOne(ctx, store.Files, store.ByID(id), &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *fileRepo) List(ctx context.Context, userID string) ([]*model.File, error) {
	var f store.Filter
	if userID != "" {
		f = store.Where(store.Eq(FieldUserID, userID))
	}
	var out []*model.File
	if err := r.s.FindMany(ctx, store.Files, f, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *fileRepo) Update(ctx context.Context, id string, patch store.Patch) (*model.File, error) {
	var f model.File
	if err := r.s.UpdateOne(ctx, store.Files, store.ByID(id), patch, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *fileRepo) Delete(ctx context.Context, id string) error {
	n, err := r.s.RemoveMany(ctx, store.Files, store.ByID(id))
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteByAssistant removes and returns the files associated with assistantID.
func (r *fileRepo) DeleteByAssistant(ctx context.Context, assistantID string) ([]*model.File, error) {
	return r.collectAndRemove(ctx, store.Where(store.Eq(FieldAssistantID, assistantID)))
}

// DeleteByUser removes and returns the files owned by userID.
func (r *fileRepo) DeleteByUser(ctx context.Context, userID string) ([]*model.File, error) {
	return r.collectAndRemove(ctx, store.Where(store.Eq(FieldUserID, userID)))
}

func (r *fileRepo) collectAndRemove(ctx context.Context, f store.Filter) ([]*model.File, error) {
	var files []*model.File
	if err := r.s.FindMany(ctx, store.Files, f, &files); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return files, nil
	}
	ids := make([]string, 0, len(files))
	for _, file := range files {
		ids = append(ids, file.ID)
	}
	if _, err := r.s.RemoveMany(ctx, store.Files, store.Where(store.In(FieldID, ids))); err != nil {
		return nil, err
	}
	return files, nil
}
