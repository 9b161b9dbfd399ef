package store

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// document is the single table behind the sql backend.
type document struct {
	Collection string         `gorm:"primaryKey;type:varchar(64)"`
	ID         string         `gorm:"primaryKey;type:varchar(191)"`
	Body       datatypes.JSON `gorm:"not null"`
	CreatedAt  time.Time      `gorm:"autoCreateTime;index"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime"`
}

func (document) TableName() string { return "documents" }

// SQLStore stores JSON documents in a relational database through gorm.
// Simple equality conditions are pushed down as JSON queries; the shared
// matcher has the final word so every backend agrees on semantics.
type SQLStore struct {
	db *gorm.DB
}

func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) scope(ctx context.Context, coll Collection, f Filter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&document{}).Where("collection = ?", string(coll))
	for _, c := range f {
		switch {
		case c.op == opIn && c.Field == "id":
			q = q.Where("id IN ?", c.values)
		case c.op == opEq && c.Field == "id":
			if id, ok := normalizeValue(c.value).(string); ok {
				q = q.Where("id = ?", id)
			}
		case c.op == opEq:
			if v, ok := normalizeValue(c.value).(string); ok {
				q = q.Where(datatypes.JSONQuery("body").Equals(v, c.Field))
			}
		}
	}
	return q
}

func (s *SQLStore) matching(ctx context.Context, coll Collection, f Filter) ([]document, []map[string]any, error) {
	var rows []document
	if err := s.scope(ctx, coll, f).Order("created_at ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	keptRows := make([]document, 0, len(rows))
	docs := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		d := map[string]any{}
		if err := sonic.Unmarshal(r.Body, &d); err != nil {
			return nil, nil, err
		}
		if f.Match(d) {
			keptRows = append(keptRows, r)
			docs = append(docs, d)
		}
	}
	return keptRows, docs, nil
}

func (s *SQLStore) Insert(ctx context.Context, coll Collection, doc any) error {
	d, err := toDocument(doc)
	if err != nil {
		return err
	}
	id, err := docID(d)
	if err != nil {
		return err
	}
	body, err := sonic.Marshal(d)
	if err != nil {
		return err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&document{}).
		Where("collection = ? AND id = ?", string(coll), id).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicate
	}
	return s.db.WithContext(ctx).Create(&document{Collection: string(coll), ID: id, Body: body}).Error
}

func (s *SQLStore) FindOne(ctx context.Context, coll Collection, filter Filter, out any) error {
	_, docs, err := s.matching(ctx, coll, filter)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return ErrNotFound
	}
	return decodeInto(docs[0], out)
}

func (s *SQLStore) FindMany(ctx context.Context, coll Collection, filter Filter, out any) error {
	_, docs, err := s.matching(ctx, coll, filter)
	if err != nil {
		return err
	}
	return decodeInto(docs, out)
}

func (s *SQLStore) UpdateOne(ctx context.Context, coll Collection, filter Filter, patch Patch, out any) error {
	var next map[string]any
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := &SQLStore{db: tx}
		rows, docs, err := inner.matching(ctx, coll, filter)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			return ErrNotFound
		}
		next = applyPatch(docs[0], patch)
		body, err := sonic.Marshal(next)
		if err != nil {
			return err
		}
		return tx.Model(&document{}).
			Where("collection = ? AND id = ?", string(coll), rows[0].ID).
			Updates(map[string]any{"body": datatypes.JSON(body), "updated_at": time.Now()}).Error
	})
	if err != nil {
		return err
	}
	return decodeInto(next, out)
}

func (s *SQLStore) RemoveMany(ctx context.Context, coll Collection, filter Filter) (int64, error) {
	rows, _, err := s.matching(ctx, coll, filter)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	res := s.db.WithContext(ctx).
		Where("collection = ? AND id IN ?", string(coll), ids).
		Delete(&document{})
	return res.RowsAffected, res.Error
}

func (s *SQLStore) EnsureCollections(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&document{})
}

func (s *SQLStore) Close(_ context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// IsNotFound reports whether err means "no such record" for any backend.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}
