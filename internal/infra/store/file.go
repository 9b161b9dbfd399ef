package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/spf13/afero"
)

// FileStore keeps every collection in one JSON document on disk, in the
// {"users": [...], "assistants": [...]} layout. The whole document is
// rewritten after each mutation through a temp file and rename.
// An empty path keeps data in memory only.
type FileStore struct {
	mu   sync.RWMutex
	fs   afero.Fs
	path string
	data map[string][]map[string]any
}

func NewFileStore(fs afero.Fs, path string) (*FileStore, error) {
	s := &FileStore{
		fs:   fs,
		path: path,
		data: map[string][]map[string]any{},
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewMemoryStore returns a FileStore that never touches disk.
func NewMemoryStore() *FileStore {
	s, _ := NewFileStore(afero.NewMemMapFs(), "")
	return s
}

func (s *FileStore) load() error {
	if s.path == "" {
		return nil
	}
	raw, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(raw) == 0 {
		return nil
	}
	var data map[string][]map[string]any
	if err := sonic.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("decode %s: %w", s.path, err)
	}
	for coll, docs := range data {
		s.data[coll] = docs
	}
	return nil
}

// flush must be called with the write lock held.
func (s *FileStore) flush() error {
	if s.path == "" {
		return nil
	}
	raw, err := sonic.ConfigStd.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	return s.fs.Rename(tmp, s.path)
}

// commit installs the given collections and writes the document. On a failed
// write the previous collections are restored, so nothing unsaved is visible.
// Must be called with the write lock held.
func (s *FileStore) commit(next map[string][]map[string]any) error {
	prev := make(map[string][]map[string]any, len(next))
	existed := make(map[string]bool, len(next))
	for coll, docs := range next {
		prev[coll], existed[coll] = s.data[coll]
		s.data[coll] = docs
	}
	if err := s.flush(); err != nil {
		for coll := range next {
			if existed[coll] {
				s.data[coll] = prev[coll]
			} else {
				delete(s.data, coll)
			}
		}
		return err
	}
	return nil
}

func (s *FileStore) Insert(_ context.Context, coll Collection, doc any) error {
	d, err := toDocument(doc)
	if err != nil {
		return err
	}
	id, err := docID(d)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.data[string(coll)] {
		if existing["id"] == id {
			return ErrDuplicate
		}
	}
	docs := s.data[string(coll)]
	next := make([]map[string]any, len(docs), len(docs)+1)
	copy(next, docs)
	return s.commit(map[string][]map[string]any{string(coll): append(next, d)})
}

func (s *FileStore) FindOne(_ context.Context, coll Collection, filter Filter, out any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.data[string(coll)] {
		if filter.Match(d) {
			return decodeInto(d, out)
		}
	}
	return ErrNotFound
}

func (s *FileStore) FindMany(_ context.Context, coll Collection, filter Filter, out any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := make([]map[string]any, 0)
	for _, d := range s.data[string(coll)] {
		if filter.Match(d) {
			matched = append(matched, d)
		}
	}
	return decodeInto(matched, out)
}

func (s *FileStore) UpdateOne(_ context.Context, coll Collection, filter Filter, patch Patch, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := s.data[string(coll)]
	for i, d := range docs {
		if !filter.Match(d) {
			continue
		}
		next := make([]map[string]any, len(docs))
		copy(next, docs)
		next[i] = applyPatch(d, patch)
		if err := s.commit(map[string][]map[string]any{string(coll): next}); err != nil {
			return err
		}
		return decodeInto(next[i], out)
	}
	return ErrNotFound
}

func (s *FileStore) RemoveMany(_ context.Context, coll Collection, filter Filter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := s.data[string(coll)]
	kept := make([]map[string]any, 0, len(docs))
	for _, d := range docs {
		if !filter.Match(d) {
			kept = append(kept, d)
		}
	}
	removed := int64(len(docs) - len(kept))
	if removed == 0 {
		return 0, nil
	}
	if err := s.commit(map[string][]map[string]any{string(coll): kept}); err != nil {
		return 0, err
	}
	return removed, nil
}

func (s *FileStore) EnsureCollections(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	missing := map[string][]map[string]any{}
	for _, coll := range AllCollections {
		if _, ok := s.data[string(coll)]; !ok {
			missing[string(coll)] = []map[string]any{}
		}
	}
	return s.commit(missing)
}

func (s *FileStore) Close(_ context.Context) error { return nil }
