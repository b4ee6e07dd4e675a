package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/hejijunhao/kimo/internal/store"
)

func init() {
	store.Register("file", func(path string) (store.Store, error) { return New(path) })
}

// Store persists all keys as one JSON object. Every Set rewrites the file
// through a temporary file and a rename.
type Store struct {
	mu   sync.Mutex
	path string
	data map[string]string
}

// New opens (or prepares to create) the JSON document at path. A document
// that cannot be parsed is treated as empty and replaced on the next Set.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("file store: mkdir: %w", err)
	}
	s := &Store{path: path, data: make(map[string]string)}

	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("file store: read %s: %w", path, err)
	}
	if len(raw) > 0 {
		if err := sonic.Unmarshal(raw, &s.data); err != nil || s.data == nil {
			s.data = make(map[string]string)
		}
	}
	return s, nil
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return v, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.data[key]
	s.data[key] = value
	if err := s.flushLocked(); err != nil {
		if had {
			s.data[key] = prev
		} else {
			delete(s.data, key)
		}
		return err
	}
	return nil
}

func (s *Store) Close() error { return nil }

// flushLocked writes the whole document. Caller must hold s.mu.
func (s *Store) flushLocked() error {
	data, err := sonic.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("file store: marshal: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("file store: write: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("file store: rename: %w", err)
	}
	return nil
}
