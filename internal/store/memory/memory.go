package memory

import (
	"context"
	"sync"

	"github.com/hejijunhao/kimo/internal/store"
)

func init() {
	store.Register("memory", func(string) (store.Store, error) { return New(), nil })
}

// Store keeps values in a map. Nothing survives the process.
type Store struct {
	mu   sync.RWMutex
	data map[string]string
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{data: make(map[string]string)}
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return v, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *Store) Close() error { return nil }
