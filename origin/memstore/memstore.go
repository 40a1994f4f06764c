// Package memstore is a map-backed origin.Store, the reference backend
// used by tests and the illustrative CLIs when no real origin is wired.
package memstore

import (
	"context"
	"sync"

	"github.com/dcache/edgecache/internal/kv"
	"github.com/dcache/edgecache/origin"
)

type Store struct {
	mu   sync.RWMutex
	data map[string]kv.Value
}

func New() *Store {
	return &Store{data: make(map[string]kv.Value)}
}

func (s *Store) Get(ctx context.Context, k kv.Key) (kv.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[k.RawString()]
	if !ok {
		return kv.Value{}, origin.ErrNotFound
	}
	return v, nil
}

func (s *Store) Put(ctx context.Context, k kv.Key, v kv.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[k.RawString()] = v
	return nil
}

func (s *Store) Del(ctx context.Context, k kv.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, k.RawString())
	return nil
}
