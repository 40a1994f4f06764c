// Package redisstore is a network-attached origin.Store backed by
// github.com/go-redis/redis/v8 (listed directly in
// simplygulshan4u-ecache2's go.mod), matching spec §6's requirement that
// the origin behave like a reliable request/response service rather
// than an embedded library.
package redisstore

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"

	"github.com/dcache/edgecache/internal/kv"
	"github.com/dcache/edgecache/origin"
)

type Store struct {
	client *redis.Client
}

// New wraps an already-configured *redis.Client (callers build it with
// redis.NewClient so connection pooling/TLS/auth stay the caller's call).
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Get(ctx context.Context, k kv.Key) (kv.Value, error) {
	b, err := s.client.Get(ctx, k.RawString()).Bytes()
	if errors.Is(err, redis.Nil) {
		return kv.Value{}, origin.ErrNotFound
	}
	if err != nil {
		return kv.Value{}, err
	}
	return kv.NewValue(b), nil
}

func (s *Store) Put(ctx context.Context, k kv.Key, v kv.Value) error {
	return s.client.Set(ctx, k.RawString(), v.Bytes(), 0).Err()
}

func (s *Store) Del(ctx context.Context, k kv.Key) error {
	return s.client.Del(ctx, k.RawString()).Err()
}
