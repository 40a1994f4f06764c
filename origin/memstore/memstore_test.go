package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dcache/edgecache/internal/kv"
	"github.com/dcache/edgecache/origin"
)

func TestStore_GetMissThenPutThenGetHit(t *testing.T) {
	s := New()
	ctx := context.Background()
	k := kv.KeyString("k")

	_, err := s.Get(ctx, k)
	require.ErrorIs(t, err, origin.ErrNotFound)

	require.NoError(t, s.Put(ctx, k, kv.NewValue([]byte("v"))))
	v, err := s.Get(ctx, k)
	require.NoError(t, err)
	require.Equal(t, "v", string(v.Bytes()))
}

func TestStore_Del(t *testing.T) {
	s := New()
	ctx := context.Background()
	k := kv.KeyString("k")

	require.NoError(t, s.Put(ctx, k, kv.NewValue([]byte("v"))))
	require.NoError(t, s.Del(ctx, k))

	_, err := s.Get(ctx, k)
	require.ErrorIs(t, err, origin.ErrNotFound)
}
