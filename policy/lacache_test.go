package policy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dcache/edgecache/internal/kv"
)

func TestLACache_Use2FallsBackToRecency(t *testing.T) {
	p := newLACache(Config{CapacityBytes: 1 << 20})
	cold, hot := kv.KeyString("cold"), kv.KeyString("hot")
	p.Admit(cold, kv.NewValue([]byte("v")))
	p.Admit(hot, kv.NewValue([]byte("v")))

	for i := 0; i < 5; i++ {
		_, ok := p.Lookup(hot)
		require.True(t, ok)
	}

	victim, ok := p.GetVictimKey()
	require.True(t, ok)
	require.True(t, victim.Equal(cold), "a never-requested-again entry must look further-out than a frequently requested one")
}

func TestLACache_EvictWithGivenKeyRemovesFromSamplingPool(t *testing.T) {
	p := newLACache(Config{CapacityBytes: 1 << 20})
	k := kv.KeyString("k")
	p.Admit(k, kv.NewValue([]byte("v")))

	_, evicted := p.EvictWithGivenKey(k)
	require.True(t, evicted)
	require.False(t, p.Exists(k))
}

func TestLACache_EvictNoGivenKeyPanics(t *testing.T) {
	p := newLACache(Config{CapacityBytes: 1 << 20})
	require.Panics(t, func() { p.EvictNoGivenKey(1) })
}
