package policy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dcache/edgecache/internal/kv"
)

func TestLHD_GetVictimKeyPicksLowerDensitySample(t *testing.T) {
	p := newLHD(Config{CapacityBytes: 1 << 20})
	cold, hot := kv.KeyString("cold"), kv.KeyString("hot")
	p.Admit(cold, kv.NewValue([]byte("v")))
	p.Admit(hot, kv.NewValue([]byte("v")))

	for i := 0; i < 10; i++ {
		_, ok := p.Lookup(hot)
		require.True(t, ok)
	}

	victim, ok := p.GetVictimKey()
	require.True(t, ok)
	require.True(t, victim.Equal(cold), "an object with no recorded hits must look less dense than a frequently hit one")
}

func TestLHD_EvictWithGivenKeyRemovesFromSamplingPool(t *testing.T) {
	p := newLHD(Config{CapacityBytes: 1 << 20})
	k := kv.KeyString("k")
	p.Admit(k, kv.NewValue([]byte("v")))

	_, evicted := p.EvictWithGivenKey(k)
	require.True(t, evicted)
	require.False(t, p.Exists(k))
	require.Equal(t, 0, p.all.Len())
}

func TestLHD_EvictNoGivenKeyPanics(t *testing.T) {
	p := newLHD(Config{CapacityBytes: 1 << 20})
	require.Panics(t, func() { p.EvictNoGivenKey(1) })
}
