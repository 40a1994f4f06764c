package policy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dcache/edgecache/internal/kv"
)

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	p := newLRU(Config{CapacityBytes: 1 << 20})

	a, b, c := kv.KeyString("a"), kv.KeyString("b"), kv.KeyString("c")
	p.Admit(a, kv.NewValue([]byte("1")))
	p.Admit(b, kv.NewValue([]byte("2")))
	p.Admit(c, kv.NewValue([]byte("3")))

	_, ok := p.Lookup(a)
	require.True(t, ok, "touching a must move it to the front")

	victim, ok := p.GetVictimKey()
	require.True(t, ok)
	require.True(t, victim.Equal(b), "b is now the least recently used")
}

func TestLRU_EvictNoGivenKeyPanics(t *testing.T) {
	p := newLRU(Config{CapacityBytes: 1 << 20})
	require.Panics(t, func() { p.EvictNoGivenKey(1) })
}

func TestLRU_UpdateTracksUsedBytes(t *testing.T) {
	p := newLRU(Config{CapacityBytes: 1 << 20})
	k := kv.KeyString("k")
	p.Admit(k, kv.NewValue([]byte("short")))
	before := p.SizeForCapacity()

	require.True(t, p.Update(k, kv.NewValue([]byte("a much longer value"))))
	require.Greater(t, p.SizeForCapacity(), before)
}
