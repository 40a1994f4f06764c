package policy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dcache/edgecache/internal/kv"
)

func TestFIFO_HitDoesNotReorder(t *testing.T) {
	p := newFIFO(Config{CapacityBytes: 1 << 20})
	a, b := kv.KeyString("a"), kv.KeyString("b")
	p.Admit(a, kv.NewValue([]byte("1")))
	p.Admit(b, kv.NewValue([]byte("2")))

	_, ok := p.Lookup(a)
	require.True(t, ok)

	victim, ok := p.GetVictimKey()
	require.True(t, ok)
	require.True(t, victim.Equal(a), "FIFO must evict in admission order regardless of hits")
}

func TestFIFO_EvictNoGivenKeyPanics(t *testing.T) {
	p := newFIFO(Config{CapacityBytes: 1 << 20})
	require.Panics(t, func() { p.EvictNoGivenKey(1) })
}

func TestFIFO_CanAdmitRespectsCapacity(t *testing.T) {
	p := newFIFO(Config{CapacityBytes: 100})
	require.True(t, p.CanAdmit(50))
	require.False(t, p.CanAdmit(500))
}
