package policy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dcache/edgecache/internal/kv"
)

func TestSLRU_SecondHitPromotesToProtected(t *testing.T) {
	p := newSLRU(Config{CapacityBytes: 1 << 20, WindowFraction: 0.8})
	k := kv.KeyString("k")
	p.Admit(k, kv.NewValue([]byte("v")))

	n := p.byKey[k.RawString()]
	require.Equal(t, slruSegProbation, n.extra)

	_, ok := p.Lookup(k)
	require.True(t, ok)
	require.Equal(t, slruSegProtected, n.extra)
}

func TestSLRU_VictimPrefersProbationOverProtected(t *testing.T) {
	p := newSLRU(Config{CapacityBytes: 1 << 20, WindowFraction: 0.8})
	hot, cold := kv.KeyString("hot"), kv.KeyString("cold")
	p.Admit(hot, kv.NewValue([]byte("v")))
	p.Lookup(hot) // promotes hot to protected
	p.Admit(cold, kv.NewValue([]byte("v")))

	victim, ok := p.GetVictimKey()
	require.True(t, ok)
	require.True(t, victim.Equal(cold), "probationary entries evict before protected ones")
}

func TestSLRU_CanAdmitRejectsOversizedObjects(t *testing.T) {
	p := newSLRU(Config{CapacityBytes: 1000, WindowFraction: 0.8})
	require.False(t, p.CanAdmit(300))
	require.True(t, p.CanAdmit(100))
}

func TestSLRU_EvictNoGivenKeyPanics(t *testing.T) {
	p := newSLRU(Config{CapacityBytes: 1 << 20})
	require.Panics(t, func() { p.EvictNoGivenKey(1) })
}
