package policy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dcache/edgecache/internal/kv"
)

func TestSieve_VisitedEntrySurvivesOneSweep(t *testing.T) {
	p := newSieve(Config{CapacityBytes: 1 << 20})
	a, b := kv.KeyString("a"), kv.KeyString("b")
	p.Admit(a, kv.NewValue([]byte("1")))
	p.Admit(b, kv.NewValue([]byte("2")))

	_, ok := p.Lookup(a)
	require.True(t, ok)

	victim, ok := p.GetVictimKey()
	require.True(t, ok)
	require.True(t, victim.Equal(b), "the visited bit must protect a from this sweep")
}

func TestSieve_EvictWithGivenKeyAdvancesHandPastRemovedNode(t *testing.T) {
	p := newSieve(Config{CapacityBytes: 1 << 20})
	a, b := kv.KeyString("a"), kv.KeyString("b")
	p.Admit(a, kv.NewValue([]byte("1")))
	p.Admit(b, kv.NewValue([]byte("2")))

	victim, ok := p.GetVictimKey()
	require.True(t, ok)
	_, evicted := p.EvictWithGivenKey(victim)
	require.True(t, evicted)
	require.False(t, p.Exists(victim))
	require.NotNil(t, p.hand)
	require.True(t, p.hand.key.Equal(b), "the hand moves on from the evicted a to b")
}

func TestSieve_EvictNoGivenKeyPanics(t *testing.T) {
	p := newSieve(Config{CapacityBytes: 1 << 20})
	require.Panics(t, func() { p.EvictNoGivenKey(1) })
}
