package policy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dcache/edgecache/internal/kv"
)

func TestWTinyLFU_SketchEstimateGrowsWithAccesses(t *testing.T) {
	s := newCMSketch(1 << 16)
	h := kv.KeyString("hot").Hash()
	require.Equal(t, uint8(0), s.estimate(h))
	s.add(h)
	s.add(h)
	require.Equal(t, uint8(2), s.estimate(h))
}

func TestWTinyLFU_HalveReducesEstimate(t *testing.T) {
	s := newCMSketch(1 << 16)
	h := kv.KeyString("hot").Hash()
	for i := 0; i < 10; i++ {
		s.add(h)
	}
	before := s.estimate(h)
	s.halve()
	require.Less(t, s.estimate(h), before)
}

func TestWTinyLFU_SecondHitPromotesFromProbationToProtected(t *testing.T) {
	p := newWTinyLFU(Config{CapacityBytes: 1 << 20, WindowFraction: 0.01})
	k := kv.KeyString("k")
	p.Admit(k, kv.NewValue([]byte("v")))
	n := p.byKey[k.RawString()]
	n.extra = wtinylfuProbation // simulate having survived the window contest

	_, ok := p.Lookup(k)
	require.True(t, ok)
	require.Equal(t, wtinylfuProtected, n.extra)
}

func TestWTinyLFU_FrequentWindowCandidateEvictsColdMainVictim(t *testing.T) {
	p := newWTinyLFU(Config{CapacityBytes: 2000, WindowFraction: 0.01})
	cold := kv.KeyString("cold")
	hot := kv.KeyString("hot")

	p.Admit(cold, kv.NewValue([]byte("v")))
	n := p.byKey[cold.RawString()]
	n.extra = wtinylfuProbation
	p.window.remove(n)
	p.probation.pushFront(n)

	p.Admit(hot, kv.NewValue(make([]byte, 32))) // 35 bytes, over the 20-byte window
	for i := 0; i < 20; i++ {
		p.sketch.add(hot.Hash())
	}

	require.Greater(t, p.segBytes(&p.window), p.windowCap, "the window must be over budget to trigger the contest")
	victims := p.EvictNoGivenKey(1)
	_, coldEvicted := victims[cold.RawString()]
	require.True(t, coldEvicted, "a much more frequent window candidate must displace the cold main victim")
	require.True(t, p.Exists(hot))
}

func TestWTinyLFU_GetVictimKeyPanicsOnCoarsePolicy(t *testing.T) {
	p := newWTinyLFU(Config{CapacityBytes: 1 << 20})
	require.Panics(t, func() { p.GetVictimKey() })
}
