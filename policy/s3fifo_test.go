package policy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dcache/edgecache/internal/kv"
)

func TestS3FIFO_UnvisitedSmallEntryEvictsIntoGhost(t *testing.T) {
	p := newS3FIFO(Config{CapacityBytes: 1000, GhostFraction: 0.10})
	k := kv.KeyString("k")
	p.Admit(k, kv.NewValue([]byte("v")))

	victims := p.EvictNoGivenKey(1)
	require.Len(t, victims, 1)
	_, isGhost := p.ghost[k.RawString()]
	require.True(t, isGhost)
	require.False(t, p.Exists(k))
}

func TestS3FIFO_VisitedSmallEntryGraduatesToMain(t *testing.T) {
	p := newS3FIFO(Config{CapacityBytes: 1000, GhostFraction: 0.10})
	hit, cold := kv.KeyString("hit"), kv.KeyString("cold")
	p.Admit(hit, kv.NewValue([]byte("v")))
	p.Lookup(hit)
	p.Admit(cold, kv.NewValue([]byte("v2")))

	n := p.evictFromSmall()
	require.NotNil(t, n)
	require.False(t, n.key.Equal(hit), "a once-hit entry graduates instead of being evicted")
	require.True(t, p.Exists(hit), "hit must now live in main, not evicted")
}

func TestS3FIFO_GhostReadmitGoesDirectlyToMain(t *testing.T) {
	p := newS3FIFO(Config{CapacityBytes: 1000, GhostFraction: 0.10})
	k := kv.KeyString("k")
	p.Admit(k, kv.NewValue([]byte("v")))
	p.EvictNoGivenKey(1)
	require.True(t, len(p.ghost) > 0)

	p.Admit(k, kv.NewValue([]byte("v2")))
	n := p.byKey[k.RawString()]
	require.NotNil(t, n)
	require.Equal(t, 0, p.small.Len(), "a ghost readmit must skip the small queue")
}

func TestS3FIFO_GetVictimKeyPanicsOnCoarsePolicy(t *testing.T) {
	p := newS3FIFO(Config{CapacityBytes: 1 << 20})
	require.Panics(t, func() { p.GetVictimKey() })
}
