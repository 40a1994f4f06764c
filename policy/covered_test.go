package policy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dcache/edgecache/internal/kv"
)

func TestCovered_AdmitAndLookupAccumulateRequestCount(t *testing.T) {
	c := newCovered(newLRU(Config{CapacityBytes: 1 << 20}))
	k := kv.KeyString("k")
	c.Admit(k, kv.NewValue([]byte("v")))
	c.Lookup(k)
	c.Lookup(k)

	count, _, ok := c.PopularityOf(k)
	require.True(t, ok)
	require.Equal(t, uint64(3), count, "admit plus two lookups is three touches")
}

func TestCovered_RecordRemoteRequestTracksLastEdgeSeen(t *testing.T) {
	c := newCovered(newLRU(Config{CapacityBytes: 1 << 20}))
	k := kv.KeyString("k")
	c.RecordRemoteRequest(k, 7)

	count, lastEdge, ok := c.PopularityOf(k)
	require.True(t, ok)
	require.Equal(t, uint64(1), count)
	require.Equal(t, uint32(7), lastEdge)
}

func TestCovered_EvictionClearsPopularityBookkeeping(t *testing.T) {
	c := newCovered(newLRU(Config{CapacityBytes: 1 << 20}))
	k := kv.KeyString("k")
	c.Admit(k, kv.NewValue([]byte("v")))

	_, ok := c.EvictWithGivenKey(k)
	require.True(t, ok)

	_, _, known := c.PopularityOf(k)
	require.False(t, known, "evicting a key must drop its popularity entry")
}

func TestCovered_DelegatesFineGrainedManagementToBase(t *testing.T) {
	c := newCovered(newLRU(Config{CapacityBytes: 1 << 20}))
	require.True(t, c.HasFineGrainedManagement())
}
