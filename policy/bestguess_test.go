package policy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dcache/edgecache/internal/kv"
)

func TestBestGuess_SmallerObjectRanksHigher(t *testing.T) {
	b := newBestGuess(newLRU(Config{CapacityBytes: 1 << 20}))
	small, big := kv.KeyString("small"), kv.KeyString("big")
	b.Admit(small, kv.NewValue(make([]byte, 16)))
	b.Admit(big, kv.NewValue(make([]byte, 4096)))

	smallRank, _, ok := b.PopularityOf(small)
	require.True(t, ok)
	bigRank, _, ok := b.PopularityOf(big)
	require.True(t, ok)
	require.Greater(t, smallRank, bigRank, "a smaller object must rank as more worth replicating")
}

func TestBestGuess_PopularityOfMissingKeyIsNotOK(t *testing.T) {
	b := newBestGuess(newLRU(Config{CapacityBytes: 1 << 20}))
	_, _, ok := b.PopularityOf(kv.KeyString("absent"))
	require.False(t, ok)
}

func TestBestGuess_RecordRemoteRequestIsNoop(t *testing.T) {
	b := newBestGuess(newLRU(Config{CapacityBytes: 1 << 20}))
	require.NotPanics(t, func() { b.RecordRemoteRequest(kv.KeyString("k"), 3) })
}
