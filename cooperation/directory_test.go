package cooperation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dcache/edgecache/internal/kv"
)

func TestDirectoryTable_LookupSkipsSelfAndInvalid(t *testing.T) {
	dt := NewDirectoryTable(16)
	k := kv.KeyString("k")

	dt.Update(k, true, DirectoryInfo{TargetEdgeIdx: 1, Valid: true})
	dt.Update(k, true, DirectoryInfo{TargetEdgeIdx: 2, Valid: false})

	anyCached, validExists, chosen, isSourceCached := dt.Lookup(k, 1)
	require.True(t, anyCached)
	require.True(t, isSourceCached)
	require.False(t, validExists, "the only valid entry belongs to the requester itself")
	require.Equal(t, DirectoryInfo{}, chosen)

	anyCached, validExists, chosen, isSourceCached = dt.Lookup(k, 9)
	require.True(t, anyCached)
	require.False(t, isSourceCached)
	require.True(t, validExists)
	require.Equal(t, uint32(1), chosen.TargetEdgeIdx)
}

func TestDirectoryTable_UpdateRemoveDeletesEmptyEntry(t *testing.T) {
	dt := NewDirectoryTable(16)
	k := kv.KeyString("k")

	dt.Update(k, true, DirectoryInfo{TargetEdgeIdx: 1, Valid: true})
	require.True(t, dt.IsGlobalCached(k))

	dt.Update(k, false, DirectoryInfo{TargetEdgeIdx: 1})
	require.False(t, dt.IsGlobalCached(k))
}

func TestDirectoryTable_InvalidateAllThenRevalidate(t *testing.T) {
	dt := NewDirectoryTable(16)
	k := kv.KeyString("k")

	dt.Update(k, true, DirectoryInfo{TargetEdgeIdx: 1, Valid: true})
	dt.Update(k, true, DirectoryInfo{TargetEdgeIdx: 2, Valid: true})

	affected := dt.InvalidateAllDirinfoForKeyIfExist(k)
	require.Len(t, affected, 2)
	for _, info := range affected {
		require.False(t, info.Valid)
	}

	_, validExists, _, _ := dt.Lookup(k, 99)
	require.False(t, validExists)

	dt.ValidateDirinfoForKeyIfExist(k, 1)
	_, validExists, chosen, _ := dt.Lookup(k, 99)
	require.True(t, validExists)
	require.Equal(t, uint32(1), chosen.TargetEdgeIdx)
}

func TestBlockTracker_AcquireContendsAndReleasesUnblocks(t *testing.T) {
	dt := NewDirectoryTable(16)
	bt := NewBlockTracker()
	k := kv.KeyString("locked")
	dt.Update(k, true, DirectoryInfo{TargetEdgeIdx: 1, Valid: true})

	res, affected := bt.AcquireLocalWritelockByCacheServer(dt, k)
	require.Equal(t, AcquireSuccess, res)
	require.Len(t, affected, 1)
	require.True(t, bt.IsWriteLocked(k))

	res, _ = bt.AcquireLocalWritelockByBeaconServer(dt, k, 7)
	require.Equal(t, AcquireFailure, res)

	drained := bt.ReleaseLocalWritelock(dt, k, 1)
	require.Equal(t, []uint32{7}, drained)
	require.False(t, bt.IsWriteLocked(k))
}

func TestBlockTracker_NoneedWhenNotGlobalCached(t *testing.T) {
	dt := NewDirectoryTable(16)
	bt := NewBlockTracker()
	res, affected := bt.AcquireLocalWritelockByCacheServer(dt, kv.KeyString("never-cached"))
	require.Equal(t, AcquireNoneed, res)
	require.Nil(t, affected)
}
