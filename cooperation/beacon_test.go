package cooperation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dcache/edgecache/internal/kv"
	"github.com/dcache/edgecache/wire"
)

func TestBeacon_DirectoryLookupFullCycle(t *testing.T) {
	b := NewBeacon(16)
	k := kv.KeyString("k")

	resp := b.HandleDirectoryLookup(wire.DirectoryLookupReq{Key: k, SourceEdgeIdx: 0})
	require.Equal(t, wire.DirStatusNone, resp.Status)

	b.HandleDirectoryUpdate(wire.DirectoryUpdateReq{Key: k, IsAdmit: true, TargetEdgeIdx: 3})
	resp = b.HandleDirectoryLookup(wire.DirectoryLookupReq{Key: k, SourceEdgeIdx: 0})
	require.Equal(t, wire.DirStatusReplica, resp.Status)
	require.Equal(t, uint32(3), resp.TargetEdgeIdx)
}

func TestBeacon_WritelockBlocksLookupsUntilReleased(t *testing.T) {
	b := NewBeacon(16)
	k := kv.KeyString("locked")
	// The writer (edge 0) already holds its own replica, plus a peer (edge 1).
	b.HandleDirectoryUpdate(wire.DirectoryUpdateReq{Key: k, IsAdmit: true, TargetEdgeIdx: 1})
	b.HandleDirectoryUpdate(wire.DirectoryUpdateReq{Key: k, IsAdmit: true, TargetEdgeIdx: 0})

	acq := b.HandleAcquireWritelock(wire.AcquireWritelockReq{Key: k, SourceEdgeIdx: 0})
	require.Equal(t, wire.AcquireSuccess, acq.Result)
	require.ElementsMatch(t, []uint32{0, 1}, acq.PeerEdges)

	resp := b.HandleDirectoryLookup(wire.DirectoryLookupReq{Key: k, SourceEdgeIdx: 2})
	require.Equal(t, wire.DirStatusBeingWritten, resp.Status)

	second := b.HandleAcquireWritelock(wire.AcquireWritelockReq{Key: k, SourceEdgeIdx: 5})
	require.Equal(t, wire.AcquireFailure, second.Result)

	drained := b.HandleReleaseWritelock(wire.ReleaseWritelockReq{Key: k, SenderEdgeIdx: 0})
	require.Equal(t, []uint32{5}, drained)

	// Only the writer's own entry (edge 0) is revalidated on release; the
	// peer's entry (edge 1) stays invalid until it refreshes independently.
	resp = b.HandleDirectoryLookup(wire.DirectoryLookupReq{Key: k, SourceEdgeIdx: 2})
	require.Equal(t, wire.DirStatusReplica, resp.Status)
	require.Equal(t, uint32(0), resp.TargetEdgeIdx)
}
