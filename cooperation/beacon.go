package cooperation

import (
	"github.com/dcache/edgecache/wire"
)

// Beacon composes the DirectoryTable and BlockTracker a single key's
// cooperation state lives behind, and translates between them and the
// wire message shapes of spec §6. One Beacon instance runs per edge that
// the DHT has assigned as a beacon for some slice of the keyspace; in
// this single-process module every edge runs one, since the DHT
// assignment is per-key, not per-edge-instance.
type Beacon struct {
	Directory *DirectoryTable
	Blocks    *BlockTracker
}

func NewBeacon(shardCount int) *Beacon {
	return &Beacon{
		Directory: NewDirectoryTable(shardCount),
		Blocks:    NewBlockTracker(),
	}
}

// HandleDirectoryLookup answers a DirectoryLookupRequest: beingWritten
// takes priority over a replica redirect, since a writer in flight means
// every replica is currently invalid.
func (b *Beacon) HandleDirectoryLookup(req wire.DirectoryLookupReq) wire.DirectoryLookupResp {
	if b.Blocks.IsWriteLocked(req.Key) {
		return wire.DirectoryLookupResp{Key: req.Key, Status: wire.DirStatusBeingWritten}
	}
	_, validExists, chosen, _ := b.Directory.Lookup(req.Key, req.SourceEdgeIdx)
	if !validExists {
		return wire.DirectoryLookupResp{Key: req.Key, Status: wire.DirStatusNone}
	}
	return wire.DirectoryLookupResp{
		Key:           req.Key,
		Status:        wire.DirStatusReplica,
		TargetEdgeIdx: chosen.TargetEdgeIdx,
	}
}

// HandleDirectoryUpdate applies an add/remove DirectoryUpdateRequest.
func (b *Beacon) HandleDirectoryUpdate(req wire.DirectoryUpdateReq) {
	b.Directory.Update(req.Key, req.IsAdmit, DirectoryInfo{TargetEdgeIdx: req.TargetEdgeIdx, Valid: true})
}

// HandleAcquireWritelock runs the beacon-server CAS variant and shapes
// the result into the wire response, encoding the invalidated peer set
// as plain edge indices per the AcquireWritelockResponse body.
func (b *Beacon) HandleAcquireWritelock(req wire.AcquireWritelockReq) wire.AcquireWritelockResp {
	result, affected := b.Blocks.AcquireLocalWritelockByBeaconServer(b.Directory, req.Key, req.SourceEdgeIdx)
	resp := wire.AcquireWritelockResp{Key: req.Key}
	switch result {
	case AcquireNoneed:
		resp.Result = wire.AcquireNoneed
	case AcquireFailure:
		resp.Result = wire.AcquireFailure
	case AcquireSuccess:
		resp.Result = wire.AcquireSuccess
		peers := make([]uint32, 0, len(affected))
		for _, info := range affected {
			peers = append(peers, info.TargetEdgeIdx)
		}
		resp.PeerEdges = peers
	}
	return resp
}

// HandleReleaseWritelock releases the writer and returns the set of
// blocked edges the caller must notify with FinishBlockRequest (pushing
// that notification is a transport concern, owned by dispatcher).
func (b *Beacon) HandleReleaseWritelock(req wire.ReleaseWritelockReq) []uint32 {
	return b.Blocks.ReleaseLocalWritelock(b.Directory, req.Key, req.SenderEdgeIdx)
}
