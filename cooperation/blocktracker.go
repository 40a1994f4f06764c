package cooperation

import (
	"sync"

	"github.com/dcache/edgecache/internal/kv"
)

// blockState is one key's MSI write-lock bookkeeping: a CAS-guarded
// writeFlag plus the set of addresses waiting for the current writer to
// finish, per spec §4.3.3.
type blockState struct {
	mu           sync.Mutex
	writeFlag    bool
	blockedEdges map[uint32]struct{}
}

// BlockTracker is Map<Key, blockState>, the per-key MSI state machine
// (I = idle, W = write-lock held) every AcquireWritelock/ReleaseWritelock
// RPC drives.
type BlockTracker struct {
	mu    sync.Mutex
	state map[string]*blockState
}

func NewBlockTracker() *BlockTracker {
	return &BlockTracker{state: make(map[string]*blockState)}
}

func (t *BlockTracker) stateFor(k kv.Key) *blockState {
	raw := k.RawString()
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.state[raw]
	if !ok {
		s = &blockState{blockedEdges: make(map[uint32]struct{})}
		t.state[raw] = s
	}
	return s
}

// AcquireResult mirrors wire.AcquireResult's three outcomes without
// importing the wire package (cooperation stays wire-format-agnostic;
// dispatcher maps between the two).
type AcquireResult uint8

const (
	AcquireNoneed AcquireResult = iota
	AcquireSuccess
	AcquireFailure
)

// AcquireLocalWritelockByCacheServer implements §4.3.3's cache-server
// variant: Noneed if the key isn't cooperatively cached at all, else a
// CAS attempt on writeFlag. On success, every DirectoryInfo for the key
// is invalidated and the affected set is returned for fan-out.
func (t *BlockTracker) AcquireLocalWritelockByCacheServer(dir *DirectoryTable, k kv.Key) (AcquireResult, []DirectoryInfo) {
	if !dir.IsGlobalCached(k) {
		return AcquireNoneed, nil
	}
	s := t.stateFor(k)
	s.mu.Lock()
	if s.writeFlag {
		s.mu.Unlock()
		return AcquireFailure, nil
	}
	s.writeFlag = true
	s.mu.Unlock()

	return AcquireSuccess, dir.InvalidateAllDirinfoForKeyIfExist(k)
}

// AcquireLocalWritelockByBeaconServer is the beacon-server variant: on
// CAS failure the requester's edge index is enqueued in blockedEdges so
// a later release can push it an unblock notice.
func (t *BlockTracker) AcquireLocalWritelockByBeaconServer(dir *DirectoryTable, k kv.Key, requesterEdge uint32) (AcquireResult, []DirectoryInfo) {
	if !dir.IsGlobalCached(k) {
		return AcquireNoneed, nil
	}
	s := t.stateFor(k)
	s.mu.Lock()
	if s.writeFlag {
		s.blockedEdges[requesterEdge] = struct{}{}
		s.mu.Unlock()
		return AcquireFailure, nil
	}
	s.writeFlag = true
	s.mu.Unlock()

	return AcquireSuccess, dir.InvalidateAllDirinfoForKeyIfExist(k)
}

// ReleaseLocalWritelock clears writeFlag, drains blockedEdges (returning
// its contents so the caller can push FinishBlock to each), and
// re-validates the writer's own directory entry.
func (t *BlockTracker) ReleaseLocalWritelock(dir *DirectoryTable, k kv.Key, writerEdge uint32) []uint32 {
	s := t.stateFor(k)
	s.mu.Lock()
	s.writeFlag = false
	drained := make([]uint32, 0, len(s.blockedEdges))
	for edge := range s.blockedEdges {
		drained = append(drained, edge)
	}
	s.blockedEdges = make(map[uint32]struct{})
	s.mu.Unlock()

	dir.ValidateDirinfoForKeyIfExist(k, writerEdge)
	return drained
}

// IsWriteLocked is used by the client GET path to decide whether to wait
// for an unblock or fall through to origin.
func (t *BlockTracker) IsWriteLocked(k kv.Key) bool {
	raw := k.RawString()
	t.mu.Lock()
	s, ok := t.state[raw]
	t.mu.Unlock()
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeFlag
}
