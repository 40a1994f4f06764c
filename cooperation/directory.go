// Package cooperation implements the beacon-side state every edge
// consults to find and synchronize cooperative replicas (spec §4.3): the
// DHT-resolved beacon assignment, the per-key directory of which edges
// hold a (valid or invalidated) replica, and the MSI write-lock state
// machine. Grounded on the teacher's shard-level per-key locking
// discipline (cache/shard.go), reused here at the beacon instead of the
// cache engine.
package cooperation

import (
	"math/rand"
	"sync"

	"github.com/dcache/edgecache/internal/keylock"
	"github.com/dcache/edgecache/internal/kv"
)

// DirectoryInfo names one edge's replica of a key and whether it is
// currently considered valid.
type DirectoryInfo struct {
	TargetEdgeIdx uint32
	Valid         bool
}

type directoryEntry struct {
	infos []DirectoryInfo
}

// DirectoryTable is Map<Key, DirectoryEntry> plus a per-key lock table
// exposed via Locks(). Every operation below is serialized by mu; none
// of them takes the per-key lock table.
type DirectoryTable struct {
	locks   *keylock.Table
	entries map[string]*directoryEntry
	// mu guards the entries map and serializes every operation on it, so
	// concurrent operations on two different keys never race on the same
	// underlying Go map.
	mu sync.Mutex
}

func NewDirectoryTable(shardCount int) *DirectoryTable {
	return &DirectoryTable{
		locks:   keylock.NewTable(shardCount),
		entries: make(map[string]*directoryEntry),
	}
}

// Locks exposes the table's per-key lock table. Beacon does not call it;
// directory and block-tracker operations each run under their own
// structure's mutex.
func (t *DirectoryTable) Locks() *keylock.Table { return t.locks }

// Lookup implements §4.3.2's lookup contract: anyCached reports whether
// any DirectoryEntry exists for k at all; chosenDirinfo is picked
// uniformly at random among valid infos whose target isn't sourceEdgeIdx
// (never redirect a requester to itself); isSourceCached reports whether
// the source edge itself already holds a (valid or invalid) entry.
func (t *DirectoryTable) Lookup(k kv.Key, sourceEdgeIdx uint32) (anyCached bool, validDirinfoExists bool, chosen DirectoryInfo, isSourceCached bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[k.RawString()]
	if !ok {
		return false, false, DirectoryInfo{}, false
	}
	anyCached = true

	var candidates []DirectoryInfo
	for _, info := range e.infos {
		if info.TargetEdgeIdx == sourceEdgeIdx {
			isSourceCached = true
		}
		if info.Valid && info.TargetEdgeIdx != sourceEdgeIdx {
			candidates = append(candidates, info)
		}
	}
	if len(candidates) == 0 {
		return anyCached, false, DirectoryInfo{}, isSourceCached
	}
	chosen = candidates[rand.Intn(len(candidates))]
	return anyCached, true, chosen, isSourceCached
}

// Update adds or removes one DirectoryInfo for k; removing the last one
// deletes the DirectoryEntry outright.
func (t *DirectoryTable) Update(k kv.Key, isAdmit bool, dirinfo DirectoryInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()

	raw := k.RawString()
	e, ok := t.entries[raw]
	if !ok {
		if !isAdmit {
			return
		}
		e = &directoryEntry{}
		t.entries[raw] = e
	}

	if isAdmit {
		for i, info := range e.infos {
			if info.TargetEdgeIdx == dirinfo.TargetEdgeIdx {
				e.infos[i] = dirinfo
				return
			}
		}
		e.infos = append(e.infos, dirinfo)
		return
	}

	for i, info := range e.infos {
		if info.TargetEdgeIdx == dirinfo.TargetEdgeIdx {
			e.infos = append(e.infos[:i], e.infos[i+1:]...)
			break
		}
	}
	if len(e.infos) == 0 {
		delete(t.entries, raw)
	}
}

// IsGlobalCached reports whether any DirectoryEntry exists for k.
func (t *DirectoryTable) IsGlobalCached(k kv.Key) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[k.RawString()]
	return ok
}

// InvalidateAllDirinfoForKeyIfExist flips every DirectoryInfo for k to
// invalid, returning the affected set so the caller can fan out
// invalidation RPCs.
func (t *DirectoryTable) InvalidateAllDirinfoForKeyIfExist(k kv.Key) []DirectoryInfo {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[k.RawString()]
	if !ok {
		return nil
	}
	affected := make([]DirectoryInfo, len(e.infos))
	for i := range e.infos {
		e.infos[i].Valid = false
		affected[i] = e.infos[i]
	}
	return affected
}

// ValidateDirinfoForKeyIfExist flips one edge's DirectoryInfo back to
// valid, used by the post-write resynchronization step (spec §4.3.3's
// releaseLocalWritelock).
func (t *DirectoryTable) ValidateDirinfoForKeyIfExist(k kv.Key, edgeIdx uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[k.RawString()]
	if !ok {
		return
	}
	for i := range e.infos {
		if e.infos[i].TargetEdgeIdx == edgeIdx {
			e.infos[i].Valid = true
			return
		}
	}
}
