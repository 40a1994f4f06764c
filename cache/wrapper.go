// Package cache implements the Cache Wrapper (spec §4.2): the sole
// gateway to mutating or observing a per-edge cache, composing the local
// cache engine (policy.Policy), the per-key lock table, and the
// ValidityMap into lock→engine→validity→unlock sequences. Grounded on
// the teacher's cache/shard.go, which plays the same "one lock section
// per public call" role around its own intrusive list, generalized from
// a single shard to a policy-driven fine/coarse lock discipline.
package cache

import (
	"sync"

	"github.com/dcache/edgecache/errs"
	"github.com/dcache/edgecache/internal/keylock"
	"github.com/dcache/edgecache/internal/kv"
	"github.com/dcache/edgecache/internal/util"
	"github.com/dcache/edgecache/policy"
)

// Wrapper is the cache engine's only caller-facing surface; dispatcher
// never touches policy.Policy directly.
type Wrapper struct {
	engine      policy.Policy
	locks       keylock.Locker
	fineGrained bool

	// valid is sharded independently of locks so that validity reads for
	// one key never race with validity writes for another: a plain map
	// guarded by one per-key lock is not safe for concurrent access from a
	// different key's lock holder, so ValidityMap gets its own RWMutex
	// per shard rather than reusing the engine's lock table directly.
	valid validityMap
}

// New builds a Wrapper around engine, sizing the lock discipline from the
// policy's own HasFineGrainedManagement() (spec §9's explicit
// requirement that no caller can reach a coarse-grained policy through a
// fine-grained path, since For() is the only place that decision is made).
func New(engine policy.Policy, lockShardCount int) *Wrapper {
	fine := engine.HasFineGrainedManagement()
	return &Wrapper{
		engine:      engine,
		locks:       keylock.For(fine, lockShardCount),
		fineGrained: fine,
		valid:       newValidityMap(lockShardCount),
	}
}

// IsLocalCached is a read-locked existence query of the engine.
func (w *Wrapper) IsLocalCached(k kv.Key) bool {
	w.locks.RLock(k)
	defer w.locks.RUnlock(k)
	return w.engine.Exists(k)
}

// IsValidKeyForLocalCachedObject is a read-locked query of ValidityMap.
func (w *Wrapper) IsValidKeyForLocalCachedObject(k kv.Key) bool {
	w.locks.RLock(k)
	defer w.locks.RUnlock(k)
	return w.valid.get(k)
}

// InvalidateKeyForLocalCachedObject write-locks the key and flips its
// validity entry to invalid without touching the engine.
func (w *Wrapper) InvalidateKeyForLocalCachedObject(k kv.Key) {
	w.locks.Lock(k)
	defer w.locks.Unlock(k)
	w.valid.set(k, false)
}

// Get returns the value only when the key is both locally cached and
// valid; isRedirected is accepted for parity with the spec signature and
// does not change Wrapper's behavior (covered's cooperative-hit
// accounting happens one layer up, in dispatcher).
func (w *Wrapper) Get(k kv.Key, isRedirected bool) (kv.Value, bool) {
	w.locks.RLock(k)
	defer w.locks.RUnlock(k)
	v, ok := w.engine.Lookup(k)
	if !ok {
		return kv.Value{}, false
	}
	if !w.valid.get(k) {
		return kv.Value{}, false
	}
	return v, true
}

// Update writes v for k under the write lock, in place, only when k is
// already locally cached (spec §4.1: Update is "in-place update of an
// already-cached key's value; on miss, no change"). isGlobalCached is
// accepted for parity with the spec's signature but does not change
// Wrapper's own behavior. Returns whether k was already locally cached
// before this call (wasLocalCached); on a miss this is false and Update
// performs no admission — the write path (spec §4.4) only updates
// locally if cached, leaving new-replica admission to the GET origin-fetch
// path and background placement, both of which pair Admit with a beacon
// directory notification.
func (w *Wrapper) Update(k kv.Key, v kv.Value, isGlobalCached bool) (wasLocalCached bool, err error) {
	w.locks.Lock(k)
	defer w.locks.Unlock(k)

	wasLocalCached = w.engine.Exists(k)
	if !wasLocalCached {
		return false, nil
	}
	if !w.engine.Update(k, v) {
		// Invariant: Exists reported true but Update reported a miss.
		return wasLocalCached, errs.ErrInvariantViolation
	}
	w.valid.set(k, true)
	return wasLocalCached, nil
}

// Delete is update(K, tombstone) per spec §4.2.
func (w *Wrapper) Delete(k kv.Key, isGlobalCached bool) (wasLocalCached bool, err error) {
	return w.Update(k, kv.Tombstone(), isGlobalCached)
}

// UpdateIfInvalidForGetrsp folds a just-arrived origin response into the
// engine when the local copy was cached-but-invalid; if the key was not
// cached at all, it still informs the engine so miss-side policy
// metadata (frequency sketches, popularity, ...) advances.
func (w *Wrapper) UpdateIfInvalidForGetrsp(k kv.Key, v kv.Value, isGlobalCached bool) {
	w.locks.Lock(k)
	defer w.locks.Unlock(k)

	if w.engine.Exists(k) {
		if !w.valid.get(k) {
			w.engine.Update(k, v)
			w.valid.set(k, true)
		}
		return
	}
	w.engine.NeedIndependentAdmit(k, v)
}

// NeedIndependentAdmit is a read-locked admission-control probe run
// before deciding to fetch/admit from origin.
func (w *Wrapper) NeedIndependentAdmit(k kv.Key, v kv.Value) bool {
	w.locks.RLock(k)
	defer w.locks.RUnlock(k)
	return w.engine.NeedIndependentAdmit(k, v)
}

// Admit inserts a freshly fetched object, recording validity as isValid
// (false when the beacon reported a write in progress). isNeighborCached
// is accepted for parity with the spec signature; the engine itself
// doesn't need it, only the dispatcher's directory-update decision does.
func (w *Wrapper) Admit(k kv.Key, v kv.Value, isNeighborCached, isValid bool) error {
	w.locks.Lock(k)
	defer w.locks.Unlock(k)

	if !w.engine.CanAdmit(kv.ObjectSize(k, v)) {
		return errs.ErrInvalidObjectSize
	}
	w.engine.Admit(k, v)
	w.valid.set(k, isValid)
	return nil
}

// Evict frees at least requiredBytes, dispatching to the fine- or
// coarse-grained variant per the engine's own declaration. victims is an
// optional caller-proposed set for the fine-grained path (e.g. the
// dispatcher's own idea of which key to make room for). The
// coarse-grained path always lets the engine choose; passing victims to
// it panics with errs.ErrInvariantViolation.
func (w *Wrapper) Evict(victims []kv.Key, requiredBytes uint64) (map[string]kv.Value, error) {
	if !w.fineGrained {
		if len(victims) > 0 {
			panic(errs.ErrInvariantViolation)
		}
		w.locks.Lock(kv.Key{})
		defer w.locks.Unlock(kv.Key{})
		freed := w.engine.EvictNoGivenKey(requiredBytes)
		for raw := range freed {
			w.valid.delRaw(raw)
		}
		return freed, nil
	}

	freed := make(map[string]kv.Value, len(victims))
	var freedBytes uint64
	for freedBytes < requiredBytes {
		var k kv.Key
		var ok bool
		if len(victims) > 0 {
			k, victims = victims[0], victims[1:]
			ok = true
		} else {
			k, ok = w.engine.GetVictimKey()
		}
		if !ok {
			break
		}
		w.locks.Lock(k)
		v, evicted := w.engine.EvictWithGivenKey(k)
		if evicted {
			w.valid.delete(k)
			freed[k.RawString()] = v
			freedBytes += uint64(kv.ObjectSize(k, v))
		}
		w.locks.Unlock(k)
		if !evicted {
			// Invariant: GetVictimKey named a key EvictWithGivenKey could
			// not find. Only reachable if an external victim hint is stale.
			return freed, errs.ErrInvariantViolation
		}
	}
	return freed, nil
}

// SizeForCapacity is a lock-free, eventually-consistent read of engine
// usage (spec §5: "sizeForCapacity may be read lock-free").
func (w *Wrapper) SizeForCapacity() uint64 { return w.engine.SizeForCapacity() }

// HasFineGrainedManagement exposes the engine's static locking
// discipline so dispatcher can decide whether a per-key victim hint is
// meaningful to pass to Evict.
func (w *Wrapper) HasFineGrainedManagement() bool { return w.fineGrained }

// IsCooperationAware reports whether the configured policy tracks
// popularity (covered, bestguess); the background placement processor
// skips edges where this is false.
func (w *Wrapper) IsCooperationAware() bool {
	_, ok := w.engine.(policy.Popularity)
	return ok
}

// PopularityOf is a read-locked query of the engine's popularity
// tracking, valid only when IsCooperationAware is true.
func (w *Wrapper) PopularityOf(k kv.Key) (requestCount uint64, lastEdgeSeen uint32, ok bool) {
	pop, has := w.engine.(policy.Popularity)
	if !has {
		return 0, 0, false
	}
	w.locks.RLock(k)
	defer w.locks.RUnlock(k)
	return pop.PopularityOf(k)
}

// RecordRemoteRequest is a write-locked notification that sourceEdgeIdx
// asked this edge for k cooperatively; a no-op when the engine isn't
// cooperation-aware.
func (w *Wrapper) RecordRemoteRequest(k kv.Key, sourceEdgeIdx uint32) {
	pop, has := w.engine.(policy.Popularity)
	if !has {
		return
	}
	w.locks.Lock(k)
	defer w.locks.Unlock(k)
	pop.RecordRemoteRequest(k, sourceEdgeIdx)
}

// validityMap shards a bool-per-key map the same way keylock.Table
// shards mutexes, so two different keys' validity flags never share a
// lock with a third key's engine mutation.
type validityMap struct {
	shards []validityShard
	mask   uint64
}

type validityShard struct {
	mu sync.RWMutex
	m  map[string]bool
}

func newValidityMap(shardCount int) validityMap {
	if shardCount <= 0 {
		shardCount = keylock.DefaultShardCount
	}
	n := util.NextPow2(uint64(shardCount))
	vm := validityMap{shards: make([]validityShard, n), mask: n - 1}
	for i := range vm.shards {
		vm.shards[i].m = make(map[string]bool)
	}
	return vm
}

func (vm *validityMap) shardFor(hash uint64) *validityShard {
	return &vm.shards[hash&vm.mask]
}

func (vm *validityMap) get(k kv.Key) bool {
	s := vm.shardFor(k.Hash())
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m[k.RawString()]
}

func (vm *validityMap) set(k kv.Key, valid bool) {
	s := vm.shardFor(k.Hash())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[k.RawString()] = valid
}

func (vm *validityMap) delete(k kv.Key) {
	s := vm.shardFor(k.Hash())
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, k.RawString())
}

// delRaw supports the coarse-grained Evict path, which only has the raw
// key string the policy returned, not a reconstructed kv.Key.
func (vm *validityMap) delRaw(raw string) {
	h := hashRaw(raw)
	s := &vm.shards[h&vm.mask]
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, raw)
}

func hashRaw(s string) uint64 { return util.HashBytes([]byte(s)) }
