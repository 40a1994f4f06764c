// Package policy declares the local cache engine's pluggable
// replacement/admission contract (spec §4.1) and the closed-set factory
// spec §9's design notes ask for. Every concrete implementation is a
// sibling file in this package (fifo.go, lru.go, arc.go, ...) rather than
// a subpackage: each needs to satisfy Policy directly, and a subpackage
// would have to import policy for that interface while policy would need
// to import the subpackage for Factory, an import cycle. This generalizes
// the teacher's policy.Policy[K,V]/ShardPolicy[K,V] hook-based design
// (policy/policy.go, policy/lru/lru.go, policy/twoq/twoq.go in
// IvanBrykalov-shardcache) from generic K,V to the spec's fixed
// kv.Key/kv.Value data model, and folds the shard-owned intrusive list
// (cache/shard.go, cache/node.go) directly into the policies that need one.
package policy

import (
	"fmt"

	"github.com/dcache/edgecache/internal/kv"
)

// Policy is the contract every local cache engine implementation
// satisfies, matching spec §4.1 one method at a time.
type Policy interface {
	// Exists is a pure query: no state mutation, no recency/frequency update.
	Exists(k kv.Key) bool

	// Lookup returns the current value and may update policy recency/
	// frequency metadata (also referred to as Get in the spec prose).
	Lookup(k kv.Key) (kv.Value, bool)

	// Update performs an in-place update of an already-cached key's value.
	// Returns false (miss) without changing anything if k is not present.
	Update(k kv.Key, v kv.Value) bool

	// NeedIndependentAdmit is the admission-control decision made BEFORE
	// placement; AdaptSize makes this a probabilistic draw, while every
	// other policy here (LA-Cache and W-TinyLFU included) always returns
	// true.
	NeedIndependentAdmit(k kv.Key, v kv.Value) bool

	// Admit inserts a new object. The caller has already verified capacity
	// externally (via SizeForCapacity/CanAdmit and, for coarse-grained
	// policies, EvictNoGivenKey).
	Admit(k kv.Key, v kv.Value)

	// GetVictimKey proposes one victim per the policy's own rule, without
	// removing it. ok is false iff the policy holds no resident objects.
	GetVictimKey() (k kv.Key, ok bool)

	// EvictWithGivenKey removes the specific key if present, returning its
	// value. Valid only when HasFineGrainedManagement() is true.
	EvictWithGivenKey(k kv.Key) (kv.Value, bool)

	// EvictNoGivenKey lets the policy choose victims to free at least
	// requiredBytes. Valid only when HasFineGrainedManagement() is false.
	EvictNoGivenKey(requiredBytes uint64) map[string]kv.Value

	// HasFineGrainedManagement is a static property selecting which of
	// EvictWithGivenKey/EvictNoGivenKey is the valid eviction method.
	HasFineGrainedManagement() bool

	// SizeForCapacity is the current byte usage, object bytes plus all
	// policy-private metadata. Safe to call without external locking
	// (eventually consistent), per spec §5.
	SizeForCapacity() uint64

	// CanAdmit reports whether an object of the given size could ever be
	// admitted by this policy (distinct from "is there room right now").
	CanAdmit(objectSize uint32) bool
}

// Config is the shared constructor input every concrete policy consumes;
// concrete packages type-assert the fields they need and ignore the rest.
type Config struct {
	CapacityBytes uint64
	Seed          int64 // deterministic per-policy RNG seed (spec §9)

	// WindowFraction sizes SLRU's protected segment and W-TinyLFU's
	// window; GhostFraction sizes S3-FIFO's small queue. Both are
	// fractions of CapacityBytes; zero means "use the policy's default".
	WindowFraction float64
	GhostFraction  float64
}

// Factory constructs a Policy by name from the closed set spec §6's
// --cache_name flag accepts.
func Factory(name string, cfg Config) (Policy, error) {
	switch name {
	case "fifo":
		return newFIFO(cfg), nil
	case "lru":
		return newLRU(cfg), nil
	case "slru":
		return newSLRU(cfg), nil
	case "arc":
		return newARC(cfg), nil
	case "sieve":
		return newSieve(cfg), nil
	case "s3fifo":
		return newS3FIFO(cfg), nil
	case "wtinylfu":
		return newWTinyLFU(cfg), nil
	case "lhd":
		return newLHD(cfg), nil
	case "adaptsize":
		return newAdaptSize(cfg), nil
	case "lacache":
		return newLACache(cfg), nil
	case "covered":
		return newCovered(newLRU(cfg)), nil
	case "bestguess":
		return newBestGuess(newLRU(cfg)), nil
	default:
		return nil, fmt.Errorf("policy: unknown cache name %q", name)
	}
}
