// Package kv defines the variable-length key/value types shared by every
// layer of the edge cache: the policy engines, the cache wrapper, the
// cooperation directory, and the wire codec all operate on these same two
// immutable value types.
package kv

import (
	"encoding/hex"

	"github.com/dcache/edgecache/internal/util"
)

// Key is a variable-length opaque byte string treated as an immutable value.
// Copies share the same backing array; callers must not mutate the bytes
// returned by Bytes().
type Key struct {
	b []byte
	h uint64
}

// NewKey copies b into an immutable Key and pre-computes its hash using the
// same FNV-1a64 the teacher's internal/util uses for shard selection, so a
// Key and the lock/shard tables built over it always agree on hash space.
func NewKey(b []byte) Key {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Key{b: cp, h: util.HashBytes(cp)}
}

// KeyString is a convenience constructor for string keys.
func KeyString(s string) Key { return NewKey([]byte(s)) }

// Bytes returns the key's raw bytes. Callers must not mutate the slice.
func (k Key) Bytes() []byte { return k.b }

// Len returns the key's length in bytes (KeySize in the data model).
func (k Key) Len() int { return len(k.b) }

// String returns a debug form: short keys print verbatim, long keys are
// hex-elided to keep log lines bounded.
func (k Key) String() string {
	if len(k.b) <= 16 {
		return string(k.b)
	}
	return hex.EncodeToString(k.b[:8]) + "..." + hex.EncodeToString(k.b[len(k.b)-4:])
}

// RawString is the map-key form used by internal maps (ValidityMap,
// DirectoryTable) where a comparable key is required.
func (k Key) RawString() string { return string(k.b) }

// Equal reports whether two keys carry identical bytes.
func (k Key) Equal(o Key) bool {
	if len(k.b) != len(o.b) {
		return false
	}
	for i := range k.b {
		if k.b[i] != o.b[i] {
			return false
		}
	}
	return true
}

// Hash returns a stable 64-bit hash of the key, computed once at
// construction (FNV-1a), used for sharding the per-key lock table and for
// the DHT beacon-selection function.
func (k Key) Hash() uint64 { return k.h }
