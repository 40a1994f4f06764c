// Package util contains internal helpers (hashing, sharding, padding).
//revive:disable:var-naming  // allow 'util' as an internal helpers package name
package util

// HashBytes hashes b with 64-bit FNV-1a. The edge cache's Key type is
// always a byte string (see internal/kv), so the hashing core here is the
// byte-slice path of the original generic Fnv64a helper, exported directly
// instead of hidden behind a comparable-key type switch.
func HashBytes(b []byte) uint64 {
	h := uint64(fnvOffset64)
	for _, c := range b {
		h ^= uint64(c)
		h *= fnvPrime64
	}
	return h
}

const (
	fnvOffset64 = 1469598103934665603
	fnvPrime64  = 1099511628211
)
