// Package origin defines the cloud-side request/response contract
// (spec §6's GlobalGet/Put/Del) and its concrete backends. The origin
// itself is out of scope (spec §1), but the dispatcher needs something
// to fetch from and write through to, so this package gives the rest of
// the retrieval pack's storage-driver dependencies an honestly-scoped
// home: memstore for tests, badgerstore for an embedded single-node
// origin, redisstore for a network-attached one.
package origin

import (
	"context"
	"errors"

	"github.com/dcache/edgecache/internal/kv"
)

// ErrNotFound is returned by Get when the origin holds no value for the
// key (a true miss, distinct from a transport-level error).
var ErrNotFound = errors.New("origin: key not found")

// Store is the contract every origin backend satisfies.
type Store interface {
	Get(ctx context.Context, k kv.Key) (kv.Value, error)
	Put(ctx context.Context, k kv.Key, v kv.Value) error
	Del(ctx context.Context, k kv.Key) error
}
