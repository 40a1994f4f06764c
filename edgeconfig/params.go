// Package edgeconfig turns the CLI surface of spec §6 into a single Params
// value constructed once at startup and passed by reference into every
// component, per the spec's explicit design note against hidden globals.
// Shaped as functional options, grounded on Voskan-arena-cache's
// pkg/config.go Option[K,V]/defaultConfig pattern (generalized here to a
// non-generic Params since the cache's K/V are fixed to kv.Key/kv.Value).
package edgeconfig

import (
	"time"

	"github.com/dcache/edgecache/internal/dht"
)

// CacheName is the closed set of policy names the --cache_name flag
// accepts (spec §6).
type CacheName string

const (
	CacheFIFO      CacheName = "fifo"
	CacheLRU       CacheName = "lru"
	CacheSLRU      CacheName = "slru"
	CacheARC       CacheName = "arc"
	CacheSieve     CacheName = "sieve"
	CacheS3FIFO    CacheName = "s3fifo"
	CacheWTinyLFU  CacheName = "wtinylfu"
	CacheLHD       CacheName = "lhd"
	CacheAdaptSize CacheName = "adaptsize"
	CacheLACache   CacheName = "lacache"
	CacheCovered   CacheName = "covered"
	CacheBestGuess CacheName = "bestguess"
)

// Params bundles every knob the edge/client/cloud CLIs expose, plus the
// derived values every component needs. Immutable once built by New().
type Params struct {
	// Identity & topology.
	EdgeIndex int
	EdgeCount int
	Topology  dht.Topology

	// Local cache engine.
	CapacityBytes   uint64
	CacheName       CacheName
	LockShardCount  int // per-key lock table shard count, default ~1024

	// Propagation simulation (--propagation_latency_{clientedge,crossedge,edgecloud}_us).
	LatencyClientEdge time.Duration
	LatencyCrossEdge  time.Duration
	LatencyEdgeCloud  time.Duration
	SkipPropagation   bool // bypass injected latency during warm-up

	// Concurrency substrate (--percacheserver_workercnt).
	PerCacheServerWorkerCount int

	// Covered/bestguess-specific tuning.
	CoveredTopKEdgeCount          int
	CoveredPerEdgeSyncedVictimCnt int

	// Timeouts not explicitly specified by the spec; configurable per §9's
	// Open Question resolution (see DESIGN.md).
	DirectoryLookupTimeout  time.Duration
	WriteLockAcquireTimeout time.Duration
	UnblockWaitTimeout      time.Duration
	InvalidationAckTimeout  time.Duration
	InvalidationMaxRetries  int
}

// Option mutates a Params during construction.
type Option func(*Params)

// New builds a Params from defaults plus the given options, mirroring the
// teacher's defaultConfig()+Option application order.
func New(opts ...Option) Params {
	p := defaultParams()
	for _, o := range opts {
		o(&p)
	}
	return p
}

func defaultParams() Params {
	return Params{
		EdgeCount:                     1,
		CapacityBytes:                 64 << 20,
		CacheName:                     CacheLRU,
		LockShardCount:                1024,
		LatencyClientEdge:             1 * time.Millisecond,
		LatencyCrossEdge:              2 * time.Millisecond,
		LatencyEdgeCloud:              10 * time.Millisecond,
		PerCacheServerWorkerCount:     1,
		CoveredTopKEdgeCount:          3,
		CoveredPerEdgeSyncedVictimCnt: 16,
		DirectoryLookupTimeout:        50 * time.Millisecond,
		WriteLockAcquireTimeout:       100 * time.Millisecond,
		UnblockWaitTimeout:            200 * time.Millisecond,
		InvalidationAckTimeout:        50 * time.Millisecond,
		InvalidationMaxRetries:        3,
	}
}

func WithEdgeIndex(i int) Option      { return func(p *Params) { p.EdgeIndex = i } }
func WithEdgeCount(n int) Option      { return func(p *Params) { p.EdgeCount = n } }
func WithTopology(t dht.Topology) Option {
	return func(p *Params) { p.Topology = t }
}
func WithCapacityBytes(n uint64) Option { return func(p *Params) { p.CapacityBytes = n } }
func WithCacheName(n CacheName) Option  { return func(p *Params) { p.CacheName = n } }
func WithLockShardCount(n int) Option   { return func(p *Params) { p.LockShardCount = n } }
func WithLatencies(clientEdge, crossEdge, edgeCloud time.Duration) Option {
	return func(p *Params) {
		p.LatencyClientEdge = clientEdge
		p.LatencyCrossEdge = crossEdge
		p.LatencyEdgeCloud = edgeCloud
	}
}
func WithSkipPropagation(skip bool) Option { return func(p *Params) { p.SkipPropagation = skip } }
func WithWorkerCount(n int) Option {
	return func(p *Params) { p.PerCacheServerWorkerCount = n }
}
func WithCoveredTuning(topK, syncedVictims int) Option {
	return func(p *Params) {
		p.CoveredTopKEdgeCount = topK
		p.CoveredPerEdgeSyncedVictimCnt = syncedVictims
	}
}
