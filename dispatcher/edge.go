// Package dispatcher implements the client GET/PUT/DEL state machines
// and the beacon-facing RPC handlers of spec §4.4, wiring together
// cache.Wrapper, cooperation.Beacon, origin.Store, and the propagation
// simulator. In this single-process module, inter-edge "RPCs" are direct
// method calls routed through a Cluster, with transport.Simulator
// injecting the configured latency around each hop, the same role the
// teacher's worker-pool dispatch plays around its shard operations.
package dispatcher

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/dcache/edgecache/cache"
	"github.com/dcache/edgecache/cooperation"
	"github.com/dcache/edgecache/edgeconfig"
	"github.com/dcache/edgecache/errs"
	"github.com/dcache/edgecache/internal/dht"
	"github.com/dcache/edgecache/internal/ids"
	"github.com/dcache/edgecache/internal/kv"
	"github.com/dcache/edgecache/internal/singleflight"
	"github.com/dcache/edgecache/origin"
	"github.com/dcache/edgecache/policy"
	"github.com/dcache/edgecache/telemetry/metrics"
	"github.com/dcache/edgecache/transport"
	"github.com/dcache/edgecache/wire"
)

// EdgeServer is one edge's cache-server: the cache wrapper plus
// everything needed to fall through local miss -> cooperative hit ->
// origin fetch, per spec §4.4.
type EdgeServer struct {
	Index  ids.EdgeIndex
	Params edgeconfig.Params

	Cache  *cache.Wrapper
	Beacon *cooperation.Beacon

	cluster *Cluster
	origin  origin.Store
	sim     *transport.Simulator
	seq     ids.SeqGenerator
	flight  singleflight.Group[string, kv.Value]

	recent recentKeys

	log     *zap.Logger
	metrics metrics.Sink
}

// NewEdgeServer builds one edge's server. cluster is nil-able for
// single-edge tests; NewCluster sets it on every edge it builds.
func NewEdgeServer(idx ids.EdgeIndex, params edgeconfig.Params, store origin.Store, log *zap.Logger, sink metrics.Sink) (*EdgeServer, error) {
	eng, err := policy.Factory(string(params.CacheName), policy.Config{
		CapacityBytes: params.CapacityBytes,
	})
	if err != nil {
		return nil, err
	}
	if sink == nil {
		sink = metrics.NoopSink{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &EdgeServer{
		Index:   idx,
		Params:  params,
		Cache:   cache.New(eng, params.LockShardCount),
		Beacon:  cooperation.NewBeacon(params.LockShardCount),
		origin:  store,
		sim:     transport.NewSimulator(params.LatencyClientEdge, params.LatencyCrossEdge, params.LatencyEdgeCloud, params.SkipPropagation),
		log:     log,
		metrics: sink,
	}, nil
}

func (e *EdgeServer) beaconEdge(k kv.Key) ids.EdgeIndex {
	return ids.EdgeIndex(dht.BeaconEdge(k, e.Params.EdgeCount))
}

// Get runs the client GET path: local hit -> cooperative hit via the
// beacon's redirect -> origin fetch.
func (e *EdgeServer) Get(ctx context.Context, k kv.Key) (kv.Value, wire.Hitflag, error) {
	if err := e.sim.ClientEdge(ctx); err != nil {
		return kv.Value{}, wire.GlobalMiss, err
	}

	if v, ok := e.Cache.Get(k, false); ok {
		e.metrics.Hit(int(e.Index))
		return v, wire.LocalHit, nil
	}
	e.metrics.Miss(int(e.Index))

	if v, hit, ok, err := e.cooperativeGet(ctx, k); err != nil {
		return kv.Value{}, wire.GlobalMiss, err
	} else if ok {
		return v, hit, nil
	}

	return e.originGet(ctx, k)
}

// cooperativeGet implements step 2-3 of §4.4's client GET path.
func (e *EdgeServer) cooperativeGet(ctx context.Context, k kv.Key) (kv.Value, wire.Hitflag, bool, error) {
	if e.cluster == nil {
		return kv.Value{}, wire.GlobalMiss, false, nil
	}
	beaconIdx := e.beaconEdge(k)
	beacon := e.cluster.beaconAt(beaconIdx)
	if beacon == nil {
		return kv.Value{}, wire.GlobalMiss, false, nil
	}

	if err := e.sim.CrossEdge(ctx); err != nil {
		return kv.Value{}, wire.GlobalMiss, false, err
	}
	resp := beacon.HandleDirectoryLookup(wire.DirectoryLookupReq{Key: k, SourceEdgeIdx: uint32(e.Index)})

	switch resp.Status {
	case wire.DirStatusBeingWritten:
		// Step 2: fall through to origin rather than block indefinitely;
		// a bounded wait for the beacon's unblock push belongs to the
		// transport layer this module doesn't implement (§1 non-goal).
		return kv.Value{}, wire.GlobalMiss, false, nil
	case wire.DirStatusNone:
		return kv.Value{}, wire.GlobalMiss, false, nil
	}

	peer := e.cluster.edgeAt(ids.EdgeIndex(resp.TargetEdgeIdx))
	if peer == nil {
		return kv.Value{}, wire.GlobalMiss, false, nil
	}
	if err := e.sim.CrossEdge(ctx); err != nil {
		return kv.Value{}, wire.GlobalMiss, false, err
	}
	v, ok := peer.Cache.Get(k, true)
	if !ok {
		return kv.Value{}, wire.CooperativeInvalid, false, nil
	}
	peer.Cache.RecordRemoteRequest(k, uint32(e.Index))
	e.metrics.Redirect(int(e.Index), int(resp.TargetEdgeIdx))
	return v, wire.CooperativeHit, true, nil
}

// originGet implements step 4-5: fetch from origin, decide admission,
// and notify the beacon of the new replica after every successful admit,
// whatever the policy (see notifyBeaconOfAdmit). Concurrent GETs for the same key coalesce through flight so a
// thundering herd only issues one origin fetch.
func (e *EdgeServer) originGet(ctx context.Context, k kv.Key) (kv.Value, wire.Hitflag, error) {
	e.metrics.OriginFallback(int(e.Index))
	if e.origin == nil {
		return kv.Value{}, wire.GlobalMiss, errs.ErrNoLoader
	}
	if err := e.sim.EdgeCloud(ctx); err != nil {
		return kv.Value{}, wire.GlobalMiss, err
	}

	v, err := e.flight.Do(ctx, k.RawString(), func() (kv.Value, error) {
		return e.origin.Get(ctx, k)
	})
	if err != nil {
		e.log.Debug("origin get failed", zap.String("key", k.String()), zap.Error(err))
		return kv.Value{}, wire.GlobalMiss, err
	}

	if e.Cache.NeedIndependentAdmit(k, v) {
		if admitErr := e.Cache.Admit(k, v, false, true); admitErr == nil {
			e.recent.add(k)
			e.notifyBeaconOfAdmit(ctx, k)
		}
	}
	return v, wire.GlobalMiss, nil
}

// recentKeysCap bounds the placement processor's candidate scan: a
// cooperation-aware policy's own popularity bookkeeping only has useful
// signal for keys the placement loop actually considers, so the scan
// window only needs to be "recently active", not exhaustive.
const recentKeysCap = 4096

// recentKeys is a small fixed-size ring of admitted raw keys, the bounded
// candidate set dispatcher.Placement samples from instead of requiring
// policy.Policy to expose full key enumeration.
type recentKeys struct {
	mu   sync.Mutex
	buf  []string
	next int
}

func (r *recentKeys) add(k kv.Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.buf == nil {
		r.buf = make([]string, recentKeysCap)
	}
	r.buf[r.next] = k.RawString()
	r.next = (r.next + 1) % recentKeysCap
}

func (r *recentKeys) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.buf))
	for _, s := range r.buf {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// notifyBeaconOfAdmit tells this key's beacon a new replica exists. Every
// policy benefits from this (it is what makes a later GET elsewhere find
// this edge cooperatively); covered/bestguess additionally rely on the
// resulting RecordRemoteRequest calls for their popularity tracking.
func (e *EdgeServer) notifyBeaconOfAdmit(ctx context.Context, k kv.Key) {
	if e.cluster == nil {
		return
	}
	beacon := e.cluster.beaconAt(e.beaconEdge(k))
	if beacon == nil {
		return
	}
	_ = e.sim.CrossEdge(ctx)
	beacon.HandleDirectoryUpdate(wire.DirectoryUpdateReq{Key: k, IsAdmit: true, TargetEdgeIdx: uint32(e.Index)})
}

// Put runs the client PUT path (spec §4.4): local update, origin write,
// then the MSI acquire/invalidate/release sequence with any cooperative
// peers.
func (e *EdgeServer) Put(ctx context.Context, k kv.Key, v kv.Value) error {
	return e.write(ctx, k, v)
}

// Del is update(K, tombstone).
func (e *EdgeServer) Del(ctx context.Context, k kv.Key) error {
	return e.write(ctx, k, kv.Tombstone())
}

// write updates locally only if cached (spec §4.4 step 1: no admission
// happens on the write path — a brand-new local replica is only ever
// created through originGet's GET-miss fetch or background placement,
// both of which pair the engine Admit with a beacon directory notify).
func (e *EdgeServer) write(ctx context.Context, k kv.Key, v kv.Value) error {
	if err := e.sim.ClientEdge(ctx); err != nil {
		return err
	}

	if _, err := e.Cache.Update(k, v, false); err != nil {
		return err
	}

	if err := e.sim.EdgeCloud(ctx); err != nil {
		return err
	}
	if e.origin != nil {
		if v.Deleted {
			if err := e.origin.Del(ctx, k); err != nil {
				return err
			}
		} else if err := e.origin.Put(ctx, k, v); err != nil {
			return err
		}
	}

	return e.synchronizeWriters(ctx, k)
}

// synchronizeWriters runs §4.4's AcquireWritelock/Invalidation/
// ReleaseWritelock sequence against this key's beacon.
func (e *EdgeServer) synchronizeWriters(ctx context.Context, k kv.Key) error {
	if e.cluster == nil {
		return nil
	}
	beacon := e.cluster.beaconAt(e.beaconEdge(k))
	if beacon == nil {
		return nil
	}

	if err := e.sim.CrossEdge(ctx); err != nil {
		return err
	}
	resp := beacon.HandleAcquireWritelock(wire.AcquireWritelockReq{Key: k, SourceEdgeIdx: uint32(e.Index)})

	switch resp.Result {
	case wire.AcquireNoneed:
		return nil
	case wire.AcquireFailure:
		return errs.ErrWriteLockContended
	}

	for _, peerIdx := range resp.PeerEdges {
		peer := e.cluster.edgeAt(ids.EdgeIndex(peerIdx))
		if peer == nil {
			continue
		}
		if err := e.sim.CrossEdge(ctx); err != nil {
			continue
		}
		peer.Cache.InvalidateKeyForLocalCachedObject(k)
	}

	if err := e.sim.CrossEdge(ctx); err != nil {
		return err
	}
	drained := beacon.HandleReleaseWritelock(wire.ReleaseWritelockReq{Key: k, SenderEdgeIdx: uint32(e.Index)})
	for _, blockedIdx := range drained {
		if peer := e.cluster.edgeAt(ids.EdgeIndex(blockedIdx)); peer != nil {
			e.log.Debug("finish block notified", zap.Uint32("edge", blockedIdx))
		}
	}
	return nil
}
