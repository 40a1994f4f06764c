package dispatcher

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dcache/edgecache/internal/ids"
	"github.com/dcache/edgecache/internal/kv"
	"github.com/dcache/edgecache/wire"
)

// Placement is the background-only processor that proactively replicates
// hot keys for cooperation-aware policies (covered, bestguess), entirely
// off the client-facing GET/PUT/DEL path. Grounded on the teacher's own
// use of golang.org/x/sync/errgroup in its concurrency tests to fan work
// out and wait for it, repurposed here as the fan-out primitive for one
// placement round's per-edge candidate evaluation.
type Placement struct {
	cluster  *Cluster
	interval time.Duration
	topK     int
	perEdge  int
	log      *zap.Logger
}

// NewPlacement builds a placement loop over cluster, evaluating topK
// candidate hosts per source edge and pushing at most perEdge keys to
// each, matching --covered_topk_edgecnt/--covered_peredge_synced_victimcnt.
func NewPlacement(cluster *Cluster, interval time.Duration, topK, perEdge int, log *zap.Logger) *Placement {
	if log == nil {
		log = zap.NewNop()
	}
	if topK <= 0 {
		topK = 1
	}
	if perEdge <= 0 {
		perEdge = 1
	}
	return &Placement{cluster: cluster, interval: interval, topK: topK, perEdge: perEdge, log: log}
}

// Run drives placement rounds until ctx is cancelled; the first round
// starts one interval after the call. Intended to be launched once in its
// own goroutine by cmd/edge; RunOnce runs a single round immediately.
func (p *Placement) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.RunOnce(ctx); err != nil && ctx.Err() == nil {
				p.log.Warn("placement round failed", zap.Error(err))
			}
		}
	}
}

// RunOnce evaluates and executes exactly one placement round across every
// cooperation-aware edge, in parallel, returning the first error (if any)
// from a source edge's evaluation.
func (p *Placement) RunOnce(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < p.cluster.Len(); i++ {
		src := p.cluster.Edge(i)
		g.Go(func() error {
			return p.evaluateSource(gctx, src)
		})
	}
	return g.Wait()
}

type candidate struct {
	raw           string
	requestCount  uint64
	lastEdgeSeen  uint32
}

// evaluateSource ranks src's recently admitted keys by popularity and
// pushes the top perEdge of them to topK peer edges that don't already
// hold a valid replica.
func (p *Placement) evaluateSource(ctx context.Context, src *EdgeServer) error {
	if !src.Cache.IsCooperationAware() {
		return nil
	}

	raws := src.recent.snapshot()
	if len(raws) == 0 {
		return nil
	}

	ranked := make([]candidate, 0, len(raws))
	for _, raw := range raws {
		k := kv.KeyString(raw)
		reqCount, lastEdge, ok := src.Cache.PopularityOf(k)
		if !ok {
			continue
		}
		ranked = append(ranked, candidate{raw: raw, requestCount: reqCount, lastEdgeSeen: lastEdge})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].requestCount > ranked[j].requestCount })
	if len(ranked) > p.perEdge {
		ranked = ranked[:p.perEdge]
	}

	targets := p.candidateHosts(src)
	for _, cand := range ranked {
		k := kv.KeyString(cand.raw)
		v, ok := src.Cache.Get(k, false)
		if !ok {
			continue
		}
		for _, tgt := range targets {
			if tgt == src.Index {
				continue
			}
			peer := p.cluster.edgeAt(tgt)
			if peer == nil || peer.Cache.IsValidKeyForLocalCachedObject(k) {
				continue
			}
			if err := src.sim.CrossEdge(ctx); err != nil {
				return err
			}
			p.push(ctx, src, peer, k, v)
		}
	}
	return nil
}

// candidateHosts picks up to topK peer edges: the ones following src in
// index order, wrapping around the fleet.
func (p *Placement) candidateHosts(src *EdgeServer) []ids.EdgeIndex {
	n := p.cluster.Len()
	out := make([]ids.EdgeIndex, 0, p.topK)
	for i := 0; i < n && len(out) < p.topK; i++ {
		idx := ids.EdgeIndex((int(src.Index) + 1 + i) % n)
		if idx == src.Index {
			continue
		}
		out = append(out, idx)
	}
	return out
}

func (p *Placement) push(ctx context.Context, src, peer *EdgeServer, k kv.Key, v kv.Value) {
	req := wire.BgplacePlacementNotifyReq{Key: k, Value: v, SourceEdgeIdx: uint32(src.Index)}
	if err := peer.Cache.Admit(req.Key, req.Value, true, true); err != nil {
		return
	}
	beacon := p.cluster.beaconAt(src.beaconEdge(k))
	if beacon == nil {
		return
	}
	beacon.HandleDirectoryUpdate(wire.DirectoryUpdateReq{Key: k, IsAdmit: true, TargetEdgeIdx: uint32(peer.Index)})
	src.metrics.PlacementNotify(int(src.Index))
}
