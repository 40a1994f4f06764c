package dispatcher

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dcache/edgecache/cooperation"
	"github.com/dcache/edgecache/edgeconfig"
	"github.com/dcache/edgecache/internal/ids"
	"github.com/dcache/edgecache/origin"
	"github.com/dcache/edgecache/telemetry/metrics"
)

// Cluster is the in-process stand-in for a real fleet's network fabric:
// every edge's dispatcher reaches its peers and their beacons through
// Cluster lookups rather than an actual socket, so the cooperation and
// placement logic can be exercised and tested without a transport.
type Cluster struct {
	edges []*EdgeServer
}

// NewCluster builds edgeCount edges sharing one origin store, each running
// the cache policy and latencies configured for its Params. The caller
// supplies one Params template; NewCluster derives each edge's own
// EdgeIndex/EdgeCount from its position in the fleet.
func NewCluster(edgeCount int, template edgeconfig.Params, store origin.Store, log *zap.Logger, sink metrics.Sink) (*Cluster, error) {
	if edgeCount <= 0 {
		return nil, fmt.Errorf("dispatcher: edgeCount must be > 0, got %d", edgeCount)
	}
	if log == nil {
		log = zap.NewNop()
	}
	c := &Cluster{edges: make([]*EdgeServer, edgeCount)}
	for i := 0; i < edgeCount; i++ {
		p := template
		p.EdgeIndex = i
		p.EdgeCount = edgeCount
		es, err := NewEdgeServer(ids.EdgeIndex(i), p, store, log.With(zap.Int("edge", i)), sink)
		if err != nil {
			return nil, fmt.Errorf("dispatcher: building edge %d: %w", i, err)
		}
		es.cluster = c
		c.edges[i] = es
	}
	return c, nil
}

func (c *Cluster) edgeAt(idx ids.EdgeIndex) *EdgeServer {
	i := int(idx)
	if i < 0 || i >= len(c.edges) {
		return nil
	}
	return c.edges[i]
}

func (c *Cluster) beaconAt(idx ids.EdgeIndex) *cooperation.Beacon {
	e := c.edgeAt(idx)
	if e == nil {
		return nil
	}
	return e.Beacon
}

// Edge returns the EdgeServer handling client requests for edgeIdx, the
// entry point cmd/client and cmd/edge dial into.
func (c *Cluster) Edge(idx int) *EdgeServer { return c.edgeAt(ids.EdgeIndex(idx)) }

// Len reports the fleet's edge count.
func (c *Cluster) Len() int { return len(c.edges) }

// WarmUp reads each edge's lock-free SizeForCapacity once; it issues no
// requests and takes no locks.
func (c *Cluster) WarmUp(ctx context.Context) {
	for _, e := range c.edges {
		_ = e.Cache.SizeForCapacity()
	}
}
