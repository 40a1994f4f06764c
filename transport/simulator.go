package transport

import (
	"context"
	"time"
)

// Simulator injects the configured one-way latencies around each of the
// three message exchange kinds the spec names (client<->edge, edge<->edge,
// edge<->cloud), and is bypassable via SkipPropagation during warm-up.
// Stateless and safe for concurrent use — it only sleeps.
type Simulator struct {
	clientEdge time.Duration
	crossEdge  time.Duration
	edgeCloud  time.Duration
	skip       bool
}

// NewSimulator builds a Simulator from explicit per-link latencies.
func NewSimulator(clientEdge, crossEdge, edgeCloud time.Duration, skip bool) *Simulator {
	return &Simulator{clientEdge: clientEdge, crossEdge: crossEdge, edgeCloud: edgeCloud, skip: skip}
}

// ClientEdge simulates one client<->edge hop.
func (s *Simulator) ClientEdge(ctx context.Context) error { return s.sleep(ctx, s.clientEdge) }

// CrossEdge simulates one edge<->edge or edge<->beacon hop.
func (s *Simulator) CrossEdge(ctx context.Context) error { return s.sleep(ctx, s.crossEdge) }

// EdgeCloud simulates one edge<->origin hop.
func (s *Simulator) EdgeCloud(ctx context.Context) error { return s.sleep(ctx, s.edgeCloud) }

func (s *Simulator) sleep(ctx context.Context, d time.Duration) error {
	if s.skip || d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
