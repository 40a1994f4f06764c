// Package ids provides the monotonically-attributed identifiers the spec's
// data-model section calls for: an edge index and a per-edge request
// sequence number, used to correlate request/response pairs across the
// simulated transport and to tag log/metric lines.
package ids

import "sync/atomic"

// EdgeIndex identifies one edge in the fixed topology table.
type EdgeIndex uint32

// SeqGenerator hands out a monotonically increasing RequestSeq per edge.
// Zero value is ready to use.
type SeqGenerator struct {
	next atomic.Uint64
}

// Next returns the next sequence number, starting at 1 so the zero value
// can mean "no sequence assigned yet".
func (g *SeqGenerator) Next() uint64 { return g.next.Add(1) }
