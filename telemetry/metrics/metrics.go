// Package metrics generalizes the teacher's metrics/prom adapter
// (hits/misses/evictions/size) from a single-process sharded cache to the
// edge-cache domain: every cache-wrapper signal plus the cooperation-layer
// signals (directory lookups, write-lock contention, redirects, origin
// fallbacks, placement notifications) the dispatcher needs to export.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// EvictReason is the "reason" label of the evictions_total counter.
type EvictReason int

const (
	EvictPolicy EvictReason = iota
	EvictCapacity
	EvictTTL
)

// Sink is the facade the dispatcher's edge servers and placement loop
// report through. A NoopSink is used by default and in tests
// that don't care about observability.
type Sink interface {
	Hit(edgeIdx int)
	Miss(edgeIdx int)
	Evict(edgeIdx int, reason EvictReason)
	Size(edgeIdx int, entries int, bytes uint64)

	DirectoryLookup(edgeIdx int, hit bool)
	WriteLockContended(edgeIdx int)
	Redirect(sourceEdge, targetEdge int)
	OriginFallback(edgeIdx int)
	PlacementNotify(edgeIdx int)
}

// NoopSink discards every signal.
type NoopSink struct{}

func (NoopSink) Hit(int)                    {}
func (NoopSink) Miss(int)                   {}
func (NoopSink) Evict(int, EvictReason)     {}
func (NoopSink) Size(int, int, uint64)      {}
func (NoopSink) DirectoryLookup(int, bool)  {}
func (NoopSink) WriteLockContended(int)     {}
func (NoopSink) Redirect(int, int)          {}
func (NoopSink) OriginFallback(int)         {}
func (NoopSink) PlacementNotify(int)        {}

// PromSink implements Sink with github.com/prometheus/client_golang,
// labeled by edge index the way a multi-process fleet needs (the teacher's
// adapter only had one process to label, so it used ConstLabels; here
// edgeIdx is a per-call label instead).
type PromSink struct {
	hits             *prometheus.CounterVec
	misses           *prometheus.CounterVec
	evictions        *prometheus.CounterVec
	sizeEntries      *prometheus.GaugeVec
	sizeBytes        *prometheus.GaugeVec
	directoryLookups *prometheus.CounterVec
	writeContention  *prometheus.CounterVec
	redirects        prometheus.Counter
	originFallbacks  *prometheus.CounterVec
	placements       *prometheus.CounterVec
}

// NewPromSink registers the full metric set under namespace "edgecache"
// (reg nil => prometheus.DefaultRegisterer, matching the teacher's adapter).
func NewPromSink(reg prometheus.Registerer) *PromSink {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	const ns = "edgecache"
	s := &PromSink{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "hits_total", Help: "Local cache hits.",
		}, []string{"edge"}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "misses_total", Help: "Local cache misses.",
		}, []string{"edge"}),
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "evictions_total", Help: "Evictions by reason.",
		}, []string{"edge", "reason"}),
		sizeEntries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns, Name: "size_entries", Help: "Resident entry count.",
		}, []string{"edge"}),
		sizeBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns, Name: "size_bytes", Help: "Resident byte usage (object+metadata).",
		}, []string{"edge"}),
		directoryLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "directory_lookups_total", Help: "Beacon directory lookups.",
		}, []string{"edge", "result"}),
		writeContention: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "writelock_contended_total", Help: "AcquireWritelock Failure responses.",
		}, []string{"edge"}),
		redirects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Name: "redirects_total", Help: "Cooperative redirects issued.",
		}),
		originFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "origin_fallbacks_total", Help: "Requests that fell through to origin.",
		}, []string{"edge"}),
		placements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "placement_notify_total", Help: "Background placement notifications sent.",
		}, []string{"edge"}),
	}
	reg.MustRegister(s.hits, s.misses, s.evictions, s.sizeEntries, s.sizeBytes,
		s.directoryLookups, s.writeContention, s.redirects, s.originFallbacks, s.placements)
	return s
}

func edgeLabel(edgeIdx int) string { return itoa(edgeIdx) }

func (s *PromSink) Hit(edgeIdx int)  { s.hits.WithLabelValues(edgeLabel(edgeIdx)).Inc() }
func (s *PromSink) Miss(edgeIdx int) { s.misses.WithLabelValues(edgeLabel(edgeIdx)).Inc() }

func (s *PromSink) Evict(edgeIdx int, reason EvictReason) {
	s.evictions.WithLabelValues(edgeLabel(edgeIdx), reasonLabel(reason)).Inc()
}

func (s *PromSink) Size(edgeIdx int, entries int, bytes uint64) {
	s.sizeEntries.WithLabelValues(edgeLabel(edgeIdx)).Set(float64(entries))
	s.sizeBytes.WithLabelValues(edgeLabel(edgeIdx)).Set(float64(bytes))
}

func (s *PromSink) DirectoryLookup(edgeIdx int, hit bool) {
	res := "miss"
	if hit {
		res = "hit"
	}
	s.directoryLookups.WithLabelValues(edgeLabel(edgeIdx), res).Inc()
}

func (s *PromSink) WriteLockContended(edgeIdx int) {
	s.writeContention.WithLabelValues(edgeLabel(edgeIdx)).Inc()
}

func (s *PromSink) Redirect(sourceEdge, targetEdge int) { s.redirects.Inc() }

func (s *PromSink) OriginFallback(edgeIdx int) {
	s.originFallbacks.WithLabelValues(edgeLabel(edgeIdx)).Inc()
}

func (s *PromSink) PlacementNotify(edgeIdx int) {
	s.placements.WithLabelValues(edgeLabel(edgeIdx)).Inc()
}

func reasonLabel(r EvictReason) string {
	switch r {
	case EvictTTL:
		return "ttl"
	case EvictCapacity:
		return "capacity"
	default:
		return "policy"
	}
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

var _ Sink = (*PromSink)(nil)
var _ Sink = NoopSink{}
