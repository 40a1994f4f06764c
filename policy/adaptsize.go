package policy

import (
	"math"

	"github.com/dcache/edgecache/internal/kv"
)

// adaptsizePolicy is AdaptSize (Berger et al.): plain LRU residency and
// eviction, but admission is a Bernoulli draw with probability
// exp(-size/c), c being periodically re-tuned by a golden-section search
// over log2(c) that maximizes a simulated hit-bytes objective against the
// request stream summarized in statSize. Fine-grained: eviction is LRU,
// so the victim is always nameable.
type adaptsizePolicy struct {
	cap   uint64
	used  uint64
	byKey map[string]*node
	l     list

	c         float64 // current admission scale parameter
	rngState  uint64
	accesses  uint64
	statSize  float64 // EWMA of observed object sizes
	reqCount  map[string]float64
	sinceTune uint64
}

const (
	adaptsizeReconfigPeriod = 500000
	adaptsizeEWMADecay      = 0.3
)

func newAdaptSize(cfg Config) *adaptsizePolicy {
	seed := uint64(cfg.Seed)
	if seed == 0 {
		seed = 0x9E3779B97F4A7C15
	}
	return &adaptsizePolicy{
		cap:      cfg.CapacityBytes,
		byKey:    make(map[string]*node),
		c:        float64(cfg.CapacityBytes) / 4,
		rngState: seed,
		reqCount: make(map[string]float64),
	}
}

func (p *adaptsizePolicy) Exists(k kv.Key) bool {
	_, ok := p.byKey[k.RawString()]
	return ok
}

func (p *adaptsizePolicy) Lookup(k kv.Key) (kv.Value, bool) {
	p.recordRequest(k, 0)
	n, ok := p.byKey[k.RawString()]
	if !ok {
		return kv.Value{}, false
	}
	p.l.moveToFront(n)
	return n.val, true
}

func (p *adaptsizePolicy) recordRequest(k kv.Key, objSize uint32) {
	raw := k.RawString()
	p.reqCount[raw] = p.reqCount[raw]*adaptsizeEWMADecay + (1 - adaptsizeEWMADecay)
	if objSize > 0 {
		p.statSize = p.statSize*(1-adaptsizeEWMADecay) + float64(objSize)*adaptsizeEWMADecay
	}
	p.accesses++
	p.sinceTune++
	if p.sinceTune >= adaptsizeReconfigPeriod && p.statSize > 3*float64(p.cap) {
		p.reconfigure()
		p.sinceTune = 0
	}
}

// reconfigure runs a golden-section search over log2(c) maximizing the
// expected hit bytes under the Bernoulli admission model, matching the
// teacher-corpus's tuning cadence. A degenerate (NaN) search result
// leaves c unchanged rather than corrupting admission (documented
// resolution for the otherwise-unspecified AdaptSize tuning edge case).
func (p *adaptsizePolicy) reconfigure() {
	const phi = 0.6180339887498949
	lo, hi := 0.0, math.Log2(float64(p.cap)+1)
	if hi <= lo {
		return
	}
	objective := func(logc float64) float64 {
		c := math.Exp2(logc)
		var total float64
		for _, cnt := range p.reqCount {
			total += cnt * (1 - math.Exp(-p.statSize/maxFloat(c, 1)))
		}
		return total
	}
	x1 := hi - phi*(hi-lo)
	x2 := lo + phi*(hi-lo)
	f1, f2 := objective(x1), objective(x2)
	for i := 0; i < 40 && hi-lo > 1e-6; i++ {
		if f1 < f2 {
			lo = x1
			x1, f1 = x2, f2
			x2 = lo + phi*(hi-lo)
			f2 = objective(x2)
		} else {
			hi = x2
			x2, f2 = x1, f1
			x1 = hi - phi*(hi-lo)
			f1 = objective(x1)
		}
	}
	best := math.Exp2((lo + hi) / 2)
	if math.IsNaN(best) || math.IsInf(best, 0) {
		return
	}
	p.c = best
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func (p *adaptsizePolicy) Update(k kv.Key, v kv.Value) bool {
	n, ok := p.byKey[k.RawString()]
	if !ok {
		return false
	}
	p.used -= uint64(n.val.ValueSize())
	n.val = v
	p.used += uint64(n.val.ValueSize())
	return true
}

// NeedIndependentAdmit draws Bernoulli(exp(-size/c)), the core AdaptSize
// admission rule.
func (p *adaptsizePolicy) NeedIndependentAdmit(k kv.Key, v kv.Value) bool {
	p.recordRequest(k, v.ValueSize())
	prob := math.Exp(-float64(v.ValueSize()) / maxFloat(p.c, 1))
	return p.rand() < prob
}

func (p *adaptsizePolicy) rand() float64 {
	p.rngState ^= p.rngState << 13
	p.rngState ^= p.rngState >> 7
	p.rngState ^= p.rngState << 17
	return float64(p.rngState%1_000_000) / 1_000_000
}

func (p *adaptsizePolicy) Admit(k kv.Key, v kv.Value) {
	n := &node{key: k, val: v}
	p.l.pushFront(n)
	p.byKey[k.RawString()] = n
	p.used += n.bytes()
}

func (p *adaptsizePolicy) GetVictimKey() (kv.Key, bool) {
	n := p.l.back()
	if n == nil {
		return kv.Key{}, false
	}
	return n.key, true
}

func (p *adaptsizePolicy) EvictWithGivenKey(k kv.Key) (kv.Value, bool) {
	n, ok := p.byKey[k.RawString()]
	if !ok {
		return kv.Value{}, false
	}
	p.l.remove(n)
	delete(p.byKey, k.RawString())
	p.used -= n.bytes()
	return n.val, true
}

func (p *adaptsizePolicy) EvictNoGivenKey(requiredBytes uint64) map[string]kv.Value {
	panic("policy: EvictNoGivenKey called on a fine-grained policy")
}

func (p *adaptsizePolicy) HasFineGrainedManagement() bool { return true }
func (p *adaptsizePolicy) SizeForCapacity() uint64         { return p.used }
func (p *adaptsizePolicy) CanAdmit(objectSize uint32) bool { return uint64(objectSize) <= p.cap }
