package policy

import "github.com/dcache/edgecache/internal/kv"

// lhdPolicy is LHD (Least Hit Density, Beckmann/Chen/Cidon): objects are
// bucketed into size classes, each class keeping an EWMA histogram of
// "hits observed beyond age a"; GetVictimKey samples a handful of
// residents and evicts whichever has the lowest estimated hits-per-byte
// remaining. No "explorer" fraction is kept: every sampled resident is
// ranked by its estimate. Fine-grained: the sample always names one
// concrete victim key.
type lhdPolicy struct {
	cap     uint64
	used    uint64
	byKey   map[string]*node
	all     list // insertion order, used only for the sampling pool
	now     uint64
	rngState uint64

	hist        map[uint8][]float64 // class -> ewma hit count by clamped age bucket
	reconfigAt  uint64
	reconfigGen int
}

const (
	lhdNumClasses  = 4
	lhdMaxAgeBkt   = 256
	lhdSampleBase  = 32
	lhdSampleEarly = 8
	lhdReconfigPeriod = 1 << 20
	lhdDecay       = 0.98
)

func newLHD(cfg Config) *lhdPolicy {
	h := make(map[uint8][]float64, lhdNumClasses)
	for c := uint8(0); c < lhdNumClasses; c++ {
		h[c] = make([]float64, lhdMaxAgeBkt)
	}
	seed := uint64(cfg.Seed)
	if seed == 0 {
		seed = 0x2545F4914F6CDD1D
	}
	return &lhdPolicy{
		cap:        cfg.CapacityBytes,
		byKey:      make(map[string]*node),
		hist:       h,
		rngState:   seed,
		reconfigAt: lhdReconfigPeriod,
	}
}

func (p *lhdPolicy) classOf(objSize uint32) uint8 {
	switch {
	case objSize < 1<<10:
		return 0
	case objSize < 1<<16:
		return 1
	case objSize < 1<<20:
		return 2
	default:
		return 3
	}
}

func (p *lhdPolicy) ageOf(n *node) uint64 {
	a := p.now - n.lastAccess
	if a >= lhdMaxAgeBkt {
		return lhdMaxAgeBkt - 1
	}
	return a
}

func (p *lhdPolicy) Exists(k kv.Key) bool {
	_, ok := p.byKey[k.RawString()]
	return ok
}

func (p *lhdPolicy) Lookup(k kv.Key) (kv.Value, bool) {
	n, ok := p.byKey[k.RawString()]
	if !ok {
		return kv.Value{}, false
	}
	p.now++
	cls := p.classOf(n.val.ValueSize())
	age := p.ageOf(n)
	h := p.hist[cls]
	for a := uint64(0); a <= age; a++ {
		h[a]++
	}
	n.lastAccess = p.now
	p.maybeReconfigure()
	return n.val, true
}

func (p *lhdPolicy) maybeReconfigure() {
	if p.now < p.reconfigAt {
		return
	}
	p.reconfigAt += lhdReconfigPeriod
	p.reconfigGen++
	for c := range p.hist {
		for i := range p.hist[c] {
			p.hist[c][i] *= lhdDecay
		}
	}
}

func (p *lhdPolicy) Update(k kv.Key, v kv.Value) bool {
	n, ok := p.byKey[k.RawString()]
	if !ok {
		return false
	}
	p.used -= uint64(n.val.ValueSize())
	n.val = v
	p.used += uint64(n.val.ValueSize())
	return true
}

func (p *lhdPolicy) NeedIndependentAdmit(k kv.Key, v kv.Value) bool { return true }

func (p *lhdPolicy) Admit(k kv.Key, v kv.Value) {
	p.now++
	n := &node{key: k, val: v, lastAccess: p.now}
	p.all.pushFront(n)
	p.byKey[k.RawString()] = n
	p.used += n.bytes()
}

func (p *lhdPolicy) density(n *node) float64 {
	cls := p.classOf(n.val.ValueSize())
	age := p.ageOf(n)
	remaining := p.hist[cls][age]
	if remaining < 0 {
		remaining = 0
	}
	sz := float64(n.bytes())
	if sz == 0 {
		sz = 1
	}
	return remaining / sz
}

func (p *lhdPolicy) next() uint64 {
	p.rngState ^= p.rngState << 13
	p.rngState ^= p.rngState >> 7
	p.rngState ^= p.rngState << 17
	return p.rngState
}

func (p *lhdPolicy) sampleSize() int {
	if p.reconfigGen < 50 {
		return lhdSampleEarly
	}
	return lhdSampleBase
}

func (p *lhdPolicy) GetVictimKey() (kv.Key, bool) {
	if p.all.Len() == 0 {
		return kv.Key{}, false
	}
	n := p.all.back()
	if n == nil {
		return kv.Key{}, false
	}
	best := n
	bestDensity := p.density(n)
	cur := n.prev
	for i := 0; i < p.sampleSize() && cur != nil; i++ {
		d := p.density(cur)
		if d < bestDensity {
			best, bestDensity = cur, d
		}
		// Jitter the stride so the sample isn't just the oldest contiguous
		// run; true LHD samples uniformly at random from the resident set.
		for skip := int(p.next() % 4); skip > 0 && cur.prev != nil; skip-- {
			cur = cur.prev
		}
		cur = cur.prev
	}
	return best.key, true
}

func (p *lhdPolicy) EvictWithGivenKey(k kv.Key) (kv.Value, bool) {
	n, ok := p.byKey[k.RawString()]
	if !ok {
		return kv.Value{}, false
	}
	p.all.remove(n)
	delete(p.byKey, k.RawString())
	p.used -= n.bytes()
	return n.val, true
}

func (p *lhdPolicy) EvictNoGivenKey(requiredBytes uint64) map[string]kv.Value {
	panic("policy: EvictNoGivenKey called on a fine-grained policy")
}

func (p *lhdPolicy) HasFineGrainedManagement() bool { return true }
func (p *lhdPolicy) SizeForCapacity() uint64         { return p.used }
func (p *lhdPolicy) CanAdmit(objectSize uint32) bool { return uint64(objectSize) <= p.cap }
