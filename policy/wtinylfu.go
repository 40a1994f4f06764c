package policy

import "github.com/dcache/edgecache/internal/kv"

// wtinylfuPolicy is W-TinyLFU (Einziger, Friedman, Manes): a small
// admission window (1% of capacity, plain LRU) feeds a TinyLFU-guarded
// SLRU main store (probationary + protected). When the window is full,
// its LRU candidate is compared against the main store's LRU victim
// using a count-min sketch frequency estimate; whichever is more
// frequent survives. Coarse-grained: the window/main contest decides the
// victim internally, so there is no externally nameable victim key in
// advance. Grounded on other_examples/8fb8e73a_samber-hot__pkg-wtinylfu
// and agilira-metis/wtinylfu.go for the sketch-halving cadence.
type wtinylfuPolicy struct {
	cap       uint64
	windowCap uint64
	mainProtectedCap uint64
	used      uint64

	byKey     map[string]*node
	window    list
	probation list
	protected list

	sketch   *cmSketch
	accesses uint64
}

func newWTinyLFU(cfg Config) *wtinylfuPolicy {
	wFrac := cfg.WindowFraction
	if wFrac <= 0 || wFrac >= 1 {
		wFrac = 0.01
	}
	mainCap := cfg.CapacityBytes - uint64(float64(cfg.CapacityBytes)*wFrac)
	return &wtinylfuPolicy{
		cap:              cfg.CapacityBytes,
		windowCap:        uint64(float64(cfg.CapacityBytes) * wFrac),
		mainProtectedCap: uint64(float64(mainCap) * 0.8),
		byKey:            make(map[string]*node),
		sketch:           newCMSketch(cfg.CapacityBytes),
	}
}

const (
	wtinylfuWindow    uint8 = 0
	wtinylfuProbation uint8 = 1
	wtinylfuProtected uint8 = 2
)

func (p *wtinylfuPolicy) Exists(k kv.Key) bool {
	_, ok := p.byKey[k.RawString()]
	return ok
}

func (p *wtinylfuPolicy) Lookup(k kv.Key) (kv.Value, bool) {
	n, ok := p.byKey[k.RawString()]
	if !ok {
		return kv.Value{}, false
	}
	p.recordAccess(k)
	switch n.extra {
	case wtinylfuWindow:
		p.window.moveToFront(n)
	case wtinylfuProbation:
		p.probation.remove(n)
		n.extra = wtinylfuProtected
		p.protected.pushFront(n)
		p.rebalanceMain()
	case wtinylfuProtected:
		p.protected.moveToFront(n)
	}
	return n.val, true
}

func (p *wtinylfuPolicy) recordAccess(k kv.Key) {
	p.sketch.add(k.Hash())
	p.accesses++
	if p.accesses%(32*maxU64(1, uint64(p.probation.Len()+p.protected.Len()))) == 0 {
		p.sketch.halve()
	}
}

func (p *wtinylfuPolicy) rebalanceMain() {
	for p.segBytes(&p.protected) > p.mainProtectedCap {
		victim := p.protected.back()
		if victim == nil {
			break
		}
		p.protected.remove(victim)
		victim.extra = wtinylfuProbation
		p.probation.pushFront(victim)
	}
}

func (p *wtinylfuPolicy) Update(k kv.Key, v kv.Value) bool {
	n, ok := p.byKey[k.RawString()]
	if !ok {
		return false
	}
	p.used -= uint64(n.val.ValueSize())
	n.val = v
	p.used += uint64(n.val.ValueSize())
	return true
}

func (p *wtinylfuPolicy) NeedIndependentAdmit(k kv.Key, v kv.Value) bool { return true }

func (p *wtinylfuPolicy) Admit(k kv.Key, v kv.Value) {
	p.recordAccess(k)
	n := &node{key: k, val: v, extra: wtinylfuWindow}
	p.window.pushFront(n)
	p.byKey[k.RawString()] = n
	p.used += n.bytes()
}

func (p *wtinylfuPolicy) GetVictimKey() (kv.Key, bool) {
	panic("policy: GetVictimKey called on a coarse-grained policy")
}

func (p *wtinylfuPolicy) EvictWithGivenKey(k kv.Key) (kv.Value, bool) {
	panic("policy: EvictWithGivenKey called on a coarse-grained policy")
}

func (p *wtinylfuPolicy) EvictNoGivenKey(requiredBytes uint64) map[string]kv.Value {
	victims := make(map[string]kv.Value)
	var freed uint64
	for freed < requiredBytes {
		n := p.evictOne()
		if n == nil {
			break
		}
		victims[n.key.RawString()] = n.val
		freed += n.bytes()
	}
	return victims
}

// evictOne runs the window-vs-main admission contest when the window is
// over budget, else falls back to evicting the main store's LRU tail.
func (p *wtinylfuPolicy) evictOne() *node {
	if p.segBytes(&p.window) > p.windowCap {
		candidate := p.window.back()
		if candidate == nil {
			return p.evictFromMain()
		}
		mainVictim := p.probation.back()
		if mainVictim == nil {
			mainVictim = p.protected.back()
		}
		if mainVictim == nil {
			p.window.remove(candidate)
			candidate.extra = wtinylfuProbation
			p.probation.pushFront(candidate)
			return nil
		}
		if p.sketch.estimate(candidate.key.Hash()) > p.sketch.estimate(mainVictim.key.Hash()) {
			p.removeFromMain(mainVictim)
			p.window.remove(candidate)
			candidate.extra = wtinylfuProbation
			p.probation.pushFront(candidate)
			p.remove(mainVictim)
			return mainVictim
		}
		p.window.remove(candidate)
		p.remove(candidate)
		return candidate
	}
	return p.evictFromMain()
}

func (p *wtinylfuPolicy) removeFromMain(n *node) {
	if n.extra == wtinylfuProbation {
		p.probation.remove(n)
	} else {
		p.protected.remove(n)
	}
}

func (p *wtinylfuPolicy) evictFromMain() *node {
	n := p.probation.back()
	if n == nil {
		n = p.protected.back()
	}
	if n == nil {
		return nil
	}
	p.removeFromMain(n)
	p.remove(n)
	return n
}

func (p *wtinylfuPolicy) remove(n *node) {
	delete(p.byKey, n.key.RawString())
	p.used -= n.bytes()
}

func (p *wtinylfuPolicy) HasFineGrainedManagement() bool { return false }
func (p *wtinylfuPolicy) SizeForCapacity() uint64         { return p.used }
func (p *wtinylfuPolicy) CanAdmit(objectSize uint32) bool { return uint64(objectSize) <= p.windowCap }

func (p *wtinylfuPolicy) segBytes(l *list) uint64 {
	var total uint64
	for n := l.front(); n != nil; n = n.next {
		total += n.bytes()
	}
	return total
}

// cmSketch is a 4-row count-min sketch with 4-bit saturating counters,
// the frequency estimator TinyLFU uses to arbitrate admission.
type cmSketch struct {
	rows  [4][]uint8
	width uint64
}

func newCMSketch(capacityBytes uint64) *cmSketch {
	width := nextPow2U64(maxU64(16, capacityBytes/64))
	s := &cmSketch{width: width}
	for i := range s.rows {
		s.rows[i] = make([]uint8, width)
	}
	return s
}

func (s *cmSketch) index(row int, h uint64) uint64 {
	mix := h ^ (uint64(row+1) * 0x9E3779B97F4A7C15)
	return mix % s.width
}

func (s *cmSketch) add(h uint64) {
	for r := 0; r < 4; r++ {
		i := s.index(r, h)
		if s.rows[r][i] < 15 {
			s.rows[r][i]++
		}
	}
}

func (s *cmSketch) estimate(h uint64) uint8 {
	min := uint8(15)
	for r := 0; r < 4; r++ {
		v := s.rows[r][s.index(r, h)]
		if v < min {
			min = v
		}
	}
	return min
}

func (s *cmSketch) halve() {
	for r := 0; r < 4; r++ {
		for i := range s.rows[r] {
			s.rows[r][i] /= 2
		}
	}
}

func nextPow2U64(n uint64) uint64 {
	p := uint64(1)
	for p < n {
		p <<= 1
	}
	return p
}
