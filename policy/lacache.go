package policy

import "github.com/dcache/edgecache/internal/kv"

// lacachePolicy is LA-Cache: each resident key keeps a ring of its last
// 20 inter-arrival gaps; λ = 1/mean(gaps) estimates its request rate, and
// eviction samples 100 residents, picking whichever has the highest rank
// (== longest expected time until its next request, 1/λ). Objects with
// under two observed gaps ("use2") fall back to pure recency (their
// rank is their age since their last access) since no rate estimate
// exists yet.
// Fine-grained: the sample always names one concrete victim key.
type lacachePolicy struct {
	cap   uint64
	used  uint64
	byKey map[string]*lacacheEntry
	order list // insertion order sampling pool
	now   uint64
}

const (
	lacacheRingSize   = 20
	lacacheSampleSize = 100
)

type lacacheEntry struct {
	n        *node
	gaps     [lacacheRingSize]uint64
	gapCount int
	gapHead  int
	lastSeen uint64
}

func newLACache(cfg Config) *lacachePolicy {
	return &lacachePolicy{
		cap:   cfg.CapacityBytes,
		byKey: make(map[string]*lacacheEntry),
	}
}

func (p *lacachePolicy) Exists(k kv.Key) bool {
	_, ok := p.byKey[k.RawString()]
	return ok
}

func (p *lacachePolicy) Lookup(k kv.Key) (kv.Value, bool) {
	e, ok := p.byKey[k.RawString()]
	if !ok {
		return kv.Value{}, false
	}
	p.now++
	gap := p.now - e.lastSeen
	e.gaps[e.gapHead%lacacheRingSize] = gap
	e.gapHead++
	if e.gapCount < lacacheRingSize {
		e.gapCount++
	}
	e.lastSeen = p.now
	return e.n.val, true
}

func (p *lacachePolicy) Update(k kv.Key, v kv.Value) bool {
	e, ok := p.byKey[k.RawString()]
	if !ok {
		return false
	}
	p.used -= uint64(e.n.val.ValueSize())
	e.n.val = v
	p.used += uint64(e.n.val.ValueSize())
	return true
}

func (p *lacachePolicy) NeedIndependentAdmit(k kv.Key, v kv.Value) bool { return true }

func (p *lacachePolicy) Admit(k kv.Key, v kv.Value) {
	p.now++
	n := &node{key: k, val: v}
	p.order.pushFront(n)
	p.byKey[k.RawString()] = &lacacheEntry{n: n, lastSeen: p.now}
	p.used += n.bytes()
}

// rank returns an entry's predicted time to next arrival: use2's
// recency fallback when too few gaps are known, otherwise 1/λ.
func (p *lacachePolicy) rank(e *lacacheEntry) float64 {
	if e.gapCount < 2 {
		return float64(p.now - e.lastSeen)
	}
	var sum uint64
	for i := 0; i < e.gapCount; i++ {
		sum += e.gaps[i]
	}
	mean := float64(sum) / float64(e.gapCount)
	if mean <= 0 {
		mean = 1
	}
	lambda := 1 / mean
	return 1 / lambda
}

func (p *lacachePolicy) GetVictimKey() (kv.Key, bool) {
	if p.order.Len() == 0 {
		return kv.Key{}, false
	}
	n := p.order.back()
	var best *node
	var bestRank float64 = -1
	sampled := 0
	for cur := n; cur != nil && sampled < lacacheSampleSize; cur, sampled = cur.prev, sampled+1 {
		e := p.byKey[cur.key.RawString()]
		if e == nil {
			continue
		}
		r := p.rank(e)
		if best == nil || r > bestRank {
			best, bestRank = cur, r
		}
	}
	if best == nil {
		return kv.Key{}, false
	}
	return best.key, true
}

func (p *lacachePolicy) EvictWithGivenKey(k kv.Key) (kv.Value, bool) {
	e, ok := p.byKey[k.RawString()]
	if !ok {
		return kv.Value{}, false
	}
	p.order.remove(e.n)
	delete(p.byKey, k.RawString())
	p.used -= e.n.bytes()
	return e.n.val, true
}

func (p *lacachePolicy) EvictNoGivenKey(requiredBytes uint64) map[string]kv.Value {
	panic("policy: EvictNoGivenKey called on a fine-grained policy")
}

func (p *lacachePolicy) HasFineGrainedManagement() bool { return true }
func (p *lacachePolicy) SizeForCapacity() uint64         { return p.used }
func (p *lacachePolicy) CanAdmit(objectSize uint32) bool { return uint64(objectSize) <= p.cap }
