package policy

import "github.com/dcache/edgecache/internal/kv"

// slruPolicy splits residents into a probationary segment (new admits,
// demotions from protected) and a protected segment (promoted on a
// second hit), each its own LRU list. Generalizes the teacher's two-queue
// shape (policy/twoq/twoq.go) with a fixed protected/probationary split
// rather than twoq's A1in/A1out/Am.
type slruPolicy struct {
	cap          uint64
	protectedCap uint64
	used         uint64

	byKey       map[string]*node
	probation   list
	protected   list
}

func newSLRU(cfg Config) *slruPolicy {
	frac := cfg.WindowFraction
	if frac <= 0 || frac >= 1 {
		frac = 0.8 // protected segment gets 80% by default, matching W-TinyLFU's main segment convention
	}
	return &slruPolicy{
		cap:          cfg.CapacityBytes,
		protectedCap: uint64(float64(cfg.CapacityBytes) * frac),
		byKey:        make(map[string]*node),
	}
}

const (
	slruSegProbation uint8 = 0
	slruSegProtected uint8 = 1
)

func (p *slruPolicy) Exists(k kv.Key) bool {
	_, ok := p.byKey[k.RawString()]
	return ok
}

func (p *slruPolicy) Lookup(k kv.Key) (kv.Value, bool) {
	n, ok := p.byKey[k.RawString()]
	if !ok {
		return kv.Value{}, false
	}
	if n.extra == slruSegProbation {
		p.probation.remove(n)
		n.extra = slruSegProtected
		p.protected.pushFront(n)
		p.rebalance()
	} else {
		p.protected.moveToFront(n)
	}
	return n.val, true
}

// rebalance demotes the protected segment's LRU tail back to probation
// while it exceeds protectedCap, the same boundary the teacher's twoq
// queue enforces between Am and A1in.
func (p *slruPolicy) rebalance() {
	for p.segBytes(&p.protected) > p.protectedCap {
		victim := p.protected.back()
		if victim == nil {
			break
		}
		p.protected.remove(victim)
		victim.extra = slruSegProbation
		p.probation.pushFront(victim)
	}
}

func (p *slruPolicy) segBytes(l *list) uint64 {
	var total uint64
	for n := l.front(); n != nil; n = n.next {
		total += n.bytes()
	}
	return total
}

func (p *slruPolicy) Update(k kv.Key, v kv.Value) bool {
	n, ok := p.byKey[k.RawString()]
	if !ok {
		return false
	}
	p.used -= uint64(n.val.ValueSize())
	n.val = v
	p.used += uint64(n.val.ValueSize())
	return true
}

func (p *slruPolicy) NeedIndependentAdmit(k kv.Key, v kv.Value) bool { return true }

func (p *slruPolicy) Admit(k kv.Key, v kv.Value) {
	n := &node{key: k, val: v, extra: slruSegProbation}
	p.probation.pushFront(n)
	p.byKey[k.RawString()] = n
	p.used += n.bytes()
}

func (p *slruPolicy) GetVictimKey() (kv.Key, bool) {
	if n := p.probation.back(); n != nil {
		return n.key, true
	}
	if n := p.protected.back(); n != nil {
		return n.key, true
	}
	return kv.Key{}, false
}

func (p *slruPolicy) EvictWithGivenKey(k kv.Key) (kv.Value, bool) {
	n, ok := p.byKey[k.RawString()]
	if !ok {
		return kv.Value{}, false
	}
	if n.extra == slruSegProbation {
		p.probation.remove(n)
	} else {
		p.protected.remove(n)
	}
	delete(p.byKey, k.RawString())
	p.used -= n.bytes()
	return n.val, true
}

func (p *slruPolicy) EvictNoGivenKey(requiredBytes uint64) map[string]kv.Value {
	panic("policy: EvictNoGivenKey called on a fine-grained policy")
}

func (p *slruPolicy) HasFineGrainedManagement() bool { return true }
func (p *slruPolicy) SizeForCapacity() uint64         { return p.used }

// CanAdmit rejects objects too large to ever fit in the probationary
// segment, the non-protected share of capacity.
func (p *slruPolicy) CanAdmit(objectSize uint32) bool {
	return uint64(objectSize) <= p.cap-p.protectedCap
}
