package policy

import "github.com/dcache/edgecache/internal/kv"

// arcPolicy is Adaptive Replacement Cache (Megiddo & Modha): T1 holds
// recently-admitted residents, T2 holds residents hit at least twice,
// B1/B2 are key-only ghost histories of evictions from T1/T2. p is the
// adaptive target size (in bytes) of T1; every ghost hit nudges p toward
// whichever list is proving more valuable. Fine-grained: the resident
// value bytes are always addressable via EvictWithGivenKey.
type arcPolicy struct {
	cap  uint64
	p    uint64 // target size of t1, in bytes
	used uint64

	resident map[string]*node // t1 ∪ t2 entries, by raw key
	t1, t2   list
	ghost    map[string]*node // b1 ∪ b2 entries (key only, val zero)
	b1, b2   list

	// lastAdmitFromB2 records whether the most recent Admit's ghost hit
	// (if any) was in B2, for GetVictimKey's |T1|==p tie-break (§4.1:
	// "T1 if |T1| > p or (|T1| == p and the triggering ghost hit was in
	// B2); else T2"). Reset on every Admit, including non-ghost ones.
	lastAdmitFromB2 bool
}

func newARC(cfg Config) *arcPolicy {
	return &arcPolicy{
		cap:      cfg.CapacityBytes,
		resident: make(map[string]*node),
		ghost:    make(map[string]*node),
	}
}

func (p *arcPolicy) Exists(k kv.Key) bool {
	_, ok := p.resident[k.RawString()]
	return ok
}

func (p *arcPolicy) Lookup(k kv.Key) (kv.Value, bool) {
	n, ok := p.resident[k.RawString()]
	if !ok {
		return kv.Value{}, false
	}
	// A hit in either t1 or t2 promotes to the mru of t2 (§4.1 ARC rule).
	if n.extra == arcInT1 {
		p.t1.remove(n)
	} else {
		p.t2.remove(n)
	}
	n.extra = arcInT2
	p.t2.pushFront(n)
	return n.val, true
}

const (
	arcInT1 uint8 = 0
	arcInT2 uint8 = 1
)

func (p *arcPolicy) Update(k kv.Key, v kv.Value) bool {
	n, ok := p.resident[k.RawString()]
	if !ok {
		return false
	}
	p.used -= uint64(n.val.ValueSize())
	n.val = v
	p.used += uint64(n.val.ValueSize())
	return true
}

func (p *arcPolicy) NeedIndependentAdmit(k kv.Key, v kv.Value) bool { return true }

func (p *arcPolicy) Admit(k kv.Key, v kv.Value) {
	raw := k.RawString()
	g, wasGhost := p.ghost[raw]
	p.lastAdmitFromB2 = wasGhost && g.extra == arcInB2

	if wasGhost {
		b1len, b2len := p.segBytes(&p.b1), p.segBytes(&p.b2)
		if g.extra == arcInB1 {
			delta := uint64(1)
			if b1len > 0 {
				delta = maxU64(1, b2len/b1len)
			}
			p.p = minU64(p.cap, p.p+delta)
			p.b1.remove(g)
		} else {
			delta := uint64(1)
			if b2len > 0 {
				delta = maxU64(1, b1len/b2len)
			}
			p.p = subU64(p.p, delta)
			p.b2.remove(g)
		}
		delete(p.ghost, raw)
	}

	n := &node{key: k, val: v}
	if wasGhost {
		n.extra = arcInT2
		p.t2.pushFront(n)
	} else {
		n.extra = arcInT1
		p.t1.pushFront(n)
	}
	p.resident[raw] = n
	p.used += n.bytes()
}

const (
	arcInB1 uint8 = 0
	arcInB2 uint8 = 1
)

func (p *arcPolicy) GetVictimKey() (kv.Key, bool) {
	threshold := maxU64(1, p.p)
	t1Bytes := p.segBytes(&p.t1)
	// §4.1's exact rule: T1 if |T1| > p, or (|T1| == p and the ghost hit
	// that triggered this admission was in B2), or |T2| == 0; else T2.
	// The |T2| == 0 disjunct is satisfied by the fallback below rather
	// than folded into evictFromT1: whenever t2.back() is nil, T1 is
	// chosen regardless of the first two conditions, which is exactly
	// what an OR with "|T2| == 0" would do.
	evictFromT1 := p.t1.Len() > 0 && (t1Bytes > threshold || (t1Bytes == threshold && p.lastAdmitFromB2))
	if evictFromT1 {
		if n := p.t1.back(); n != nil {
			return n.key, true
		}
	}
	if n := p.t2.back(); n != nil {
		return n.key, true
	}
	if n := p.t1.back(); n != nil {
		return n.key, true
	}
	return kv.Key{}, false
}

func (p *arcPolicy) EvictWithGivenKey(k kv.Key) (kv.Value, bool) {
	raw := k.RawString()
	n, ok := p.resident[raw]
	if !ok {
		return kv.Value{}, false
	}
	var ghostNode *node
	if n.extra == arcInT1 {
		p.t1.remove(n)
		ghostNode = &node{key: k, extra: arcInB1}
		p.b1.pushFront(ghostNode)
	} else {
		p.t2.remove(n)
		ghostNode = &node{key: k, extra: arcInB2}
		p.b2.pushFront(ghostNode)
	}
	delete(p.resident, raw)
	p.ghost[raw] = ghostNode
	p.used -= n.bytes()
	p.trimGhosts()
	return n.val, true
}

// trimGhosts bounds |B1|+|B2| to the resident count, the classic ARC
// ghost-list cap, expressed in object counts rather than bytes since
// ghosts carry no value bytes. The bound never drops below one, so the
// ghost of a just-evicted sole resident survives for its ghost hit.
func (p *arcPolicy) trimGhosts() {
	limit := len(p.resident)
	if limit < 1 {
		limit = 1
	}
	for p.b1.Len()+p.b2.Len() > limit && (p.b1.Len() > 0 || p.b2.Len() > 0) {
		var victim *node
		if p.b1.Len() >= p.b2.Len() {
			victim = p.b1.back()
			p.b1.remove(victim)
		} else {
			victim = p.b2.back()
			p.b2.remove(victim)
		}
		delete(p.ghost, victim.key.RawString())
	}
}

func (p *arcPolicy) EvictNoGivenKey(requiredBytes uint64) map[string]kv.Value {
	panic("policy: EvictNoGivenKey called on a fine-grained policy")
}

func (p *arcPolicy) HasFineGrainedManagement() bool { return true }
func (p *arcPolicy) SizeForCapacity() uint64         { return p.used }
func (p *arcPolicy) CanAdmit(objectSize uint32) bool { return uint64(objectSize) <= p.cap }

func (p *arcPolicy) segBytes(l *list) uint64 {
	var total uint64
	for n := l.front(); n != nil; n = n.next {
		total += n.bytes()
	}
	return total
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

func subU64(a, b uint64) uint64 {
	if b >= a {
		return 0
	}
	return a - b
}
