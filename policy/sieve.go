package policy

import "github.com/dcache/edgecache/internal/kv"

// sievePolicy is SIEVE (Zhang et al.): a single FIFO list plus a visited
// bit and a retreating hand. A hit only sets the bit; eviction walks the
// hand from its last position toward the head (wrapping around to the
// tail), clearing bits and skipping
// visited nodes, evicting the first unvisited one without ever moving a
// node to the head. Grounded on perkeep's internal/sieve package
// (other_examples/9808d520_perkeep-perkeep__internal-sieve-sieve.go.go).
// Fine-grained in this port: GetVictimKey runs the hand but does not
// commit eviction, EvictWithGivenKey commits it.
type sievePolicy struct {
	cap   uint64
	used  uint64
	byKey map[string]*node
	l     list
	hand  *node
}

const sieveVisited uint8 = 1

func newSieve(cfg Config) *sievePolicy {
	return &sievePolicy{
		cap:   cfg.CapacityBytes,
		byKey: make(map[string]*node),
	}
}

func (p *sievePolicy) Exists(k kv.Key) bool {
	_, ok := p.byKey[k.RawString()]
	return ok
}

func (p *sievePolicy) Lookup(k kv.Key) (kv.Value, bool) {
	n, ok := p.byKey[k.RawString()]
	if !ok {
		return kv.Value{}, false
	}
	n.extra = sieveVisited
	return n.val, true
}

func (p *sievePolicy) Update(k kv.Key, v kv.Value) bool {
	n, ok := p.byKey[k.RawString()]
	if !ok {
		return false
	}
	p.used -= uint64(n.val.ValueSize())
	n.val = v
	p.used += uint64(n.val.ValueSize())
	return true
}

func (p *sievePolicy) NeedIndependentAdmit(k kv.Key, v kv.Value) bool { return true }

func (p *sievePolicy) Admit(k kv.Key, v kv.Value) {
	n := &node{key: k, val: v}
	p.l.pushFront(n)
	p.byKey[k.RawString()] = n
	p.used += n.bytes()
}

// advance runs the retreating hand until it finds an unvisited node,
// clearing the visited bit of every node it passes over, and leaves the
// hand on that node.
func (p *sievePolicy) advance() *node {
	n := p.hand
	if n == nil {
		n = p.l.back()
	}
	for n != nil {
		if n.extra != sieveVisited {
			p.hand = n
			return n
		}
		n.extra = 0
		if n.prev != nil {
			n = n.prev
		} else {
			n = p.l.back()
		}
	}
	return nil
}

func (p *sievePolicy) GetVictimKey() (kv.Key, bool) {
	n := p.advance()
	if n == nil {
		return kv.Key{}, false
	}
	return n.key, true
}

func (p *sievePolicy) EvictWithGivenKey(k kv.Key) (kv.Value, bool) {
	n, ok := p.byKey[k.RawString()]
	if !ok {
		return kv.Value{}, false
	}
	if p.hand == n {
		p.hand = n.prev
	}
	p.l.remove(n)
	delete(p.byKey, k.RawString())
	p.used -= n.bytes()
	return n.val, true
}

func (p *sievePolicy) EvictNoGivenKey(requiredBytes uint64) map[string]kv.Value {
	panic("policy: EvictNoGivenKey called on a fine-grained policy")
}

func (p *sievePolicy) HasFineGrainedManagement() bool { return true }
func (p *sievePolicy) SizeForCapacity() uint64         { return p.used }
func (p *sievePolicy) CanAdmit(objectSize uint32) bool { return uint64(objectSize) <= p.cap }
