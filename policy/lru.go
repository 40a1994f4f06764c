package policy

import "github.com/dcache/edgecache/internal/kv"

// lruPolicy is the teacher's lru package (policy/lru/lru.go) generalized
// from generic K,V to kv.Key/kv.Value: Lookup moves the hit node to the
// front, so the tail is always the least-recently-used resident.
type lruPolicy struct {
	cap   uint64
	used  uint64
	byKey map[string]*node
	l     list
}

func newLRU(cfg Config) *lruPolicy {
	return &lruPolicy{
		cap:   cfg.CapacityBytes,
		byKey: make(map[string]*node),
	}
}

func (p *lruPolicy) Exists(k kv.Key) bool {
	_, ok := p.byKey[k.RawString()]
	return ok
}

func (p *lruPolicy) Lookup(k kv.Key) (kv.Value, bool) {
	n, ok := p.byKey[k.RawString()]
	if !ok {
		return kv.Value{}, false
	}
	p.l.moveToFront(n)
	return n.val, true
}

func (p *lruPolicy) Update(k kv.Key, v kv.Value) bool {
	n, ok := p.byKey[k.RawString()]
	if !ok {
		return false
	}
	p.used -= uint64(n.val.ValueSize())
	n.val = v
	p.used += uint64(n.val.ValueSize())
	p.l.moveToFront(n)
	return true
}

func (p *lruPolicy) NeedIndependentAdmit(k kv.Key, v kv.Value) bool { return true }

func (p *lruPolicy) Admit(k kv.Key, v kv.Value) {
	n := &node{key: k, val: v}
	p.l.pushFront(n)
	p.byKey[k.RawString()] = n
	p.used += n.bytes()
}

func (p *lruPolicy) GetVictimKey() (kv.Key, bool) {
	n := p.l.back()
	if n == nil {
		return kv.Key{}, false
	}
	return n.key, true
}

func (p *lruPolicy) EvictWithGivenKey(k kv.Key) (kv.Value, bool) {
	n, ok := p.byKey[k.RawString()]
	if !ok {
		return kv.Value{}, false
	}
	p.l.remove(n)
	delete(p.byKey, k.RawString())
	p.used -= n.bytes()
	return n.val, true
}

func (p *lruPolicy) EvictNoGivenKey(requiredBytes uint64) map[string]kv.Value {
	panic("policy: EvictNoGivenKey called on a fine-grained policy")
}

func (p *lruPolicy) HasFineGrainedManagement() bool { return true }
func (p *lruPolicy) SizeForCapacity() uint64         { return p.used }
func (p *lruPolicy) CanAdmit(objectSize uint32) bool { return uint64(objectSize) <= p.cap }
