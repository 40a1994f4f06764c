package policy

import "github.com/dcache/edgecache/internal/kv"

// fifoPolicy evicts in pure insertion order: a hit never reorders the
// list, only Admit does (pushFront), so the tail is always the oldest
// resident. Fine-grained: callers name the exact victim key via
// GetVictimKey before eviction.
type fifoPolicy struct {
	cap   uint64
	used  uint64
	byKey map[string]*node
	l     list
}

func newFIFO(cfg Config) *fifoPolicy {
	return &fifoPolicy{
		cap:   cfg.CapacityBytes,
		byKey: make(map[string]*node),
	}
}

func (p *fifoPolicy) Exists(k kv.Key) bool {
	_, ok := p.byKey[k.RawString()]
	return ok
}

func (p *fifoPolicy) Lookup(k kv.Key) (kv.Value, bool) {
	n, ok := p.byKey[k.RawString()]
	if !ok {
		return kv.Value{}, false
	}
	return n.val, true
}

func (p *fifoPolicy) Update(k kv.Key, v kv.Value) bool {
	n, ok := p.byKey[k.RawString()]
	if !ok {
		return false
	}
	p.used -= uint64(n.val.ValueSize())
	n.val = v
	p.used += uint64(n.val.ValueSize())
	return true
}

func (p *fifoPolicy) NeedIndependentAdmit(k kv.Key, v kv.Value) bool { return true }

func (p *fifoPolicy) Admit(k kv.Key, v kv.Value) {
	n := &node{key: k, val: v}
	p.l.pushFront(n)
	p.byKey[k.RawString()] = n
	p.used += n.bytes()
}

func (p *fifoPolicy) GetVictimKey() (kv.Key, bool) {
	n := p.l.back()
	if n == nil {
		return kv.Key{}, false
	}
	return n.key, true
}

func (p *fifoPolicy) EvictWithGivenKey(k kv.Key) (kv.Value, bool) {
	n, ok := p.byKey[k.RawString()]
	if !ok {
		return kv.Value{}, false
	}
	p.l.remove(n)
	delete(p.byKey, k.RawString())
	p.used -= n.bytes()
	return n.val, true
}

func (p *fifoPolicy) EvictNoGivenKey(requiredBytes uint64) map[string]kv.Value {
	panic("policy: EvictNoGivenKey called on a fine-grained policy")
}

func (p *fifoPolicy) HasFineGrainedManagement() bool { return true }
func (p *fifoPolicy) SizeForCapacity() uint64         { return p.used }
func (p *fifoPolicy) CanAdmit(objectSize uint32) bool { return uint64(objectSize) <= p.cap }
