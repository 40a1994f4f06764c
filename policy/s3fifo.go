package policy

import "github.com/dcache/edgecache/internal/kv"

// s3fifoPolicy is S3-FIFO (Yang et al. 2023): new objects enter a small
// FIFO (10% of capacity); on eviction from small, an object with at least
// one hit graduates to the main FIFO, otherwise its key moves to a ghost
// FIFO and the value is dropped. Main eviction is CLOCK-style: a victim
// with a nonzero access counter is decremented and reinserted at the
// head instead of being evicted. Coarse-grained: §4.1 gives S3-FIFO's
// eviction no fixed victim order a caller can name in advance, so it
// exposes EvictNoGivenKey only. Grounded on
// other_examples/34f99087_..._s3fifo.go and original_source/src/cache/s3fifo.
type s3fifoPolicy struct {
	cap      uint64
	smallCap uint64
	used     uint64

	byKey map[string]*node
	small list
	main  list

	ghost    map[string]struct{}
	ghostQ   []string
	ghostCap int
}

func newS3FIFO(cfg Config) *s3fifoPolicy {
	frac := cfg.GhostFraction
	if frac <= 0 || frac >= 1 {
		frac = 0.10
	}
	return &s3fifoPolicy{
		cap:      cfg.CapacityBytes,
		smallCap: uint64(float64(cfg.CapacityBytes) * frac),
		byKey:    make(map[string]*node),
		ghost:    make(map[string]struct{}),
		ghostCap: 100000,
	}
}

const s3fifoMaxFreq uint8 = 3

func (p *s3fifoPolicy) Exists(k kv.Key) bool {
	_, ok := p.byKey[k.RawString()]
	return ok
}

func (p *s3fifoPolicy) Lookup(k kv.Key) (kv.Value, bool) {
	n, ok := p.byKey[k.RawString()]
	if !ok {
		return kv.Value{}, false
	}
	if n.extra < s3fifoMaxFreq {
		n.extra++
	}
	return n.val, true
}

func (p *s3fifoPolicy) Update(k kv.Key, v kv.Value) bool {
	n, ok := p.byKey[k.RawString()]
	if !ok {
		return false
	}
	p.used -= uint64(n.val.ValueSize())
	n.val = v
	p.used += uint64(n.val.ValueSize())
	return true
}

func (p *s3fifoPolicy) NeedIndependentAdmit(k kv.Key, v kv.Value) bool { return true }

func (p *s3fifoPolicy) Admit(k kv.Key, v kv.Value) {
	raw := k.RawString()
	n := &node{key: k, val: v}
	if _, wasGhost := p.ghost[raw]; wasGhost {
		delete(p.ghost, raw)
		p.main.pushFront(n)
	} else {
		p.small.pushFront(n)
	}
	p.byKey[raw] = n
	p.used += n.bytes()
}

func (p *s3fifoPolicy) GetVictimKey() (kv.Key, bool) {
	panic("policy: GetVictimKey called on a coarse-grained policy")
}

func (p *s3fifoPolicy) EvictWithGivenKey(k kv.Key) (kv.Value, bool) {
	panic("policy: EvictWithGivenKey called on a coarse-grained policy")
}

func (p *s3fifoPolicy) EvictNoGivenKey(requiredBytes uint64) map[string]kv.Value {
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

func (p *s3fifoPolicy) evictOne() *node {
	if p.segBytes(&p.small) > p.smallCap || p.main.Len() == 0 {
		if v := p.evictFromSmall(); v != nil {
			return v
		}
	}
	return p.evictFromMain()
}

func (p *s3fifoPolicy) evictFromSmall() *node {
	for {
		n := p.small.back()
		if n == nil {
			return nil
		}
		p.small.remove(n)
		delete(p.byKey, n.key.RawString())
		p.used -= n.bytes()
		if n.extra > 0 {
			n.extra = 0
			p.main.pushFront(n)
			p.byKey[n.key.RawString()] = n
			p.used += n.bytes()
			continue // graduated, not evicted: keep looking for an actual victim
		}
		p.addGhost(n.key.RawString())
		return n
	}
}

func (p *s3fifoPolicy) evictFromMain() *node {
	for {
		n := p.main.back()
		if n == nil {
			return nil
		}
		if n.extra > 0 {
			n.extra--
			p.main.remove(n)
			p.main.pushFront(n)
			continue
		}
		p.main.remove(n)
		delete(p.byKey, n.key.RawString())
		p.used -= n.bytes()
		return n
	}
}

func (p *s3fifoPolicy) addGhost(raw string) {
	if _, ok := p.ghost[raw]; ok {
		return
	}
	if len(p.ghostQ) >= p.ghostCap {
		oldest := p.ghostQ[0]
		p.ghostQ = p.ghostQ[1:]
		delete(p.ghost, oldest)
	}
	p.ghost[raw] = struct{}{}
	p.ghostQ = append(p.ghostQ, raw)
}

func (p *s3fifoPolicy) HasFineGrainedManagement() bool { return false }
func (p *s3fifoPolicy) SizeForCapacity() uint64         { return p.used }
func (p *s3fifoPolicy) CanAdmit(objectSize uint32) bool { return uint64(objectSize) <= p.smallCap }

func (p *s3fifoPolicy) segBytes(l *list) uint64 {
	var total uint64
	for n := l.front(); n != nil; n = n.next {
		total += n.bytes()
	}
	return total
}
