package policy

import "github.com/dcache/edgecache/internal/kv"

// Popularity is the extension surface dispatcher's background placement
// uses to decide which keys are worth proactively pushing to other
// edges, exposed only by the cooperation-aware policies (covered,
// bestguess).
type Popularity interface {
	PopularityOf(k kv.Key) (requestCount uint64, lastEdgeSeen uint32, ok bool)
	RecordRemoteRequest(k kv.Key, sourceEdgeIdx uint32)
}

// coveredPolicy wraps a base fine-grained policy, layering per-key
// popularity metadata (request count, last edge that asked about it) on
// top without altering the base policy's own eviction order. Lookups and
// admits pass straight through to base; only wrapper-local bookkeeping is
// added, the same decorator shape the teacher's metrics wrapper
// (cache/metrics.go) uses around the underlying shard.
type coveredPolicy struct {
	base Policy
	pop  map[string]*popularityEntry
}

type popularityEntry struct {
	requestCount  uint64
	lastEdgeSeen  uint32
}

func newCovered(base Policy) *coveredPolicy {
	return &coveredPolicy{base: base, pop: make(map[string]*popularityEntry)}
}

func (c *coveredPolicy) Exists(k kv.Key) bool { return c.base.Exists(k) }

func (c *coveredPolicy) Lookup(k kv.Key) (kv.Value, bool) {
	c.touch(k)
	return c.base.Lookup(k)
}

func (c *coveredPolicy) touch(k kv.Key) {
	e, ok := c.pop[k.RawString()]
	if !ok {
		e = &popularityEntry{}
		c.pop[k.RawString()] = e
	}
	e.requestCount++
}

func (c *coveredPolicy) Update(k kv.Key, v kv.Value) bool { return c.base.Update(k, v) }

func (c *coveredPolicy) NeedIndependentAdmit(k kv.Key, v kv.Value) bool {
	return c.base.NeedIndependentAdmit(k, v)
}

func (c *coveredPolicy) Admit(k kv.Key, v kv.Value) {
	c.touch(k)
	c.base.Admit(k, v)
}

func (c *coveredPolicy) GetVictimKey() (kv.Key, bool) { return c.base.GetVictimKey() }

func (c *coveredPolicy) EvictWithGivenKey(k kv.Key) (kv.Value, bool) {
	v, ok := c.base.EvictWithGivenKey(k)
	if ok {
		delete(c.pop, k.RawString())
	}
	return v, ok
}

func (c *coveredPolicy) EvictNoGivenKey(requiredBytes uint64) map[string]kv.Value {
	victims := c.base.EvictNoGivenKey(requiredBytes)
	for raw := range victims {
		delete(c.pop, raw)
	}
	return victims
}

func (c *coveredPolicy) HasFineGrainedManagement() bool { return c.base.HasFineGrainedManagement() }
func (c *coveredPolicy) SizeForCapacity() uint64         { return c.base.SizeForCapacity() }
func (c *coveredPolicy) CanAdmit(objectSize uint32) bool { return c.base.CanAdmit(objectSize) }

func (c *coveredPolicy) PopularityOf(k kv.Key) (uint64, uint32, bool) {
	e, ok := c.pop[k.RawString()]
	if !ok {
		return 0, 0, false
	}
	return e.requestCount, e.lastEdgeSeen, true
}

func (c *coveredPolicy) RecordRemoteRequest(k kv.Key, sourceEdgeIdx uint32) {
	e, ok := c.pop[k.RawString()]
	if !ok {
		e = &popularityEntry{}
		c.pop[k.RawString()] = e
	}
	e.requestCount++
	e.lastEdgeSeen = sourceEdgeIdx
}
