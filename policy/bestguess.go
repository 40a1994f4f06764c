package policy

import "github.com/dcache/edgecache/internal/kv"

// bestguessPolicy is the cheaper sibling of covered: instead of tracking
// per-key popularity from observed cooperative traffic, it ranks
// placement candidates with a static heuristic (smaller objects rank
// higher, since they are cheaper to replicate) computed purely from the
// object itself. Lower fidelity than covered's sampled popularity, lower
// bookkeeping cost.
type bestguessPolicy struct {
	base Policy
}

func newBestGuess(base Policy) *bestguessPolicy {
	return &bestguessPolicy{base: base}
}

func (b *bestguessPolicy) Exists(k kv.Key) bool                { return b.base.Exists(k) }
func (b *bestguessPolicy) Lookup(k kv.Key) (kv.Value, bool)    { return b.base.Lookup(k) }
func (b *bestguessPolicy) Update(k kv.Key, v kv.Value) bool    { return b.base.Update(k, v) }
func (b *bestguessPolicy) Admit(k kv.Key, v kv.Value)          { b.base.Admit(k, v) }
func (b *bestguessPolicy) GetVictimKey() (kv.Key, bool)        { return b.base.GetVictimKey() }
func (b *bestguessPolicy) HasFineGrainedManagement() bool      { return b.base.HasFineGrainedManagement() }
func (b *bestguessPolicy) SizeForCapacity() uint64              { return b.base.SizeForCapacity() }
func (b *bestguessPolicy) CanAdmit(objectSize uint32) bool      { return b.base.CanAdmit(objectSize) }

func (b *bestguessPolicy) NeedIndependentAdmit(k kv.Key, v kv.Value) bool {
	return b.base.NeedIndependentAdmit(k, v)
}

func (b *bestguessPolicy) EvictWithGivenKey(k kv.Key) (kv.Value, bool) {
	return b.base.EvictWithGivenKey(k)
}

func (b *bestguessPolicy) EvictNoGivenKey(requiredBytes uint64) map[string]kv.Value {
	return b.base.EvictNoGivenKey(requiredBytes)
}

// PopularityOf reports a static rank derived from the object's own size
// rather than observed request history: smaller objects get a higher
// synthetic "request count" so placement favors replicating them first.
func (b *bestguessPolicy) PopularityOf(k kv.Key) (uint64, uint32, bool) {
	v, ok := b.base.Lookup(k)
	if !ok {
		return 0, 0, false
	}
	size := v.ValueSize()
	if size == 0 {
		size = 1
	}
	return uint64(1 << 20 / size), 0, true
}

func (b *bestguessPolicy) RecordRemoteRequest(k kv.Key, sourceEdgeIdx uint32) {}
