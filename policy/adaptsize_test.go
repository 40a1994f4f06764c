package policy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dcache/edgecache/internal/kv"
)

func TestAdaptSize_NeedIndependentAdmitAlwaysAdmitsAtZeroSize(t *testing.T) {
	p := newAdaptSize(Config{CapacityBytes: 1 << 20})
	require.True(t, p.NeedIndependentAdmit(kv.KeyString("k"), kv.NewValue(nil)))
}

func TestAdaptSize_NeedIndependentAdmitRejectsHugeObjectsAgainstTinyScale(t *testing.T) {
	p := newAdaptSize(Config{CapacityBytes: 1 << 20})
	p.c = 1 // force an essentially-zero admission probability for large objects
	require.False(t, p.NeedIndependentAdmit(kv.KeyString("k"), kv.NewValue(make([]byte, 1<<20))))
}

func TestAdaptSize_LRUEvictionOrder(t *testing.T) {
	p := newAdaptSize(Config{CapacityBytes: 1 << 20})
	a, b := kv.KeyString("a"), kv.KeyString("b")
	p.Admit(a, kv.NewValue([]byte("1")))
	p.Admit(b, kv.NewValue([]byte("2")))
	p.Lookup(a)

	victim, ok := p.GetVictimKey()
	require.True(t, ok)
	require.True(t, victim.Equal(b))
}

func TestAdaptSize_RecordRequestSkipsReconfigureBelowPeriod(t *testing.T) {
	p := newAdaptSize(Config{CapacityBytes: 1 << 20})
	before := p.c
	for i := 0; i < 100; i++ {
		p.recordRequest(kv.KeyString("k"), 64)
	}
	require.Equal(t, before, p.c, "reconfigure must not fire before the tuning period elapses")
}

func TestAdaptSize_EvictNoGivenKeyPanics(t *testing.T) {
	p := newAdaptSize(Config{CapacityBytes: 1 << 20})
	require.Panics(t, func() { p.EvictNoGivenKey(1) })
}
