package cache

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dcache/edgecache/errs"
	"github.com/dcache/edgecache/internal/kv"
	"github.com/dcache/edgecache/policy"
)

func newTestWrapper(t *testing.T, name string) *Wrapper {
	t.Helper()
	eng, err := policy.Factory(name, policy.Config{CapacityBytes: 1 << 20})
	require.NoError(t, err)
	return New(eng, 16)
}

func TestWrapper_GetMissOnAbsentKey(t *testing.T) {
	w := newTestWrapper(t, "lru")
	_, ok := w.Get(kv.KeyString("k"), false)
	require.False(t, ok)
}

func TestWrapper_AdmitThenGetHit(t *testing.T) {
	w := newTestWrapper(t, "lru")
	k := kv.KeyString("k")
	require.NoError(t, w.Admit(k, kv.NewValue([]byte("v")), false, true))

	v, ok := w.Get(k, false)
	require.True(t, ok)
	require.Equal(t, "v", string(v.Bytes()))
}

func TestWrapper_AdmitInvalidMarksUncacheable(t *testing.T) {
	w := newTestWrapper(t, "lru")
	k := kv.KeyString("k")
	require.NoError(t, w.Admit(k, kv.NewValue([]byte("v")), false, false))

	require.True(t, w.IsLocalCached(k))
	require.False(t, w.IsValidKeyForLocalCachedObject(k))
	_, ok := w.Get(k, false)
	require.False(t, ok, "Get must not return a value marked invalid")
}

func TestWrapper_UpdateOnMissDoesNotAdmit(t *testing.T) {
	w := newTestWrapper(t, "lru")
	k := kv.KeyString("k")

	wasCached, err := w.Update(k, kv.NewValue([]byte("v1")), false)
	require.NoError(t, err)
	require.False(t, wasCached)
	require.False(t, w.IsLocalCached(k), "Update on a miss must not create a local replica")

	_, ok := w.Get(k, false)
	require.False(t, ok)
}

func TestWrapper_UpdateReportsWasLocalCachedOnHit(t *testing.T) {
	w := newTestWrapper(t, "lru")
	k := kv.KeyString("k")
	require.NoError(t, w.Admit(k, kv.NewValue([]byte("v1")), false, true))

	wasCached, err := w.Update(k, kv.NewValue([]byte("v2")), false)
	require.NoError(t, err)
	require.True(t, wasCached)

	v, ok := w.Get(k, false)
	require.True(t, ok)
	require.Equal(t, "v2", string(v.Bytes()))
}

func TestWrapper_AdmitRejectsOversizedObject(t *testing.T) {
	eng, err := policy.Factory("lru", policy.Config{CapacityBytes: 8})
	require.NoError(t, err)
	w := New(eng, 16)

	err = w.Admit(kv.KeyString("k"), kv.NewValue(make([]byte, 1<<10)), false, true)
	require.ErrorIs(t, err, errs.ErrInvalidObjectSize)
}

func TestWrapper_InvalidateKeyForLocalCachedObject(t *testing.T) {
	w := newTestWrapper(t, "lru")
	k := kv.KeyString("k")
	require.NoError(t, w.Admit(k, kv.NewValue([]byte("v")), false, true))

	w.InvalidateKeyForLocalCachedObject(k)
	require.True(t, w.IsLocalCached(k))
	require.False(t, w.IsValidKeyForLocalCachedObject(k))
}

func TestWrapper_DeleteIsTombstoneUpdate(t *testing.T) {
	w := newTestWrapper(t, "lru")
	k := kv.KeyString("k")
	require.NoError(t, w.Admit(k, kv.NewValue([]byte("v")), false, true))

	_, err := w.Delete(k, false)
	require.NoError(t, err)

	v, ok := w.Get(k, false)
	require.True(t, ok)
	require.True(t, v.Deleted)
}

func TestWrapper_EvictFineGrainedUsesCallerVictimHint(t *testing.T) {
	w := newTestWrapper(t, "lru")
	a, b := kv.KeyString("a"), kv.KeyString("b")
	require.NoError(t, w.Admit(a, kv.NewValue([]byte("1")), false, true))
	require.NoError(t, w.Admit(b, kv.NewValue([]byte("2")), false, true))

	freed, err := w.Evict([]kv.Key{a}, 1)
	require.NoError(t, err)
	require.Contains(t, freed, a.RawString())
	require.False(t, w.IsLocalCached(a))
	require.True(t, w.IsLocalCached(b))
}

func TestWrapper_EvictCoarseGrainedDelegatesToEngine(t *testing.T) {
	w := newTestWrapper(t, "s3fifo")
	k := kv.KeyString("k")
	require.NoError(t, w.Admit(k, kv.NewValue([]byte("v")), false, true))

	freed, err := w.Evict(nil, 1)
	require.NoError(t, err)
	require.Contains(t, freed, k.RawString())
}

func TestWrapper_IsCooperationAware(t *testing.T) {
	require.True(t, newTestWrapper(t, "covered").IsCooperationAware())
	require.True(t, newTestWrapper(t, "bestguess").IsCooperationAware())
	require.False(t, newTestWrapper(t, "lru").IsCooperationAware())
}

func TestWrapper_PopularityOfTracksAdmitAndRemoteRequests(t *testing.T) {
	w := newTestWrapper(t, "covered")
	k := kv.KeyString("k")
	require.NoError(t, w.Admit(k, kv.NewValue([]byte("v")), false, true))
	w.RecordRemoteRequest(k, 4)

	count, lastEdge, ok := w.PopularityOf(k)
	require.True(t, ok)
	require.Equal(t, uint64(2), count)
	require.Equal(t, uint32(4), lastEdge)
}

func TestWrapper_PopularityOfNoopOnNonCooperativePolicy(t *testing.T) {
	w := newTestWrapper(t, "lru")
	_, _, ok := w.PopularityOf(kv.KeyString("k"))
	require.False(t, ok)
	require.NotPanics(t, func() { w.RecordRemoteRequest(kv.KeyString("k"), 1) })
}
