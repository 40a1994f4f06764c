package policy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dcache/edgecache/internal/kv"
)

func TestARC_RepeatedHitPromotesToT2(t *testing.T) {
	p := newARC(Config{CapacityBytes: 1 << 20})
	k := kv.KeyString("k")
	p.Admit(k, kv.NewValue([]byte("v")))

	n := p.resident[k.RawString()]
	require.Equal(t, arcInT1, n.extra)

	_, ok := p.Lookup(k)
	require.True(t, ok)
	require.Equal(t, arcInT2, n.extra, "a hit must promote the entry out of t1")
}

func TestARC_EvictionMovesKeyToGhostList(t *testing.T) {
	p := newARC(Config{CapacityBytes: 1 << 20})
	k := kv.KeyString("k")
	p.Admit(k, kv.NewValue([]byte("v")))

	_, evicted := p.EvictWithGivenKey(k)
	require.True(t, evicted)
	require.False(t, p.Exists(k))
	_, isGhost := p.ghost[k.RawString()]
	require.True(t, isGhost, "an evicted resident becomes a ghost entry")
}

func TestARC_GhostHitAdaptsP(t *testing.T) {
	p := newARC(Config{CapacityBytes: 1 << 20})
	k := kv.KeyString("k")
	p.Admit(k, kv.NewValue([]byte("v")))
	p.EvictWithGivenKey(k)
	require.Equal(t, uint64(0), p.p)

	p.Admit(k, kv.NewValue([]byte("v2")))
	require.Greater(t, p.p, uint64(0), "re-admitting a ghost-listed key must grow p")
	require.True(t, p.resident[k.RawString()].extra == arcInT2, "ghost hits re-enter via t2")
}

// setupT1EqualsP builds a policy with one resident in t1 and one in t2, each
// a 6-byte key plus a 1-byte value (7 bytes), and pins p.p to 7 so
// |T1| == p holds — the exact boundary
// §4.1's replacement rule singles out for the B1/B2 ghost-hit tie-break.
func setupT1EqualsP(t *testing.T) (p *arcPolicy, t1Key, t2Key kv.Key) {
	t.Helper()
	p = newARC(Config{CapacityBytes: 1 << 20})
	t1Key = kv.KeyString("t1-key")
	t2Key = kv.KeyString("t2-key")
	p.Admit(t1Key, kv.NewValue([]byte("a")))
	p.Admit(t2Key, kv.NewValue([]byte("b")))
	_, ok := p.Lookup(t2Key)
	require.True(t, ok)
	require.Equal(t, arcInT1, p.resident[t1Key.RawString()].extra)
	require.Equal(t, arcInT2, p.resident[t2Key.RawString()].extra)
	p.p = 7
	require.Equal(t, uint64(7), p.segBytes(&p.t1), "|T1| must equal p for this boundary")
	return p, t1Key, t2Key
}

func TestARC_VictimTieBreak_B2GhostHitEvictsT1(t *testing.T) {
	p, t1Key, _ := setupT1EqualsP(t)
	p.lastAdmitFromB2 = true

	victim, ok := p.GetVictimKey()
	require.True(t, ok)
	require.Equal(t, t1Key.RawString(), victim.RawString(), "a B2 ghost hit at |T1|==p must break the tie toward T1")
}

func TestARC_VictimTieBreak_B1GhostHitEvictsT2(t *testing.T) {
	p, _, t2Key := setupT1EqualsP(t)
	p.lastAdmitFromB2 = false

	victim, ok := p.GetVictimKey()
	require.True(t, ok)
	require.Equal(t, t2Key.RawString(), victim.RawString(), "a B1 ghost hit (or no ghost hit at all) at |T1|==p must still evict from T2")
}
