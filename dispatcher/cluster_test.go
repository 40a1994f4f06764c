package dispatcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dcache/edgecache/edgeconfig"
	"github.com/dcache/edgecache/internal/kv"
	"github.com/dcache/edgecache/origin/memstore"
	"github.com/dcache/edgecache/telemetry/metrics"
	"github.com/dcache/edgecache/wire"
)

func testParams(cache edgeconfig.CacheName) edgeconfig.Params {
	return edgeconfig.New(
		edgeconfig.WithCacheName(cache),
		edgeconfig.WithCapacityBytes(1<<20),
		edgeconfig.WithLockShardCount(16),
		edgeconfig.WithSkipPropagation(true),
	)
}

func TestGet_OriginFallbackThenLocalHit(t *testing.T) {
	store := memstore.New()
	require.NoError(t, store.Put(context.Background(), kv.KeyString("k"), kv.NewValue([]byte("v"))))

	cluster, err := NewCluster(1, testParams(edgeconfig.CacheLRU), store, nil, metrics.NoopSink{})
	require.NoError(t, err)

	edge := cluster.Edge(0)
	v, hit, err := edge.Get(context.Background(), kv.KeyString("k"))
	require.NoError(t, err)
	require.Equal(t, wire.GlobalMiss, hit)
	require.Equal(t, "v", string(v.Bytes()))

	v, hit, err = edge.Get(context.Background(), kv.KeyString("k"))
	require.NoError(t, err)
	require.Equal(t, wire.LocalHit, hit)
	require.Equal(t, "v", string(v.Bytes()))
}

func TestGet_MissingKeyFromOriginReturnsError(t *testing.T) {
	store := memstore.New()
	cluster, err := NewCluster(1, testParams(edgeconfig.CacheLRU), store, nil, metrics.NoopSink{})
	require.NoError(t, err)

	_, _, err = cluster.Edge(0).Get(context.Background(), kv.KeyString("missing"))
	require.Error(t, err)
}

func TestCooperativeGet_RedirectsToPeerReplica(t *testing.T) {
	store := memstore.New()
	cluster, err := NewCluster(3, testParams(edgeconfig.CacheLRU), store, nil, metrics.NoopSink{})
	require.NoError(t, err)

	k := kv.KeyString("shared-key")
	v := kv.NewValue([]byte("payload"))

	var owner *EdgeServer
	for i := 0; i < cluster.Len(); i++ {
		e := cluster.Edge(i)
		if e.beaconEdge(k) == e.Index {
			owner = e
			break
		}
	}
	require.NotNil(t, owner, "one edge must own this key's beacon by construction")

	require.NoError(t, owner.Cache.Admit(k, v, false, true))
	owner.notifyBeaconOfAdmit(context.Background(), k)

	for i := 0; i < cluster.Len(); i++ {
		requester := cluster.Edge(i)
		if requester == owner {
			continue
		}
		got, hit, err := requester.Get(context.Background(), k)
		require.NoError(t, err)
		require.Equal(t, wire.CooperativeHit, hit)
		require.Equal(t, "payload", string(got.Bytes()))
	}
}

func TestPut_InvalidatesPeerReplicas(t *testing.T) {
	store := memstore.New()
	cluster, err := NewCluster(3, testParams(edgeconfig.CacheLRU), store, nil, metrics.NoopSink{})
	require.NoError(t, err)

	k := kv.KeyString("written-key")
	writer := cluster.Edge(0)
	require.NoError(t, writer.Put(context.Background(), k, kv.NewValue([]byte("v1"))))

	beacon := cluster.beaconAt(writer.beaconEdge(k))
	for i := 0; i < cluster.Len(); i++ {
		peer := cluster.Edge(i)
		if peer == writer {
			continue
		}
		require.NoError(t, peer.Cache.Admit(k, kv.NewValue([]byte("v1")), false, true))
		beacon.HandleDirectoryUpdate(wire.DirectoryUpdateReq{Key: k, IsAdmit: true, TargetEdgeIdx: uint32(peer.Index)})
	}

	require.NoError(t, writer.Put(context.Background(), k, kv.NewValue([]byte("v2"))))

	for i := 0; i < cluster.Len(); i++ {
		peer := cluster.Edge(i)
		if peer == writer {
			continue
		}
		require.False(t, peer.Cache.IsValidKeyForLocalCachedObject(k), "peer replica must be invalidated after a write")
	}

	got, err := store.Get(context.Background(), k)
	require.NoError(t, err)
	require.Equal(t, "v2", string(got.Bytes()))
}

func TestDel_RemovesFromOrigin(t *testing.T) {
	store := memstore.New()
	k := kv.KeyString("deleted-key")
	require.NoError(t, store.Put(context.Background(), k, kv.NewValue([]byte("v"))))

	cluster, err := NewCluster(1, testParams(edgeconfig.CacheLRU), store, nil, metrics.NoopSink{})
	require.NoError(t, err)

	require.NoError(t, cluster.Edge(0).Del(context.Background(), k))

	_, err = store.Get(context.Background(), k)
	require.Error(t, err)
}

func TestPlacement_PushesHotKeyToPeer(t *testing.T) {
	store := memstore.New()
	cluster, err := NewCluster(3, testParams(edgeconfig.CacheCovered), store, nil, metrics.NoopSink{})
	require.NoError(t, err)

	k := kv.KeyString("hot-key")
	require.NoError(t, store.Put(context.Background(), k, kv.NewValue([]byte("hot"))))

	owner := cluster.Edge(0)
	_, _, err = owner.Get(context.Background(), k)
	require.NoError(t, err)

	placement := NewPlacement(cluster, time.Hour, 2, 4, nil)
	require.NoError(t, placement.RunOnce(context.Background()))

	found := false
	for i := 1; i < cluster.Len(); i++ {
		if cluster.Edge(i).Cache.IsLocalCached(k) {
			found = true
			break
		}
	}
	require.True(t, found, "placement must replicate the hot key to at least one peer")
}
