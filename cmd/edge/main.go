// Command edge runs an in-process cooperative edge-cache fleet: edgecnt
// EdgeServers sharing one origin store, wired together through a
// dispatcher.Cluster, with the background placement loop running for
// cooperation-aware policies. There is no real network listener (the
// physical transport is out of scope); this is a synthetic-workload
// harness in the shape of the teacher's cmd/bench, generalized from one
// shard to a simulated fleet.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/dcache/edgecache/dispatcher"
	"github.com/dcache/edgecache/edgeconfig"
	"github.com/dcache/edgecache/internal/kv"
	"github.com/dcache/edgecache/origin"
	"github.com/dcache/edgecache/origin/badgerstore"
	"github.com/dcache/edgecache/origin/memstore"
	"github.com/dcache/edgecache/telemetry"
	"github.com/dcache/edgecache/telemetry/metrics"
)

func main() {
	var (
		edgeCnt       = flag.Int("edgecnt", 4, "number of simulated edges")
		capacityMB    = flag.Int("capacity_mb", 64, "per-edge cache capacity (MiB)")
		cacheName     = flag.String("cache_name", "lru", "eviction policy: fifo|lru|slru|arc|sieve|s3fifo|wtinylfu|lhd|adaptsize|lacache|covered|bestguess")
		lockShards    = flag.Int("lockshards", 1024, "per-key lock table shard count")
		originKind    = flag.String("origin", "mem", "origin backend: mem|badger")
		badgerDir     = flag.String("badger_dir", "", "badger data directory (origin=badger)")
		topK          = flag.Int("covered_topk_edgecnt", 3, "placement: candidate peer count")
		perEdge       = flag.Int("covered_peredge_synced_victimcnt", 16, "placement: hot keys pushed per round")
		placementTick = flag.Duration("placement_interval", 5*time.Second, "background placement period")
		httpAddr      = flag.String("http", ":8080", "Prometheus metrics address")
		seed          = flag.Int64("seed", time.Now().UnixNano(), "synthetic workload seed")
		keys          = flag.Int("keys", 10_000, "synthetic workload keyspace size")
		warmup        = flag.Duration("warmup", 5*time.Second, "synthetic workload duration")
	)
	flag.Parse()

	logger := telemetry.NewLogger()
	defer logger.Sync() //nolint:errcheck

	sink := metrics.NewPromSink(nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		logger.Info("metrics: serving", zap.String("addr", *httpAddr))
		if err := http.ListenAndServe(*httpAddr, nil); err != nil {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	store, closeStore, err := openOrigin(*originKind, *badgerDir)
	if err != nil {
		logger.Fatal("opening origin", zap.Error(err))
	}
	defer closeStore()

	params := edgeconfig.New(
		edgeconfig.WithCacheName(edgeconfig.CacheName(*cacheName)),
		edgeconfig.WithCapacityBytes(uint64(*capacityMB)<<20),
		edgeconfig.WithLockShardCount(*lockShards),
		edgeconfig.WithCoveredTuning(*topK, *perEdge),
	)

	cluster, err := dispatcher.NewCluster(*edgeCnt, params, store, logger, sink)
	if err != nil {
		logger.Fatal("building cluster", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	placement := dispatcher.NewPlacement(cluster, *placementTick, *topK, *perEdge, logger)
	go func() {
		if err := placement.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("placement loop stopped", zap.Error(err))
		}
	}()

	cluster.WarmUp(ctx)
	runSyntheticWorkload(ctx, cluster, *keys, *seed, *warmup)
	logger.Info("warmup complete, serving metrics until signalled")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
}

func openOrigin(kind, badgerDir string) (origin.Store, func(), error) {
	switch kind {
	case "mem":
		return memstore.New(), func() {}, nil
	case "badger":
		if badgerDir == "" {
			var err error
			badgerDir, err = os.MkdirTemp("", "edgecache-badger-*")
			if err != nil {
				return nil, nil, err
			}
		}
		s, err := badgerstore.Open(badgerDir)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("cmd/edge: unknown origin kind %q", kind)
	}
}

// runSyntheticWorkload issues a short burst of GETs against random edges so
// the cache is warm and the placement loop has something to evaluate
// before cmd/edge settles into steady state; mirrors the teacher's
// cmd/bench preload step, scaled down since this is illustrative rather
// than a load-testing tool.
func runSyntheticWorkload(ctx context.Context, cluster *dispatcher.Cluster, keyCount int, seed int64, duration time.Duration) {
	r := rand.New(rand.NewSource(seed))
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return
		default:
		}
		edge := cluster.Edge(r.Intn(cluster.Len()))
		k := kv.KeyString("k:" + strconv.Itoa(r.Intn(keyCount)))
		_, _, _ = edge.Get(ctx, k)
	}
}
