// Command client is an illustrative front end for the client GET/PUT/DEL
// state machines of dispatcher.EdgeServer. It drives its own in-process
// dispatcher.Cluster rather than dialing a remote edge over a socket,
// since wire transport is out of scope; this mirrors how the teacher's
// cmd/bench issues synthetic requests directly against its local shard
// map instead of a network client.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dcache/edgecache/dispatcher"
	"github.com/dcache/edgecache/edgeconfig"
	"github.com/dcache/edgecache/internal/kv"
	"github.com/dcache/edgecache/origin/memstore"
	"github.com/dcache/edgecache/telemetry"
	"github.com/dcache/edgecache/telemetry/metrics"
)

func main() {
	var (
		edgeCnt    = flag.Int("edgecnt", 4, "number of simulated edges")
		cacheName  = flag.String("cache_name", "covered", "eviction policy")
		capacityMB = flag.Int("capacity_mb", 16, "per-edge cache capacity (MiB)")
		entryEdge  = flag.Int("edge", 0, "edge index this client issues requests against")
	)
	flag.Parse()

	logger := telemetry.NewDevLogger()
	defer logger.Sync() //nolint:errcheck

	params := edgeconfig.New(
		edgeconfig.WithCacheName(edgeconfig.CacheName(*cacheName)),
		edgeconfig.WithCapacityBytes(uint64(*capacityMB)<<20),
	)
	cluster, err := dispatcher.NewCluster(*edgeCnt, params, memstore.New(), logger, metrics.NoopSink{})
	if err != nil {
		fmt.Fprintln(os.Stderr, "client: building cluster:", err)
		os.Exit(1)
	}

	edge := cluster.Edge(*entryEdge)
	if edge == nil {
		fmt.Fprintf(os.Stderr, "client: edge %d out of range [0,%d)\n", *entryEdge, cluster.Len())
		os.Exit(1)
	}

	fmt.Printf("connected to edge %d of %d (cache=%s); commands: get <key> | put <key> <value> | del <key> | quit\n",
		*entryEdge, cluster.Len(), *cacheName)

	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		if err := dispatch(ctx, edge, scanner.Text()); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
	}
}

func dispatch(ctx context.Context, edge *dispatcher.EdgeServer, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	switch strings.ToLower(fields[0]) {
	case "quit", "exit":
		os.Exit(0)
		return nil
	case "get":
		if len(fields) != 2 {
			return fmt.Errorf("usage: get <key>")
		}
		v, hit, err := edge.Get(ctx, kv.KeyString(fields[1]))
		if err != nil {
			return err
		}
		if v.Deleted {
			fmt.Printf("(tombstone) [%s]\n", hit)
			return nil
		}
		fmt.Printf("%q [%s]\n", string(v.Bytes()), hit)
		return nil
	case "put":
		if len(fields) < 3 {
			return fmt.Errorf("usage: put <key> <value>")
		}
		val := strings.Join(fields[2:], " ")
		return edge.Put(ctx, kv.KeyString(fields[1]), kv.NewValue([]byte(val)))
	case "del":
		if len(fields) != 2 {
			return fmt.Errorf("usage: del <key>")
		}
		return edge.Del(ctx, kv.KeyString(fields[1]))
	case "n":
		// Convenience for scripted demos: "n <count>" issues sequential gets
		// over k:0..count-1 so a human can watch hit/miss flags scroll by.
		if len(fields) != 2 {
			return fmt.Errorf("usage: n <count>")
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			k := kv.KeyString(fmt.Sprintf("k:%d", i))
			_, hit, err := edge.Get(ctx, k)
			if err != nil {
				return err
			}
			fmt.Printf("k:%d -> %s\n", i, hit)
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
}
