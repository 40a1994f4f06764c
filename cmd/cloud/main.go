// Command cloud is a thin inspector/seeder for the origin backends in
// package origin: it lets an operator get/put/del directly against the
// store an edge fleet would otherwise reach through dispatcher.EdgeServer,
// bypassing the cache and cooperation layers entirely. Useful for seeding
// a badger origin before pointing cmd/edge at it (cmd/edge has no redis
// backend).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/go-redis/redis/v8"

	"github.com/dcache/edgecache/internal/kv"
	"github.com/dcache/edgecache/origin"
	"github.com/dcache/edgecache/origin/badgerstore"
	"github.com/dcache/edgecache/origin/redisstore"
)

func main() {
	var (
		kind      = flag.String("origin", "badger", "origin backend: badger|redis")
		badgerDir = flag.String("badger_dir", "./edgecache-origin-data", "badger data directory")
		redisAddr = flag.String("redis_addr", "127.0.0.1:6379", "redis server address")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] get|put|del <key> [value]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) < 2 {
		flag.Usage()
		os.Exit(2)
	}
	op, key := args[0], args[1]

	store, closeStore, err := openStore(*kind, *badgerDir, *redisAddr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cloud:", err)
		os.Exit(1)
	}
	defer closeStore()

	ctx := context.Background()
	switch op {
	case "get":
		v, err := store.Get(ctx, kv.KeyString(key))
		if err != nil {
			fmt.Fprintln(os.Stderr, "cloud: get:", err)
			os.Exit(1)
		}
		fmt.Println(string(v.Bytes()))
	case "put":
		if len(args) != 3 {
			flag.Usage()
			os.Exit(2)
		}
		if err := store.Put(ctx, kv.KeyString(key), kv.NewValue([]byte(args[2]))); err != nil {
			fmt.Fprintln(os.Stderr, "cloud: put:", err)
			os.Exit(1)
		}
	case "del":
		if err := store.Del(ctx, kv.KeyString(key)); err != nil {
			fmt.Fprintln(os.Stderr, "cloud: del:", err)
			os.Exit(1)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func openStore(kind, badgerDir, redisAddr string) (origin.Store, func(), error) {
	switch kind {
	case "badger":
		s, err := badgerstore.Open(badgerDir)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: redisAddr})
		return redisstore.New(client), func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown origin kind %q", kind)
	}
}
