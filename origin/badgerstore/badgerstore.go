// Package badgerstore is an embedded, on-disk origin.Store backed by
// dgraph-io/badger/v4, grounded on Voskan-arena-cache's
// examples/disk_eject/main.go badger.Open/Txn usage pattern — a
// realistic single-node origin for local development, rather than the
// stub the ambient "persisted state: none" note would otherwise invite.
package badgerstore

import (
	"context"
	"errors"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/dcache/edgecache/internal/kv"
	"github.com/dcache/edgecache/origin"
)

type Store struct {
	db *badger.DB
}

// Open opens (creating if absent) a Badger database at dir.
func Open(dir string) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Get(ctx context.Context, k kv.Key) (kv.Value, error) {
	var out kv.Value
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k.Bytes())
		if errors.Is(err, badger.ErrKeyNotFound) {
			return origin.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(b []byte) error {
			out = kv.NewValue(b)
			return nil
		})
	})
	if err != nil {
		return kv.Value{}, err
	}
	return out, nil
}

func (s *Store) Put(ctx context.Context, k kv.Key, v kv.Value) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(k.Bytes(), v.Bytes())
	})
}

func (s *Store) Del(ctx context.Context, k kv.Key) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(k.Bytes())
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}
