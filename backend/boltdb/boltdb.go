// Package boltdb adapts bbolt to the substrate backend contract.
//
// All data lives in a single root bucket. A snapshot is a long-lived
// read-only transaction; bbolt keeps the pages it references alive until the
// transaction is rolled back, which gives exactly the point-in-time
// isolation the contract asks for. A write batch is one update transaction.
//
// Note that bbolt blocks database file growth while read transactions are
// open, so leaked snapshots are more costly here than on the LSM backend.
package boltdb

import (
	"bytes"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/substratedb/substrate/backend"
)

var rootBucket = []byte("substrate")

// Options tune the underlying engine.
type Options struct {
	// NoSync disables fsync on commit. Only suitable for tests.
	NoSync bool

	// InitialMmapSize presizes the memory map. Zero means the bbolt default.
	InitialMmapSize int
}

// Store is a bbolt-backed ordered key-value store.
type Store struct {
	db *bbolt.DB
}

var _ backend.Backend = (*Store)(nil)

// Open opens or creates a database file at path.
func Open(path string, o Options) (*Store, error) {
	bo := *bbolt.DefaultOptions
	bo.Timeout = 10 * time.Second
	bo.FreelistType = bbolt.FreelistMapType
	bo.NoSync = o.NoSync
	if o.InitialMmapSize != 0 {
		bo.InitialMmapSize = o.InitialMmapSize
	}
	db, err := bbolt.Open(path, 0o666, &bo)
	if err != nil {
		return nil, fmt.Errorf("boltdb: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(rootBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("boltdb: init %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Snapshot() (backend.Snapshot, error) {
	tx, err := s.db.Begin(false)
	if err != nil {
		return nil, fmt.Errorf("boltdb: snapshot: %w", err)
	}
	return &snapshot{tx: tx, b: tx.Bucket(rootBucket)}, nil
}

func (s *Store) Write(batch []backend.Op) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(rootBucket)
		for _, op := range batch {
			var err error
			if op.Delete {
				err = b.Delete(op.Key)
			} else {
				err = b.Put(op.Key, op.Value)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("boltdb: write batch: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	err := s.db.Close()
	if err != nil {
		return fmt.Errorf("boltdb: close: %w", err)
	}
	return nil
}

type snapshot struct {
	tx *bbolt.Tx
	b  *bbolt.Bucket
}

func (s *snapshot) Get(key []byte) ([]byte, bool, error) {
	v := s.b.Get(key)
	if v == nil {
		return nil, false, nil
	}
	// Copy: bbolt memory is only valid while the transaction is open.
	return bytes.Clone(v), true, nil
}

func (s *snapshot) Range(start, limit []byte) backend.Iterator {
	return &iterator{c: s.b.Cursor(), start: start, limit: limit}
}

func (s *snapshot) Release() {
	// Rollback of a read-only tx never fails.
	_ = s.tx.Rollback()
}

type iterator struct {
	c       *bbolt.Cursor
	start   []byte
	limit   []byte
	started bool
	key     []byte
	value   []byte
}

func (it *iterator) Next() bool {
	var k, v []byte
	if !it.started {
		it.started = true
		if it.start == nil {
			k, v = it.c.First()
		} else {
			k, v = it.c.Seek(it.start)
		}
	} else {
		k, v = it.c.Next()
	}
	if k == nil || (it.limit != nil && bytes.Compare(k, it.limit) >= 0) {
		it.key, it.value = nil, nil
		return false
	}
	it.key, it.value = bytes.Clone(k), bytes.Clone(v)
	return true
}

func (it *iterator) Key() []byte   { return it.key }
func (it *iterator) Value() []byte { return it.value }
func (it *iterator) Err() error    { return nil }
func (it *iterator) Release()      {}
