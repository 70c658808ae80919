// Package leveldb adapts goleveldb, an embedded LSM-tree engine, to the
// substrate backend contract. This is the intended production backend:
// snapshots are native LSM snapshots and write batches map directly onto
// leveldb batches.
package leveldb

import (
	"fmt"

	ldb "github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/substratedb/substrate/backend"
)

// Options tune the underlying engine.
type Options struct {
	// NoSync disables fsync on batch writes. Only suitable for tests and
	// data that can be rebuilt; a crash may lose recent merges (but never
	// tears a batch).
	NoSync bool

	// OpenFilesCacheCapacity caps the number of open SST files.
	// Zero means the goleveldb default.
	OpenFilesCacheCapacity int
}

// Store is a goleveldb-backed ordered key-value store.
type Store struct {
	db   *ldb.DB
	sync bool
}

var _ backend.Backend = (*Store)(nil)

// Open opens or creates a database at path.
func Open(path string, o Options) (*Store, error) {
	lo := &opt.Options{
		OpenFilesCacheCapacity: o.OpenFilesCacheCapacity,
	}
	db, err := ldb.OpenFile(path, lo)
	if err != nil {
		return nil, fmt.Errorf("leveldb: open %s: %w", path, err)
	}
	return &Store{db: db, sync: !o.NoSync}, nil
}

func (s *Store) Snapshot() (backend.Snapshot, error) {
	snap, err := s.db.GetSnapshot()
	if err != nil {
		return nil, fmt.Errorf("leveldb: snapshot: %w", err)
	}
	return &snapshot{snap: snap}, nil
}

func (s *Store) Write(batch []backend.Op) error {
	b := new(ldb.Batch)
	for _, op := range batch {
		if op.Delete {
			b.Delete(op.Key)
		} else {
			b.Put(op.Key, op.Value)
		}
	}
	err := s.db.Write(b, &opt.WriteOptions{Sync: s.sync})
	if err != nil {
		return fmt.Errorf("leveldb: write batch: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	err := s.db.Close()
	if err != nil {
		return fmt.Errorf("leveldb: close: %w", err)
	}
	return nil
}

type snapshot struct {
	snap *ldb.Snapshot
}

func (s *snapshot) Get(key []byte) ([]byte, bool, error) {
	v, err := s.snap.Get(key, nil)
	if err == ldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("leveldb: get: %w", err)
	}
	return v, true, nil
}

func (s *snapshot) Range(start, limit []byte) backend.Iterator {
	it := s.snap.NewIterator(&util.Range{Start: start, Limit: limit}, nil)
	return &iterator{it: it}
}

func (s *snapshot) Release() {
	s.snap.Release()
}

type iterator struct {
	it ldbIterator
}

// ldbIterator is the subset of goleveldb's iterator we rely on.
type ldbIterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Error() error
	Release()
}

func (it *iterator) Next() bool     { return it.it.Next() }
func (it *iterator) Key() []byte    { return it.it.Key() }
func (it *iterator) Value() []byte  { return it.it.Value() }
func (it *iterator) Release()       { it.it.Release() }

func (it *iterator) Err() error {
	err := it.it.Error()
	if err != nil {
		return fmt.Errorf("leveldb: iterate: %w", err)
	}
	return nil
}
