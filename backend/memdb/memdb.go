// Package memdb provides a transient in-memory backend over a B-tree.
//
// Snapshots are copy-on-write clones of the tree, so they are O(1) to take
// and never observe later writes. Intended for tests and ephemeral stores;
// nothing survives the process.
package memdb

import (
	"bytes"
	"sync"

	"github.com/google/btree"

	"github.com/substratedb/substrate/backend"
)

const degree = 32

type item struct {
	key   []byte
	value []byte
}

func less(a, b item) bool {
	return bytes.Compare(a.key, b.key) < 0
}

// Store is an in-memory ordered key-value store.
type Store struct {
	mu     sync.Mutex
	tree   *btree.BTreeG[item]
	closed bool
}

var _ backend.Backend = (*Store)(nil)

// New returns an empty in-memory store.
func New() *Store {
	return &Store{tree: btree.NewG(degree, less)}
}

func (s *Store) Snapshot() (backend.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, backend.ErrClosed
	}
	return &snapshot{tree: s.tree.Clone()}, nil
}

func (s *Store) Write(batch []backend.Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return backend.ErrClosed
	}
	for _, op := range batch {
		if op.Delete {
			s.tree.Delete(item{key: op.Key})
		} else {
			s.tree.ReplaceOrInsert(item{key: bytes.Clone(op.Key), value: bytes.Clone(op.Value)})
		}
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.tree = nil
	return nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0
	}
	return s.tree.Len()
}

type snapshot struct {
	tree *btree.BTreeG[item]
}

func (s *snapshot) Get(key []byte) ([]byte, bool, error) {
	it, ok := s.tree.Get(item{key: key})
	if !ok {
		return nil, false, nil
	}
	return it.value, true, nil
}

func (s *snapshot) Range(start, limit []byte) backend.Iterator {
	// Collect matching items eagerly. The snapshot tree is immutable, and
	// this backend trades efficiency for simplicity anyway.
	var items []item
	collect := func(it item) bool {
		if limit != nil && bytes.Compare(it.key, limit) >= 0 {
			return false
		}
		items = append(items, it)
		return true
	}
	if start == nil {
		s.tree.Ascend(collect)
	} else {
		s.tree.AscendGreaterOrEqual(item{key: start}, collect)
	}
	return &sliceIterator{items: items}
}

func (s *snapshot) Release() {}

type sliceIterator struct {
	items []item
	pos   int
}

func (it *sliceIterator) Next() bool {
	if it.pos >= len(it.items) {
		return false
	}
	it.pos++
	return it.pos <= len(it.items)
}

func (it *sliceIterator) Key() []byte {
	return it.items[it.pos-1].key
}

func (it *sliceIterator) Value() []byte {
	return it.items[it.pos-1].value
}

func (it *sliceIterator) Err() error { return nil }

func (it *sliceIterator) Release() {
	it.items = nil
}
