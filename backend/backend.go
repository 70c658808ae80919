// Package backend defines the contract between the substrate view layer and
// the ordered key-value engines it runs on.
//
// A backend stores a single flat keyspace of byte-string keys sorted in
// natural byte order. It must provide point reads, ordered range reads,
// immutable point-in-time snapshots, and atomic application of write
// batches. No partial-batch visibility may ever be exposed: a concurrent
// snapshot sees either none or all of a batch's operations.
package backend

import "errors"

// ErrClosed is returned by operations on a closed backend.
var ErrClosed = errors.New("backend closed")

// Op is a single write operation within a batch.
type Op struct {
	Key    []byte
	Value  []byte
	Delete bool
}

// Backend is an ordered key-value engine.
//
// Snapshot and Write may be called concurrently from multiple goroutines.
// Write applies the entire batch atomically; implementations must not let a
// concurrently taken snapshot observe a partially applied batch.
type Backend interface {
	Snapshot() (Snapshot, error)
	Write(batch []Op) error
	Close() error
}

// Snapshot is an immutable point-in-time read view of the keyspace.
// It must be released when no longer needed.
type Snapshot interface {
	// Get returns the value stored at key. ok is false if the key is absent.
	Get(key []byte) (value []byte, ok bool, err error)

	// Range returns an iterator over keys k with start <= k < limit, in
	// ascending byte order. A nil limit means no upper bound; a nil start
	// means the beginning of the keyspace.
	Range(start, limit []byte) Iterator

	Release()
}

// Iterator walks a key range in ascending byte order.
//
// Next advances to the next pair and reports whether one exists; it must be
// called before the first Key/Value. Key and Value stay valid until the next
// call to Next or Release. Err reports any failure encountered so far.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Err() error
	Release()
}
