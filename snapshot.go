package substrate

import "github.com/substratedb/substrate/backend"

// Access is a read view of the store: either a Snapshot or a Fork. Index
// types bind to an Access; the set of implementations is closed.
type Access interface {
	rawGet(key []byte) ([]byte, bool, error)
	rawRange(start, limit []byte) backend.Iterator

	// writerFork returns the fork behind this access, or nil for a
	// read-only snapshot.
	writerFork() *Fork
}

// Snapshot is an immutable point-in-time read view of the store. It
// reflects every patch merged before it was taken and never observes later
// merges. Any number of snapshots may coexist; taking one never blocks.
//
// Release the snapshot when done with it so the backend can reclaim the
// resources pinning the old view.
type Snapshot struct {
	db  *DB
	bs  backend.Snapshot
	gen uint64
}

var _ Access = (*Snapshot)(nil)

// Generation returns the merge generation this snapshot was taken at.
func (s *Snapshot) Generation() uint64 {
	return s.gen
}

// Release frees the backend resources held by the snapshot.
func (s *Snapshot) Release() {
	s.bs.Release()
}

func (s *Snapshot) rawGet(key []byte) ([]byte, bool, error) {
	v, ok, err := s.bs.Get(key)
	if err != nil {
		return nil, false, backendErrf(err, "get %s", hexstr(key))
	}
	return v, ok, nil
}

func (s *Snapshot) rawRange(start, limit []byte) backend.Iterator {
	return s.bs.Range(start, limit)
}

func (s *Snapshot) writerFork() *Fork {
	return nil
}
