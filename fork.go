package substrate

import (
	"bytes"

	"github.com/substratedb/substrate/backend"
)

// Fork is a mutable transaction context: a snapshot paired with a changelog
// of pending writes. Writes land in the changelog and are visible to
// subsequent reads through the same fork (read your own writes, including
// in range scans), and invisible everywhere else until the fork is turned
// into a patch and merged.
//
// A fork is single-writer: it must not be shared across goroutines.
// Concurrent transactions are expressed as independent forks merged in
// sequence. A fork ends its life either in IntoPatch or Discard; using it
// afterwards panics.
type Fork struct {
	db   *DB
	snap *Snapshot
	log  *changelog
	done bool
}

var _ Access = (*Fork)(nil)

// Checkpoint pushes a rollback point. Checkpoints nest with stack
// discipline: each Rollback discards everything recorded since the most
// recent open checkpoint.
func (f *Fork) Checkpoint() {
	f.ensureOpen()
	f.log.checkpoint()
}

// Rollback restores the fork's visible state to the most recent open
// checkpoint. Panics if no checkpoint is open.
func (f *Fork) Rollback() {
	f.ensureOpen()
	f.log.rollback()
}

// IntoPatch flattens the changelog into an ordered patch and consumes the
// fork. Prefix tombstones are expanded against the fork's snapshot into
// per-key deletes here, so the resulting patch is still one atomic batch.
// Open checkpoints are treated as committed.
func (f *Fork) IntoPatch() (*Patch, error) {
	f.ensureOpen()

	var ops []backend.Op
	for _, prefix := range f.log.cleared {
		p := []byte(prefix)
		it := f.snap.rawRange(p, prefixLimit(p))
		for it.Next() {
			ops = append(ops, backend.Op{Key: bytes.Clone(it.Key()), Delete: true})
		}
		err := it.Err()
		it.Release()
		if err != nil {
			return nil, backendErrf(err, "expanding clear of %s", hexstr(p))
		}
	}
	for _, k := range f.log.sortedKeys(nil, nil) {
		op := f.log.entries[k]
		ops = append(ops, backend.Op{Key: []byte(k), Value: op.value, Delete: op.delete})
	}

	f.close()
	return &Patch{ops: ops}, nil
}

// Discard drops all pending changes and consumes the fork.
func (f *Fork) Discard() {
	if f.done {
		return
	}
	f.close()
}

func (f *Fork) close() {
	f.done = true
	f.snap.Release()
	f.log = nil
}

func (f *Fork) ensureOpen() {
	if f.done {
		panic("substrate: use of consumed fork")
	}
}

func (f *Fork) rawGet(key []byte) ([]byte, bool, error) {
	f.ensureOpen()
	if op, ok := f.log.get(key); ok {
		if op.delete {
			return nil, false, nil
		}
		return op.value, true, nil
	}
	return f.snap.rawGet(key)
}

func (f *Fork) rawRange(start, limit []byte) backend.Iterator {
	f.ensureOpen()
	return newMergedIterator(f.snap.rawRange(start, limit), f.log, start, limit)
}

func (f *Fork) writerFork() *Fork {
	return f
}
