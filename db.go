package substrate

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/substratedb/substrate/backend"
)

// DB is the process-wide owner of a backend: it produces snapshots and
// forks, and applies patches one at a time as atomic batches.
type DB struct {
	b       backend.Backend
	logger  *zap.Logger
	metrics *metrics

	// mergeMu serializes Merge. This is the only blocking point in the
	// foreground path; snapshots and forks never take it.
	mergeMu sync.Mutex

	gen    atomic.Uint64
	nextID atomic.Uint64
	closed atomic.Bool
}

// Options configure a DB. The zero value is usable.
type Options struct {
	// Logger receives structured logs. Defaults to a no-op logger.
	Logger *zap.Logger

	// Metrics, if set, receives the DB's prometheus collectors.
	Metrics prometheus.Registerer
}

// Open wraps a backend in a DB, recovering the prefix-id high-water mark
// from the stored registry.
func Open(b backend.Backend, opt Options) (*DB, error) {
	logger := opt.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	db := &DB{
		b:       b,
		logger:  logger.Named("substrate"),
		metrics: newMetrics(opt.Metrics),
	}
	if err := db.loadNextID(); err != nil {
		return nil, err
	}
	return db, nil
}

// loadNextID restores the prefix-id allocator. The persisted counter is
// written in the same patch as each registry entry, but interleaved merges
// from independent forks can leave it below the highest persisted id, so
// the registry scan restores the true high-water mark.
func (db *DB) loadNextID() error {
	snap, err := db.Snapshot()
	if err != nil {
		return err
	}
	defer snap.Release()

	var next uint64
	raw, ok, err := snap.rawGet(counterKey)
	if err != nil {
		return err
	}
	if ok {
		d := makeByteDecoder(raw)
		next, err = d.Uvarint()
		if err != nil {
			return indexErrf(Address{}, err, "corrupt id counter")
		}
	}

	it := snap.rawRange(registryPrefix, prefixLimit(registryPrefix))
	defer it.Release()
	count := 0
	for it.Next() {
		var info indexInfo
		if err := decodeIndexInfo(it.Value(), &info); err != nil {
			return err
		}
		if info.ID > next {
			next = info.ID
		}
		count++
	}
	if err := it.Err(); err != nil {
		return backendErrf(err, "registry scan")
	}

	db.nextID.Store(next)
	db.logger.Debug("opened", zap.Uint64("next_prefix_id", next), zap.Int("indexes", count))
	return nil
}

// Snapshot returns an immutable read view reflecting all patches merged so
// far. It never blocks, including against an in-flight merge.
func (db *DB) Snapshot() (*Snapshot, error) {
	bs, err := db.b.Snapshot()
	if err != nil {
		return nil, backendErrf(err, "snapshot")
	}
	return &Snapshot{db: db, bs: bs, gen: db.gen.Load()}, nil
}

// Fork returns a new transaction context: a fresh snapshot paired with an
// empty changelog.
func (db *DB) Fork() (*Fork, error) {
	snap, err := db.Snapshot()
	if err != nil {
		return nil, err
	}
	return &Fork{db: db, snap: snap, log: newChangelog()}, nil
}

// Merge applies the patch as one atomic batch and consumes it. Merges are
// serialized; on backend failure nothing is applied and the error is
// surfaced as a BackendError.
func (db *DB) Merge(p *Patch) error {
	db.mergeMu.Lock()
	defer db.mergeMu.Unlock()

	if p.consumed {
		return ErrPatchConsumed
	}
	p.consumed = true

	start := time.Now()
	if len(p.ops) > 0 {
		if err := db.b.Write(p.ops); err != nil {
			return backendErrf(err, "merge of %d ops", len(p.ops))
		}
	}
	gen := db.gen.Add(1)

	db.metrics.mergesTotal.Inc()
	db.metrics.mergeOps.Add(float64(len(p.ops)))
	db.metrics.mergeDuration.Observe(time.Since(start).Seconds())
	db.metrics.generation.Set(float64(gen))
	db.logger.Debug("merged patch",
		zap.Int("ops", len(p.ops)),
		zap.Uint64("generation", gen))
	return nil
}

// Generation returns the number of successful merges so far.
func (db *DB) Generation() uint64 {
	return db.gen.Load()
}

// Close closes the underlying backend. Outstanding snapshots and forks
// must not be used afterwards.
func (db *DB) Close() error {
	if db.closed.Swap(true) {
		return nil
	}
	if err := db.b.Close(); err != nil {
		return backendErrf(err, "close")
	}
	return nil
}

// allocatePrefixID hands out the next prefix id. Ids are never reused,
// even if the allocating fork is discarded.
func (db *DB) allocatePrefixID() uint64 {
	return db.nextID.Add(1)
}
