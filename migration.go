package substrate

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

// MigrationStatus is the state of a migration job. The job moves
// Planned -> InProgress -> ReadyToCommit -> Committed; Aborted is reachable
// from any non-terminal state and is itself terminal.
type MigrationStatus int

const (
	MigrationPlanned MigrationStatus = iota + 1
	MigrationInProgress
	MigrationReadyToCommit
	MigrationCommitted
	MigrationAborted
)

func (s MigrationStatus) String() string {
	switch s {
	case MigrationPlanned:
		return "planned"
	case MigrationInProgress:
		return "in-progress"
	case MigrationReadyToCommit:
		return "ready-to-commit"
	case MigrationCommitted:
		return "committed"
	case MigrationAborted:
		return "aborted"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

func (s MigrationStatus) terminal() bool {
	return s == MigrationCommitted || s == MigrationAborted
}

// KV is one raw key-value pair of an index.
type KV struct {
	Key   []byte
	Value []byte
}

// Transform rewrites one entry of a migrated index into its new layout.
// Returning nil drops the entry.
//
// Transforms MUST be pure, idempotent functions of (address, key, value):
// after a crash the engine replays the last unconfirmed batch, and the
// cut-over relies on replayed output being byte-identical. The engine
// cannot enforce this; violating it silently corrupts the migrated data.
type Transform func(addr Address, kv KV) (*KV, error)

// migrationState is the persisted record of one job. It lives in a
// reserved metadata namespace, so it participates in the same atomic-merge
// guarantees as the data it describes: every batch advances the cursor and
// writes its data in one patch.
type migrationState struct {
	ID        string          `msgpack:"id"`
	Name      string          `msgpack:"n"`
	Targets   []string        `msgpack:"tg"`
	Status    MigrationStatus `msgpack:"s"`
	TargetPos int             `msgpack:"tp"`
	Cursor    []byte          `msgpack:"c"`
	Error     string          `msgpack:"e,omitempty"`
	CreatedAt time.Time       `msgpack:"ca"`
	UpdatedAt time.Time       `msgpack:"ua"`
}

// MigrationInfo is a read-only summary of a persisted migration job.
type MigrationInfo struct {
	ID        string
	Name      string
	Targets   []string
	Status    MigrationStatus
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MigrationOptions tune a migration job.
type MigrationOptions struct {
	// BatchSize caps the number of keys copied per patch. Smaller batches
	// bound both the merge-lock hold time and the work lost to a crash.
	// Defaults to 1000.
	BatchSize int
}

const defaultMigrationBatchSize = 1000

// Migration rewrites a set of indexes into a new layout while the
// originals stay live. Data is copied in batches into a scratch namespace,
// each batch its own atomic patch; the final cut-over relinks the target
// addresses to the scratch data in one patch, so foreground readers see
// either fully-old or fully-new data, never a mix.
//
// A Migration instance is driven by one goroutine; the job it describes
// survives process restarts through its persisted state.
type Migration struct {
	db        *DB
	name      string
	targets   []Address
	transform Transform
	batchSize int
	logger    *zap.Logger
	state     migrationState
}

// PlanMigration creates a migration job, or adopts the persisted job of the
// same name so it can be resumed after a restart. For a new job, the plan
// is persisted before any data moves: a crash before this point is a no-op
// and the job can simply be planned again.
//
// The transform is not persisted; the caller must supply the same transform
// when resuming. Target sets of a resumed job must match the plan.
func (db *DB) PlanMigration(name string, targets []Address, transform Transform, opt MigrationOptions) (*Migration, error) {
	if name == "" {
		return nil, fmt.Errorf("substrate: empty migration name")
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("substrate: migration %q has no targets", name)
	}
	for _, t := range targets {
		if t.IsScratch() {
			return nil, fmt.Errorf("substrate: migration %q targets scratch address %s", name, t)
		}
	}
	batchSize := opt.BatchSize
	if batchSize <= 0 {
		batchSize = defaultMigrationBatchSize
	}

	m := &Migration{
		db:        db,
		name:      name,
		targets:   targets,
		transform: transform,
		batchSize: batchSize,
		logger:    db.logger.Named("migration").With(zap.String("job", name)),
	}

	state, ok, err := db.loadMigrationState(name)
	if err != nil {
		return nil, err
	}
	if ok {
		want := addressStrings(targets)
		if !equalStrings(state.Targets, want) {
			return nil, fmt.Errorf("substrate: migration %q planned with targets %v, resumed with %v",
				name, state.Targets, want)
		}
		m.state = state
		m.logger.Info("resuming migration",
			zap.Stringer("status", state.Status),
			zap.Int("target_pos", state.TargetPos))
		return m, nil
	}

	now := time.Now().UTC()
	m.state = migrationState{
		ID:        uuid.NewString(),
		Name:      name,
		Targets:   addressStrings(targets),
		Status:    MigrationPlanned,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.persistState(); err != nil {
		return nil, err
	}
	m.logger.Info("planned migration", zap.Strings("targets", m.state.Targets))
	return m, nil
}

// Status returns the job's current status.
func (m *Migration) Status() MigrationStatus {
	return m.state.Status
}

// Run drives the job to a terminal state. It copies data in batches,
// checking ctx between batches: on cancellation it returns ctx.Err() and
// leaves the job resumable at the persisted cursor. A transform failure
// moves the job to Aborted (scratch data is kept for diagnosis) and Run
// returns an error wrapping ErrMigrationAborted.
func (m *Migration) Run(ctx context.Context) error {
	for {
		switch m.state.Status {
		case MigrationCommitted:
			return nil
		case MigrationAborted:
			return m.abortedErr()
		case MigrationPlanned:
			if err := m.setStatus(MigrationInProgress); err != nil {
				return err
			}
			m.logger.Info("migration started")
		case MigrationInProgress:
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := m.runBatch(); err != nil {
				return err
			}
		case MigrationReadyToCommit:
			return m.cutOver()
		default:
			return fmt.Errorf("substrate: migration %q in unknown status %d", m.name, int(m.state.Status))
		}
	}
}

// runBatch copies one bounded batch of not-yet-migrated keys of the current
// target into the scratch namespace. The copied data and the advanced
// cursor land in the same patch, so replay after a crash reprocesses
// exactly the keys whose migration was never confirmed.
func (m *Migration) runBatch() error {
	fork, err := m.db.Fork()
	if err != nil {
		return err
	}
	defer fork.Discard()

	target := m.targets[m.state.TargetPos]
	oldView, err := resolveView(fork, target, IndexUnknown, false)
	if err != nil {
		return err
	}

	copied := 0
	var lastIK []byte
	if oldView.resolved() {
		oldInfo, _, err := loadIndexInfo(fork, target)
		if err != nil {
			return err
		}
		scratchView, err := resolveView(fork, target.scratchIn(m.name), oldInfo.Type, true)
		if err != nil {
			return err
		}

		it := oldView.rng(afterCursor(m.state.Cursor))
		defer it.Release()
		for copied < m.batchSize && it.Next() {
			out, err := m.transform(target, KV{Key: it.Key(), Value: it.Value()})
			if err != nil {
				return m.abort(fmt.Sprintf("transform of %s/%s: %v", target, hexstr(it.Key()), err))
			}
			if out != nil {
				// Iterator buffers are only valid until the next step, and
				// transforms commonly pass them through unchanged.
				scratchView.put(bytes.Clone(out.Key), bytes.Clone(out.Value))
			}
			lastIK = bytes.Clone(it.Key())
			copied++
		}
		if err := it.Err(); err != nil {
			return err
		}
	}

	if copied < m.batchSize {
		// Current target exhausted.
		m.state.TargetPos++
		m.state.Cursor = nil
		if m.state.TargetPos >= len(m.targets) {
			m.state.Status = MigrationReadyToCommit
		}
	} else {
		m.state.Cursor = lastIK
	}
	if err := m.putState(fork); err != nil {
		return err
	}
	patch, err := fork.IntoPatch()
	if err != nil {
		return err
	}
	if err := m.db.Merge(patch); err != nil {
		return err
	}

	m.db.metrics.migrationBatches.Inc()
	m.db.metrics.migrationKeys.Add(float64(copied))
	m.logger.Debug("migrated batch",
		zap.Stringer("target", target),
		zap.Int("keys", copied),
		zap.Stringer("status", m.state.Status))
	return nil
}

// cutOver atomically switches the targets to their migrated data: one patch
// tombstones each old prefix, relinks the target's registry entry to the
// scratch prefix (a pointer rewrite, no data copy), removes the scratch
// registry entry, and marks the job Committed.
func (m *Migration) cutOver() error {
	fork, err := m.db.Fork()
	if err != nil {
		return err
	}
	defer fork.Discard()

	for _, target := range m.targets {
		scratchAddr := target.scratchIn(m.name)
		oldInfo, oldOK, err := loadIndexInfo(fork, target)
		if err != nil {
			return err
		}
		scratchInfo, scratchOK, err := loadIndexInfo(fork, scratchAddr)
		if err != nil {
			return err
		}

		if oldOK {
			fork.log.clearPrefix(dataPrefix(oldInfo.ID))
		}
		switch {
		case scratchOK:
			raw, err := msgpack.Marshal(&indexInfo{ID: scratchInfo.ID, Type: scratchInfo.Type})
			if err != nil {
				return indexErrf(target, err, "encoding registry entry")
			}
			fork.log.put(target.registryKey(), raw)
			fork.log.delete(scratchAddr.registryKey())
		case oldOK:
			// Nothing was migrated; the target ends up empty.
			fork.log.delete(target.registryKey())
		}
	}

	m.state.Status = MigrationCommitted
	if err := m.putState(fork); err != nil {
		return err
	}
	patch, err := fork.IntoPatch()
	if err != nil {
		return err
	}
	if err := m.db.Merge(patch); err != nil {
		return err
	}
	m.logger.Info("migration committed", zap.Strings("targets", m.state.Targets))
	return nil
}

// Abort moves the job to the terminal Aborted state. Scratch data is kept
// for diagnosis; use DB.DiscardMigration to drop it.
func (m *Migration) Abort(reason string) error {
	if m.state.Status.terminal() {
		return fmt.Errorf("substrate: migration %q already %s", m.name, m.state.Status)
	}
	m.state.Status = MigrationAborted
	m.state.Error = reason
	if err := m.persistState(); err != nil {
		return err
	}
	m.logger.Error("migration aborted", zap.String("reason", reason))
	return nil
}

// abort is the engine's internal failure path: persist Aborted, then
// return the terminal error for Run to surface.
func (m *Migration) abort(reason string) error {
	m.state.Status = MigrationAborted
	m.state.Error = reason
	if err := m.persistState(); err != nil {
		return err
	}
	m.logger.Error("migration aborted", zap.String("reason", reason))
	return m.abortedErr()
}

func (m *Migration) abortedErr() error {
	if m.state.Error != "" {
		return fmt.Errorf("migration %q: %s: %w", m.name, m.state.Error, ErrMigrationAborted)
	}
	return fmt.Errorf("migration %q: %w", m.name, ErrMigrationAborted)
}

func (m *Migration) setStatus(status MigrationStatus) error {
	m.state.Status = status
	return m.persistState()
}

func (m *Migration) putState(fork *Fork) error {
	m.state.UpdatedAt = time.Now().UTC()
	raw, err := msgpack.Marshal(&m.state)
	if err != nil {
		return fmt.Errorf("substrate: encoding migration state %q: %w", m.name, err)
	}
	fork.log.put(migrationStateKey(m.name), raw)
	return nil
}

func (m *Migration) persistState() error {
	fork, err := m.db.Fork()
	if err != nil {
		return err
	}
	defer fork.Discard()
	if err := m.putState(fork); err != nil {
		return err
	}
	patch, err := fork.IntoPatch()
	if err != nil {
		return err
	}
	return m.db.Merge(patch)
}

// afterCursor returns the smallest intra-key strictly greater than cursor,
// or nil for the start of the index.
func afterCursor(cursor []byte) []byte {
	if cursor == nil {
		return nil
	}
	return append(bytes.Clone(cursor), 0x00)
}

// CompleteMigration retries the cut-over of a job left in ReadyToCommit
// (for example after a crash). No transform is needed at this point; the
// scan is already done.
func (db *DB) CompleteMigration(name string) error {
	state, ok, err := db.loadMigrationState(name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("substrate: no migration named %q", name)
	}
	if state.Status != MigrationReadyToCommit {
		return fmt.Errorf("substrate: migration %q is %s, not %s",
			name, state.Status, MigrationReadyToCommit)
	}
	m := &Migration{
		db:     db,
		name:   name,
		logger: db.logger.Named("migration").With(zap.String("job", name)),
		state:  state,
	}
	m.targets, err = parseAddresses(state.Targets)
	if err != nil {
		return err
	}
	return m.cutOver()
}

// DiscardMigration deletes a non-committed job: its scratch data, scratch
// registry entries, and persisted state, in one patch. The original
// indexes are untouched. This is the operator path for cleaning up an
// Aborted job or cancelling an unfinished one.
func (db *DB) DiscardMigration(name string) error {
	state, ok, err := db.loadMigrationState(name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("substrate: no migration named %q", name)
	}
	if state.Status == MigrationCommitted {
		return fmt.Errorf("substrate: migration %q is already committed", name)
	}
	targets, err := parseAddresses(state.Targets)
	if err != nil {
		return err
	}

	fork, err := db.Fork()
	if err != nil {
		return err
	}
	defer fork.Discard()
	for _, target := range targets {
		scratchAddr := target.scratchIn(name)
		info, ok, err := loadIndexInfo(fork, scratchAddr)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		fork.log.clearPrefix(dataPrefix(info.ID))
		fork.log.delete(scratchAddr.registryKey())
	}
	fork.log.delete(migrationStateKey(name))
	patch, err := fork.IntoPatch()
	if err != nil {
		return err
	}
	if err := db.Merge(patch); err != nil {
		return err
	}
	db.logger.Info("discarded migration", zap.String("job", name))
	return nil
}

// Migrations lists all persisted migration jobs.
func (db *DB) Migrations() ([]MigrationInfo, error) {
	snap, err := db.Snapshot()
	if err != nil {
		return nil, err
	}
	defer snap.Release()

	var out []MigrationInfo
	it := snap.rawRange(migrationPrefix, prefixLimit(migrationPrefix))
	defer it.Release()
	for it.Next() {
		var state migrationState
		if err := msgpack.Unmarshal(it.Value(), &state); err != nil {
			return nil, dataErrf(it.Value(), 0, err, "decoding migration state")
		}
		out = append(out, state.info())
	}
	if err := it.Err(); err != nil {
		return nil, backendErrf(err, "migration scan")
	}
	return out, nil
}

// MigrationStatus returns the status of the named job. ok is false if no
// such job is persisted.
func (db *DB) MigrationStatus(name string) (info MigrationInfo, ok bool, err error) {
	state, ok, err := db.loadMigrationState(name)
	if err != nil || !ok {
		return MigrationInfo{}, false, err
	}
	return state.info(), true, nil
}

func (db *DB) loadMigrationState(name string) (migrationState, bool, error) {
	snap, err := db.Snapshot()
	if err != nil {
		return migrationState{}, false, err
	}
	defer snap.Release()

	raw, ok, err := snap.rawGet(migrationStateKey(name))
	if err != nil || !ok {
		return migrationState{}, false, err
	}
	var state migrationState
	if err := msgpack.Unmarshal(raw, &state); err != nil {
		return migrationState{}, false, dataErrf(raw, 0, err, "decoding migration state %q", name)
	}
	return state, true, nil
}

func (s *migrationState) info() MigrationInfo {
	return MigrationInfo{
		ID:        s.ID,
		Name:      s.Name,
		Targets:   s.Targets,
		Status:    s.Status,
		Error:     s.Error,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func addressStrings(addrs []Address) []string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.String()
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func parseAddresses(strs []string) ([]Address, error) {
	out := make([]Address, len(strs))
	for i, s := range strs {
		a, err := ParseAddr(s)
		if err != nil {
			return nil, err
		}
		out[i] = a
	}
	return out, nil
}
