package substrate

import (
	"sort"
	"strings"
)

// changeOp is a pending write or delete for one physical key.
type changeOp struct {
	value  []byte
	delete bool
}

// changelog is the ordered record of a fork's pending changes: a
// last-writer-wins map of per-key operations plus prefix tombstones (whole
// index clears), with a stack of checkpoints for partial rollback.
//
// A prefix tombstone masks every key under the prefix, both in the base
// snapshot and among changes recorded before the clear; changes recorded
// after the clear take effect normally. This keeps clearing an index O(1)
// in changelog entries regardless of its size; the expansion into concrete
// backend deletes happens once, at patch-building time.
type changelog struct {
	entries map[string]changeOp
	cleared []string // tombstoned prefixes, in application order
	marks   []*checkpointMark
}

// checkpointMark records how to restore the changelog to its state at
// checkpoint time: the pre-checkpoint op (or absence) of every key touched
// since, and the tombstone count to truncate back to.
type checkpointMark struct {
	undo       map[string]*changeOp // nil = key had no pending op
	clearedLen int
}

func newChangelog() *changelog {
	return &changelog{entries: make(map[string]changeOp)}
}

func (cl *changelog) empty() bool {
	return len(cl.entries) == 0 && len(cl.cleared) == 0
}

// get returns the pending operation for key, if any. A key covered by a
// prefix tombstone (and not rewritten since) reads as a pending delete.
func (cl *changelog) get(key []byte) (changeOp, bool) {
	if op, ok := cl.entries[string(key)]; ok {
		return op, true
	}
	if cl.isCleared(key) {
		return changeOp{delete: true}, true
	}
	return changeOp{}, false
}

func (cl *changelog) isCleared(key []byte) bool {
	for _, p := range cl.cleared {
		if strings.HasPrefix(string(key), p) {
			return true
		}
	}
	return false
}

func (cl *changelog) put(key, value []byte) {
	cl.recordUndo(string(key))
	cl.entries[string(key)] = changeOp{value: value}
}

func (cl *changelog) delete(key []byte) {
	cl.recordUndo(string(key))
	cl.entries[string(key)] = changeOp{delete: true}
}

// clearPrefix tombstones every key under prefix. Pending entries under the
// prefix are dropped (their prior state is preserved for rollback).
func (cl *changelog) clearPrefix(prefix []byte) {
	p := string(prefix)
	for k := range cl.entries {
		if strings.HasPrefix(k, p) {
			cl.recordUndo(k)
			delete(cl.entries, k)
		}
	}
	if !cl.isCleared(prefix) {
		cl.cleared = append(cl.cleared, p)
	}
}

func (cl *changelog) recordUndo(key string) {
	if len(cl.marks) == 0 {
		return
	}
	mark := cl.marks[len(cl.marks)-1]
	if _, done := mark.undo[key]; done {
		return
	}
	if op, ok := cl.entries[key]; ok {
		mark.undo[key] = &changeOp{value: op.value, delete: op.delete}
	} else {
		mark.undo[key] = nil
	}
}

// checkpoint pushes a new rollback point.
func (cl *changelog) checkpoint() {
	cl.marks = append(cl.marks, &checkpointMark{
		undo:       make(map[string]*changeOp),
		clearedLen: len(cl.cleared),
	})
}

// rollback discards all changes recorded since the matching checkpoint.
// Panics if no checkpoint is open; unbalanced rollback is a caller bug.
func (cl *changelog) rollback() {
	n := len(cl.marks)
	if n == 0 {
		panic("substrate: rollback without matching checkpoint")
	}
	mark := cl.marks[n-1]
	cl.marks[n-1] = nil
	cl.marks = cl.marks[:n-1]

	cl.cleared = cl.cleared[:mark.clearedLen]
	for k, op := range mark.undo {
		if op == nil {
			delete(cl.entries, k)
		} else {
			cl.entries[k] = *op
		}
	}
}

// sortedKeys returns the keys of pending per-key entries in byte order,
// optionally restricted to start <= key < limit.
func (cl *changelog) sortedKeys(start, limit []byte) []string {
	keys := make([]string, 0, len(cl.entries))
	for k := range cl.entries {
		if start != nil && k < string(start) {
			continue
		}
		if limit != nil && k >= string(limit) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
