package substrate

import (
	"bytes"

	"github.com/substratedb/substrate/backend"
)

// mergedIterator overlays a fork's changelog onto a snapshot range scan:
// pending writes win over snapshot values for the same key, pending deletes
// and prefix tombstones hide snapshot keys, and the result stays in
// ascending byte order.
//
// The changelog must not be mutated while the iterator is in use.
type mergedIterator struct {
	base    backend.Iterator
	cl      *changelog
	overlay []string
	opos    int

	baseValid bool
	baseDone  bool
	key       []byte
	value     []byte
	err       error
}

func newMergedIterator(base backend.Iterator, cl *changelog, start, limit []byte) *mergedIterator {
	return &mergedIterator{
		base:    base,
		cl:      cl,
		overlay: cl.sortedKeys(start, limit),
	}
}

func (it *mergedIterator) Next() bool {
	if it.err != nil {
		return false
	}
	for {
		if !it.baseValid && !it.baseDone {
			for {
				if !it.base.Next() {
					it.baseDone = true
					if err := it.base.Err(); err != nil {
						it.err = backendErrf(err, "range scan")
						return false
					}
					break
				}
				// Keys under a cleared prefix read as deleted.
				if it.cl.isCleared(it.base.Key()) {
					continue
				}
				it.baseValid = true
				break
			}
		}

		overlayLeft := it.opos < len(it.overlay)
		useOverlay := false
		switch {
		case overlayLeft && it.baseValid:
			c := bytes.Compare([]byte(it.overlay[it.opos]), it.base.Key())
			if c <= 0 {
				if c == 0 {
					it.baseValid = false // overlay overrides the same key
				}
				useOverlay = true
			}
		case overlayLeft:
			useOverlay = true
		case !it.baseValid:
			return false
		}

		if useOverlay {
			k := it.overlay[it.opos]
			it.opos++
			op := it.cl.entries[k]
			if op.delete {
				continue
			}
			it.key, it.value = []byte(k), op.value
			return true
		}

		it.key, it.value = it.base.Key(), it.base.Value()
		it.baseValid = false
		return true
	}
}

func (it *mergedIterator) Key() []byte   { return it.key }
func (it *mergedIterator) Value() []byte { return it.value }
func (it *mergedIterator) Err() error    { return it.err }

func (it *mergedIterator) Release() {
	it.base.Release()
	it.overlay = nil
}

// emptyIterator is the range scan of an index that does not exist yet.
type emptyIterator struct{}

func (emptyIterator) Next() bool    { return false }
func (emptyIterator) Key() []byte   { return nil }
func (emptyIterator) Value() []byte { return nil }
func (emptyIterator) Err() error    { return nil }
func (emptyIterator) Release()      {}
