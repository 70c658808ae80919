package substrate

import "github.com/substratedb/substrate/backend"

// List intra-key layout: the length counter lives under a reserved meta
// sub-key, elements under an element sub-key followed by the fixed-width
// big-endian position, so element byte order equals numeric order and the
// counter sorts before every element.
var (
	listMetaKey    = []byte{0x00}
	listElemMarker = []byte{0x01}
)

func listElemKey(i uint64) []byte {
	return appendFixedUint64(appendRaw(make([]byte, 0, 9), listElemMarker), i)
}

// ListIndex is a dense sequence addressed by 0-based positions.
// Out-of-range access is an error, never silent growth.
type ListIndex[V any] struct {
	b  binding
	vc ValueCodec[V]
}

// NewList binds a list index at addr.
func NewList[V any](ax Access, addr Address, vc ValueCodec[V]) *ListIndex[V] {
	return &ListIndex[V]{b: makeBinding(ax, addr, IndexList), vc: vc}
}

// Addr returns the index address.
func (l *ListIndex[V]) Addr() Address {
	return l.b.addr
}

// Len returns the number of elements.
func (l *ListIndex[V]) Len() (uint64, error) {
	v, err := l.b.reader()
	if err != nil {
		return 0, err
	}
	return l.length(v)
}

func (l *ListIndex[V]) length(v view) (uint64, error) {
	raw, ok, err := v.get(listMetaKey)
	if err != nil || !ok {
		return 0, err
	}
	d := makeByteDecoder(raw)
	n, err := d.Uvarint()
	if err != nil {
		return 0, indexErrf(l.b.addr, err, "corrupt length counter")
	}
	return n, nil
}

func (l *ListIndex[V]) setLength(v view, n uint64) {
	v.put(listMetaKey, appendUvarint(nil, n))
}

// Get returns the element at position i, or ErrOutOfRange.
func (l *ListIndex[V]) Get(i uint64) (V, error) {
	var zero V
	v, err := l.b.reader()
	if err != nil {
		return zero, err
	}
	n, err := l.length(v)
	if err != nil {
		return zero, err
	}
	if i >= n {
		return zero, indexErrf(l.b.addr, ErrOutOfRange, "get %d of %d", i, n)
	}
	raw, ok, err := v.get(listElemKey(i))
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, indexErrf(l.b.addr, nil, "missing element %d of %d", i, n)
	}
	value, err := l.vc.DecodeValue(raw)
	if err != nil {
		return zero, indexErrf(l.b.addr, err, "decoding element %d", i)
	}
	return value, nil
}

// Set replaces the element at position i, or returns ErrOutOfRange.
func (l *ListIndex[V]) Set(i uint64, value V) error {
	v, err := l.b.writer()
	if err != nil {
		return err
	}
	n, err := l.length(v)
	if err != nil {
		return err
	}
	if i >= n {
		return indexErrf(l.b.addr, ErrOutOfRange, "set %d of %d", i, n)
	}
	return l.putElem(v, i, value)
}

func (l *ListIndex[V]) putElem(v view, i uint64, value V) error {
	raw, err := l.vc.AppendValue(nil, value)
	if err != nil {
		return indexErrf(l.b.addr, err, "encoding element")
	}
	v.put(listElemKey(i), raw)
	return nil
}

// Push appends value to the end of the list.
func (l *ListIndex[V]) Push(value V) error {
	v, err := l.b.writer()
	if err != nil {
		return err
	}
	n, err := l.length(v)
	if err != nil {
		return err
	}
	if err := l.putElem(v, n, value); err != nil {
		return err
	}
	l.setLength(v, n+1)
	return nil
}

// Extend appends all values in order.
func (l *ListIndex[V]) Extend(values ...V) error {
	for _, value := range values {
		if err := l.Push(value); err != nil {
			return err
		}
	}
	return nil
}

// Pop removes and returns the last element. ok is false on an empty list.
func (l *ListIndex[V]) Pop() (value V, ok bool, err error) {
	var zero V
	v, err := l.b.writer()
	if err != nil {
		return zero, false, err
	}
	n, err := l.length(v)
	if err != nil {
		return zero, false, err
	}
	if n == 0 {
		return zero, false, nil
	}
	value, err = l.Get(n - 1)
	if err != nil {
		return zero, false, err
	}
	v.delete(listElemKey(n - 1))
	l.setLength(v, n-1)
	return value, true, nil
}

// Truncate shortens the list to n elements. A no-op if the list is already
// that short.
func (l *ListIndex[V]) Truncate(n uint64) error {
	v, err := l.b.writer()
	if err != nil {
		return err
	}
	cur, err := l.length(v)
	if err != nil {
		return err
	}
	if n >= cur {
		return nil
	}
	for i := n; i < cur; i++ {
		v.delete(listElemKey(i))
	}
	l.setLength(v, n)
	return nil
}

// Clear removes all elements and the length counter.
func (l *ListIndex[V]) Clear() error {
	v, err := l.b.writer()
	if err != nil {
		return err
	}
	v.clear()
	return nil
}

// Values iterates elements in position order.
func (l *ListIndex[V]) Values() *ListIter[V] {
	v, err := l.b.reader()
	if err != nil {
		return &ListIter[V]{err: err}
	}
	if !v.resolved() {
		return &ListIter[V]{it: emptyIterator{}}
	}
	return &ListIter[V]{l: l, it: v.rng(listElemMarker)}
}

// ListIter iterates list elements in order. Use Next to advance, Value for
// the current element, Err after the loop, and Release when done.
type ListIter[V any] struct {
	l     *ListIndex[V]
	it    backend.Iterator
	pos   uint64
	value V
	err   error
}

func (it *ListIter[V]) Next() bool {
	if it.err != nil || it.it == nil {
		return false
	}
	if !it.it.Next() {
		it.err = it.it.Err()
		return false
	}
	var err error
	it.value, err = it.l.vc.DecodeValue(it.it.Value())
	if err != nil {
		it.err = indexErrf(it.l.b.addr, err, "decoding element %d", it.pos)
		return false
	}
	it.pos++
	return true
}

// Pos returns the position of the current element (0-based).
func (it *ListIter[V]) Pos() uint64 { return it.pos - 1 }

func (it *ListIter[V]) Value() V { return it.value }

func (it *ListIter[V]) Err() error { return it.err }

func (it *ListIter[V]) Release() {
	if it.it != nil {
		it.it.Release()
	}
}
