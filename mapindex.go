package substrate

import "github.com/substratedb/substrate/backend"

// MapIndex is an ordered map of keys to values. The intra-index key is the
// key's codec encoding, so iteration order is the byte order of encoded
// keys. Absence of a key is a normal state, not an error.
type MapIndex[K, V any] struct {
	b  binding
	kc KeyCodec[K]
	vc ValueCodec[V]
}

// NewMap binds a map index at addr.
func NewMap[K, V any](ax Access, addr Address, kc KeyCodec[K], vc ValueCodec[V]) *MapIndex[K, V] {
	return &MapIndex[K, V]{b: makeBinding(ax, addr, IndexMap), kc: kc, vc: vc}
}

// Addr returns the index address.
func (m *MapIndex[K, V]) Addr() Address {
	return m.b.addr
}

// Get returns the value stored under key. ok is false if the key is absent.
func (m *MapIndex[K, V]) Get(key K) (value V, ok bool, err error) {
	var zero V
	v, err := m.b.reader()
	if err != nil {
		return zero, false, err
	}
	raw, ok, err := v.get(m.kc.AppendKey(nil, key))
	if err != nil || !ok {
		return zero, false, err
	}
	value, err = m.vc.DecodeValue(raw)
	if err != nil {
		return zero, false, indexErrf(m.b.addr, err, "decoding value")
	}
	return value, true, nil
}

// Has reports whether key is present.
func (m *MapIndex[K, V]) Has(key K) (bool, error) {
	v, err := m.b.reader()
	if err != nil {
		return false, err
	}
	_, ok, err := v.get(m.kc.AppendKey(nil, key))
	return ok, err
}

// Put stores value under key, replacing any previous value.
func (m *MapIndex[K, V]) Put(key K, value V) error {
	v, err := m.b.writer()
	if err != nil {
		return err
	}
	raw, err := m.vc.AppendValue(nil, value)
	if err != nil {
		return indexErrf(m.b.addr, err, "encoding value")
	}
	v.put(m.kc.AppendKey(nil, key), raw)
	return nil
}

// Delete removes key. Deleting an absent key is a no-op.
func (m *MapIndex[K, V]) Delete(key K) error {
	v, err := m.b.writer()
	if err != nil {
		return err
	}
	v.delete(m.kc.AppendKey(nil, key))
	return nil
}

// Clear removes every pair in the map. The clear is a single changelog
// entry regardless of map size and is observably atomic to readers.
func (m *MapIndex[K, V]) Clear() error {
	v, err := m.b.writer()
	if err != nil {
		return err
	}
	v.clear()
	return nil
}

// Entries iterates pairs in encoded-key order.
func (m *MapIndex[K, V]) Entries() *MapIter[K, V] {
	return m.entriesFrom(nil)
}

// EntriesFrom iterates pairs in encoded-key order, starting at the first
// key >= from.
func (m *MapIndex[K, V]) EntriesFrom(from K) *MapIter[K, V] {
	return m.entriesFrom(m.kc.AppendKey(nil, from))
}

func (m *MapIndex[K, V]) entriesFrom(fromIK []byte) *MapIter[K, V] {
	v, err := m.b.reader()
	if err != nil {
		return &MapIter[K, V]{err: err}
	}
	return &MapIter[K, V]{m: m, it: v.rng(fromIK)}
}

// MapIter iterates the pairs of a MapIndex. Use Next to advance, Key and
// Value for the current pair, Err after the loop, and Release when done.
// The parent fork must not be mutated while iterating.
type MapIter[K, V any] struct {
	m     *MapIndex[K, V]
	it    backend.Iterator
	key   K
	value V
	err   error
}

func (it *MapIter[K, V]) Next() bool {
	if it.err != nil || it.it == nil {
		return false
	}
	if !it.it.Next() {
		it.err = it.it.Err()
		return false
	}
	var err error
	it.key, err = it.m.kc.DecodeKey(it.it.Key())
	if err != nil {
		it.err = indexErrf(it.m.b.addr, err, "decoding key")
		return false
	}
	it.value, err = it.m.vc.DecodeValue(it.it.Value())
	if err != nil {
		it.err = indexErrf(it.m.b.addr, err, "decoding value")
		return false
	}
	return true
}

func (it *MapIter[K, V]) Key() K   { return it.key }
func (it *MapIter[K, V]) Value() V { return it.value }
func (it *MapIter[K, V]) Err() error {
	return it.err
}

func (it *MapIter[K, V]) Release() {
	if it.it != nil {
		it.it.Release()
	}
}
