package substrate

import "github.com/substratedb/substrate/backend"

// setMarker is the sentinel stored as the value of every set member.
// A non-empty marker keeps backends that conflate empty and missing values
// out of trouble.
var setMarker = []byte{1}

// SetIndex is an ordered set. The intra-index key is the member's codec
// encoding; the stored value is a sentinel marker. Iteration returns
// members in encoded byte order.
type SetIndex[K any] struct {
	b  binding
	kc KeyCodec[K]
}

// NewSet binds a set index at addr.
func NewSet[K any](ax Access, addr Address, kc KeyCodec[K]) *SetIndex[K] {
	return &SetIndex[K]{b: makeBinding(ax, addr, IndexSet), kc: kc}
}

// Addr returns the index address.
func (s *SetIndex[K]) Addr() Address {
	return s.b.addr
}

// Has reports whether member is in the set.
func (s *SetIndex[K]) Has(member K) (bool, error) {
	v, err := s.b.reader()
	if err != nil {
		return false, err
	}
	_, ok, err := v.get(s.kc.AppendKey(nil, member))
	return ok, err
}

// Insert adds member. Inserting a present member is a no-op.
func (s *SetIndex[K]) Insert(member K) error {
	v, err := s.b.writer()
	if err != nil {
		return err
	}
	v.put(s.kc.AppendKey(nil, member), setMarker)
	return nil
}

// Remove drops member. Removing an absent member is a no-op.
func (s *SetIndex[K]) Remove(member K) error {
	v, err := s.b.writer()
	if err != nil {
		return err
	}
	v.delete(s.kc.AppendKey(nil, member))
	return nil
}

// Clear removes every member.
func (s *SetIndex[K]) Clear() error {
	v, err := s.b.writer()
	if err != nil {
		return err
	}
	v.clear()
	return nil
}

// Members iterates the set in encoded-member order.
func (s *SetIndex[K]) Members() *SetIter[K] {
	v, err := s.b.reader()
	if err != nil {
		return &SetIter[K]{err: err}
	}
	return &SetIter[K]{s: s, it: v.rng(nil)}
}

// SetIter iterates set members in order.
type SetIter[K any] struct {
	s      *SetIndex[K]
	it     backend.Iterator
	member K
	err    error
}

func (it *SetIter[K]) Next() bool {
	if it.err != nil || it.it == nil {
		return false
	}
	if !it.it.Next() {
		it.err = it.it.Err()
		return false
	}
	var err error
	it.member, err = it.s.kc.DecodeKey(it.it.Key())
	if err != nil {
		it.err = indexErrf(it.s.b.addr, err, "decoding member")
		return false
	}
	return true
}

func (it *SetIter[K]) Member() K  { return it.member }
func (it *SetIter[K]) Err() error { return it.err }

func (it *SetIter[K]) Release() {
	if it.it != nil {
		it.it.Release()
	}
}
