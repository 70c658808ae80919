package substrate

// Entry is an index holding a single optional value, stored at the index's
// bare prefix. Useful for global values such as configuration.
type Entry[V any] struct {
	b  binding
	vc ValueCodec[V]
}

// NewEntry binds an entry index at addr.
func NewEntry[V any](ax Access, addr Address, vc ValueCodec[V]) *Entry[V] {
	return &Entry[V]{b: makeBinding(ax, addr, IndexEntry), vc: vc}
}

// Addr returns the index address.
func (e *Entry[V]) Addr() Address {
	return e.b.addr
}

// Get returns the stored value. ok is false if the entry is unset.
func (e *Entry[V]) Get() (value V, ok bool, err error) {
	var zero V
	v, err := e.b.reader()
	if err != nil {
		return zero, false, err
	}
	raw, ok, err := v.get(nil)
	if err != nil || !ok {
		return zero, false, err
	}
	value, err = e.vc.DecodeValue(raw)
	if err != nil {
		return zero, false, indexErrf(e.b.addr, err, "decoding entry")
	}
	return value, true, nil
}

// Exists reports whether the entry is set.
func (e *Entry[V]) Exists() (bool, error) {
	v, err := e.b.reader()
	if err != nil {
		return false, err
	}
	_, ok, err := v.get(nil)
	return ok, err
}

// Set stores the value, replacing any previous one.
func (e *Entry[V]) Set(value V) error {
	v, err := e.b.writer()
	if err != nil {
		return err
	}
	raw, err := e.vc.AppendValue(nil, value)
	if err != nil {
		return indexErrf(e.b.addr, err, "encoding entry")
	}
	v.put(nil, raw)
	return nil
}

// Remove unsets the entry. Removing an unset entry is a no-op.
func (e *Entry[V]) Remove() error {
	v, err := e.b.writer()
	if err != nil {
		return err
	}
	v.delete(nil)
	return nil
}
