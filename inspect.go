package substrate

// IndexDescr describes one registered index.
type IndexDescr struct {
	Addr Address
	ID   uint64
	Type IndexType
}

// Indexes lists every registered index, in encoded-address order.
func (db *DB) Indexes() ([]IndexDescr, error) {
	snap, err := db.Snapshot()
	if err != nil {
		return nil, err
	}
	defer snap.Release()

	var out []IndexDescr
	it := snap.rawRange(registryPrefix, prefixLimit(registryPrefix))
	defer it.Release()
	for it.Next() {
		addr, err := decodeAddress(it.Key()[len(registryPrefix):])
		if err != nil {
			return nil, err
		}
		var info indexInfo
		if err := decodeIndexInfo(it.Value(), &info); err != nil {
			return nil, indexErrf(addr, err, "corrupt registry entry")
		}
		out = append(out, IndexDescr{Addr: addr, ID: info.ID, Type: info.Type})
	}
	if err := it.Err(); err != nil {
		return nil, backendErrf(err, "registry scan")
	}
	return out, nil
}

// RawEntries returns the raw intra-key/value pairs stored under addr, in
// byte order. Debugging aid; loads the whole index into memory.
func (s *Snapshot) RawEntries(addr Address) ([]KV, error) {
	v, err := resolveView(s, addr, IndexUnknown, false)
	if err != nil {
		return nil, err
	}
	var out []KV
	it := v.rng(nil)
	defer it.Release()
	for it.Next() {
		out = append(out, KV{
			Key:   append([]byte(nil), it.Key()...),
			Value: append([]byte(nil), it.Value()...),
		})
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
