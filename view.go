package substrate

import (
	"github.com/vmihailenco/msgpack/v5"

	"github.com/substratedb/substrate/backend"
)

// view is a window onto one index's slice of the keyspace: it maps
// intra-index keys to physical keys under the index's resolved prefix. All
// index types funnel their reads and writes through a view; none touch the
// backend directly.
//
// A view with a nil prefix is unresolved: the index has never been created.
// Reads on an unresolved view see an empty collection; resolving with
// create (write path) assigns a fresh prefix id and records the registry
// entry in the fork's changelog, so index creation commits atomically with
// the first data written to it.
type view struct {
	ax     Access
	prefix []byte
}

func (v view) resolved() bool {
	return v.prefix != nil
}

func (v view) key(ik []byte) []byte {
	return appendRaw(appendRaw(make([]byte, 0, len(v.prefix)+len(ik)), v.prefix), ik)
}

func (v view) get(ik []byte) ([]byte, bool, error) {
	if !v.resolved() {
		return nil, false, nil
	}
	return v.ax.rawGet(v.key(ik))
}

func (v view) put(ik, value []byte) {
	v.ax.writerFork().log.put(v.key(ik), value)
}

func (v view) delete(ik []byte) {
	v.ax.writerFork().log.delete(v.key(ik))
}

func (v view) clear() {
	v.ax.writerFork().log.clearPrefix(v.prefix)
}

// rng iterates intra-index keys in byte order, starting at fromIK (nil =
// start of the index). Keys are reported with the prefix stripped.
func (v view) rng(fromIK []byte) backend.Iterator {
	if !v.resolved() {
		return emptyIterator{}
	}
	start := v.key(fromIK)
	return &stripPrefixIterator{
		base: v.ax.rawRange(start, prefixLimit(v.prefix)),
		n:    len(v.prefix),
	}
}

type stripPrefixIterator struct {
	base backend.Iterator
	n    int
}

func (it *stripPrefixIterator) Next() bool    { return it.base.Next() }
func (it *stripPrefixIterator) Key() []byte   { return it.base.Key()[it.n:] }
func (it *stripPrefixIterator) Value() []byte { return it.base.Value() }
func (it *stripPrefixIterator) Err() error    { return it.base.Err() }
func (it *stripPrefixIterator) Release()      { it.base.Release() }

// binding lazily resolves an index address against an access, caching the
// resolved view. Only positive resolutions are cached: a read that finds
// the index absent must not prevent a later write from creating it.
type binding struct {
	ax    Access
	addr  Address
	typ   IndexType
	v     view
	bound bool
}

func makeBinding(ax Access, addr Address, typ IndexType) binding {
	return binding{ax: ax, addr: addr, typ: typ}
}

// reader resolves for reading. If the index does not exist, the returned
// view is unresolved and reads as empty.
func (b *binding) reader() (view, error) {
	if b.bound {
		return b.v, nil
	}
	v, err := resolveView(b.ax, b.addr, b.typ, false)
	if err != nil {
		return view{}, err
	}
	if v.resolved() {
		b.v, b.bound = v, true
	}
	return v, nil
}

// writer resolves for writing, creating the index on first use. Panics if
// the access is a read-only snapshot.
func (b *binding) writer() (view, error) {
	if b.ax.writerFork() == nil {
		panic("substrate: write through a read-only snapshot")
	}
	if b.bound {
		return b.v, nil
	}
	v, err := resolveView(b.ax, b.addr, b.typ, true)
	if err != nil {
		return view{}, err
	}
	b.v, b.bound = v, true
	return v, nil
}

// resolveView maps an address to its physical prefix through the access's
// own view of the registry. typ == IndexUnknown accepts any stored type.
// With create set (requires a fork), an absent index is assigned a fresh
// prefix id, and the registry entry plus the advanced allocation counter
// are recorded in the fork's changelog.
func resolveView(ax Access, addr Address, typ IndexType, create bool) (view, error) {
	info, ok, err := loadIndexInfo(ax, addr)
	if err != nil {
		return view{}, err
	}
	if ok {
		if typ != IndexUnknown && info.Type != typ {
			return view{}, indexErrf(addr, nil, "index is a %s, not a %s", info.Type, typ)
		}
		return view{ax: ax, prefix: dataPrefix(info.ID)}, nil
	}
	if !create {
		return view{ax: ax}, nil
	}

	fork := ax.writerFork()
	if fork == nil {
		panic("substrate: write through a read-only snapshot")
	}
	id := fork.db.allocatePrefixID()
	raw, err := msgpack.Marshal(&indexInfo{ID: id, Type: typ})
	if err != nil {
		return view{}, indexErrf(addr, err, "encoding registry entry")
	}
	fork.log.put(addr.registryKey(), raw)
	fork.log.put(counterKey, appendUvarint(nil, id))
	return view{ax: ax, prefix: dataPrefix(id)}, nil
}

// loadIndexInfo reads the registry entry for addr through the given access,
// so resolution is as isolated as any other read: a fork sees registry
// entries it wrote itself, and a snapshot sees exactly the mapping as of
// its generation (this is what makes a migration cut-over atomic for
// readers).
func loadIndexInfo(ax Access, addr Address) (indexInfo, bool, error) {
	raw, ok, err := ax.rawGet(addr.registryKey())
	if err != nil {
		return indexInfo{}, false, err
	}
	if !ok {
		return indexInfo{}, false, nil
	}
	var info indexInfo
	if err := decodeIndexInfo(raw, &info); err != nil {
		return indexInfo{}, false, indexErrf(addr, err, "corrupt registry entry")
	}
	return info, true, nil
}

func decodeIndexInfo(raw []byte, info *indexInfo) error {
	if err := msgpack.Unmarshal(raw, info); err != nil {
		return dataErrf(raw, 0, err, "decoding registry entry")
	}
	return nil
}
