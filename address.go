package substrate

import (
	"fmt"
	"slices"
	"strings"
)

// Physical keyspace layout. Internal metadata and user data share the flat
// keyspace so that both ride in the same atomic batches.
//
//	0x00 0x00                      prefix id allocation counter (uvarint)
//	0x00 0x01 <encoded address>    index registry entry (msgpack indexInfo)
//	0x00 0x02 <job name>           migration job state (msgpack migrationState)
//	0x01 <8-byte BE prefix id> ... index data
const (
	kindMeta byte = 0x00
	kindData byte = 0x01

	metaCounter   byte = 0x00
	metaRegistry  byte = 0x01
	metaMigration byte = 0x02
)

var (
	counterKey      = []byte{kindMeta, metaCounter}
	registryPrefix  = []byte{kindMeta, metaRegistry}
	migrationPrefix = []byte{kindMeta, metaMigration}
)

// Address identifies an index by its group path plus index name, e.g.
// Addr("wallets") or Addr("tokens", "histories", "alice"). Groups are purely
// a naming concept: an address is resolved to a flat physical prefix at
// access time, and nothing about a group exists at runtime.
//
// Segments must be non-empty and must not contain '.' (the segment
// separator in the dotted string form). A leading '^' marks a migration
// scratch namespace and is reserved for the migration engine.
type Address struct {
	segments []string
}

// Addr builds an address from path segments. It panics on malformed
// segments; addresses are expected to be program constants.
func Addr(segments ...string) Address {
	if len(segments) == 0 {
		panic("substrate: empty address")
	}
	for _, s := range segments {
		validateSegment(s, false)
	}
	return Address{segments: slices.Clone(segments)}
}

// ParseAddr parses the dotted string form produced by Address.String.
func ParseAddr(s string) (Address, error) {
	if s == "" {
		return Address{}, fmt.Errorf("substrate: empty address")
	}
	segments := strings.Split(s, ".")
	for i, seg := range segments {
		if seg == "" {
			return Address{}, fmt.Errorf("substrate: empty segment in address %q", s)
		}
		if strings.HasPrefix(seg, "^") && i > 0 {
			return Address{}, fmt.Errorf("substrate: misplaced scratch marker in address %q", s)
		}
	}
	return Address{segments: segments}, nil
}

func validateSegment(s string, allowScratch bool) {
	if s == "" {
		panic("substrate: empty address segment")
	}
	if strings.ContainsRune(s, '.') {
		panic(fmt.Sprintf("substrate: address segment %q contains a dot", s))
	}
	if !allowScratch && strings.HasPrefix(s, "^") {
		panic(fmt.Sprintf("substrate: address segment %q uses reserved scratch marker", s))
	}
}

// Child returns the address extended with one more segment.
func (a Address) Child(segment string) Address {
	validateSegment(segment, false)
	segments := make([]string, 0, len(a.segments)+1)
	segments = append(segments, a.segments...)
	segments = append(segments, segment)
	return Address{segments: segments}
}

// IsZero reports whether a is the zero Address.
func (a Address) IsZero() bool {
	return len(a.segments) == 0
}

// IsScratch reports whether the address lives in a migration scratch
// namespace.
func (a Address) IsScratch() bool {
	return len(a.segments) > 0 && strings.HasPrefix(a.segments[0], "^")
}

// scratchIn returns the scratch counterpart of a under the migration job
// named job: the same path prefixed with a reserved "^job" segment.
func (a Address) scratchIn(job string) Address {
	segments := make([]string, 0, len(a.segments)+1)
	segments = append(segments, "^"+job)
	segments = append(segments, a.segments...)
	return Address{segments: segments}
}

func (a Address) String() string {
	return strings.Join(a.segments, ".")
}

// encode appends the self-delimiting binary form: a segment count followed
// by length-prefixed segments. Length prefixes guarantee that no encoded
// address is a strict prefix of another, so registry range scans and
// structural comparison agree.
func (a Address) encode(buf []byte) []byte {
	buf = appendUvarint(buf, uint64(len(a.segments)))
	for _, s := range a.segments {
		buf = appendVarbytes(buf, []byte(s))
	}
	return buf
}

func decodeAddress(data []byte) (Address, error) {
	d := makeByteDecoder(data)
	n, err := d.Uvarinti()
	if err != nil {
		return Address{}, err
	}
	segments := make([]string, n)
	for i := range segments {
		raw, err := d.VarBytes()
		if err != nil {
			return Address{}, err
		}
		segments[i] = string(raw)
	}
	if d.Remaining() != 0 {
		return Address{}, dataErrf(data, d.Off(), nil, "trailing bytes after address")
	}
	return Address{segments: segments}, nil
}

// registryKey returns the physical key of the registry entry for a.
func (a Address) registryKey() []byte {
	return a.encode(appendRaw(nil, registryPrefix))
}

// IndexType distinguishes the collection kinds an address can be bound to.
// The type is recorded in the registry on first write and checked on every
// subsequent binding, so rebinding an address as a different collection
// kind is caught instead of corrupting data.
type IndexType int

const (
	IndexUnknown IndexType = iota
	IndexEntry
	IndexMap
	IndexList
	IndexSet
)

func (t IndexType) String() string {
	switch t {
	case IndexEntry:
		return "entry"
	case IndexMap:
		return "map"
	case IndexList:
		return "list"
	case IndexSet:
		return "set"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// indexInfo is the persisted registry entry for one address.
type indexInfo struct {
	ID   uint64    `msgpack:"id"`
	Type IndexType `msgpack:"t"`
}

// dataPrefix returns the physical prefix of the index with the given id:
// the data kind byte followed by the fixed-width big-endian id, so distinct
// ids can never prefix one another.
func dataPrefix(id uint64) []byte {
	buf := make([]byte, 0, 9)
	buf = append(buf, kindData)
	buf = appendFixedUint64(buf, id)
	return buf
}

// migrationStateKey returns the physical key of the migration job state.
func migrationStateKey(name string) []byte {
	return appendVarbytes(appendRaw(nil, migrationPrefix), []byte(name))
}
