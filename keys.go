package substrate

// KeyCodec encodes index keys as byte strings. The encoding must be
// order-preserving: byte-lexicographic order of encodings is the order
// range scans return, and it must round-trip exactly.
type KeyCodec[K any] interface {
	AppendKey(buf []byte, key K) []byte
	DecodeKey(data []byte) (K, error)
}

// StringKey encodes strings as their raw bytes (order-preserving).
var StringKey KeyCodec[string] = stringKey{}

// BytesKey passes byte slices through unchanged.
var BytesKey KeyCodec[[]byte] = bytesKey{}

// Uint64Key encodes integers as fixed-width big-endian, so byte order
// equals numeric order.
var Uint64Key KeyCodec[uint64] = uint64Key{}

type stringKey struct{}

func (stringKey) AppendKey(buf []byte, key string) []byte {
	return append(buf, key...)
}

func (stringKey) DecodeKey(data []byte) (string, error) {
	return string(data), nil
}

type bytesKey struct{}

func (bytesKey) AppendKey(buf []byte, key []byte) []byte {
	return append(buf, key...)
}

func (bytesKey) DecodeKey(data []byte) ([]byte, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

type uint64Key struct{}

func (uint64Key) AppendKey(buf []byte, key uint64) []byte {
	return appendFixedUint64(buf, key)
}

func (uint64Key) DecodeKey(data []byte) (uint64, error) {
	d := makeByteDecoder(data)
	v, err := d.FixedUint64()
	if err != nil {
		return 0, err
	}
	if d.Remaining() != 0 {
		return 0, dataErrf(data, d.Off(), nil, "trailing bytes after uint64 key")
	}
	return v, nil
}
