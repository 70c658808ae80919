package substrate

import "github.com/vmihailenco/msgpack/v5"

// ValueCodec encodes stored values. Encode and decode must round-trip
// exactly for every valid value; a decode failure on read is surfaced to
// the caller as a DecodeError, never skipped or defaulted.
type ValueCodec[V any] interface {
	AppendValue(buf []byte, value V) ([]byte, error)
	DecodeValue(data []byte) (V, error)
}

// RawValue passes byte slices through unchanged.
var RawValue ValueCodec[[]byte] = rawValue{}

// StringValue stores strings as their raw bytes.
var StringValue ValueCodec[string] = stringValue{}

// Uint64Value stores integers as uvarints.
var Uint64Value ValueCodec[uint64] = uint64Value{}

// MsgPackValue stores any msgpack-serializable type.
func MsgPackValue[V any]() ValueCodec[V] {
	return msgpackValue[V]{}
}

type rawValue struct{}

func (rawValue) AppendValue(buf []byte, v []byte) ([]byte, error) {
	return appendRaw(buf, v), nil
}

func (rawValue) DecodeValue(data []byte) ([]byte, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

type stringValue struct{}

func (stringValue) AppendValue(buf []byte, v string) ([]byte, error) {
	return append(buf, v...), nil
}

func (stringValue) DecodeValue(data []byte) (string, error) {
	return string(data), nil
}

type uint64Value struct{}

func (uint64Value) AppendValue(buf []byte, v uint64) ([]byte, error) {
	return appendUvarint(buf, v), nil
}

func (uint64Value) DecodeValue(data []byte) (uint64, error) {
	d := makeByteDecoder(data)
	v, err := d.Uvarint()
	if err != nil {
		return 0, err
	}
	if d.Remaining() != 0 {
		return 0, dataErrf(data, d.Off(), nil, "trailing bytes after uvarint value")
	}
	return v, nil
}

type msgpackValue[V any] struct{}

func (msgpackValue[V]) AppendValue(buf []byte, v V) ([]byte, error) {
	raw, err := msgpack.Marshal(v)
	if err != nil {
		return nil, err
	}
	return appendRaw(buf, raw), nil
}

func (msgpackValue[V]) DecodeValue(data []byte) (V, error) {
	var v V
	if err := msgpack.Unmarshal(data, &v); err != nil {
		return v, dataErrf(data, 0, err, "decoding msgpack value")
	}
	return v, nil
}
