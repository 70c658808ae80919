package substrate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendUvarintRoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 127, 128, 300, 1 << 32, 1<<64 - 1} {
		d := makeByteDecoder(appendUvarint(nil, v))
		got, err := d.Uvarint()
		require.NoError(t, err)
		require.Equal(t, v, got)
		require.Zero(t, d.Remaining())
	}
}

func TestAppendVarbytesRoundTrip(t *testing.T) {
	buf := appendVarbytes(nil, []byte("hello"))
	buf = appendVarbytes(buf, nil)
	buf = appendVarbytes(buf, []byte("world"))

	d := makeByteDecoder(buf)
	a, err := d.VarBytes()
	require.NoError(t, err)
	require.Equal(t, "hello", string(a))
	b, err := d.VarBytes()
	require.NoError(t, err)
	require.Empty(t, b)
	c, err := d.VarBytes()
	require.NoError(t, err)
	require.Equal(t, "world", string(c))
	require.Zero(t, d.Remaining())
}

func TestByteDecoderErrors(t *testing.T) {
	d := makeByteDecoder([]byte{0x80}) // truncated uvarint
	_, err := d.Uvarint()
	require.Error(t, err)

	d = makeByteDecoder([]byte{0x05, 'a'})
	_, err = d.VarBytes()
	require.Error(t, err)

	d = makeByteDecoder([]byte{1, 2, 3})
	_, err = d.FixedUint64()
	require.Error(t, err)
}

func TestInc(t *testing.T) {
	tests := []struct {
		in, out []byte
		ok      bool
	}{
		{[]byte{0x01}, []byte{0x02}, true},
		{[]byte{0x01, 0xFF}, []byte{0x02, 0x00}, true},
		{[]byte{0xFF, 0xFF}, nil, false},
		{[]byte{}, nil, false},
	}
	for _, tt := range tests {
		buf := append([]byte(nil), tt.in...)
		ok := inc(buf)
		require.Equal(t, tt.ok, ok, "inc(%x)", tt.in)
		if ok {
			require.Equal(t, tt.out, buf)
		}
	}
}

func TestPrefixLimit(t *testing.T) {
	require.Equal(t, []byte{0x01, 0x03}, prefixLimit([]byte{0x01, 0x02}))
	require.Nil(t, prefixLimit([]byte{0xFF}))

	// Every key starting with the prefix sorts below the limit.
	prefix := []byte{0x01, 0xFF}
	limit := prefixLimit(prefix)
	require.Less(t, string(append(append([]byte(nil), prefix...), 0xFF, 0xFF)), string(limit))
}
