// Package backendtest exercises the backend contract against an arbitrary
// implementation. Each adapter package runs this suite over its own stores.
package backendtest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/substratedb/substrate/backend"
)

// Run exercises the full backend contract. factory must return a fresh,
// empty store; the suite closes it when done.
func Run(t *testing.T, factory func(t *testing.T) backend.Backend) {
	t.Run("GetPutDelete", func(t *testing.T) { testGetPutDelete(t, factory(t)) })
	t.Run("BatchAtomicity", func(t *testing.T) { testBatch(t, factory(t)) })
	t.Run("SnapshotIsolation", func(t *testing.T) { testSnapshotIsolation(t, factory(t)) })
	t.Run("Range", func(t *testing.T) { testRange(t, factory(t)) })
	t.Run("Closed", func(t *testing.T) { testClosed(t, factory(t)) })
}

func write(t *testing.T, b backend.Backend, ops ...backend.Op) {
	t.Helper()
	require.NoError(t, b.Write(ops))
}

func put(key, value string) backend.Op {
	return backend.Op{Key: []byte(key), Value: []byte(value)}
}

func del(key string) backend.Op {
	return backend.Op{Key: []byte(key), Delete: true}
}

func get(t *testing.T, s backend.Snapshot, key string) (string, bool) {
	t.Helper()
	v, ok, err := s.Get([]byte(key))
	require.NoError(t, err)
	return string(v), ok
}

func testGetPutDelete(t *testing.T, b backend.Backend) {
	defer b.Close()

	write(t, b, put("a", "1"))
	write(t, b, put("a", "2"), put("b", "3"))

	snap, err := b.Snapshot()
	require.NoError(t, err)
	v, ok := get(t, snap, "a")
	require.True(t, ok)
	require.Equal(t, "2", v)
	_, ok = get(t, snap, "missing")
	require.False(t, ok)
	snap.Release()

	write(t, b, del("a"), del("never-existed"))
	snap, err = b.Snapshot()
	require.NoError(t, err)
	defer snap.Release()
	_, ok = get(t, snap, "a")
	require.False(t, ok)
	v, ok = get(t, snap, "b")
	require.True(t, ok)
	require.Equal(t, "3", v)
}

func testBatch(t *testing.T, b backend.Backend) {
	defer b.Close()

	write(t, b, put("a", "1"))
	// Deletes and puts of the same batch apply in order.
	write(t, b, del("a"), put("a", "2"), put("c", "3"), del("c"))

	snap, err := b.Snapshot()
	require.NoError(t, err)
	defer snap.Release()
	v, ok := get(t, snap, "a")
	require.True(t, ok)
	require.Equal(t, "2", v)
	_, ok = get(t, snap, "c")
	require.False(t, ok)
}

func testSnapshotIsolation(t *testing.T, b backend.Backend) {
	defer b.Close()

	write(t, b, put("k", "old"))
	snap, err := b.Snapshot()
	require.NoError(t, err)
	defer snap.Release()

	write(t, b, put("k", "new"), put("extra", "x"))

	v, ok := get(t, snap, "k")
	require.True(t, ok)
	require.Equal(t, "old", v)
	_, ok = get(t, snap, "extra")
	require.False(t, ok)

	snap2, err := b.Snapshot()
	require.NoError(t, err)
	defer snap2.Release()
	v, ok = get(t, snap2, "k")
	require.True(t, ok)
	require.Equal(t, "new", v)
}

func testRange(t *testing.T, b backend.Backend) {
	defer b.Close()

	var ops []backend.Op
	for i := 0; i < 10; i++ {
		ops = append(ops, put(fmt.Sprintf("k%d", i), fmt.Sprintf("v%d", i)))
	}
	write(t, b, ops...)

	snap, err := b.Snapshot()
	require.NoError(t, err)
	defer snap.Release()

	collect := func(start, limit []byte) []string {
		var keys []string
		it := snap.Range(start, limit)
		defer it.Release()
		for it.Next() {
			keys = append(keys, string(it.Key()))
			require.Equal(t, "v"+string(it.Key()[1:]), string(it.Value()))
		}
		require.NoError(t, it.Err())
		return keys
	}

	require.Len(t, collect(nil, nil), 10)
	require.Equal(t, []string{"k3", "k4", "k5"}, collect([]byte("k3"), []byte("k6")))
	require.Equal(t, []string{"k8", "k9"}, collect([]byte("k8"), nil))
	require.Empty(t, collect([]byte("k6"), []byte("k6")))
	require.Empty(t, collect([]byte("z"), nil))
}

func testClosed(t *testing.T, b backend.Backend) {
	write(t, b, put("a", "1"))
	require.NoError(t, b.Close())

	_, err := b.Snapshot()
	require.Error(t, err)
	require.Error(t, b.Write([]backend.Op{put("b", "2")}))
}
