package leveldb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/substratedb/substrate/backend"
	"github.com/substratedb/substrate/backend/backendtest"
)

func TestContract(t *testing.T) {
	backendtest.Run(t, func(t *testing.T) backend.Backend {
		s, err := Open(t.TempDir(), Options{NoSync: true})
		require.NoError(t, err)
		return s
	})
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir, Options{})
	require.NoError(t, err)
	require.NoError(t, s.Write([]backend.Op{{Key: []byte("k"), Value: []byte("v")}}))
	require.NoError(t, s.Close())

	s, err = Open(dir, Options{})
	require.NoError(t, err)
	defer s.Close()
	snap, err := s.Snapshot()
	require.NoError(t, err)
	defer snap.Release()
	v, ok, err := snap.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", string(v))
}
