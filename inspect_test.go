package substrate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIndexes(t *testing.T) {
	db := setup(t)

	descrs, err := db.Indexes()
	require.NoError(t, err)
	require.Empty(t, descrs)

	fork := mustFork(t, db)
	require.NoError(t, NewMap(fork, Addr("users"), StringKey, StringValue).Put("1", "a"))
	require.NoError(t, NewList(fork, Addr("log"), StringValue).Push("x"))
	require.NoError(t, NewSet(fork, Addr("tags"), StringKey).Insert("t"))
	require.NoError(t, NewEntry[string](fork, Addr("config"), StringValue).Set("v"))
	mergeFork(t, db, fork)

	descrs, err = db.Indexes()
	require.NoError(t, err)
	require.Len(t, descrs, 4)

	types := make(map[string]IndexType)
	for _, d := range descrs {
		require.NotZero(t, d.ID)
		types[d.Addr.String()] = d.Type
	}
	require.Equal(t, map[string]IndexType{
		"users":  IndexMap,
		"log":    IndexList,
		"tags":   IndexSet,
		"config": IndexEntry,
	}, types)
}

func TestRawEntries(t *testing.T) {
	db := setup(t)

	fork := mustFork(t, db)
	require.NoError(t, NewMap(fork, Addr("users"), StringKey, StringValue).Put("1", "alice"))
	mergeFork(t, db, fork)

	snap := mustSnapshot(t, db)
	entries, err := snap.RawEntries(Addr("users"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "1", string(entries[0].Key))
	require.Equal(t, "alice", string(entries[0].Value))

	entries, err = snap.RawEntries(Addr("ghost"))
	require.NoError(t, err)
	require.Empty(t, entries)
}
