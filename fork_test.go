package substrate

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFork_ReadYourOwnWrites(t *testing.T) {
	db := setup(t)

	fork := mustFork(t, db)
	users := NewMap(fork, Addr("users"), StringKey, StringValue)
	require.NoError(t, users.Put("1", "alice"))

	v, ok, err := users.Get("1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "alice", v)

	require.NoError(t, users.Delete("1"))
	_, ok, err = users.Get("1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFork_RangeMergesPendingWrites(t *testing.T) {
	db := setup(t)
	addr := Addr("users")

	fork := mustFork(t, db)
	users := NewMap(fork, addr, StringKey, StringValue)
	require.NoError(t, users.Put("b", "merged-b"))
	require.NoError(t, users.Put("d", "merged-d"))
	mergeFork(t, db, fork)

	fork = mustFork(t, db)
	users = NewMap(fork, addr, StringKey, StringValue)
	require.NoError(t, users.Put("a", "pending-a"))
	require.NoError(t, users.Put("b", "pending-b")) // overwrite
	require.NoError(t, users.Put("c", "pending-c"))
	require.NoError(t, users.Delete("d"))

	require.Equal(t, map[string]string{
		"a": "pending-a",
		"b": "pending-b",
		"c": "pending-c",
	}, mapContents(t, users))
	fork.Discard()
}

func TestFork_RangeAfterClear(t *testing.T) {
	db := setup(t)
	addr := Addr("users")

	fork := mustFork(t, db)
	users := NewMap(fork, addr, StringKey, StringValue)
	require.NoError(t, users.Put("a", "1"))
	require.NoError(t, users.Put("b", "2"))
	mergeFork(t, db, fork)

	fork = mustFork(t, db)
	users = NewMap(fork, addr, StringKey, StringValue)
	require.NoError(t, users.Clear())
	require.Empty(t, mapContents(t, users))

	require.NoError(t, users.Put("c", "3"))
	require.Equal(t, map[string]string{"c": "3"}, mapContents(t, users))
	mergeFork(t, db, fork)

	snap := mustSnapshot(t, db)
	require.Equal(t, map[string]string{"c": "3"}, mapContents(t, NewMap(snap, addr, StringKey, StringValue)))
}

func TestFork_ClearOnlyAffectsOneIndex(t *testing.T) {
	db := setup(t)

	fork := mustFork(t, db)
	require.NoError(t, NewMap(fork, Addr("users"), StringKey, StringValue).Put("1", "alice"))
	require.NoError(t, NewMap(fork, Addr("groups"), StringKey, StringValue).Put("1", "admins"))
	mergeFork(t, db, fork)

	fork = mustFork(t, db)
	require.NoError(t, NewMap(fork, Addr("users"), StringKey, StringValue).Clear())
	mergeFork(t, db, fork)

	snap := mustSnapshot(t, db)
	require.Empty(t, mapContents(t, NewMap(snap, Addr("users"), StringKey, StringValue)))
	require.Equal(t, map[string]string{"1": "admins"}, mapContents(t, NewMap(snap, Addr("groups"), StringKey, StringValue)))
}

func TestFork_UseAfterConsumePanics(t *testing.T) {
	db := setup(t)

	fork := mustFork(t, db)
	_, err := fork.IntoPatch()
	require.NoError(t, err)
	require.Panics(t, func() { fork.Checkpoint() })
	require.Panics(t, func() {
		NewEntry[string](fork, Addr("config"), StringValue).Get()
	})

	fork = mustFork(t, db)
	fork.Discard()
	fork.Discard() // second discard is a no-op
	require.Panics(t, func() { _, _ = fork.IntoPatch() })
}

func TestFork_PatchOrderingDeterministic(t *testing.T) {
	db := setup(t)

	fork := mustFork(t, db)
	users := NewMap(fork, Addr("users"), StringKey, StringValue)
	for i := 9; i >= 0; i-- {
		require.NoError(t, users.Put(fmt.Sprintf("%d", i), "v"))
	}
	patch, err := fork.IntoPatch()
	require.NoError(t, err)

	var prev []byte
	for _, op := range patch.ops {
		if prev != nil {
			require.Less(t, string(prev), string(op.Key))
		}
		prev = op.Key
	}
}
