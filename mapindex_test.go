package substrate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapIndex_PutGetDelete(t *testing.T) {
	db := setup(t)

	fork := mustFork(t, db)
	users := NewMap(fork, Addr("users"), StringKey, StringValue)

	_, ok, err := users.Get("1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, users.Put("1", "alice"))
	require.NoError(t, users.Put("2", "bob"))
	require.NoError(t, users.Delete("2"))
	require.NoError(t, users.Delete("no-such-key"))
	mergeFork(t, db, fork)

	snap := mustSnapshot(t, db)
	users = NewMap(snap, Addr("users"), StringKey, StringValue)
	v, ok, err := users.Get("1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "alice", v)
	has, err := users.Has("2")
	require.NoError(t, err)
	require.False(t, has)
}

func TestMapIndex_IterationOrder(t *testing.T) {
	db := setup(t)

	fork := mustFork(t, db)
	seq := NewMap(fork, Addr("seq"), Uint64Key, Uint64Value)
	// Inserted out of order; big-endian keys iterate numerically.
	for _, k := range []uint64{300, 5, 1 << 40, 0, 256} {
		require.NoError(t, seq.Put(k, k*2))
	}
	mergeFork(t, db, fork)

	seq = NewMap(mustSnapshot(t, db), Addr("seq"), Uint64Key, Uint64Value)
	var keys []uint64
	it := seq.Entries()
	defer it.Release()
	for it.Next() {
		keys = append(keys, it.Key())
		require.Equal(t, it.Key()*2, it.Value())
	}
	require.NoError(t, it.Err())
	require.Equal(t, []uint64{0, 5, 256, 300, 1 << 40}, keys)
}

func TestMapIndex_EntriesFrom(t *testing.T) {
	db := setup(t)

	fork := mustFork(t, db)
	users := NewMap(fork, Addr("users"), StringKey, StringValue)
	for _, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, users.Put(k, k))
	}
	mergeFork(t, db, fork)

	users = NewMap(mustSnapshot(t, db), Addr("users"), StringKey, StringValue)
	var keys []string
	it := users.EntriesFrom("b")
	defer it.Release()
	for it.Next() {
		keys = append(keys, it.Key())
	}
	require.NoError(t, it.Err())
	require.Equal(t, []string{"b", "c", "d"}, keys)
}

func TestMapIndex_AbsentIndexReadsEmpty(t *testing.T) {
	db := setup(t)
	snap := mustSnapshot(t, db)
	users := NewMap(snap, Addr("never-created"), StringKey, StringValue)

	_, ok, err := users.Get("k")
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, mapContents(t, users))
}

func TestMapIndex_NeighborIsolation(t *testing.T) {
	db := setup(t)

	// Address names that are string prefixes of each other must not share
	// key ranges.
	fork := mustFork(t, db)
	require.NoError(t, NewMap(fork, Addr("a"), StringKey, StringValue).Put("k", "short"))
	require.NoError(t, NewMap(fork, Addr("ab"), StringKey, StringValue).Put("k", "long"))
	mergeFork(t, db, fork)

	snap := mustSnapshot(t, db)
	require.Equal(t, map[string]string{"k": "short"}, mapContents(t, NewMap(snap, Addr("a"), StringKey, StringValue)))
	require.Equal(t, map[string]string{"k": "long"}, mapContents(t, NewMap(snap, Addr("ab"), StringKey, StringValue)))
}

func TestMapIndex_MsgPackValues(t *testing.T) {
	type account struct {
		Owner   string `msgpack:"o"`
		Balance uint64 `msgpack:"b"`
	}
	db := setup(t)

	fork := mustFork(t, db)
	accounts := NewMap(fork, Addr("accounts"), StringKey, MsgPackValue[account]())
	require.NoError(t, accounts.Put("alice", account{Owner: "alice", Balance: 100}))
	mergeFork(t, db, fork)

	accounts = NewMap(mustSnapshot(t, db), Addr("accounts"), StringKey, MsgPackValue[account]())
	got, ok, err := accounts.Get("alice")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, account{Owner: "alice", Balance: 100}, got)
}
