package substrate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func setMembers[K any](t *testing.T, s *SetIndex[K]) []K {
	t.Helper()
	var out []K
	it := s.Members()
	defer it.Release()
	for it.Next() {
		out = append(out, it.Member())
	}
	require.NoError(t, it.Err())
	return out
}

func TestSetIndex_InsertHasRemove(t *testing.T) {
	db := setup(t)

	fork := mustFork(t, db)
	tags := NewSet(fork, Addr("tags"), StringKey)

	ok, err := tags.Has("x")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, tags.Insert("x"))
	require.NoError(t, tags.Insert("x")) // no-op
	require.NoError(t, tags.Insert("y"))
	require.NoError(t, tags.Remove("y"))
	require.NoError(t, tags.Remove("absent")) // no-op
	mergeFork(t, db, fork)

	tags = NewSet(mustSnapshot(t, db), Addr("tags"), StringKey)
	ok, err = tags.Has("x")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = tags.Has("y")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSetIndex_MembersOrdered(t *testing.T) {
	db := setup(t)

	fork := mustFork(t, db)
	ids := NewSet(fork, Addr("ids"), Uint64Key)
	for _, v := range []uint64{512, 3, 70000, 1} {
		require.NoError(t, ids.Insert(v))
	}
	mergeFork(t, db, fork)

	ids = NewSet(mustSnapshot(t, db), Addr("ids"), Uint64Key)
	require.Equal(t, []uint64{1, 3, 512, 70000}, setMembers(t, ids))
}

func TestSetIndex_Clear(t *testing.T) {
	db := setup(t)

	fork := mustFork(t, db)
	tags := NewSet(fork, Addr("tags"), StringKey)
	require.NoError(t, tags.Insert("a"))
	require.NoError(t, tags.Insert("b"))
	mergeFork(t, db, fork)

	fork = mustFork(t, db)
	tags = NewSet(fork, Addr("tags"), StringKey)
	require.NoError(t, tags.Clear())
	require.Empty(t, setMembers(t, tags))
	mergeFork(t, db, fork)

	tags = NewSet(mustSnapshot(t, db), Addr("tags"), StringKey)
	require.Empty(t, setMembers(t, tags))
}
