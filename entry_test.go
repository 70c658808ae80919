package substrate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEntry_SetGetRemove(t *testing.T) {
	db := setup(t)

	fork := mustFork(t, db)
	cfg := NewEntry[string](fork, Addr("config"), StringValue)

	_, ok, err := cfg.Get()
	require.NoError(t, err)
	require.False(t, ok)
	exists, err := cfg.Exists()
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, cfg.Set("v1"))
	v, ok, err := cfg.Get()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v1", v)

	require.NoError(t, cfg.Set("v2"))
	mergeFork(t, db, fork)

	snap := mustSnapshot(t, db)
	v, ok, err = NewEntry[string](snap, Addr("config"), StringValue).Get()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v2", v)

	fork = mustFork(t, db)
	cfg = NewEntry[string](fork, Addr("config"), StringValue)
	require.NoError(t, cfg.Remove())
	_, ok, err = cfg.Get()
	require.NoError(t, err)
	require.False(t, ok)
	mergeFork(t, db, fork)

	exists, err = NewEntry[string](mustSnapshot(t, db), Addr("config"), StringValue).Exists()
	require.NoError(t, err)
	require.False(t, exists)
}

func TestEntry_MsgPackStruct(t *testing.T) {
	type settings struct {
		Name  string `msgpack:"name"`
		Limit int    `msgpack:"limit"`
	}
	db := setup(t)

	fork := mustFork(t, db)
	e := NewEntry[settings](fork, Addr("settings"), MsgPackValue[settings]())
	require.NoError(t, e.Set(settings{Name: "prod", Limit: 42}))
	mergeFork(t, db, fork)

	got, ok, err := NewEntry[settings](mustSnapshot(t, db), Addr("settings"), MsgPackValue[settings]()).Get()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, settings{Name: "prod", Limit: 42}, got)
}

func TestEntry_WriteThroughSnapshotPanics(t *testing.T) {
	db := setup(t)
	snap := mustSnapshot(t, db)
	require.Panics(t, func() {
		_ = NewEntry[string](snap, Addr("config"), StringValue).Set("x")
	})
}

func TestEntry_TypeMismatch(t *testing.T) {
	db := setup(t)

	fork := mustFork(t, db)
	require.NoError(t, NewMap(fork, Addr("users"), StringKey, StringValue).Put("1", "alice"))
	mergeFork(t, db, fork)

	// Rebinding a map address as an entry is refused, not silently mixed.
	fork = mustFork(t, db)
	err := NewEntry[string](fork, Addr("users"), StringValue).Set("x")
	require.Error(t, err)
	var ie *IndexError
	require.ErrorAs(t, err, &ie)
	fork.Discard()
}
