package substrate

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/substratedb/substrate/backend/memdb"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	db, err := Open(memdb.New(), Options{Metrics: reg})
	require.NoError(t, err)
	defer db.Close()

	fork := mustFork(t, db)
	users := NewMap(fork, Addr("users"), StringKey, StringValue)
	require.NoError(t, users.Put("1", "alice"))
	require.NoError(t, users.Put("2", "bob"))
	mergeFork(t, db, fork)

	require.EqualValues(t, 1, testutil.ToFloat64(db.metrics.mergesTotal))
	// Two data keys plus the registry entry and the id counter.
	require.EqualValues(t, 4, testutil.ToFloat64(db.metrics.mergeOps))
	require.EqualValues(t, 1, testutil.ToFloat64(db.metrics.generation))
}

func TestMetrics_NilRegistererIsFine(t *testing.T) {
	db := setup(t)
	fork := mustFork(t, db)
	require.NoError(t, NewEntry[string](fork, Addr("k"), StringValue).Set("v"))
	mergeFork(t, db, fork)
}
