package db_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/nfcstore/internal/storage/db"
)

func TestPoolCollector(t *testing.T) {
	// The pool connects lazily, so no server is needed to read its stats.
	pool, err := pgxpool.New(context.Background(), "postgres://store@127.0.0.1:1/store?pool_max_conns=7")
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	c := db.NewPoolCollector(pool)
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))

	assert.Equal(t, 6, testutil.CollectAndCount(c))

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == "nfcstore_db_pool_max_conns" {
			assert.InDelta(t, 7, mf.GetMetric()[0].GetGauge().GetValue(), 0)
			return
		}
	}
	t.Fatal("max conns metric not gathered")
}
