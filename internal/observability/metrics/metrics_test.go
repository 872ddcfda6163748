package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatastoreMetrics(t *testing.T) {
	t.Parallel()

	m, err := NewDatastoreMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.RecordOperation("set_tiers", time.Now(), nil)
	m.RecordOperation("set_tiers", time.Now(), nil)
	m.RecordScope("batch", false, time.Second)
	m.IncrementChunkFlushes()
	m.DetailScopeOpened()
	m.DetailScopeOpened()
	m.DetailScopeReleased()
	m.RecordTierCache(true)

	assert.InDelta(t, 2, testutil.ToFloat64(m.operationsTotal.WithLabelValues("set_tiers", StatusSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.scopesTotal.WithLabelValues("batch", OutcomeRolledBack)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.chunksFlushed), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.openDetailScopes), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.tierCacheTotal.WithLabelValues("hit")), 0)
}

func TestDatastoreMetricsDuplicateRegistration(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	_, err := NewDatastoreMetrics(registry)
	require.NoError(t, err)
	_, err = NewDatastoreMetrics(registry)
	assert.Error(t, err)
}

func TestThumbnailMetrics(t *testing.T) {
	t.Parallel()

	m, err := NewThumbnailMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.IncrementCacheHits()
	m.IncrementCacheMisses()
	m.IncrementCacheMisses()
	m.IncrementEvictions()
	m.SetCacheSize(7)

	assert.InDelta(t, 1, testutil.ToFloat64(m.CacheHits), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.CacheMisses), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Evictions), 0)
	assert.InDelta(t, 7, testutil.ToFloat64(m.CacheSize), 0)
}

func TestNilMetricsAreSafe(t *testing.T) {
	t.Parallel()

	var d *DatastoreMetrics
	var th *ThumbnailMetrics
	assert.NotPanics(t, func() {
		d.RecordOperation("x", time.Now(), nil)
		d.RecordScope("list", true, 0)
		d.DetailScopeOpened()
		th.IncrementCacheHits()
		th.SetCacheSize(1)
	})
}
