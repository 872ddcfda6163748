package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DatastoreMetrics records repository operations and session scope outcomes.
type DatastoreMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	scopesTotal       *prometheus.CounterVec
	scopeDuration     *prometheus.HistogramVec
	chunksFlushed     prometheus.Counter
	openDetailScopes  prometheus.Gauge
	tierCacheTotal    *prometheus.CounterVec

	collectors []prometheus.Collector
}

// NewDatastoreMetrics creates and registers datastore metrics.
func NewDatastoreMetrics(registry prometheus.Registerer) (*DatastoreMetrics, error) {
	m := &DatastoreMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *DatastoreMetrics) initMetrics() {
	m.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifelist_datastore_operations_total",
			Help: "Total number of repository operations",
		},
		[]string{"operation", "status"},
	)

	m.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lifelist_datastore_operation_duration_seconds",
			Help:    "Time taken by repository operations",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount15), // 1ms to ~16s
		},
		[]string{"operation"},
	)

	m.scopesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifelist_datastore_scopes_total",
			Help: "Session scopes closed, by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	m.scopeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lifelist_datastore_scope_duration_seconds",
			Help:    "Lifetime of session scopes",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount15),
		},
		[]string{"kind"},
	)

	m.chunksFlushed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lifelist_datastore_chunks_flushed_total",
		Help: "Chunks processed by chunked scopes",
	})

	m.openDetailScopes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lifelist_datastore_detail_scopes_open",
		Help: "Detail scopes currently holding a connection",
	})

	m.tierCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifelist_datastore_tier_cache_total",
			Help: "Tier lookups served from cache or the database",
		},
		[]string{"result"}, // hit, miss
	)

	m.collectors = []prometheus.Collector{
		m.operationsTotal,
		m.operationDuration,
		m.scopesTotal,
		m.scopeDuration,
		m.chunksFlushed,
		m.openDetailScopes,
		m.tierCacheTotal,
	}
}

// Describe implements the Collector interface
func (m *DatastoreMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *DatastoreMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// RecordOperation counts one repository call and its duration.
// A nil receiver is valid and records nothing.
func (m *DatastoreMetrics) RecordOperation(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// RecordScope counts a closed scope.
func (m *DatastoreMetrics) RecordScope(kind string, committed bool, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := OutcomeCommitted
	if !committed {
		outcome = OutcomeRolledBack
	}
	m.scopesTotal.WithLabelValues(kind, outcome).Inc()
	m.scopeDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// IncrementChunkFlushes counts one processed chunk.
func (m *DatastoreMetrics) IncrementChunkFlushes() {
	if m == nil {
		return
	}
	m.chunksFlushed.Inc()
}

// DetailScopeOpened tracks a newly pinned detail connection.
func (m *DatastoreMetrics) DetailScopeOpened() {
	if m == nil {
		return
	}
	m.openDetailScopes.Inc()
}

// DetailScopeReleased tracks a released detail connection.
func (m *DatastoreMetrics) DetailScopeReleased() {
	if m == nil {
		return
	}
	m.openDetailScopes.Dec()
}

// RecordTierCache counts a tier lookup as a hit or miss.
func (m *DatastoreMetrics) RecordTierCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.tierCacheTotal.WithLabelValues(result).Inc()
}
