package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ThumbnailMetrics contains metrics for the thumbnail cache.
type ThumbnailMetrics struct {
	CacheSize    prometheus.Gauge
	CacheHits    prometheus.Counter
	CacheMisses  prometheus.Counter
	Evictions    prometheus.Counter
	LoadErrors   prometheus.Counter
	LoadDuration prometheus.Histogram
}

// NewThumbnailMetrics creates and registers thumbnail cache metrics.
func NewThumbnailMetrics(registry prometheus.Registerer) (*ThumbnailMetrics, error) {
	m := &ThumbnailMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *ThumbnailMetrics) initMetrics() {
	m.CacheSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lifelist_thumbnail_cache_entries",
		Help: "Current number of decoded thumbnails held in memory.",
	})

	m.CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lifelist_thumbnail_cache_hits_total",
		Help: "Total number of cache hits.",
	})

	m.CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lifelist_thumbnail_cache_misses_total",
		Help: "Total number of cache misses.",
	})

	m.Evictions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lifelist_thumbnail_cache_evictions_total",
		Help: "Total number of least recently used evictions.",
	})

	m.LoadErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lifelist_thumbnail_load_errors_total",
		Help: "Total number of thumbnails that failed to load or decode.",
	})

	m.LoadDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "lifelist_thumbnail_load_duration_seconds",
		Help:    "Duration of thumbnail loads on cache miss.",
		Buckets: prometheus.ExponentialBuckets(BucketStart100us, BucketFactor2, BucketCount12),
	})
}

// SetCacheSize updates the current entry count.
func (m *ThumbnailMetrics) SetCacheSize(n int) {
	if m == nil {
		return
	}
	m.CacheSize.Set(float64(n))
}

// IncrementCacheHits increases the cache hit counter by one.
func (m *ThumbnailMetrics) IncrementCacheHits() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}

// IncrementCacheMisses increases the cache miss counter by one.
func (m *ThumbnailMetrics) IncrementCacheMisses() {
	if m == nil {
		return
	}
	m.CacheMisses.Inc()
}

// IncrementEvictions increases the eviction counter by one.
func (m *ThumbnailMetrics) IncrementEvictions() {
	if m == nil {
		return
	}
	m.Evictions.Inc()
}

// IncrementLoadErrors increases the load error counter by one.
func (m *ThumbnailMetrics) IncrementLoadErrors() {
	if m == nil {
		return
	}
	m.LoadErrors.Inc()
}

// ObserveLoadDuration records a load in seconds.
func (m *ThumbnailMetrics) ObserveLoadDuration(seconds float64) {
	if m == nil {
		return
	}
	m.LoadDuration.Observe(seconds)
}

// Collect implements the prometheus.Collector interface.
func (m *ThumbnailMetrics) Collect(ch chan<- prometheus.Metric) {
	ch <- m.CacheSize
	ch <- m.CacheHits
	ch <- m.CacheMisses
	ch <- m.Evictions
	ch <- m.LoadErrors
	m.LoadDuration.Collect(ch)
}

// Describe implements the prometheus.Collector interface.
func (m *ThumbnailMetrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.CacheSize.Desc()
	ch <- m.CacheHits.Desc()
	ch <- m.CacheMisses.Desc()
	ch <- m.Evictions.Desc()
	ch <- m.LoadErrors.Desc()
	ch <- m.LoadDuration.Desc()
}
