// Package observability owns the metric registry shared by lifelist components.
package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tphakala/lifelist/internal/errors"
	"github.com/tphakala/lifelist/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry  *prometheus.Registry
	Datastore *metrics.DatastoreMetrics
	Thumbnail *metrics.ThumbnailMetrics
}

// NewMetrics creates a registry and registers every collector on it.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	datastoreMetrics, err := metrics.NewDatastoreMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create Datastore metrics: %w", err)
	}

	thumbnailMetrics, err := metrics.NewThumbnailMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create Thumbnail metrics: %w", err)
	}

	return &Metrics{
		registry:  registry,
		Datastore: datastoreMetrics,
		Thumbnail: thumbnailMetrics,
	}, nil
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile dumps the current metric values in the text exposition
// format, suitable for the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.New(err).
			Component("observability").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	return nil
}
