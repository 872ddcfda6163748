// Package metrics provides Prometheus collectors for lifelist components.
package metrics

// Histogram bucket parameters.
const (
	BucketStart1ms   = 0.001
	BucketStart100us = 0.0001
	BucketFactor2    = 2
	BucketCount12    = 12
	BucketCount15    = 15
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Scope outcome label values.
const (
	OutcomeCommitted  = "committed"
	OutcomeRolledBack = "rolled_back"
)
