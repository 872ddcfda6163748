package datastore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tphakala/lifelist/internal/errors"
	"github.com/tphakala/lifelist/internal/logger"
	"github.com/tphakala/lifelist/internal/observability/metrics"
)

// ScopeKind names the shape of a session scope.
type ScopeKind string

const (
	ScopeList    ScopeKind = "list"
	ScopeDetail  ScopeKind = "detail"
	ScopeBatch   ScopeKind = "batch"
	ScopeChunked ScopeKind = "chunked"
)

// DefaultChunkSize is used when no chunk size is configured.
const DefaultChunkSize = 500

// Scope errors.
var (
	ErrScopeReleased = errors.NewStd("detail scope already released")
	ErrNilFunc       = errors.NewStd("scope function is nil")
)

// Sessions opens scopes against one manager's database.
//
// Every scope runs caller code with a context that carries the scope
// transaction; repositories pick it up through Conn. A scope opened while
// ctx already carries a transaction nests as a savepoint, so it commits
// with its parent.
type Sessions struct {
	db        *gorm.DB
	chunkSize int
	metrics   *metrics.DatastoreMetrics
}

// SessionOption configures Sessions.
type SessionOption func(*Sessions)

// WithChunkSize sets the number of items committed per chunk.
func WithChunkSize(n int) SessionOption {
	return func(s *Sessions) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// WithMetrics records scope outcomes.
func WithMetrics(m *metrics.DatastoreMetrics) SessionOption {
	return func(s *Sessions) {
		s.metrics = m
	}
}

// NewSessions creates a scope factory for m.
func NewSessions(m Manager, opts ...SessionOption) *Sessions {
	s := &Sessions{db: m.DB(), chunkSize: DefaultChunkSize}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ChunkSize returns the configured chunk size.
func (s *Sessions) ChunkSize() int {
	return s.chunkSize
}

// Metrics returns the datastore metrics, nil when disabled.
func (s *Sessions) Metrics() *metrics.DatastoreMetrics {
	return s.metrics
}

// List runs fn in a short-lived transaction. It commits when fn returns nil
// and rolls back on error or panic. The connection is always returned.
func (s *Sessions) List(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.run(ctx, ScopeList, s.db, fn)
}

// Batch runs bulk work in a single transaction that commits once at the end.
// Creates of slices are split into chunk-sized INSERT statements.
func (s *Sessions) Batch(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.run(ctx, ScopeBatch, s.db.Session(&gorm.Session{CreateBatchSize: s.chunkSize}), fn)
}

func (s *Sessions) run(ctx context.Context, kind ScopeKind, db *gorm.DB, fn func(ctx context.Context) error) error {
	if fn == nil {
		return ErrNilFunc
	}
	if err := ctx.Err(); err != nil {
		return cancelled(kind, err)
	}

	base := db
	if tx, ok := txFrom(ctx); ok {
		base = tx
	} else if logger.TraceID(ctx) == "" {
		// SQL logged by the outermost scope and everything nested in it
		// shares one trace id.
		ctx = logger.WithTraceID(ctx, uuid.NewString())
	}

	start := time.Now()
	var fnErr error
	err := base.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fnErr = fn(WithTx(ctx, tx))
		return fnErr
	})
	s.metrics.RecordScope(string(kind), err == nil, time.Since(start))

	switch {
	case err == nil:
		return nil
	case fnErr != nil:
		getLogger().WithContext(ctx).Debug("scope rolled back",
			logger.String("kind", string(kind)),
			logger.Error(fnErr))
		return fnErr
	default:
		// begin or commit failed
		return errors.New(fmt.Errorf("%s scope failed: %w", kind, err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("scope", string(kind)).
			Build()
	}
}

func cancelled(kind ScopeKind, err error) error {
	return errors.New(err).
		Component("datastore").
		Category(errors.CategoryCancellation).
		Context("scope", string(kind)).
		Build()
}
