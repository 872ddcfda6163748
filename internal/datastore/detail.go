package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tphakala/lifelist/internal/errors"
	"github.com/tphakala/lifelist/internal/logger"
)

// DetailScope is a long-lived scope pinned to one database connection.
// Each Run executes in its own transaction on that connection; a failing Run
// rolls back but leaves the scope open. The caller must call Release.
type DetailScope struct {
	id       string
	sessions *Sessions
	conn     *sql.Conn
	db       *gorm.DB
	opened   time.Time

	mu       sync.Mutex
	released bool
}

// OpenDetail pins a connection and returns the scope holding it.
func (s *Sessions) OpenDetail(ctx context.Context) (*DetailScope, error) {
	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}

	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to pin connection: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("scope", string(ScopeDetail)).
			Build()
	}

	db := s.db.Session(&gorm.Session{Context: context.Background()})
	db.Statement.ConnPool = conn

	d := &DetailScope{
		id:       uuid.NewString(),
		sessions: s,
		conn:     conn,
		db:       db,
		opened:   time.Now(),
	}
	s.metrics.DetailScopeOpened()
	getLogger().Debug("detail scope opened", logger.String("scope_id", d.id))
	return d, nil
}

// ID returns the scope's unique id.
func (d *DetailScope) ID() string {
	return d.id
}

// Released reports whether Release has been called.
func (d *DetailScope) Released() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.released
}

// Run executes fn in a transaction on the pinned connection.
func (d *DetailScope) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.released {
		return ErrScopeReleased
	}
	// Runs on one scope are serialized by d.mu, as a connection serves one
	// statement at a time. An outer scope transaction in ctx is masked so
	// the work stays on the pinned connection.
	ctx = context.WithValue(ctx, txKey{}, (*gorm.DB)(nil))
	return d.sessions.run(ctx, ScopeDetail, d.db, fn)
}

// Release returns the pinned connection to the pool. It is safe to call
// more than once.
func (d *DetailScope) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.released {
		return nil
	}
	d.released = true
	d.sessions.metrics.DetailScopeReleased()

	if err := d.conn.Close(); err != nil {
		return errors.New(fmt.Errorf("failed to release detail scope: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("scope_id", d.id).
			Build()
	}
	getLogger().Debug("detail scope released",
		logger.String("scope_id", d.id),
		logger.Duration("held", time.Since(d.opened)))
	return nil
}

// DetailRegistry keys detail scopes by a caller chosen id, such as a view id.
type DetailRegistry struct {
	sessions *Sessions

	mu     sync.Mutex
	scopes map[string]*DetailScope
}

// NewDetailRegistry creates an empty registry.
func NewDetailRegistry(s *Sessions) *DetailRegistry {
	return &DetailRegistry{sessions: s, scopes: make(map[string]*DetailScope)}
}

// Acquire returns the open scope for key, opening one when none exists.
func (r *DetailRegistry) Acquire(ctx context.Context, key string) (*DetailScope, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.scopes[key]; ok && !d.Released() {
		return d, nil
	}

	d, err := r.sessions.OpenDetail(ctx)
	if err != nil {
		return nil, err
	}
	r.scopes[key] = d
	return d, nil
}

// Release closes and forgets the scope for key. Unknown keys are ignored.
func (r *DetailRegistry) Release(key string) error {
	r.mu.Lock()
	d, ok := r.scopes[key]
	delete(r.scopes, key)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	return d.Release()
}

// ReleaseAll closes every registered scope.
func (r *DetailRegistry) ReleaseAll() error {
	r.mu.Lock()
	scopes := r.scopes
	r.scopes = make(map[string]*DetailScope)
	r.mu.Unlock()

	var errs []error
	for _, d := range scopes {
		if err := d.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of registered scopes.
func (r *DetailRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.scopes)
}
