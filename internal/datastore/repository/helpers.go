package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/lifelist/internal/datastore"
	"github.com/tphakala/lifelist/internal/errors"
	"github.com/tphakala/lifelist/internal/logger"
	"github.com/tphakala/lifelist/internal/observability/metrics"
)

const component = "repository"

func getLogger() logger.Logger {
	return logger.Global().Module("repository")
}

// base holds what every repository shares.
type base struct {
	db      *gorm.DB
	metrics *metrics.DatastoreMetrics
}

// conn returns the scope transaction from ctx, or the pool.
func (b *base) conn(ctx context.Context) *gorm.DB {
	return datastore.Conn(ctx, b.db)
}

// atomic runs fn in a transaction nested in the caller's scope, if any.
func (b *base) atomic(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return b.conn(ctx).Transaction(fn)
}

// observe records an operation; call it deferred with a named error result.
func (b *base) observe(operation string, start time.Time, err *error) {
	b.metrics.RecordOperation(operation, start, *err)
}

func notFound(sentinel error, entity string, id uint) error {
	return errors.New(sentinel).
		Component(component).
		Category(errors.CategoryNotFound).
		EntityContext(entity, id).
		Build()
}

func notFoundByName(sentinel error, entity, name string) error {
	return errors.New(fmt.Errorf("%w: %q", sentinel, name)).
		Component(component).
		Category(errors.CategoryNotFound).
		Context("entity", entity).
		Build()
}

func conflict(sentinel error, name string) error {
	return errors.New(fmt.Errorf("%w: %q", sentinel, name)).
		Component(component).
		Category(errors.CategoryConflict).
		Build()
}

func referential(sentinel error, entity string, id uint) error {
	return errors.New(sentinel).
		Component(component).
		Category(errors.CategoryReferential).
		EntityContext(entity, id).
		Build()
}

func invalidInput(format string, args ...any) error {
	return errors.New(fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))).
		Component(component).
		Category(errors.CategoryValidation).
		Build()
}

// dbError wraps a storage failure. Errors that already carry a category,
// such as sentinels raised inside a nested transaction, pass through.
func dbError(operation string, err error) error {
	if err == nil {
		return nil
	}
	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return errors.New(err).
			Component(component).
			Category(errors.CategoryCancellation).
			Context("operation", operation).
			Build()
	}
	return errors.New(fmt.Errorf("%s: %w", strings.ReplaceAll(operation, "_", " "), err)).
		Component(component).
		Category(errors.CategoryDatabase).
		Context("operation", operation).
		Build()
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func isRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// likeEscaper escapes LIKE wildcards with '!'. A backslash escape would be
// read as a string escape by MySQL.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// likeLower is the predicate matching likePattern and prefixPattern.
func likeLower(col string) string {
	return "LOWER(" + col + ") LIKE ? ESCAPE '!'"
}

// likePattern builds a lower-cased substring pattern for likeLower. Wildcards
// typed by the user match literally.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(s))) + "%"
}

// prefixPattern builds a lower-cased prefix pattern for likeLower.
func prefixPattern(s string) string {
	return likeEscaper.Replace(strings.ToLower(strings.TrimSpace(s))) + "%"
}

// uniqueIDs drops zero and repeated ids, keeping first-seen order.
func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
