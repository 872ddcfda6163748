package photostore

import (
	"context"
	"io"

	"github.com/tphakala/lifelist/internal/errors"
	"github.com/tphakala/lifelist/internal/logger"
)

const component = "photostore"

// Drivers.
const (
	DriverFS = "fs"
	DriverS3 = "s3"
)

var (
	// ErrNotExist is returned when a key has no stored file.
	ErrNotExist = errors.NewStd("photo file does not exist")
	// ErrInvalidKey is returned for keys outside the store layout.
	ErrInvalidKey = errors.NewStd("invalid photo key")
	// ErrInvalidSize is returned for unknown thumbnail size names.
	ErrInvalidSize = errors.NewStd("invalid thumbnail size")
)

// Store holds photo files by key.
type Store interface {
	// Put writes r under key, replacing any previous file.
	Put(ctx context.Context, key string, r io.Reader) error
	// Open returns the file stored under key. Returns ErrNotExist when
	// nothing is stored there.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
	// List returns the keys under prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
	// Driver names the backend.
	Driver() string
}

func getLogger() logger.Logger {
	return logger.Global().Module(component)
}

// RemovePhoto deletes the original and every thumbnail of ref.
func RemovePhoto(ctx context.Context, s Store, ref Ref) error {
	var errs []error
	for _, key := range ref.Keys() {
		if err := s.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	getLogger().Debug("photo files removed",
		logger.Uint("photo_id", ref.PhotoID),
		logger.String("driver", s.Driver()))
	return nil
}

// RemovePrefix deletes every key under prefix, for example an entry or
// collection that was deleted from the datastore.
func RemovePrefix(ctx context.Context, s Store, prefix string) (int, error) {
	keys, err := s.List(ctx, prefix)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if err := s.Delete(ctx, key); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func storageError(err error, op, key string) error {
	return errors.New(err).
		Component(component).
		Category(errors.CategoryStorage).
		Context("operation", op).
		Context("key", key).
		Build()
}

func notExist(key string) error {
	return errors.New(ErrNotExist).
		Component(component).
		Category(errors.CategoryNotFound).
		Context("key", key).
		Build()
}
