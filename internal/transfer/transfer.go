// Package transfer moves collections in and out of the store.
//
// A collection is exported as a JSON Document carrying its schema, entries,
// attribute values, tags and photo metadata. A bundle is a directory holding
// the document next to a photos/ folder with the original files. Reference
// lists such as taxonomies are imported from CSV with a caller supplied
// column mapping.
package transfer

import (
	"github.com/tphakala/lifelist/internal/datastore"
	"github.com/tphakala/lifelist/internal/datastore/repository"
	"github.com/tphakala/lifelist/internal/errors"
	"github.com/tphakala/lifelist/internal/logger"
	"github.com/tphakala/lifelist/internal/photostore"
)

const component = "transfer"

// DefaultTypeName is used for documents that carry no type name.
const DefaultTypeName = "Custom"

var (
	// ErrInvalidDocument is returned for documents that cannot be imported.
	ErrInvalidDocument = errors.NewStd("invalid export document")
	// ErrUnsupportedVersion is returned for documents newer than FormatVersion.
	ErrUnsupportedVersion = errors.NewStd("unsupported export document version")
	// ErrInvalidMapping is returned for CSV column mappings without a name column.
	ErrInvalidMapping = errors.NewStd("invalid column mapping")
)

func getLogger() logger.Logger {
	return logger.Global().Module(component)
}

// Service runs exports and imports against one store.
type Service struct {
	sessions *datastore.Sessions
	repos    *repository.Repositories
	photos   photostore.Store
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithPhotoStore enables copying photo files in bundles.
func WithPhotoStore(s photostore.Store) ServiceOption {
	return func(svc *Service) {
		svc.photos = s
	}
}

// New creates a transfer service.
func New(sessions *datastore.Sessions, repos *repository.Repositories, opts ...ServiceOption) *Service {
	s := &Service{sessions: sessions, repos: repos}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
