package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/lifelist/internal/conf"
	"github.com/tphakala/lifelist/internal/observability/metrics"
)

// DefaultTierCacheTTL bounds how long resolved tier lists are cached.
const DefaultTierCacheTTL = 10 * time.Minute

// Option configures repositories built by New.
type Option func(*options)

type options struct {
	metrics      *metrics.DatastoreMetrics
	catalog      *conf.Catalog
	tierCacheTTL time.Duration
}

// WithMetrics records operation counts and durations.
func WithMetrics(m *metrics.DatastoreMetrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithCatalog sets the catalog used for type fallbacks and default fields.
func WithCatalog(c *conf.Catalog) Option {
	return func(o *options) {
		if c != nil {
			o.catalog = c
		}
	}
}

// WithTierCacheTTL sets the tier cache expiry. Zero disables caching.
func WithTierCacheTTL(d time.Duration) Option {
	return func(o *options) {
		o.tierCacheTTL = d
	}
}

// Repositories bundles every repository over one database.
type Repositories struct {
	Collections     CollectionRepository
	Tiers           TierRepository
	Fields          FieldRepository
	Entries         EntryRepository
	Photos          PhotoRepository
	Tags            TagRepository
	Classifications ClassificationRepository
}

// New builds all repositories over db. Pass the Manager's DB; scope
// transactions are picked up from the context of each call.
func New(db *gorm.DB, opts ...Option) *Repositories {
	o := options{tierCacheTTL: DefaultTierCacheTTL}
	for _, opt := range opts {
		opt(&o)
	}
	if o.catalog == nil {
		o.catalog = conf.DefaultCatalog()
	}

	b := base{db: db, metrics: o.metrics}
	tiers := newTierRepository(b, o.catalog, o.tierCacheTTL)
	fields := &fieldRepository{base: b}

	return &Repositories{
		Collections:     &collectionRepository{base: b, catalog: o.catalog, tiers: tiers},
		Tiers:           tiers,
		Fields:          fields,
		Entries:         &entryRepository{base: b, tiers: tiers},
		Photos:          &photoRepository{base: b},
		Tags:            &tagRepository{base: b},
		Classifications: &classificationRepository{base: b},
	}
}
