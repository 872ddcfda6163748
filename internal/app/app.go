// Package app turns loaded settings into the running components every
// command shares: logging, telemetry, metrics, the datastore and its
// repositories, the photo store, the thumbnail cache and the transfer
// service.
package app

import (
	"context"
	"fmt"

	"github.com/tphakala/lifelist/internal/buildinfo"
	"github.com/tphakala/lifelist/internal/conf"
	"github.com/tphakala/lifelist/internal/datastore"
	"github.com/tphakala/lifelist/internal/datastore/repository"
	"github.com/tphakala/lifelist/internal/errors"
	"github.com/tphakala/lifelist/internal/logger"
	"github.com/tphakala/lifelist/internal/observability"
	"github.com/tphakala/lifelist/internal/observability/metrics"
	"github.com/tphakala/lifelist/internal/photostore"
	"github.com/tphakala/lifelist/internal/telemetry"
	"github.com/tphakala/lifelist/internal/thumbnail"
	"github.com/tphakala/lifelist/internal/transfer"
)

func getLogger() logger.Logger {
	return logger.Global().Module("app")
}

// App holds the components built by Open.
type App struct {
	Settings *conf.Settings
	Build    *buildinfo.Context

	Catalog  *conf.Catalog
	Manager  datastore.Manager
	Sessions *datastore.Sessions
	Repos    *repository.Repositories
	Details  *datastore.DetailRegistry
	Photos   photostore.Store
	Thumbs   *thumbnail.Cache
	Transfer *transfer.Service
	// Metrics is nil unless metrics are enabled.
	Metrics *observability.Metrics

	// MetricsFile receives a metrics snapshot on Close when set.
	MetricsFile string

	central *logger.CentralLogger
	opened  bool
}

// New creates an App for settings. Nothing is opened until Open.
func New(settings *conf.Settings, build *buildinfo.Context) *App {
	return &App{Settings: settings, Build: build}
}

// Open builds every component. A second call is a no-op.
func (a *App) Open(ctx context.Context) error {
	if a.opened {
		return nil
	}
	if a.Settings == nil {
		return errors.Newf("settings are not loaded").
			Component("app").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if err := conf.ValidateSettings(a.Settings); err != nil {
		return errors.New(err).
			Component("app").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if a.Settings.Debug {
		a.Settings.Logging.DefaultLevel = "debug"
	}
	central, err := logger.NewCentralLogger(&a.Settings.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	a.central = central
	logger.SetGlobal(central)

	if err := telemetry.Init(a.Settings, a.Build.GetVersion()); err != nil {
		// telemetry is optional, keep going
		getLogger().Warn("telemetry unavailable", logger.Error(err))
	}

	catalog, err := conf.LoadCatalog(a.Settings.Catalog.Path)
	if err != nil {
		return err
	}
	a.Catalog = catalog

	var (
		dsMetrics    *metrics.DatastoreMetrics
		thumbMetrics *metrics.ThumbnailMetrics
	)
	if a.Settings.Metrics.Enabled {
		m, err := observability.NewMetrics()
		if err != nil {
			return err
		}
		a.Metrics = m
		dsMetrics, thumbMetrics = m.Datastore, m.Thumbnail
	}

	manager, err := datastore.Open(ctx, a.Settings, datastore.Config{Catalog: catalog})
	if err != nil {
		return err
	}
	a.Manager = manager
	a.Sessions = datastore.NewSessions(manager,
		datastore.WithChunkSize(a.Settings.Datastore.ChunkSize),
		datastore.WithMetrics(dsMetrics))
	a.Details = datastore.NewDetailRegistry(a.Sessions)
	a.Repos = repository.New(manager.DB(),
		repository.WithMetrics(dsMetrics),
		repository.WithCatalog(catalog))

	photos, err := photostore.Open(ctx, a.Settings)
	if err != nil {
		_ = manager.Close()
		return err
	}
	a.Photos = photos

	thumbs, err := thumbnail.New(a.Settings.Thumbnails.CacheCapacity,
		thumbnail.WithProvider(thumbnail.StoreProvider{Store: photos}),
		thumbnail.WithMetrics(thumbMetrics))
	if err != nil {
		_ = manager.Close()
		return err
	}
	a.Thumbs = thumbs
	a.Transfer = transfer.New(a.Sessions, a.Repos, transfer.WithPhotoStore(photos))

	a.opened = true
	getLogger().Debug("application opened",
		logger.String("version", a.Build.GetVersion()),
		logger.String("datastore", manager.Path()),
		logger.String("photos", photos.Driver()))
	return nil
}

// Close releases open detail scopes, writes the metrics file, flushes
// telemetry and closes the datastore. Errors are joined.
func (a *App) Close() error {
	if !a.opened {
		return nil
	}
	a.opened = false

	var errs []error
	if a.Details != nil {
		if err := a.Details.ReleaseAll(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Metrics != nil && a.MetricsFile != "" {
		if err := a.Metrics.WriteTextfile(a.MetricsFile); err != nil {
			errs = append(errs, err)
		}
	}
	telemetry.Flush()
	if a.Manager != nil {
		if err := a.Manager.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.central != nil {
		if err := a.central.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
