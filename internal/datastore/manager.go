// Package datastore owns the database handle and the session scopes that
// bound every read and write against it.
package datastore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tphakala/lifelist/internal/conf"
	"github.com/tphakala/lifelist/internal/datastore/entities"
	"github.com/tphakala/lifelist/internal/errors"
	"github.com/tphakala/lifelist/internal/logger"
)

// Manager owns one database connection pool.
type Manager interface {
	// Initialize migrates the schema and seeds collection types from the catalog.
	Initialize(ctx context.Context) error
	// DB returns the underlying GORM database.
	DB() *gorm.DB
	// Path returns the database location for display.
	Path() string
	// Close closes the connection pool.
	Close() error
	// IsMySQL reports whether the backend is MySQL.
	IsMySQL() bool
}

// Config holds options shared by every manager.
type Config struct {
	// Catalog seeds collection types on Initialize. Nil uses the built-in catalog.
	Catalog *conf.Catalog
	// SlowQueryThreshold logs queries slower than this at warn level.
	SlowQueryThreshold time.Duration
	// Logger receives SQL traces. Nil uses the global "datastore" module.
	Logger logger.Logger
}

func (c *Config) catalog() *conf.Catalog {
	if c.Catalog == nil {
		return conf.DefaultCatalog()
	}
	return c.Catalog
}

func (c *Config) logger() logger.Logger {
	if c.Logger == nil {
		return getLogger()
	}
	return c.Logger
}

func getLogger() logger.Logger {
	return logger.Global().Module("datastore")
}

// gormConfig builds the GORM config shared by both backends.
func gormConfig(cfg *Config) *gorm.Config {
	return &gorm.Config{
		Logger: logger.NewGormLoggerAdapter(cfg.logger().Module("sql"), cfg.SlowQueryThreshold),
		// map driver unique violations to gorm.ErrDuplicatedKey
		TranslateError: true,
	}
}

// setupJoinTables registers custom join tables. It must run on every
// freshly opened *gorm.DB before associations are used.
func setupJoinTables(db *gorm.DB) error {
	if err := db.SetupJoinTable(&entities.Entry{}, "Tags", &entities.EntryTag{}); err != nil {
		return fmt.Errorf("failed to set up entry_tags join table: %w", err)
	}
	return nil
}

// SQLiteManager handles a SQLite database file.
type SQLiteManager struct {
	db     *gorm.DB
	dbPath string
	cfg    Config
}

// NewSQLiteManager opens (creating if needed) the database at path.
func NewSQLiteManager(path string, cfg Config) (*SQLiteManager, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.New(err).
				Category(errors.CategoryFileIO).
				Context("db_path", path).
				Build()
		}
	}

	// WAL for concurrent readers, busy timeout for the single writer, and
	// foreign keys so cascades fire.
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON", path)

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig(&cfg))
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to open database: %w", err)).
			Category(errors.CategoryDatabase).
			Context("db_path", path).
			Build()
	}
	if err := setupJoinTables(db); err != nil {
		return nil, err
	}

	return &SQLiteManager{db: db, dbPath: path, cfg: cfg}, nil
}

// Initialize creates the schema and seeds collection types.
func (m *SQLiteManager) Initialize(ctx context.Context) error {
	return initialize(ctx, m.db, m.cfg.catalog())
}

// DB returns the underlying GORM database.
func (m *SQLiteManager) DB() *gorm.DB {
	return m.db
}

// Path returns the database file path.
func (m *SQLiteManager) Path() string {
	return m.dbPath
}

// Close closes the database connection.
func (m *SQLiteManager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	return sqlDB.Close()
}

// IsMySQL returns false for SQLite manager.
func (m *SQLiteManager) IsMySQL() bool {
	return false
}

// Open builds the manager selected by settings and initializes it.
func Open(ctx context.Context, settings *conf.Settings, cfg Config) (Manager, error) {
	var (
		m   Manager
		err error
	)

	cfg.SlowQueryThreshold = settings.Datastore.SlowQueryThreshold

	switch settings.Datastore.Driver {
	case conf.DriverMySQL:
		my := settings.Datastore.MySQL
		m, err = NewMySQLManager(&MySQLConfig{
			Host:     my.Host,
			Port:     my.Port,
			Username: my.Username,
			Password: my.Password,
			Database: my.Database,
		}, cfg)
	default:
		m, err = NewSQLiteManager(settings.SQLitePath(), cfg)
	}
	if err != nil {
		return nil, err
	}

	if err := m.Initialize(ctx); err != nil {
		_ = m.Close()
		return nil, err
	}

	getLogger().Info("datastore ready",
		logger.String("driver", settings.Datastore.Driver),
		logger.String("location", m.Path()))
	return m, nil
}
