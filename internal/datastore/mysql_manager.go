package datastore

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/tphakala/lifelist/internal/errors"
	"github.com/tphakala/lifelist/internal/logger"
)

// MySQLConfig holds MySQL connection settings.
type MySQLConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string
}

// DSN builds the go-sql-driver connection string.
func (c *MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.Username, c.Password, net.JoinHostPort(c.Host, strconv.Itoa(c.Port)), c.Database)
}

// MySQLManager handles a MySQL database.
type MySQLManager struct {
	db       *gorm.DB
	location string // host:port/database for display
	cfg      Config
}

// NewMySQLManager connects to MySQL and configures the pool.
func NewMySQLManager(my *MySQLConfig, cfg Config) (*MySQLManager, error) {
	return newMySQLManagerDSN(my.DSN(), fmt.Sprintf("%s:%d/%s", my.Host, my.Port, my.Database), cfg)
}

func newMySQLManagerDSN(dsn, location string, cfg Config) (*MySQLManager, error) {
	db, err := gorm.Open(mysql.Open(dsn), gormConfig(&cfg))
	if err != nil {
		getLogger().Error("failed to open MySQL database",
			logger.Redacted("connection", dsn),
			logger.Error(err))
		return nil, errors.New(fmt.Errorf("failed to open MySQL database: %w", err)).
			Category(errors.CategoryDatabase).
			Context("location", location).
			Build()
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := setupJoinTables(db); err != nil {
		return nil, err
	}

	return &MySQLManager{db: db, location: location, cfg: cfg}, nil
}

// Initialize creates the schema and seeds collection types.
func (m *MySQLManager) Initialize(ctx context.Context) error {
	return initialize(ctx, m.db, m.cfg.catalog())
}

// DB returns the underlying GORM database.
func (m *MySQLManager) DB() *gorm.DB {
	return m.db
}

// Path returns the database location (host:port/database).
func (m *MySQLManager) Path() string {
	return m.location
}

// Close closes the database connection.
func (m *MySQLManager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	return sqlDB.Close()
}

// IsMySQL returns true for MySQL manager.
func (m *MySQLManager) IsMySQL() bool {
	return true
}
