// Package conf loads application settings and the collection type catalog.
package conf

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/tphakala/lifelist/internal/errors"
	"github.com/tphakala/lifelist/internal/logger"
)

//go:embed config.yaml
var configYAML []byte

const osWindows = "windows"

// Storage driver names.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"

	PhotoDriverFS = "fs"
	PhotoDriverS3 = "s3"
)

// MainSettings holds process level options.
type MainSettings struct {
	DataDir string `mapstructure:"datadir" yaml:"datadir"` // root for the database and photos
}

// SQLiteSettings configures the embedded database.
type SQLiteSettings struct {
	Path string `mapstructure:"path" yaml:"path"` // database file, relative paths resolve under DataDir
}

// MySQLSettings configures an external MySQL server.
type MySQLSettings struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	Database string `mapstructure:"database" yaml:"database"`
}

// DatastoreSettings selects and tunes the storage backend.
type DatastoreSettings struct {
	Driver             string         `mapstructure:"driver" yaml:"driver"` // sqlite or mysql
	SQLite             SQLiteSettings `mapstructure:"sqlite" yaml:"sqlite"`
	MySQL              MySQLSettings  `mapstructure:"mysql" yaml:"mysql"`
	SlowQueryThreshold time.Duration  `mapstructure:"slowquerythreshold" yaml:"slowquerythreshold"`
	ChunkSize          int            `mapstructure:"chunksize" yaml:"chunksize"` // items per commit in chunked scopes
}

// S3Settings configures the S3 photo backend.
type S3Settings struct {
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	Region    string `mapstructure:"region" yaml:"region"`
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`   // custom endpoint for S3 compatible stores
	PathStyle bool   `mapstructure:"pathstyle" yaml:"pathstyle"` // required by most self-hosted stores
}

// PhotoSettings selects where photo files live.
type PhotoSettings struct {
	Driver  string     `mapstructure:"driver" yaml:"driver"` // fs or s3
	BaseDir string     `mapstructure:"basedir" yaml:"basedir"`
	S3      S3Settings `mapstructure:"s3" yaml:"s3"`
}

// ThumbnailSettings sizes the in-memory thumbnail cache.
type ThumbnailSettings struct {
	CacheCapacity int `mapstructure:"cachecapacity" yaml:"cachecapacity"`
}

// CatalogSettings points at an optional catalog override.
type CatalogSettings struct {
	Path string `mapstructure:"path" yaml:"path"` // empty uses the built-in catalog
}

// TelemetrySettings controls error reporting.
type TelemetrySettings struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	DSN     string `mapstructure:"dsn" yaml:"dsn"`
}

// MetricsSettings controls prometheus collection.
type MetricsSettings struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// Settings contains all configuration options for lifelist.
type Settings struct {
	Debug bool `mapstructure:"debug" yaml:"debug"`

	Main       MainSettings         `mapstructure:"main" yaml:"main"`
	Datastore  DatastoreSettings    `mapstructure:"datastore" yaml:"datastore"`
	Photos     PhotoSettings        `mapstructure:"photos" yaml:"photos"`
	Thumbnails ThumbnailSettings    `mapstructure:"thumbnails" yaml:"thumbnails"`
	Catalog    CatalogSettings      `mapstructure:"catalog" yaml:"catalog"`
	Logging    logger.LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Telemetry  TelemetrySettings    `mapstructure:"telemetry" yaml:"telemetry"`
	Metrics    MetricsSettings      `mapstructure:"metrics" yaml:"metrics"`
}

// SQLitePath resolves the database path against DataDir.
func (s *Settings) SQLitePath() string {
	return resolvePath(s.Main.DataDir, s.Datastore.SQLite.Path)
}

// PhotoBaseDir resolves the photo directory against DataDir.
func (s *Settings) PhotoBaseDir() string {
	return resolvePath(s.Main.DataDir, s.Photos.BaseDir)
}

func resolvePath(base, path string) string {
	if path == "" || filepath.IsAbs(path) || base == "" {
		return path
	}
	return filepath.Join(base, path)
}

var settingsMutex sync.Mutex

// Load reads config.yaml from the default locations, applies LIFELIST_
// environment overrides and validates the result. When no config file
// exists the embedded default is written to the first location.
func Load() (*Settings, error) {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return nil, fmt.Errorf("error getting default config paths: %w", err)
	}
	return loadFrom(configPaths)
}

func loadFrom(configPaths []string) (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	if err := initViper(configPaths); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}
	if settings.Main.DataDir == "" {
		settings.Main.DataDir = GetDefaultDataDir()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	return settings, nil
}

// initViper sets defaults, binds the environment and reads the config file.
func initViper(configPaths []string) error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := configureEnvironmentVariables(); err != nil {
		return err
	}

	err := viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return createDefaultConfig(configPaths)
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the embedded config.yaml to the first config path
// and reads it back.
func createDefaultConfig(configPaths []string) error {
	if len(configPaths) == 0 {
		return errors.NewStd("no config paths available")
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("config_path", configPath).
			Build()
	}

	if err := os.WriteFile(configPath, configYAML, 0o644); err != nil {
		return errors.FileError(err, configPath, int64(len(configYAML)))
	}

	logger.Global().Module("conf").Info("created default config file", logger.String("path", configPath))

	viper.SetConfigFile(configPath)
	return viper.ReadInConfig()
}

// GetDefaultConfigPaths returns the directories searched for config.yaml.
// The working directory comes first when it already holds a config file.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "get-home-directory").
			Build()
	}

	var configPaths []string
	switch runtime.GOOS {
	case osWindows:
		configPaths = []string{filepath.Join(homeDir, "AppData", "Roaming", "lifelist")}
	default:
		configPaths = []string{
			filepath.Join(homeDir, ".config", "lifelist"),
			"/etc/lifelist",
		}
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		configPaths = append([]string{"."}, configPaths...)
	}

	return configPaths, nil
}

// GetDefaultDataDir returns the directory used when main.datadir is unset.
func GetDefaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	if runtime.GOOS == osWindows {
		return filepath.Join(homeDir, "AppData", "Roaming", "lifelist", "data")
	}
	return filepath.Join(homeDir, ".local", "share", "lifelist")
}
