package conf

import (
	"time"

	"github.com/spf13/viper"

	"github.com/tphakala/lifelist/internal/logger"
)

// Default values shared with config.yaml.
const (
	DefaultChunkSize          = 500
	DefaultCacheCapacity      = 500
	DefaultSlowQueryThreshold = 200 * time.Millisecond
	DefaultMySQLPort          = 3306
)

// setDefaultConfig sets default values for every configuration key.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.datadir", GetDefaultDataDir())

	viper.SetDefault("datastore.driver", DriverSQLite)
	viper.SetDefault("datastore.sqlite.path", "lifelist.db")
	viper.SetDefault("datastore.mysql.host", "localhost")
	viper.SetDefault("datastore.mysql.port", DefaultMySQLPort)
	viper.SetDefault("datastore.mysql.username", "lifelist")
	viper.SetDefault("datastore.mysql.password", "")
	viper.SetDefault("datastore.mysql.database", "lifelist")
	viper.SetDefault("datastore.slowquerythreshold", DefaultSlowQueryThreshold)
	viper.SetDefault("datastore.chunksize", DefaultChunkSize)

	viper.SetDefault("photos.driver", PhotoDriverFS)
	viper.SetDefault("photos.basedir", "photos")
	viper.SetDefault("photos.s3.region", "us-east-1")
	viper.SetDefault("photos.s3.pathstyle", false)

	viper.SetDefault("thumbnails.cachecapacity", DefaultCacheCapacity)

	viper.SetDefault("catalog.path", "")

	viper.SetDefault("logging.default_level", logger.DefaultLogLevel)
	viper.SetDefault("logging.timezone", "Local")
	viper.SetDefault("logging.console.enabled", logger.DefaultConsoleEnabled)
	viper.SetDefault("logging.console.level", logger.DefaultLogLevel)
	viper.SetDefault("logging.file_output.enabled", logger.DefaultFileEnabled)
	viper.SetDefault("logging.file_output.path", logger.DefaultLogPath)
	viper.SetDefault("logging.file_output.level", logger.DefaultLogLevel)

	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.dsn", "")

	viper.SetDefault("metrics.enabled", false)
}
