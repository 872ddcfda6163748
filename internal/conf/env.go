package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envPrefix namespaces automatic environment overrides, e.g. LIFELIST_DEBUG.
const envPrefix = "LIFELIST"

// envBinding ties a config key to an environment variable with optional validation.
type envBinding struct {
	ConfigKey string
	EnvVar    string
	Validate  func(string) error
}

func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "LIFELIST_DEBUG", validateEnvBool},
		{"main.datadir", "LIFELIST_DATADIR", validateEnvPath},

		{"datastore.driver", "LIFELIST_DB_DRIVER", validateEnvOneOf(DriverSQLite, DriverMySQL)},
		{"datastore.sqlite.path", "LIFELIST_DB_PATH", nil},
		{"datastore.mysql.host", "LIFELIST_MYSQL_HOST", nil},
		{"datastore.mysql.port", "LIFELIST_MYSQL_PORT", validateEnvPort},
		{"datastore.mysql.username", "LIFELIST_MYSQL_USER", nil},
		{"datastore.mysql.password", "LIFELIST_MYSQL_PASSWORD", nil},
		{"datastore.mysql.database", "LIFELIST_MYSQL_DATABASE", nil},
		{"datastore.slowquerythreshold", "LIFELIST_SLOW_QUERY", validateEnvDuration},
		{"datastore.chunksize", "LIFELIST_CHUNK_SIZE", validateEnvPositiveInt},

		{"photos.driver", "LIFELIST_PHOTO_DRIVER", validateEnvOneOf(PhotoDriverFS, PhotoDriverS3)},
		{"photos.basedir", "LIFELIST_PHOTO_DIR", nil},
		{"photos.s3.bucket", "LIFELIST_S3_BUCKET", nil},
		{"photos.s3.region", "LIFELIST_S3_REGION", nil},
		{"photos.s3.endpoint", "LIFELIST_S3_ENDPOINT", nil},
		{"photos.s3.pathstyle", "LIFELIST_S3_PATHSTYLE", validateEnvBool},

		{"thumbnails.cachecapacity", "LIFELIST_THUMB_CACHE", validateEnvPositiveInt},
		{"catalog.path", "LIFELIST_CATALOG", validateEnvPath},

		{"telemetry.enabled", "LIFELIST_TELEMETRY", validateEnvBool},
		{"telemetry.dsn", "LIFELIST_SENTRY_DSN", nil},
		{"metrics.enabled", "LIFELIST_METRICS", validateEnvBool},
	}
}

// configureEnvironmentVariables enables LIFELIST_ overrides for every key and
// the explicit short names above.
func configureEnvironmentVariables() error {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	return bindEnvVars()
}

func bindEnvVars() error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate == nil {
			continue
		}
		if envValue := os.Getenv(binding.EnvVar); envValue != "" {
			if err := binding.Validate(envValue); err != nil {
				warnings = append(warnings, fmt.Sprintf("invalid %s value '%s': %v", binding.EnvVar, envValue, err))
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}
	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("invalid boolean value '%s': must be true/false, 1/0, t/f", value)
	}
	return nil
}

func validateEnvPositiveInt(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid integer: %w", err)
	}
	if n <= 0 {
		return fmt.Errorf("must be positive, got %d", n)
	}
	return nil
}

func validateEnvPort(value string) error {
	port, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid port: %w", err)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

func validateEnvDuration(value string) error {
	if _, err := time.ParseDuration(value); err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	return nil
}

func validateEnvOneOf(valid ...string) func(string) error {
	return func(value string) error {
		if slices.Contains(valid, strings.ToLower(value)) {
			return nil
		}
		return fmt.Errorf("must be one of: %s", strings.Join(valid, ", "))
	}
}

func validateEnvPath(value string) error {
	cleaned := filepath.Clean(value)
	if !filepath.IsAbs(cleaned) {
		return fmt.Errorf("path must be absolute, got relative path: %s", cleaned)
	}
	return nil
}
