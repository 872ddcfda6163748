package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadCreatesDefaultConfig(t *testing.T) {
	resetViper(t)
	dir := t.TempDir()

	settings, err := loadFrom([]string{dir})
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "config.yaml"))
	assert.Equal(t, DriverSQLite, settings.Datastore.Driver)
	assert.Equal(t, "lifelist.db", settings.Datastore.SQLite.Path)
	assert.Equal(t, DefaultChunkSize, settings.Datastore.ChunkSize)
	assert.Equal(t, DefaultSlowQueryThreshold, settings.Datastore.SlowQueryThreshold)
	assert.Equal(t, DefaultCacheCapacity, settings.Thumbnails.CacheCapacity)
	assert.Equal(t, PhotoDriverFS, settings.Photos.Driver)
	assert.NotEmpty(t, settings.Main.DataDir)
	assert.Equal(t, "info", settings.Logging.DefaultLevel)
}

func TestLoadReadsExistingConfig(t *testing.T) {
	resetViper(t)
	dir := t.TempDir()
	content := []byte(`
main:
  datadir: /var/lib/lifelist
datastore:
  driver: sqlite
  sqlite:
    path: custom.db
  chunksize: 50
  slowquerythreshold: 1s
thumbnails:
  cachecapacity: 10
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600))

	settings, err := loadFrom([]string{dir})
	require.NoError(t, err)

	assert.Equal(t, 50, settings.Datastore.ChunkSize)
	assert.Equal(t, time.Second, settings.Datastore.SlowQueryThreshold)
	assert.Equal(t, 10, settings.Thumbnails.CacheCapacity)
	assert.Equal(t, filepath.Join("/var/lib/lifelist", "custom.db"), settings.SQLitePath())
	assert.Equal(t, filepath.Join("/var/lib/lifelist", "photos"), settings.PhotoBaseDir())
}

func TestLoadEnvironmentOverride(t *testing.T) {
	resetViper(t)
	t.Setenv("LIFELIST_CHUNK_SIZE", "42")
	t.Setenv("LIFELIST_DEBUG", "true")

	settings, err := loadFrom([]string{t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, 42, settings.Datastore.ChunkSize)
	assert.True(t, settings.Debug)
}

func TestLoadRejectsInvalidEnvironment(t *testing.T) {
	resetViper(t)
	t.Setenv("LIFELIST_DB_DRIVER", "postgres")

	_, err := loadFrom([]string{t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LIFELIST_DB_DRIVER")
}

func TestValidateSettings(t *testing.T) {
	t.Parallel()

	valid := func() *Settings {
		return &Settings{
			Datastore: DatastoreSettings{
				Driver:    DriverSQLite,
				SQLite:    SQLiteSettings{Path: "x.db"},
				ChunkSize: 10,
			},
			Photos:     PhotoSettings{Driver: PhotoDriverFS, BaseDir: "photos"},
			Thumbnails: ThumbnailSettings{CacheCapacity: 5},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{"valid", func(*Settings) {}, ""},
		{"unknown driver", func(s *Settings) { s.Datastore.Driver = "oracle" }, "unknown datastore driver"},
		{"zero chunk size", func(s *Settings) { s.Datastore.ChunkSize = 0 }, "chunksize must be positive"},
		{"zero capacity", func(s *Settings) { s.Thumbnails.CacheCapacity = 0 }, "cachecapacity must be positive"},
		{"s3 without bucket", func(s *Settings) { s.Photos.Driver = PhotoDriverS3 }, "bucket is required"},
		{"mysql without host", func(s *Settings) {
			s.Datastore.Driver = DriverMySQL
			s.Datastore.MySQL.Port = 3306
		}, "mysql.host"},
		{"telemetry without dsn", func(s *Settings) { s.Telemetry.Enabled = true }, "telemetry.dsn"},
		{"driver case folded", func(s *Settings) { s.Datastore.Driver = "SQLite" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := valid()
			tt.mutate(s)
			err := ValidateSettings(s)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var ve ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
