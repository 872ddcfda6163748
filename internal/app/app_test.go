package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/lifelist/internal/buildinfo"
	"github.com/tphakala/lifelist/internal/conf"
	"github.com/tphakala/lifelist/internal/errors"
	"github.com/tphakala/lifelist/internal/logger"
)

func testSettings(t *testing.T) *conf.Settings {
	t.Helper()
	s := &conf.Settings{}
	s.Main.DataDir = t.TempDir()
	s.Datastore.Driver = conf.DriverSQLite
	s.Datastore.SQLite.Path = "lifelist.db"
	s.Datastore.ChunkSize = conf.DefaultChunkSize
	s.Photos.Driver = conf.PhotoDriverFS
	s.Photos.BaseDir = "photos"
	s.Thumbnails.CacheCapacity = 8
	s.Metrics.Enabled = true
	s.Logging = logger.LoggingConfig{
		DefaultLevel: "error",
		Console:      &logger.ConsoleOutput{Enabled: false},
		FileOutput:   &logger.FileOutput{Enabled: false},
	}
	return s
}

func TestOpenAndClose(t *testing.T) {
	ctx := context.Background()
	settings := testSettings(t)
	a := New(settings, buildinfo.NewContext("1.0.0", "2026-01-01"))
	a.MetricsFile = filepath.Join(t.TempDir(), "lifelist.prom")

	require.NoError(t, a.Open(ctx))
	require.NoError(t, a.Open(ctx), "second open is a no-op")

	require.NotNil(t, a.Repos)
	require.NotNil(t, a.Transfer)
	require.NotNil(t, a.Metrics)
	assert.Equal(t, "fs", a.Photos.Driver())
	assert.FileExists(t, filepath.Join(settings.Main.DataDir, "lifelist.db"))
	assert.DirExists(t, filepath.Join(settings.Main.DataDir, "photos"))

	coll, err := a.Repos.Collections.CreateCollection(ctx, "Birds", "Wildlife", "")
	require.NoError(t, err)
	assert.NotZero(t, coll.ID)

	require.NoError(t, a.Close())
	require.NoError(t, a.Close(), "second close is a no-op")

	data, err := os.ReadFile(a.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "lifelist_datastore_operations_total")
}

func TestOpenRejectsInvalidSettings(t *testing.T) {
	settings := testSettings(t)
	settings.Datastore.Driver = "postgres"

	err := New(settings, nil).Open(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestOpenWithoutSettings(t *testing.T) {
	err := New(nil, nil).Open(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}
