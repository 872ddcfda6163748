package datastore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/lifelist/internal/logger"
)

func TestBackupCopiesDatabase(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	require.NoError(t, createTag(ctx, m, "birds"))

	path, err := Backup(ctx, m, t.TempDir())
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Contains(t, path, "lifelist-sqlite-")

	copied, err := NewSQLiteManager(path, Config{
		Logger: logger.NewSlogLogger(nil, logger.LogLevelError, nil),
	})
	require.NoError(t, err)
	defer func() { _ = copied.Close() }()
	assert.Equal(t, int64(1), countTags(t, copied))
}
