package transfer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tphakala/lifelist/internal/datastore"
	"github.com/tphakala/lifelist/internal/datastore/entities"
	"github.com/tphakala/lifelist/internal/datastore/repository"
	"github.com/tphakala/lifelist/internal/logger"
	"github.com/tphakala/lifelist/internal/photostore"
)

type testEnv struct {
	manager  *datastore.SQLiteManager
	sessions *datastore.Sessions
	repos    *repository.Repositories
	photos   *photostore.FSStore
	svc      *Service
}

// setupTestEnv opens a fresh SQLite database and a filesystem photo store,
// both under a temp dir.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	m, err := datastore.NewSQLiteManager(filepath.Join(dir, "lifelist.db"), datastore.Config{
		Logger: logger.NewSlogLogger(nil, logger.LogLevelError, nil),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	require.NoError(t, m.Initialize(context.Background()))

	photos, err := photostore.NewFSStore(filepath.Join(dir, "photos"))
	require.NoError(t, err)

	sessions := datastore.NewSessions(m)
	repos := repository.New(m.DB())
	return &testEnv{
		manager:  m,
		sessions: sessions,
		repos:    repos,
		photos:   photos,
		svc:      New(sessions, repos, WithPhotoStore(photos)),
	}
}

func (e *testEnv) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	db := e.manager.DB().Model(model)
	if query != "" {
		db = db.Where(query, args...)
	}
	require.NoError(t, db.Count(&n).Error)
	return n
}

func (e *testEnv) createCollection(t *testing.T, name, typeName string) *entities.Collection {
	t.Helper()
	coll, err := e.repos.Collections.CreateCollection(context.Background(), name, typeName, "")
	require.NoError(t, err)
	return coll
}

func ptr[T any](v T) *T {
	return &v
}
