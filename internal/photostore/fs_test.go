package photostore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/lifelist/internal/errors"
)

func readAll(t *testing.T, s Store, key string) string {
	t.Helper()
	rc, err := s.Open(context.Background(), key)
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func TestFSStoreLayout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	root := t.TempDir()
	s, err := NewFSStore(root)
	require.NoError(t, err)

	ref := Ref{CollectionID: 1, EntryID: 2, PhotoID: 3, FileName: "robin.jpg"}
	require.NoError(t, s.Put(ctx, ref.OriginalKey(), strings.NewReader("original")))
	require.NoError(t, s.Put(ctx, ref.ThumbnailKey(SizeXS), strings.NewReader("xs")))

	_, err = os.Stat(filepath.Join(root, "collection_1", "entry_2", "original", "3_robin.jpg"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "collection_1", "entry_2", "thumbnails", "3_xs.jpg"))
	require.NoError(t, err)

	assert.Equal(t, "original", readAll(t, s, ref.OriginalKey()))

	require.NoError(t, s.Put(ctx, ref.OriginalKey(), strings.NewReader("replaced")))
	assert.Equal(t, "replaced", readAll(t, s, ref.OriginalKey()))

	keys, err := s.List(ctx, EntryPrefix(1, 2))
	require.NoError(t, err)
	assert.Equal(t, []string{ref.OriginalKey(), ref.ThumbnailKey(SizeXS)}, keys)
}

func TestFSStoreRemovePhoto(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	root := t.TempDir()
	s, err := NewFSStore(root)
	require.NoError(t, err)

	ref := Ref{CollectionID: 1, EntryID: 2, PhotoID: 3, FileName: "robin.jpg"}
	other := Ref{CollectionID: 1, EntryID: 9, PhotoID: 4, FileName: "wren.jpg"}
	for _, key := range append(ref.Keys(), other.OriginalKey()) {
		require.NoError(t, s.Put(ctx, key, strings.NewReader(key)))
	}

	require.NoError(t, RemovePhoto(ctx, s, ref))
	_, err = s.Open(ctx, ref.OriginalKey())
	require.ErrorIs(t, err, ErrNotExist)
	assert.True(t, errors.IsNotFound(err))

	_, err = os.Stat(filepath.Join(root, "collection_1", "entry_2"))
	assert.True(t, os.IsNotExist(err), "empty entry directory is pruned")

	// deleting again is harmless
	require.NoError(t, RemovePhoto(ctx, s, ref))

	n, err := RemovePrefix(ctx, s, CollectionPrefix(1))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = os.Stat(root)
	require.NoError(t, err, "root is kept")
}

func TestFSStoreRejectsEscapingKeys(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "/etc/passwd", "../outside.jpg", "a/../../b.jpg", `a\b.jpg`} {
		require.ErrorIs(t, s.Put(ctx, key, strings.NewReader("x")), ErrInvalidKey, key)
	}

	_, err = NewFSStore(" ")
	require.Error(t, err)
}

func TestFSStoreHonorsCancellation(t *testing.T) {
	t.Parallel()
	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, s.Put(ctx, "a.jpg", strings.NewReader("x")), context.Canceled)
	_, err = s.Open(ctx, "a.jpg")
	require.ErrorIs(t, err, context.Canceled)
}
