package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/lifelist/internal/datastore/entities"
)

func primaryPaths(t *testing.T, env *testEnv, collectionID uint, name string) []string {
	t.Helper()
	photos, err := env.repos.Photos.PhotosForName(context.Background(), collectionID, name, true)
	require.NoError(t, err)
	paths := make([]string, len(photos))
	for i, p := range photos {
		paths[i] = p.FilePath
	}
	return paths
}

func TestPrimaryPhotoIsUniquePerName(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	r := env.repos
	coll := env.createCollection(t, "Birds", "Wildlife")

	a := env.createEntry(t, coll.ID, "Robin")
	b := env.createEntry(t, coll.ID, "Robin")
	wren := env.createEntry(t, coll.ID, "Wren")

	require.NoError(t, r.Photos.AddPhoto(ctx, &entities.Photo{EntryID: a.ID, FilePath: "a1.jpg", IsPrimary: true}))
	require.NoError(t, r.Photos.AddPhoto(ctx, &entities.Photo{EntryID: wren.ID, FilePath: "w1.jpg", IsPrimary: true}))
	assert.Equal(t, []string{"a1.jpg"}, primaryPaths(t, env, coll.ID, "Robin"))

	b1 := &entities.Photo{EntryID: b.ID, FilePath: "b1.jpg", IsPrimary: true}
	require.NoError(t, r.Photos.AddPhoto(ctx, b1))
	assert.Equal(t, []string{"b1.jpg"}, primaryPaths(t, env, coll.ID, "Robin"))
	assert.Equal(t, []string{"w1.jpg"}, primaryPaths(t, env, coll.ID, "Wren"), "other groups keep their primary")

	a2 := &entities.Photo{EntryID: a.ID, FilePath: "a2.jpg"}
	require.NoError(t, r.Photos.AddPhoto(ctx, a2))
	require.NoError(t, r.Photos.SetPrimary(ctx, a2.ID))
	assert.Equal(t, []string{"a2.jpg"}, primaryPaths(t, env, coll.ID, "Robin"))

	all, err := r.Photos.PhotosForName(ctx, coll.ID, "Robin", false)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a2.jpg", all[0].FilePath)

	forEntry, err := r.Photos.PhotosForEntry(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, forEntry, 2)
	assert.Equal(t, a2.ID, forEntry[0].ID)

	require.ErrorIs(t, r.Photos.SetPrimary(ctx, 999), ErrPhotoNotFound)
}

func TestRenameClearsPrimaryOnCollision(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	r := env.repos
	coll := env.createCollection(t, "Birds", "Wildlife")

	robin := env.createEntry(t, coll.ID, "Robin")
	typo := env.createEntry(t, coll.ID, "Robbin")
	require.NoError(t, r.Photos.AddPhoto(ctx, &entities.Photo{EntryID: robin.ID, FilePath: "robin.jpg", IsPrimary: true}))
	require.NoError(t, r.Photos.AddPhoto(ctx, &entities.Photo{EntryID: typo.ID, FilePath: "typo.jpg", IsPrimary: true}))

	typo.Name = "Robin"
	require.NoError(t, r.Entries.UpdateEntry(ctx, typo))
	assert.Equal(t, []string{"robin.jpg"}, primaryPaths(t, env, coll.ID, "Robin"))

	// renaming into an empty group keeps the flag
	typo.Name = "American Robin"
	require.NoError(t, r.Photos.SetPrimary(ctx, mustFirstPhoto(t, env, typo.ID).ID))
	require.NoError(t, r.Entries.UpdateEntry(ctx, typo))
	assert.Equal(t, []string{"typo.jpg"}, primaryPaths(t, env, coll.ID, "American Robin"))
}

func mustFirstPhoto(t *testing.T, env *testEnv, entryID uint) *entities.Photo {
	t.Helper()
	photos, err := env.repos.Photos.PhotosForEntry(context.Background(), entryID)
	require.NoError(t, err)
	require.NotEmpty(t, photos)
	return photos[0]
}

func TestUpdateAndDeletePhoto(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	r := env.repos
	coll := env.createCollection(t, "Birds", "Wildlife")
	entry := env.createEntry(t, coll.ID, "Robin")

	photo := &entities.Photo{EntryID: entry.ID, FilePath: "raw.jpg", IsPrimary: true}
	require.NoError(t, r.Photos.AddPhoto(ctx, photo))

	photo.FilePath = "renamed.jpg"
	photo.Width, photo.Height = 640, 480
	photo.Latitude = ptr(60.1)
	photo.IsPrimary = false
	require.NoError(t, r.Photos.UpdatePhoto(ctx, photo))

	got, err := r.Photos.GetPhoto(ctx, photo.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed.jpg", got.FilePath)
	assert.Equal(t, 640, got.Width)
	assert.True(t, got.IsPrimary, "primary changes only through SetPrimary")

	deleted, err := r.Photos.DeletePhoto(ctx, photo.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed.jpg", deleted.FilePath)

	_, err = r.Photos.GetPhoto(ctx, photo.ID)
	require.ErrorIs(t, err, ErrPhotoNotFound)
	_, err = r.Photos.DeletePhoto(ctx, photo.ID)
	require.ErrorIs(t, err, ErrPhotoNotFound)

	require.ErrorIs(t, r.Photos.AddPhoto(ctx, &entities.Photo{EntryID: 999, FilePath: "x.jpg"}), ErrEntryNotFound)
	require.ErrorIs(t, r.Photos.AddPhoto(ctx, &entities.Photo{EntryID: entry.ID}), ErrInvalidInput)
}
