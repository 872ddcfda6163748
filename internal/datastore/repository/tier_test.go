package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/lifelist/internal/datastore/entities"
)

func TestTiersFallBackToTypeTemplate(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	coll := env.createCollection(t, "Shelf", "Books")
	require.NoError(t, env.repos.Tiers.SetTiers(ctx, coll.ID, nil))
	assert.Equal(t, int64(0), env.count(t, &entities.Tier{}, "collection_id = ?", coll.ID))

	tiers, err := env.repos.Tiers.TiersFor(ctx, coll.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"read", "currently reading", "want to read", "abandoned"}, tiers)

	_, err = env.repos.Tiers.TiersFor(ctx, 4242)
	require.ErrorIs(t, err, ErrCollectionNotFound)
}

func TestSetTiersReplacesAndDeduplicates(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	coll := env.createCollection(t, "Birds", "Wildlife")
	require.NoError(t, env.repos.Tiers.SetTiers(ctx, coll.ID, []string{"seen", " heard ", "seen", ""}))

	tiers, err := env.repos.Tiers.TiersFor(ctx, coll.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"seen", "heard"}, tiers)

	added, err := env.repos.Tiers.AddTier(ctx, coll.ID, "seen")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, int64(2), env.count(t, &entities.Tier{}, "collection_id = ?", coll.ID))

	added, err = env.repos.Tiers.AddTier(ctx, coll.ID, "photographed")
	require.NoError(t, err)
	assert.True(t, added)

	tiers, err = env.repos.Tiers.TiersFor(ctx, coll.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"seen", "heard", "photographed"}, tiers)
}

func TestAddTierMaterializesFallback(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	coll := env.createCollection(t, "Trips", "Travel")
	require.NoError(t, env.repos.Tiers.SetTiers(ctx, coll.ID, []string{}))

	added, err := env.repos.Tiers.AddTier(ctx, coll.ID, "dreaming")
	require.NoError(t, err)
	assert.True(t, added)

	tiers, err := env.repos.Tiers.TiersFor(ctx, coll.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"visited", "stayed overnight", "want to visit", "dreaming"}, tiers)
}

func TestSetTiersRewritesOrphanedEntries(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	coll := env.createCollection(t, "Birds", "Wildlife")
	wild := env.createEntry(t, coll.ID, "Robin", withTier("wild"))
	captive := env.createEntry(t, coll.ID, "Parrot", withTier("captive"))
	none := env.createEntry(t, coll.ID, "Unknown")

	require.NoError(t, env.repos.Tiers.SetTiers(ctx, coll.ID, []string{"wild", "heard"}))

	got, err := env.repos.Entries.GetEntry(ctx, captive.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Tier)
	assert.Equal(t, entities.UndeterminedTier, *got.Tier)

	got, err = env.repos.Entries.GetEntry(ctx, wild.ID)
	require.NoError(t, err)
	assert.Equal(t, "wild", *got.Tier)

	got, err = env.repos.Entries.GetEntry(ctx, none.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Tier)
}

func TestSetTiersRejectsReservedName(t *testing.T) {
	env := setupTestEnv(t)
	coll := env.createCollection(t, "Birds", "Wildlife")

	err := env.repos.Tiers.SetTiers(context.Background(), coll.ID, []string{"wild", entities.UndeterminedTier})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestTierCacheSeesWrites(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	coll := env.createCollection(t, "Birds", "Wildlife")

	// prime the cache
	_, err := env.repos.Tiers.TiersFor(ctx, coll.ID)
	require.NoError(t, err)

	require.NoError(t, env.repos.Tiers.SetTiers(ctx, coll.ID, []string{"one"}))
	tiers, err := env.repos.Tiers.TiersFor(ctx, coll.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"one"}, tiers)

	// a rolled back scope must not leave its tiers cached
	_ = env.sessions.List(ctx, func(ctx context.Context) error {
		require.NoError(t, env.repos.Tiers.SetTiers(ctx, coll.ID, []string{"two"}))
		_, err := env.repos.Tiers.TiersFor(ctx, coll.ID)
		require.NoError(t, err)
		return ErrInvalidInput
	})
	tiers, err = env.repos.Tiers.TiersFor(ctx, coll.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"one"}, tiers)
}
