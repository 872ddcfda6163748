package thumbnail

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/lifelist/internal/errors"
	"github.com/tphakala/lifelist/internal/observability/metrics"
	"github.com/tphakala/lifelist/internal/photostore"
)

func key(photoID uint) Key {
	return Key{CollectionID: 1, EntryID: 1, PhotoID: photoID, Size: photostore.SizeSM}
}

func solid(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	return img
}

func newTestMetrics(t *testing.T) *metrics.ThumbnailMetrics {
	t.Helper()
	m, err := metrics.NewThumbnailMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	return m
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()
	m := newTestMetrics(t)
	c, err := New(2, WithMetrics(m))
	require.NoError(t, err)

	a, b, cc := key(1), key(2), key(3)
	c.Put(a, solid(1, 1))
	c.Put(b, solid(1, 1))

	_, ok := c.Get(a)
	require.True(t, ok)

	c.Put(cc, solid(1, 1))

	assert.False(t, c.Contains(b), "b was least recently used")
	assert.True(t, c.Contains(a))
	assert.True(t, c.Contains(cc))
	assert.Equal(t, []Key{a, cc}, c.Keys())
	assert.Equal(t, 2, c.Len())

	assert.InDelta(t, 1, testutil.ToFloat64(m.Evictions), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.CacheHits), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.CacheSize), 0)
}

func TestCacheOverflowEvictsExactlyOne(t *testing.T) {
	t.Parallel()
	const capacity = 5
	c, err := New(capacity)
	require.NoError(t, err)

	for i := uint(1); i <= capacity+1; i++ {
		c.Put(key(i), solid(1, 1))
	}
	assert.Equal(t, capacity, c.Len())
	assert.False(t, c.Contains(key(1)))
	for i := uint(2); i <= capacity+1; i++ {
		assert.True(t, c.Contains(key(i)))
	}
}

func TestCachePutRefreshesExisting(t *testing.T) {
	t.Parallel()
	c, err := New(2)
	require.NoError(t, err)

	c.Put(key(1), solid(1, 1))
	c.Put(key(2), solid(1, 1))
	c.Put(key(1), solid(2, 2))
	c.Put(key(3), solid(1, 1))

	img, ok := c.Get(key(1))
	require.True(t, ok)
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.False(t, c.Contains(key(2)))
}

type countingProvider struct {
	calls int
	err   error
}

func (p *countingProvider) Fetch(_ context.Context, _ Key) (image.Image, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return solid(4, 4), nil
}

func TestLoadReadsThrough(t *testing.T) {
	t.Parallel()
	m := newTestMetrics(t)
	p := &countingProvider{}
	c, err := New(3, WithProvider(p), WithMetrics(m))
	require.NoError(t, err)
	ctx := context.Background()

	for range 3 {
		img, err := c.Load(ctx, key(7))
		require.NoError(t, err)
		assert.Equal(t, 4, img.Bounds().Dx())
	}
	assert.Equal(t, 1, p.calls)
	assert.InDelta(t, 1, testutil.ToFloat64(m.CacheMisses), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.CacheHits), 0)

	p.err = errors.NewStd("disk on fire")
	_, err = c.Load(ctx, key(8))
	require.Error(t, err)
	assert.False(t, c.Contains(key(8)), "failures are not cached")
	assert.InDelta(t, 1, testutil.ToFloat64(m.LoadErrors), 0)

	bare, err := New(1)
	require.NoError(t, err)
	_, err = bare.Load(ctx, key(1))
	require.ErrorIs(t, err, ErrNoProvider)
}

func TestStoreProviderDecodesFromLayout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, err := photostore.NewFSStore(t.TempDir())
	require.NoError(t, err)

	k := Key{CollectionID: 2, EntryID: 5, PhotoID: 9, Size: photostore.SizeMD}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solid(300, 200), nil))
	ref := photostore.Ref{CollectionID: 2, EntryID: 5, PhotoID: 9}
	require.NoError(t, store.Put(ctx, ref.ThumbnailKey(photostore.SizeMD), &buf))
	require.NoError(t, store.Put(ctx, ref.ThumbnailKey(photostore.SizeXS), bytes.NewReader([]byte("not a jpeg"))))

	c, err := New(4, WithProvider(StoreProvider{Store: store}))
	require.NoError(t, err)

	img, err := c.Load(ctx, k)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 300, 200), img.Bounds())

	k.Size = photostore.SizeXS
	_, err = c.Load(ctx, k)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryImageCache))

	k.Size = photostore.SizeLG
	_, err = c.Load(ctx, k)
	require.ErrorIs(t, err, photostore.ErrNotExist)
}

func TestWarmSkipsMissing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, err := photostore.NewFSStore(t.TempDir())
	require.NoError(t, err)

	present := Key{CollectionID: 1, EntryID: 1, PhotoID: 1, Size: photostore.SizeXS}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solid(60, 60), nil))
	require.NoError(t, store.Put(ctx, present.ref().ThumbnailKey(present.Size), &buf))

	c, err := New(4, WithProvider(StoreProvider{Store: store}))
	require.NoError(t, err)

	missing := present
	missing.PhotoID = 2
	n, err := c.Warm(ctx, []Key{present, missing, present})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, c.Len())
}

func TestRemoveIsNotEviction(t *testing.T) {
	t.Parallel()
	m := newTestMetrics(t)
	c, err := New(4, WithMetrics(m))
	require.NoError(t, err)

	for _, s := range photostore.Sizes() {
		c.Put(Key{PhotoID: 1, Size: s}, solid(1, 1))
	}
	c.Put(key(2), solid(1, 1))

	assert.Equal(t, 3, c.RemovePhoto(1), "one size was already evicted")
	assert.True(t, c.Remove(key(2)))
	assert.False(t, c.Remove(key(2)))
	assert.Equal(t, 0, c.Len())
	assert.InDelta(t, 1, testutil.ToFloat64(m.Evictions), 0)

	c.Put(key(3), solid(1, 1))
	c.Purge()
	assert.Equal(t, 0, c.Len())
	assert.InDelta(t, 1, testutil.ToFloat64(m.Evictions), 0)
	assert.Equal(t, 4, c.Capacity())
}
