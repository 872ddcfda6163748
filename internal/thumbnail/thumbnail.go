// Package thumbnail keeps recently shown thumbnails decoded in memory.
//
// Cache is a fixed-capacity least-recently-used map in front of a Provider.
// It is a read-through accelerator only: a miss loads the thumbnail from
// the photo store, and nothing is ever written back. Cache is not safe for
// concurrent use; it belongs to the goroutine driving the presentation.
package thumbnail

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/tphakala/lifelist/internal/errors"
	"github.com/tphakala/lifelist/internal/logger"
	"github.com/tphakala/lifelist/internal/observability/metrics"
	"github.com/tphakala/lifelist/internal/photostore"
)

// DefaultCapacity is used when New is given a non-positive capacity.
const DefaultCapacity = 500

// ErrNoProvider is returned by Load on a miss when no provider is set.
var ErrNoProvider = errors.NewStd("thumbnail provider is not configured")

// Key identifies one decoded thumbnail.
type Key struct {
	CollectionID uint
	EntryID      uint
	PhotoID      uint
	Size         photostore.Size
}

func (k Key) String() string {
	return fmt.Sprintf("%d/%d/%d/%s", k.CollectionID, k.EntryID, k.PhotoID, k.Size)
}

// ref returns the storage reference of the key's photo.
func (k Key) ref() photostore.Ref {
	return photostore.Ref{CollectionID: k.CollectionID, EntryID: k.EntryID, PhotoID: k.PhotoID}
}

// Provider fetches a thumbnail on a cache miss.
type Provider interface {
	Fetch(ctx context.Context, key Key) (image.Image, error)
}

// StoreProvider decodes JPEG thumbnails from a photo store.
type StoreProvider struct {
	Store photostore.Store
}

// Fetch opens the thumbnail file of key and decodes it.
func (p StoreProvider) Fetch(ctx context.Context, key Key) (image.Image, error) {
	rc, err := p.Store.Open(ctx, key.ref().ThumbnailKey(key.Size))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	img, err := jpeg.Decode(rc)
	if err != nil {
		return nil, errors.New(err).
			Component("thumbnail").
			Category(errors.CategoryImageCache).
			Context("key", key.String()).
			Build()
	}
	return img, nil
}

// Option configures a Cache.
type Option func(*Cache)

// WithMetrics reports hits, misses, evictions and size.
func WithMetrics(m *metrics.ThumbnailMetrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// WithProvider sets the provider used by Load on a miss.
func WithProvider(p Provider) Option {
	return func(c *Cache) {
		c.provider = p
	}
}

// Cache is a fixed-capacity LRU of decoded thumbnails.
type Cache struct {
	lru      *simplelru.LRU[Key, image.Image]
	capacity int
	provider Provider
	metrics  *metrics.ThumbnailMetrics
	dropping bool // set while removing explicitly, which is not an eviction
}

// New creates a cache holding at most capacity thumbnails.
func New(capacity int, opts ...Option) (*Cache, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &Cache{capacity: capacity}
	for _, opt := range opts {
		opt(c)
	}

	lru, err := simplelru.NewLRU(capacity, c.onEvict)
	if err != nil {
		return nil, errors.New(err).
			Component("thumbnail").
			Category(errors.CategoryImageCache).
			Build()
	}
	c.lru = lru
	return c, nil
}

func (c *Cache) onEvict(key Key, _ image.Image) {
	if c.dropping {
		return
	}
	c.metrics.IncrementEvictions()
	getLogger().Trace("thumbnail evicted", logger.String("key", key.String()))
}

func getLogger() logger.Logger {
	return logger.Global().Module("thumbnail")
}

// Get returns the cached thumbnail and marks it most recently used.
func (c *Cache) Get(key Key) (image.Image, bool) {
	img, ok := c.lru.Get(key)
	if ok {
		c.metrics.IncrementCacheHits()
	} else {
		c.metrics.IncrementCacheMisses()
	}
	return img, ok
}

// Contains reports whether key is cached without touching its recency.
func (c *Cache) Contains(key Key) bool {
	return c.lru.Contains(key)
}

// Put stores img as most recently used, evicting the least recently used
// thumbnail when the cache is full.
func (c *Cache) Put(key Key, img image.Image) {
	c.lru.Add(key, img)
	c.metrics.SetCacheSize(c.lru.Len())
}

// Load returns the cached thumbnail or fetches, caches and returns it.
func (c *Cache) Load(ctx context.Context, key Key) (image.Image, error) {
	if img, ok := c.Get(key); ok {
		return img, nil
	}
	if c.provider == nil {
		return nil, ErrNoProvider
	}

	start := time.Now()
	img, err := c.provider.Fetch(ctx, key)
	c.metrics.ObserveLoadDuration(time.Since(start).Seconds())
	if err != nil {
		c.metrics.IncrementLoadErrors()
		return nil, err
	}
	c.Put(key, img)
	return img, nil
}

// Warm loads keys into the cache, skipping thumbnails that do not exist.
// It returns how many thumbnails were fetched.
func (c *Cache) Warm(ctx context.Context, keys []Key) (int, error) {
	fetched := 0
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return fetched, err
		}
		if c.lru.Contains(key) {
			continue
		}
		if _, err := c.Load(ctx, key); err != nil {
			if errors.Is(err, photostore.ErrNotExist) {
				continue
			}
			return fetched, err
		}
		fetched++
	}
	getLogger().Debug("thumbnail cache warmed",
		logger.Int("requested", len(keys)),
		logger.Int("fetched", fetched),
		logger.Int("size", c.lru.Len()))
	return fetched, nil
}

// Remove drops one thumbnail.
func (c *Cache) Remove(key Key) bool {
	c.dropping = true
	defer func() { c.dropping = false }()

	removed := c.lru.Remove(key)
	c.metrics.SetCacheSize(c.lru.Len())
	return removed
}

// RemovePhoto drops every cached size of a photo.
func (c *Cache) RemovePhoto(photoID uint) int {
	c.dropping = true
	defer func() { c.dropping = false }()

	n := 0
	for _, key := range c.lru.Keys() {
		if key.PhotoID == photoID && c.lru.Remove(key) {
			n++
		}
	}
	c.metrics.SetCacheSize(c.lru.Len())
	return n
}

// Keys returns the cached keys from least to most recently used.
func (c *Cache) Keys() []Key {
	return c.lru.Keys()
}

// Len returns the number of cached thumbnails.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Capacity returns the maximum number of cached thumbnails.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Purge empties the cache.
func (c *Cache) Purge() {
	c.dropping = true
	defer func() { c.dropping = false }()

	c.lru.Purge()
	c.metrics.SetCacheSize(0)
}
