package pixels

import (
	"context"
	"image"
	"time"

	"dicom-browser/internal/dataset"
	"dicom-browser/internal/logging"
	"dicom-browser/internal/metrics"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultEntries bounds the cache to a modest number of decoded frames;
// a typical series view only ever needs the slices around the slider
// position.
const DefaultEntries = 128

// Key identifies one decoded frame by instance identity, not by file path,
// so a re-imported instance reuses its cache slot.
type Key struct {
	SeriesUID string
	SOPUID    string
	Frame     int
}

// Cache is a bounded LRU of decoded pixel frames. Decoding is delegated to
// the dataset boundary; the series index never owns pixel data, it only
// carries the file refs this cache decodes from.
type Cache struct {
	decoder dataset.FrameDecoder
	lru     *lru.Cache[Key, image.Image]
}

// NewCache creates a cache holding at most entries decoded frames.
func NewCache(decoder dataset.FrameDecoder, entries int) (*Cache, error) {
	if entries < 1 {
		entries = DefaultEntries
	}

	l, err := lru.NewWithEvict[Key, image.Image](entries, func(key Key, _ image.Image) {
		metrics.PixelCacheEvictions.Inc()
		logging.Debug("Pixel cache evicted %s frame %d", key.SOPUID, key.Frame)
	})
	if err != nil {
		return nil, err
	}

	return &Cache{decoder: decoder, lru: l}, nil
}

// Frame returns the decoded frame for an instance, decoding and caching on
// miss. Concurrent misses for the same key may decode twice; the last
// result wins the cache slot, which is harmless for immutable frames.
func (c *Cache) Frame(ctx context.Context, key Key, ref dataset.FileRef) (image.Image, error) {
	if img, ok := c.lru.Get(key); ok {
		metrics.PixelCacheHits.Inc()
		return img, nil
	}
	metrics.PixelCacheMisses.Inc()

	start := time.Now()
	img, err := c.decoder.DecodeFrame(ctx, ref, key.Frame)
	if err != nil {
		return nil, err
	}
	metrics.PixelDecodeDuration.Observe(time.Since(start).Seconds())

	c.lru.Add(key, img)
	return img, nil
}

// Remove drops one frame from the cache.
func (c *Cache) Remove(key Key) {
	c.lru.Remove(key)
}

// Purge empties the cache, e.g. after a source removal.
func (c *Cache) Purge() {
	c.lru.Purge()
}

// Len returns the number of cached frames.
func (c *Cache) Len() int {
	return c.lru.Len()
}
