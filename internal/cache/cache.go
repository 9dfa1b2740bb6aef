// Package cache keeps the last successful product fetch and serves it while
// fresh, degrading to stale data when a refresh fails.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/warungdata/katalog/internal/model"
	"github.com/warungdata/katalog/internal/obs"
)

// Fetcher loads the full product list from the upstream source.
type Fetcher interface {
	Fetch(ctx context.Context) ([]model.ProductRecord, error)
}

type entry struct {
	data      []model.ProductRecord
	fetchedAt time.Time
}

// Cache holds one entry: the most recent successful fetch result and its
// timestamp. Concurrent refreshes collapse into a single upstream call.
type Cache struct {
	fetcher Fetcher
	ttl     time.Duration

	mu  sync.RWMutex
	cur entry

	group singleflight.Group
}

func New(f Fetcher, ttl time.Duration) *Cache {
	return &Cache{fetcher: f, ttl: ttl}
}

// Products returns the cached records when inside the freshness window,
// otherwise attempts a refresh. It never returns an error: a failed refresh
// logs and falls back to the previous data, or an empty list when no fetch
// has ever succeeded.
func (c *Cache) Products(ctx context.Context) []model.ProductRecord {
	c.mu.RLock()
	cur := c.cur
	c.mu.RUnlock()
	if cur.data != nil && time.Since(cur.fetchedAt) < c.ttl {
		obs.M().CacheHit(ctx)
		return cur.data
	}
	obs.M().CacheMiss(ctx)

	v, err, _ := c.group.Do("products", func() (interface{}, error) {
		// A queued caller may find the entry already refreshed by the
		// flight it waited on.
		c.mu.RLock()
		cur := c.cur
		c.mu.RUnlock()
		if cur.data != nil && time.Since(cur.fetchedAt) < c.ttl {
			return cur.data, nil
		}
		records, err := c.fetcher.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.cur = entry{data: records, fetchedAt: time.Now()}
		c.mu.Unlock()
		return records, nil
	})
	if err != nil {
		obs.M().FetchFailure(ctx)
		obs.Logger.Warn("product_refresh_failed", "error", err)
		c.mu.RLock()
		cur := c.cur
		c.mu.RUnlock()
		if cur.data != nil {
			return cur.data
		}
		return []model.ProductRecord{}
	}
	return v.([]model.ProductRecord)
}

// FetchedAt reports when the stored entry was last refreshed, zero when no
// fetch has succeeded yet.
func (c *Cache) FetchedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cur.fetchedAt
}
