// Package cachesvc provides core.Cache implementations.
package cachesvc

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/talaan-ph/talaan/core"
)

// memoryCache keeps computed summaries in-process. go-cache is safe for
// concurrent use and expires entries on its own sweep; the per-entry TTL
// passed to Set still bounds staleness independently of eviction calls.
type memoryCache struct {
	store *gocache.Cache
}

var _ core.Cache = (*memoryCache)(nil)

func NewMemoryCache(defaultTTL time.Duration) core.Cache {
	return &memoryCache{store: gocache.New(defaultTTL, 2*defaultTTL)}
}

func (c *memoryCache) Get(key core.CacheKey) (interface{}, error) {
	if v, ok := c.store.Get(key.String()); ok {
		return v, nil
	}
	return nil, core.ErrCacheMiss
}

func (c *memoryCache) Set(key core.CacheKey, value interface{}, ttl time.Duration) error {
	c.store.Set(key.String(), value, ttl)
	return nil
}

func (c *memoryCache) Delete(key core.CacheKey) error {
	c.store.Delete(key.String())
	return nil
}
