package cachesvc

import (
	"time"

	"github.com/talaan-ph/talaan/core"
)

// noopCache never stores anything; every read misses. Used by tests and
// cacheless deployments.
type noopCache struct{}

var _ core.Cache = noopCache{}

func NewNoopCache() core.Cache { return noopCache{} }

func (noopCache) Get(core.CacheKey) (interface{}, error) { return nil, core.ErrCacheMiss }

func (noopCache) Set(core.CacheKey, interface{}, time.Duration) error { return nil }

func (noopCache) Delete(core.CacheKey) error { return nil }
