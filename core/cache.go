package core

import (
	"errors"
	"fmt"
	"time"
)

// ErrCacheMiss is returned by Cache.Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache: key not found")

// Scope values for CacheKey. A scope identifies whose view of a report is cached;
// the cache treats it as an opaque string.
const ScopeAll = "all"

func ScopeUser(id string) string    { return "user:" + id }
func ScopeSection(id string) string { return "section:" + id }

// CacheKey identifies one cached monthly attendance summary.
type CacheKey struct {
	SchoolYearID string
	Year         int
	Month        time.Month
	Scope        string
}

func (k CacheKey) String() string {
	return fmt.Sprintf("sf2:%s:%d:%d:%s", k.SchoolYearID, k.Year, int(k.Month), k.Scope)
}

// Cache is a scoped key-value store for computed summaries.
// Errors returned by any method are expected and non-fatal: callers must
// fall back to recomputation and never fail the surrounding operation.
type Cache interface {
	Get(key CacheKey) (interface{}, error)
	Set(key CacheKey, value interface{}, ttl time.Duration) error
	Delete(key CacheKey) error
}
