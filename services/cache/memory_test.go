package cachesvc

import (
	"testing"
	"time"

	"github.com/talaan-ph/talaan/core"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	key := core.CacheKey{SchoolYearID: "sy1", Year: 2025, Month: time.June, Scope: core.ScopeAll}

	if _, err := c.Get(key); err != core.ErrCacheMiss {
		t.Errorf("Get() on empty cache error = %v, want ErrCacheMiss", err)
	}

	if err := c.Set(key, "summary", time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	v, err := c.Get(key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if v != "summary" {
		t.Errorf("Get() = %v, want %q", v, "summary")
	}

	if err = c.Delete(key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err = c.Get(key); err != core.ErrCacheMiss {
		t.Errorf("Get() after Delete() error = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	key := core.CacheKey{SchoolYearID: "sy1", Year: 2025, Month: time.June, Scope: core.ScopeUser("u1")}

	if err := c.Set(key, 42, 10*time.Millisecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := c.Get(key); err != core.ErrCacheMiss {
		t.Errorf("Get() after TTL error = %v, want ErrCacheMiss", err)
	}
}

func TestMemoryCacheScopeIsolation(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	all := core.CacheKey{SchoolYearID: "sy1", Year: 2025, Month: time.June, Scope: core.ScopeAll}
	scoped := core.CacheKey{SchoolYearID: "sy1", Year: 2025, Month: time.June, Scope: core.ScopeUser("u1")}

	_ = c.Set(all, "all", time.Minute)
	_ = c.Set(scoped, "scoped", time.Minute)

	_ = c.Delete(all)
	if _, err := c.Get(scoped); err != nil {
		t.Errorf("scoped entry evicted with the shared one: %v", err)
	}
}
