package shortener

import (
	"context"
	"time"
)

// CacheKeyPrefix namespaces cached long URLs.
const CacheKeyPrefix = "short_codes:"

// DefaultCacheTTL is how long a cached long URL lives.
const DefaultCacheTTL = time.Hour

// CacheStatus reports whether a lookup was served from cache.
type CacheStatus string

const (
	CacheHit  CacheStatus = "HIT"
	CacheMiss CacheStatus = "MISS"
)

// Cache is a string key/value store with expiry. It only ever holds
// derived data; the Repository stays authoritative.
type Cache interface {
	// Get reports found=false when the key is absent.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete succeeds whether or not the key exists.
	Delete(ctx context.Context, key string) error
}

// CacheKey returns the cache key holding the long URL for code.
func CacheKey(code Code) string {
	return CacheKeyPrefix + string(code)
}

// Invalidator evicts the cached long URL of a code. It never fails the
// caller.
type Invalidator interface {
	Invalidate(ctx context.Context, code Code)
}
