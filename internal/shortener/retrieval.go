package shortener

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// fillTimeout bounds a shared miss-fill, which no single caller can cancel.
const fillTimeout = 5 * time.Second

// Retriever resolves short codes to long URLs, cache first. It is also the
// Invalidator the write orchestrators use, so that invalidation and
// in-flight miss-fills see each other.
type Retriever struct {
	links  Repository
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
	flight singleflight.Group
	// generation is bumped by every invalidation
	generation atomic.Uint64
}

// NewRetriever creates a cache-aside retriever.
func NewRetriever(links Repository, cache Cache, ttl time.Duration, logger *zap.Logger) *Retriever {
	return &Retriever{
		links:  links,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// Retrieve returns the long URL for code and whether the cache served it.
// The cache is only filled from links read back from the repository.
func (r *Retriever) Retrieve(ctx context.Context, code Code) (string, CacheStatus, error) {
	key := CacheKey(code)

	longURL, found, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Warn("cache read failed, falling back to store",
			zap.String("key", key),
			zap.Error(err),
		)
	} else if found {
		return longURL, CacheHit, nil
	}

	// concurrent misses for one key share a single store read and cache write
	fill := r.flight.DoChan(key, func() (any, error) {
		fillCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fillTimeout)
		defer cancel()

		return r.fill(fillCtx, code, key)
	})

	select {
	case <-ctx.Done():
		return "", "", ctx.Err()
	case res := <-fill:
		if res.Err != nil {
			return "", "", res.Err
		}

		return res.Val.(string), CacheMiss, nil
	}
}

func (r *Retriever) fill(ctx context.Context, code Code, key string) (string, error) {
	generation := r.generation.Load()

	link, err := r.links.GetByCode(ctx, code)
	if err != nil {
		return "", err
	}

	if err := r.cache.Set(ctx, key, link.LongURL, r.ttl); err != nil {
		r.logger.Warn("cache fill failed",
			zap.String("key", key),
			zap.Error(err),
		)

		return link.LongURL, nil
	}

	if r.generation.Load() != generation {
		// an invalidation ran during the fill; the value may predate it
		r.evict(ctx, code, key)
	}

	return link.LongURL, nil
}

// Invalidate drops the cached long URL for code. Callers arriving after it
// returns never join a fill that started before it. Failures are logged and
// the entry expires on its own.
func (r *Retriever) Invalidate(ctx context.Context, code Code) {
	key := CacheKey(code)

	r.generation.Add(1)
	r.flight.Forget(key)
	r.evict(ctx, code, key)
}

func (r *Retriever) evict(ctx context.Context, code Code, key string) {
	if err := r.cache.Delete(ctx, key); err != nil {
		r.logger.Error("cache invalidation failed",
			zap.String("code", string(code)),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
