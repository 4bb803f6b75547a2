package core

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"billing-backend/internal/cache"
)

// cacheAside wraps the cache collaborator with the log-and-ignore policy:
// a cache failure must degrade to a miss, never to a request failure.
type cacheAside struct {
	cache cache.Cache
	log   zerolog.Logger
}

// read unmarshals the cached value for key into dest and reports a hit.
func (c cacheAside) read(ctx context.Context, key string, dest any) bool {
	b, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(b, dest); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache entry corrupt")
		return false
	}
	return true
}

// write stores v under key with the default TTL.
func (c cacheAside) write(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache marshal failed")
		return
	}
	if err := c.cache.Set(ctx, key, b, cache.DefaultTTL); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// invalidate sweeps the given patterns.
func (c cacheAside) invalidate(ctx context.Context, patterns ...string) {
	for _, p := range patterns {
		if err := c.cache.DeletePattern(ctx, p); err != nil {
			c.log.Warn().Err(err).Str("pattern", p).Msg("cache invalidation failed")
		}
	}
}
