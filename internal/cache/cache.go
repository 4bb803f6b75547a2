// Package cache is the query-result cache used by the core services.
//
// The cache is a performance optimization only: every read falls through to
// the record store on a miss, and services log-and-ignore cache failures so
// an outage degrades to "always miss" rather than request failures.
package cache

import (
	"context"
	"time"
)

// DefaultTTL applies to every cached read in this domain.
const DefaultTTL = time.Hour

// Cache is the key/value collaborator contract. Keys are deterministic
// concatenations of the operation name and every filter parameter, so
// distinct query shapes never collide and invalidation can sweep a whole
// namespace by prefix pattern.
type Cache interface {
	// Get returns the cached value and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// DeletePattern removes every key matching a glob pattern
	// (e.g. "billings:*").
	DeletePattern(ctx context.Context, pattern string) error
}
