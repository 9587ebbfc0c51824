// Package cache stores rasterized countdown images keyed by their canonical
// query string, so repeated fetches within a short window skip rasterization.
// Supports a bounded in-process store and Redis for multi-instance deployments.
package cache

import (
	"context"
	"net/url"
	"time"
)

// Backend names accepted in configuration.
const (
	BackendLocal = "local"
	BackendRedis = "redis"
)

const (
	// DefaultTTL is how long a rendered image may be served from cache.
	DefaultTTL = 5 * time.Second

	// DefaultMaxEntries bounds the local store.
	DefaultMaxEntries = 1000
)

// Entry is one cached image. The store owns Buffer after insertion;
// callers must not modify it.
type Entry struct {
	Key       string
	Buffer    []byte
	CreatedAt time.Time
}

// Stats describes the current state of a store for health reporting.
type Stats struct {
	Backend string        `json:"backend"`
	Size    int           `json:"size"`
	MaxSize int           `json:"maxSize"`
	TTL     time.Duration `json:"-"`
}

// Store defines the interface for image cache storage.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the buffer stored under key when it is younger than the TTL.
	// A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores buf under key with the current time as its creation time.
	Set(ctx context.Context, key string, buf []byte) error

	// Stats reports size and limits.
	Stats(ctx context.Context) Stats

	// Close releases any resources held by the store.
	Close() error
}

// Key returns the canonical cache key for a set of query parameters:
// names sorted, values kept in request order, form-encoded. Requests that
// differ only in parameter order share a key.
func Key(query url.Values) string {
	return query.Encode()
}
