package cache

import (
	"time"
)

// Options selects and configures a cache backend.
type Options struct {
	// RedisURL selects the Redis backend when non-empty.
	// Example: redis://localhost:6379/0
	RedisURL string

	// Prefix is the key prefix for Redis.
	Prefix string

	// DefaultTTL is the default TTL for cache entries.
	DefaultTTL time.Duration

	// MaxSize is the maximum number of entries for the memory cache (0 = unlimited).
	MaxSize int
}

// DefaultOptions returns the default cache configuration: an in-memory
// cache with a five minute TTL.
func DefaultOptions() Options {
	return Options{
		DefaultTTL: 5 * time.Minute,
		MaxSize:    10000,
	}
}

// New creates a cache backend from the options: Redis when a URL is
// configured, in-memory otherwise.
func New(opts Options) (Cache, error) {
	if opts.DefaultTTL == 0 {
		opts.DefaultTTL = DefaultOptions().DefaultTTL
	}

	if opts.RedisURL != "" {
		return NewRedisCacheFromURL(opts.RedisURL, opts.Prefix, opts.DefaultTTL)
	}

	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      opts.DefaultTTL,
		MaxSize:         opts.MaxSize,
		CleanupInterval: time.Minute,
	}), nil
}
