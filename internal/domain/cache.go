package domain

import (
	"context"
	"time"
)

// Cache defines the interface for memoizing derived analytic results.
// Memoization is an optional performance layer keyed by snapshot
// generation plus request parameters; correctness never depends on it.
type Cache interface {
	// Get retrieves a value from cache.
	// Returns nil, nil if key not found.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from cache.
	Delete(ctx context.Context, key string) error

	// GetRankings retrieves a cached ranking table.
	GetRankings(ctx context.Context, key string) ([]RankingRow, error)

	// SetRankings caches a computed ranking table.
	SetRankings(ctx context.Context, key string, rows []RankingRow, ttl time.Duration) error

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// CacheConfig holds configuration for cache initialization.
type CacheConfig struct {
	// Type is the cache type: "memory" or "redis"
	Type string

	// Local LRU cache settings (standalone profile)
	LocalMaxSize int
	LocalTTL     time.Duration

	// Redis settings (fleet profile)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Two-phase settings
	EnableTwoPhase bool // If true, check local first, then Redis
}
