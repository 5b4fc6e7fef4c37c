package cache

import (
	"time"
)

// Cache is the shared cache contract. Embedding vectors and retrieval
// results are stored as serialized strings.
type Cache interface {
	Get(key string) (value string, found bool, err error)
	Set(key string, value string, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Factory builds a cache from a config.
type Factory func(config Config) (Cache, error)

var registry = make(map[string]Factory)

// RegisterCache registers a cache backend.
func RegisterCache(name string, factory Factory) {
	registry[name] = factory
}

// NewCache builds the configured cache backend, defaulting to memory.
func NewCache(config Config) (Cache, error) {
	if factory, ok := registry[config.Type]; ok {
		return factory(config)
	}
	return NewMemoryCache(config)
}

// Config is the cache configuration.
type Config struct {
	// cache backend: "memory" or "redis"
	Type string
	// Redis address (redis backend only)
	RedisAddr string
	// Redis password (redis backend only)
	RedisPassword string
	// Redis database number (redis backend only)
	RedisDB int
	// default entry TTL
	DefaultTTL time.Duration
	// expired-entry sweep interval (memory backend only)
	CleanupInterval time.Duration
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		Type:            "memory",
		DefaultTTL:      time.Hour * 24,
		CleanupInterval: time.Minute * 10,
	}
}

// GenerateCacheKey joins a prefix and parts into a stable cache key.
func GenerateCacheKey(prefix string, parts ...string) string {
	if len(parts) == 0 {
		return prefix
	}

	key := prefix
	for _, part := range parts {
		key += ":" + part
	}
	return key
}
