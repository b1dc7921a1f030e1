package cache

import (
	"fmt"
	"strings"

	"github.com/soltixdb/txcast/internal/config"
	"github.com/soltixdb/txcast/internal/utils"
)

// New creates the cache backend selected by configuration
func New(cfg config.CacheConfig) (Cache, error) {
	switch utils.BackendType(strings.ToLower(cfg.Type)) {
	case "", utils.BackendNone:
		return NewNop(), nil
	case utils.BackendMemory:
		return NewMemoryCache(DefaultMaxEntries), nil
	case utils.BackendRedis:
		rc, err := NewRedisCache(RedisConfig{URL: cfg.URL, Prefix: cfg.Prefix})
		if err != nil {
			return nil, err
		}
		return rc, nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s (supported: none, memory, redis)", cfg.Type)
	}
}

// NewTyped creates the configured backend wrapped with its codec
func NewTyped(cfg config.CacheConfig) (Typed, error) {
	c, err := New(cfg)
	if err != nil {
		return Typed{}, err
	}
	return Typed{Cache: c, Codec: Codec{Compress: cfg.Compress}, TTL: cfg.TTL}, nil
}
