package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisInfoConfig configures a Redis-backed split metadata cache.
type RedisInfoConfig struct {
	// Redis is the client used for cache reads and writes.
	Redis redis.UniversalClient

	// KeyPrefix namespaces cache keys. Defaults to "shardfeed:splitinfo".
	KeyPrefix string

	// TTL bounds how long cached split tables live. Zero means no expiry.
	TTL time.Duration

	// RedisTimeout bounds each Redis round trip. Defaults to 2s.
	RedisTimeout time.Duration

	// FallbackToProvider serves lookups directly from the provider when
	// Redis is unreachable instead of failing the pipeline build.
	FallbackToProvider bool
}

// RedisInfoCache shares resolved split metadata between worker processes.
// In a multi-host evaluation run every process needs the same split
// table; caching it in Redis means only one process pays the resolution
// cost.
type RedisInfoCache struct {
	provider InfoProvider
	config   RedisInfoConfig
}

// NewRedisInfoCache wraps a provider with a shared Redis cache.
func NewRedisInfoCache(provider InfoProvider, config RedisInfoConfig) (*RedisInfoCache, error) {
	if config.Redis == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "shardfeed:splitinfo"
	}
	if config.RedisTimeout == 0 {
		config.RedisTimeout = 2 * time.Second
	}
	return &RedisInfoCache{provider: provider, config: config}, nil
}

func (c *RedisInfoCache) key(name string, opts Options) string {
	return fmt.Sprintf("%s:%s:%s", c.config.KeyPrefix, name, opts.DataDir)
}

// SplitInfo implements InfoProvider. On a cache miss the provider is
// consulted and the result is written back with the configured TTL.
func (c *RedisInfoCache) SplitInfo(ctx context.Context, name string, opts Options) (map[string]SplitInfo, error) {
	key := c.key(name, opts)

	rctx, cancel := context.WithTimeout(ctx, c.config.RedisTimeout)
	raw, err := c.config.Redis.Get(rctx, key).Result()
	cancel()

	switch {
	case err == nil:
		var infos map[string]SplitInfo
		if jsonErr := json.Unmarshal([]byte(raw), &infos); jsonErr == nil {
			return infos, nil
		}
		// Corrupt entry, fall through and refresh it.
	case err != redis.Nil:
		if !c.config.FallbackToProvider {
			return nil, fmt.Errorf("split info cache read: %w", err)
		}
	}

	infos, err := c.provider.SplitInfo(ctx, name, opts)
	if err != nil {
		return nil, err
	}

	if payload, jsonErr := json.Marshal(infos); jsonErr == nil {
		rctx, cancel := context.WithTimeout(ctx, c.config.RedisTimeout)
		// Best effort; a failed write just means the next process
		// resolves the table itself.
		_ = c.config.Redis.Set(rctx, key, payload, c.config.TTL).Err()
		cancel()
	}

	return infos, nil
}
