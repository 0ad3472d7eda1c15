package content

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

const (
	// SearchTTL defines how long search result lists remain cached.
	SearchTTL = 10 * time.Minute

	// DetailsTTL defines how long full media records remain cached.
	DetailsTTL = time.Hour
)

// Cache stores provider responses in Redis so repeated lookups for the
// same query or media ID skip the upstream API entirely.
type Cache struct {
	client rueidis.Client
	logger *zap.Logger
}

// NewCache initializes the provider response cache.
func NewCache(client rueidis.Client, logger *zap.Logger) *Cache {
	return &Cache{
		client: client,
		logger: logger.Named("content_cache"),
	}
}

// cacheKey builds a stable key from the provider name, the operation and
// its parameters. Parameters are hashed so free-text queries cannot
// produce keys with awkward characters or unbounded length.
func cacheKey(provider, op string, params any) string {
	data, err := sonic.Marshal(params)
	if err != nil {
		data = []byte(op)
	}
	sum := md5.Sum(data)
	return "content:" + provider + ":" + op + ":" + hex.EncodeToString(sum[:])
}

// cached wraps a provider fetch with a Redis read-through. Cache failures
// are logged and treated as misses so a Redis outage never breaks lookups.
func cached[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	if c != nil {
		data, err := c.client.Do(ctx, c.client.B().Get().Key(key).Build()).AsBytes()
		switch {
		case err == nil:
			var value T
			if err := sonic.Unmarshal(data, &value); err == nil {
				c.logger.Debug("Cache hit", zap.String("key", key))
				return value, nil
			}
			c.logger.Warn("Discarding malformed cache entry",
				zap.String("key", key),
				zap.Error(err))
		case rueidis.IsRedisNil(err):
			// Miss, fall through to fetch.
		default:
			c.logger.Warn("Failed to read from cache",
				zap.String("key", key),
				zap.Error(err))
		}
	}

	value, err := fetch(ctx)
	if err != nil {
		return zero, err
	}

	if c != nil {
		data, err := sonic.Marshal(value)
		if err == nil {
			err = c.client.Do(ctx,
				c.client.B().Set().Key(key).Value(rueidis.BinaryString(data)).Ex(ttl).Build(),
			).Error()
		}
		if err != nil {
			c.logger.Warn("Failed to store in cache",
				zap.String("key", key),
				zap.Error(err))
		}
	}

	return value, nil
}
