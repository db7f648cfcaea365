package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/redis/go-redis/v9"
)

// Cache is a JSON read cache over the Redis client. List endpoints cache
// their responses here and the pipeline invalidates the whole prefix after
// each run.
type Cache struct {
	client *Client
	prefix string
	ttl    time.Duration
	logger ectologger.Logger
}

// NewCache creates a new cache with the given key prefix and TTL
func NewCache(client *Client, prefix string, ttl time.Duration, logger ectologger.Logger) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *Cache) key(key string) string {
	return c.prefix + ":" + key
}

// Get reads a cached value into dest. Returns false on a miss. Cache errors
// are logged and reported as misses so reads fall through to the database.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	raw, err := c.client.Get(ctx, c.key(key))
	if err != nil {
		if err != redis.Nil {
			c.logger.WithContext(ctx).WithError(err).Warnf("Cache read failed for %s", key)
		}
		return false
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		c.logger.WithContext(ctx).WithError(err).Warnf("Cache entry for %s is not valid JSON", key)
		return false
	}

	return true
}

// Set stores a value as JSON with the cache TTL. Failures are logged, not
// returned; a cold cache is not an error.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Warnf("Failed to marshal cache value for %s", key)
		return
	}

	if err := c.client.Set(ctx, c.key(key), data, c.ttl); err != nil {
		c.logger.WithContext(ctx).WithError(err).Warnf("Cache write failed for %s", key)
	}
}

// Invalidate removes every key under the cache prefix
func (c *Cache) Invalidate(ctx context.Context) error {
	keys, err := c.client.ScanKeys(ctx, c.prefix+":*")
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...); err != nil {
		return err
	}

	c.logger.WithContext(ctx).Infof("Invalidated %d cached entries under %s", len(keys), c.prefix)
	return nil
}
