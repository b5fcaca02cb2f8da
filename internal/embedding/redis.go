package embedding

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/memgraft/memgraft/internal/pkg/hash"
	"github.com/memgraft/memgraft/internal/pkg/logger"
)

// RedisCache is a Redis-backed embedding cache. Entries survive process
// restarts, which keeps repeated evaluation runs over the same corpus
// from re-embedding every record.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    *logger.Logger
}

// NewRedisCache creates a Redis cache backend. Returns an error if the
// connection cannot be established; callers fall back to the memory cache.
func NewRedisCache(url string, log *logger.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCache{
		client: client,
		prefix: "memgraft:embed:",
		ttl:    24 * time.Hour,
		log:    log,
	}, nil
}

// Get retrieves a cached vector. Redis errors degrade to a cache miss.
func (c *RedisCache) Get(ctx context.Context, text string) ([]float32, bool) {
	key := c.prefix + hash.SHA256String(text)

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.WithError(err).Debug("redis cache get failed")
		}
		return nil, false
	}

	var vec []float32
	if err := json.Unmarshal(data, &vec); err != nil {
		c.log.WithError(err).Debug("redis cache entry corrupt, ignoring")
		return nil, false
	}
	return vec, true
}

// Set stores a vector. Redis errors are logged and swallowed: the cache
// is an optimization, never a correctness dependency.
func (c *RedisCache) Set(ctx context.Context, text string, vector []float32) {
	key := c.prefix + hash.SHA256String(text)

	data, err := json.Marshal(vector)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.WithError(err).Debug("redis cache set failed")
	}
}

// Close releases the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
