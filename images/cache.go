package images

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"feed-ingest/utils"
)

// DefaultCacheTTL is how long an image validation result is trusted.
const DefaultCacheTTL = 24 * time.Hour

// Cache stores validation results by image URL. Misses and backend failures
// look the same to callers.
type Cache interface {
	Get(ctx context.Context, url string) (Validation, bool)
	Set(ctx context.Context, url string, v Validation)
}

type memEntry struct {
	v       Validation
	expires time.Time
}

// MemoryCache is a process-local Cache. Safe for concurrent use.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   utils.Clock
	entries map[string]memEntry
}

// NewMemoryCache creates a MemoryCache. A nil clock means the wall clock.
func NewMemoryCache(ttl time.Duration, clock utils.Clock) *MemoryCache {
	if clock == nil {
		clock = utils.RealClock()
	}
	return &MemoryCache{ttl: ttl, clock: clock, entries: make(map[string]memEntry)}
}

func (c *MemoryCache) Get(_ context.Context, url string) (Validation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[url]
	if !ok {
		return Validation{}, false
	}
	if !c.clock.Now().Before(e.expires) {
		delete(c.entries, url)
		return Validation{}, false
	}
	return e.v, true
}

func (c *MemoryCache) Set(_ context.Context, url string, v Validation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[url] = memEntry{v: v, expires: c.clock.Now().Add(c.ttl)}
}

// RedisCache shares validation results between runs and hosts.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger *utils.Logger
}

// NewRedisCache connects using a redis:// URL.
func NewRedisCache(redisURL string, ttl time.Duration, logger *utils.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("images: parse redis url: %w", err)
	}
	return &RedisCache{
		client: redis.NewClient(opts),
		ttl:    ttl,
		prefix: "feed-ingest:image:",
		logger: logger,
	}, nil
}

// Ping checks the connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Get(ctx context.Context, url string) (Validation, bool) {
	raw, err := c.client.Get(ctx, c.prefix+url).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) && c.logger != nil {
			c.logger.Warn("[images] redis get failed: %v", err)
		}
		return Validation{}, false
	}
	var v Validation
	if err := json.Unmarshal(raw, &v); err != nil {
		return Validation{}, false
	}
	return v, true
}

func (c *RedisCache) Set(ctx context.Context, url string, v Validation) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.prefix+url, raw, c.ttl).Err(); err != nil && c.logger != nil {
		c.logger.Warn("[images] redis set failed: %v", err)
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
