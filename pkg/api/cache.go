package api

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/vazco/EthereumBridgeBackend/pkg/config"
	"github.com/vazco/EthereumBridgeBackend/pkg/logging"
	"github.com/vazco/EthereumBridgeBackend/pkg/metrics"
)

// backend stores rendered response bodies with a TTL.
type backend interface {
	get(ctx context.Context, key string) ([]byte, bool, error)
	set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	close() error
}

// Cache is a read-through cache of response bodies. Concurrent misses on
// the same key share one load.
type Cache struct {
	backend backend
	ttl     time.Duration
	group   singleflight.Group
	logger  *logging.Logger
}

// NewCache builds a Redis backed cache when an address is configured and
// an in-process one otherwise.
func NewCache(cfg config.CacheConfig, logger *logging.Logger) *Cache {
	if logger == nil {
		logger = logging.NewNoopLogger()
	}

	var b backend
	if cfg.Redis.Addr != "" {
		b = &redisBackend{
			client: redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			}),
			prefix: cfg.Redis.Prefix,
		}
		logger.Info("Using Redis response cache", "addr", cfg.Redis.Addr)
	} else {
		b = newMemoryBackend()
		logger.Info("Using in-process response cache")
	}

	return &Cache{
		backend: b,
		ttl:     cfg.TTL.ToDuration(),
		logger:  logger,
	}
}

// Get returns the cached body of key, or calls load and caches its result.
// Load errors are returned and never cached. A failing backend degrades to
// calling load directly.
func (c *Cache) Get(ctx context.Context, key string, load func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if body, ok, err := c.backend.get(ctx, key); err != nil {
		c.logger.Warn("Cache read failed", "key", key, "error", err)
	} else if ok {
		metrics.RecordCacheLookup(true)
		return body, nil
	}
	metrics.RecordCacheLookup(false)

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		body, err := load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		if err := c.backend.set(context.WithoutCancel(ctx), key, body, c.ttl); err != nil {
			c.logger.Warn("Cache write failed", "key", key, "error", err)
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Close releases the backend connection.
func (c *Cache) Close() error {
	return c.backend.close()
}

type redisBackend struct {
	client *redis.Client
	prefix string
}

func (r *redisBackend) get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return b, true, nil
}

func (r *redisBackend) set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, r.prefix+key, value, ttl).Err()
}

func (r *redisBackend) close() error {
	return r.client.Close()
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

type memoryBackend struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *memoryBackend) get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if m.now().After(e.expires) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *memoryBackend) set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{value: value, expires: m.now().Add(ttl)}
	return nil
}

func (m *memoryBackend) close() error {
	return nil
}
