package holiday

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Key identifies one cached holiday set.
type Key struct {
	Year   int
	Region string
}

func (k Key) String() string { return fmt.Sprintf("%d:%s", k.Year, k.Region) }

// ComputeFunc builds a holiday set on a cache miss.
type ComputeFunc func(ctx context.Context) (HolidaySet, error)

// Cache stores holiday sets with atomic get-or-compute semantics.
type Cache interface {
	GetOrCompute(ctx context.Context, key Key, compute ComputeFunc) (HolidaySet, error)
	Clear(ctx context.Context) error
}

// =============================================================================
// MEMORY CACHE - Process-local, optionally backed by a shared cache
// =============================================================================

// MemoryCache keeps holiday sets for the process lifetime. Concurrent misses
// for the same key share one computation.
type MemoryCache struct {
	mu         sync.RWMutex
	sets       map[Key]HolidaySet
	generation uint64
	group      singleflight.Group
	next       Cache
}

// NewMemoryCache creates a cache. next, if not nil, is consulted on a miss
// before computing.
func NewMemoryCache(next Cache) *MemoryCache {
	return &MemoryCache{sets: make(map[Key]HolidaySet), next: next}
}

func (c *MemoryCache) GetOrCompute(ctx context.Context, key Key, compute ComputeFunc) (HolidaySet, error) {
	c.mu.RLock()
	set, ok := c.sets[key]
	gen := c.generation
	c.mu.RUnlock()
	if ok {
		return set.clone(), nil
	}

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		c.mu.RLock()
		set, ok := c.sets[key]
		c.mu.RUnlock()
		if ok {
			return set, nil
		}

		var err error
		if c.next != nil {
			set, err = c.next.GetOrCompute(ctx, key, compute)
		} else {
			set, err = compute(ctx)
		}
		if err != nil {
			return HolidaySet{}, err
		}

		c.mu.Lock()
		// A Clear during the computation invalidates its result
		if c.generation == gen {
			c.sets[key] = set
		}
		c.mu.Unlock()
		return set, nil
	})
	if err != nil {
		return HolidaySet{}, err
	}
	return v.(HolidaySet).clone(), nil
}

func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.sets = make(map[Key]HolidaySet)
	c.generation++
	c.mu.Unlock()

	if c.next != nil {
		return c.next.Clear(ctx)
	}
	return nil
}

// Len returns the number of cached sets.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sets)
}

// =============================================================================
// REDIS CACHE - Shared between server instances
// =============================================================================

const redisPrefix = "wochennachweis:holidays:"

// RedisCache stores holiday sets as JSON in Redis. Redis failures are logged
// and fall through to computing the set.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisCache) GetOrCompute(ctx context.Context, key Key, compute ComputeFunc) (HolidaySet, error) {
	redisKey := redisPrefix + key.String()

	raw, err := c.client.Get(ctx, redisKey).Bytes()
	switch {
	case err == nil:
		var set HolidaySet
		if err := json.Unmarshal(raw, &set); err == nil && set.Days != nil {
			return set, nil
		}
		c.logger.Warn("discarding unreadable cached holiday set", zap.String("key", redisKey))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("redis holiday cache unavailable", zap.String("key", redisKey), zap.Error(err))
	}

	set, err := compute(ctx)
	if err != nil {
		return HolidaySet{}, err
	}

	if payload, err := json.Marshal(set); err == nil {
		if err := c.client.Set(ctx, redisKey, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("failed to store holiday set in redis", zap.String("key", redisKey), zap.Error(err))
		}
	}
	return set, nil
}

func (c *RedisCache) Clear(ctx context.Context) error {
	var keys []string
	iter := c.client.Scan(ctx, 0, redisPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan holiday keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
