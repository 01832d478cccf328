package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tourbase/tourbase/internal/model"
)

// Cache key prefixes and TTLs.
const (
	tourKeyPrefix     = "tour:"
	negCacheKeySuffix = ":neg"
	statsKey          = "stats:tours"

	// DefaultTourTTL is the TTL for cached tour data.
	DefaultTourTTL = 1 * time.Hour

	// StatsTTL is the TTL for the aggregated catalog stats.
	StatsTTL = 10 * time.Minute

	// NegativeCacheTTL is the TTL for negative cache entries.
	NegativeCacheTTL = 5 * time.Minute
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

// GetTour retrieves a tour from cache by slug.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetTour(ctx context.Context, slug string) (*model.Tour, error) {
	key := tourKeyPrefix + slug

	result, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var tour model.Tour
	if err := json.Unmarshal([]byte(result), &tour); err != nil {
		// A corrupt entry is treated as a miss and dropped.
		c.client.Del(ctx, key)
		return nil, ErrCacheMiss
	}

	return &tour, nil
}

// SetTour stores a tour in cache under its slug.
func (c *Cache) SetTour(ctx context.Context, tour *model.Tour) error {
	key := tourKeyPrefix + tour.Slug

	data, err := json.Marshal(tour)
	if err != nil {
		return fmt.Errorf("failed to marshal tour: %w", err)
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, key, data, DefaultTourTTL)
	pipe.Del(ctx, key+negCacheKeySuffix)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache tour: %w", err)
	}

	return nil
}

// DeleteTour removes a tour from cache. Called on every tour mutation
// so readers never see stale catalog data past one write.
func (c *Cache) DeleteTour(ctx context.Context, slug string) error {
	key := tourKeyPrefix + slug

	pipe := c.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.Del(ctx, key+negCacheKeySuffix)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete tour from cache: %w", err)
	}

	return nil
}

// IsNegativelyCached checks if a slug is in negative cache.
func (c *Cache) IsNegativelyCached(ctx context.Context, slug string) (bool, error) {
	key := tourKeyPrefix + slug + negCacheKeySuffix

	exists, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check negative cache: %w", err)
	}

	return exists > 0, nil
}

// SetNegativeCache marks a slug as not found.
func (c *Cache) SetNegativeCache(ctx context.Context, slug string) error {
	key := tourKeyPrefix + slug + negCacheKeySuffix

	if err := c.client.SetEx(ctx, key, "", NegativeCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to set negative cache: %w", err)
	}

	return nil
}

// GetTourStats retrieves the cached catalog stats.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetTourStats(ctx context.Context) ([]model.TourStats, error) {
	result, err := c.client.Get(ctx, statsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var stats []model.TourStats
	if err := json.Unmarshal([]byte(result), &stats); err != nil {
		c.client.Del(ctx, statsKey)
		return nil, ErrCacheMiss
	}

	return stats, nil
}

// SetTourStats stores the aggregated catalog stats.
func (c *Cache) SetTourStats(ctx context.Context, stats []model.TourStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	if err := c.client.Set(ctx, statsKey, data, StatsTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache stats: %w", err)
	}

	return nil
}

// InvalidateTourStats drops the cached catalog stats.
func (c *Cache) InvalidateTourStats(ctx context.Context) error {
	if err := c.client.Del(ctx, statsKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate stats: %w", err)
	}
	return nil
}
