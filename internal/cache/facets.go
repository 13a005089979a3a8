// Package cache keeps the catalog facet lists (districts and cuisines) in
// redis so the listing endpoint does not rescan the restaurants table.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	KeyDistricts = "facets:districts"
	KeyCuisines  = "facets:cuisines"
)

// FacetCache stores string lists under a key. A miss is reported as
// (nil, false, nil).
type FacetCache interface {
	Get(ctx context.Context, key string) ([]string, bool, error)
	Set(ctx context.Context, key string, values []string) error
}

// Options for the redis connection. The entry TTL is passed to
// NewRedisFacetCache.
type Options struct {
	Address  string
	Password string
	DB       int
}

type redisFacetCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisClient opens a client and pings it once.
func NewRedisClient(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", opts.Address, err)
	}
	return client, nil
}

func NewRedisFacetCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) FacetCache {
	return &redisFacetCache{client: client, ttl: ttl, logger: logger}
}

func (c *redisFacetCache) Get(ctx context.Context, key string) ([]string, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s from cache: %w", key, err)
	}

	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		c.logger.Warn("Dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		return nil, false, nil
	}
	return values, true, nil
}

func (c *redisFacetCache) Set(ctx context.Context, key string, values []string) error {
	raw, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write %s to cache: %w", key, err)
	}
	return nil
}

// NopFacetCache always misses. It is used when no redis address is configured.
type NopFacetCache struct{}

func (NopFacetCache) Get(context.Context, string) ([]string, bool, error) { return nil, false, nil }
func (NopFacetCache) Set(context.Context, string, []string) error         { return nil }
