package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hadleybricks/backend/internal/domain/marketplace"
)

// RedisProductTypeCache implements ProductTypeCache using Redis
// This is suitable for distributed deployments where multiple instances
// share catalog classifications
type RedisProductTypeCache struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisProductTypeCache creates a new Redis-based product type cache
func NewRedisProductTypeCache(cfg RedisConfig) (*RedisProductTypeCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisProductTypeCache{
		client:    client,
		keyPrefix: "catalog:producttype:",
	}, nil
}

// NewRedisProductTypeCacheWithClient creates a cache with an existing Redis client
// This is useful for testing or when sharing a client across components
func NewRedisProductTypeCacheWithClient(client *redis.Client, keyPrefix string) *RedisProductTypeCache {
	if keyPrefix == "" {
		keyPrefix = "catalog:producttype:"
	}
	return &RedisProductTypeCache{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Get returns the cached classification for a SKU, reporting whether it was present
func (c *RedisProductTypeCache) Get(ctx context.Context, sku string) (string, bool, error) {
	key := c.keyPrefix + marketplace.NormalizeSKU(sku)

	value, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read product type: %w", err)
	}
	return value, true, nil
}

// Set stores a classification with the given TTL
func (c *RedisProductTypeCache) Set(ctx context.Context, sku, productType string, ttl time.Duration) error {
	key := c.keyPrefix + marketplace.NormalizeSKU(sku)

	if err := c.client.Set(ctx, key, productType, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store product type: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisProductTypeCache) Close() error {
	return c.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (c *RedisProductTypeCache) GetClient() *redis.Client {
	return c.client
}

// Ensure RedisProductTypeCache implements ProductTypeCache
var _ marketplace.ProductTypeCache = (*RedisProductTypeCache)(nil)
