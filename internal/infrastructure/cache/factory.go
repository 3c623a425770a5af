package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hadleybricks/backend/internal/domain/marketplace"
	"github.com/hadleybricks/backend/internal/infrastructure/config"
)

// ProductTypeCacheFactory creates product type caches based on configuration
type ProductTypeCacheFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// ProductTypeCacheFactoryOption is a functional option for configuring the factory
type ProductTypeCacheFactoryOption func(*ProductTypeCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) ProductTypeCacheFactoryOption {
	return func(f *ProductTypeCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory cache when Redis is unavailable
// Default is true (allow fallback)
func WithInMemoryFallback(allow bool) ProductTypeCacheFactoryOption {
	return func(f *ProductTypeCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewProductTypeCacheFactory creates a new factory
func NewProductTypeCacheFactory(cfg config.RedisConfig, opts ...ProductTypeCacheFactoryOption) *ProductTypeCacheFactory {
	f := &ProductTypeCacheFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisCache creates a Redis-based product type cache
func (f *ProductTypeCacheFactory) CreateRedisCache() (marketplace.ProductTypeCache, error) {
	redisCfg := RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}

	cache, err := NewRedisProductTypeCache(redisCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis product type cache: %w", err)
	}

	return cache, nil
}

// CreateInMemoryCache creates an in-memory product type cache
// This is suitable for single-instance deployments and testing
func (f *ProductTypeCacheFactory) CreateInMemoryCache() marketplace.ProductTypeCache {
	return NewInMemoryProductTypeCache()
}

// CreateCache creates a product type cache based on whether Redis is available
// It tries Redis first and falls back to in-memory when Redis is not available
// and AllowInMemoryFallback is true
func (f *ProductTypeCacheFactory) CreateCache() (marketplace.ProductTypeCache, error) {
	cache, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("using Redis product type cache")
		return cache, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for product type cache but unavailable: %w", err)
	}

	// Classifications are re-fetchable, so losing the cache only costs API calls
	f.logger.Warn("Redis unavailable, falling back to in-memory product type cache",
		zap.Error(err),
	)
	return f.CreateInMemoryCache(), nil
}
