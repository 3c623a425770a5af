package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hadleybricks/backend/internal/domain/marketplace"
)

// entry represents a stored classification with expiration
type entry struct {
	productType string
	expiresAt   time.Time
}

// InMemoryProductTypeCache implements ProductTypeCache using an in-memory map
// This is suitable for single-instance deployments and testing
type InMemoryProductTypeCache struct {
	mu        sync.RWMutex
	entries   map[string]entry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryProductTypeCache creates a new in-memory product type cache
// It starts a background goroutine to clean up expired entries
func NewInMemoryProductTypeCache() *InMemoryProductTypeCache {
	cache := &InMemoryProductTypeCache{
		entries:  make(map[string]entry),
		stopChan: make(chan struct{}),
	}

	cache.wg.Add(1)
	go cache.cleanupLoop()

	return cache
}

// Get returns the cached classification for a SKU, reporting whether it was present
func (c *InMemoryProductTypeCache) Get(ctx context.Context, sku string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.entries[marketplace.NormalizeSKU(sku)]
	if !exists {
		return "", false, nil
	}

	// Expired entries are treated as missing
	if time.Now().After(e.expiresAt) {
		return "", false, nil
	}
	return e.productType, true, nil
}

// Set stores a classification with the given TTL
func (c *InMemoryProductTypeCache) Set(ctx context.Context, sku, productType string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[marketplace.NormalizeSKU(sku)] = entry{
		productType: productType,
		expiresAt:   time.Now().Add(ttl),
	}
	return nil
}

// Close stops the cleanup goroutine and releases resources
// Safe to call multiple times
func (c *InMemoryProductTypeCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired entries
func (c *InMemoryProductTypeCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

// cleanup removes expired entries from the cache
func (c *InMemoryProductTypeCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for sku, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, sku)
		}
	}
}

// Size returns the number of entries in the cache (for testing/monitoring)
func (c *InMemoryProductTypeCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Ensure InMemoryProductTypeCache implements ProductTypeCache
var _ marketplace.ProductTypeCache = (*InMemoryProductTypeCache)(nil)
