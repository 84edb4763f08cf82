package cache

import (
	"context"
	"sync"
	"time"

	"github.com/kjstillabower/weather-journal-service/internal/models"
)

// Cache defines the interface for snapshot caching implementations.
// Get returns cached data if present and not expired, Set stores data with TTL.
type Cache interface {
	Get(ctx context.Context, key string) (models.WeatherSnapshot, bool, error)
	Set(ctx context.Context, key string, value models.WeatherSnapshot, ttl time.Duration) error
}

// InMemoryCache implements Cache using an in-memory map with TTL-based
// expiration. Expired entries are removed on access. Safe for concurrent use.
type InMemoryCache struct {
	mu   sync.RWMutex
	data map[string]cacheEntry
}

// cacheEntry stores a cached snapshot with its expiration timestamp.
type cacheEntry struct {
	value     models.WeatherSnapshot
	expiresAt time.Time
}

// NewInMemoryCache creates a new in-memory cache instance.
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		data: make(map[string]cacheEntry),
	}
}

// Get retrieves a cached snapshot for the key if present and not expired.
// Returns (snapshot, true, nil) on hit, (zero, false, nil) on miss or
// expiration. Expired entries are removed on access.
func (c *InMemoryCache) Get(ctx context.Context, key string) (models.WeatherSnapshot, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.data[key]
	if !ok {
		return models.WeatherSnapshot{}, false, nil
	}

	if time.Now().After(entry.expiresAt) {
		delete(c.data, key)
		return models.WeatherSnapshot{}, false, nil
	}

	return entry.value, true, nil
}

// Set stores a snapshot in cache with the specified TTL duration.
func (c *InMemoryCache) Set(ctx context.Context, key string, value models.WeatherSnapshot, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = cacheEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}
