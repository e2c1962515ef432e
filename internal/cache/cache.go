package cache

import (
	"sync"
	"time"
)

// Cache is a small keyed memoization cache with optional expiry.
// The session client uses it to remember per-session lookups (customer
// number, agreement id) so a poll cycle does not repeat them.
type Cache interface {
	// Get retrieves a cache item; expired items are treated as absent
	Get(key string) (interface{}, bool)
	// Set sets a cache item
	Set(key string, value interface{})
	// Delete deletes a cache item
	Delete(key string)
	// Clear clears all cache items
	Clear()
	// Count returns the number of live cache items
	Count() int
}

// Config cache configuration
type Config struct {
	// TTL item lifetime; zero means items never expire
	TTL time.Duration
}

// item is one stored entry with its creation time.
type item struct {
	value     interface{}
	createdAt time.Time
}

// MemoryCache in-memory cache implementation
type MemoryCache struct {
	config Config
	items  map[string]item
	mutex  sync.RWMutex
}

var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache creates a memory cache
func NewMemoryCache(config Config) *MemoryCache {
	return &MemoryCache{
		config: config,
		items:  make(map[string]item),
	}
}

// Get retrieves a cache item
func (c *MemoryCache) Get(key string) (interface{}, bool) {
	c.mutex.RLock()
	it, exists := c.items[key]
	c.mutex.RUnlock()

	if !exists {
		return nil, false
	}
	if c.expired(it) {
		c.Delete(key)
		return nil, false
	}
	return it.value, true
}

// Set sets a cache item
func (c *MemoryCache) Set(key string, value interface{}) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items[key] = item{
		value:     value,
		createdAt: time.Now(),
	}
}

// Delete deletes a cache item
func (c *MemoryCache) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.items, key)
}

// Clear clears all cache items
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items = make(map[string]item)
}

// Count gets the number of live cache items
func (c *MemoryCache) Count() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	n := 0
	for _, it := range c.items {
		if !c.expired(it) {
			n++
		}
	}
	return n
}

func (c *MemoryCache) expired(it item) bool {
	if c.config.TTL <= 0 {
		return false
	}
	return time.Since(it.createdAt) > c.config.TTL
}
