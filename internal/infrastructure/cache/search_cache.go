package cache

import (
	"sync"
	"time"

	"github.com/sevketugurel/infinitum-agent-sub001/internal/domain"
)

// entry holds one cached result set with its expiration
type entry struct {
	results []domain.SearchResult
	expires time.Time
}

// SearchCache is a thread-safe in-memory TTL cache for web search results.
// Repeated searches for the same query within the TTL skip the SerpAPI call
// entirely.
type SearchCache struct {
	data  map[string]entry
	mutex sync.RWMutex
	ttl   time.Duration
}

// NewSearchCache creates a search cache with the given TTL
func NewSearchCache(ttl time.Duration) *SearchCache {
	if ttl == 0 {
		ttl = 30 * time.Minute
	}

	c := &SearchCache{
		data: make(map[string]entry),
		ttl:  ttl,
	}

	// Remove expired entries every 10 minutes
	go c.cleanupExpired()

	return c
}

// Get returns the cached results for key, or false when absent or expired.
// The returned slice is a copy; callers may mutate it freely.
func (c *SearchCache) Get(key string) ([]domain.SearchResult, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	e, exists := c.data[key]
	if !exists || time.Now().After(e.expires) {
		return nil, false
	}

	copied := make([]domain.SearchResult, len(e.results))
	copy(copied, e.results)
	return copied, true
}

// Put stores results under key with the cache TTL
func (c *SearchCache) Put(key string, results []domain.SearchResult) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	// Copy so later mutation by the caller cannot corrupt the cache
	copied := make([]domain.SearchResult, len(results))
	copy(copied, results)

	c.data[key] = entry{
		results: copied,
		expires: time.Now().Add(c.ttl),
	}
}

// Delete removes a key from the cache
func (c *SearchCache) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.data, key)
}

// Size returns the current number of cached result sets
func (c *SearchCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Clear removes all entries
func (c *SearchCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(map[string]entry)
}

// cleanupExpired removes expired entries periodically
func (c *SearchCache) cleanupExpired() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mutex.Lock()
		now := time.Now()
		for key, e := range c.data {
			if now.After(e.expires) {
				delete(c.data, key)
			}
		}
		c.mutex.Unlock()
	}
}
