package thumbcache

import (
	"sync"
	"time"
)

const (
	// DefaultTTL bounds how long a thumbnail payload is served without
	// re-fetching upstream.
	DefaultTTL = 30 * time.Minute
	// DefaultCapacity bounds entry count; the key space is the raw
	// client-supplied id-list string, so it cannot be left unbounded.
	DefaultCapacity = 256
)

type entry struct {
	payload  []byte
	storedAt time.Time
}

// Cache is a TTL- and capacity-bounded store for proxied thumbnail
// responses, keyed by the exact requested id-list string. Entries are not
// proactively evicted on expiry; a stale entry is simply a miss and is
// overwritten on the next Set. Past capacity the oldest entry by insertion
// time is dropped.
type Cache struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	entries  map[string]entry
	now      func() time.Time
}

// New builds a cache; non-positive arguments fall back to the defaults.
func New(ttl time.Duration, capacity int) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		ttl:      ttl,
		capacity: capacity,
		entries:  make(map[string]entry),
		now:      time.Now,
	}
}

// Get returns the cached payload for key, or false when absent or stale.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) > c.ttl {
		return nil, false
	}
	return e.payload, true
}

// Set stores a payload, evicting the oldest entry when a new key would push
// the cache past capacity.
func (c *Cache) Set(key string, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictOldestLocked()
	}

	c.entries[key] = entry{payload: payload, storedAt: c.now()}
}

// Len reports the current entry count, stale entries included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) evictOldestLocked() {
	oldestKey := ""
	var oldestAt time.Time
	for key, e := range c.entries {
		if oldestKey == "" || e.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = e.storedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
