// Package cache provides the time-boxed memoization used to bound the poll
// rate against the vendor API. Eviction is purely by age; the key space is
// bounded by vehicle-ID-set identity, so there is no size limit or LRU.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	val     any
	expires time.Time
}

// Cache is a TTL-keyed store. Entries are written whole and read whole, so a
// concurrent reader never observes a half-written value.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry

	// overridable for tests
	now func() time.Time
}

// New returns a Cache whose entries live for ttl.
func New(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl, entries: map[string]entry{}, now: time.Now}
}

// Get returns the live value under key, if any. Expired entries are removed
// on the way out.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return e.val, true
}

// Set stores val under key with a fresh TTL.
func (c *Cache) Set(key string, val any) {
	c.mu.Lock()
	c.entries[key] = entry{val: val, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Clear drops every entry. Used by the manual full-refresh path.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = map[string]entry{}
	c.mu.Unlock()
}

// Len reports live plus not-yet-evicted entries; for tests and debugging.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
