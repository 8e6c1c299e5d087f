package services

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// QueryCache keeps recent read results keyed by query ("poll:12",
// "polls:1:10:go") so repeated reads within the stale time skip the network.
// Mutations invalidate by key prefix.
type QueryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value    any
	storedAt time.Time
}

// NewQueryCache returns a cache whose entries go stale after ttl. A zero ttl
// disables caching.
func NewQueryCache(ttl time.Duration) *QueryCache {
	return &QueryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func (c *QueryCache) Get(key string) (any, bool) {
	if c == nil || c.ttl <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.storedAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return entry.value, true
}

func (c *QueryCache) Set(key string, value any) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, storedAt: c.now()}
}

// Invalidate drops every key equal to one of the prefixes or nested under it
// ("polls" drops "polls" and "polls:1:10:", but not "poll:3").
func (c *QueryCache) Invalidate(prefixes ...string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		for _, prefix := range prefixes {
			if key == prefix || strings.HasPrefix(key, prefix+":") {
				delete(c.entries, key)
				break
			}
		}
	}
}

func (c *QueryCache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

func pollKey(id int64) string        { return fmt.Sprintf("poll:%d", id) }
func pollResultsKey(id int64) string { return fmt.Sprintf("poll-results:%d", id) }
