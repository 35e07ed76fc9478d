// Package cache is the process-wide, time-expiring store shared by list
// controllers to memoize read results.
//
// Keys are namespaced by convention as "resourceType:operation:params"
// (e.g. "issues:list") so controllers of different resource types never
// collide. A read after expiry is a miss, not a stale hit; there is no
// sliding expiry.
package cache

import (
	"strings"
	"sync"
	"time"
)

// Key joins namespace parts with the mandatory ':' separator.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

type entry struct {
	value     any
	expiresAt time.Time
	gen       uint64
	timer     *time.Timer
}

// Cache is safe for concurrent use. Eviction runs on per-key timers; a
// generation counter per entry keeps a stale timer from evicting a value
// written by a later Set on the same key.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Set stores value under key for ttl. A pending eviction timer for the same
// key is cancelled and replaced.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok && old.timer != nil {
		old.timer.Stop()
	}

	e := &entry{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
	if old, ok := c.entries[key]; ok {
		e.gen = old.gen + 1
	}
	gen := e.gen
	e.timer = time.AfterFunc(ttl, func() { c.evict(key, gen) })
	c.entries[key] = e
}

// Get returns the value for key, or (nil, false) on a miss. An entry past
// its expiry is a miss even if its timer has not fired yet.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// Has reports whether key holds an unexpired value.
func (c *Cache) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Remove cancels the pending eviction and deletes the entry. No-op when the
// key is absent.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	delete(c.entries, key)
}

// Clear cancels all timers and empties the store. Used on logout/teardown.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		if e.timer != nil {
			e.timer.Stop()
		}
	}
	c.entries = make(map[string]*entry)
}

// Len returns the number of entries, expired-but-unevicted included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evict removes key only if the entry still belongs to the generation the
// timer was armed for.
func (c *Cache) evict(key string, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.gen != gen {
		return
	}
	delete(c.entries, key)
}
