// Package dedupe remembers recently answered request ids so redelivered
// Kafka messages are acknowledged without repeating the search.
package dedupe

import (
	"sync"
	"time"
)

type seen struct {
	id string
	at time.Time
}

// Cache is a bounded, TTL-limited set of ids. Safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	items    map[string]time.Time
	queue    []seen
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

// NewCache creates a cache holding at most capacity ids for ttl each.
// Non-positive values fall back to 1 and one hour.
func NewCache(capacity int, ttl time.Duration) *Cache {
	return newCache(capacity, ttl, time.Now)
}

func newCache(capacity int, ttl time.Duration, now func() time.Time) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{
		items:    make(map[string]time.Time, capacity),
		queue:    make([]seen, 0, capacity),
		capacity: capacity,
		ttl:      ttl,
		now:      now,
	}
}

// IsSeen reports whether id was marked within the ttl window. It does not
// mark the id.
func (c *Cache) IsSeen(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	at, ok := c.items[id]
	return ok && c.now().Sub(at) <= c.ttl
}

// MarkSeen records id as answered.
func (c *Cache) MarkSeen(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.items[id] = now
	c.queue = append(c.queue, seen{id: id, at: now})
	c.evict(now)
}

// Len returns the number of ids currently tracked.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// evict drops the oldest entries while over capacity or past the ttl.
// A queue entry superseded by a later MarkSeen of the same id is skipped.
func (c *Cache) evict(now time.Time) {
	cutoff := now.Add(-c.ttl)
	for len(c.queue) > 0 && (len(c.items) > c.capacity || c.queue[0].at.Before(cutoff)) {
		oldest := c.queue[0]
		c.queue = c.queue[1:]
		if at, ok := c.items[oldest.id]; ok && at.Equal(oldest.at) {
			delete(c.items, oldest.id)
		}
	}
}
