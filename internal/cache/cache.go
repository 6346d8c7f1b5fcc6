// Package cache provides a bounded, time-boxed cache.
//
// Capacity is enforced by least-recently-used eviction (hashicorp/golang-lru).
// Expiry is lazy: an entry older than the TTL is reported as a miss on lookup and
// is left for the LRU to push out, so there is no background sweeper.
package cache

import (
	"fmt"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sakif/readme-widgets/internal/clock"
)

// TTL is safe for concurrent use.
type TTL[K comparable, V any] struct {
	entries *lru.Cache[K, entry[V]]
	ttl     time.Duration
	clock   clock.Clock

	hits   atomic.Int64
	misses atomic.Int64

	// OnLookup, when set, observes every Get (metrics hook).
	OnLookup func(hit bool)
}

type entry[V any] struct {
	value    V
	storedAt time.Time
	ttl      time.Duration
}

// Stats is a point-in-time view of cache effectiveness.
type Stats struct {
	Hits   int64
	Misses int64
	Len    int
}

// New creates a cache holding at most capacity entries, each valid for ttl.
func New[K comparable, V any](capacity int, ttl time.Duration, c clock.Clock) (*TTL[K, V], error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("cache: ttl must be positive, got %s", ttl)
	}
	if c == nil {
		c = clock.Real()
	}
	entries, err := lru.New[K, entry[V]](capacity)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return &TTL[K, V]{entries: entries, ttl: ttl, clock: c}, nil
}

// Get returns the value for key if present and younger than its TTL.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	v, _, ok := c.GetWithAge(key)
	return v, ok
}

// GetWithAge is Get plus the age of the entry.
func (c *TTL[K, V]) GetWithAge(key K) (V, time.Duration, bool) {
	var zero V

	// Peek first so an expired entry does not get promoted to most-recently-used.
	e, ok := c.entries.Peek(key)
	if !ok {
		c.record(false)
		return zero, 0, false
	}
	age := c.clock.Now().Sub(e.storedAt)
	if age >= e.ttl {
		c.record(false)
		return zero, 0, false
	}
	c.entries.Get(key)
	c.record(true)
	return e.value, age, true
}

// Add stores value under key, evicting the least recently used entry when full.
// It reports whether an eviction happened.
func (c *TTL[K, V]) Add(key K, value V) bool {
	return c.AddFor(key, value, c.ttl)
}

// AddFor is Add with a lifetime for this entry only. It is capped at the cache TTL.
func (c *TTL[K, V]) AddFor(key K, value V, ttl time.Duration) bool {
	if ttl <= 0 || ttl > c.ttl {
		ttl = c.ttl
	}
	return c.entries.Add(key, entry[V]{value: value, storedAt: c.clock.Now(), ttl: ttl})
}

// Remove drops key and reports whether it was present.
func (c *TTL[K, V]) Remove(key K) bool {
	return c.entries.Remove(key)
}

// RemoveFunc drops every key for which match returns true and returns the count.
func (c *TTL[K, V]) RemoveFunc(match func(K) bool) int {
	n := 0
	for _, k := range c.entries.Keys() {
		if match(k) && c.entries.Remove(k) {
			n++
		}
	}
	return n
}

// RemoveWhere drops every entry for which match returns true, expired ones
// included, and returns the count.
func (c *TTL[K, V]) RemoveWhere(match func(K, V) bool) int {
	n := 0
	for _, k := range c.entries.Keys() {
		e, ok := c.entries.Peek(k)
		if ok && match(k, e.value) && c.entries.Remove(k) {
			n++
		}
	}
	return n
}

// Len counts stored entries, expired ones included.
func (c *TTL[K, V]) Len() int {
	return c.entries.Len()
}

// TTL returns the configured lifetime of an entry.
func (c *TTL[K, V]) TTL() time.Duration {
	return c.ttl
}

func (c *TTL[K, V]) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Len: c.entries.Len()}
}

func (c *TTL[K, V]) record(hit bool) {
	if hit {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	if c.OnLookup != nil {
		c.OnLookup(hit)
	}
}
