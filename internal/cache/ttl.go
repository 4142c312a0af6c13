package cache

import (
	"sync"
	"time"

	"github.com/jjfiecas-stack/sootio-sub001/internal/domain"
	"github.com/samber/mo"
)

// TTLCache is a concurrency-safe in-memory cache with lazy expiry.
// An entry is served only while now - StoredAt < ttl; stale entries stay in
// the map until overwritten or evicted to make room.
type TTLCache[T any] struct {
	mu         sync.RWMutex
	entries    map[string]Entry[T]
	ttl        time.Duration
	maxEntries int
	clock      Clock
}

// TTLOption configures a TTLCache
type TTLOption func(*ttlConfig)

type ttlConfig struct {
	maxEntries int
	clock      Clock
}

// WithClock injects the time source
func WithClock(c Clock) TTLOption {
	return func(cfg *ttlConfig) {
		if c != nil {
			cfg.clock = c
		}
	}
}

// WithMaxEntries bounds the number of stored entries; zero means unbounded
func WithMaxEntries(n int) TTLOption {
	return func(cfg *ttlConfig) {
		cfg.maxEntries = n
	}
}

// NewTTLCache creates a cache whose entries are valid for ttl
func NewTTLCache[T any](ttl time.Duration, opts ...TTLOption) *TTLCache[T] {
	cfg := ttlConfig{clock: SystemClock}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &TTLCache[T]{
		entries:    make(map[string]Entry[T]),
		ttl:        ttl,
		maxEntries: cfg.maxEntries,
		clock:      cfg.clock,
	}
}

// Get returns the value stored under key if it is still fresh
func (c *TTLCache[T]) Get(key string) mo.Option[T] {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !entry.FreshAt(c.clock.Now(), c.ttl) {
		return mo.None[T]()
	}
	return mo.Some(entry.Data)
}

// Put stores value under key, stamped with the current time
func (c *TTLCache[T]) Put(key string, value T) {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictLocked(now)
	}
	c.entries[key] = Entry[T]{Data: value, StoredAt: now}
}

// evictLocked drops every stale entry, or the oldest one when none are stale
func (c *TTLCache[T]) evictLocked(now time.Time) {
	var (
		oldestKey string
		oldestAt  time.Time
		removed   bool
	)

	for k, e := range c.entries {
		if !e.FreshAt(now, c.ttl) {
			delete(c.entries, k)
			removed = true
			continue
		}
		if oldestKey == "" || e.StoredAt.Before(oldestAt) {
			oldestKey, oldestAt = k, e.StoredAt
		}
	}

	if !removed && oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// Len returns the number of stored entries, stale ones included
func (c *TTLCache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// TTL returns the configured entry lifetime
func (c *TTLCache[T]) TTL() time.Duration {
	return c.ttl
}

// Session groups the typed caches shared by one process
type Session struct {
	Options  *TTLCache[[]domain.DownloadOption]
	Episodes *TTLCache[[]domain.DownloadOption]
	Pages    *TTLCache[*domain.ContentPage]
	Hops     *TTLCache[string]
}

// NewSession creates the namespaced caches with a shared ttl, bound and clock
func NewSession(ttl time.Duration, opts ...TTLOption) *Session {
	return &Session{
		Options:  NewTTLCache[[]domain.DownloadOption](ttl, opts...),
		Episodes: NewTTLCache[[]domain.DownloadOption](ttl, opts...),
		Pages:    NewTTLCache[*domain.ContentPage](ttl, opts...),
		Hops:     NewTTLCache[string](ttl, opts...),
	}
}
