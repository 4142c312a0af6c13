package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestTTLCache_Expiry(t *testing.T) {
	const ttl = 10 * time.Minute

	tests := []struct {
		name    string
		elapsed time.Duration
		hit     bool
	}{
		{"immediately", 0, true},
		{"one millisecond before ttl", ttl - time.Millisecond, true},
		{"exactly ttl", ttl, false},
		{"one millisecond after ttl", ttl + time.Millisecond, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			c := NewTTLCache[string](ttl, WithClock(clock))

			c.Put("k", "v")
			clock.Advance(tt.elapsed)

			got := c.Get("k")
			assert.Equal(t, tt.hit, got.IsPresent())
			if tt.hit {
				assert.Equal(t, "v", got.MustGet())
			}
		})
	}
}

func TestTTLCache_LazyExpiry(t *testing.T) {
	clock := newFakeClock()
	c := NewTTLCache[int](time.Second, WithClock(clock))

	c.Put("a", 1)
	clock.Advance(2 * time.Second)

	assert.True(t, c.Get("a").IsAbsent())
	assert.Equal(t, 1, c.Len(), "stale entries are not removed on read")

	c.Put("a", 2)
	assert.Equal(t, 2, c.Get("a").MustGet())
}

func TestTTLCache_Miss(t *testing.T) {
	c := NewTTLCache[string](time.Minute)
	assert.True(t, c.Get("nope").IsAbsent())
	assert.Equal(t, time.Minute, c.TTL())
}

func TestTTLCache_MaxEntries(t *testing.T) {
	t.Run("evicts oldest when all fresh", func(t *testing.T) {
		clock := newFakeClock()
		c := NewTTLCache[int](time.Hour, WithClock(clock), WithMaxEntries(2))

		c.Put("a", 1)
		clock.Advance(time.Second)
		c.Put("b", 2)
		clock.Advance(time.Second)
		c.Put("c", 3)

		assert.Equal(t, 2, c.Len())
		assert.True(t, c.Get("a").IsAbsent())
		assert.True(t, c.Get("b").IsPresent())
		assert.True(t, c.Get("c").IsPresent())
	})

	t.Run("evicts stale entries first", func(t *testing.T) {
		clock := newFakeClock()
		c := NewTTLCache[int](time.Minute, WithClock(clock), WithMaxEntries(2))

		c.Put("old", 1)
		clock.Advance(2 * time.Minute)
		c.Put("fresh", 2)
		c.Put("new", 3)

		assert.Equal(t, 2, c.Len())
		assert.True(t, c.Get("fresh").IsPresent())
		assert.True(t, c.Get("new").IsPresent())
	})

	t.Run("overwrite does not evict", func(t *testing.T) {
		c := NewTTLCache[int](time.Hour, WithMaxEntries(1))
		c.Put("a", 1)
		c.Put("a", 2)
		assert.Equal(t, 1, c.Len())
		assert.Equal(t, 2, c.Get("a").MustGet())
	})
}

func TestTTLCache_Concurrent(t *testing.T) {
	c := NewTTLCache[int](time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%5)
			c.Put(key, i)
			_ = c.Get(key)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, c.Len())
}

func TestNewSession(t *testing.T) {
	clock := newFakeClock()
	s := NewSession(time.Minute, WithClock(clock))
	require.NotNil(t, s.Options)
	require.NotNil(t, s.Episodes)
	require.NotNil(t, s.Pages)
	require.NotNil(t, s.Hops)

	s.Hops.Put(HopKey("https://a.example/file/1", ""), "https://b.example/x.mkv")
	clock.Advance(time.Minute)
	assert.True(t, s.Hops.Get(HopKey("https://a.example/file/1", "")).IsAbsent())
}

func TestClockFunc(t *testing.T) {
	fixed := time.Unix(100, 0)
	var c Clock = ClockFunc(func() time.Time { return fixed })
	assert.Equal(t, fixed, c.Now())
	assert.WithinDuration(t, time.Now(), SystemClock.Now(), time.Second)
}
