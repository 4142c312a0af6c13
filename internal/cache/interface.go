package cache

import (
	"time"

	"github.com/jjfiecas-stack/sootio-sub001/internal/domain"
)

// Ensure BadgerCache implements domain.Cache
var _ domain.Cache = (*BadgerCache)(nil)

// Clock reports the current time. Tests substitute a fake.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock
var SystemClock Clock = systemClock{}

// ClockFunc adapts a function to Clock
type ClockFunc func() time.Time

// Now calls f
func (f ClockFunc) Now() time.Time { return f() }

// Entry is a cached value and the instant it was stored
type Entry[T any] struct {
	Data     T
	StoredAt time.Time
}

// FreshAt reports whether the entry is still valid at now for the given ttl
func (e Entry[T]) FreshAt(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.StoredAt) < ttl
}

// Options contains body cache configuration options
type Options struct {
	// MaxBodyBytes skips caching bodies larger than this; zero caches everything
	MaxBodyBytes int64
	// Compress stores values zstd-compressed
	Compress bool
	Logger   bool
}

// DefaultOptions returns default body cache options
func DefaultOptions() Options {
	return Options{
		MaxBodyBytes: 4 << 20,
		Compress:     true,
		Logger:       false,
	}
}
