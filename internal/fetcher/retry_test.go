package fetcher

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jjfiecas-stack/sootio-sub001/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestDefaultRetrierOptions(t *testing.T) {
	opts := DefaultRetrierOptions()

	assert.Equal(t, 2, opts.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, opts.InitialInterval)
	assert.Equal(t, 5*time.Second, opts.MaxInterval)
	assert.Equal(t, 2.0, opts.Multiplier)
}

func TestNewRetrier(t *testing.T) {
	tests := []struct {
		name  string
		opts  RetrierOptions
		check func(t *testing.T, r *Retrier)
	}{
		{
			name: "valid options",
			opts: RetrierOptions{MaxRetries: 5, InitialInterval: 2 * time.Second, MaxInterval: time.Minute, Multiplier: 3},
			check: func(t *testing.T, r *Retrier) {
				assert.Equal(t, 5, r.maxRetries)
				assert.Equal(t, 2*time.Second, r.initialInterval)
				assert.Equal(t, time.Minute, r.maxInterval)
				assert.Equal(t, 3.0, r.multiplier)
			},
		},
		{
			name: "negative retries clamp to zero",
			opts: RetrierOptions{MaxRetries: -1},
			check: func(t *testing.T, r *Retrier) {
				assert.Equal(t, 0, r.maxRetries)
			},
		},
		{
			name: "zero values take defaults",
			opts: RetrierOptions{},
			check: func(t *testing.T, r *Retrier) {
				assert.Equal(t, 500*time.Millisecond, r.initialInterval)
				assert.Equal(t, 5*time.Second, r.maxInterval)
				assert.Equal(t, 2.0, r.multiplier)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, NewRetrier(tt.opts))
		})
	}
}

func TestRetrier_Retry(t *testing.T) {
	fast := RetrierOptions{MaxRetries: 3, InitialInterval: 5 * time.Millisecond, MaxInterval: 20 * time.Millisecond, Multiplier: 2}
	unavailable := &domain.RetryableError{Err: &domain.FetchError{StatusCode: 503, Err: http.ErrHandlerTimeout}}

	t.Run("succeeds on first attempt", func(t *testing.T) {
		attempts := 0
		err := NewRetrier(fast).Retry(context.Background(), func() error {
			attempts++
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("retries retryable error", func(t *testing.T) {
		attempts := 0
		err := NewRetrier(fast).Retry(context.Background(), func() error {
			attempts++
			if attempts < 2 {
				return unavailable
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 2, attempts)
	})

	t.Run("permanent error stops immediately", func(t *testing.T) {
		attempts := 0
		notFound := &domain.FetchError{StatusCode: 404, Err: errors.New("HTTP 404")}
		err := NewRetrier(fast).Retry(context.Background(), func() error {
			attempts++
			return notFound
		})
		assert.ErrorIs(t, err, notFound)
		assert.Equal(t, 1, attempts)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		attempts := 0
		err := NewRetrier(fast).Retry(context.Background(), func() error {
			attempts++
			return unavailable
		})
		assert.Error(t, err)
		assert.Equal(t, 4, attempts)
	})
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected time.Duration
	}{
		{"seconds value", "120", 120 * time.Second},
		{"empty string", "", 0},
		{"zero value", "0", 0},
		{"garbage", "soon", 0},
		{"past date", "Wed, 21 Oct 2015 07:28:00 GMT", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseRetryAfter(tt.header))
		})
	}

	t.Run("future date", func(t *testing.T) {
		at := time.Now().Add(time.Hour).UTC().Format(http.TimeFormat)
		d := ParseRetryAfter(at)
		assert.Greater(t, d, 58*time.Minute)
		assert.LessOrEqual(t, d, time.Hour)
	})
}

func TestRetrier_RetryAfterHint(t *testing.T) {
	var waits []time.Duration
	r := NewRetrier(RetrierOptions{
		MaxRetries:      1,
		InitialInterval: time.Millisecond,
		MaxInterval:     30 * time.Millisecond,
		Multiplier:      1,
		OnRetry: func(_ error, wait time.Duration) {
			waits = append(waits, wait)
		},
	})

	throttled := &domain.RetryableError{Err: &domain.FetchError{StatusCode: 429, Err: domain.ErrRateLimited}, RetryAfter: 60}
	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		if attempts == 1 {
			return throttled
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, attempts)
	// the hint is capped at MaxInterval
	assert.Equal(t, []time.Duration{30 * time.Millisecond}, waits)
}

func TestRetrier_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := NewRetrier(RetrierOptions{MaxRetries: 5, InitialInterval: time.Millisecond}).Retry(ctx, func() error {
		attempts++
		return &domain.RetryableError{Err: errors.New("busy")}
	})

	assert.Error(t, err)
	assert.LessOrEqual(t, attempts, 1)
}
