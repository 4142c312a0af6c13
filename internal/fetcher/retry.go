package fetcher

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jjfiecas-stack/sootio-sub001/internal/domain"
)

// Retrier retries retryable fetch errors with exponential backoff.
// A Retry-After hint from the server stretches the next wait up to MaxInterval.
type Retrier struct {
	maxRetries      int
	initialInterval time.Duration
	maxInterval     time.Duration
	multiplier      float64
	onRetry         func(err error, wait time.Duration)
}

// RetrierOptions contains options for creating a Retrier
type RetrierOptions struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	// OnRetry is called before each wait; nil disables it
	OnRetry func(err error, wait time.Duration)
}

// DefaultRetrierOptions returns default retrier options
func DefaultRetrierOptions() RetrierOptions {
	return RetrierOptions{
		MaxRetries:      2,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      2.0,
	}
}

// NewRetrier creates a new Retrier with the given options
func NewRetrier(opts RetrierOptions) *Retrier {
	defaults := DefaultRetrierOptions()
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = defaults.InitialInterval
	}
	if opts.MaxInterval <= 0 {
		opts.MaxInterval = defaults.MaxInterval
	}
	if opts.Multiplier <= 0 {
		opts.Multiplier = defaults.Multiplier
	}

	return &Retrier{
		maxRetries:      opts.MaxRetries,
		initialInterval: opts.InitialInterval,
		maxInterval:     opts.MaxInterval,
		multiplier:      opts.Multiplier,
		onRetry:         opts.OnRetry,
	}
}

// hintedBackOff lets a server-provided delay override the computed one once
type hintedBackOff struct {
	backoff.BackOff
	hint time.Duration
	max  time.Duration
}

func (h *hintedBackOff) NextBackOff() time.Duration {
	next := h.BackOff.NextBackOff()
	if next != backoff.Stop && h.hint > next {
		next = min(h.hint, h.max)
	}
	h.hint = 0
	return next
}

func (r *Retrier) newBackoff() *hintedBackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = r.initialInterval
	exp.MaxInterval = r.maxInterval
	exp.Multiplier = r.multiplier
	exp.RandomizationFactor = 0.5
	exp.MaxElapsedTime = 0
	exp.Reset()

	return &hintedBackOff{
		BackOff: backoff.WithMaxRetries(exp, uint64(r.maxRetries)),
		max:     r.maxInterval,
	}
}

// Retry runs operation until it succeeds, fails permanently, runs out of
// retries, or ctx is done
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	b := r.newBackoff()

	var notify backoff.Notify
	if r.onRetry != nil {
		notify = r.onRetry
	}

	return backoff.RetryNotify(func() error {
		err := operation()
		if err == nil {
			return nil
		}
		if !domain.IsRetryable(err) {
			return backoff.Permanent(err)
		}

		var retryable *domain.RetryableError
		if errors.As(err, &retryable) && retryable.RetryAfter > 0 {
			b.hint = time.Duration(retryable.RetryAfter) * time.Second
		}
		return err
	}, backoff.WithContext(b, ctx), notify)
}

// ParseRetryAfter parses the Retry-After header value, in seconds or as an HTTP date
func ParseRetryAfter(retryAfter string) time.Duration {
	retryAfter = strings.TrimSpace(retryAfter)
	if retryAfter == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil {
		return time.Duration(max(seconds, 0)) * time.Second
	}

	if at, err := http.ParseTime(retryAfter); err == nil {
		return max(time.Until(at), 0)
	}
	return 0
}
