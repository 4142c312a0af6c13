package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")

	// ErrCacheMiss indicates a cache miss
	ErrCacheMiss = errors.New("cache miss")

	// ErrRateLimited indicates rate limiting was encountered
	ErrRateLimited = errors.New("rate limited")

	// ErrBlocked indicates the request was blocked (e.g., by Cloudflare)
	ErrBlocked = errors.New("request blocked")

	// ErrTimeout indicates a timeout occurred
	ErrTimeout = errors.New("timeout")

	// ErrInvalidURL indicates an invalid URL was provided
	ErrInvalidURL = errors.New("invalid URL")

	// ErrNoDocument indicates a page could not be parsed as HTML
	ErrNoDocument = errors.New("no document")

	// ErrNoCandidates indicates a wrapper page listed nothing usable
	ErrNoCandidates = errors.New("no candidates")

	// ErrHopLimit indicates wrapper resolution exceeded its hop budget
	ErrHopLimit = errors.New("hop limit reached")

	// ErrNotSeekable indicates a terminal URL failed the byte-range check
	ErrNotSeekable = errors.New("not seekable")
)

// FetchError represents an error during fetching
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a new FetchError
func NewFetchError(url string, statusCode int, err error) *FetchError {
	return &FetchError{
		URL:        url,
		StatusCode: statusCode,
		Err:        err,
	}
}

// RetryableError marks a failure worth another attempt
type RetryableError struct {
	Err error
	// RetryAfter is the server's requested delay in seconds; 0 if unknown
	RetryAfter int
}

func (e *RetryableError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("retryable error (retry after %ds): %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("retryable error: %v", e.Err)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// RetryableStatus reports whether an HTTP status is transient: throttling,
// gateway failures and Cloudflare origin errors (520-530)
func RetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return code >= 520 && code <= 530
}

// IsRetryable reports whether err is transient
func IsRetryable(err error) bool {
	var retryable *RetryableError
	if errors.As(err, &retryable) {
		return true
	}
	if RetryableStatus(StatusCode(err)) {
		return true
	}
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTimeout)
}

// StatusCode extracts the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.StatusCode
	}
	return 0
}
