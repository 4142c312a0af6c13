package domain

//go:generate mockgen -source=interfaces.go -destination=../mocks/domain.go -package=mocks

import (
	"context"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/mo"
)

// Fetcher is the fetch-and-parse adapter every component talks to
type Fetcher interface {
	// Get fetches a URL with default options
	Get(ctx context.Context, url string) (*Response, error)
	// Do performs a request described by req
	Do(ctx context.Context, req *Request) (*Response, error)
	// Transport returns an http.RoundTripper for integration with other HTTP clients (e.g., colly)
	Transport() http.RoundTripper
	// Close releases resources
	Close() error
}

// Request describes a single fetch
type Request struct {
	URL     string
	Method  string
	Headers map[string]string
	// ParseHTML asks the adapter to expose the body as a document
	ParseHTML bool
	// Timeout bounds this fetch only; zero uses the client default
	Timeout time.Duration
	// MaxBodyBytes caps how much of the body is read; zero reads everything
	MaxBodyBytes int64
	// NoCache bypasses the body cache for this request
	NoCache bool
}

// Response represents an HTTP response
type Response struct {
	StatusCode  int
	Body        []byte
	Headers     http.Header
	ContentType string
	// URL is the final URL after redirects
	URL       string
	FromCache bool
	// Document is set when the request asked for HTML parsing
	Document *goquery.Document
}

// Cache defines the interface for raw body caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores a value in cache with TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Has checks if a key exists in cache
	Has(ctx context.Context, key string) bool
	// Delete removes a key from cache
	Delete(ctx context.Context, key string) error
	// Close releases cache resources
	Close() error
}

// Resolver unwraps intermediary pages down to a terminal URL
type Resolver interface {
	Resolve(ctx context.Context, req ResolutionRequest) mo.Option[string]
}

// FilenameRecoverer looks up a human-readable name for an opaque hoster URL
type FilenameRecoverer interface {
	Recover(ctx context.Context, url string) mo.Option[FileInfo]
}

// Validator checks that a terminal URL is a seekable media resource
type Validator interface {
	Validate(ctx context.Context, url string, opts ValidateOptions) Validation
}

// MetadataProvider maps a title identifier to its canonical name and year
type MetadataProvider interface {
	GetMeta(ctx context.Context, mediaType MediaType, titleID string) (*Meta, error)
}

// Searcher finds candidate content pages for a query, best match first
type Searcher interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// ContentLoader loads a content detail page
type ContentLoader interface {
	LoadContentPage(ctx context.Context, url string) (*ContentPage, error)
}

// Formatter turns deduplicated streams into presentation-ready entries
type Formatter interface {
	Format(streams []TerminalStream) []StreamEntry
}
