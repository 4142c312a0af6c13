package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/jjfiecas-stack/sootio-sub001/internal/cache"
	"github.com/jjfiecas-stack/sootio-sub001/internal/domain"
	"github.com/jjfiecas-stack/sootio-sub001/internal/utils"
)

// Ensure Client implements domain.Fetcher
var _ domain.Fetcher = (*Client)(nil)

// Client is a stealth HTTP client using tls-client
type Client struct {
	tlsClient    tls_client.HttpClient
	userAgent    string
	timeout      time.Duration
	retrier      *Retrier
	cache        domain.Cache
	cacheEnabled bool
	cacheTTL     time.Duration
	logger       *utils.Logger
}

// ClientOptions contains options for creating a Client
type ClientOptions struct {
	Timeout         time.Duration
	MaxRetries      int
	FollowRedirects bool
	EnableCache     bool
	CacheTTL        time.Duration
	Cache           domain.Cache
	UserAgent       string
	ProxyURL        string
	Logger          *utils.Logger
}

// DefaultClientOptions returns default client options
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		Timeout:         15 * time.Second,
		MaxRetries:      2,
		FollowRedirects: true,
		EnableCache:     true,
		CacheTTL:        10 * time.Minute,
		UserAgent:       "",
		ProxyURL:        "",
	}
}

// NewClient creates a new stealth HTTP client
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}

	// Hard ceiling for the transport; per-request deadlines come from the context
	tlsTimeout := opts.Timeout * 3
	if tlsTimeout < time.Minute {
		tlsTimeout = time.Minute
	}

	tlsOpts := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(int(tlsTimeout.Seconds())),
		tls_client.WithClientProfile(profiles.Chrome_131),
		tls_client.WithRandomTLSExtensionOrder(),
		tls_client.WithCookieJar(tls_client.NewCookieJar()),
	}

	if !opts.FollowRedirects {
		tlsOpts = append(tlsOpts, tls_client.WithNotFollowRedirects())
	}

	if opts.ProxyURL != "" {
		tlsOpts = append(tlsOpts, tls_client.WithProxyUrl(opts.ProxyURL))
	}

	tlsClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), tlsOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tls client: %w", err)
	}

	logger := opts.Logger.OrNop().WithComponent("fetcher")

	retrierOpts := DefaultRetrierOptions()
	retrierOpts.MaxRetries = opts.MaxRetries
	retrierOpts.OnRetry = func(err error, wait time.Duration) {
		logger.Debug().Err(err).Dur("wait", wait).Msg("Retrying fetch")
	}

	return &Client{
		tlsClient:    tlsClient,
		userAgent:    opts.UserAgent,
		timeout:      opts.Timeout,
		retrier:      NewRetrier(retrierOpts),
		cache:        opts.Cache,
		cacheEnabled: opts.EnableCache,
		cacheTTL:     opts.CacheTTL,
		logger:       logger,
	}, nil
}

// Get fetches a URL and parses it as HTML
func (c *Client) Get(ctx context.Context, rawURL string) (*domain.Response, error) {
	return c.Do(ctx, &domain.Request{URL: rawURL, ParseHTML: true})
}

// Do performs the request described by req.
// GETs without a Range header are served from and written to the body cache.
func (c *Client) Do(ctx context.Context, req *domain.Request) (*domain.Response, error) {
	if req == nil || !utils.IsHTTPURL(req.URL) {
		return nil, domain.ErrInvalidURL
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cacheable := c.isCacheable(req)
	if cacheable {
		if cached, err := c.getFromCache(ctx, req.URL); err == nil {
			return c.finish(cached, req)
		}
	}

	var resp *domain.Response
	err := c.retrier.Retry(ctx, func() error {
		var err error
		resp, err = c.doRequest(ctx, req)
		return err
	})
	if err != nil {
		if ctx.Err() != nil && !domain.IsRetryable(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrTimeout, err)
		}
		return nil, err
	}

	if cacheable && resp.StatusCode < 300 {
		if err := c.saveToCache(ctx, req.URL, resp); err != nil {
			c.logger.Debug().Err(err).Str("url", req.URL).Msg("Failed to cache body")
		}
	}

	return c.finish(resp, req)
}

func (c *Client) isCacheable(req *domain.Request) bool {
	if !c.cacheEnabled || c.cache == nil || req.NoCache || req.MaxBodyBytes > 0 {
		return false
	}
	if req.Method != "" && !strings.EqualFold(req.Method, http.MethodGet) {
		return false
	}
	for k := range req.Headers {
		if strings.EqualFold(k, "Range") {
			return false
		}
	}
	return true
}

// finish attaches a parsed document when the request asked for one
func (c *Client) finish(resp *domain.Response, req *domain.Request) (*domain.Response, error) {
	if !req.ParseHTML {
		return resp, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrNoDocument, resp.URL, err)
	}
	if u, err := url.Parse(resp.URL); err == nil {
		doc.Url = u
	}
	resp.Document = doc
	return resp, nil
}

// doRequest performs the actual HTTP request
func (c *Client) doRequest(ctx context.Context, req *domain.Request) (*domain.Response, error) {
	method := req.Method
	if method == "" {
		method = fhttp.MethodGet
	}

	httpReq, err := fhttp.NewRequestWithContext(ctx, method, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, v := range StealthHeaders(c.userAgent, profileFor(req.Headers)) {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.tlsClient.Do(httpReq)
	if err != nil {
		return nil, &domain.FetchError{
			URL: req.URL,
			Err: fmt.Errorf("request failed: %w", err),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		fetchErr := &domain.FetchError{
			URL:        req.URL,
			StatusCode: resp.StatusCode,
			Err:        statusError(resp.StatusCode),
		}
		if domain.RetryableStatus(resp.StatusCode) {
			return nil, &domain.RetryableError{
				Err:        fetchErr,
				RetryAfter: int(ParseRetryAfter(resp.Header.Get("Retry-After")).Seconds()),
			}
		}
		return nil, fetchErr
	}

	var reader io.Reader = resp.Body
	if req.MaxBodyBytes > 0 {
		reader = io.LimitReader(resp.Body, req.MaxBodyBytes)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	// Convert fhttp.Header to http.Header
	httpHeaders := make(http.Header, len(resp.Header))
	for k, v := range resp.Header {
		httpHeaders[k] = v
	}

	contentType := resp.Header.Get("Content-Type")
	if req.MaxBodyBytes <= 0 {
		body, err = DecodeBody(body, resp.Header.Get("Content-Encoding"), contentType)
		if err != nil {
			return nil, &domain.FetchError{URL: req.URL, StatusCode: resp.StatusCode, Err: err}
		}
	}

	finalURL := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &domain.Response{
		StatusCode:  resp.StatusCode,
		Body:        body,
		Headers:     httpHeaders,
		ContentType: contentType,
		URL:         finalURL,
		FromCache:   false,
	}, nil
}

// Close releases client resources
func (c *Client) Close() error {
	// tls-client has no Close; kept for interface compliance
	return nil
}

// cachedBody is what the body cache stores for one fetched page
type cachedBody struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
}

// getFromCache retrieves a response from cache. Entries that are not an
// encoded cachedBody are served as a raw body for rawURL.
func (c *Client) getFromCache(ctx context.Context, rawURL string) (*domain.Response, error) {
	data, err := c.cache.Get(ctx, cache.BodyKey(rawURL))
	if err != nil {
		return nil, err
	}

	entry := cachedBody{URL: rawURL, ContentType: "text/html", Body: data}
	var decoded cachedBody
	if json.Unmarshal(data, &decoded) == nil && decoded.URL != "" {
		entry = decoded
	}

	headers := make(http.Header)
	headers.Set("Content-Type", entry.ContentType)
	return &domain.Response{
		StatusCode:  http.StatusOK,
		Body:        entry.Body,
		Headers:     headers,
		ContentType: entry.ContentType,
		URL:         entry.URL,
		FromCache:   true,
	}, nil
}

// saveToCache stores the body with its final URL so relative links still
// resolve after a redirect
func (c *Client) saveToCache(ctx context.Context, rawURL string, resp *domain.Response) error {
	data, err := json.Marshal(cachedBody{URL: resp.URL, ContentType: resp.ContentType, Body: resp.Body})
	if err != nil {
		return err
	}
	return c.cache.Set(ctx, cache.BodyKey(rawURL), data, c.cacheTTL)
}

// SetCache sets the cache implementation
func (c *Client) SetCache(cache domain.Cache) {
	c.cache = cache
}

// SetCacheEnabled enables or disables caching
func (c *Client) SetCacheEnabled(enabled bool) {
	c.cacheEnabled = enabled
}

// statusError maps an HTTP error status to a sentinel where one applies
func statusError(status int) error {
	switch status {
	case http.StatusForbidden:
		return domain.ErrBlocked
	case http.StatusNotFound, http.StatusGone:
		return domain.ErrNotFound
	case http.StatusTooManyRequests:
		return domain.ErrRateLimited
	}
	return fmt.Errorf("HTTP %d", status)
}
