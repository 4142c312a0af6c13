// Package validator checks that terminal URLs point at seekable media.
package validator

import (
	"context"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jjfiecas-stack/sootio-sub001/internal/domain"
	"github.com/jjfiecas-stack/sootio-sub001/internal/utils"
)

// DefaultTimeout bounds one range probe
const DefaultTimeout = 8 * time.Second

// Validator probes a URL with a one-byte range request
type Validator struct {
	fetcher domain.Fetcher
	logger  *utils.Logger
}

// Ensure Validator implements domain.Validator
var _ domain.Validator = (*Validator)(nil)

// New creates a Validator
func New(fetcher domain.Fetcher, logger *utils.Logger) *Validator {
	return &Validator{
		fetcher: fetcher,
		logger:  logger.OrNop().WithComponent("validator"),
	}
}

// Validate requests the first byte of rawURL. The URL is valid when the server
// honors the range with a non-HTML body: 206, or 200 advertising
// "Accept-Ranges: bytes". opts.RequirePartialContent accepts 206 only.
func (v *Validator) Validate(ctx context.Context, rawURL string, opts domain.ValidateOptions) domain.Validation {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	resp, err := v.fetcher.Do(ctx, &domain.Request{
		URL: rawURL,
		Headers: map[string]string{
			"Range":           "bytes=0-0",
			"Accept-Encoding": "identity",
		},
		Timeout:      timeout,
		MaxBodyBytes: 1,
		NoCache:      true,
	})
	if err != nil {
		v.logger.Debug().Err(err).Str("url", rawURL).Msg("Range probe failed")
		return domain.Validation{StatusCode: domain.StatusCode(err)}
	}

	result := domain.Validation{
		StatusCode:    resp.StatusCode,
		Filename:      filenameOf(resp.Headers, rawURL),
		ContentLength: contentLength(resp.Headers),
	}

	switch {
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
	case opts.RequirePartialContent && resp.StatusCode != http.StatusPartialContent:
	case resp.StatusCode != http.StatusPartialContent && !acceptsRanges(resp.Headers):
	case isHTML(resp.ContentType):
	default:
		result.IsValid = true
	}

	if !result.IsValid {
		v.logger.Debug().
			Str("url", rawURL).
			Int("status", resp.StatusCode).
			Str("content_type", resp.ContentType).
			Msg("Not seekable")
	}
	return result
}

// acceptsRanges reports whether a full response still advertises byte ranges
func acceptsRanges(h http.Header) bool {
	for _, unit := range strings.Split(h.Get("Accept-Ranges"), ",") {
		if strings.EqualFold(strings.TrimSpace(unit), "bytes") {
			return true
		}
	}
	return false
}

func isHTML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "text/html")
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// contentLength prefers the total of a Content-Range header over Content-Length,
// which only counts the probed range
func contentLength(h http.Header) int64 {
	if cr := h.Get("Content-Range"); cr != "" {
		if i := strings.LastIndexByte(cr, '/'); i >= 0 {
			if n, err := strconv.ParseInt(strings.TrimSpace(cr[i+1:]), 10, 64); err == nil {
				return n
			}
		}
	}
	if n, err := strconv.ParseInt(h.Get("Content-Length"), 10, 64); err == nil && n > 1 {
		return n
	}
	return 0
}

func filenameOf(h http.Header, rawURL string) string {
	if cd := h.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			return params["filename"]
		}
	}
	return utils.PathBase(rawURL)
}
