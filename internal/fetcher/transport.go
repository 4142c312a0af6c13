package fetcher

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/jjfiecas-stack/sootio-sub001/internal/domain"
)

// StealthTransport adapts the Client to http.RoundTripper so colly shares its
// TLS fingerprint, retries and body cache. HTTP error statuses come back as
// responses, not errors, the way net/http reports them.
type StealthTransport struct {
	client *Client
}

// NewStealthTransport creates a new StealthTransport
func NewStealthTransport(client *Client) *StealthTransport {
	return &StealthTransport{client: client}
}

// RoundTrip implements http.RoundTripper
func (t *StealthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	headers := make(map[string]string, len(req.Header))
	for k, v := range req.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	resp, err := t.client.Do(req.Context(), &domain.Request{
		URL:     req.URL.String(),
		Method:  req.Method,
		Headers: headers,
	})
	if err != nil {
		if status := domain.StatusCode(err); status > 0 {
			return newResponse(req, status, make(http.Header), nil), nil
		}
		return nil, err
	}

	// The body is already decoded; a leftover Content-Encoding would make
	// the caller try to decompress it again.
	resp.Headers.Del("Content-Encoding")
	if resp.Headers.Get("Content-Type") == "" && resp.ContentType != "" {
		resp.Headers.Set("Content-Type", resp.ContentType)
	}
	return newResponse(req, resp.StatusCode, resp.Headers, resp.Body), nil
}

func newResponse(req *http.Request, status int, header http.Header, body []byte) *http.Response {
	header.Set("Content-Length", strconv.Itoa(len(body)))
	return &http.Response{
		Status:        strconv.Itoa(status) + " " + http.StatusText(status),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}

// Transport returns the StealthTransport as http.RoundTripper
func (c *Client) Transport() http.RoundTripper {
	return NewStealthTransport(c)
}
