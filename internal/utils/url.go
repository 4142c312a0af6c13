package utils

import (
	"net/url"
	"path"
	"strings"
)

// AbsoluteURL resolves href against base and reports whether the result is
// a usable http(s) link. Fragments, javascript: and mailto: links are rejected.
func AbsoluteURL(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}

	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") ||
		strings.HasPrefix(lower, "mailto:") ||
		strings.HasPrefix(lower, "tel:") {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return "", false
	}
	if ref.Host == "" {
		return "", false
	}

	ref.Fragment = ""
	return ref.String(), true
}

// GetDomain extracts the domain from a URL
func GetDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// IsSameDomain checks if two URLs have the same domain
func IsSameDomain(url1, url2 string) bool {
	return strings.EqualFold(GetDomain(url1), GetDomain(url2))
}

// IsHTTPURL checks if a URL uses HTTP or HTTPS scheme
func IsHTTPURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// PathBase returns the unescaped last path segment of a URL, or ""
func PathBase(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	p := strings.TrimSuffix(u.Path, "/")
	if p == "" {
		return ""
	}
	base := path.Base(p)
	if unescaped, err := url.PathUnescape(base); err == nil {
		return unescaped
	}
	return base
}

// RedactURL drops the query and userinfo of a URL for logging. Signed
// object-storage links carry their credentials in the query.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.User = nil
	if u.RawQuery != "" {
		u.RawQuery = "redacted"
	}
	u.Fragment = ""
	return u.String()
}
