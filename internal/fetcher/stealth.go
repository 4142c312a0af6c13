package fetcher

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/samber/lo"
)

// Profile selects which browser request a fetch imitates
type Profile int

const (
	// ProfileDocument is a top-level page navigation
	ProfileDocument Profile = iota
	// ProfileMedia is a player probing a media file with a byte range
	ProfileMedia
)

// UserAgents is the desktop browser pool. Chrome dominates because the TLS
// fingerprint is Chrome's.
var UserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36 Edg/131.0.0.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:132.0) Gecko/20100101 Firefox/132.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.6 Safari/605.1.15",
}

// AcceptLanguages are common Accept-Language header values
var AcceptLanguages = []string{
	"en-US,en;q=0.9",
	"en-GB,en;q=0.9,en-US;q=0.8",
	"en-US,en;q=0.9,hi;q=0.8",
	"en-IN,en;q=0.9,hi;q=0.8",
}

var chromeVersion = regexp.MustCompile(`Chrome/(\d+)`)

// RandomUserAgent returns a random user agent from the pool
func RandomUserAgent() string {
	return lo.Sample(UserAgents)
}

// StealthHeaders returns the headers a browser sends for the given profile
func StealthHeaders(userAgent string, profile Profile) map[string]string {
	if userAgent == "" {
		userAgent = RandomUserAgent()
	}

	headers := map[string]string{
		"User-Agent":      userAgent,
		"Accept-Language": lo.Sample(AcceptLanguages),
	}

	switch profile {
	case ProfileMedia:
		headers["Accept"] = "*/*"
		headers["Sec-Fetch-Dest"] = "video"
		headers["Sec-Fetch-Mode"] = "no-cors"
		headers["Sec-Fetch-Site"] = "cross-site"
	default:
		headers["Accept"] = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"
		headers["Accept-Encoding"] = "gzip, deflate, br, zstd"
		headers["Cache-Control"] = "no-cache"
		headers["Sec-Fetch-Dest"] = "document"
		headers["Sec-Fetch-Mode"] = "navigate"
		headers["Sec-Fetch-Site"] = "none"
		headers["Sec-Fetch-User"] = "?1"
		headers["Upgrade-Insecure-Requests"] = "1"
	}

	if major, ok := chromeMajor(userAgent); ok {
		headers["Sec-CH-UA"] = fmt.Sprintf(`"Google Chrome";v="%s", "Chromium";v="%s", "Not_A Brand";v="24"`, major, major)
		headers["Sec-CH-UA-Mobile"] = "?0"
		headers["Sec-CH-UA-Platform"] = platformOf(userAgent)
	}

	return headers
}

// profileFor picks the header profile from the caller's own headers
func profileFor(requestHeaders map[string]string) Profile {
	for k := range requestHeaders {
		if strings.EqualFold(k, "Range") {
			return ProfileMedia
		}
	}
	return ProfileDocument
}

func chromeMajor(userAgent string) (string, bool) {
	m := chromeVersion.FindStringSubmatch(userAgent)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func platformOf(userAgent string) string {
	switch {
	case strings.Contains(userAgent, "Windows"):
		return `"Windows"`
	case strings.Contains(userAgent, "Mac OS"):
		return `"macOS"`
	default:
		return `"Linux"`
	}
}
