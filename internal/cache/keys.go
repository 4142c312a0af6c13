package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"path"
	"strings"

	"github.com/jjfiecas-stack/sootio-sub001/internal/domain"
)

// KeyPrefix constants for the cache namespaces
const (
	PrefixBody    = "body"
	PrefixOptions = "options"
	PrefixEpisode = "episode"
	PrefixMeta    = "meta"
	PrefixHop     = "hop"
)

// GenerateKey generates a cache key from a URL.
// The key is a SHA256 hash of the normalized URL.
func GenerateKey(rawURL string) string {
	normalized := normalizeForKey(rawURL)
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:])
}

// GenerateKeyWithPrefix generates a cache key with a prefix
func GenerateKeyWithPrefix(prefix, rawURL string) string {
	return prefix + ":" + GenerateKey(rawURL)
}

// normalizeForKey normalizes a URL for consistent key generation
func normalizeForKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	if u.Scheme == "" {
		u.Scheme = "https"
	}

	u.Host = strings.ToLower(u.Host)

	// Remove default ports
	if (u.Scheme == "http" && u.Port() == "80") ||
		(u.Scheme == "https" && u.Port() == "443") {
		u.Host = u.Hostname()
	}

	if u.Path == "" {
		u.Path = "/"
	} else {
		u.Path = path.Clean(u.Path)
	}

	u.Fragment = ""

	return u.String()
}

// BodyKey generates a cache key for a raw page body
func BodyKey(url string) string {
	return GenerateKeyWithPrefix(PrefixBody, url)
}

// OptionsKey generates a cache key for the options extracted from a page
func OptionsKey(url string) string {
	return GenerateKeyWithPrefix(PrefixOptions, url)
}

// EpisodeKey generates a cache key for a page's options filtered to one episode
func EpisodeKey(url string, ep domain.Episode) string {
	return GenerateKeyWithPrefix(PrefixEpisode, url) + ":" + ep.String()
}

// MetaKey generates a cache key for content page metadata
func MetaKey(url string) string {
	return GenerateKeyWithPrefix(PrefixMeta, url)
}

// HopKey generates a cache key for a resolver result under a quality hint
func HopKey(url, qualityHint string) string {
	return GenerateKeyWithPrefix(PrefixHop, url) + ":" + strings.ToLower(qualityHint)
}
