package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jjfiecas-stack/sootio-sub001/internal/domain"
	"github.com/jjfiecas-stack/sootio-sub001/internal/utils"
)

// Default metadata endpoints
const (
	DefaultMetaURL     = "https://v3-cinemeta.strem.io"
	DefaultFallbackURL = "https://www.imdb.com"
)

var (
	yearPattern    = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	ogTitlePattern = regexp.MustCompile(`^(.*?)\s*\((?:[^)]*?)((?:19|20)\d{2})[^)]*\)`)
)

// CinemetaProvider looks titles up in a Cinemeta-compatible JSON API
type CinemetaProvider struct {
	fetcher domain.Fetcher
	baseURL string
}

// Ensure providers implement domain.MetadataProvider
var (
	_ domain.MetadataProvider = (*CinemetaProvider)(nil)
	_ domain.MetadataProvider = (*PageMetadataProvider)(nil)
	_ domain.MetadataProvider = (*ChainProvider)(nil)
)

// NewCinemetaProvider creates a provider for baseURL, or DefaultMetaURL when empty
func NewCinemetaProvider(f domain.Fetcher, baseURL string) *CinemetaProvider {
	if baseURL == "" {
		baseURL = DefaultMetaURL
	}
	return &CinemetaProvider{fetcher: f, baseURL: strings.TrimRight(baseURL, "/")}
}

type cinemetaResponse struct {
	Meta *struct {
		Name        string          `json:"name"`
		ReleaseInfo string          `json:"releaseInfo"`
		Year        json.RawMessage `json:"year"`
	} `json:"meta"`
}

// GetMeta implements domain.MetadataProvider
func (p *CinemetaProvider) GetMeta(ctx context.Context, mediaType domain.MediaType, titleID string) (*domain.Meta, error) {
	metaURL := fmt.Sprintf("%s/meta/%s/%s.json", p.baseURL, mediaType, titleID)

	resp, err := p.fetcher.Do(ctx, &domain.Request{
		URL:     metaURL,
		Headers: map[string]string{"Accept": "application/json"},
	})
	if err != nil {
		return nil, err
	}

	var body cinemetaResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, fmt.Errorf("failed to decode metadata for %s: %w", titleID, err)
	}
	if body.Meta == nil || strings.TrimSpace(body.Meta.Name) == "" {
		return nil, fmt.Errorf("%w: metadata for %s", domain.ErrNotFound, titleID)
	}

	year := parseYear(string(body.Meta.Year))
	if year == 0 {
		year = parseYear(body.Meta.ReleaseInfo)
	}
	return &domain.Meta{Name: strings.TrimSpace(body.Meta.Name), Year: year}, nil
}

// PageMetadataProvider reads the og:title of a title page keyed by its external id
type PageMetadataProvider struct {
	fetcher domain.Fetcher
	baseURL string
}

// NewPageMetadataProvider creates a provider for baseURL, or DefaultFallbackURL when empty
func NewPageMetadataProvider(f domain.Fetcher, baseURL string) *PageMetadataProvider {
	if baseURL == "" {
		baseURL = DefaultFallbackURL
	}
	return &PageMetadataProvider{fetcher: f, baseURL: strings.TrimRight(baseURL, "/")}
}

// GetMeta implements domain.MetadataProvider
func (p *PageMetadataProvider) GetMeta(ctx context.Context, _ domain.MediaType, titleID string) (*domain.Meta, error) {
	resp, err := p.fetcher.Get(ctx, fmt.Sprintf("%s/title/%s/", p.baseURL, titleID))
	if err != nil {
		return nil, err
	}
	if resp.Document == nil {
		return nil, domain.ErrNoDocument
	}

	raw := resp.Document.Find("meta[property='og:title']").AttrOr("content", "")
	if raw == "" {
		raw = resp.Document.Find("title").First().Text()
	}
	meta := parseOGTitle(raw)
	if meta == nil {
		return nil, fmt.Errorf("%w: metadata for %s", domain.ErrNotFound, titleID)
	}
	return meta, nil
}

// ChainProvider tries each provider in turn and returns the first hit
type ChainProvider struct {
	providers []domain.MetadataProvider
	logger    *utils.Logger
}

// NewChainProvider creates a provider that falls back through providers in order
func NewChainProvider(logger *utils.Logger, providers ...domain.MetadataProvider) *ChainProvider {
	return &ChainProvider{providers: providers, logger: logger.OrNop().WithComponent("metadata")}
}

// GetMeta implements domain.MetadataProvider
func (c *ChainProvider) GetMeta(ctx context.Context, mediaType domain.MediaType, titleID string) (*domain.Meta, error) {
	lastErr := fmt.Errorf("%w: metadata for %s", domain.ErrNotFound, titleID)
	for i, p := range c.providers {
		meta, err := p.GetMeta(ctx, mediaType, titleID)
		if err == nil && meta != nil {
			return meta, nil
		}
		if err != nil {
			lastErr = err
		}
		c.logger.Debug().Err(err).Int("provider", i).Str("title_id", titleID).Msg("Metadata provider missed")
	}
	return nil, lastErr
}

// parseOGTitle splits "Name (2024)" or "Name (TV Series 2019-2023) - Site" into name and year
func parseOGTitle(raw string) *domain.Meta {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if m := ogTitlePattern.FindStringSubmatch(raw); m != nil && strings.TrimSpace(m[1]) != "" {
		year, _ := strconv.Atoi(m[2])
		return &domain.Meta{Name: strings.TrimSpace(m[1]), Year: year}
	}
	if i := strings.Index(raw, " - "); i > 0 {
		raw = raw[:i]
	}
	return &domain.Meta{Name: strings.TrimSpace(raw)}
}

func parseYear(s string) int {
	m := yearPattern.FindString(s)
	if m == "" {
		return 0
	}
	year, _ := strconv.Atoi(m)
	return year
}
