package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/gocolly/colly/v2"
	"github.com/jjfiecas-stack/sootio-sub001/internal/domain"
	"github.com/jjfiecas-stack/sootio-sub001/internal/fetcher"
	"github.com/jjfiecas-stack/sootio-sub001/internal/utils"
	"github.com/samber/lo"
)

// ResultSelector matches one search hit on WordPress-style listing pages
const ResultSelector = "article, .result-item, .post-item, .search-result"

// Searcher queries a site's search page
type Searcher struct {
	fetcher   domain.Fetcher
	siteURL   *url.URL
	userAgent string
	logger    *utils.Logger
}

// Ensure Searcher implements domain.Searcher
var _ domain.Searcher = (*Searcher)(nil)

// NewSearcher creates a Searcher for the site rooted at siteURL
func NewSearcher(f domain.Fetcher, siteURL string, logger *utils.Logger) (*Searcher, error) {
	u, err := url.Parse(strings.TrimRight(siteURL, "/"))
	if err != nil || !utils.IsHTTPURL(u.String()) {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidURL, siteURL)
	}
	return &Searcher{
		fetcher:   f,
		siteURL:   u,
		userAgent: fetcher.RandomUserAgent(),
		logger:    logger.OrNop().WithComponent("search"),
	}, nil
}

// SearchURL returns the listing URL for query
func (s *Searcher) SearchURL(query string) string {
	u := *s.siteURL
	u.Path = "/"
	u.RawQuery = url.Values{"s": {query}}.Encode()
	return u.String()
}

// Search returns hits in page order. Relevance scoring is left to the caller.
func (s *Searcher) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var results []domain.SearchResult
	var visitErr error

	c := colly.NewCollector(
		colly.UserAgent(s.userAgent),
		colly.AllowedDomains(s.siteURL.Hostname()),
	)
	c.WithTransport(s.fetcher.Transport())

	c.OnHTML(ResultSelector, func(e *colly.HTMLElement) {
		link := e.DOM.Find("h2 a[href], h3 a[href], .title a[href], a[href]").First()
		href, ok := utils.AbsoluteURL(e.Request.URL, link.AttrOr("href", ""))
		if !ok {
			return
		}

		title := strings.TrimSpace(e.ChildText("h2, h3, .title"))
		if title == "" {
			title = strings.TrimSpace(link.AttrOr("title", link.Text()))
		}
		results = append(results, domain.SearchResult{
			Title: strings.Join(strings.Fields(title), " "),
			URL:   href,
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		visitErr = err
	})

	searchURL := s.SearchURL(query)
	if err := c.Visit(searchURL); err != nil && visitErr == nil {
		visitErr = err
	}
	c.Wait()

	if visitErr != nil {
		return nil, fmt.Errorf("search %q failed: %w", query, visitErr)
	}

	results = lo.UniqBy(results, func(r domain.SearchResult) string { return r.URL })
	s.logger.Debug().Str("query", query).Int("results", len(results)).Msg("Search completed")
	return results, nil
}
