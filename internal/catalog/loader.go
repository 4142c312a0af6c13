// Package catalog loads content detail pages, site search results and title metadata.
package catalog

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/jjfiecas-stack/sootio-sub001/internal/cache"
	"github.com/jjfiecas-stack/sootio-sub001/internal/domain"
	"github.com/jjfiecas-stack/sootio-sub001/internal/fetcher"
	"github.com/jjfiecas-stack/sootio-sub001/internal/hosts"
	"github.com/jjfiecas-stack/sootio-sub001/internal/utils"
	"github.com/samber/lo"
)

// Selectors for content detail pages
const (
	TitleSelector      = "h1.entry-title, h1.post-title, h1"
	ContentSelector    = ".entry-content, .post-content, article, body"
	DownloadButtonSel  = "a.maxbutton, a.download-page, a.btn-download-page, a.dl-page"
	LanguageItemSel    = "[itemprop='inLanguage'], .language a, .languages a"
	downloadPageMarker = "download"
)

var languagePattern = regexp.MustCompile(`(?i)\b(?:languages?|audio)\s*[:\-]\s*([^\n|]+)`)

// Loader reads content detail pages through the shared fetcher
type Loader struct {
	fetcher    domain.Fetcher
	classifier *hosts.Classifier
	pages      *cache.TTLCache[*domain.ContentPage]
	userAgent  string
	logger     *utils.Logger
}

// Ensure Loader implements domain.ContentLoader
var _ domain.ContentLoader = (*Loader)(nil)

// NewLoader creates a Loader. pages may be nil to disable caching.
func NewLoader(f domain.Fetcher, classifier *hosts.Classifier, pages *cache.TTLCache[*domain.ContentPage], logger *utils.Logger) *Loader {
	if classifier == nil {
		classifier = hosts.MustDefault()
	}
	return &Loader{
		fetcher:    f,
		classifier: classifier,
		pages:      pages,
		userAgent:  fetcher.RandomUserAgent(),
		logger:     logger.OrNop().WithComponent("catalog"),
	}
}

// LoadContentPage returns the title, download pages and languages of a content page.
// The page itself is always the first download page, since many sites list
// options inline.
func (l *Loader) LoadContentPage(ctx context.Context, pageURL string) (*domain.ContentPage, error) {
	if !utils.IsHTTPURL(pageURL) {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidURL, pageURL)
	}

	key := cache.MetaKey(pageURL)
	if l.pages != nil {
		if hit, ok := l.pages.Get(key).Get(); ok {
			return hit, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page := &domain.ContentPage{URL: pageURL}
	var visitErr error

	c := colly.NewCollector(colly.UserAgent(l.userAgent))
	c.WithTransport(l.fetcher.Transport())

	c.OnHTML("html", func(e *colly.HTMLElement) {
		base := e.Request.URL
		page.Title = pageTitle(e.DOM)
		page.Languages = pageLanguages(e.DOM)
		page.DownloadPages = l.downloadPages(e.DOM, base, pageURL)
	})

	c.OnError(func(r *colly.Response, err error) {
		visitErr = err
		if r.StatusCode >= 400 {
			visitErr = domain.NewFetchError(r.Request.URL.String(), r.StatusCode, err)
		}
		l.logger.Debug().Err(err).Str("url", r.Request.URL.String()).Msg("Content page request failed")
	})

	if err := c.Visit(pageURL); err != nil && visitErr == nil {
		visitErr = err
	}
	c.Wait()

	if visitErr != nil {
		return nil, fmt.Errorf("failed to load content page %s: %w", pageURL, visitErr)
	}
	if len(page.DownloadPages) == 0 {
		page.DownloadPages = []string{pageURL}
	}

	l.logger.Debug().
		Str("url", pageURL).
		Str("title", page.Title).
		Int("download_pages", len(page.DownloadPages)).
		Strs("languages", page.Languages).
		Msg("Loaded content page")

	if l.pages != nil {
		l.pages.Put(key, page)
	}
	return page, nil
}

// downloadPages lists the content page and the same-site link pages it points
// to. Wrapper links stay options on the page that lists them.
func (l *Loader) downloadPages(root *goquery.Selection, base *url.URL, pageURL string) []string {
	pages := []string{pageURL}

	root.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		abs, ok := utils.AbsoluteURL(base, a.AttrOr("href", ""))
		if !ok || abs == pageURL {
			return
		}
		text := strings.ToLower(a.Text())

		switch {
		case l.classifier.Tier(abs) != hosts.TierNone:
			return
		case a.Is(DownloadButtonSel):
		case utils.IsSameDomain(abs, pageURL) && strings.Contains(text, downloadPageMarker) &&
			!l.classifier.IsHostingLink(abs, text):
		default:
			return
		}
		pages = append(pages, abs)
	})

	return lo.Uniq(pages)
}

func pageTitle(root *goquery.Selection) string {
	if t := strings.TrimSpace(root.Find(TitleSelector).First().Text()); t != "" {
		return strings.Join(strings.Fields(t), " ")
	}
	if t := root.Find("meta[property='og:title']").AttrOr("content", ""); t != "" {
		return strings.TrimSpace(t)
	}
	return strings.TrimSpace(root.Find("title").First().Text())
}

func pageLanguages(root *goquery.Selection) []string {
	var langs []string
	root.Find(LanguageItemSel).Each(func(_ int, s *goquery.Selection) {
		langs = append(langs, s.Text())
	})

	if len(langs) == 0 {
		contentRoot(root).Find("p, li, span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if m := languagePattern.FindStringSubmatch(s.Text()); m != nil {
				langs = splitLanguages(m[1])
				return false
			}
			return true
		})
	}

	langs = lo.Map(langs, func(s string, _ int) string { return strings.TrimSpace(s) })
	langs = lo.Filter(langs, func(s string, _ int) bool { return s != "" && len(s) <= 24 })
	return lo.Uniq(langs)
}

// contentRoot returns the first ContentSelector alternative present, in selector order
func contentRoot(root *goquery.Selection) *goquery.Selection {
	for _, sel := range strings.Split(ContentSelector, ",") {
		if found := root.Find(strings.TrimSpace(sel)).First(); found.Length() > 0 {
			return found
		}
	}
	return root
}

func splitLanguages(s string) []string {
	return strings.FieldsFunc(strings.ReplaceAll(s, " and ", ","), func(r rune) bool {
		return r == ',' || r == '/' || r == '&' || r == '+'
	})
}
