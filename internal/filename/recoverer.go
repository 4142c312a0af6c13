// Package filename recovers human-readable file names from opaque hoster pages.
package filename

import (
	"bytes"
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/jjfiecas-stack/sootio-sub001/internal/domain"
	"github.com/jjfiecas-stack/sootio-sub001/internal/extractor"
	"github.com/jjfiecas-stack/sootio-sub001/internal/hosts"
	"github.com/jjfiecas-stack/sootio-sub001/internal/utils"
	"github.com/samber/mo"
)

// DefaultTimeout bounds one hoster page fetch
const DefaultTimeout = 10 * time.Second

// nameSelectors are tried in order before the page title
var nameSelectors = []string{
	".file-name",
	"#file-name",
	"#filename",
	"[itemprop='name']",
}

// sizeSelectors hold the size text on the hoster pages we know
var sizeSelectors = []string{
	".file-size",
	"#file-size",
	"#filesize",
}

// blockedPattern matches error and challenge page titles
var blockedPattern = regexp.MustCompile(`(?i)\b(?:not found|just a moment|attention required|access denied|ddos-guard|cloudflare|please wait|file removed)\b`)

// placeholders are whole titles that never name a file
var placeholders = map[string]bool{
	"404":      true,
	"untitled": true,
	"loading":  true,
	"error":    true,
}

// brandPattern strips "Site - " prefixes and " | Site" suffixes of known hosters
var brandPattern = regexp.MustCompile(`(?i)^\s*(?:pixeldrain|gofile|1fichier|buzzheavier|download)\s*[-|:~]\s*|\s*[-|:~]\s*(?:pixeldrain|gofile|1fichier|buzzheavier|free file hosting|download)\s*$`)

// Options configures a Recoverer
type Options struct {
	Timeout time.Duration
}

// Recoverer fetches a hoster page and reads the file name it displays
type Recoverer struct {
	fetcher    domain.Fetcher
	classifier *hosts.Classifier
	timeout    time.Duration
	logger     *utils.Logger
}

// Ensure Recoverer implements domain.FilenameRecoverer
var _ domain.FilenameRecoverer = (*Recoverer)(nil)

// New creates a Recoverer
func New(fetcher domain.Fetcher, classifier *hosts.Classifier, opts Options, logger *utils.Logger) *Recoverer {
	if classifier == nil {
		classifier = hosts.MustDefault()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Recoverer{
		fetcher:    fetcher,
		classifier: classifier,
		timeout:    opts.Timeout,
		logger:     logger.OrNop().WithComponent("filename"),
	}
}

// Recover returns the name and size shown on the page behind rawURL.
// It never fails: None means nothing better than the URL is known.
func (r *Recoverer) Recover(ctx context.Context, rawURL string) mo.Option[domain.FileInfo] {
	resp, err := r.fetcher.Do(ctx, &domain.Request{URL: rawURL, ParseHTML: true, Timeout: r.timeout})
	if err != nil {
		r.logger.Debug().Err(err).Str("url", rawURL).Msg("Hoster page fetch failed")
		return mo.None[domain.FileInfo]()
	}
	if resp.Document == nil {
		return mo.None[domain.FileInfo]()
	}

	name := r.nameFromDocument(resp.Document)
	if name == "" {
		name = r.nameFromReadability(resp.Body, rawURL)
	}
	if name == "" {
		r.logger.Debug().Str("url", rawURL).Msg("No usable file name on hoster page")
		return mo.None[domain.FileInfo]()
	}

	return mo.Some(domain.FileInfo{
		Name: name,
		Size: sizeFromDocument(resp.Document),
	})
}

func (r *Recoverer) nameFromDocument(doc *goquery.Document) string {
	var raw []string
	for _, sel := range nameSelectors {
		raw = append(raw, doc.Find(sel).First().Text())
	}
	raw = append(raw,
		doc.Find("meta[property='og:title']").AttrOr("content", ""),
		doc.Find("title").First().Text(),
		doc.Find("h1").First().Text(),
	)

	for _, s := range raw {
		if name := r.Clean(s); name != "" {
			return name
		}
	}
	return ""
}

func (r *Recoverer) nameFromReadability(body []byte, rawURL string) string {
	if len(body) == 0 {
		return ""
	}
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return ""
	}
	return r.Clean(article.Title)
}

// Clean normalizes a candidate title into a file name, or returns "" when the
// title is a placeholder, an error page or a challenge page
func (r *Recoverer) Clean(title string) string {
	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		return ""
	}

	if blockedPattern.MatchString(title) {
		return ""
	}

	title = brandPattern.ReplaceAllString(title, "")
	title = r.stripExtension(title)
	title = strings.Trim(title, " -|:~._")

	if len(title) < 3 || placeholders[strings.ToLower(title)] {
		return ""
	}
	return title
}

func (r *Recoverer) stripExtension(title string) string {
	lower := strings.ToLower(title)
	for _, ext := range r.classifier.Table().MediaExtensions {
		if strings.HasSuffix(lower, ext) {
			return title[:len(title)-len(ext)]
		}
	}
	return title
}

func sizeFromDocument(doc *goquery.Document) string {
	for _, sel := range sizeSelectors {
		if size := extractor.SizeFromText(doc.Find(sel).First().Text()); size != "" {
			return size
		}
	}
	return extractor.SizeFromText(doc.Find("body").Text())
}
