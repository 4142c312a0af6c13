// Package extractor finds download options on content pages.
package extractor

import (
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/jjfiecas-stack/sootio-sub001/internal/domain"
	"github.com/jjfiecas-stack/sootio-sub001/internal/hosts"
	"github.com/jjfiecas-stack/sootio-sub001/internal/utils"
)

// Extractor runs a prioritized rule chain over a page document
type Extractor struct {
	classifier *hosts.Classifier
	rules      []Rule
	logger     *utils.Logger
}

// New creates an extractor with the default rule chain
func New(classifier *hosts.Classifier, logger *utils.Logger) *Extractor {
	if classifier == nil {
		classifier = hosts.MustDefault()
	}
	return &Extractor{
		classifier: classifier,
		rules: []Rule{
			&boxRule{classifier: classifier},
			&anchorRule{classifier: classifier},
			&sectionRule{},
		},
		logger: logger.OrNop().WithComponent("extractor"),
	}
}

// Rules returns the rule chain in priority order
func (e *Extractor) Rules() []Rule {
	return e.rules
}

// Extract returns the download options on doc. With ep set, extraction is
// restricted to that episode's block; a page without episode headings is
// treated as non-episodic and returns everything.
func (e *Extractor) Extract(doc *goquery.Document, baseURL string, ep *domain.Episode) []domain.DownloadOption {
	if doc == nil {
		return nil
	}

	base, err := url.Parse(baseURL)
	if err != nil || !base.IsAbs() {
		base = doc.Url
	}

	scope := doc.Selection
	rules := e.rules

	if ep != nil {
		headings := findEpisodeHeadings(scope)
		if len(headings) > 0 {
			block, label := e.episodeBlock(headings, ep.Number)
			if block == nil {
				e.logger.Debug().Str("url", baseURL).Str("episode", ep.String()).Msg("Episode not on page")
				return []domain.DownloadOption{}
			}
			scope = block
			rules = []Rule{
				&boxRule{classifier: e.classifier},
				&anchorRule{classifier: e.classifier},
				&blockRule{label: label},
			}
		}
	}

	options := e.run(rules, scope, base)
	e.logger.Debug().Str("url", baseURL).Int("options", len(options)).Msg("Extracted options")
	return options
}

func (e *Extractor) episodeBlock(headings []episodeSection, number int) (*goquery.Selection, string) {
	for _, h := range headings {
		if h.number != number {
			continue
		}
		if block := blockAfter(h.heading); block != nil {
			return block, cleanText(h.heading.Text())
		}
	}
	return nil, ""
}

// run applies rules in order, never re-adding a URL an earlier rule captured
func (e *Extractor) run(rules []Rule, scope *goquery.Selection, base *url.URL) []domain.DownloadOption {
	seen := make(map[string]bool)
	options := []domain.DownloadOption{}

	for _, rule := range rules {
		added := 0
		for _, opt := range rule.Apply(scope, base) {
			if seen[opt.URL] {
				continue
			}
			seen[opt.URL] = true
			options = append(options, opt)
			added++
		}
		if added > 0 {
			e.logger.Trace().Str("rule", rule.Name()).Int("added", added).Msg("Rule matched")
		}
	}

	return options
}
