package resolver

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jjfiecas-stack/sootio-sub001/internal/domain"
	"github.com/jjfiecas-stack/sootio-sub001/internal/hosts"
	"github.com/jjfiecas-stack/sootio-sub001/internal/utils"
)

var hintDigits = regexp.MustCompile(`\d{3,4}`)

// scanFirstTier collects cloud-wrapper and file-host anchors from a view page,
// weighted by their host priority
func scanFirstTier(doc *goquery.Document, base *url.URL, self string, c *hosts.Classifier) []domain.ResolvedCandidate {
	return collect(doc, base, self, func(href, _ string, _ *goquery.Selection) int {
		if c.Tier(href) == hosts.TierSecond {
			w, _ := c.WrapperWeight(href)
			return w
		}
		if w, ok := c.FileHostWeight(href); ok {
			return w
		}
		return 0
	})
}

// scanSecondTier weighs every anchor on a cloud page by the strongest signal it carries
func scanSecondTier(doc *goquery.Document, base *url.URL, self string, c *hosts.Classifier) []domain.ResolvedCandidate {
	weights := c.Table().Weights

	return collect(doc, base, self, func(href, text string, a *goquery.Selection) int {
		best := 0
		if c.IsDownloadClass(a.AttrOr("class", "")) || c.IsDownloadClass(a.Parent().AttrOr("class", "")) {
			best = weights.DownloadClass
		}
		if w, ok := c.FileHostWeight(href); ok && w > best {
			best = w
		}
		if c.Tier(href) != hosts.TierNone && weights.Forward > best {
			best = weights.Forward
		}
		if c.HasActionWord(text) && weights.Action > best {
			best = weights.Action
		}
		return best
	})
}

// collect builds deduplicated candidates sorted by descending weight.
// Ties keep document order; anchors weighing zero are dropped.
func collect(doc *goquery.Document, base *url.URL, self string, weigh func(href, text string, a *goquery.Selection) int) []domain.ResolvedCandidate {
	index := make(map[string]int)
	var candidates []domain.ResolvedCandidate

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, ok := utils.AbsoluteURL(base, a.AttrOr("href", ""))
		if !ok || href == self {
			return
		}

		text := strings.ToLower(strings.Join(strings.Fields(a.Text()), " "))
		weight := weigh(href, text, a)
		if weight <= 0 {
			return
		}

		if i, dup := index[href]; dup {
			if weight > candidates[i].Weight {
				candidates[i].Weight = weight
			}
			if candidates[i].Text == "" {
				candidates[i].Text = text
			}
			return
		}
		index[href] = len(candidates)
		candidates = append(candidates, domain.ResolvedCandidate{Href: href, Text: text, Weight: weight})
	})

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Weight > candidates[j].Weight
	})
	return candidates
}

// HintToken reduces a quality hint such as "1080p" to the token matched
// against candidate text
func HintToken(hint string) string {
	hint = strings.ToLower(strings.TrimSpace(hint))
	if hint == "" {
		return ""
	}
	if m := hintDigits.FindString(hint); m != "" {
		return m
	}
	if hint == "4k" || hint == "uhd" {
		return "2160"
	}
	return hint
}

// choose prefers the first candidate whose text carries the hint token,
// else the highest-weighted one
func choose(candidates []domain.ResolvedCandidate, hint string) (domain.ResolvedCandidate, bool) {
	if len(candidates) == 0 {
		return domain.ResolvedCandidate{}, false
	}
	if token := HintToken(hint); token != "" {
		for _, c := range candidates {
			if strings.Contains(c.Text, token) {
				return c, true
			}
		}
	}
	return candidates[0], true
}
