package extractor

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jjfiecas-stack/sootio-sub001/internal/domain"
	"github.com/jjfiecas-stack/sootio-sub001/internal/hosts"
	"github.com/jjfiecas-stack/sootio-sub001/internal/utils"
)

// Selectors for the download box layout
const (
	BoxSelector     = ".download-box, .download-item, .download-card"
	BoxQualitySel   = ".quality, .download-quality, .title, h3, h4"
	BoxSizeSel      = ".size, .download-size, .file-size"
	BoxPrimaryLink  = "a.download-btn, a.btn-download, a.download-link, a[download]"
	HeadingSelector = "h1, h2, h3, h4, h5, h6, .episode-header"
)

var (
	qualityPattern = regexp.MustCompile(`(?i)\b(2160p|1440p|1080p|720p|576p|480p|360p|4k|uhd)\b`)
	sizePattern    = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(tb|gb|gib|mb|mib)\b`)
)

// Rule is one independent extraction strategy over a document scope
type Rule interface {
	Name() string
	Apply(scope *goquery.Selection, base *url.URL) []domain.DownloadOption
}

// boxRule reads structured download boxes
type boxRule struct {
	classifier *hosts.Classifier
}

func (r *boxRule) Name() string { return "download-box" }

func (r *boxRule) Apply(scope *goquery.Selection, base *url.URL) []domain.DownloadOption {
	var options []domain.DownloadOption

	scope.Find(BoxSelector).Each(func(_ int, box *goquery.Selection) {
		quality := firstText(box, BoxQualitySel)
		size := SizeFromText(firstText(box, BoxSizeSel))
		if size == "" {
			size = SizeFromText(box.Text())
		}
		if token := QualityFromText(quality); token != "" {
			quality = token
		} else if token := QualityFromText(box.Text()); token != "" {
			quality = token
		}

		anchors := box.Find(BoxPrimaryLink).First()
		if anchors.Length() == 0 {
			// No primary action: any anchor that looks like a hosting link
			anchors = box.Find("a[href]").FilterFunction(func(_ int, a *goquery.Selection) bool {
				abs, ok := absHref(a, base)
				return ok && r.classifier.IsHostingLink(abs, a.Text())
			})
		}

		anchors.Each(func(_ int, a *goquery.Selection) {
			if abs, ok := absHref(a, base); ok {
				options = append(options, domain.DownloadOption{Quality: quality, Size: size, URL: abs})
			}
		})
	})

	return options
}

// anchorRule takes any anchor whose href or text matches a hosting pattern
type anchorRule struct {
	classifier *hosts.Classifier
}

func (r *anchorRule) Name() string { return "hosting-anchor" }

func (r *anchorRule) Apply(scope *goquery.Selection, base *url.URL) []domain.DownloadOption {
	var options []domain.DownloadOption

	anchorsIn(scope).Each(func(_ int, a *goquery.Selection) {
		abs, ok := absHref(a, base)
		if !ok {
			return
		}
		text := cleanText(a.Text())
		if !r.classifier.IsHostingLink(abs, text) {
			return
		}
		options = append(options, optionFromAnchor(a, abs, ""))
	})

	return options
}

// sectionRule takes every anchor inside the block that follows each episode heading
type sectionRule struct{}

func (r *sectionRule) Name() string { return "episode-section" }

func (r *sectionRule) Apply(scope *goquery.Selection, base *url.URL) []domain.DownloadOption {
	var options []domain.DownloadOption

	for _, section := range findEpisodeSections(scope) {
		heading := cleanText(section.heading.Text())
		anchorsIn(section.block).Each(func(_ int, a *goquery.Selection) {
			if abs, ok := absHref(a, base); ok {
				options = append(options, optionFromAnchor(a, abs, heading))
			}
		})
	}

	return options
}

// blockRule takes every anchor in the scope; used for a single episode block
type blockRule struct {
	label string
}

func (r *blockRule) Name() string { return "episode-block" }

func (r *blockRule) Apply(scope *goquery.Selection, base *url.URL) []domain.DownloadOption {
	var options []domain.DownloadOption

	anchorsIn(scope).Each(func(_ int, a *goquery.Selection) {
		if abs, ok := absHref(a, base); ok {
			options = append(options, optionFromAnchor(a, abs, r.label))
		}
	})

	return options
}

func optionFromAnchor(a *goquery.Selection, abs, fallbackLabel string) domain.DownloadOption {
	text := cleanText(a.Text())
	around := cleanText(a.Parent().Text())

	quality := QualityFromText(text)
	if quality == "" {
		quality = QualityFromText(around)
	}
	if quality == "" {
		quality = QualityFromText(fallbackLabel)
	}
	if quality == "" {
		quality = text
	}

	size := SizeFromText(text)
	if size == "" {
		size = SizeFromText(around)
	}

	return domain.DownloadOption{Quality: quality, Size: size, URL: abs}
}

// anchorsIn returns the anchors within scope, including scope itself when it is one
func anchorsIn(scope *goquery.Selection) *goquery.Selection {
	return scope.Find("a[href]").AddSelection(scope.Filter("a[href]"))
}

func absHref(a *goquery.Selection, base *url.URL) (string, bool) {
	href, exists := a.Attr("href")
	if !exists {
		return "", false
	}
	return utils.AbsoluteURL(base, href)
}

func firstText(sel *goquery.Selection, selector string) string {
	var out string
	sel.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		out = cleanText(s.Text())
		return out == ""
	})
	return out
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// QualityFromText returns the first resolution token in s, lowercased
func QualityFromText(s string) string {
	m := qualityPattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}

// SizeFromText returns the first size token in s as "<n> <UNIT>"
func SizeFromText(s string) string {
	m := sizePattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	unit := strings.ToUpper(m[2])
	switch unit {
	case "GIB":
		unit = "GB"
	case "MIB":
		unit = "MB"
	}
	return strings.ReplaceAll(m[1], ",", ".") + " " + unit
}
