package extractor

import (
	"regexp"
	"strconv"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// maxSiblingSkips is how many non-matching siblings may separate a heading from its block
const maxSiblingSkips = 3

var episodePattern = regexp.MustCompile(`(?i)(?:\bs\d{1,2}\s*e|\b(?:episode|ep|e))[\s.\-_:#]*0*(\d{1,3})\b`)

type episodeSection struct {
	number  int
	heading *goquery.Selection
	block   *goquery.Selection
}

// EpisodeNumber extracts the episode number a heading names
func EpisodeNumber(text string) (int, bool) {
	m := episodePattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// findEpisodeHeadings returns every heading in scope that names an episode.
// A heading wrapped in an .episode-header element is represented by the wrapper.
func findEpisodeHeadings(scope *goquery.Selection) []episodeSection {
	var out []episodeSection
	nodes := make(map[*html.Node]bool)
	scope.Find(HeadingSelector).Each(func(_ int, h *goquery.Selection) {
		start := h
		if parent := h.Parent(); parent.Is(".episode-header") {
			start = parent
		}
		node := start.Get(0)
		if nodes[node] {
			return
		}

		n, ok := EpisodeNumber(cleanText(start.Text()))
		if !ok {
			return
		}
		nodes[node] = true
		out = append(out, episodeSection{number: n, heading: start})
	})

	return out
}

// blockAfter walks forward from heading to the first sibling carrying links,
// skipping at most maxSiblingSkips siblings and stopping at the next episode heading
func blockAfter(heading *goquery.Selection) *goquery.Selection {
	next := heading.Next()
	for skips := 0; next.Length() > 0 && skips <= maxSiblingSkips; skips++ {
		if isEpisodeHeading(next) {
			break
		}
		if anchorsIn(next).Length() > 0 {
			return next
		}
		next = next.Next()
	}
	return nil
}

func isEpisodeHeading(sel *goquery.Selection) bool {
	if !sel.Is(HeadingSelector) && sel.Find(HeadingSelector).Length() == 0 {
		return false
	}
	_, ok := EpisodeNumber(cleanText(sel.Text()))
	return ok
}

// findEpisodeSections pairs each episode heading with its block
func findEpisodeSections(scope *goquery.Selection) []episodeSection {
	headings := findEpisodeHeadings(scope)
	sections := make([]episodeSection, 0, len(headings))
	for _, h := range headings {
		if block := blockAfter(h.heading); block != nil {
			h.block = block
			sections = append(sections, h)
		}
	}
	return sections
}
