package hosts

import (
	"net/url"
	"path"
	"strings"
)

// Kind is the ordered classification the pipeline acts on
type Kind int

const (
	// KindUnknown is an already-terminal URL of no recognized shape
	KindUnknown Kind = iota
	// KindDirect is a direct media candidate that must pass the seekability check
	KindDirect
	// KindIDHoster serves a file behind an opaque token
	KindIDHoster
	// KindWrapper is an intermediary page linking to further pages
	KindWrapper
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindWrapper:
		return "wrapper"
	case KindIDHoster:
		return "id-hoster"
	case KindDirect:
		return "direct"
	default:
		return "unknown"
	}
}

// Tier is the wrapper level of a URL
type Tier int

const (
	TierNone Tier = iota
	TierFirst
	TierSecond
)

// String returns the tier name
func (t Tier) String() string {
	switch t {
	case TierFirst:
		return "first-tier"
	case TierSecond:
		return "second-tier"
	default:
		return "none"
	}
}

// Classification holds the three independent predicates for a URL
type Classification struct {
	IsWrapper  bool
	IsIDHoster bool
	IsDirect   bool
}

// Classifier matches URLs against a compiled Table. It performs no I/O.
type Classifier struct {
	table *Table
}

// NewClassifier creates a classifier over table, compiling it if needed
func NewClassifier(table *Table) (*Classifier, error) {
	if table == nil {
		table = DefaultTable()
	}
	if err := table.Compile(); err != nil {
		return nil, err
	}
	return &Classifier{table: table}, nil
}

// MustDefault returns a classifier over the built-in table
func MustDefault() *Classifier {
	c, err := NewClassifier(DefaultTable())
	if err != nil {
		panic(err)
	}
	return c
}

// Table returns the classifier's table
func (c *Classifier) Table() *Table {
	return c.table
}

// Classify evaluates every predicate for rawURL
func (c *Classifier) Classify(rawURL string) Classification {
	lower := strings.ToLower(rawURL)
	return Classification{
		IsWrapper:  c.Tier(rawURL) != TierNone,
		IsIDHoster: c.matchesAny(c.table.IDHosters, lower),
		IsDirect:   c.matchesAny(c.table.Direct, lower) || c.HasMediaExtension(rawURL),
	}
}

// Kind applies the ordered decision: wrapper, then ID-hoster, then direct
func (c *Classifier) Kind(rawURL string) Kind {
	cl := c.Classify(rawURL)
	switch {
	case cl.IsWrapper:
		return KindWrapper
	case cl.IsIDHoster:
		return KindIDHoster
	case cl.IsDirect:
		return KindDirect
	default:
		return KindUnknown
	}
}

// Tier reports which wrapper level rawURL belongs to. Second tier wins on overlap.
func (c *Classifier) Tier(rawURL string) Tier {
	lower := strings.ToLower(rawURL)
	if c.matchesAny(c.table.SecondTier, lower) {
		return TierSecond
	}
	if c.matchesAny(c.table.FirstTier, lower) {
		return TierFirst
	}
	return TierNone
}

// WrapperWeight returns the priority of the wrapper rule rawURL matches
func (c *Classifier) WrapperWeight(rawURL string) (int, bool) {
	lower := strings.ToLower(rawURL)
	if r, ok := bestMatch(c.table.SecondTier, lower); ok {
		return r.Weight, true
	}
	if r, ok := bestMatch(c.table.FirstTier, lower); ok {
		return r.Weight, true
	}
	return 0, false
}

// FileHostWeight returns the priority of the direct or ID-hoster rule rawURL
// matches, falling back to the media-extension weight
func (c *Classifier) FileHostWeight(rawURL string) (int, bool) {
	lower := strings.ToLower(rawURL)

	best, found := 0, false
	for _, rules := range [][]Rule{c.table.Direct, c.table.IDHosters} {
		if r, ok := bestMatch(rules, lower); ok && (!found || r.Weight > best) {
			best, found = r.Weight, true
		}
	}
	if found {
		return best, true
	}
	if c.HasMediaExtension(rawURL) {
		return c.table.Weights.MediaExtension, true
	}
	return 0, false
}

// HasMediaExtension reports whether the URL path ends in a known media extension
func (c *Classifier) HasMediaExtension(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if ext == "" {
		return false
	}
	for _, e := range c.table.MediaExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// IsHostingLink reports whether an anchor looks like a download hosting link,
// by its href or its visible text
func (c *Classifier) IsHostingLink(href, text string) bool {
	if c.Kind(href) != KindUnknown {
		return true
	}
	return c.HasHostingPhrase(text)
}

// HasHostingPhrase reports whether text contains a known hosting phrase
func (c *Classifier) HasHostingPhrase(text string) bool {
	return containsAny(strings.ToLower(text), c.table.HostingPhrases)
}

// HasActionWord reports whether text suggests a fast/direct/watch action
func (c *Classifier) HasActionWord(text string) bool {
	return containsAny(strings.ToLower(text), c.table.ActionWords)
}

// IsDownloadClass reports whether a class attribute names a download-link element
func (c *Classifier) IsDownloadClass(class string) bool {
	for _, field := range strings.Fields(strings.ToLower(class)) {
		for _, dc := range c.table.DownloadClasses {
			if field == dc {
				return true
			}
		}
	}
	return false
}

func (c *Classifier) matchesAny(rules []Rule, lowerURL string) bool {
	for i := range rules {
		if rules[i].Match(lowerURL) {
			return true
		}
	}
	return false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
