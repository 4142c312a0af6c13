package hosts

import (
	"fmt"
	"regexp"
)

// Rule maps a URL pattern to a priority weight
type Rule struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
	Weight  int    `yaml:"weight"`

	re *regexp.Regexp
}

// Match reports whether the lowercased URL matches the rule
func (r *Rule) Match(lowerURL string) bool {
	return r.re != nil && r.re.MatchString(lowerURL)
}

// Weights holds the scores of the non-host second-tier signals
type Weights struct {
	// DownloadClass scores anchors carrying an explicit download-link class
	DownloadClass int `yaml:"download_class"`
	// Forward scores links to another wrapper page
	Forward int `yaml:"forward"`
	// MediaExtension scores links whose path ends in a media extension
	MediaExtension int `yaml:"media_extension"`
	// Action scores anchors whose text suggests a fast/direct/watch action
	Action int `yaml:"action"`
}

// Table is the declarative description of every known link family
type Table struct {
	FirstTier       []Rule   `yaml:"first_tier"`
	SecondTier      []Rule   `yaml:"second_tier"`
	IDHosters       []Rule   `yaml:"id_hosters"`
	Direct          []Rule   `yaml:"direct"`
	MediaExtensions []string `yaml:"media_extensions"`
	HostingPhrases  []string `yaml:"hosting_phrases"`
	ActionWords     []string `yaml:"action_words"`
	DownloadClasses []string `yaml:"download_classes"`
	Weights         Weights  `yaml:"weights"`
}

// DefaultTable returns the built-in host table
func DefaultTable() *Table {
	return &Table{
		FirstTier: []Rule{
			{Name: "hubdrive", Pattern: `hubdrive\.[a-z]+/file/`, Weight: 50},
			{Name: "gdflix", Pattern: `gdflix\.[a-z]+/file/`, Weight: 45},
			{Name: "driveleech", Pattern: `driveleech\.[a-z]+/file/`, Weight: 40},
		},
		SecondTier: []Rule{
			{Name: "hubcloud", Pattern: `hubcloud\.[a-z]+/(drive|video)/`, Weight: 100},
			{Name: "vcloud", Pattern: `vcloud\.[a-z]+/`, Weight: 90},
			{Name: "fastdl", Pattern: `fastdl\.[a-z]+/`, Weight: 60},
		},
		IDHosters: []Rule{
			{Name: "pixeldrain", Pattern: `pixeldrain\.(com|dev)/u/`, Weight: 90},
			{Name: "gofile", Pattern: `gofile\.io/d/`, Weight: 70},
			{Name: "1fichier", Pattern: `1fichier\.com/\?`, Weight: 55},
			{Name: "buzzheavier", Pattern: `buzzheavier\.com/[a-z0-9]+`, Weight: 50},
		},
		Direct: []Rule{
			{Name: "pixeldrain-api", Pattern: `pixeldrain\.(com|dev)/api/file/`, Weight: 90},
			{Name: "r2", Pattern: `\.r2\.dev/`, Weight: 85},
			{Name: "workers", Pattern: `\.workers\.dev/`, Weight: 80},
			{Name: "googleusercontent", Pattern: `googleusercontent\.com/`, Weight: 75},
			{Name: "gcs", Pattern: `storage\.googleapis\.com/`, Weight: 70},
			{Name: "s3", Pattern: `\.s3[.-][a-z0-9-]*\.?amazonaws\.com/`, Weight: 65},
		},
		MediaExtensions: []string{".mkv", ".mp4", ".avi", ".m4v", ".mov", ".webm", ".ts", ".m3u8"},
		HostingPhrases:  []string{"direct download", "fast cloud", "instant download", "download now", "10gbps"},
		ActionWords:     []string{"fast", "direct", "watch", "10gbps", "instant"},
		DownloadClasses: []string{"download-link", "btn-download", "dl-link"},
		Weights: Weights{
			DownloadClass:  100,
			Forward:        40,
			MediaExtension: 50,
			Action:         20,
		},
	}
}

// Compile compiles every rule pattern. It must be called before the table is used.
func (t *Table) Compile() error {
	for _, rules := range [][]Rule{t.FirstTier, t.SecondTier, t.IDHosters, t.Direct} {
		for i := range rules {
			re, err := regexp.Compile("(?i)" + rules[i].Pattern)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalidPattern, rules[i].Name, err)
			}
			rules[i].re = re
		}
	}
	return nil
}

// merge replaces each section of t that is set in o
func (t *Table) merge(o *Table) {
	if len(o.FirstTier) > 0 {
		t.FirstTier = o.FirstTier
	}
	if len(o.SecondTier) > 0 {
		t.SecondTier = o.SecondTier
	}
	if len(o.IDHosters) > 0 {
		t.IDHosters = o.IDHosters
	}
	if len(o.Direct) > 0 {
		t.Direct = o.Direct
	}
	if len(o.MediaExtensions) > 0 {
		t.MediaExtensions = o.MediaExtensions
	}
	if len(o.HostingPhrases) > 0 {
		t.HostingPhrases = o.HostingPhrases
	}
	if len(o.ActionWords) > 0 {
		t.ActionWords = o.ActionWords
	}
	if len(o.DownloadClasses) > 0 {
		t.DownloadClasses = o.DownloadClasses
	}
	if o.Weights.DownloadClass > 0 {
		t.Weights.DownloadClass = o.Weights.DownloadClass
	}
	if o.Weights.Forward > 0 {
		t.Weights.Forward = o.Weights.Forward
	}
	if o.Weights.MediaExtension > 0 {
		t.Weights.MediaExtension = o.Weights.MediaExtension
	}
	if o.Weights.Action > 0 {
		t.Weights.Action = o.Weights.Action
	}
}

// bestMatch returns the highest-weight rule matching lowerURL
func bestMatch(rules []Rule, lowerURL string) (*Rule, bool) {
	var best *Rule
	for i := range rules {
		if rules[i].Match(lowerURL) && (best == nil || rules[i].Weight > best.Weight) {
			best = &rules[i]
		}
	}
	return best, best != nil
}
