// Package output renders terminal streams for presentation.
package output

import (
	"net/url"
	"strings"

	"github.com/jjfiecas-stack/sootio-sub001/internal/domain"
	"github.com/jjfiecas-stack/sootio-sub001/internal/extractor"
	"github.com/samber/lo"
)

// DefaultAddonName prefixes every entry name
const DefaultAddonName = "SootIO"

// languageFlags maps lowercase language names to flag emoji
var languageFlags = map[string]string{
	"english":    "🇬🇧",
	"hindi":      "🇮🇳",
	"tamil":      "🇮🇳",
	"telugu":     "🇮🇳",
	"malayalam":  "🇮🇳",
	"kannada":    "🇮🇳",
	"bengali":    "🇮🇳",
	"punjabi":    "🇮🇳",
	"spanish":    "🇪🇸",
	"french":     "🇫🇷",
	"german":     "🇩🇪",
	"italian":    "🇮🇹",
	"portuguese": "🇵🇹",
	"russian":    "🇷🇺",
	"japanese":   "🇯🇵",
	"korean":     "🇰🇷",
	"chinese":    "🇨🇳",
	"arabic":     "🇸🇦",
	"turkish":    "🇹🇷",
	"multi":      "🌐",
	"dual audio": "🌐",
}

// Formatter turns terminal streams into presentation-ready entries
type Formatter struct {
	addonName string
}

// Ensure Formatter implements domain.Formatter
var _ domain.Formatter = (*Formatter)(nil)

// NewFormatter creates a Formatter. An empty name uses DefaultAddonName.
func NewFormatter(addonName string) *Formatter {
	if addonName == "" {
		addonName = DefaultAddonName
	}
	return &Formatter{addonName: addonName}
}

// Format renders streams in order, dropping entries whose URL cannot be encoded
func (f *Formatter) Format(streams []domain.TerminalStream) []domain.StreamEntry {
	entries := make([]domain.StreamEntry, 0, len(streams))
	for _, s := range streams {
		encoded, ok := EncodeURL(s.URL)
		if !ok {
			continue
		}
		entries = append(entries, domain.StreamEntry{
			Name:  f.name(s),
			Title: title(s),
			URL:   encoded,
		})
	}
	return entries
}

func (f *Formatter) name(s domain.TerminalStream) string {
	quality := extractor.QualityFromText(s.Label)
	if quality == "" {
		return f.addonName
	}
	return f.addonName + "\n" + quality
}

func title(s domain.TerminalStream) string {
	lines := []string{s.Label}
	if s.Size != "" {
		lines = append(lines, "💾 "+s.Size)
	}
	if flags := Flags(s.Languages); flags != "" {
		lines = append(lines, flags)
	}
	return strings.Join(lines, "\n")
}

// Flags renders languages as space-separated flags. Unknown languages keep their name.
func Flags(languages []string) string {
	rendered := lo.Map(languages, func(lang string, _ int) string {
		lang = strings.TrimSpace(lang)
		if flag, ok := languageFlags[strings.ToLower(lang)]; ok {
			return flag
		}
		return lang
	})
	rendered = lo.Compact(lo.Uniq(rendered))
	return strings.Join(rendered, " ")
}

// EncodeURL re-encodes a stream URL so spaces and other unsafe characters in
// its path and query are percent-escaped
func EncodeURL(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", false
	}
	u.RawQuery = strings.ReplaceAll(u.RawQuery, " ", "%20")
	return u.String(), true
}
