package domain

import (
	"fmt"
	"time"
)

// MediaType identifies what kind of title is requested
type MediaType string

const (
	MediaTypeMovie  MediaType = "movie"
	MediaTypeSeries MediaType = "series"
)

// Episode identifies a single episode of a series
type Episode struct {
	Season int
	Number int
}

// String returns the SxxEyy code for the episode
func (e Episode) String() string {
	return fmt.Sprintf("S%02dE%02d", e.Season, e.Number)
}

// DownloadOption is one download entry found on a content page.
// Size is empty when the page carries no size hint.
type DownloadOption struct {
	Quality string `json:"quality"`
	Size    string `json:"size,omitempty"`
	URL     string `json:"url"`
}

// ResolutionRequest is the input of the intermediary resolver
type ResolutionRequest struct {
	TargetURL     string
	SourcePageURL string
	QualityHint   string
}

// ResolvedCandidate ranks same-level alternatives found on a single wrapper page
type ResolvedCandidate struct {
	Href   string
	Text   string
	Weight int
}

// TerminalStream is a resolved, playable link ready for formatting
type TerminalStream struct {
	URL       string   `json:"url"`
	Label     string   `json:"label"`
	Size      string   `json:"size,omitempty"`
	Languages []string `json:"languages,omitempty"`
}

// TitleRequest is the inbound request for a title's streams.
// Season and Episode are zero for movies; Meta short-circuits metadata lookup.
type TitleRequest struct {
	TitleID   string
	MediaType MediaType
	Season    int
	Episode   int
	Meta      *Meta
}

// EpisodeRef returns the requested episode, or nil for movies and whole-season requests
func (r TitleRequest) EpisodeRef() *Episode {
	if r.MediaType != MediaTypeSeries || r.Season <= 0 || r.Episode <= 0 {
		return nil
	}
	return &Episode{Season: r.Season, Number: r.Episode}
}

// Meta is the canonical name and year of a title
type Meta struct {
	Name          string `json:"name"`
	OriginalTitle string `json:"original_title,omitempty"`
	Year          int    `json:"year,omitempty"`
}

// SearchResult is a single hit returned by a site search
type SearchResult struct {
	Title string
	URL   string
}

// ContentPage is a loaded content detail page
type ContentPage struct {
	URL           string
	Title         string
	DownloadPages []string
	Languages     []string
}

// ValidateOptions controls a seekability check
type ValidateOptions struct {
	RequirePartialContent bool
	Timeout               time.Duration
}

// Validation is the outcome of a seekability check
type Validation struct {
	IsValid       bool
	StatusCode    int
	Filename      string
	ContentLength int64
}

// FileInfo is what a hoster page reveals about the file behind an opaque URL
type FileInfo struct {
	Name string
	Size string
}

// StreamEntry is a presentation-ready stream
type StreamEntry struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	URL   string `json:"url"`
}
