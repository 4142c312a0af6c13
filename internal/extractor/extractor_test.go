package extractor

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/jjfiecas-stack/sootio-sub001/internal/domain"
	"github.com/jjfiecas-stack/sootio-sub001/internal/hosts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseURL = "https://site.example/movies/dune-2024/"

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func urlsOf(options []domain.DownloadOption) []string {
	out := make([]string, len(options))
	for i, o := range options {
		out[i] = o.URL
	}
	return out
}

const boxPage = `<html><body>
<div class="download-box">
  <h4>Dune 2024 1080p WEB-DL</h4>
  <span class="size">2.1 GB</span>
  <a class="download-btn" href="/go/hub-1080">Download</a>
</div>
<div class="download-item">
  <h4>720p</h4>
  <a href="/help">How to download</a>
  <a href="https://hubcloud.one/drive/abc720">Get [900 MB]</a>
</div>
<p>Mirror: <a href="https://hubcloud.one/drive/abc720">Same link again</a></p>
<p><a href="https://pixeldrain.com/u/Xyz">Pixeldrain 2160p [14.2GB]</a></p>
<p><a href="https://unknown.example/f/1">Fast Cloud 480p</a></p>
<a href="javascript:void(0)">share</a>
<a href="#comments">comments</a>
<a href="mailto:dmca@site.example">dmca</a>
<a href="/about">About</a>
</body></html>`

func TestExtract_DownloadBoxAndAnchors(t *testing.T) {
	e := New(hosts.MustDefault(), nil)
	options := e.Extract(parseDoc(t, boxPage), baseURL, nil)

	require.Len(t, options, 4)

	assert.Equal(t, domain.DownloadOption{Quality: "1080p", Size: "2.1 GB", URL: "https://site.example/go/hub-1080"}, options[0])
	assert.Equal(t, domain.DownloadOption{Quality: "720p", Size: "900 MB", URL: "https://hubcloud.one/drive/abc720"}, options[1])
	assert.Equal(t, domain.DownloadOption{Quality: "2160p", Size: "14.2 GB", URL: "https://pixeldrain.com/u/Xyz"}, options[2])
	assert.Equal(t, "https://unknown.example/f/1", options[3].URL)
	assert.Equal(t, "480p", options[3].Quality)
	assert.Empty(t, options[3].Size)
}

func TestExtract_AllURLsAbsolute(t *testing.T) {
	e := New(hosts.MustDefault(), nil)

	for _, page := range []string{boxPage, episodePage} {
		for _, opt := range e.Extract(parseDoc(t, page), baseURL, nil) {
			u, err := url.Parse(opt.URL)
			require.NoError(t, err)
			assert.True(t, u.IsAbs(), opt.URL)
			assert.Contains(t, []string{"http", "https"}, u.Scheme)
			assert.NotEmpty(t, u.Host)
		}
	}
}

func TestExtract_DedupeIdempotent(t *testing.T) {
	e := New(hosts.MustDefault(), nil)
	doc := parseDoc(t, boxPage)

	first := e.Extract(doc, baseURL, nil)
	second := e.Extract(doc, baseURL, nil)

	assert.ElementsMatch(t, first, second)

	seen := make(map[string]bool)
	for _, u := range urlsOf(first) {
		assert.False(t, seen[u], "duplicate %s", u)
		seen[u] = true
	}
}

const episodePage = `<html><body>
<h2>Download Links</h2>
<h3>Episode 1</h3>
<div class="links"><a href="https://hubdrive.space/file/e1">1080p</a></div>
<h3>Episode 2</h3>
<p>Advertisement</p>
<div class="links">
  <a href="https://hubdrive.space/file/e2">1080p</a>
  <a href="/rel/e2-720">720p [450MB]</a>
</div>
<div class="episode-header"><h4>Episode 03</h4></div>
<div class="links"><a href="https://hubdrive.space/file/e3">1080p</a></div>
</body></html>`

func TestExtract_EpisodeFilter(t *testing.T) {
	e := New(hosts.MustDefault(), nil)
	doc := parseDoc(t, episodePage)

	tests := []struct {
		name string
		ep   *domain.Episode
		want []string
	}{
		{
			name: "episode 2 block only",
			ep:   &domain.Episode{Season: 1, Number: 2},
			want: []string{"https://hubdrive.space/file/e2", "https://site.example/rel/e2-720"},
		},
		{
			name: "wrapped heading",
			ep:   &domain.Episode{Season: 1, Number: 3},
			want: []string{"https://hubdrive.space/file/e3"},
		},
		{
			name: "missing episode is empty",
			ep:   &domain.Episode{Season: 1, Number: 99},
			want: []string{},
		},
		{
			name: "no episode returns the union",
			ep:   nil,
			want: []string{
				"https://hubdrive.space/file/e1",
				"https://hubdrive.space/file/e2",
				"https://hubdrive.space/file/e3",
				"https://site.example/rel/e2-720",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Extract(doc, baseURL, tt.ep)
			require.NotNil(t, got)
			assert.ElementsMatch(t, tt.want, urlsOf(got))
		})
	}
}

func TestExtract_EpisodeOptionMetadata(t *testing.T) {
	e := New(hosts.MustDefault(), nil)
	got := e.Extract(parseDoc(t, episodePage), baseURL, &domain.Episode{Season: 1, Number: 2})

	require.Len(t, got, 2)
	assert.Equal(t, "720p", got[1].Quality)
	assert.Equal(t, "450 MB", got[1].Size)
}

func TestExtract_NonEpisodicPageIgnoresEpisode(t *testing.T) {
	e := New(hosts.MustDefault(), nil)
	doc := parseDoc(t, boxPage)

	all := e.Extract(doc, baseURL, nil)
	scoped := e.Extract(doc, baseURL, &domain.Episode{Season: 1, Number: 5})

	assert.Equal(t, all, scoped)
}

func TestExtract_EdgeCases(t *testing.T) {
	e := New(nil, nil)

	t.Run("nil document", func(t *testing.T) {
		assert.Nil(t, e.Extract(nil, baseURL, nil))
	})

	t.Run("page without links", func(t *testing.T) {
		got := e.Extract(parseDoc(t, "<p>nothing here</p>"), baseURL, nil)
		assert.Empty(t, got)
	})

	t.Run("unparseable base keeps absolute links only", func(t *testing.T) {
		html := `<a href="https://gofile.io/d/abc">gofile</a><a href="/file/rel">Direct Download</a>`
		got := e.Extract(parseDoc(t, html), "::bad::", nil)
		assert.Equal(t, []string{"https://gofile.io/d/abc"}, urlsOf(got))
	})
}

func TestRules_Isolated(t *testing.T) {
	c := hosts.MustDefault()
	doc := parseDoc(t, boxPage)
	base, _ := url.Parse(baseURL)

	box := (&boxRule{classifier: c}).Apply(doc.Selection, base)
	assert.Equal(t, []string{"https://site.example/go/hub-1080", "https://hubcloud.one/drive/abc720"}, urlsOf(box))

	anchors := (&anchorRule{classifier: c}).Apply(doc.Selection, base)
	assert.Contains(t, urlsOf(anchors), "https://pixeldrain.com/u/Xyz")
	assert.NotContains(t, urlsOf(anchors), "https://site.example/about")

	sections := (&sectionRule{}).Apply(doc.Selection, base)
	assert.Empty(t, sections)

	assert.Len(t, New(c, nil).Rules(), 3)
}

func TestEpisodeNumber(t *testing.T) {
	tests := []struct {
		text string
		want int
		ok   bool
	}{
		{"Episode 2", 2, true},
		{"EP-05 [1080p]", 5, true},
		{"S01E03", 3, true},
		{"S01 E10", 10, true},
		{"Episode 012", 12, true},
		{"Download 1080p", 0, false},
		{"Season 1", 0, false},
		{"THE END", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := EpisodeNumber(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTextHelpers(t *testing.T) {
	assert.Equal(t, "1080p", QualityFromText("Movie.2024.1080P.WEB"))
	assert.Equal(t, "4k", QualityFromText("4K HDR"))
	assert.Empty(t, QualityFromText("no quality"))

	assert.Equal(t, "2.1 GB", SizeFromText("[2.1GB]"))
	assert.Equal(t, "1.5 GB", SizeFromText("1,5 GiB"))
	assert.Equal(t, "700 MB", SizeFromText("size: 700 mb"))
	assert.Empty(t, SizeFromText("unknown"))
}
