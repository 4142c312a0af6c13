package filename

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/jjfiecas-stack/sootio-sub001/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pageFetcher struct {
	pages map[string]string
	last  *domain.Request
}

func (f *pageFetcher) Get(ctx context.Context, rawURL string) (*domain.Response, error) {
	return f.Do(ctx, &domain.Request{URL: rawURL, ParseHTML: true})
}

func (f *pageFetcher) Do(_ context.Context, req *domain.Request) (*domain.Response, error) {
	f.last = req
	html, ok := f.pages[req.URL]
	if !ok {
		return nil, domain.NewFetchError(req.URL, http.StatusNotFound, domain.ErrNotFound)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	doc.Url, _ = url.Parse(req.URL)
	return &domain.Response{StatusCode: http.StatusOK, Body: []byte(html), URL: req.URL, Document: doc}, nil
}

func (f *pageFetcher) Transport() http.RoundTripper { return nil }
func (f *pageFetcher) Close() error                 { return nil }

func TestRecover(t *testing.T) {
	const pd = "https://pixeldrain.com/u/abc123"

	tests := []struct {
		name     string
		html     string
		wantName string
		wantSize string
		wantNone bool
	}{
		{
			name:     "file name element",
			html:     `<title>pixeldrain</title><div class="file-name">Movie.2024.1080p.WEB-DL.mkv</div><span class="file-size">2.1 GB</span>`,
			wantName: "Movie.2024.1080p.WEB-DL",
			wantSize: "2.1 GB",
		},
		{
			name:     "og title with branding",
			html:     `<meta property="og:title" content="Movie.2024.720p.mp4 ~ pixeldrain"><p>Size: 900 MiB</p>`,
			wantName: "Movie.2024.720p",
			wantSize: "900 MB",
		},
		{
			name:     "title tag with brand prefix",
			html:     `<title>GoFile - Show.S01E02.1080p.mkv</title>`,
			wantName: "Show.S01E02.1080p",
		},
		{
			name:     "blocked title falls through to heading",
			html:     `<title>Just a moment...</title><h1>Show.S02E05.2160p.mkv</h1>`,
			wantName: "Show.S02E05.2160p",
		},
		{
			name:     "challenge page",
			html:     `<title>Attention Required! | Cloudflare</title><h1>Access denied</h1>`,
			wantNone: true,
		},
		{
			name:     "not found page",
			html:     `<title>404 Not Found</title>`,
			wantNone: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &pageFetcher{pages: map[string]string{pd: tt.html}}
			r := New(f, nil, Options{}, nil)

			got := r.Recover(context.Background(), pd)
			if tt.wantNone {
				assert.True(t, got.IsAbsent())
				return
			}
			info, ok := got.Get()
			require.True(t, ok)
			assert.Equal(t, tt.wantName, info.Name)
			assert.Equal(t, tt.wantSize, info.Size)
		})
	}
}

func TestRecover_FetchFailure(t *testing.T) {
	r := New(&pageFetcher{}, nil, Options{}, nil)

	assert.True(t, r.Recover(context.Background(), "https://gofile.io/d/missing").IsAbsent())
}

func TestRecover_UsesTimeout(t *testing.T) {
	f := &pageFetcher{pages: map[string]string{"https://gofile.io/d/x": `<h1>Clip.mp4</h1>`}}
	r := New(f, nil, Options{}, nil)

	r.Recover(context.Background(), "https://gofile.io/d/x")
	require.NotNil(t, f.last)
	assert.Equal(t, DefaultTimeout, f.last.Timeout)
	assert.True(t, f.last.ParseHTML)
}

func TestClean(t *testing.T) {
	r := New(nil, nil, Options{}, nil)

	tests := []struct {
		in   string
		want string
	}{
		{"  Movie.2024.1080p.mkv  ", "Movie.2024.1080p"},
		{"Movie 2024 | pixeldrain", "Movie 2024"},
		{"Download - Film.webm", "Film"},
		{"DDoS-Guard", ""},
		{"Please wait", ""},
		{"404 Not Found", ""},
		{"404 | Pixeldrain", ""},
		{"Loading...", ""},
		{"Untitled", ""},
		{"Room.404.2023.1080p.mkv", "Room.404.2023.1080p"},
		{"Loading.Zone.2021.720p", "Loading.Zone.2021.720p"},
		{"", ""},
		{".mp4", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Clean(tt.in))
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	r := New(nil, nil, Options{}, nil)
	assert.NotNil(t, r.classifier)
	assert.Equal(t, DefaultTimeout, r.timeout)
}
