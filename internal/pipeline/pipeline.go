// Package pipeline turns a content page into validated, labeled streams.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jjfiecas-stack/sootio-sub001/internal/cache"
	"github.com/jjfiecas-stack/sootio-sub001/internal/domain"
	"github.com/jjfiecas-stack/sootio-sub001/internal/extractor"
	"github.com/jjfiecas-stack/sootio-sub001/internal/hosts"
	"github.com/jjfiecas-stack/sootio-sub001/internal/utils"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// DefaultWorkers is the fan-out width over download options
const DefaultWorkers = 4

// Options configures a Pipeline
type Options struct {
	Workers               int
	ValidateTimeout       time.Duration
	RequirePartialContent bool
	// OnProgress is called once per finished option, from worker goroutines
	OnProgress func()
}

// Dependencies are the collaborators a Pipeline drives
type Dependencies struct {
	Fetcher    domain.Fetcher
	Classifier *hosts.Classifier
	Resolver   domain.Resolver
	Recoverer  domain.FilenameRecoverer
	Validator  domain.Validator
	Session    *cache.Session
	Logger     *utils.Logger
}

// Request describes one pass over the download pages of a title
type Request struct {
	Title         string
	DownloadPages []string
	Languages     []string
	Episode       *domain.Episode
	// QualityHint overrides each option's own quality when disambiguating
	QualityHint string
}

type job struct {
	page   string
	option domain.DownloadOption
}

// Pipeline extracts options, resolves them concurrently and gates direct links
type Pipeline struct {
	fetcher    domain.Fetcher
	classifier *hosts.Classifier
	extractor  *extractor.Extractor
	resolver   domain.Resolver
	recoverer  domain.FilenameRecoverer
	validator  domain.Validator
	session    *cache.Session
	opts       Options
	logger     *utils.Logger
}

// New creates a pipeline
func New(deps Dependencies, opts Options) *Pipeline {
	classifier := deps.Classifier
	if classifier == nil {
		classifier = hosts.MustDefault()
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	logger := deps.Logger.OrNop()

	return &Pipeline{
		fetcher:    deps.Fetcher,
		classifier: classifier,
		extractor:  extractor.New(classifier, logger),
		resolver:   deps.Resolver,
		recoverer:  deps.Recoverer,
		validator:  deps.Validator,
		session:    deps.Session,
		opts:       opts,
		logger:     logger.WithComponent("pipeline"),
	}
}

// Run returns the deduplicated streams of every download page in req.
// Order follows page order, then option order within a page.
func (p *Pipeline) Run(ctx context.Context, req Request) []domain.TerminalStream {
	var jobs []job
	for _, page := range req.DownloadPages {
		for _, opt := range p.Options(ctx, page, req.Episode) {
			jobs = append(jobs, job{page: page, option: opt})
		}
	}
	if len(jobs) == 0 {
		p.logger.Debug().Str("title", req.Title).Msg("No download options found")
		return []domain.TerminalStream{}
	}

	start := time.Now()
	results := utils.ResolveAll(ctx, jobs, p.opts.Workers, func(ctx context.Context, j job) (domain.TerminalStream, error) {
		if p.opts.OnProgress != nil {
			defer p.opts.OnProgress()
		}
		return p.resolveOption(ctx, req, j)
	})

	streams := lo.FilterMap(results, func(r mo.Option[domain.TerminalStream], _ int) (domain.TerminalStream, bool) {
		return r.Get()
	})
	streams = lo.UniqBy(streams, func(s domain.TerminalStream) string { return s.URL })

	p.logger.Info().
		Str("title", req.Title).
		Int("options", len(jobs)).
		Int("streams", len(streams)).
		Dur("duration", time.Since(start)).
		Msg("Resolved streams")

	return streams
}

// Options returns the download options of one page, from cache when fresh.
// Whole-page and episode-filtered lists are cached under separate keys.
func (p *Pipeline) Options(ctx context.Context, pageURL string, ep *domain.Episode) []domain.DownloadOption {
	store, key := p.optionStore(pageURL, ep)
	if store != nil {
		if hit, ok := store.Get(key).Get(); ok {
			return hit
		}
	}

	resp, err := p.fetcher.Get(ctx, pageURL)
	if err != nil {
		p.logger.Debug().Err(err).Str("url", pageURL).Msg("Download page fetch failed")
		return nil
	}
	if resp.Document == nil {
		return nil
	}

	options := p.extractor.Extract(resp.Document, resp.URL, ep)
	if store != nil {
		store.Put(key, options)
	}
	return options
}

func (p *Pipeline) optionStore(pageURL string, ep *domain.Episode) (*cache.TTLCache[[]domain.DownloadOption], string) {
	if p.session == nil {
		return nil, ""
	}
	if ep != nil {
		return p.session.Episodes, cache.EpisodeKey(pageURL, *ep)
	}
	return p.session.Options, cache.OptionsKey(pageURL)
}

// resolveOption unwraps one option and decides how its terminal URL is checked:
// wrappers pass as they are, ID hosters get their name recovered, and
// everything else, including URLs of no known host shape, must pass the
// seekability gate.
func (p *Pipeline) resolveOption(ctx context.Context, req Request, j job) (domain.TerminalStream, error) {
	hint := req.QualityHint
	if hint == "" {
		hint = j.option.Quality
	}

	target, ok := p.resolver.Resolve(ctx, domain.ResolutionRequest{
		TargetURL:     j.option.URL,
		SourcePageURL: j.page,
		QualityHint:   hint,
	}).Get()
	if !ok {
		return domain.TerminalStream{}, fmt.Errorf("%w: %s", domain.ErrInvalidURL, j.option.URL)
	}

	stream := domain.TerminalStream{
		URL:       target,
		Size:      j.option.Size,
		Languages: req.Languages,
	}
	var name string

	switch p.classifier.Kind(target) {
	case hosts.KindWrapper:
	case hosts.KindIDHoster:
		if p.recoverer != nil {
			if info, ok := p.recoverer.Recover(ctx, target).Get(); ok {
				name = info.Name
				if stream.Size == "" {
					stream.Size = info.Size
				}
			}
		}
	default:
		v := p.validator.Validate(ctx, target, domain.ValidateOptions{
			RequirePartialContent: p.opts.RequirePartialContent,
			Timeout:               p.opts.ValidateTimeout,
		})
		if !v.IsValid {
			p.logger.Debug().Str("url", target).Int("status", v.StatusCode).Msg("Dropping non-seekable link")
			return domain.TerminalStream{}, fmt.Errorf("%w: %s", domain.ErrNotSeekable, target)
		}
		name = v.Filename
		if stream.Size == "" && v.ContentLength > 0 {
			stream.Size = humanize.Bytes(uint64(v.ContentLength))
		}
	}

	stream.Label = label(name, req.Title, j.option.Quality)
	return stream, nil
}

// label prefers a recovered file name, else "<title> <quality>"
func label(name, title, quality string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return strings.TrimSpace(strings.TrimSpace(title) + " " + strings.TrimSpace(quality))
}
