// Package app turns a title request into streams.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/jjfiecas-stack/sootio-sub001/internal/domain"
	"github.com/jjfiecas-stack/sootio-sub001/internal/pipeline"
	"github.com/jjfiecas-stack/sootio-sub001/internal/utils"
	"github.com/samber/lo"
)

// Runner resolves the download pages of one title into streams
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) []domain.TerminalStream
}

// ServiceOptions contains the collaborators of a Service
type ServiceOptions struct {
	Metadata domain.MetadataProvider
	Searcher domain.Searcher
	Loader   domain.ContentLoader
	Runner   Runner
	Logger   *utils.Logger
}

// Service answers title requests end to end
type Service struct {
	metadata domain.MetadataProvider
	searcher domain.Searcher
	loader   domain.ContentLoader
	runner   Runner
	logger   *utils.Logger
}

// NewService creates a Service
func NewService(opts ServiceOptions) *Service {
	return &Service{
		metadata: opts.Metadata,
		searcher: opts.Searcher,
		loader:   opts.Loader,
		runner:   opts.Runner,
		logger:   opts.Logger.OrNop().WithComponent("service"),
	}
}

// GetStreamsForTitle never fails: every miss along the way is logged and
// yields an empty list.
func (s *Service) GetStreamsForTitle(ctx context.Context, req domain.TitleRequest) []domain.TerminalStream {
	empty := []domain.TerminalStream{}
	logger := s.logger.WithTitle(req.TitleID)

	meta := req.Meta
	if meta == nil {
		if s.metadata == nil {
			logger.Warn().Msg("No metadata provider configured")
			return empty
		}
		var err error
		meta, err = s.metadata.GetMeta(ctx, req.MediaType, req.TitleID)
		if err != nil || meta == nil {
			logger.Warn().Err(err).Msg("Metadata lookup failed")
			return empty
		}
	}

	result, ok := s.search(ctx, Queries(meta, req))
	if !ok {
		logger.Info().Str("name", meta.Name).Msg("No search results")
		return empty
	}

	page, err := s.loader.LoadContentPage(ctx, result.URL)
	if err != nil {
		logger.Warn().Err(err).Str("url", result.URL).Msg("Failed to load content page")
		return empty
	}

	streams := s.runner.Run(ctx, pipeline.Request{
		Title:         meta.Name,
		DownloadPages: page.DownloadPages,
		Languages:     page.Languages,
		Episode:       req.EpisodeRef(),
	})

	logger.Info().
		Str("name", meta.Name).
		Str("page", page.URL).
		Int("streams", len(streams)).
		Msg("Title resolved")
	return streams
}

// search tries each query in turn and stops at the first with any hit.
// Queries run one at a time so a gated site is never hit in parallel.
func (s *Service) search(ctx context.Context, queries []string) (domain.SearchResult, bool) {
	for _, q := range queries {
		if ctx.Err() != nil {
			break
		}
		results, err := s.searcher.Search(ctx, q)
		if err != nil {
			s.logger.Debug().Err(err).Str("query", q).Msg("Search failed")
			continue
		}
		if len(results) > 0 {
			return results[0], true
		}
	}
	return domain.SearchResult{}, false
}

// Queries returns the search queries for a title, most specific first:
// season-qualified name for series, the name, the original title, then name and year.
func Queries(meta *domain.Meta, req domain.TitleRequest) []string {
	name := strings.TrimSpace(meta.Name)
	var queries []string

	if req.MediaType == domain.MediaTypeSeries && req.Season > 0 {
		queries = append(queries, fmt.Sprintf("%s Season %d", name, req.Season))
	}
	queries = append(queries, name, strings.TrimSpace(meta.OriginalTitle))
	if meta.Year > 0 {
		queries = append(queries, fmt.Sprintf("%s %d", name, meta.Year))
	}

	queries = lo.Filter(queries, func(q string, _ int) bool { return strings.TrimSpace(q) != "" })
	return lo.UniqBy(queries, strings.ToLower)
}
