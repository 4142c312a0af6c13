package app

import (
	"errors"
	"fmt"

	"github.com/jjfiecas-stack/sootio-sub001/internal/cache"
	"github.com/jjfiecas-stack/sootio-sub001/internal/catalog"
	"github.com/jjfiecas-stack/sootio-sub001/internal/config"
	"github.com/jjfiecas-stack/sootio-sub001/internal/domain"
	"github.com/jjfiecas-stack/sootio-sub001/internal/fetcher"
	"github.com/jjfiecas-stack/sootio-sub001/internal/filename"
	"github.com/jjfiecas-stack/sootio-sub001/internal/hosts"
	"github.com/jjfiecas-stack/sootio-sub001/internal/output"
	"github.com/jjfiecas-stack/sootio-sub001/internal/pipeline"
	"github.com/jjfiecas-stack/sootio-sub001/internal/resolver"
	"github.com/jjfiecas-stack/sootio-sub001/internal/utils"
	"github.com/jjfiecas-stack/sootio-sub001/internal/validator"
)

// Dependencies holds every collaborator built from one configuration
type Dependencies struct {
	Fetcher    *fetcher.Client
	BodyCache  *cache.BadgerCache
	Classifier *hosts.Classifier
	Session    *cache.Session
	Resolver   *resolver.Resolver
	Recoverer  *filename.Recoverer
	Validator  *validator.Validator
	Pipeline   *pipeline.Pipeline
	Loader     *catalog.Loader
	// Searcher is nil when no catalog site is configured
	Searcher  *catalog.Searcher
	Metadata  domain.MetadataProvider
	Formatter *output.Formatter
	Logger    *utils.Logger
}

// NewDependencies wires the full stack from cfg. onProgress may be nil.
func NewDependencies(cfg *config.Config, logger *utils.Logger, onProgress func()) (*Dependencies, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	logger = logger.OrNop()

	classifier, err := hosts.LoadClassifier(cfg.Hosts.File)
	if err != nil {
		return nil, fmt.Errorf("failed to load host table: %w", err)
	}

	client, err := fetcher.NewClient(fetcher.ClientOptions{
		Timeout:         cfg.Concurrency.Timeout,
		MaxRetries:      cfg.Concurrency.MaxRetries,
		FollowRedirects: true,
		EnableCache:     cfg.Cache.BodyCache,
		CacheTTL:        cfg.Cache.TTL,
		UserAgent:       cfg.Stealth.UserAgent,
		ProxyURL:        cfg.Stealth.Proxy,
		Logger:          logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}

	deps := &Dependencies{
		Fetcher:    client,
		Classifier: classifier,
		Formatter:  output.NewFormatter(""),
		Logger:     logger,
	}

	if cfg.Cache.BodyCache {
		bodyCache, err := cache.NewBadgerCache(cache.DefaultOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to create body cache: %w", err)
		}
		client.SetCache(bodyCache)
		deps.BodyCache = bodyCache
	}

	var ttlOpts []cache.TTLOption
	if cfg.Cache.MaxEntries > 0 {
		ttlOpts = append(ttlOpts, cache.WithMaxEntries(cfg.Cache.MaxEntries))
	}
	deps.Session = cache.NewSession(cfg.Cache.TTL, ttlOpts...)

	deps.Resolver = resolver.New(client, classifier, deps.Session.Hops, resolver.Options{
		MaxHops:         cfg.Concurrency.MaxHops,
		PropagateCancel: cfg.Concurrency.PropagateCancel,
	}, logger)
	deps.Recoverer = filename.New(client, classifier, filename.Options{Timeout: cfg.Concurrency.Timeout}, logger)
	deps.Validator = validator.New(client, logger)

	deps.Pipeline = pipeline.New(pipeline.Dependencies{
		Fetcher:    client,
		Classifier: classifier,
		Resolver:   deps.Resolver,
		Recoverer:  deps.Recoverer,
		Validator:  deps.Validator,
		Session:    deps.Session,
		Logger:     logger,
	}, pipeline.Options{
		Workers:               cfg.Concurrency.Workers,
		ValidateTimeout:       cfg.Concurrency.ValidateTimeout,
		RequirePartialContent: cfg.Concurrency.RequirePartialContent,
		OnProgress:            onProgress,
	})

	deps.Loader = catalog.NewLoader(client, classifier, deps.Session.Pages, logger)
	if cfg.Catalog.SiteURL != "" {
		deps.Searcher, err = catalog.NewSearcher(client, cfg.Catalog.SiteURL, logger)
		if err != nil {
			return nil, err
		}
	}
	deps.Metadata = catalog.NewChainProvider(logger,
		catalog.NewCinemetaProvider(client, cfg.Catalog.MetaURL),
		catalog.NewPageMetadataProvider(client, cfg.Catalog.FallbackURL),
	)

	return deps, nil
}

// Service builds the title-level service over these dependencies.
// It fails when no searcher is configured.
func (d *Dependencies) Service() (*Service, error) {
	if d.Searcher == nil {
		return nil, fmt.Errorf("catalog.site_url is required to search titles")
	}
	return NewService(ServiceOptions{
		Metadata: d.Metadata,
		Searcher: d.Searcher,
		Loader:   d.Loader,
		Runner:   d.Pipeline,
		Logger:   d.Logger,
	}), nil
}

// Close releases the fetcher and body cache
func (d *Dependencies) Close() error {
	var errs []error
	if d.Fetcher != nil {
		errs = append(errs, d.Fetcher.Close())
	}
	if d.BodyCache != nil {
		errs = append(errs, d.BodyCache.Close())
	}
	return errors.Join(errs...)
}
