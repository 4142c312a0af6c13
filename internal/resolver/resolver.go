// Package resolver unwraps intermediary wrapper pages down to a terminal URL.
package resolver

import (
	"context"
	"net/url"

	"github.com/jjfiecas-stack/sootio-sub001/internal/cache"
	"github.com/jjfiecas-stack/sootio-sub001/internal/domain"
	"github.com/jjfiecas-stack/sootio-sub001/internal/hosts"
	"github.com/jjfiecas-stack/sootio-sub001/internal/utils"
	"github.com/samber/mo"
)

// DefaultMaxHops bounds how many wrapper pages one resolution may fetch
const DefaultMaxHops = 5

// Ensure Resolver implements domain.Resolver
var _ domain.Resolver = (*Resolver)(nil)

// Options configures a Resolver
type Options struct {
	MaxHops int
	// PropagateCancel threads the caller's cancellation into hop fetches.
	// By default a resolution, once started, runs to completion.
	PropagateCancel bool
}

// Resolver walks wrapper pages as a state machine with a hop counter
type Resolver struct {
	fetcher    domain.Fetcher
	classifier *hosts.Classifier
	hops       *cache.TTLCache[string]
	opts       Options
	logger     *utils.Logger
}

// New creates a resolver. hops may be nil to disable result caching.
func New(fetcher domain.Fetcher, classifier *hosts.Classifier, hops *cache.TTLCache[string], opts Options, logger *utils.Logger) *Resolver {
	if classifier == nil {
		classifier = hosts.MustDefault()
	}
	if opts.MaxHops <= 0 {
		opts.MaxHops = DefaultMaxHops
	}
	return &Resolver{
		fetcher:    fetcher,
		classifier: classifier,
		hops:       hops,
		opts:       opts,
		logger:     logger.OrNop().WithComponent("resolver"),
	}
}

// Resolve returns the terminal URL behind req.TargetURL. A URL of no known
// wrapper shape is returned unchanged; a failing hop yields the URL that hop
// was asked to resolve; exhausting the hop budget yields the original URL.
// None means the target itself is not a usable http(s) URL.
func (r *Resolver) Resolve(ctx context.Context, req domain.ResolutionRequest) mo.Option[string] {
	var base *url.URL
	if req.SourcePageURL != "" {
		base, _ = url.Parse(req.SourcePageURL)
	}
	target, ok := utils.AbsoluteURL(base, req.TargetURL)
	if !ok {
		return mo.None[string]()
	}

	key := cache.HopKey(target, req.QualityHint)
	if r.hops != nil {
		if hit, ok := r.hops.Get(key).Get(); ok {
			return mo.Some(hit)
		}
	}

	if !r.opts.PropagateCancel {
		ctx = context.WithoutCancel(ctx)
	}

	result, terminal := r.run(ctx, target, req.SourcePageURL, req.QualityHint)
	if terminal && r.hops != nil {
		r.hops.Put(key, result)
	}
	return mo.Some(result)
}

// run walks the state machine. terminal is false when the walk stopped early on
// a failed hop or the hop bound; such fallbacks are not cached.
func (r *Resolver) run(ctx context.Context, target, referer, hint string) (result string, terminal bool) {
	logger := r.logger.WithURL(target)

	current := target
	state := initialState(r.classifier.Tier(current))

	for hops := 0; state != StateTerminal; hops++ {
		if hops >= r.opts.MaxHops {
			logger.Debug().Err(domain.ErrHopLimit).Int("hops", hops).Msg("Keeping original URL")
			return target, false
		}

		next, err := r.step(ctx, state, current, referer, hint)
		if err != nil {
			logger.Debug().Err(err).Str("state", state.String()).Str("hop_url", current).Msg("Hop failed, keeping its URL")
			return current, false
		}

		tier := r.classifier.Tier(next)
		logger.Trace().
			Str("from", state.String()).
			Str("to", transition(state, tier).String()).
			Str("next", next).
			Msg("Hop")

		referer = current
		current = next
		state = transition(state, tier)
	}

	return current, true
}

// step fetches one wrapper page and picks the candidate to follow
func (r *Resolver) step(ctx context.Context, state State, pageURL, referer, hint string) (string, error) {
	req := &domain.Request{URL: pageURL, ParseHTML: true}
	if referer != "" {
		req.Headers = map[string]string{"Referer": referer}
	}

	resp, err := r.fetcher.Do(ctx, req)
	if err != nil {
		return "", err
	}
	if resp.Document == nil {
		return "", domain.ErrNoDocument
	}

	base := pageBase(resp, pageURL)

	var candidates []domain.ResolvedCandidate
	switch state {
	case StateFirstTier:
		candidates = scanFirstTier(resp.Document, base, pageURL, r.classifier)
	case StateSecondTier:
		candidates = scanSecondTier(resp.Document, base, pageURL, r.classifier)
	}

	chosen, ok := choose(candidates, hint)
	if !ok {
		return "", domain.ErrNoCandidates
	}
	return chosen.Href, nil
}

// pageBase is the URL relative links on a fetched page resolve against
func pageBase(resp *domain.Response, requested string) *url.URL {
	if resp.Document != nil && resp.Document.Url != nil {
		return resp.Document.Url
	}
	for _, raw := range []string{resp.URL, requested} {
		if u, err := url.Parse(raw); err == nil && u.IsAbs() {
			return u
		}
	}
	return nil
}

// Classifier returns the classifier the resolver routes with
func (r *Resolver) Classifier() *hosts.Classifier {
	return r.classifier
}

