package geocode

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sojunghan/territory-cli/internal/model"
)

// ErrEmptyQuery is returned for a blank search query.
var ErrEmptyQuery = eris.New("geocode: empty query")

// ErrNoProviders is returned when no configured provider is available.
var ErrNoProviders = eris.New("geocode: no available providers")

// Provider represents a single geocoding backend.
type Provider interface {
	Name() string
	Available() bool
	Search(ctx context.Context, query string) ([]model.Candidate, error)
}

// CascadeClient tries providers in order and returns the first non-empty
// result set.
type CascadeClient struct {
	providers        []Provider
	cache            *resultCache
	batchConcurrency int
}

// CascadeOption configures the CascadeClient.
type CascadeOption func(*CascadeClient)

// WithCacheTTL sets how long results are cached. Zero disables caching.
func WithCacheTTL(ttl time.Duration) CascadeOption {
	return func(c *CascadeClient) {
		if ttl <= 0 {
			c.cache = nil
			return
		}
		c.cache = newResultCache(ttl)
	}
}

// WithBatchConcurrency sets the max parallel searches for BatchSearch.
func WithBatchConcurrency(n int) CascadeOption {
	return func(c *CascadeClient) {
		if n > 0 {
			c.batchConcurrency = n
		}
	}
}

// NewCascadeClient creates a CascadeClient that tries providers in order.
func NewCascadeClient(providers []Provider, opts ...CascadeOption) *CascadeClient {
	c := &CascadeClient{
		providers:        providers,
		cache:            newResultCache(time.Hour),
		batchConcurrency: 4,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Providers returns the names of the available providers in cascade order.
func (c *CascadeClient) Providers() []string {
	var names []string
	for _, p := range c.providers {
		if p.Available() {
			names = append(names, p.Name())
		}
	}
	return names
}

// Search returns the candidates of the first provider with any result. A
// provider error is logged and the next provider tried. An error is only
// returned when every available provider failed.
func (c *CascadeClient) Search(ctx context.Context, query string) ([]model.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if c.cache != nil {
		if hit, ok := c.cache.get(query); ok {
			zap.L().Debug("geocode: cache hit", zap.String("query", query), zap.Int("candidates", len(hit)))
			return hit, nil
		}
	}

	var (
		errs      []error
		attempted int
	)
	for _, p := range c.providers {
		if !p.Available() {
			continue
		}
		attempted++
		candidates, err := p.Search(ctx, query)
		if err != nil {
			zap.L().Warn("geocode: provider error, trying next",
				zap.String("provider", p.Name()),
				zap.String("query", query),
				zap.Error(err),
			)
			errs = append(errs, err)
			continue
		}
		if len(candidates) == 0 {
			zap.L().Debug("geocode: provider returned nothing", zap.String("provider", p.Name()), zap.String("query", query))
			continue
		}
		if c.cache != nil {
			c.cache.set(query, candidates)
		}
		return candidates, nil
	}

	if attempted == 0 {
		return nil, ErrNoProviders
	}
	if len(errs) == attempted {
		return nil, eris.Wrap(errors.Join(errs...), "geocode: all providers failed")
	}
	return nil, nil
}

// BatchResult is the outcome of one query in a batch.
type BatchResult struct {
	Query      string
	Candidates []model.Candidate
	Err        error
}

// BatchSearch searches several queries in parallel. Individual failures are
// reported per result and do not fail the batch.
func (c *CascadeClient) BatchSearch(ctx context.Context, queries []string) []BatchResult {
	if len(queries) == 0 {
		return nil
	}

	results := make([]BatchResult, len(queries))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(c.batchConcurrency)

	for i, q := range queries {
		eg.Go(func() error {
			candidates, err := c.Search(gCtx, q)
			results[i] = BatchResult{Query: q, Candidates: candidates, Err: err}
			return nil
		})
	}

	_ = eg.Wait()
	return results
}
