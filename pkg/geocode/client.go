// Package geocode turns free-text place queries into candidate locations
// using Kakao Local and OSM Nominatim, with a cascading, cached client.
package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sojunghan/territory-cli/internal/resilience"
)

// Option configures an HTTP provider.
type Option func(*httpBackend)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(b *httpBackend) {
		b.hc = hc
	}
}

// WithRateLimit sets the requests-per-second limit. Nominatim's usage
// policy allows one request per second.
func WithRateLimit(rps float64) Option {
	return func(b *httpBackend) {
		if rps <= 0 {
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		b.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetry sets the retry policy for transient failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(b *httpBackend) {
		b.retry = cfg
	}
}

// httpBackend is the rate-limited, retrying JSON GET shared by providers.
type httpBackend struct {
	name    string
	hc      *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

func newHTTPBackend(name string, opts []Option) *httpBackend {
	b := &httpBackend{
		name:    name,
		hc:      &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(1, 1),
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.retry.OnRetry == nil {
		b.retry.OnRetry = resilience.RetryLogger(name, "search")
	}
	return b
}

// getJSON fetches reqURL and decodes the JSON body into out.
func (b *httpBackend) getJSON(ctx context.Context, reqURL string, header http.Header, out any) error {
	return resilience.Do(ctx, b.retry, func(ctx context.Context) error {
		if err := b.limiter.Wait(ctx); err != nil {
			return eris.Wrapf(err, "geocode: %s rate limit", b.name)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return eris.Wrapf(err, "geocode: %s build request", b.name)
		}
		for k, vs := range header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		req.Header.Set("Accept", "application/json")

		resp, err := b.hc.Do(req)
		if err != nil {
			return eris.Wrapf(err, "geocode: %s request", b.name)
		}
		defer resp.Body.Close() //nolint:errcheck

		if err := resilience.CheckResponse("geocode: "+b.name, resp); err != nil {
			return err
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return eris.Wrapf(err, "geocode: %s read body", b.name)
		}
		if err := json.Unmarshal(body, out); err != nil {
			return eris.Wrapf(err, "geocode: %s parse response", b.name)
		}
		return nil
	})
}
