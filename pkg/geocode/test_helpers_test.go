package geocode

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/sojunghan/territory-cli/internal/model"
	"github.com/sojunghan/territory-cli/internal/resilience"
)

// testOptions points a provider at a test server without rate limiting and
// with near-instant retries.
func testOptions(testServerURL, targetPrefix string) []Option {
	return []Option{
		WithHTTPClient(newRewriteClient(testServerURL, targetPrefix)),
		func(b *httpBackend) { b.limiter = rate.NewLimiter(rate.Inf, 1) },
		WithRetry(resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}),
	}
}

// newRewriteClient creates an HTTP client that redirects requests matching
// targetPrefix to the test server.
func newRewriteClient(testServerURL, targetPrefix string) *http.Client {
	return &http.Client{
		Transport: &rewriteTransport{
			base:         http.DefaultTransport,
			testServer:   testServerURL,
			targetPrefix: targetPrefix,
		},
	}
}

type rewriteTransport struct {
	base         http.RoundTripper
	testServer   string
	targetPrefix string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	origURL := req.URL.String()
	if !strings.HasPrefix(origURL, t.targetPrefix) {
		return t.base.RoundTrip(req)
	}
	parsed, err := req.URL.Parse(t.testServer + origURL[len(t.targetPrefix):])
	if err != nil {
		return nil, err
	}
	newReq := req.Clone(req.Context())
	newReq.URL = parsed
	newReq.Host = parsed.Host
	return t.base.RoundTrip(newReq)
}

// stubProvider is an in-memory Provider.
type stubProvider struct {
	name      string
	available bool
	results   map[string][]model.Candidate
	err       error
	calls     atomic.Int32
}

func (s *stubProvider) Name() string    { return s.name }
func (s *stubProvider) Available() bool { return s.available }

func (s *stubProvider) Search(_ context.Context, query string) ([]model.Candidate, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.results[query], nil
}

func candidateAt(name string, lat, lon float64) model.Candidate {
	return model.Candidate{
		Name:     name,
		Address:  name,
		Location: model.GeoPoint{Lat: lat, Lon: lon},
		Metadata: map[string]string{model.MetaMatch: model.MatchAddress},
	}
}
