// Package territory ties geocoding, classification and the claim registry
// together: search a place, pick a candidate, claim it.
package territory

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sojunghan/territory-cli/internal/geo"
	"github.com/sojunghan/territory-cli/internal/model"
	"github.com/sojunghan/territory-cli/internal/registry"
)

var (
	// ErrNoMatch is returned when the geocoder finds nothing for a query.
	ErrNoMatch = eris.New("territory: no location matched the query")
	// ErrNoGeocoder is returned for searches when no geocoder is configured.
	ErrNoGeocoder = eris.New("territory: no geocoder configured")
	// ErrQueryRequired is returned for a claim with neither a query nor a location.
	ErrQueryRequired = eris.New("territory: a query or a location is required")
)

// ChoiceError reports a candidate index outside the search results.
type ChoiceError struct {
	Choice     int
	Candidates int
}

func (e *ChoiceError) Error() string {
	return fmt.Sprintf("territory: choice %d out of range, %d candidates", e.Choice, e.Candidates)
}

// Searcher resolves a free-text query to candidate locations.
type Searcher interface {
	Search(ctx context.Context, query string) ([]model.Candidate, error)
}

// Match is a search candidate with the claim kind it would be registered as.
type Match struct {
	model.Candidate `yaml:",inline"`
	Kind            model.ClaimKind `json:"kind" yaml:"kind"`
}

// ClaimRequest describes a claim by query or by explicit location. When
// Location is set the geocoder is not consulted.
type ClaimRequest struct {
	Owner  string `json:"owner"`
	Branch string `json:"branch,omitempty"`
	// Place is the label stored with the claim. Defaults to Query.
	Place string `json:"place,omitempty"`
	Query string `json:"query,omitempty"`
	// Choice indexes the search results returned by Search for Query.
	Choice int `json:"choice,omitempty"`

	Location *model.GeoPoint `json:"location,omitempty"`
	// Kind applies to explicit locations. Empty derives it from the label.
	Kind    model.ClaimKind `json:"kind,omitempty"`
	Address string          `json:"address,omitempty"`
}

// Service runs searches and claims against a registry.
type Service struct {
	geocoder Searcher
	registry *registry.Registry
}

// New creates a Service. geocoder may be nil when only explicit locations
// are claimed.
func New(geocoder Searcher, reg *registry.Registry) *Service {
	return &Service{geocoder: geocoder, registry: reg}
}

// Registry returns the underlying claim registry.
func (s *Service) Registry() *registry.Registry { return s.registry }

// Search geocodes query and classifies every candidate. Address hits come
// before keyword hits.
func (s *Service) Search(ctx context.Context, query string) ([]Match, error) {
	if s.geocoder == nil {
		return nil, ErrNoGeocoder
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrQueryRequired
	}

	candidates, err := s.geocoder.Search(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "territory: search")
	}
	if len(candidates) == 0 {
		return nil, eris.Wrapf(ErrNoMatch, "query %q", query)
	}

	ordered := geo.Prioritize(candidates)
	out := make([]Match, len(ordered))
	for i, c := range ordered {
		out[i] = Match{Candidate: c, Kind: geo.Classify(query, c)}
	}
	return out, nil
}

// Claim resolves req to a location and registers it. Conflicts come back
// as *registry.ConflictError.
func (s *Service) Claim(ctx context.Context, req ClaimRequest) (model.Claim, error) {
	place := strings.TrimSpace(req.Place)
	if place == "" {
		place = strings.TrimSpace(req.Query)
	}

	c := model.Claim{
		Owner:   req.Owner,
		Branch:  req.Branch,
		Place:   place,
		Address: req.Address,
	}

	switch {
	case req.Location != nil:
		c.Location = *req.Location
		c.Kind = req.Kind
		if c.Kind == "" {
			c.Kind = geo.KindFromLabel(place)
		}
	case strings.TrimSpace(req.Query) != "":
		// Fail before geocoding when the claim could never be registered.
		if strings.TrimSpace(req.Owner) == "" {
			return model.Claim{}, registry.ErrOwnerRequired
		}
		matches, err := s.Search(ctx, req.Query)
		if err != nil {
			return model.Claim{}, err
		}
		if req.Choice < 0 || req.Choice >= len(matches) {
			return model.Claim{}, &ChoiceError{Choice: req.Choice, Candidates: len(matches)}
		}
		m := matches[req.Choice]
		c.Location = m.Location
		c.Kind = m.Kind
		if c.Address == "" {
			c.Address = m.Address
		}
	default:
		return model.Claim{}, ErrQueryRequired
	}

	return s.registry.Register(ctx, c)
}
