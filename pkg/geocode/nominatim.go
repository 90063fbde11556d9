package geocode

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sojunghan/territory-cli/internal/model"
)

const (
	// DefaultNominatimURL is the public OSM Nominatim endpoint.
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"
	// DefaultUserAgent identifies this application to Nominatim.
	DefaultUserAgent = "sojunghan_bapsang_manager"

	nominatimLimit = 5
)

// regionPlaceTypes are OSM place values that denote a neighbourhood or
// larger settlement rather than a single site.
var regionPlaceTypes = map[string]bool{
	"city":          true,
	"city_district": true,
	"borough":       true,
	"suburb":        true,
	"quarter":       true,
	"neighbourhood": true,
	"town":          true,
	"village":       true,
	"hamlet":        true,
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Category    string `json:"category"`
	Type        string `json:"type"`
	AddressType string `json:"addresstype"`
}

// NominatimProvider searches OpenStreetMap Nominatim, restricted to Korea.
type NominatimProvider struct {
	baseURL   string
	userAgent string
	http      *httpBackend
}

// NewNominatimProvider creates a provider for the Nominatim instance at
// baseURL. Empty arguments fall back to the public instance and the
// default user agent.
func NewNominatimProvider(baseURL, userAgent string, opts ...Option) *NominatimProvider {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &NominatimProvider{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		http:      newHTTPBackend("nominatim", opts),
	}
}

// Name implements Provider.
func (p *NominatimProvider) Name() string { return "nominatim" }

// Available implements Provider.
func (p *NominatimProvider) Available() bool { return true }

// Search implements Provider.
func (p *NominatimProvider) Search(ctx context.Context, query string) ([]model.Candidate, error) {
	params := url.Values{
		"q":               {query},
		"format":          {"jsonv2"},
		"countrycodes":    {"kr"},
		"limit":           {strconv.Itoa(nominatimLimit)},
		"accept-language": {"ko"},
	}
	header := http.Header{"User-Agent": {p.userAgent}}

	var places []nominatimPlace
	if err := p.http.getJSON(ctx, p.baseURL+"/search?"+params.Encode(), header, &places); err != nil {
		return nil, err
	}

	out := make([]model.Candidate, 0, len(places))
	for _, pl := range places {
		lat, errLat := strconv.ParseFloat(pl.Lat, 64)
		lon, errLon := strconv.ParseFloat(pl.Lon, 64)
		if errLat != nil || errLon != nil {
			continue
		}
		loc, err := model.NewGeoPoint(lat, lon)
		if err != nil {
			continue
		}
		name := pl.Name
		if name == "" {
			name = pl.DisplayName
		}
		out = append(out, model.Candidate{
			Address:  pl.DisplayName,
			Name:     name,
			Location: loc,
			Metadata: map[string]string{
				model.MetaProvider:  p.Name(),
				model.MetaMatch:     model.MatchAddress,
				model.MetaPlaceType: nominatimPlaceType(pl),
				model.MetaCategory:  pl.Category,
			},
		})
	}
	return out, nil
}

func nominatimPlaceType(pl nominatimPlace) string {
	switch {
	case pl.Category == "boundary" && pl.Type == "administrative":
		return "administrative"
	case pl.Category == "place" && regionPlaceTypes[pl.Type]:
		return "region"
	default:
		return pl.Type
	}
}
