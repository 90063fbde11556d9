package geocode

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/sojunghan/territory-cli/internal/model"
)

const (
	kakaoBaseURL    = "https://dapi.kakao.com"
	kakaoAddressURL = kakaoBaseURL + "/v2/local/search/address.json"
	kakaoKeywordURL = kakaoBaseURL + "/v2/local/search/keyword.json"
	kakaoPageSize   = 10
)

type kakaoAddressResponse struct {
	Documents []struct {
		AddressName string `json:"address_name"`
		AddressType string `json:"address_type"`
		X           string `json:"x"`
		Y           string `json:"y"`
	} `json:"documents"`
}

type kakaoKeywordResponse struct {
	Documents []struct {
		PlaceName         string `json:"place_name"`
		AddressName       string `json:"address_name"`
		RoadAddressName   string `json:"road_address_name"`
		CategoryGroupName string `json:"category_group_name"`
		X                 string `json:"x"`
		Y                 string `json:"y"`
	} `json:"documents"`
}

// KakaoProvider searches the Kakao Local API. Address hits come first,
// keyword (POI) hits are appended and tagged as such.
type KakaoProvider struct {
	key  string
	http *httpBackend
}

// NewKakaoProvider creates a provider using the given REST API key.
func NewKakaoProvider(key string, opts ...Option) *KakaoProvider {
	opts = append([]Option{WithRateLimit(10)}, opts...)
	return &KakaoProvider{key: key, http: newHTTPBackend("kakao", opts)}
}

// Name implements Provider.
func (p *KakaoProvider) Name() string { return "kakao" }

// Available implements Provider. Kakao needs an API key.
func (p *KakaoProvider) Available() bool { return p.key != "" }

// Search implements Provider.
func (p *KakaoProvider) Search(ctx context.Context, query string) ([]model.Candidate, error) {
	params := url.Values{
		"query": {query},
		"size":  {strconv.Itoa(kakaoPageSize)},
	}
	header := http.Header{"Authorization": {"KakaoAK " + p.key}}

	var addr kakaoAddressResponse
	if err := p.http.getJSON(ctx, kakaoAddressURL+"?"+params.Encode(), header, &addr); err != nil {
		return nil, err
	}
	var kw kakaoKeywordResponse
	if err := p.http.getJSON(ctx, kakaoKeywordURL+"?"+params.Encode(), header, &kw); err != nil {
		return nil, err
	}

	out := make([]model.Candidate, 0, len(addr.Documents)+len(kw.Documents))
	for _, d := range addr.Documents {
		loc, ok := kakaoPoint(d.Y, d.X)
		if !ok {
			continue
		}
		placeType := "address"
		if d.AddressType == "REGION" {
			placeType = "region"
		}
		out = append(out, model.Candidate{
			Address:  d.AddressName,
			Name:     d.AddressName,
			Location: loc,
			Metadata: map[string]string{
				model.MetaProvider:  p.Name(),
				model.MetaMatch:     model.MatchAddress,
				model.MetaPlaceType: placeType,
			},
		})
	}
	for _, d := range kw.Documents {
		loc, ok := kakaoPoint(d.Y, d.X)
		if !ok {
			continue
		}
		address := d.RoadAddressName
		if address == "" {
			address = d.AddressName
		}
		out = append(out, model.Candidate{
			Address:  address,
			Name:     d.PlaceName,
			Location: loc,
			Metadata: map[string]string{
				model.MetaProvider: p.Name(),
				model.MetaMatch:    model.MatchKeyword,
				model.MetaCategory: d.CategoryGroupName,
			},
		})
	}
	return out, nil
}

// kakaoPoint parses Kakao's string coordinates (x = longitude, y = latitude).
func kakaoPoint(y, x string) (model.GeoPoint, bool) {
	lat, errLat := strconv.ParseFloat(y, 64)
	lon, errLon := strconv.ParseFloat(x, 64)
	if errLat != nil || errLon != nil {
		zap.L().Debug("kakao: skipping document with bad coordinates", zap.String("x", x), zap.String("y", y))
		return model.GeoPoint{}, false
	}
	p, err := model.NewGeoPoint(lat, lon)
	if err != nil {
		return model.GeoPoint{}, false
	}
	return p, true
}
