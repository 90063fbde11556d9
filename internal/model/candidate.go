package model

// Metadata keys attached to geocoder candidates. Providers translate their
// own response fields into these so classification stays provider-agnostic.
const (
	MetaMatch     = "match"      // MatchAddress or MatchKeyword
	MetaPlaceType = "place_type" // e.g. "region", "administrative", "road", "poi"
	MetaProvider  = "provider"   // provider name
	MetaCategory  = "category"   // free-form provider category
)

// Values for MetaMatch.
const (
	MatchAddress = "address"
	MatchKeyword = "keyword"
)

// Candidate is one resolved search result from a geocoder.
type Candidate struct {
	Address  string            `json:"address"`
	Name     string            `json:"name,omitempty"`
	Location GeoPoint          `json:"location"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Meta returns the metadata value for key, or "" when absent.
func (c Candidate) Meta(key string) string {
	if c.Metadata == nil {
		return ""
	}
	return c.Metadata[key]
}

// IsKeywordHit reports whether the candidate came from a keyword (POI) search.
func (c Candidate) IsKeywordHit() bool {
	return c.Meta(MetaMatch) == MatchKeyword
}
