package model

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// ClaimKind determines the exclusion radius of a claim.
type ClaimKind string

const (
	KindPoint ClaimKind = "POINT" // a single address or building
	KindArea  ClaimKind = "AREA"  // an administrative neighbourhood
)

// ParseClaimKind parses a kind case-insensitively.
func ParseClaimKind(s string) (ClaimKind, error) {
	switch ClaimKind(strings.ToUpper(strings.TrimSpace(s))) {
	case KindPoint:
		return KindPoint, nil
	case KindArea:
		return KindArea, nil
	}
	return "", eris.Errorf("model: unknown claim kind %q", s)
}

// Valid reports whether k is a known kind.
func (k ClaimKind) Valid() bool {
	return k == KindPoint || k == KindArea
}

// Radii holds the exclusion radius in meters for each claim kind.
type Radii struct {
	Point float64 `json:"point_m" yaml:"point_m" mapstructure:"point_radius_m"`
	Area  float64 `json:"area_m" yaml:"area_m" mapstructure:"area_radius_m"`
}

// DefaultRadii returns 100 m for points and 1 km for areas.
func DefaultRadii() Radii {
	return Radii{Point: 100, Area: 1000}
}

// For returns the radius for kind. Unknown kinds get the point radius.
func (r Radii) For(kind ClaimKind) float64 {
	if kind == KindArea {
		return r.Area
	}
	return r.Point
}

// Max returns the larger of the two radii.
func (r Radii) Max() float64 {
	if r.Area > r.Point {
		return r.Area
	}
	return r.Point
}

// Claim is an owner-attributed exclusion zone anchored at a point.
type Claim struct {
	ID        string    `json:"id" yaml:"id"`
	Owner     string    `json:"owner" yaml:"owner"`
	Branch    string    `json:"branch,omitempty" yaml:"branch,omitempty"`
	Place     string    `json:"place" yaml:"place"`
	Location  GeoPoint  `json:"location" yaml:"location"`
	Kind      ClaimKind `json:"kind" yaml:"kind"`
	Address   string    `json:"address,omitempty" yaml:"address,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// ErrOwnerRequired is returned for a claim without an owner.
var ErrOwnerRequired = eris.New("claim owner is required")

// Validate checks the stored-claim invariants. Location errors are returned
// unwrapped so callers can match *InvalidGeoPointError. The key is checked
// last, so an ErrKeyDelimiter result means everything else is valid.
func (c Claim) Validate() error {
	if err := c.Location.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Owner) == "" {
		return ErrOwnerRequired
	}
	if !c.Kind.Valid() {
		return eris.Errorf("model: claim kind %q is not valid", c.Kind)
	}
	return c.Key().Validate()
}

// Key returns the owner/branch/place identity of the claim.
func (c Claim) Key() Key {
	return Key{Owner: c.Owner, Branch: c.Branch, Place: c.Place}
}
