package model

import (
	"fmt"
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// EarthRadiusMeters is the mean Earth radius used for great-circle distances.
const EarthRadiusMeters = 6371008.8

// equalToleranceMeters is the distance below which two points are considered equal.
const equalToleranceMeters = 0.01

// GeoPoint is a WGS84 coordinate in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// InvalidGeoPointError reports a coordinate that is non-finite or out of range.
type InvalidGeoPointError struct {
	Lat float64
	Lon float64
}

func (e *InvalidGeoPointError) Error() string {
	return fmt.Sprintf("invalid geo point (%v, %v)", e.Lat, e.Lon)
}

// NewGeoPoint returns a validated GeoPoint.
func NewGeoPoint(lat, lon float64) (GeoPoint, error) {
	p := GeoPoint{Lat: lat, Lon: lon}
	if err := p.Validate(); err != nil {
		return GeoPoint{}, err
	}
	return p, nil
}

// Validate returns an *InvalidGeoPointError unless both coordinates are
// finite and inside [-90,90] x [-180,180].
func (p GeoPoint) Validate() error {
	if !finite(p.Lat) || !finite(p.Lon) ||
		p.Lat < -90 || p.Lat > 90 ||
		p.Lon < -180 || p.Lon > 180 {
		return &InvalidGeoPointError{Lat: p.Lat, Lon: p.Lon}
	}
	return nil
}

// LatLng converts the point to an s2.LatLng.
func (p GeoPoint) LatLng() s2.LatLng {
	return s2.LatLngFromDegrees(p.Lat, p.Lon)
}

// DistanceTo returns the great-circle distance to other in meters.
func (p GeoPoint) DistanceTo(other GeoPoint) float64 {
	return AngleToMeters(p.LatLng().Distance(other.LatLng()))
}

// Equal reports whether the two points are within a centimetre of each other.
func (p GeoPoint) Equal(other GeoPoint) bool {
	return p.DistanceTo(other) < equalToleranceMeters
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", p.Lat, p.Lon)
}

// AngleToMeters converts a central angle to meters on the Earth's surface.
func AngleToMeters(a s1.Angle) float64 {
	return a.Radians() * EarthRadiusMeters
}

// MetersToAngle converts a surface distance in meters to a central angle.
func MetersToAngle(m float64) s1.Angle {
	return s1.Angle(m / EarthRadiusMeters)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
