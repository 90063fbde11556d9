package geo

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sojunghan/territory-cli/internal/model"
)

// zoneSegments is the number of vertices used to approximate an exclusion circle.
const zoneSegments = 48

// FeatureOptions configures claim feature export.
type FeatureOptions struct {
	// Zones emits each claim's exclusion circle as a polygon instead of its anchor point.
	Zones bool
	Radii model.Radii
}

// ClaimFeatures converts claims into a GeoJSON FeatureCollection. Coordinates
// are emitted in lon/lat order as GeoJSON requires.
func ClaimFeatures(claims []model.Claim, opts FeatureOptions) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(claims))}
	for _, c := range claims {
		radius := opts.Radii.For(c.Kind)

		var g geom.T
		if opts.Zones {
			g = ExclusionZone(c.Location, radius)
		} else {
			g = geom.NewPointFlat(geom.XY, []float64{c.Location.Lon, c.Location.Lat})
		}

		props := map[string]interface{}{
			"owner":    c.Owner,
			"place":    c.Place,
			"kind":     string(c.Kind),
			"radius_m": radius,
			"address":  c.Address,
		}
		if c.Branch != "" {
			props["branch"] = c.Branch
		}

		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         c.ID,
			Geometry:   g,
			Properties: props,
		})
	}
	return fc
}

// MarshalClaims encodes claims as GeoJSON bytes.
func MarshalClaims(claims []model.Claim, opts FeatureOptions) ([]byte, error) {
	data, err := ClaimFeatures(claims, opts).MarshalJSON()
	if err != nil {
		return nil, eris.Wrap(err, "geo: marshal claim features")
	}
	return data, nil
}

// ExclusionZone approximates the circle of radius meters around center as a
// closed polygon ring.
func ExclusionZone(center model.GeoPoint, radius float64) *geom.Polygon {
	lat1 := center.Lat * math.Pi / 180
	lon1 := center.Lon * math.Pi / 180
	d := model.MetersToAngle(radius).Radians()

	flat := make([]float64, 0, (zoneSegments+1)*2)
	for i := 0; i <= zoneSegments; i++ {
		bearing := 2 * math.Pi * float64(i%zoneSegments) / zoneSegments
		lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(bearing))
		lon2 := lon1 + math.Atan2(
			math.Sin(bearing)*math.Sin(d)*math.Cos(lat1),
			math.Cos(d)-math.Sin(lat1)*math.Sin(lat2),
		)
		flat = append(flat, lon2*180/math.Pi, lat2*180/math.Pi)
	}
	return geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)})
}
