package conflict

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sojunghan/territory-cli/internal/model"
)

// metersNorth offsets p by m meters of latitude.
func metersNorth(p model.GeoPoint, m float64) model.GeoPoint {
	return model.GeoPoint{Lat: p.Lat + model.MetersToAngle(m).Degrees(), Lon: p.Lon}
}

func claim(id, owner string, kind model.ClaimKind, p model.GeoPoint) model.Claim {
	return model.Claim{ID: id, Owner: owner, Place: id, Kind: kind, Location: p}
}

var (
	cityHall = model.GeoPoint{Lat: 37.5665, Lon: 126.9780}
	amnam    = model.GeoPoint{Lat: 35.0772, Lon: 129.0114}
)

func TestFindConflict_PointsTooClose(t *testing.T) {
	existing := []model.Claim{claim("a1", "A", model.KindPoint, cityHall)}
	cand := claim("b1", "B", model.KindPoint, model.GeoPoint{Lat: 37.5674, Lon: 126.9780})

	owner, found := FindConflict(cand, existing, model.DefaultRadii())
	assert.True(t, found)
	assert.Equal(t, "A", owner)
}

func TestFindConflict_PointsFarEnough(t *testing.T) {
	existing := []model.Claim{claim("a1", "A", model.KindPoint, cityHall)}
	cand := claim("b1", "B", model.KindPoint, model.GeoPoint{Lat: 37.5756, Lon: 126.9780})

	_, found := FindConflict(cand, existing, model.DefaultRadii())
	assert.False(t, found)
}

func TestFindConflict_AreaVersusPoint(t *testing.T) {
	existing := []model.Claim{claim("a1", "A", model.KindArea, amnam)}

	inside := claim("b1", "B", model.KindPoint, metersNorth(amnam, 1050))
	owner, found := FindConflict(inside, existing, model.DefaultRadii())
	assert.True(t, found)
	assert.Equal(t, "A", owner)

	outside := claim("b2", "B", model.KindPoint, metersNorth(amnam, 1150))
	_, found = FindConflict(outside, existing, model.DefaultRadii())
	assert.False(t, found)
}

func TestFindConflict_SameOwnerIgnored(t *testing.T) {
	existing := []model.Claim{claim("a1", "A", model.KindPoint, cityHall)}

	for _, d := range []float64{0, 5, 150} {
		cand := claim("a2", "A", model.KindArea, metersNorth(cityHall, d))
		_, found := FindConflict(cand, existing, model.DefaultRadii())
		assert.False(t, found, "distance %v", d)
	}
}

func TestFindConflict_ExactSeparationIsAllowed(t *testing.T) {
	radii := model.Radii{Point: 100, Area: 1000}
	existing := []model.Claim{claim("a1", "A", model.KindPoint, cityHall)}

	// Slightly beyond 200 m to stay clear of floating point rounding.
	cand := claim("b1", "B", model.KindPoint, metersNorth(cityHall, 200.01))
	_, found := FindConflict(cand, existing, radii)
	assert.False(t, found)
}

func TestFindConflict_Empty(t *testing.T) {
	_, found := FindConflict(claim("x", "A", model.KindArea, cityHall), nil, model.DefaultRadii())
	assert.False(t, found)
}

func TestFindConflict_ConfigurableRadii(t *testing.T) {
	existing := []model.Claim{claim("a1", "A", model.KindPoint, cityHall)}
	cand := claim("b1", "B", model.KindPoint, metersNorth(cityHall, 300))

	_, found := FindConflict(cand, existing, model.Radii{Point: 100, Area: 1000})
	assert.False(t, found)

	_, found = FindConflict(cand, existing, model.Radii{Point: 200, Area: 1000})
	assert.True(t, found)
}

func TestFindConflict_Symmetric(t *testing.T) {
	radii := model.DefaultRadii()
	kinds := []model.ClaimKind{model.KindPoint, model.KindArea}
	distances := []float64{0, 99, 199, 201, 1050, 1099, 1101, 1999, 2001}

	for _, ka := range kinds {
		for _, kb := range kinds {
			for _, d := range distances {
				a := claim("a", "A", ka, cityHall)
				b := claim("b", "B", kb, metersNorth(cityHall, d))

				_, ab := FindConflict(a, []model.Claim{b}, radii)
				_, ba := FindConflict(b, []model.Claim{a}, radii)
				assert.Equal(t, ab, ba, "kinds %s/%s at %vm", ka, kb, d)
				assert.Equal(t, ab, Overlaps(a, b, radii))
			}
		}
	}
}

func TestViolations(t *testing.T) {
	claims := []model.Claim{
		claim("a1", "A", model.KindPoint, cityHall),
		claim("a2", "A", model.KindPoint, metersNorth(cityHall, 5)),
		claim("b1", "B", model.KindPoint, metersNorth(cityHall, 50)),
		claim("c1", "C", model.KindPoint, metersNorth(cityHall, 5000)),
	}

	v := Violations(claims, model.DefaultRadii())
	assert.Len(t, v, 2)
	for _, pair := range v {
		assert.NotEqual(t, pair[0].Owner, pair[1].Owner)
	}
}

func TestSeparation(t *testing.T) {
	r := model.DefaultRadii()
	assert.InDelta(t, 200, Separation(model.KindPoint, model.KindPoint, r), 0)
	assert.InDelta(t, 1100, Separation(model.KindArea, model.KindPoint, r), 0)
	assert.InDelta(t, 2000, Separation(model.KindArea, model.KindArea, r), 0)
}
