package conflict

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sojunghan/territory-cli/internal/model"
)

func TestIndex_AddRemove(t *testing.T) {
	ix := NewIndex(model.DefaultRadii())
	ix.Add(claim("a1", "A", model.KindPoint, cityHall))
	ix.Add(claim("a2", "A", model.KindPoint, amnam))
	assert.Equal(t, 2, ix.Len())

	// Re-adding the same ID replaces it.
	ix.Add(claim("a1", "A", model.KindArea, cityHall))
	assert.Equal(t, 2, ix.Len())

	assert.True(t, ix.Remove("a1"))
	assert.False(t, ix.Remove("a1"))
	assert.Equal(t, 1, ix.Len())
}

func TestIndex_Near(t *testing.T) {
	ix := NewIndex(model.DefaultRadii())
	ix.Add(claim("near", "A", model.KindPoint, metersNorth(cityHall, 500)))
	ix.Add(claim("far", "A", model.KindPoint, amnam))

	got := ix.Near(cityHall, 1000)
	require.Len(t, got, 1)
	assert.Equal(t, "near", got[0].ID)
}

func TestIndex_Replace(t *testing.T) {
	ix := NewIndex(model.DefaultRadii())
	ix.Add(claim("a1", "A", model.KindPoint, cityHall))

	renamed := claim("a1", "Z", model.KindPoint, cityHall)
	ix.Replace(renamed)

	owner, found := ix.FindConflict(claim("b1", "B", model.KindPoint, metersNorth(cityHall, 10)))
	assert.True(t, found)
	assert.Equal(t, "Z", owner)
}

func TestIndex_MatchesLinearScan(t *testing.T) {
	radii := model.DefaultRadii()
	rng := rand.New(rand.NewPCG(7, 11))

	// Scatter claims over roughly 10 km around Busan city hall.
	random := func() model.GeoPoint {
		return model.GeoPoint{
			Lat: 35.1796 + (rng.Float64()-0.5)*0.1,
			Lon: 129.0756 + (rng.Float64()-0.5)*0.1,
		}
	}
	kind := func() model.ClaimKind {
		if rng.IntN(4) == 0 {
			return model.KindArea
		}
		return model.KindPoint
	}

	ix := NewIndex(radii)
	var all []model.Claim
	for i := 0; i < 200; i++ {
		c := claim(fmt.Sprintf("c%d", i), fmt.Sprintf("owner%d", rng.IntN(20)), kind(), random())
		all = append(all, c)
		ix.Add(c)
	}

	for i := 0; i < 500; i++ {
		cand := claim("cand", fmt.Sprintf("owner%d", rng.IntN(25)), kind(), random())
		wantOwner, want := FindConflict(cand, all, radii)
		gotOwner, got := ix.FindConflict(cand)
		assert.Equal(t, want, got, "candidate %s %s", cand.Kind, cand.Location)
		assert.Equal(t, wantOwner, gotOwner)
	}
}

func TestIndex_LevelClamp(t *testing.T) {
	assert.Equal(t, 0, NewIndexAtLevel(model.DefaultRadii(), -3).level)
	assert.Equal(t, 30, NewIndexAtLevel(model.DefaultRadii(), 99).level)
}

func TestIndex_NearKeepsInsertionOrder(t *testing.T) {
	ix := NewIndex(model.DefaultRadii())
	for i := 0; i < 10; i++ {
		ix.Add(claim(fmt.Sprintf("c%d", i), "A", model.KindPoint, metersNorth(cityHall, float64(i*30))))
	}
	ix.Replace(claim("c3", "Z", model.KindPoint, metersNorth(cityHall, 90)))

	got := ix.Near(cityHall, 2000)
	require.Len(t, got, 10)
	for i, c := range got {
		assert.Equal(t, fmt.Sprintf("c%d", i), c.ID)
	}
	assert.Equal(t, "Z", got[3].Owner)
}
