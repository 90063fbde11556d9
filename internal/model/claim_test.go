package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClaimKind(t *testing.T) {
	t.Parallel()

	k, err := ParseClaimKind("point")
	require.NoError(t, err)
	assert.Equal(t, KindPoint, k)

	k, err = ParseClaimKind(" AREA ")
	require.NoError(t, err)
	assert.Equal(t, KindArea, k)

	_, err = ParseClaimKind("polygon")
	assert.Error(t, err)
}

func TestRadii(t *testing.T) {
	t.Parallel()

	r := DefaultRadii()
	assert.InDelta(t, 100, r.For(KindPoint), 0)
	assert.InDelta(t, 1000, r.For(KindArea), 0)
	assert.InDelta(t, 100, r.For(ClaimKind("")), 0)
	assert.InDelta(t, 1000, r.Max(), 0)
	assert.InDelta(t, 500, Radii{Point: 500, Area: 200}.Max(), 0)
}

func TestClaimValidate(t *testing.T) {
	t.Parallel()

	ok := Claim{Owner: "a", Location: GeoPoint{Lat: 35, Lon: 129}, Kind: KindPoint}
	assert.NoError(t, ok.Validate())

	noOwner := ok
	noOwner.Owner = "  "
	assert.ErrorIs(t, noOwner.Validate(), ErrOwnerRequired)

	badKind := ok
	badKind.Kind = "LINE"
	assert.Error(t, badKind.Validate())

	// Location is checked first so a bad coordinate is reported even without an owner.
	badLoc := Claim{Location: GeoPoint{Lat: 100, Lon: 0}, Kind: KindPoint}
	var ge *InvalidGeoPointError
	assert.True(t, errors.As(badLoc.Validate(), &ge))

	delimited := ok
	delimited.Owner = "Kim | Seoul"
	delimited.Place = "Shop"
	assert.ErrorIs(t, delimited.Validate(), ErrKeyDelimiter)
}

func TestSummarizeOwners(t *testing.T) {
	t.Parallel()

	claims := []Claim{
		{Owner: "b", Place: "x"},
		{Owner: "a", Branch: "2호점", Place: "y"},
		{Owner: "a", Branch: "1호점", Place: "z"},
		{Owner: "a", Branch: "1호점", Place: "w"},
		{Owner: "a", Place: "v"},
	}

	got := SummarizeOwners(claims)
	require.Len(t, got, 2)

	assert.Equal(t, "a", got[0].Owner)
	assert.Equal(t, 4, got[0].Claims)
	assert.Equal(t, 1, got[0].Direct)
	assert.Equal(t, []BranchSummary{{Name: "1호점", Claims: 2}, {Name: "2호점", Claims: 1}}, got[0].Branches)

	assert.Equal(t, "b", got[1].Owner)
	assert.Equal(t, 1, got[1].Claims)
	assert.Empty(t, got[1].Branches)
}
