// Package geo classifies geocoder results into point and area claims and
// exports claims as geographic features.
package geo

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/sojunghan/territory-cli/internal/model"
)

// adminSuffixes are the four smallest Korean administrative unit suffixes:
// dong, eup, myeon, ri.
var adminSuffixes = []rune{'동', '읍', '면', '리'}

// regionPlaceTypes are the MetaPlaceType values that denote an administrative region.
var regionPlaceTypes = map[string]bool{
	"region":         true,
	"administrative": true,
	"boundary":       true,
}

// Classify decides whether a resolved search result is an area or a point claim.
// Rules:
//   - keyword (POI) hits are always points
//   - provider-tagged administrative regions are areas
//   - a query naming an administrative unit ("암남동", "부전1동") is an area
//   - everything else is a point
func Classify(query string, result model.Candidate) model.ClaimKind {
	if result.IsKeywordHit() {
		return model.KindPoint
	}
	if regionPlaceTypes[strings.ToLower(result.Meta(model.MetaPlaceType))] {
		return model.KindArea
	}
	if NamesAdminUnit(query) {
		return model.KindArea
	}
	return model.KindPoint
}

// NamesAdminUnit reports whether the final token of query is an administrative
// unit name. Only the final token counts so that "암남동 현대아파트" (a building
// inside a dong) stays a point. Building numbers such as "101동" are not units.
func NamesAdminUnit(query string) bool {
	fields := strings.Fields(norm.NFC.String(query))
	if len(fields) == 0 {
		return false
	}
	return isAdminUnitToken(fields[len(fields)-1])
}

func isAdminUnitToken(token string) bool {
	token = strings.TrimFunc(token, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	runes := []rune(token)
	if len(runes) < 2 {
		return false
	}

	last := runes[len(runes)-1]
	isSuffix := false
	for _, s := range adminSuffixes {
		if last == s {
			isSuffix = true
			break
		}
	}
	if !isSuffix {
		return false
	}

	for _, r := range runes[:len(runes)-1] {
		if isHangulSyllable(r) {
			return true
		}
	}
	return false
}

func isHangulSyllable(r rune) bool {
	return r >= 0xAC00 && r <= 0xD7A3
}

// KindFromLabel derives a claim kind from a stored place label. It is used
// for rows persisted before the kind column existed.
func KindFromLabel(label string) model.ClaimKind {
	if NamesAdminUnit(label) {
		return model.KindArea
	}
	return model.KindPoint
}

// Prioritize returns candidates with address hits ahead of keyword hits,
// keeping provider order within each group.
func Prioritize(candidates []model.Candidate) []model.Candidate {
	out := make([]model.Candidate, len(candidates))
	copy(out, candidates)
	sort.SliceStable(out, func(i, j int) bool {
		return !out[i].IsKeywordHit() && out[j].IsKeywordHit()
	})
	return out
}
