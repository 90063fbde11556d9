// Package conflict detects overlapping territory claims between owners.
package conflict

import (
	"github.com/sojunghan/territory-cli/internal/model"
)

// FindConflict scans existing for a claim held by another owner whose
// exclusion zone intersects the candidate's. Claims of the candidate's own
// owner are skipped. The first conflicting owner found is returned.
func FindConflict(candidate model.Claim, existing []model.Claim, radii model.Radii) (string, bool) {
	own := radii.For(candidate.Kind)
	for _, c := range existing {
		if c.Owner == candidate.Owner {
			continue
		}
		required := own + radii.For(c.Kind)
		if candidate.Location.DistanceTo(c.Location) < required {
			return c.Owner, true
		}
	}
	return "", false
}

// Separation returns the minimum distance two claims of different owners must keep.
func Separation(a, b model.ClaimKind, radii model.Radii) float64 {
	return radii.For(a) + radii.For(b)
}

// Overlaps reports whether a and b belong to different owners and violate
// the separation rule.
func Overlaps(a, b model.Claim, radii model.Radii) bool {
	if a.Owner == b.Owner {
		return false
	}
	return a.Location.DistanceTo(b.Location) < Separation(a.Kind, b.Kind, radii)
}

// Violations returns every pair of claims in the set that overlaps. It is used
// to audit state loaded from storage.
func Violations(claims []model.Claim, radii model.Radii) [][2]model.Claim {
	var out [][2]model.Claim
	for i := 0; i < len(claims); i++ {
		for j := i + 1; j < len(claims); j++ {
			if Overlaps(claims[i], claims[j], radii) {
				out = append(out, [2]model.Claim{claims[i], claims[j]})
			}
		}
	}
	return out
}
