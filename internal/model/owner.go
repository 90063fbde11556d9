package model

import "sort"

// BranchSummary counts the claims held under one branch of an owner.
type BranchSummary struct {
	Name   string `json:"name" yaml:"name"`
	Claims int    `json:"claims" yaml:"claims"`
}

// OwnerSummary groups an owner's claims by branch. Claims without a branch
// are counted in Direct.
type OwnerSummary struct {
	Owner    string          `json:"owner" yaml:"owner"`
	Claims   int             `json:"claims" yaml:"claims"`
	Direct   int             `json:"direct" yaml:"direct"`
	Branches []BranchSummary `json:"branches,omitempty" yaml:"branches,omitempty"`
}

// SummarizeOwners builds owner summaries sorted by owner, with branches
// sorted by name.
func SummarizeOwners(claims []Claim) []OwnerSummary {
	byOwner := make(map[string]*OwnerSummary)
	branchCounts := make(map[string]map[string]int)

	for _, c := range claims {
		s, ok := byOwner[c.Owner]
		if !ok {
			s = &OwnerSummary{Owner: c.Owner}
			byOwner[c.Owner] = s
			branchCounts[c.Owner] = make(map[string]int)
		}
		s.Claims++
		if c.Branch == "" {
			s.Direct++
			continue
		}
		branchCounts[c.Owner][c.Branch]++
	}

	out := make([]OwnerSummary, 0, len(byOwner))
	for owner, s := range byOwner {
		for name, n := range branchCounts[owner] {
			s.Branches = append(s.Branches, BranchSummary{Name: name, Claims: n})
		}
		sort.Slice(s.Branches, func(i, j int) bool { return s.Branches[i].Name < s.Branches[j].Name })
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Owner < out[j].Owner })
	return out
}
