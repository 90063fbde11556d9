package conflict

import (
	"sort"

	"github.com/golang/geo/s2"

	"github.com/sojunghan/territory-cli/internal/model"
)

// DefaultIndexLevel is the s2 cell level used to bucket claims. Level 13
// cells are roughly 1.2 km across.
const DefaultIndexLevel = 13

// Index buckets claims into s2 cells so a conflict check only looks at
// claims near the candidate. It gives the same answers as FindConflict over
// the full set, including which owner blocks when several do, because
// candidates are checked in insertion order. Index is not safe for
// concurrent use.
type Index struct {
	level int
	radii model.Radii
	cells map[s2.CellID]map[string]entry
	byID  map[string]s2.CellID
	next  uint64
}

type entry struct {
	claim model.Claim
	seq   uint64
}

// NewIndex creates an empty index at DefaultIndexLevel.
func NewIndex(radii model.Radii) *Index {
	return NewIndexAtLevel(radii, DefaultIndexLevel)
}

// NewIndexAtLevel creates an empty index bucketing at the given s2 level.
func NewIndexAtLevel(radii model.Radii, level int) *Index {
	if level < 0 {
		level = 0
	}
	if level > s2.MaxLevel {
		level = s2.MaxLevel
	}
	return &Index{
		level: level,
		radii: radii,
		cells: make(map[s2.CellID]map[string]entry),
		byID:  make(map[string]s2.CellID),
	}
}

// Len returns the number of indexed claims.
func (ix *Index) Len() int { return len(ix.byID) }

// Add appends c, replacing any claim with the same ID.
func (ix *Index) Add(c model.Claim) {
	ix.Remove(c.ID)
	ix.next++
	ix.put(c, ix.next)
}

// Replace swaps in c for the claim with the same ID, keeping its position
// in insertion order. Unknown IDs are appended.
func (ix *Index) Replace(c model.Claim) {
	cell, ok := ix.byID[c.ID]
	if !ok {
		ix.Add(c)
		return
	}
	seq := ix.cells[cell][c.ID].seq
	ix.Remove(c.ID)
	ix.put(c, seq)
}

func (ix *Index) put(c model.Claim, seq uint64) {
	cell := s2.CellIDFromLatLng(c.Location.LatLng()).Parent(ix.level)
	bucket, ok := ix.cells[cell]
	if !ok {
		bucket = make(map[string]entry)
		ix.cells[cell] = bucket
	}
	bucket[c.ID] = entry{claim: c, seq: seq}
	ix.byID[c.ID] = cell
}

// Remove deletes the claim with id and reports whether it was present.
func (ix *Index) Remove(id string) bool {
	cell, ok := ix.byID[id]
	if !ok {
		return false
	}
	delete(ix.byID, id)
	bucket := ix.cells[cell]
	delete(bucket, id)
	if len(bucket) == 0 {
		delete(ix.cells, cell)
	}
	return true
}

// Near returns every indexed claim whose anchor may lie within radius meters
// of p, in insertion order. The result is a superset; callers apply the
// exact distance test.
func (ix *Index) Near(p model.GeoPoint, radius float64) []model.Claim {
	capRegion := s2.CapFromCenterAngle(s2.PointFromLatLng(p.LatLng()), model.MetersToAngle(radius))
	coverer := &s2.RegionCoverer{MinLevel: ix.level, MaxLevel: ix.level, LevelMod: 1, MaxCells: 8}

	var found []entry
	seen := make(map[s2.CellID]bool)
	collect := func(id s2.CellID) {
		if seen[id] {
			return
		}
		seen[id] = true
		for _, e := range ix.cells[id] {
			found = append(found, e)
		}
	}

	for _, cell := range coverer.Covering(capRegion) {
		if cell.Level() == ix.level {
			collect(cell)
			continue
		}
		if cell.Level() < ix.level {
			for id := cell.ChildBeginAtLevel(ix.level); id != cell.ChildEndAtLevel(ix.level); id = id.Next() {
				collect(id)
			}
			continue
		}
		collect(cell.Parent(ix.level))
	}

	sort.Slice(found, func(i, j int) bool { return found[i].seq < found[j].seq })
	out := make([]model.Claim, len(found))
	for i, e := range found {
		out[i] = e.claim
	}
	return out
}

// FindConflict checks candidate against the indexed claims of other owners.
func (ix *Index) FindConflict(candidate model.Claim) (string, bool) {
	reach := ix.radii.For(candidate.Kind) + ix.radii.Max()
	return FindConflict(candidate, ix.Near(candidate.Location, reach), ix.radii)
}
