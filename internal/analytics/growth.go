package analytics

import (
	"sort"

	"ecdash/pkg/contracts/domain"
)

// ECGroup aggregates the plants grown at one target EC.
type ECGroup struct {
	EC              float64 `json:"ec"`
	MeanFreshWeight float64 `json:"mean_fresh_weight"`
	MeanLeafCount   float64 `json:"mean_leaf_count"`
	MeanShootLength float64 `json:"mean_shoot_length"`
	Count           int     `json:"count"`
}

// GroupByEC groups records by target EC, ascending. Records without a target
// EC are left out.
func GroupByEC(records []domain.GrowthRecord) []ECGroup {
	type acc struct{ fw, leaves, shoot []float64 }
	groups := make(map[float64]*acc)

	for _, r := range records {
		if r.TargetEC == nil {
			continue
		}
		g, ok := groups[*r.TargetEC]
		if !ok {
			g = &acc{}
			groups[*r.TargetEC] = g
		}
		g.fw = append(g.fw, r.FreshWeight)
		g.leaves = append(g.leaves, r.LeafCount)
		g.shoot = append(g.shoot, r.ShootLength)
	}

	keys := make([]float64, 0, len(groups))
	for ec := range groups {
		keys = append(keys, ec)
	}
	sort.Float64s(keys)

	out := make([]ECGroup, 0, len(keys))
	for _, ec := range keys {
		g := groups[ec]
		out = append(out, ECGroup{
			EC:              ec,
			MeanFreshWeight: Mean(g.fw),
			MeanLeafCount:   Mean(g.leaves),
			MeanShootLength: Mean(g.shoot),
			Count:           len(g.fw),
		})
	}
	return out
}

// OptimalEC returns the group with the largest mean fresh weight. Groups are
// scanned in ascending EC order and only a strictly larger mean replaces the
// current best, so ties go to the lowest EC. Groups with NaN means never win.
func OptimalEC(groups []ECGroup) (ECGroup, bool) {
	sorted := make([]ECGroup, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].EC < sorted[j].EC })

	var best ECGroup
	found := false
	for _, g := range sorted {
		if g.MeanFreshWeight != g.MeanFreshWeight {
			continue
		}
		if !found || g.MeanFreshWeight > best.MeanFreshWeight {
			best = g
			found = true
		}
	}
	return best, found
}

// SiteDistribution is the fresh-weight distribution of one growth sheet.
type SiteDistribution struct {
	Site   string    `json:"site"`
	Color  string    `json:"color"`
	Values []float64 `json:"values"`
	Stats  BoxStats  `json:"stats"`
}

// FreshWeightDistribution returns per sheet the fresh weights and their box statistics.
func FreshWeightDistribution(ds *domain.Dataset) []SiteDistribution {
	var out []SiteDistribution
	for _, t := range ds.GrowthTables() {
		values := make([]float64, 0, len(t.Records))
		for _, r := range t.Records {
			values = append(values, r.FreshWeight)
		}
		values = finite(values)
		out = append(out, SiteDistribution{
			Site:   t.SheetName,
			Color:  domain.ColorFor(t.SheetName),
			Values: values,
			Stats:  Box(values),
		})
	}
	return out
}

// Point is one plant on a scatter plot.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SiteScatter holds the points of one sheet for a correlation plot.
type SiteScatter struct {
	Site   string  `json:"site"`
	Color  string  `json:"color"`
	Points []Point `json:"points"`
}

// Correlation pairs an x measure with fresh weight for every plant, grouped by sheet.
// Plants with a missing value on either axis are skipped.
func Correlation(ds *domain.Dataset, x func(domain.GrowthRecord) float64) []SiteScatter {
	var out []SiteScatter
	for _, t := range ds.GrowthTables() {
		s := SiteScatter{Site: t.SheetName, Color: domain.ColorFor(t.SheetName)}
		for _, r := range t.Records {
			xv := x(r)
			if xv != xv || r.FreshWeight != r.FreshWeight {
				continue
			}
			s.Points = append(s.Points, Point{X: xv, Y: r.FreshWeight})
		}
		out = append(out, s)
	}
	return out
}

// LeafCount selects the leaf count of a record.
func LeafCount(r domain.GrowthRecord) float64 { return r.LeafCount }

// ShootLength selects the shoot length of a record.
func ShootLength(r domain.GrowthRecord) float64 { return r.ShootLength }
