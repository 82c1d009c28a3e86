package analytics

import (
	"math"
	"sort"
)

// Mean is the arithmetic mean of the non-NaN values. It returns NaN when no
// value is present.
func Mean(values []float64) float64 {
	var sum float64
	var n int
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// BoxStats summarizes a distribution for a box plot.
type BoxStats struct {
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
	Count  int     `json:"count"`
}

// Box computes box statistics over the non-NaN values using linear
// interpolation between closest ranks.
func Box(values []float64) BoxStats {
	clean := finite(values)
	if len(clean) == 0 {
		nan := math.NaN()
		return BoxStats{Min: nan, Q1: nan, Median: nan, Q3: nan, Max: nan}
	}
	sort.Float64s(clean)
	return BoxStats{
		Min:    clean[0],
		Q1:     quantile(clean, 0.25),
		Median: quantile(clean, 0.5),
		Q3:     quantile(clean, 0.75),
		Max:    clean[len(clean)-1],
		Count:  len(clean),
	}
}

// quantile expects sorted, non-empty input.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
