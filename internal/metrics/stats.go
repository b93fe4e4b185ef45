// Package metrics derives fleet KPIs, rankings, drift and anomaly
// scores, reliability figures, end-of-life projections and heatmaps
// from a filtered dataset. Every function is pure, order-independent,
// and returns a zeroed structure for empty input rather than failing.
package metrics

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// mean is a safe arithmetic mean: zero for empty input.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// median returns the floor-middle element of the sorted values: for
// even-length input this is the element at index len/2, not an
// interpolated midpoint. This matches the dashboard's baseline rule
// exactly, so drift percentages line up with historical output.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted[len(sorted)/2]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
