package metrics

import (
	"time"

	"github.com/balefleet/balewatch/internal/types"
)

// FullnessEstimate is a heuristic split of recent cycles into chamber
// fill bands, expressed as percentages summing to 100. It is derived
// from cycle-duration density, not measured fill sensors.
type FullnessEstimate struct {
	LowPct    float64 `json:"lowPct"`
	MediumPct float64 `json:"mediumPct"`
	HighPct   float64 `json:"highPct"`
}

// Fullness bucket thresholds, relative to the in-view baseline
// duration: below 80% of baseline reads as a lightly filled chamber,
// above 120% as heavily filled.
const (
	fullnessLowRatio  = 0.8
	fullnessHighRatio = 1.2
	fullnessWindow    = 24 * time.Hour
)

// EstimateFullness classifies the cycles from the most recent 24 hours
// of the working set by duration relative to the baseline median. When
// no recent cycles exist (or the baseline is zero) the default
// 30/40/30 split is returned so the gauge never renders empty.
func EstimateFullness(d *types.Dataset) FullnessEstimate {
	cv := cycles(d)
	if len(cv) == 0 {
		return FullnessEstimate{LowPct: 30, MediumPct: 40, HighPct: 30}
	}

	durations := make([]float64, len(cv))
	maxTs := cv[0].startedAt
	for i, c := range cv {
		durations[i] = c.durationMs
		if c.startedAt > maxTs {
			maxTs = c.startedAt
		}
	}
	baseline := median(durations)
	cutoff := maxTs - fullnessWindow.Milliseconds()

	var low, medium, high float64
	for _, c := range cv {
		if c.startedAt < cutoff {
			continue
		}
		switch {
		case baseline == 0:
			// No usable baseline; leave buckets at zero and let the
			// forced split below take over.
		case c.durationMs < baseline*fullnessLowRatio:
			low++
		case c.durationMs > baseline*fullnessHighRatio:
			high++
		default:
			medium++
		}
	}

	total := low + medium + high
	if total == 0 {
		return FullnessEstimate{LowPct: 30, MediumPct: 40, HighPct: 30}
	}
	return FullnessEstimate{
		LowPct:    low / total * 100,
		MediumPct: medium / total * 100,
		HighPct:   high / total * 100,
	}
}
