package metrics

import (
	"math"
	"time"

	"github.com/balefleet/balewatch/internal/types"
)

// driftThresholdPct is the absolute drift percentage beyond which a
// cycle counts as drifting.
const driftThresholdPct = 10.0

// DriftEntry is one cycle's deviation from the baseline duration.
type DriftEntry struct {
	DeviceID   string    `json:"deviceId"`
	StartedAt  time.Time `json:"startedAt"`
	DurationMs float64   `json:"durationMs"`
	DriftPct   float64   `json:"driftPct"`
	Drifting   bool      `json:"drifting"`
}

// DriftAnalysis is the cycle-time drift trend over the working set.
type DriftAnalysis struct {
	BaselineMs    float64      `json:"baselineMs"`
	Entries       []DriftEntry `json:"entries"`
	DriftingCount int          `json:"driftingCount"`
}

// Drift computes per-cycle drift against the in-view baseline: the
// floor-middle median of all cycle durations. A cycle drifts when its
// absolute deviation exceeds 10%. A zero baseline yields zero drift
// for every entry.
func Drift(d *types.Dataset) DriftAnalysis {
	cv := cycles(d)
	if len(cv) == 0 {
		return DriftAnalysis{}
	}

	durations := make([]float64, len(cv))
	for i, c := range cv {
		durations[i] = c.durationMs
	}
	baseline := median(durations)

	analysis := DriftAnalysis{
		BaselineMs: baseline,
		Entries:    make([]DriftEntry, 0, len(cv)),
	}
	for _, c := range cv {
		entry := DriftEntry{
			DeviceID:   c.deviceID,
			StartedAt:  time.UnixMilli(c.startedAt).UTC(),
			DurationMs: c.durationMs,
		}
		if baseline != 0 {
			entry.DriftPct = (c.durationMs - baseline) / baseline * 100
		}
		entry.Drifting = math.Abs(entry.DriftPct) > driftThresholdPct
		if entry.Drifting {
			analysis.DriftingCount++
		}
		analysis.Entries = append(analysis.Entries, entry)
	}
	return analysis
}
