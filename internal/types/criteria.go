package types

import "time"

// FilterAll is the wildcard value for device and location filters.
const FilterAll = "all"

// TimeRange names the preset time windows selectable in the UI.
type TimeRange string

const (
	Range24h TimeRange = "24h"
	Range7d  TimeRange = "7d"
	Range30d TimeRange = "30d"
	RangeAll TimeRange = "all"
)

// Duration returns the window length for preset ranges. RangeAll (and
// anything unrecognized) returns 0, meaning no lower bound.
func (r TimeRange) Duration() time.Duration {
	switch r {
	case Range24h:
		return 24 * time.Hour
	case Range7d:
		return 7 * 24 * time.Hour
	case Range30d:
		return 30 * 24 * time.Hour
	}
	return 0
}

// FilterCriteria is a stateless description of the current filter
// controls. It is re-evaluated against the original dataset on every
// change and never mutates it. An explicit Start/End pair, when set,
// takes precedence over the preset Range.
type FilterCriteria struct {
	Device   string    `json:"device"`
	Location string    `json:"location"`
	Range    TimeRange `json:"range"`

	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// DefaultCriteria passes everything.
func DefaultCriteria() FilterCriteria {
	return FilterCriteria{Device: FilterAll, Location: FilterAll, Range: RangeAll}
}

// AlertThresholds are the user-adjustable limits the metrics engine
// classifies against. They have no effect on ingestion or
// normalization.
type AlertThresholds struct {
	CycleDurationMs     float64 `json:"cycleDurationMs" yaml:"cycle_duration_ms"`
	InrushMultiple      float64 `json:"inrushMultiple" yaml:"inrush_multiple"`
	VoltageSagPct       float64 `json:"voltageSagPct" yaml:"voltage_sag_pct"`
	CurrentUnbalancePct float64 `json:"currentUnbalancePct" yaml:"current_unbalance_pct"`
	RipplePct           float64 `json:"ripplePct" yaml:"ripple_pct"`
	LifetimeCycleLimit  float64 `json:"lifetimeCycleLimit" yaml:"lifetime_cycle_limit"`
	MTBFHours           float64 `json:"mtbfHours" yaml:"mtbf_hours"`
}

// DefaultThresholds returns the stock alert limits.
func DefaultThresholds() AlertThresholds {
	return AlertThresholds{
		CycleDurationMs:     45000,
		InrushMultiple:      6.0,
		VoltageSagPct:       10.0,
		CurrentUnbalancePct: 5.0,
		RipplePct:           8.0,
		LifetimeCycleLimit:  100000,
		MTBFHours:           100,
	}
}
