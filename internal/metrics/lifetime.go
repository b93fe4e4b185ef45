package metrics

import (
	"github.com/balefleet/balewatch/internal/types"
)

// spanEpsilonDays guards the cycles-per-day division for datasets
// spanning less than a day.
const spanEpsilonDays = 1.0 / 24.0

// Lifetime is the end-of-life projection for one device (or the whole
// working set when unfiltered).
type Lifetime struct {
	LifetimeCycles  float64 `json:"lifetimeCycles"`
	RemainingCycles float64 `json:"remainingCycles"`
	RULPercent      float64 `json:"rulPercent"`
	AvgCyclesPerDay float64 `json:"avgCyclesPerDay"`
	RULDays         float64 `json:"rulDays"`
}

// ComputeLifetime projects remaining useful life from the lifetime
// cycle odometer against the configured limit. The odometer is the
// maximum lifetime_cycle_count seen in view; consumption rate is that
// count over the observed span in days, with an epsilon floor. A zero
// consumption rate leaves RULDays at zero rather than infinity.
func ComputeLifetime(d *types.Dataset, t types.AlertThresholds) Lifetime {
	life := Lifetime{}

	cv := cycles(d)
	if len(cv) == 0 || t.LifetimeCycleLimit <= 0 {
		return life
	}

	minTs, maxTs := cv[0].startedAt, cv[0].startedAt
	for _, c := range cv {
		if c.rec != nil && c.rec.LifetimeCycles > life.LifetimeCycles {
			life.LifetimeCycles = c.rec.LifetimeCycles
		}
		if c.startedAt < minTs {
			minTs = c.startedAt
		}
		if c.startedAt > maxTs {
			maxTs = c.startedAt
		}
	}

	// Long-shape summaries carry no odometer; fall back to counting
	// observed cycles so the projection still degrades gracefully.
	if life.LifetimeCycles == 0 {
		life.LifetimeCycles = float64(len(cv))
	}

	life.RemainingCycles = t.LifetimeCycleLimit - life.LifetimeCycles
	if life.RemainingCycles < 0 {
		life.RemainingCycles = 0
	}
	life.RULPercent = life.RemainingCycles / t.LifetimeCycleLimit * 100

	spanDays := float64(maxTs-minTs) / 86400000.0
	if spanDays < spanEpsilonDays {
		spanDays = spanEpsilonDays
	}
	life.AvgCyclesPerDay = life.LifetimeCycles / spanDays

	if life.AvgCyclesPerDay > 0 {
		life.RULDays = life.RemainingCycles / life.AvgCyclesPerDay
	}
	return life
}
