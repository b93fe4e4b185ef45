package metrics

import (
	"github.com/balefleet/balewatch/internal/types"
)

// VoltageSagAnalysis summarizes supply-quality degradation across the
// working set's cycles.
type VoltageSagAnalysis struct {
	WorstPct    float64 `json:"worstPct"`
	MeanPct     float64 `json:"meanPct"`
	ExceedCount int     `json:"exceedCount"`
}

// VoltageSag aggregates the per-cycle sag percentages and counts the
// cycles exceeding the alert threshold.
func VoltageSag(d *types.Dataset, t types.AlertThresholds) VoltageSagAnalysis {
	analysis := VoltageSagAnalysis{}
	if d == nil {
		return analysis
	}

	var sags []float64
	for i := range d.Cycles {
		rec := &d.Cycles[i]
		sags = append(sags, rec.VoltageSagPct)
		if rec.VoltageSagPct > analysis.WorstPct {
			analysis.WorstPct = rec.VoltageSagPct
		}
		if rec.VoltageSagPct > t.VoltageSagPct {
			analysis.ExceedCount++
		}
	}
	analysis.MeanPct = mean(sags)
	return analysis
}
