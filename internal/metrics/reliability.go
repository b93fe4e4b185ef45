package metrics

import (
	"github.com/balefleet/balewatch/internal/types"
)

// DefaultMTTRMinutes is the fallback when no complete
// failure-to-recovery transition exists in the working set.
const DefaultMTTRMinutes = 20.0

// Reliability is the MTBF/MTTR block.
type Reliability struct {
	MTBFHours    float64 `json:"mtbfHours"`
	MTTRMinutes  float64 `json:"mttrMinutes"`
	FailureCount int     `json:"failureCount"`
	// MTTREstimated is true when MTTRMinutes is the fallback constant
	// rather than a measured mean.
	MTTREstimated bool `json:"mttrEstimated"`
}

// ComputeReliability derives MTBF from cycle error flags and MTTR from
// digital-input recoveries.
//
// MTBF is total runtime hours over max(1, failures), so a failure-free
// set reads as "at least the whole observed runtime".
//
// MTTR is the mean duration, in minutes, of maximal digital_input==1
// runs that return to 0 in a later sample of the same device's signal.
// Runs still open at the end of the series are not repairs and do not
// count. With no completed run, the 20-minute fallback is
// reported and flagged as estimated.
func ComputeReliability(d *types.Dataset) Reliability {
	rel := Reliability{}
	if d == nil {
		rel.MTTRMinutes = DefaultMTTRMinutes
		rel.MTTREstimated = true
		return rel
	}

	cv := cycles(d)
	totalRuntime := 0.0
	for _, c := range cv {
		totalRuntime += c.runtimeHours
		if c.hasError {
			rel.FailureCount++
		}
	}

	if len(cv) > 0 {
		failures := rel.FailureCount
		if failures < 1 {
			failures = 1
		}
		rel.MTBFHours = totalRuntime / float64(failures)
	}

	var repairMinutes []float64
	for _, dev := range d.Devices {
		repairMinutes = append(repairMinutes, repairDurations(dev)...)
	}

	if len(repairMinutes) == 0 {
		rel.MTTRMinutes = DefaultMTTRMinutes
		rel.MTTREstimated = true
		return rel
	}
	rel.MTTRMinutes = mean(repairMinutes)
	return rel
}

// repairDurations walks one device's real-time samples and measures
// each completed digital_input 1→0 run in minutes.
func repairDurations(dev *types.DeviceDataset) []float64 {
	var durations []float64
	var faultStart *types.TimeSeriesPoint

	for _, p := range dev.RealTimeSamples {
		v, ok := p.Value(types.MeasureDigitalInput)
		if !ok {
			continue
		}
		active := v >= 1
		switch {
		case active && faultStart == nil:
			faultStart = p
		case !active && faultStart != nil:
			durations = append(durations, p.Timestamp.Sub(faultStart.Timestamp).Minutes())
			faultStart = nil
		}
	}
	return durations
}
