package metrics

import (
	"sort"

	"github.com/balefleet/balewatch/internal/types"
)

// SignalStats summarizes one continuous measurement for one device.
type SignalStats struct {
	DeviceID string  `json:"deviceId"`
	Measure  string  `json:"measure"`
	Samples  int     `json:"samples"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Mean     float64 `json:"mean"`
}

// SignalSummary computes per-device stats for every measure appearing
// in the real-time samples. Output order is deterministic: devices in
// dataset order, measures sorted by name within each device.
func SignalSummary(d *types.Dataset) []SignalStats {
	if d == nil {
		return nil
	}

	var out []SignalStats
	for _, dev := range d.Devices {
		byMeasure := make(map[string][]float64)
		for _, p := range dev.RealTimeSamples {
			for measure, v := range p.Values {
				byMeasure[measure] = append(byMeasure[measure], v)
			}
		}

		measures := make([]string, 0, len(byMeasure))
		for m := range byMeasure {
			measures = append(measures, m)
		}
		sort.Strings(measures)

		for _, m := range measures {
			values := byMeasure[m]
			stats := SignalStats{
				DeviceID: dev.DeviceID,
				Measure:  m,
				Samples:  len(values),
				Min:      values[0],
				Max:      values[0],
				Mean:     mean(values),
			}
			for _, v := range values[1:] {
				if v < stats.Min {
					stats.Min = v
				}
				if v > stats.Max {
					stats.Max = v
				}
			}
			out = append(out, stats)
		}
	}
	return out
}
