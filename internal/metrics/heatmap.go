package metrics

import (
	"time"

	"github.com/balefleet/balewatch/internal/types"
)

// HeatmapCell is one (day-of-week, hour-of-day) bucket. Value is the
// raw aggregate; Intensity is Value normalized by the grid maximum.
type HeatmapCell struct {
	Value     float64 `json:"value"`
	Intensity float64 `json:"intensity"`
}

// Heatmap is the 7×24 utilization grid. Rows are time.Weekday order
// (Sunday first), columns are hours 0–23.
type Heatmap struct {
	Cells [7][24]HeatmapCell `json:"cells"`
	Max   float64            `json:"max"`
}

// add accumulates a contribution into the cell for the timestamp.
func (h *Heatmap) add(ts time.Time, value float64) {
	h.Cells[int(ts.Weekday())][ts.Hour()].Value += value
}

// normalize fills intensities. An all-zero grid stays at intensity 0
// everywhere instead of dividing by zero.
func (h *Heatmap) normalize() {
	for day := range h.Cells {
		for hour := range h.Cells[day] {
			if v := h.Cells[day][hour].Value; v > h.Max {
				h.Max = v
			}
		}
	}
	if h.Max == 0 {
		return
	}
	for day := range h.Cells {
		for hour := range h.Cells[day] {
			h.Cells[day][hour].Intensity = h.Cells[day][hour].Value / h.Max
		}
	}
}

// UtilizationHeatmap buckets the working set into the 7×24 grid. Wide
// datasets accumulate runtime hours per cell, so the grid total equals
// total runtime; long datasets count active digital-input samples per
// cell.
func UtilizationHeatmap(d *types.Dataset) Heatmap {
	h := Heatmap{}
	if d == nil {
		return h
	}

	if d.Shape == types.ShapeWide {
		for i := range d.Cycles {
			rec := &d.Cycles[i]
			h.add(rec.StartedAt, rec.RuntimeHours)
		}
	} else {
		for _, dev := range d.Devices {
			for _, p := range dev.RealTimeSamples {
				if v, ok := p.Value(types.MeasureDigitalInput); ok && v >= 1 {
					h.add(p.Timestamp, 1)
				}
			}
		}
	}

	h.normalize()
	return h
}
