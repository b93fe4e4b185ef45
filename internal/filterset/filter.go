// Package filterset narrows a normalized dataset by device, location
// and time window. Filtering is pure: inputs are never mutated and the
// output is a fresh dataset sharing only immutable records.
package filterset

import (
	"time"

	"github.com/balefleet/balewatch/internal/types"
)

// Engine applies filter criteria. Locations maps device IDs to
// configured locations for long-shape datasets, whose points carry no
// location of their own; wide records use their own Location field.
type Engine struct {
	Locations map[string]string
}

// New creates a filter engine with an optional device-location lookup.
func New(locations map[string]string) *Engine {
	return &Engine{Locations: locations}
}

// Apply filters with no device-location lookup.
func Apply(d *types.Dataset, c types.FilterCriteria) *types.Dataset {
	return New(nil).Apply(d, c)
}

// Apply produces the working set for the given criteria. The time
// window is anchored to the maximum timestamp of the input dataset,
// not wall-clock time, so the window does not shrink as other filters
// are applied. Reapplying the same criteria to the output is a no-op.
func (e *Engine) Apply(d *types.Dataset, c types.FilterCriteria) *types.Dataset {
	if d == nil {
		return &types.Dataset{}
	}

	windowStart, windowEnd, bounded := e.window(d, c)

	out := &types.Dataset{Shape: d.Shape}

	if d.Shape == types.ShapeWide {
		for i := range d.Cycles {
			rec := &d.Cycles[i]
			if !matches(c.Device, rec.DeviceID) {
				continue
			}
			if !matches(c.Location, rec.Location) {
				continue
			}
			if bounded && !inWindow(rec.StartedAt, windowStart, windowEnd) {
				continue
			}
			out.Cycles = append(out.Cycles, *rec)
		}
		return out
	}

	for _, dev := range d.Devices {
		if !matches(c.Device, dev.DeviceID) {
			continue
		}
		if !matches(c.Location, e.Locations[dev.DeviceID]) {
			continue
		}
		filtered := filterDevice(dev, windowStart, windowEnd, bounded)
		if len(filtered.TimeSeries) > 0 {
			out.Devices = append(out.Devices, filtered)
		}
	}
	return out
}

// window resolves the criteria into an inclusive [start, end] bound.
// bounded is false for RangeAll with no explicit bounds, in which case
// no time predicate applies at all.
func (e *Engine) window(d *types.Dataset, c types.FilterCriteria) (start, end time.Time, bounded bool) {
	if c.Start != nil || c.End != nil {
		if c.Start != nil {
			start = *c.Start
		}
		end = time.Unix(1<<62-1, 0)
		if c.End != nil {
			end = *c.End
		}
		return start, end, true
	}

	dur := c.Range.Duration()
	if dur == 0 {
		return time.Time{}, time.Time{}, false
	}

	_, max, ok := d.TimeBounds()
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	// max is the upper bound by construction; the predicate is only
	// the inclusive lower bound.
	return max.Add(-dur), max, true
}

func matches(criterion, value string) bool {
	return criterion == "" || criterion == types.FilterAll || criterion == value
}

func inWindow(ts, start, end time.Time) bool {
	return !ts.Before(start) && !ts.After(end)
}

// filterDevice rebuilds one device's dataset from the points inside
// the window, re-deriving the classification views so their ordering
// matches the surviving time series.
func filterDevice(dev *types.DeviceDataset, start, end time.Time, bounded bool) *types.DeviceDataset {
	out := &types.DeviceDataset{DeviceID: dev.DeviceID}
	for _, p := range dev.TimeSeries {
		if bounded && !inWindow(p.Timestamp, start, end) {
			continue
		}
		out.TimeSeries = append(out.TimeSeries, p)
		if p.IsCycleSummary() {
			out.CycleSummaries = append(out.CycleSummaries, p)
		}
		if p.IsRealTimeSample() {
			out.RealTimeSamples = append(out.RealTimeSamples, p)
		}
	}
	return out
}
