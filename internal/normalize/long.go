package normalize

import (
	"sort"

	"github.com/balefleet/balewatch/internal/ingest"
	"github.com/balefleet/balewatch/internal/log"
	"github.com/balefleet/balewatch/internal/types"
)

// deviceAccumulator collects one device's points during the pivot,
// keyed by the exact Time string.
type deviceAccumulator struct {
	deviceID string
	points   map[string]*types.TimeSeriesPoint
	order    []string // first-seen Time order, for deterministic ties
}

// Long pivots long-shape rows into per-device time series. Rows are
// grouped by deviceId, then by exact Time string; all measurements
// sharing a (deviceId, Time) pair merge into one TimeSeriesPoint.
// Repeated (deviceId, Time, measure_name) triples are last-write-wins
// in input order; collisions are counted and logged once, not deduped.
//
// Devices come back in first-seen order, each with its points sorted
// ascending by timestamp. Points whose Time does not parse as a valid
// instant are dropped after the merge.
func Long(rows []ingest.RawRow) []*types.DeviceDataset {
	accs := make(map[string]*deviceAccumulator)
	var deviceOrder []string
	collisions := 0
	skipped := 0

	for _, row := range rows {
		deviceID := row.String("deviceId")
		timeKey := row.String("Time")
		measure := row.String("measure_name")
		if deviceID == "" || timeKey == "" || measure == "" {
			skipped++
			continue
		}
		value, ok := row.Float("measure_value")
		if !ok {
			skipped++
			continue
		}

		acc := accs[deviceID]
		if acc == nil {
			acc = &deviceAccumulator{
				deviceID: deviceID,
				points:   make(map[string]*types.TimeSeriesPoint),
			}
			accs[deviceID] = acc
			deviceOrder = append(deviceOrder, deviceID)
		}

		point := acc.points[timeKey]
		if point == nil {
			point = &types.TimeSeriesPoint{
				DeviceID: deviceID,
				Time:     timeKey,
				Values:   make(map[string]float64),
			}
			acc.points[timeKey] = point
			acc.order = append(acc.order, timeKey)
		}

		if _, exists := point.Values[measure]; exists {
			collisions++
		}
		point.Values[measure] = value
	}

	if skipped > 0 {
		log.Warnf("skipped %d long-shape rows with missing keys or non-numeric values", skipped)
	}
	if collisions > 0 {
		log.Warnf("%d repeated (device, time, measure) triples resolved last-write-wins", collisions)
	}

	devices := make([]*types.DeviceDataset, 0, len(deviceOrder))
	for _, deviceID := range deviceOrder {
		devices = append(devices, finalizeDevice(accs[deviceID]))
	}
	return devices
}

// finalizeDevice parses timestamps, sorts, and classifies one device's
// merged points.
func finalizeDevice(acc *deviceAccumulator) *types.DeviceDataset {
	ds := &types.DeviceDataset{DeviceID: acc.deviceID}

	dropped := 0
	for _, timeKey := range acc.order {
		point := acc.points[timeKey]
		ts, ok := parseTimestamp(point.Time)
		if !ok {
			dropped++
			continue
		}
		point.Timestamp = ts
		ds.TimeSeries = append(ds.TimeSeries, point)
	}
	if dropped > 0 {
		log.Warnf("device %s: dropped %d points with unparseable timestamps", acc.deviceID, dropped)
	}

	// Stable sort keeps first-seen order for identical timestamps.
	sort.SliceStable(ds.TimeSeries, func(i, j int) bool {
		return ds.TimeSeries[i].Timestamp.Before(ds.TimeSeries[j].Timestamp)
	})

	// Classification is non-exclusive; a point may land in both lists.
	for _, point := range ds.TimeSeries {
		if point.IsCycleSummary() {
			ds.CycleSummaries = append(ds.CycleSummaries, point)
		}
		if point.IsRealTimeSample() {
			ds.RealTimeSamples = append(ds.RealTimeSamples, point)
		}
	}
	return ds
}
