// Package types holds the canonical telemetry shapes shared by the
// ingest, filter and metrics packages. Everything downstream of the
// normalizer consumes these types, never raw CSV rows.
package types

import "time"

// Shape identifies which of the two supported CSV layouts a dataset
// was built from.
type Shape string

const (
	// ShapeWide is one row per completed machine cycle, many columns.
	ShapeWide Shape = "wide"
	// ShapeLong is one row per (timestamp, measure_name) pair, pivoted
	// into per-device time series during normalization.
	ShapeLong Shape = "long"
)

// CycleRecord is one completed machine cycle from a wide-shape upload.
// Derived fields are computed once at normalization time and frozen;
// records are never mutated after the dataset is installed.
type CycleRecord struct {
	DeviceID   string    `json:"deviceId"`
	Location   string    `json:"location,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	DurationMs float64   `json:"durationMs"`

	// RuntimeHours is DurationMs / 3,600,000, frozen at normalization.
	RuntimeHours float64 `json:"runtimeHours"`

	// Digital-input flags, true iff the source field was boolean true
	// or the literal string "True".
	EStop        bool `json:"eStop"`
	OverloadTrip bool `json:"overloadTrip"`
	ValveIssue   bool `json:"valveIssue"`

	// Anomaly is true iff HealthScore exceeded 0.5 at normalization.
	Anomaly     bool    `json:"anomaly"`
	HealthScore float64 `json:"healthAnomalyScore"`

	// Electrical / hydraulic telemetry, passed through unchanged.
	PressurePSI         float64 `json:"pressurePsi"`
	CurrentA            float64 `json:"currentA"`
	VoltageV            float64 `json:"voltageV"`
	EnergyKWh           float64 `json:"energyKwh"`
	InrushMultiple      float64 `json:"inrushMultiple"`
	VoltageSagPct       float64 `json:"voltageSagPct"`
	CurrentUnbalancePct float64 `json:"currentUnbalancePct"`
	RipplePct           float64 `json:"ripplePct"`

	// LifetimeCycles is the machine's odometer at the time of this
	// cycle, used for end-of-life projection.
	LifetimeCycles float64 `json:"lifetimeCycles"`
}

// HasError reports whether the cycle carries a safety error flag.
func (c *CycleRecord) HasError() bool {
	return c.EStop || c.OverloadTrip
}

// MeasurementPoint is one (device, timestamp, measure, value) tuple
// from a long-shape upload, prior to pivoting.
type MeasurementPoint struct {
	DeviceID    string
	Time        string // raw timestamp text, the exact grouping key
	MeasureName string
	Value       float64
}

// TimeSeriesPoint is one timestamp for one device after pivoting: all
// measurements that shared the exact same Time value, merged into one
// record. Repeated (device, time, measure) triples are last-write-wins.
type TimeSeriesPoint struct {
	DeviceID  string             `json:"deviceId"`
	Time      string             `json:"time"`
	Timestamp time.Time          `json:"timestamp"`
	Values    map[string]float64 `json:"values"`
}

// Value returns the named measurement and whether it is present.
func (p *TimeSeriesPoint) Value(measure string) (float64, bool) {
	v, ok := p.Values[measure]
	return v, ok
}

// Measurement names recognized by the classifier. A point carrying
// MeasureCycleDuration is a cycle summary; a point carrying any of the
// continuous-signal names is a real-time sample. The two memberships
// are independent.
const (
	MeasureCycleDuration = "cycle_duration_ms"
	MeasureVoltage       = "voltage"
	MeasureDigitalInput  = "digital_input"
	MeasureTemperature   = "temperature"
)

// RealTimeMeasures is the continuous-signal measure set.
var RealTimeMeasures = []string{MeasureVoltage, MeasureDigitalInput, MeasureTemperature}

// IsCycleSummary reports whether the point carries a cycle-duration
// measurement.
func (p *TimeSeriesPoint) IsCycleSummary() bool {
	_, ok := p.Values[MeasureCycleDuration]
	return ok
}

// IsRealTimeSample reports whether the point carries any continuous
// signal measurement.
func (p *TimeSeriesPoint) IsRealTimeSample() bool {
	for _, m := range RealTimeMeasures {
		if _, ok := p.Values[m]; ok {
			return true
		}
	}
	return false
}

// DeviceDataset owns the pivoted series for one device. Slices are
// ascending by timestamp; CycleSummaries and RealTimeSamples are
// classification views over the same points, not copies with distinct
// identity.
type DeviceDataset struct {
	DeviceID        string             `json:"deviceId"`
	TimeSeries      []*TimeSeriesPoint `json:"timeSeries"`
	CycleSummaries  []*TimeSeriesPoint `json:"cycleSummaries"`
	RealTimeSamples []*TimeSeriesPoint `json:"realTimeSamples"`
}

// Dataset is one fully normalized upload. Exactly one of Cycles or
// Devices is populated, depending on Shape. Built once per upload and
// read-only thereafter; filtering produces new Datasets.
type Dataset struct {
	Shape Shape

	// Cycles holds wide-shape records in input order.
	Cycles []CycleRecord

	// Devices holds long-shape per-device series in first-seen device
	// order, which keeps derived output deterministic across runs.
	Devices []*DeviceDataset
}

// Empty reports whether the dataset holds no records at all.
func (d *Dataset) Empty() bool {
	if d == nil {
		return true
	}
	if d.Shape == ShapeWide {
		return len(d.Cycles) == 0
	}
	for _, dev := range d.Devices {
		if len(dev.TimeSeries) > 0 {
			return false
		}
	}
	return true
}

// Device returns the dataset for the given device ID, or nil.
func (d *Dataset) Device(deviceID string) *DeviceDataset {
	for _, dev := range d.Devices {
		if dev.DeviceID == deviceID {
			return dev
		}
	}
	return nil
}

// DeviceIDs returns the distinct device IDs present, in deterministic
// order: input order for wide datasets, first-seen order for long.
func (d *Dataset) DeviceIDs() []string {
	if d == nil {
		return nil
	}
	if d.Shape == ShapeLong {
		ids := make([]string, 0, len(d.Devices))
		for _, dev := range d.Devices {
			ids = append(ids, dev.DeviceID)
		}
		return ids
	}
	seen := make(map[string]bool)
	var ids []string
	for i := range d.Cycles {
		id := d.Cycles[i].DeviceID
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// TimeBounds returns the earliest and latest record timestamps in the
// dataset. ok is false when the dataset holds no timestamped records.
func (d *Dataset) TimeBounds() (min, max time.Time, ok bool) {
	touch := func(t time.Time) {
		if t.IsZero() {
			return
		}
		if !ok {
			min, max = t, t
			ok = true
			return
		}
		if t.Before(min) {
			min = t
		}
		if t.After(max) {
			max = t
		}
	}

	if d == nil {
		return
	}
	for i := range d.Cycles {
		touch(d.Cycles[i].StartedAt)
	}
	for _, dev := range d.Devices {
		for _, p := range dev.TimeSeries {
			touch(p.Timestamp)
		}
	}
	return
}
