package filterset

import (
	"reflect"
	"testing"
	"time"

	"github.com/balefleet/balewatch/internal/types"
)

func wideDataset() *types.Dataset {
	base := time.Date(2026, time.March, 31, 12, 0, 0, 0, time.UTC)
	mk := func(device, location string, age time.Duration) types.CycleRecord {
		return types.CycleRecord{
			DeviceID:     device,
			Location:     location,
			StartedAt:    base.Add(-age),
			DurationMs:   60000,
			RuntimeHours: 60000.0 / 3600000.0,
		}
	}
	return &types.Dataset{
		Shape: types.ShapeWide,
		Cycles: []types.CycleRecord{
			mk("M1", "north-hall", 0),
			mk("M1", "north-hall", 12*time.Hour),
			mk("M2", "south-hall", 36*time.Hour),
			mk("M2", "south-hall", 5*24*time.Hour),
			mk("M3", "yard", 20*24*time.Hour),
			mk("M3", "yard", 45*24*time.Hour),
		},
	}
}

func longDataset() *types.Dataset {
	base := time.Date(2026, time.March, 31, 12, 0, 0, 0, time.UTC)
	point := func(device string, age time.Duration, measure string, v float64) *types.TimeSeriesPoint {
		ts := base.Add(-age)
		return &types.TimeSeriesPoint{
			DeviceID:  device,
			Time:      ts.Format(time.RFC3339),
			Timestamp: ts,
			Values:    map[string]float64{measure: v},
		}
	}
	build := func(device string, points ...*types.TimeSeriesPoint) *types.DeviceDataset {
		dev := &types.DeviceDataset{DeviceID: device, TimeSeries: points}
		for _, p := range points {
			if p.IsCycleSummary() {
				dev.CycleSummaries = append(dev.CycleSummaries, p)
			}
			if p.IsRealTimeSample() {
				dev.RealTimeSamples = append(dev.RealTimeSamples, p)
			}
		}
		return dev
	}
	return &types.Dataset{
		Shape: types.ShapeLong,
		Devices: []*types.DeviceDataset{
			build("M1",
				point("M1", 40*24*time.Hour, "voltage", 470),
				point("M1", 2*time.Hour, "voltage", 478),
				point("M1", time.Hour, "cycle_duration_ms", 42000),
			),
			build("M2",
				point("M2", 10*24*time.Hour, "temperature", 50),
			),
		},
	}
}

func countRecords(d *types.Dataset) int {
	if d.Shape == types.ShapeWide {
		return len(d.Cycles)
	}
	n := 0
	for _, dev := range d.Devices {
		n += len(dev.TimeSeries)
	}
	return n
}

func TestFilterDevice(t *testing.T) {
	out := Apply(wideDataset(), types.FilterCriteria{Device: "M2", Location: types.FilterAll, Range: types.RangeAll})
	if len(out.Cycles) != 2 {
		t.Fatalf("expected 2 cycles for M2, got %d", len(out.Cycles))
	}
	for _, rec := range out.Cycles {
		if rec.DeviceID != "M2" {
			t.Errorf("unexpected device %s in filtered set", rec.DeviceID)
		}
	}
}

func TestFilterLocation(t *testing.T) {
	out := Apply(wideDataset(), types.FilterCriteria{Device: types.FilterAll, Location: "yard", Range: types.RangeAll})
	if len(out.Cycles) != 2 {
		t.Fatalf("expected 2 cycles in yard, got %d", len(out.Cycles))
	}
}

func TestFilterTimeWindows(t *testing.T) {
	tests := []struct {
		rng      types.TimeRange
		expected int
	}{
		{types.Range24h, 2}, // ages 0 and 12h
		{types.Range7d, 4},  // plus 36h and 5d
		{types.Range30d, 5}, // plus 20d
		{types.RangeAll, 6},
	}

	for _, tt := range tests {
		t.Run(string(tt.rng), func(t *testing.T) {
			out := Apply(wideDataset(), types.FilterCriteria{
				Device: types.FilterAll, Location: types.FilterAll, Range: tt.rng,
			})
			if len(out.Cycles) != tt.expected {
				t.Errorf("expected %d cycles in %s window, got %d", tt.expected, tt.rng, len(out.Cycles))
			}
		})
	}
}

func TestWindowMonotonicity(t *testing.T) {
	for _, dataset := range []*types.Dataset{wideDataset(), longDataset()} {
		prev := -1
		for _, rng := range []types.TimeRange{types.Range24h, types.Range7d, types.Range30d, types.RangeAll} {
			out := Apply(dataset, types.FilterCriteria{Device: types.FilterAll, Location: types.FilterAll, Range: rng})
			n := countRecords(out)
			if n < prev {
				t.Errorf("%s shape: window %s produced %d records, fewer than the narrower window's %d",
					dataset.Shape, rng, n, prev)
			}
			prev = n
		}
	}
}

// The window anchors to the dataset's max timestamp, not to the
// already-filtered set, so prior filters do not shrink it.
func TestWindowAnchoredToOriginalMax(t *testing.T) {
	d := wideDataset()
	// M3's newest cycle is 20 days old; a 30d window measured from the
	// fleet max (age 0) keeps it, measured from M3's own max it would
	// also survive, but the 24h window must drop everything of M3's.
	out := Apply(d, types.FilterCriteria{Device: "M3", Location: types.FilterAll, Range: types.Range30d})
	if len(out.Cycles) != 1 {
		t.Fatalf("expected M3's 20d-old cycle inside the 30d fleet window, got %d", len(out.Cycles))
	}
	out = Apply(d, types.FilterCriteria{Device: "M3", Location: types.FilterAll, Range: types.Range24h})
	if len(out.Cycles) != 0 {
		t.Errorf("expected no M3 cycles inside the 24h fleet window, got %d", len(out.Cycles))
	}
}

func TestFilterIdempotent(t *testing.T) {
	criteria := []types.FilterCriteria{
		{Device: types.FilterAll, Location: types.FilterAll, Range: types.RangeAll},
		{Device: "M1", Location: types.FilterAll, Range: types.Range7d},
		{Device: types.FilterAll, Location: "south-hall", Range: types.Range30d},
		{Device: "M2", Location: "south-hall", Range: types.Range24h},
	}

	for _, dataset := range []*types.Dataset{wideDataset(), longDataset()} {
		for _, c := range criteria {
			once := Apply(dataset, c)
			twice := Apply(once, c)
			if !reflect.DeepEqual(once, twice) {
				t.Errorf("%s shape: criteria %+v not idempotent", dataset.Shape, c)
			}
		}
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	d := wideDataset()
	before := countRecords(d)

	Apply(d, types.FilterCriteria{Device: "M1", Location: types.FilterAll, Range: types.Range24h})

	if countRecords(d) != before {
		t.Error("filtering mutated the original dataset")
	}
}

func TestExplicitWindow(t *testing.T) {
	d := wideDataset()
	start := time.Date(2026, time.March, 29, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.March, 31, 12, 0, 0, 0, time.UTC)

	out := Apply(d, types.FilterCriteria{
		Device: types.FilterAll, Location: types.FilterAll,
		Start: &start, End: &end,
	})
	// Ages 0, 12h and 36h fall inside [Mar 29, Mar 31 12:00].
	if len(out.Cycles) != 3 {
		t.Errorf("expected 3 cycles in the explicit window, got %d", len(out.Cycles))
	}
}

func TestLongLocationLookup(t *testing.T) {
	engine := New(map[string]string{"M1": "north-hall", "M2": "south-hall"})

	out := engine.Apply(longDataset(), types.FilterCriteria{
		Device: types.FilterAll, Location: "north-hall", Range: types.RangeAll,
	})
	if len(out.Devices) != 1 || out.Devices[0].DeviceID != "M1" {
		t.Fatalf("expected only M1 at north-hall, got %+v", out.Devices)
	}
}

func TestFilterEmptyDataset(t *testing.T) {
	out := Apply(&types.Dataset{Shape: types.ShapeWide}, types.DefaultCriteria())
	if !out.Empty() {
		t.Error("filtering an empty dataset should stay empty")
	}
	out = Apply(nil, types.DefaultCriteria())
	if !out.Empty() {
		t.Error("filtering a nil dataset should yield an empty one")
	}
}
