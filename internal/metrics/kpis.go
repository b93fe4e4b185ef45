package metrics

import (
	"github.com/balefleet/balewatch/internal/types"
)

// FleetKPIs are the headline figures across the filtered fleet.
type FleetKPIs struct {
	TotalCycles       int     `json:"totalCycles"`
	UniqueDevices     int     `json:"uniqueDevices"`
	TotalRuntimeHours float64 `json:"totalRuntimeHours"`
	TotalEnergyKWh    float64 `json:"totalEnergyKwh"`
	MeanEnergyKWh     float64 `json:"meanEnergyKwh"`
	WindowHours       float64 `json:"windowHours"`
	UtilizationRate   float64 `json:"utilizationRate"`
	ErrorCount        int     `json:"errorCount"`
	ErrorRate         float64 `json:"errorRate"`
}

// cycleView is the shape-independent cycle projection the aggregations
// work from: wide CycleRecords map directly, long cycle summaries map
// through their cycle_duration_ms measurement.
type cycleView struct {
	deviceID     string
	location     string
	startedAt    int64 // unix milliseconds
	durationMs   float64
	runtimeHours float64
	energyKWh    float64
	hasError     bool
	healthScore  float64
	rec          *types.CycleRecord // nil for long-shape summaries
}

// cycles projects the dataset's completed cycles in deterministic
// order: input order for wide, device-then-timestamp order for long.
func cycles(d *types.Dataset) []cycleView {
	if d == nil {
		return nil
	}

	var out []cycleView
	if d.Shape == types.ShapeWide {
		for i := range d.Cycles {
			rec := &d.Cycles[i]
			out = append(out, cycleView{
				deviceID:     rec.DeviceID,
				location:     rec.Location,
				startedAt:    rec.StartedAt.UnixMilli(),
				durationMs:   rec.DurationMs,
				runtimeHours: rec.RuntimeHours,
				energyKWh:    rec.EnergyKWh,
				hasError:     rec.HasError(),
				healthScore:  rec.HealthScore,
				rec:          rec,
			})
		}
		return out
	}

	for _, dev := range d.Devices {
		for _, p := range dev.CycleSummaries {
			durationMs, _ := p.Value(types.MeasureCycleDuration)
			if durationMs < 0 {
				durationMs = 0
			}
			eStop, _ := p.Value("e_stop")
			overload, _ := p.Value("overload_trip")
			energy, _ := p.Value("energy_kwh")
			health, _ := p.Value("health_anomaly_score")
			out = append(out, cycleView{
				deviceID:     dev.DeviceID,
				startedAt:    p.Timestamp.UnixMilli(),
				durationMs:   durationMs,
				runtimeHours: durationMs / 3600000.0,
				energyKWh:    energy,
				hasError:     eStop >= 1 || overload >= 1,
				healthScore:  health,
			})
		}
	}
	return out
}

// Fleet computes the fleet KPI block. Utilization is total runtime over
// device-count × window-hours, clamped to [0, 100]; the window floor of
// one hour keeps single-instant datasets from dividing by zero.
func Fleet(d *types.Dataset) FleetKPIs {
	kpis := FleetKPIs{}

	cv := cycles(d)
	if len(cv) == 0 {
		return kpis
	}

	kpis.TotalCycles = len(cv)
	kpis.UniqueDevices = len(d.DeviceIDs())

	minTs, maxTs := cv[0].startedAt, cv[0].startedAt
	for _, c := range cv {
		kpis.TotalRuntimeHours += c.runtimeHours
		kpis.TotalEnergyKWh += c.energyKWh
		if c.hasError {
			kpis.ErrorCount++
		}
		if c.startedAt < minTs {
			minTs = c.startedAt
		}
		if c.startedAt > maxTs {
			maxTs = c.startedAt
		}
	}

	windowHours := float64(maxTs-minTs) / 3600000.0
	if windowHours < 1 {
		windowHours = 1
	}
	kpis.WindowHours = windowHours

	if kpis.UniqueDevices > 0 {
		rate := kpis.TotalRuntimeHours / (float64(kpis.UniqueDevices) * windowHours) * 100
		kpis.UtilizationRate = clamp(rate, 0, 100)
	}

	kpis.MeanEnergyKWh = kpis.TotalEnergyKWh / float64(kpis.TotalCycles)
	kpis.ErrorRate = float64(kpis.ErrorCount) / float64(kpis.TotalCycles) * 100
	return kpis
}
