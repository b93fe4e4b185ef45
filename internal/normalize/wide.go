// Package normalize reshapes ingested rows into the canonical dataset
// types: wide rows become CycleRecords, long rows are pivoted into
// per-device time series. Output ordering is deterministic for a given
// input order, so downstream aggregations never re-sort ad hoc.
package normalize

import (
	"github.com/balefleet/balewatch/internal/ingest"
	"github.com/balefleet/balewatch/internal/log"
	"github.com/balefleet/balewatch/internal/types"
)

// flagTrue reports whether a digital-input field is set. Only a native
// boolean or the literal strings "True"/"true" count; numeric 1 does
// not.
func flagTrue(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "True" || t == "true"
	}
	return false
}

// anomalyScoreCutoff is the health score above which a cycle is frozen
// as anomalous at normalization time.
const anomalyScoreCutoff = 0.5

// Wide converts wide-shape rows into CycleRecords, in input order.
// Rows whose cycle_started_at does not parse as a valid instant are
// dropped; nothing else is fatal at this stage.
func Wide(rows []ingest.RawRow, locations map[string]string) []types.CycleRecord {
	records := make([]types.CycleRecord, 0, len(rows))
	dropped := 0

	for _, row := range rows {
		startedAt, ok := parseTimestamp(row["cycle_started_at"])
		if !ok {
			dropped++
			continue
		}

		durationMs, _ := row.Float("cycle_duration_ms")
		if durationMs < 0 {
			durationMs = 0
		}

		rec := types.CycleRecord{
			DeviceID:     row.String("device_id"),
			Location:     row.String("location"),
			StartedAt:    startedAt,
			DurationMs:   durationMs,
			RuntimeHours: durationMs / 3600000.0,
			EStop:        flagTrue(row["e_stop"]),
			OverloadTrip: flagTrue(row["overload_trip"]),
			ValveIssue:   flagTrue(row["valve_issue"]),
		}

		rec.HealthScore, _ = row.Float("health_anomaly_score")
		rec.Anomaly = rec.HealthScore > anomalyScoreCutoff

		rec.PressurePSI, _ = row.Float("peak_pressure_psi")
		rec.CurrentA, _ = row.Float("avg_current_a")
		rec.VoltageV, _ = row.Float("voltage_v")
		rec.EnergyKWh, _ = row.Float("energy_kwh")
		rec.InrushMultiple, _ = row.Float("inrush_multiple")
		rec.VoltageSagPct, _ = row.Float("voltage_sag_pct")
		rec.CurrentUnbalancePct, _ = row.Float("current_unbalance_pct")
		rec.RipplePct, _ = row.Float("ripple_pct")
		rec.LifetimeCycles, _ = row.Float("lifetime_cycle_count")

		if rec.Location == "" && locations != nil {
			rec.Location = locations[rec.DeviceID]
		}

		records = append(records, rec)
	}

	if dropped > 0 {
		log.Warnf("dropped %d wide-shape rows with unparseable cycle_started_at", dropped)
	}
	return records
}

// Build normalizes a parse result into a Dataset according to its
// shape. locations optionally fills in missing wide-shape locations
// from configuration.
func Build(result *ingest.Result, locations map[string]string) *types.Dataset {
	if result.Shape == types.ShapeLong {
		return &types.Dataset{
			Shape:   types.ShapeLong,
			Devices: Long(result.Rows),
		}
	}
	return &types.Dataset{
		Shape:  types.ShapeWide,
		Cycles: Wide(result.Rows, locations),
	}
}
