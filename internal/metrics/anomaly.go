package metrics

import (
	"time"

	"github.com/balefleet/balewatch/internal/types"
)

// Anomaly severity buckets by factor score.
const (
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// CycleAnomaly scores one cycle against the alert thresholds. Score is
// the count of exceeded factors out of five: inrush multiple, voltage
// sag, current unbalance, ripple, and the cycle error flag.
type CycleAnomaly struct {
	DeviceID  string    `json:"deviceId"`
	StartedAt time.Time `json:"startedAt"`
	Score     int       `json:"score"`
	IsAnomaly bool      `json:"isAnomaly"`
	Severity  string    `json:"severity,omitempty"`
}

// AnomalySummary aggregates anomaly scoring over the working set.
type AnomalySummary struct {
	Total      int            `json:"total"`
	BySeverity map[string]int `json:"bySeverity"`
	Recent     []CycleAnomaly `json:"recent"`
}

// recentAnomalyCap bounds the Recent list in the summary.
const recentAnomalyCap = 10

// severity maps a factor score to its bucket. Scores below 2 have no
// bucket.
func severity(score int) string {
	switch {
	case score >= 4:
		return SeverityCritical
	case score == 3:
		return SeverityHigh
	case score == 2:
		return SeverityMedium
	}
	return ""
}

// ScoreCycle evaluates one wide-shape cycle against the thresholds.
func ScoreCycle(rec *types.CycleRecord, t types.AlertThresholds) CycleAnomaly {
	score := 0
	if rec.InrushMultiple > t.InrushMultiple {
		score++
	}
	if rec.VoltageSagPct > t.VoltageSagPct {
		score++
	}
	if rec.CurrentUnbalancePct > t.CurrentUnbalancePct {
		score++
	}
	if rec.RipplePct > t.RipplePct {
		score++
	}
	if rec.HasError() {
		score++
	}
	return CycleAnomaly{
		DeviceID:  rec.DeviceID,
		StartedAt: rec.StartedAt,
		Score:     score,
		IsAnomaly: score >= 2,
		Severity:  severity(score),
	}
}

// Anomalies scores every cycle in the working set. Long-shape cycle
// summaries carry no electrical factors, so only the error-flag factor
// can contribute there; single-factor scores never reach the anomaly
// bar, which matches the data actually available in that shape.
func Anomalies(d *types.Dataset, t types.AlertThresholds) AnomalySummary {
	summary := AnomalySummary{BySeverity: map[string]int{}}

	cv := cycles(d)
	for _, c := range cv {
		var scored CycleAnomaly
		if c.rec != nil {
			scored = ScoreCycle(c.rec, t)
		} else {
			score := 0
			if c.hasError {
				score++
			}
			scored = CycleAnomaly{
				DeviceID:  c.deviceID,
				StartedAt: time.UnixMilli(c.startedAt).UTC(),
				Score:     score,
				IsAnomaly: false,
			}
		}
		if !scored.IsAnomaly {
			continue
		}
		summary.Total++
		summary.BySeverity[scored.Severity]++
		summary.Recent = append(summary.Recent, scored)
	}

	// Keep only the newest entries; cycles arrive in deterministic
	// per-device time order, so the tail is the most recent slice.
	if len(summary.Recent) > recentAnomalyCap {
		summary.Recent = summary.Recent[len(summary.Recent)-recentAnomalyCap:]
	}
	return summary
}
