package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/balefleet/balewatch/internal/metrics"
)

func TestFilename(t *testing.T) {
	ts := time.Date(2026, time.March, 5, 23, 30, 0, 0, time.FixedZone("CET", 3600))
	// 23:30 CET is 22:30 UTC; the name follows the UTC date.
	if got := Filename(ts); got != "telemetry-report-2026-03-05.json" {
		t.Errorf("unexpected filename %q", got)
	}
}

func TestBuildCleanDataset(t *testing.T) {
	doc := Build("all", metrics.FleetKPIs{TotalCycles: 12},
		metrics.AnomalySummary{}, metrics.SafetySummary{},
		metrics.VoltageSagAnalysis{}, metrics.Lifetime{RULPercent: 85})

	if doc.ReportID == "" {
		t.Error("report ID must be populated")
	}
	if doc.Timestamp.IsZero() || doc.Timestamp.Location() != time.UTC {
		t.Errorf("timestamp should be current UTC, got %v", doc.Timestamp)
	}
	if doc.Device != "all" {
		t.Errorf("device field wrong: %q", doc.Device)
	}
	if doc.Summary.TotalCycles != 12 {
		t.Errorf("summary not carried through: %+v", doc.Summary)
	}
	if doc.Anomalies.Severity == nil {
		t.Error("severity map must never be nil in the artifact")
	}
	if len(doc.Recommendations) != 1 ||
		doc.Recommendations[0] != "No corrective action indicated by the current data window." {
		t.Errorf("clean dataset should yield only the no-action line, got %v", doc.Recommendations)
	}
}

func TestRecommendationsAccumulate(t *testing.T) {
	anomalies := metrics.AnomalySummary{
		Total:      8,
		BySeverity: map[string]int{metrics.SeverityCritical: 2},
	}
	safety := metrics.SafetySummary{EStopCount: 1, OverloadCount: 4, ValveIssueCount: 1}
	sag := metrics.VoltageSagAnalysis{ExceedCount: 3, WorstPct: 14.2}
	lifetime := metrics.Lifetime{RULPercent: 12}

	recs := recommend(anomalies, safety, sag, lifetime)
	if len(recs) != 7 {
		t.Fatalf("every triggered rule should contribute; expected 7 lines, got %d: %v",
			len(recs), recs)
	}

	wantFragments := []string{
		"Anomaly count is 8",
		"Critical-severity anomalies",
		"1 emergency-stop events",
		"overload trips",
		"Valve issues",
		"worst 14.2%",
		"Remaining useful life is 12.0%",
	}
	for i, frag := range wantFragments {
		if !strings.Contains(recs[i], frag) {
			t.Errorf("recommendation %d should contain %q, got %q", i, frag, recs[i])
		}
	}
}

func TestRecommendationRuleBoundaries(t *testing.T) {
	tests := []struct {
		name      string
		anomalies metrics.AnomalySummary
		safety    metrics.SafetySummary
		lifetime  metrics.Lifetime
		triggered bool
	}{
		{"five anomalies is under the bar", metrics.AnomalySummary{Total: 5}, metrics.SafetySummary{}, metrics.Lifetime{}, false},
		{"six anomalies triggers", metrics.AnomalySummary{Total: 6}, metrics.SafetySummary{}, metrics.Lifetime{}, true},
		{"three overloads is under the bar", metrics.AnomalySummary{}, metrics.SafetySummary{OverloadCount: 3}, metrics.Lifetime{}, false},
		{"zero RUL means no projection, not a warning", metrics.AnomalySummary{}, metrics.SafetySummary{}, metrics.Lifetime{RULPercent: 0}, false},
		{"low RUL triggers", metrics.AnomalySummary{}, metrics.SafetySummary{}, metrics.Lifetime{RULPercent: 19.9}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := recommend(tt.anomalies, tt.safety, metrics.VoltageSagAnalysis{}, tt.lifetime)
			gotAdvice := len(recs) != 1 || !strings.Contains(recs[0], "No corrective action")
			if gotAdvice != tt.triggered {
				t.Errorf("expected triggered=%v, got recommendations %v", tt.triggered, recs)
			}
		})
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	doc := Build("BALER-01", metrics.FleetKPIs{TotalCycles: 3, UtilizationRate: 42.5},
		metrics.AnomalySummary{Total: 1, BySeverity: map[string]int{metrics.SeverityMedium: 1}},
		metrics.SafetySummary{}, metrics.VoltageSagAnalysis{}, metrics.Lifetime{})

	var buf bytes.Buffer
	if err := doc.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("artifact is not valid JSON: %v", err)
	}
	for _, key := range []string{"reportId", "timestamp", "device", "summary",
		"anomalies", "safetyEvents", "voltageSagAnalysis", "lifetime", "recommendations"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("artifact missing top-level key %q", key)
		}
	}
	if decoded["device"] != "BALER-01" {
		t.Errorf("device field wrong in artifact: %v", decoded["device"])
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	doc := Build("all", metrics.FleetKPIs{}, metrics.AnomalySummary{},
		metrics.SafetySummary{}, metrics.VoltageSagAnalysis{}, metrics.Lifetime{})

	path, err := doc.Export(dir)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("report written outside target dir: %s", path)
	}
	if filepath.Base(path) != Filename(doc.Timestamp) {
		t.Errorf("unexpected artifact name %s", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("cannot read artifact back: %v", err)
	}
	var decoded Document
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("artifact does not decode: %v", err)
	}
	if decoded.ReportID != doc.ReportID {
		t.Errorf("report ID mismatch after round trip")
	}
}
