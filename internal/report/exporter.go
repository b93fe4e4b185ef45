// Package report assembles computed metrics into the downloadable
// JSON report artifact.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/balefleet/balewatch/internal/metrics"
)

// Document is the exported report. Field names are part of the
// artifact contract consumed by the download sink.
type Document struct {
	ReportID     string                     `json:"reportId"`
	Timestamp    time.Time                  `json:"timestamp"`
	Device       string                     `json:"device"`
	Summary      metrics.FleetKPIs          `json:"summary"`
	Anomalies    AnomalyBlock               `json:"anomalies"`
	SafetyEvents metrics.SafetySummary      `json:"safetyEvents"`
	VoltageSag   metrics.VoltageSagAnalysis `json:"voltageSagAnalysis"`
	Lifetime     metrics.Lifetime           `json:"lifetime"`

	Recommendations []string `json:"recommendations"`
}

// AnomalyBlock is the report's view of the anomaly summary.
type AnomalyBlock struct {
	Total    int                    `json:"total"`
	Severity map[string]int         `json:"severity"`
	Recent   []metrics.CycleAnomaly `json:"recent"`
}

// Build assembles a report document. Assembly is pure: each
// recommendation rule is evaluated independently and its advice
// accumulated; rule order never changes which recommendations appear.
func Build(device string, kpis metrics.FleetKPIs, anomalies metrics.AnomalySummary,
	safety metrics.SafetySummary, sag metrics.VoltageSagAnalysis, lifetime metrics.Lifetime) *Document {

	doc := &Document{
		ReportID:  uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Device:    device,
		Summary:   kpis,
		Anomalies: AnomalyBlock{
			Total:    anomalies.Total,
			Severity: anomalies.BySeverity,
			Recent:   anomalies.Recent,
		},
		SafetyEvents: safety,
		VoltageSag:   sag,
		Lifetime:     lifetime,
	}
	if doc.Anomalies.Severity == nil {
		doc.Anomalies.Severity = map[string]int{}
	}

	doc.Recommendations = recommend(anomalies, safety, sag, lifetime)
	return doc
}

// recommend applies the fixed advisory rule set.
func recommend(anomalies metrics.AnomalySummary, safety metrics.SafetySummary,
	sag metrics.VoltageSagAnalysis, lifetime metrics.Lifetime) []string {

	var recs []string

	if anomalies.Total > 5 {
		recs = append(recs, fmt.Sprintf(
			"Anomaly count is %d; schedule an inspection of the drive and hydraulic assemblies.",
			anomalies.Total))
	}
	if anomalies.BySeverity[metrics.SeverityCritical] > 0 {
		recs = append(recs,
			"Critical-severity anomalies present; take the affected machine out of rotation until inspected.")
	}
	if safety.EStopCount > 0 {
		recs = append(recs, fmt.Sprintf(
			"%d emergency-stop events recorded; review operator incident logs.", safety.EStopCount))
	}
	if safety.OverloadCount > 3 {
		recs = append(recs,
			"Repeated overload trips; verify bale density settings and motor load limits.")
	}
	if safety.ValveIssueCount > 0 {
		recs = append(recs,
			"Valve issues flagged; check hydraulic valve response and fluid condition.")
	}
	if sag.ExceedCount > 0 {
		recs = append(recs, fmt.Sprintf(
			"Voltage sag exceeded the alert threshold on %d cycles (worst %.1f%%); audit the supply circuit.",
			sag.ExceedCount, sag.WorstPct))
	}
	if lifetime.RULPercent > 0 && lifetime.RULPercent < 20 {
		recs = append(recs, fmt.Sprintf(
			"Remaining useful life is %.1f%%; plan replacement procurement.", lifetime.RULPercent))
	}

	if len(recs) == 0 {
		recs = append(recs, "No corrective action indicated by the current data window.")
	}
	return recs
}

// Filename returns the artifact name convention for the given date.
func Filename(t time.Time) string {
	return fmt.Sprintf("telemetry-report-%s.json", t.UTC().Format("2006-01-02"))
}

// WriteJSON serializes the document, indented for human readers.
func (d *Document) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// Export writes the document into dir under the standard filename and
// returns the full path.
func (d *Document) Export(dir string) (string, error) {
	path := filepath.Join(dir, Filename(d.Timestamp))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	if err := d.WriteJSON(f); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}
