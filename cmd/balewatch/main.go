package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/balefleet/balewatch/internal/filterset"
	"github.com/balefleet/balewatch/internal/ingest"
	"github.com/balefleet/balewatch/internal/log"
	"github.com/balefleet/balewatch/internal/metrics"
	"github.com/balefleet/balewatch/internal/report"
	"github.com/balefleet/balewatch/internal/session"
	"github.com/balefleet/balewatch/internal/types"
	"github.com/balefleet/balewatch/pkg/config"
)

const version = "1.2-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	csvFile := flag.String("csv", "", "Path to the telemetry CSV export (wide or long shape)")
	shape := flag.String("shape", "auto", "CSV shape: 'wide', 'long', or 'auto' to detect from the header")
	cfgFile := flag.String("config", "", "Path to configuration source (YAML file or SQLite database); omit for stock defaults")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' or 'sqlite'")
	device := flag.String("device", types.FilterAll, "Device filter: a device ID or 'all'")
	location := flag.String("location", types.FilterAll, "Location filter: a location name or 'all'")
	timeRange := flag.String("range", "all", "Time window: '24h', '7d', '30d' or 'all'")
	reportDir := flag.String("report", "", "Directory to write the JSON report into; omit to skip the report")
	topN := flag.Int("top", metrics.DefaultRankingSize, "Number of devices in each ranking view")
	progress := flag.Bool("progress", false, "Print parse progress for large files")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("balewatch %s\n", version)
		os.Exit(0)
	}

	// Set up logging
	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if *csvFile == "" {
		log.Error("no input given; pass -csv. Run with -h for help")
		os.Exit(1)
	}

	// Load configuration
	cfgData, err := loadConfig(*cfgFile, *cfgBackend)
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	thresholds := toThresholds(cfgData.Thresholds)

	dataset, err := ingestFile(*csvFile, parseShape(*shape), cfgData.LocationMap(), *progress)
	if err != nil {
		log.Errorf("Ingestion failed: %v", err)
		os.Exit(1)
	}

	criteria := types.FilterCriteria{
		Device:   *device,
		Location: *location,
		Range:    types.TimeRange(*timeRange),
	}
	working := filterset.New(cfgData.LocationMap()).Apply(dataset, criteria)

	printSummary(working, thresholds, *topN)

	if *reportDir != "" {
		doc := report.Build(*device,
			metrics.Fleet(working),
			metrics.Anomalies(working, thresholds),
			metrics.Safety(working),
			metrics.VoltageSag(working, thresholds),
			metrics.ComputeLifetime(working, thresholds),
		)
		path, err := doc.Export(*reportDir)
		if err != nil {
			log.Errorf("Report export failed: %v", err)
			os.Exit(1)
		}
		log.Infof("report written to %s", path)
	}
}

func loadConfig(cfgFile, cfgBackend string) (*config.ConfigData, error) {
	if cfgFile == "" {
		return config.Default(), nil
	}
	filename, _ := filepath.Abs(cfgFile)

	var provider config.Provider
	var err error

	switch cfgBackend {
	case "yaml":
		provider = config.NewYAMLProvider(filename)
	case "sqlite":
		provider, err = config.NewSQLiteProvider(filename)
		if err != nil {
			return nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'sqlite'", cfgBackend)
	}
	defer provider.Close()

	cfgData, err := provider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error reading config. Did you pass the right -config flag? Run with -h for help: %w", err)
	}
	return cfgData, nil
}

func parseShape(s string) types.Shape {
	switch s {
	case "wide":
		return types.ShapeWide
	case "long":
		return types.ShapeLong
	}
	return "" // autodetect
}

func toThresholds(t config.ThresholdsData) types.AlertThresholds {
	return types.AlertThresholds{
		CycleDurationMs:     t.CycleDurationMs,
		InrushMultiple:      t.InrushMultiple,
		VoltageSagPct:       t.VoltageSagPct,
		CurrentUnbalancePct: t.CurrentUnbalancePct,
		RipplePct:           t.RipplePct,
		LifetimeCycleLimit:  t.LifetimeCycleLimit,
		MTBFHours:           t.MTBFHours,
	}
}

func ingestFile(path string, shape types.Shape, locations map[string]string, showProgress bool) (*types.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ingest.FileReadError{Path: path, Err: err}
	}
	defer f.Close()

	var totalBytes int64
	if info, err := f.Stat(); err == nil {
		totalBytes = info.Size()
	}

	mgr := session.NewManager()
	return mgr.Upload(context.Background(), f, session.UploadOptions{
		Shape:      shape,
		Locations:  locations,
		TotalBytes: totalBytes,
		OnProgress: func(p ingest.Progress) {
			if showProgress && p.Percent >= 0 {
				fmt.Fprintf(os.Stderr, "\rparsing... %3.0f%% (%d rows)", p.Percent, p.RowsRead)
			}
		},
	})
}

func printSummary(d *types.Dataset, thresholds types.AlertThresholds, topN int) {
	kpis := metrics.Fleet(d)
	fmt.Printf("\nFleet summary\n")
	fmt.Printf("  devices: %d   cycles: %d   runtime: %.1f h   energy: %.1f kWh\n",
		kpis.UniqueDevices, kpis.TotalCycles, kpis.TotalRuntimeHours, kpis.TotalEnergyKWh)
	fmt.Printf("  utilization: %.1f%%   errors: %d (%.1f%%)\n",
		kpis.UtilizationRate, kpis.ErrorCount, kpis.ErrorRate)

	rel := metrics.ComputeReliability(d)
	mttrNote := ""
	if rel.MTTREstimated {
		mttrNote = " (estimated)"
	}
	fmt.Printf("  MTBF: %.1f h   MTTR: %.1f min%s\n", rel.MTBFHours, rel.MTTRMinutes, mttrNote)

	drift := metrics.Drift(d)
	fmt.Printf("  cycle-time baseline: %.0f ms, %d of %d cycles drifting\n",
		drift.BaselineMs, drift.DriftingCount, len(drift.Entries))

	anomalies := metrics.Anomalies(d, thresholds)
	fmt.Printf("  anomalies: %d", anomalies.Total)
	if anomalies.Total > 0 {
		var parts []string
		for _, sev := range []string{metrics.SeverityCritical, metrics.SeverityHigh, metrics.SeverityMedium} {
			if n := anomalies.BySeverity[sev]; n > 0 {
				parts = append(parts, fmt.Sprintf("%d %s", n, sev))
			}
		}
		fmt.Printf(" (%s)", strings.Join(parts, ", "))
	}
	fmt.Println()

	safety := metrics.Safety(d)
	fmt.Printf("  safety incidents: %d (e-stop %d, overload %d, valve %d)\n",
		safety.TotalIncidents, safety.EStopCount, safety.OverloadCount, safety.ValveIssueCount)

	rankings := metrics.Rank(d, topN)
	if len(rankings.TopPerformers) > 0 {
		fmt.Printf("\nTop performers\n")
		for _, s := range rankings.TopPerformers {
			fmt.Printf("  %-16s %8.1f h  %5d cycles  %s\n", s.DeviceID, s.RuntimeHours, s.Cycles, s.Status)
		}
		fmt.Printf("Attention needed\n")
		for _, s := range rankings.AttentionNeeded {
			fmt.Printf("  %-16s %8.1f h  %5d cycles  %s\n", s.DeviceID, s.RuntimeHours, s.Cycles, s.Status)
		}
	}

	if d.Shape == types.ShapeLong {
		if signals := metrics.SignalSummary(d); len(signals) > 0 {
			fmt.Printf("\nSignals\n")
			for _, s := range signals {
				fmt.Printf("  %-16s %-14s %6d samples  min %.2f  max %.2f  mean %.2f\n",
					s.DeviceID, s.Measure, s.Samples, s.Min, s.Max, s.Mean)
			}
		}
	}
}
