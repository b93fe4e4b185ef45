package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `thresholds:
  cycle_duration_ms: 50000
  voltage_sag_pct: 12
devices:
  - device_id: BALER-01
    location: north-hall
  - device_id: BALER-02
    location: yard
  - device_id: BALER-03
report:
  output_dir: /var/reports
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "balewatch.yaml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("cannot write config fixture: %v", err)
	}
	return path
}

func TestYAMLProviderLoadConfig(t *testing.T) {
	p := NewYAMLProvider(writeConfig(t, sampleYAML))
	defer p.Close()

	cfg, err := p.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	// Explicit values survive, the rest fall back to stock defaults.
	if cfg.Thresholds.CycleDurationMs != 50000 {
		t.Errorf("expected overridden cycle duration, got %f", cfg.Thresholds.CycleDurationMs)
	}
	if cfg.Thresholds.VoltageSagPct != 12 {
		t.Errorf("expected overridden sag threshold, got %f", cfg.Thresholds.VoltageSagPct)
	}
	if cfg.Thresholds.InrushMultiple != DefaultInrushMultiple {
		t.Errorf("unset limit should default, got %f", cfg.Thresholds.InrushMultiple)
	}
	if cfg.Thresholds.LifetimeCycleLimit != DefaultLifetimeCycleLimit {
		t.Errorf("unset limit should default, got %f", cfg.Thresholds.LifetimeCycleLimit)
	}

	if len(cfg.Devices) != 3 || cfg.Devices[0].DeviceID != "BALER-01" {
		t.Errorf("device list wrong: %+v", cfg.Devices)
	}
	if cfg.Report.OutputDir != "/var/reports" {
		t.Errorf("report section wrong: %+v", cfg.Report)
	}
	if !p.IsReadOnly() {
		t.Error("YAML providers are read-only")
	}
}

func TestYAMLProviderSections(t *testing.T) {
	p := NewYAMLProvider(writeConfig(t, sampleYAML))
	defer p.Close()

	thresholds, err := p.GetThresholds()
	if err != nil {
		t.Fatalf("GetThresholds failed: %v", err)
	}
	if thresholds.VoltageSagPct != 12 {
		t.Errorf("section read missed the override: %+v", thresholds)
	}

	devices, err := p.GetDevices()
	if err != nil {
		t.Fatalf("GetDevices failed: %v", err)
	}
	if len(devices) != 3 {
		t.Errorf("expected 3 devices, got %d", len(devices))
	}
}

func TestYAMLProviderMissingFile(t *testing.T) {
	p := NewYAMLProvider(filepath.Join(t.TempDir(), "nope.yaml"))
	if _, err := p.LoadConfig(); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestLocationMap(t *testing.T) {
	cfg := &ConfigData{Devices: []DeviceData{
		{DeviceID: "BALER-01", Location: "north-hall"},
		{DeviceID: "BALER-03"}, // no location, excluded from the map
	}}

	m := cfg.LocationMap()
	if len(m) != 1 || m["BALER-01"] != "north-hall" {
		t.Errorf("location map wrong: %v", m)
	}

	if (&ConfigData{}).LocationMap() != nil {
		t.Error("empty device list should yield a nil map")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Thresholds.CycleDurationMs != DefaultCycleDurationMs ||
		cfg.Thresholds.MTBFHours != DefaultMTBFHours {
		t.Errorf("Default should carry all stock limits, got %+v", cfg.Thresholds)
	}
	if len(cfg.Devices) != 0 {
		t.Errorf("Default should have no devices, got %+v", cfg.Devices)
	}
}
