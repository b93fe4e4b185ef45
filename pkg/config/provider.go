// Package config loads analyzer configuration: alert thresholds,
// device location overrides and report output settings, from either a
// YAML file or a SQLite database.
package config

// Provider defines the interface for configuration data sources
type Provider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetThresholds() (*ThresholdsData, error)
	GetDevices() ([]DeviceData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Thresholds ThresholdsData `json:"thresholds"`
	Devices    []DeviceData   `json:"devices,omitempty"`
	Report     ReportData     `json:"report,omitempty"`
}

// ThresholdsData holds the user-adjustable alert limits. Zero values
// mean "use the stock default" and are filled in by ApplyDefaults.
type ThresholdsData struct {
	CycleDurationMs     float64 `json:"cycle_duration_ms,omitempty"`
	InrushMultiple      float64 `json:"inrush_multiple,omitempty"`
	VoltageSagPct       float64 `json:"voltage_sag_pct,omitempty"`
	CurrentUnbalancePct float64 `json:"current_unbalance_pct,omitempty"`
	RipplePct           float64 `json:"ripple_pct,omitempty"`
	LifetimeCycleLimit  float64 `json:"lifetime_cycle_limit,omitempty"`
	MTBFHours           float64 `json:"mtbf_hours,omitempty"`
}

// DeviceData holds per-device configuration the CSV exports do not
// carry themselves.
type DeviceData struct {
	DeviceID string `json:"device_id"`
	Location string `json:"location,omitempty"`
}

// ReportData holds report exporter settings.
type ReportData struct {
	OutputDir string `json:"output_dir,omitempty"`
}

// Stock threshold defaults.
const (
	DefaultCycleDurationMs     = 45000.0
	DefaultInrushMultiple      = 6.0
	DefaultVoltageSagPct       = 10.0
	DefaultCurrentUnbalancePct = 5.0
	DefaultRipplePct           = 8.0
	DefaultLifetimeCycleLimit  = 100000.0
	DefaultMTBFHours           = 100.0
)

// ApplyDefaults fills unset threshold limits with the stock values.
func (t *ThresholdsData) ApplyDefaults() {
	if t.CycleDurationMs == 0 {
		t.CycleDurationMs = DefaultCycleDurationMs
	}
	if t.InrushMultiple == 0 {
		t.InrushMultiple = DefaultInrushMultiple
	}
	if t.VoltageSagPct == 0 {
		t.VoltageSagPct = DefaultVoltageSagPct
	}
	if t.CurrentUnbalancePct == 0 {
		t.CurrentUnbalancePct = DefaultCurrentUnbalancePct
	}
	if t.RipplePct == 0 {
		t.RipplePct = DefaultRipplePct
	}
	if t.LifetimeCycleLimit == 0 {
		t.LifetimeCycleLimit = DefaultLifetimeCycleLimit
	}
	if t.MTBFHours == 0 {
		t.MTBFHours = DefaultMTBFHours
	}
}

// LocationMap converts the device list into a deviceID→location
// lookup for the normalizer and filter engine.
func (c *ConfigData) LocationMap() map[string]string {
	if len(c.Devices) == 0 {
		return nil
	}
	m := make(map[string]string, len(c.Devices))
	for _, d := range c.Devices {
		if d.Location != "" {
			m[d.DeviceID] = d.Location
		}
	}
	return m
}

// Default returns a ConfigData carrying only the stock defaults, used
// when no config source is given.
func Default() *ConfigData {
	c := &ConfigData{}
	c.Thresholds.ApplyDefaults()
	return c
}
