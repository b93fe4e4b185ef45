package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements Provider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// yamlConfig mirrors ConfigData with YAML tags.
type yamlConfig struct {
	Thresholds struct {
		CycleDurationMs     float64 `yaml:"cycle_duration_ms"`
		InrushMultiple      float64 `yaml:"inrush_multiple"`
		VoltageSagPct       float64 `yaml:"voltage_sag_pct"`
		CurrentUnbalancePct float64 `yaml:"current_unbalance_pct"`
		RipplePct           float64 `yaml:"ripple_pct"`
		LifetimeCycleLimit  float64 `yaml:"lifetime_cycle_limit"`
		MTBFHours           float64 `yaml:"mtbf_hours"`
	} `yaml:"thresholds"`
	Devices []struct {
		DeviceID string `yaml:"device_id"`
		Location string `yaml:"location"`
	} `yaml:"devices"`
	Report struct {
		OutputDir string `yaml:"output_dir"`
	} `yaml:"report"`
}

// LoadConfig loads the complete configuration from the YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	var raw yamlConfig
	if err := yaml.Unmarshal(cfgFile, &raw); err != nil {
		return nil, err
	}

	config := &ConfigData{
		Thresholds: ThresholdsData{
			CycleDurationMs:     raw.Thresholds.CycleDurationMs,
			InrushMultiple:      raw.Thresholds.InrushMultiple,
			VoltageSagPct:       raw.Thresholds.VoltageSagPct,
			CurrentUnbalancePct: raw.Thresholds.CurrentUnbalancePct,
			RipplePct:           raw.Thresholds.RipplePct,
			LifetimeCycleLimit:  raw.Thresholds.LifetimeCycleLimit,
			MTBFHours:           raw.Thresholds.MTBFHours,
		},
		Report: ReportData{OutputDir: raw.Report.OutputDir},
	}
	for _, d := range raw.Devices {
		config.Devices = append(config.Devices, DeviceData{
			DeviceID: d.DeviceID,
			Location: d.Location,
		})
	}
	config.Thresholds.ApplyDefaults()

	y.config = config
	return config, nil
}

// GetThresholds returns the alert thresholds section
func (y *YAMLProvider) GetThresholds() (*ThresholdsData, error) {
	if y.config == nil {
		if _, err := y.LoadConfig(); err != nil {
			return nil, err
		}
	}
	t := y.config.Thresholds
	return &t, nil
}

// GetDevices returns the device configuration section
func (y *YAMLProvider) GetDevices() ([]DeviceData, error) {
	if y.config == nil {
		if _, err := y.LoadConfig(); err != nil {
			return nil, err
		}
	}
	return y.config.Devices, nil
}

// IsReadOnly returns true; YAML files are not edited in place
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML providers
func (y *YAMLProvider) Close() error {
	return nil
}
