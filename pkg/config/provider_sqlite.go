package config

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteProvider implements Provider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from the SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	thresholds, err := s.GetThresholds()
	if err != nil {
		return nil, fmt.Errorf("failed to load thresholds: %w", err)
	}
	config.Thresholds = *thresholds

	devices, err := s.GetDevices()
	if err != nil {
		return nil, fmt.Errorf("failed to load devices: %w", err)
	}
	config.Devices = devices

	var outputDir sql.NullString
	err = s.db.QueryRow(
		`SELECT value FROM settings WHERE name = 'report_output_dir'`,
	).Scan(&outputDir)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to load report settings: %w", err)
	}
	if outputDir.Valid {
		config.Report.OutputDir = outputDir.String
	}

	return config, nil
}

// GetThresholds returns the alert thresholds stored in the database,
// with stock defaults filling any limit not present.
func (s *SQLiteProvider) GetThresholds() (*ThresholdsData, error) {
	rows, err := s.db.Query(`SELECT name, value FROM thresholds`)
	if err != nil {
		return nil, fmt.Errorf("failed to query thresholds: %w", err)
	}
	defer rows.Close()

	t := &ThresholdsData{}
	for rows.Next() {
		var name string
		var value float64
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan threshold row: %w", err)
		}
		switch name {
		case "cycle_duration_ms":
			t.CycleDurationMs = value
		case "inrush_multiple":
			t.InrushMultiple = value
		case "voltage_sag_pct":
			t.VoltageSagPct = value
		case "current_unbalance_pct":
			t.CurrentUnbalancePct = value
		case "ripple_pct":
			t.RipplePct = value
		case "lifetime_cycle_limit":
			t.LifetimeCycleLimit = value
		case "mtbf_hours":
			t.MTBFHours = value
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	t.ApplyDefaults()
	return t, nil
}

// GetDevices returns device configurations from the database
func (s *SQLiteProvider) GetDevices() ([]DeviceData, error) {
	rows, err := s.db.Query(`SELECT device_id, location FROM devices ORDER BY device_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	var devices []DeviceData
	for rows.Next() {
		var device DeviceData
		var location sql.NullString
		if err := rows.Scan(&device.DeviceID, &location); err != nil {
			return nil, fmt.Errorf("failed to scan device row: %w", err)
		}
		if location.Valid {
			device.Location = location.String
		}
		devices = append(devices, device)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return devices, nil
}

// IsReadOnly returns false; SQLite configuration can be updated
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// SetThreshold updates (or inserts) one named threshold limit.
func (s *SQLiteProvider) SetThreshold(name string, value float64) error {
	_, err := s.db.Exec(
		`INSERT INTO thresholds (name, value) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
		name, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set threshold %s: %w", name, err)
	}
	return nil
}

// InitSchema creates the configuration tables when they do not exist
// yet, so a fresh database file is usable immediately.
func (s *SQLiteProvider) InitSchema() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS thresholds (
			name  TEXT PRIMARY KEY,
			value REAL NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS devices (
			device_id TEXT PRIMARY KEY,
			location  TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			name  TEXT PRIMARY KEY,
			value TEXT
		)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize config schema: %w", err)
		}
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
