// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import "time"

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// SourceURL is the base URL of the default activity source.
	SourceURL string `koanf:"source_url"`

	// AllStaffSourceURL is the base URL of the all-staff activity source.
	// Empty falls back to SourceURL.
	AllStaffSourceURL string `koanf:"all_staff_source_url"`

	// SourceToken authenticates reads from both sources.
	SourceToken string `koanf:"source_token"`

	// TursoURL is the remote store database URL (libsql:// or https://).
	TursoURL string `koanf:"turso_url"`

	// TursoToken is the remote store bearer token.
	TursoToken string `koanf:"turso_token"`

	// WebhookURL receives failure notifications. Empty disables them.
	WebhookURL string `koanf:"webhook_url"`

	// StateDB is the path of the local SQLite state database.
	StateDB string `koanf:"state_db"`

	// Sheet names of the synced and reported-on tabs.
	PerformanceSheet string `koanf:"performance_sheet"`
	SalesSheet       string `koanf:"sales_sheet"`
	ExternalIDSheet  string `koanf:"external_id_sheet"`
	MonthlySheet     string `koanf:"monthly_sheet"`

	// SyncIntervalSeconds spaces scheduled sync cycles per target.
	SyncIntervalSeconds int `koanf:"sync_interval_seconds"`

	// SyncBatchSize caps statements per pipeline request.
	SyncBatchSize int `koanf:"sync_batch_size"`

	// SyncDays is the trailing window rescanned by window-mode targets.
	SyncDays int `koanf:"sync_days"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		StateDB:             "kpisync.db",
		PerformanceSheet:    "実績rawdata",
		SalesSheet:          "売上報告rawdata",
		ExternalIDSheet:     "外ID_rawdata",
		MonthlySheet:        "月次ビュー",
		SyncIntervalSeconds: 300,
		SyncBatchSize:       50,
		SyncDays:            7,
	}
}

// SyncInterval returns the per-target cycle spacing as a duration.
func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.SyncIntervalSeconds) * time.Second
}
