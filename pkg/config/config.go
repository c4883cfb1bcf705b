package config

import "time"

// Config is the root configuration for the matchbook evaluation service.
type Config struct {
	// Server configures the HTTP surface.
	Server ServerConfig `yaml:"server"`

	// Catalog configures where the program catalog loads from.
	Catalog CatalogConfig `yaml:"catalog"`

	// Admission configures per-tenant admission control.
	Admission AdmissionConfig `yaml:"admission"`

	// Cache configures the result cache.
	Cache CacheConfig `yaml:"cache"`

	// Ledger configures the audit ledger.
	Ledger LedgerConfig `yaml:"ledger"`

	// Telemetry configures logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// ListenAddress is "host:port". Default: "127.0.0.1:8480".
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout bounds reading a full request. Default: 10s.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds writing a full response. Default: 10s.
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// CatalogConfig configures the catalog source.
type CatalogConfig struct {
	// Source is "file" or "git". Default: "file".
	Source string `yaml:"source" validate:"omitempty,oneof=file git"`

	// Path is the catalog yaml file or directory for the file source.
	Path string `yaml:"path"`

	// Watch enables fsnotify hot reload for the file source.
	Watch bool `yaml:"watch"`

	// Git configures the git source.
	Git GitCatalogConfig `yaml:"git"`
}

// GitCatalogConfig configures the git catalog source.
type GitCatalogConfig struct {
	// URL is the catalog repository URL.
	URL string `yaml:"url"`

	// Branch is the tracked branch. Default: "main".
	Branch string `yaml:"branch"`

	// LocalPath is the clone location.
	LocalPath string `yaml:"local_path"`

	// CatalogPath is the catalog path inside the repository.
	CatalogPath string `yaml:"catalog_path"`
}

// AdmissionConfig configures per-tenant admission control.
type AdmissionConfig struct {
	// Enabled turns admission control on. Default: true.
	Enabled *bool `yaml:"enabled"`

	// Capacity is the per-tenant token budget per window. Default: 60.
	Capacity int64 `yaml:"capacity" validate:"gte=0"`

	// ReplenishSchedule is the cron schedule refilling budgets.
	// Default: "@every 1m".
	ReplenishSchedule string `yaml:"replenish_schedule"`
}

// CacheConfig configures the result cache.
type CacheConfig struct {
	// Enabled turns the cache on. Default: true.
	Enabled *bool `yaml:"enabled"`

	// Backend is "memory" or "sqlite". Default: "memory".
	Backend string `yaml:"backend" validate:"omitempty,oneof=memory sqlite"`

	// Path is the sqlite database path for the sqlite backend.
	Path string `yaml:"path"`

	// TTL is the freshness window. Default: 60s.
	TTL time.Duration `yaml:"ttl" validate:"gte=0"`

	// SweepSchedule is the cron schedule purging expired entries.
	// Default: "@every 5m". Empty disables sweeping.
	SweepSchedule string `yaml:"sweep_schedule"`
}

// LedgerConfig configures the audit ledger.
type LedgerConfig struct {
	// Enabled turns auditing on. Default: true.
	Enabled *bool `yaml:"enabled"`

	// Backend is "memory" or "sqlite". Default: "memory".
	Backend string `yaml:"backend" validate:"omitempty,oneof=memory sqlite"`

	// Path is the sqlite database path for the sqlite backend.
	Path string `yaml:"path"`
}

// TelemetryConfig configures observability.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is "debug", "info", "warn", or "error". Default: "info".
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`

	// Format is "json", "text", or "console". Default: "json".
	Format string `yaml:"format" validate:"omitempty,oneof=json text console"`

	// AddSource includes file:line in records.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig configures Prometheus exposure.
type MetricsConfig struct {
	// Enabled serves /metrics. Default: true.
	Enabled *bool `yaml:"enabled"`
}
