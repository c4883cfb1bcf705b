package config

import "time"

func boolPtr(v bool) *bool { return &v }

// ApplyDefaults fills unset fields with their documented defaults.
func (c *Config) ApplyDefaults() {
	if c.Server.ListenAddress == "" {
		c.Server.ListenAddress = "127.0.0.1:8480"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}

	if c.Catalog.Source == "" {
		c.Catalog.Source = "file"
	}
	if c.Catalog.Git.Branch == "" {
		c.Catalog.Git.Branch = "main"
	}

	if c.Admission.Enabled == nil {
		c.Admission.Enabled = boolPtr(true)
	}
	if c.Admission.Capacity == 0 {
		c.Admission.Capacity = 60
	}
	if c.Admission.ReplenishSchedule == "" {
		c.Admission.ReplenishSchedule = "@every 1m"
	}

	if c.Cache.Enabled == nil {
		c.Cache.Enabled = boolPtr(true)
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 60 * time.Second
	}
	if c.Cache.SweepSchedule == "" {
		c.Cache.SweepSchedule = "@every 5m"
	}

	if c.Ledger.Enabled == nil {
		c.Ledger.Enabled = boolPtr(true)
	}
	if c.Ledger.Backend == "" {
		c.Ledger.Backend = "memory"
	}

	if c.Telemetry.Logging.Level == "" {
		c.Telemetry.Logging.Level = "info"
	}
	if c.Telemetry.Logging.Format == "" {
		c.Telemetry.Logging.Format = "json"
	}
	if c.Telemetry.Metrics.Enabled == nil {
		c.Telemetry.Metrics.Enabled = boolPtr(true)
	}
}
