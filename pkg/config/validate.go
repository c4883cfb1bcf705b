package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validate checks field constraints and cross-field rules. Call after
// ApplyDefaults.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Cross-field rules the struct tags cannot express.
	switch c.Catalog.Source {
	case "file":
		if c.Catalog.Path == "" {
			return fmt.Errorf("invalid config: catalog.path is required for the file source")
		}
	case "git":
		if c.Catalog.Git.URL == "" || c.Catalog.Git.LocalPath == "" {
			return fmt.Errorf("invalid config: catalog.git.url and catalog.git.local_path are required for the git source")
		}
	}

	if c.Cache.Backend == "sqlite" && c.Cache.Path == "" {
		return fmt.Errorf("invalid config: cache.path is required for the sqlite backend")
	}
	if c.Ledger.Backend == "sqlite" && c.Ledger.Path == "" {
		return fmt.Errorf("invalid config: ledger.path is required for the sqlite backend")
	}

	return nil
}
