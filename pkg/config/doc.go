// Package config defines the matchbook.yaml configuration tree: loading,
// defaults, and validation are split across files matching their concern.
package config
