// Package metrics exposes the evaluation core's Prometheus instruments.
//
// All instruments live under the matchbook_core namespace. The Collector is
// nil-safe: a nil *Collector records nothing, so components can run without
// telemetry in tests.
package metrics
