package logging

import "log/slog"

// WithEvaluation returns a logger scoped to one evaluation request. Tenant
// and scenario identity ride on every record the pipeline emits, so a single
// correlation query reconstructs a request's full trace.
func WithEvaluation(logger *slog.Logger, tenantID, scenarioID string) *slog.Logger {
	return logger.With("tenant_id", tenantID, "scenario_id", scenarioID)
}
