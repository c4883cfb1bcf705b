package engine

import (
	"context"
	"log/slog"
	"time"
)

// ErrorLog persists structured error records. The core writes records; the
// observability sink that owns alerting consumes them elsewhere.
type ErrorLog interface {
	Record(ctx context.Context, f Failure)
}

// SlogErrorLog writes error records to a structured logger.
type SlogErrorLog struct {
	Logger *slog.Logger
}

// Record implements ErrorLog.
func (l SlogErrorLog) Record(ctx context.Context, f Failure) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.ErrorContext(ctx, "evaluation failure",
		"correlation_id", f.CorrelationID,
		"component", f.Component,
		"code", string(f.Code),
		"category", string(Categorize(f.Code)),
		"scenario_id", f.ScenarioID,
		"tenant_id", f.TenantID,
		"error", f.Err,
	)
}

// Action is a remediation action invoked once for a matching failure.
// Remediation is best-effort and observable: its outcome is logged but the
// original failure still propagates to the caller.
type Action interface {
	// Name identifies the action in logs.
	Name() string

	// Remediate attempts the action once.
	Remediate(ctx context.Context, f Failure) error
}

// NoopAction does nothing. It is the default for categories with no safe
// automatic remedy.
type NoopAction struct{}

func (NoopAction) Name() string { return "no-op" }

func (NoopAction) Remediate(context.Context, Failure) error { return nil }

// FlushCacheKeyAction deletes the failing request's cache entry so the next
// attempt recomputes instead of replaying a poisoned result.
type FlushCacheKeyAction struct {
	Cache ResultCache
}

func (FlushCacheKeyAction) Name() string { return "flush-cache-key" }

func (a FlushCacheKeyAction) Remediate(ctx context.Context, f Failure) error {
	if a.Cache == nil || f.CacheKey == "" {
		return nil
	}
	return a.Cache.Delete(ctx, f.CacheKey)
}

// BackoffAction sleeps a fixed backoff before the caller re-raises, giving a
// transient collaborator a beat to recover before the caller's own retry.
type BackoffAction struct {
	Delay time.Duration
}

func (BackoffAction) Name() string { return "retry-with-backoff" }

func (a BackoffAction) Remediate(ctx context.Context, _ Failure) error {
	delay := a.Delay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Remediator wraps the pipeline's failure handling: persist the failure to
// the error log, invoke the configured remediation action once, and hand the
// failure back for propagation.
type Remediator struct {
	actions map[Category]Action
	errlog  ErrorLog
	logger  *slog.Logger
}

// NewRemediator creates a remediator with the default action table:
// evaluation failures flush the cache key, everything else is a no-op.
func NewRemediator(cache ResultCache, errlog ErrorLog, logger *slog.Logger) *Remediator {
	if logger == nil {
		logger = slog.Default()
	}
	if errlog == nil {
		errlog = SlogErrorLog{Logger: logger}
	}
	return &Remediator{
		actions: map[Category]Action{
			CategoryAdmission:  NoopAction{},
			CategoryInput:      NoopAction{},
			CategoryEvaluation: FlushCacheKeyAction{Cache: cache},
			CategoryIntegrity:  NoopAction{},
		},
		errlog: errlog,
		logger: logger,
	}
}

// SetAction overrides the remediation action for a category.
func (r *Remediator) SetAction(cat Category, a Action) {
	r.actions[cat] = a
}

// Handle records the failure and runs its remediation action once. The
// returned error is always the wrapped original failure; remediation outcome
// only shows up in logs.
func (r *Remediator) Handle(ctx context.Context, f Failure) *EvaluationFailed {
	r.errlog.Record(ctx, f)

	cat := Categorize(f.Code)
	if action, ok := r.actions[cat]; ok {
		if err := action.Remediate(ctx, f); err != nil {
			r.logger.WarnContext(ctx, "remediation failed",
				"action", action.Name(),
				"category", string(cat),
				"correlation_id", f.CorrelationID,
				"error", err,
			)
		} else {
			r.logger.InfoContext(ctx, "remediation attempted",
				"action", action.Name(),
				"category", string(cat),
				"correlation_id", f.CorrelationID,
			)
		}
	}

	return &EvaluationFailed{
		CorrelationID: f.CorrelationID,
		Component:     f.Component,
		Code:          f.Code,
		ScenarioID:    f.ScenarioID,
		TenantID:      f.TenantID,
		Err:           f.Err,
	}
}
