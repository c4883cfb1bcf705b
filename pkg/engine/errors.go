package engine

import (
	"errors"
	"fmt"
)

// Sentinel failures surfaced directly to callers.
var (
	// ErrRateLimitExceeded is returned when the tenant's admission tokens
	// are exhausted. The request is not queued or retried.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrScenarioNotFound is returned when the scenario has no answers on
	// file. Input errors fail fast with no remediation attempt.
	ErrScenarioNotFound = errors.New("scenario not found")
)

// Code classifies where in the pipeline a failure originated.
type Code string

const (
	CodeInvalidRequest Code = "invalid_request"
	CodeScenarioLoad   Code = "scenario_load"
	CodeCacheRead      Code = "cache_read"
	CodeCacheWrite     Code = "cache_write"
	CodeScoring        Code = "scoring"
	CodeLedgerAppend   Code = "ledger_append"
)

// Category is the error taxonomy bucket remediation actions are keyed by.
type Category string

const (
	// CategoryAdmission covers rate-limit rejections.
	CategoryAdmission Category = "admission"

	// CategoryInput covers missing or malformed scenario data. Fail fast,
	// no retry.
	CategoryInput Category = "input"

	// CategoryEvaluation covers unexpected failures during the pipeline.
	// Logged with full context, one remediation attempt, then re-raised.
	CategoryEvaluation Category = "evaluation"

	// CategoryIntegrity covers audit chain violations. Fatal: the ledger
	// halts further appends.
	CategoryIntegrity Category = "integrity"
)

// categories maps failure codes to taxonomy buckets.
var categories = map[Code]Category{
	CodeInvalidRequest: CategoryInput,
	CodeScenarioLoad:   CategoryInput,
	CodeCacheRead:      CategoryEvaluation,
	CodeCacheWrite:     CategoryEvaluation,
	CodeScoring:        CategoryEvaluation,
	CodeLedgerAppend:   CategoryEvaluation,
}

// Categorize returns the taxonomy bucket for a failure code.
func Categorize(code Code) Category {
	if c, ok := categories[code]; ok {
		return c
	}
	return CategoryEvaluation
}

// Failure captures everything needed to reproduce and remediate one caught
// failure: the originating component, the classification, the request
// identity, and a fresh correlation ID.
type Failure struct {
	CorrelationID string
	Component     string
	Code          Code
	ScenarioID    string
	TenantID      string
	CacheKey      string
	Err           error
}

// EvaluationFailed wraps the original cause of a failed evaluation after the
// remediation attempt. It satisfies errors.Is/As against the wrapped cause.
type EvaluationFailed struct {
	// CorrelationID links the error to the persisted error-log record.
	CorrelationID string

	// Component and Code identify the failing pipeline stage.
	Component string
	Code      Code

	// ScenarioID and TenantID reproduce the request identity.
	ScenarioID string
	TenantID   string

	// Err is the original cause. Remediation never suppresses it.
	Err error
}

func (e *EvaluationFailed) Error() string {
	return fmt.Sprintf("evaluation failed in %s (%s, correlation %s): %v",
		e.Component, e.Code, e.CorrelationID, e.Err)
}

func (e *EvaluationFailed) Unwrap() error { return e.Err }
