package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Strategy names accepted in request options.
const (
	StrategyStatic   = "static"
	StrategyWeighted = "weighted"
)

// Options are the per-request evaluation options.
type Options struct {
	// TestMode requests bypass admission control and never read or write the
	// result cache.
	TestMode bool `json:"test_mode"`

	// ScoringStrategy selects the confidence scoring strategy. Empty selects
	// the static strategy.
	ScoringStrategy string `json:"scoring_strategy" validate:"omitempty,oneof=static weighted"`

	// ABTestID tags the evaluation for experiment attribution. It is carried
	// into the cache key and the audit payload but does not change scoring.
	ABTestID string `json:"ab_test_id,omitempty"`
}

// Request is one evaluation request.
type Request struct {
	// ScenarioID identifies the scenario to evaluate.
	ScenarioID string `json:"scenario_id" validate:"required"`

	// TenantID identifies the calling tenant for admission control and audit.
	TenantID string `json:"tenant_id" validate:"required"`

	// Options are the evaluation options.
	Options Options `json:"options"`
}

// CacheKey returns the stable cache key for the request: a SHA-256 over the
// scenario ID and the normalized options. Test mode is excluded because test
// runs never touch the cache.
func (r Request) CacheKey() string {
	strategy := strings.ToLower(r.Options.ScoringStrategy)
	if strategy == "" {
		strategy = StrategyStatic
	}
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%s", r.ScenarioID, strategy, r.Options.ABTestID))
	return hex.EncodeToString(sum[:])
}

// BandViolation describes one criterion check that failed, carrying enough
// detail to build rationales and improvement hints.
type BandViolation struct {
	// CriterionID and CriterionName identify the criterion.
	CriterionID   string `json:"criterion_id"`
	CriterionName string `json:"criterion_name"`

	// QuestionID is the scenario answer the criterion read.
	QuestionID string `json:"question_id"`

	// Band names the violated band: "hard", "soft", or "ltv_ceiling".
	Band string `json:"band"`

	// Actual is the coerced answer value. Meaningless when MissingAnswer.
	Actual float64 `json:"actual"`

	// Min and Max are the violated band's bounds.
	Min float64 `json:"min"`
	Max float64 `json:"max"`

	// MissingAnswer marks a criterion with no answer on file, which is a
	// hard failure by definition.
	MissingAnswer bool `json:"missing_answer,omitempty"`

	// DealBreaker carries the criterion's deal-breaker flag for rationale
	// selection.
	DealBreaker bool `json:"deal_breaker,omitempty"`
}

// ScoringDetail explains how a match's confidence score was computed.
type ScoringDetail struct {
	// Strategy is the strategy that produced the score.
	Strategy string `json:"strategy"`

	// Model is the active scoring model name, if the catalog carries one.
	Model string `json:"model,omitempty"`

	// RawScore is the clamped strategy output before the pattern bonus.
	RawScore float64 `json:"raw_score"`

	// PatternBonus is the bonus added from historical match patterns, 0-10.
	PatternBonus float64 `json:"pattern_bonus"`

	// FinalScore is the re-clamped total, rounded to one decimal.
	FinalScore float64 `json:"final_score"`
}

// PatternDetail describes the historical pattern that contributed a bonus.
type PatternDetail struct {
	State       string  `json:"state,omitempty"`
	SuccessRate float64 `json:"success_rate"`
	Samples     int     `json:"samples"`
	Bonus       float64 `json:"bonus"`
}

// Match is one ranked program result.
type Match struct {
	LenderName     string  `json:"lender_name"`
	ProgramName    string  `json:"program_name"`
	ProgramID      string  `json:"program_id"`
	ProgramVersion int     `json:"program_version"`
	HardPassCount  int     `json:"hard_pass_count"`
	TotalCriteria  int     `json:"total_criteria"`
	Confidence     float64 `json:"confidence_score"`
	Tier           Tier    `json:"tier"`
	LenderRating   float64 `json:"lender_rating"`
	Rationale      string  `json:"rationale"`

	ScoringDetail ScoringDetail  `json:"scoring_detail"`
	PatternDetail *PatternDetail `json:"pattern_detail,omitempty"`

	// ImprovementHints are deterministic suggestions derived from the
	// failure lists.
	ImprovementHints []string `json:"improvement_hints,omitempty"`

	// HardFailures and SoftFailures carry the violated bands for
	// explainability.
	HardFailures []BandViolation `json:"hard_failures,omitempty"`
	SoftFailures []BandViolation `json:"soft_failures,omitempty"`
}

// Result is the ordered outcome of one evaluation.
type Result struct {
	ScenarioID     string    `json:"scenario_id"`
	TenantID       string    `json:"tenant_id"`
	CatalogVersion string    `json:"catalog_version"`
	EvaluatedAt    time.Time `json:"evaluated_at"`
	Matches        []Match   `json:"matches"`
}
