package engine

import (
	"math"

	"matchbook-hq/matchbook/pkg/catalog"
)

// ScoreInput is what a scoring strategy sees for one program.
type ScoreInput struct {
	// Total is the number of criteria evaluated; HardPass of them passed
	// their hard band, and SoftFailures failed their soft band.
	Total        int
	HardPass     int
	SoftFailures int

	// LenderRating is the owning lender's reputation rating, 0-100.
	LenderRating float64

	// Model is the active scoring model for the strategy, or nil. Strategies
	// read their coefficients through Model.Weight with built-in defaults.
	Model *catalog.ScoringModel
}

// Strategy computes a confidence score for one program. Implementations must
// be pure: the same input always yields the same score. The returned value is
// clamped to [0, 100] by the caller as well, so strategies may return raw
// formula output.
type Strategy interface {
	// Name is the strategy name requests select it by.
	Name() string

	// Score computes the confidence score, nominally 0-100.
	Score(in ScoreInput) float64
}

// staticStrategy is the simple fixed-penalty formula: each soft failure costs
// a flat deduction from 100.
type staticStrategy struct{}

func (staticStrategy) Name() string { return StrategyStatic }

func (staticStrategy) Score(in ScoreInput) float64 {
	penalty := in.Model.Weight("soft_penalty", 15)
	return 100 - penalty*float64(in.SoftFailures)
}

// weightedStrategy blends soft-failure penalties, lender reputation, and the
// hard-pass ratio. This is the pluggable slot the catalog's scoring models
// configure; a future learned model replaces the coefficients, not the code.
type weightedStrategy struct{}

func (weightedStrategy) Name() string { return StrategyWeighted }

func (weightedStrategy) Score(in ScoreInput) float64 {
	softPenalty := in.Model.Weight("soft_penalty", 10)
	ratingWeight := in.Model.Weight("rating_weight", 0.1)
	hardWeight := in.Model.Weight("hard_ratio_weight", 20)

	hardRatio := 0.0
	if in.Total > 0 {
		hardRatio = float64(in.HardPass) / float64(in.Total)
	}
	return 100 - softPenalty*float64(in.SoftFailures) + ratingWeight*in.LenderRating + hardWeight*hardRatio
}

// defaultStrategies returns the built-in strategy registry keyed by name.
func defaultStrategies() map[string]Strategy {
	return map[string]Strategy{
		StrategyStatic:   staticStrategy{},
		StrategyWeighted: weightedStrategy{},
	}
}

// maxPatternBonus caps the contribution of historical match patterns.
// Patterns are advisory signals, never worth more than 10 points.
const maxPatternBonus = 10.0

// patternBonus converts a pattern's success rate into a score bonus.
func patternBonus(p catalog.MatchPattern) float64 {
	return clamp(p.SuccessRate*10, 0, maxPatternBonus)
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// round1 rounds to one decimal place, the precision confidence scores are
// reported at.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
