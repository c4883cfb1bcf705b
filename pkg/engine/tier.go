package engine

import (
	"fmt"
	"sort"
)

// Tier is the discrete rating bucket for a match.
type Tier string

const (
	TierPlatinum          Tier = "platinum"
	TierExceptionRequired Tier = "exception_required"
	TierGold              Tier = "gold"
	TierSilver            Tier = "silver"
	TierBronze            Tier = "bronze"
	TierDisqualified      Tier = "disqualified"
)

// tierRanks is the fixed ordering table for results. Lower ranks sort first.
var tierRanks = map[Tier]int{
	TierPlatinum:          0,
	TierExceptionRequired: 1,
	TierGold:              2,
	TierSilver:            3,
	TierBronze:            4,
	TierDisqualified:      5,
}

// Rank returns the tier's position in the fixed ordering table.
func (t Tier) Rank() int {
	r, ok := tierRanks[t]
	if !ok {
		return len(tierRanks)
	}
	return r
}

// Tier thresholds. Platinum and gold require both the confidence score and
// the lender rating to clear the bar.
const (
	platinumConfidence = 95.0
	platinumRating     = 95.0
	goldConfidence     = 90.0
	goldRating         = 90.0
)

// assignTier derives the tier from the evaluation outcome. The checks run in
// fixed order and the first match wins, so the tier is a pure function of its
// inputs.
func assignTier(out criteriaOutcome, exceptionsCovered bool, confidence, lenderRating float64) Tier {
	switch {
	case len(out.HardFailures) > 0 && !exceptionsCovered:
		return TierDisqualified
	case len(out.HardFailures) > 0:
		return TierExceptionRequired
	case confidence >= platinumConfidence && lenderRating >= platinumRating:
		return TierPlatinum
	case confidence >= goldConfidence && lenderRating >= goldRating:
		return TierGold
	case len(out.SoftFailures) > 0:
		return TierBronze
	default:
		return TierSilver
	}
}

// sortMatches orders results by tier rank, then confidence descending, then
// program name as the final deterministic tie-break.
func sortMatches(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Tier.Rank() != b.Tier.Rank() {
			return a.Tier.Rank() < b.Tier.Rank()
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return a.ProgramName < b.ProgramName
	})
}

// dominantFailure picks the violation a rationale should cite: the first
// deal-breaker if any, otherwise the first violation in criterion order.
func dominantFailure(violations []BandViolation) BandViolation {
	for _, v := range violations {
		if v.DealBreaker {
			return v
		}
	}
	return violations[0]
}

// rationale builds the deterministic, human-readable explanation for a tier.
func rationale(tier Tier, out criteriaOutcome, confidence, lenderRating float64) string {
	switch tier {
	case TierDisqualified:
		v := dominantFailure(out.HardFailures)
		if v.MissingAnswer {
			return fmt.Sprintf("Disqualified: no answer on file for %s", v.CriterionName)
		}
		return fmt.Sprintf("Disqualified: %s value %.1f outside hard range [%.1f, %.1f]",
			v.CriterionName, v.Actual, v.Min, v.Max)
	case TierExceptionRequired:
		return fmt.Sprintf("Exception required: all %d hard failures covered by approved exception grants",
			len(out.HardFailures))
	case TierPlatinum:
		return fmt.Sprintf("Platinum match: confidence %.1f with lender rating %.0f", confidence, lenderRating)
	case TierGold:
		return fmt.Sprintf("Gold match: confidence %.1f with lender rating %.0f", confidence, lenderRating)
	case TierBronze:
		v := dominantFailure(out.SoftFailures)
		if v.Actual > v.Max {
			return fmt.Sprintf("Bronze: %s value %.1f exceeds soft limit %.1f", v.CriterionName, v.Actual, v.Max)
		}
		return fmt.Sprintf("Bronze: %s value %.1f below soft minimum %.1f", v.CriterionName, v.Actual, v.Min)
	default:
		return fmt.Sprintf("Silver: all %d criteria within hard and soft ranges", out.Total)
	}
}

// improvementHints derives actionable suggestions from the failure lists.
// Hints follow criterion order, hard failures first, so identical inputs
// yield identical hints.
func improvementHints(hard, soft []BandViolation) []string {
	var hints []string
	for _, v := range append(append([]BandViolation{}, hard...), soft...) {
		switch {
		case v.MissingAnswer:
			hints = append(hints, fmt.Sprintf("provide an answer for %s", v.CriterionName))
		case v.Actual > v.Max:
			hints = append(hints, fmt.Sprintf("reduce %s to at most %.1f", v.CriterionName, v.Max))
		case v.Actual < v.Min:
			hints = append(hints, fmt.Sprintf("raise %s to at least %.1f", v.CriterionName, v.Min))
		}
	}
	return hints
}
