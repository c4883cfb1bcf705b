package engine

import (
	"matchbook-hq/matchbook/pkg/catalog"
	"matchbook-hq/matchbook/pkg/scenario"
)

// criteriaOutcome accumulates the band checks for one program.
type criteriaOutcome struct {
	// Total is the number of active criteria evaluated.
	Total int

	// HardPass and SoftPass count criteria whose answer sat inside the
	// respective band (or that carry no such band).
	HardPass int
	SoftPass int

	// HardFailures and SoftFailures list the violated bands in criterion
	// order.
	HardFailures []BandViolation
	SoftFailures []BandViolation
}

// evaluateCriteria runs every active criterion of a program version against
// the scenario's answers. The hard and soft bands are tested independently:
// a value can sit inside the hard band yet outside the soft band, degrading
// the score without disqualifying.
//
// A criterion with no answer on file (or an answer that does not coerce to
// the numeric domain) is a hard failure; only an exception grant can lift it.
//
// maxLTV, when non-nil, is the coverage rule's LTV ceiling override, applied
// as an additional hard constraint on the scenario's LTV.
func evaluateCriteria(p catalog.Program, sc *scenario.Scenario, maxLTV *float64) criteriaOutcome {
	var out criteriaOutcome

	for _, cr := range p.Criteria {
		if !cr.Active {
			continue
		}
		out.Total++

		answer, ok := sc.Answer(cr.QuestionID)
		value, numeric := 0.0, false
		if ok {
			value, numeric = answer.Numeric()
		}

		if !numeric {
			out.HardFailures = append(out.HardFailures, BandViolation{
				CriterionID:   cr.ID,
				CriterionName: cr.Name,
				QuestionID:    cr.QuestionID,
				Band:          "hard",
				Min:           bandMin(cr.Hard),
				Max:           bandMax(cr.Hard),
				MissingAnswer: true,
				DealBreaker:   cr.DealBreaker,
			})
			continue
		}

		if cr.Hard == nil || cr.Hard.Contains(value) {
			out.HardPass++
		} else {
			out.HardFailures = append(out.HardFailures, BandViolation{
				CriterionID:   cr.ID,
				CriterionName: cr.Name,
				QuestionID:    cr.QuestionID,
				Band:          "hard",
				Actual:        value,
				Min:           cr.Hard.Min,
				Max:           cr.Hard.Max,
				DealBreaker:   cr.DealBreaker,
			})
		}

		if cr.Soft == nil || cr.Soft.Contains(value) {
			out.SoftPass++
		} else {
			out.SoftFailures = append(out.SoftFailures, BandViolation{
				CriterionID:   cr.ID,
				CriterionName: cr.Name,
				QuestionID:    cr.QuestionID,
				Band:          "soft",
				Actual:        value,
				Min:           cr.Soft.Min,
				Max:           cr.Soft.Max,
				DealBreaker:   cr.DealBreaker,
			})
		}
	}

	// Coverage LTV ceiling override: a hard constraint on top of whatever
	// the program's own criteria say about LTV.
	if maxLTV != nil {
		if ltv, ok := sc.LTV(); ok && ltv > *maxLTV {
			out.HardFailures = append(out.HardFailures, BandViolation{
				CriterionID:   "coverage_ltv_ceiling",
				CriterionName: "Coverage LTV ceiling",
				QuestionID:    scenario.QuestionLTV,
				Band:          "ltv_ceiling",
				Actual:        ltv,
				Max:           *maxLTV,
			})
		}
	}

	return out
}

func bandMin(b *catalog.Band) float64 {
	if b == nil {
		return 0
	}
	return b.Min
}

func bandMax(b *catalog.Band) float64 {
	if b == nil {
		return 0
	}
	return b.Max
}
