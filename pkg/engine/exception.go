package engine

import (
	"time"

	"matchbook-hq/matchbook/pkg/scenario"
)

// exceptionsCover reports whether every hard failure of a program is covered
// by an approved, unexpired exception grant for this scenario.
//
// Coverage is all-or-nothing per program: a single uncovered hard failure
// leaves the program disqualified, no matter how many other failures carry
// grants. Grants referencing criteria that are not currently failing have no
// effect.
func exceptionsCover(grants []scenario.ExceptionGrant, programID string, hardFailures []BandViolation, now time.Time) bool {
	if len(hardFailures) == 0 {
		return false
	}
	for _, v := range hardFailures {
		if !failureCovered(grants, programID, v.CriterionID, now) {
			return false
		}
	}
	return true
}

func failureCovered(grants []scenario.ExceptionGrant, programID, criterionID string, now time.Time) bool {
	for _, g := range grants {
		if g.Covers(programID, criterionID) && g.Usable(now) {
			return true
		}
	}
	return false
}
