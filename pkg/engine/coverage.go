package engine

import (
	"matchbook-hq/matchbook/pkg/catalog"
)

// coverageDecision is the outcome of resolving coverage for one program
// against one scenario location.
type coverageDecision struct {
	// Eligible is false when the effective rule excludes the location or no
	// rule covers it at all.
	Eligible bool

	// MaxLTV is the effective rule's LTV ceiling override, passed through to
	// criteria evaluation as a hard constraint.
	MaxLTV *float64

	// Source names the rule that decided, for logging: "program_state",
	// "program_metro", "lender_state", "lender_metro", or "none".
	Source string
}

// resolveCoverage selects the single effective coverage rule for a program
// at a location. Candidates are considered in strict priority order:
//
//  1. program + state
//  2. program + metro
//  3. lender + state (fallback, shadowed by any program-level state rule)
//  4. lender + metro (fallback, shadowed by any program-level metro rule)
//
// The first candidate that exists is the effective rule; at most one rule per
// (program, geography key) can match by construction of the catalog indexes.
// If the effective rule excludes the location, or no candidate exists, the
// program is ineligible and dropped before scoring.
func resolveCoverage(c *catalog.Catalog, p catalog.Program, state, metro string) coverageDecision {
	if r, ok := c.ProgramStateRule(p.ID, state); ok {
		return decide(r, "program_state")
	}
	if metro != "" {
		if r, ok := c.ProgramMetroRule(p.ID, state, metro); ok {
			return decide(r, "program_metro")
		}
	}
	if r, ok := c.LenderStateRule(p.LenderID, state); ok {
		return decide(r, "lender_state")
	}
	if metro != "" {
		if r, ok := c.LenderMetroRule(p.LenderID, state, metro); ok {
			return decide(r, "lender_metro")
		}
	}
	return coverageDecision{Eligible: false, Source: "none"}
}

func decide(r catalog.CoverageRule, source string) coverageDecision {
	if r.Exclude {
		return coverageDecision{Eligible: false, Source: source}
	}
	return coverageDecision{Eligible: true, MaxLTV: r.MaxLTV, Source: source}
}
