package engine

import (
	"testing"

	"matchbook-hq/matchbook/pkg/catalog"
	"matchbook-hq/matchbook/pkg/scenario"
)

func ltvProgram() catalog.Program {
	return catalog.Program{
		ID: "prog-1", LenderID: "lend-1", Name: "Bridge", Version: 1, Active: true,
		Criteria: []catalog.Criterion{
			{
				ID: "crit-ltv", Name: "Loan-to-value ratio", QuestionID: scenario.QuestionLTV,
				DataType: catalog.DataTypeNumber,
				Hard:     &catalog.Band{Min: 0, Max: 80},
				Soft:     &catalog.Band{Min: 0, Max: 75},
				Active:   true,
			},
		},
	}
}

func numberScenario(answers map[string]float64) *scenario.Scenario {
	sc := &scenario.Scenario{
		ID: "scn-1", State: "CA", LoanAmount: 280000,
		Answers: make(map[string]scenario.Value, len(answers)),
	}
	for q, v := range answers {
		sc.Answers[q] = scenario.Number(v)
	}
	return sc
}

func TestEvaluateCriteria_HardAndSoftIndependent(t *testing.T) {
	p := ltvProgram()

	tests := []struct {
		name     string
		ltv      float64
		hardPass int
		softPass int
		hardFail int
		softFail int
	}{
		{"inside both bands", 70, 1, 1, 0, 0},
		{"inside hard outside soft", 80, 1, 0, 0, 1},
		{"outside both bands", 85, 0, 0, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := evaluateCriteria(p, numberScenario(map[string]float64{scenario.QuestionLTV: tt.ltv}), nil)
			if out.Total != 1 {
				t.Fatalf("Total = %d, want 1", out.Total)
			}
			if out.HardPass != tt.hardPass || out.SoftPass != tt.softPass {
				t.Errorf("passes = (%d, %d), want (%d, %d)", out.HardPass, out.SoftPass, tt.hardPass, tt.softPass)
			}
			if len(out.HardFailures) != tt.hardFail || len(out.SoftFailures) != tt.softFail {
				t.Errorf("failures = (%d, %d), want (%d, %d)",
					len(out.HardFailures), len(out.SoftFailures), tt.hardFail, tt.softFail)
			}
		})
	}
}

func TestEvaluateCriteria_MissingAnswerIsHardFailure(t *testing.T) {
	p := ltvProgram()
	out := evaluateCriteria(p, numberScenario(nil), nil)

	if out.Total != 1 || out.HardPass != 0 {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if len(out.HardFailures) != 1 {
		t.Fatalf("expected 1 hard failure, got %d", len(out.HardFailures))
	}
	v := out.HardFailures[0]
	if !v.MissingAnswer || v.CriterionID != "crit-ltv" {
		t.Errorf("unexpected violation %+v", v)
	}
	// A missing answer is never also counted as a soft failure.
	if len(out.SoftFailures) != 0 {
		t.Errorf("expected no soft failures, got %d", len(out.SoftFailures))
	}
}

func TestEvaluateCriteria_NonNumericAnswerIsMissing(t *testing.T) {
	p := ltvProgram()
	sc := &scenario.Scenario{
		ID: "scn-1", State: "CA", LoanAmount: 280000,
		Answers: map[string]scenario.Value{scenario.QuestionLTV: scenario.String("eighty")},
	}
	out := evaluateCriteria(p, sc, nil)
	if len(out.HardFailures) != 1 || !out.HardFailures[0].MissingAnswer {
		t.Fatalf("expected missing-answer hard failure, got %+v", out)
	}
}

func TestEvaluateCriteria_InactiveCriterionSkipped(t *testing.T) {
	p := ltvProgram()
	p.Criteria[0].Active = false
	out := evaluateCriteria(p, numberScenario(map[string]float64{scenario.QuestionLTV: 90}), nil)
	if out.Total != 0 || len(out.HardFailures) != 0 {
		t.Errorf("inactive criterion must not be evaluated, got %+v", out)
	}
}

func TestEvaluateCriteria_NilBandsPass(t *testing.T) {
	p := ltvProgram()
	p.Criteria[0].Hard = nil
	p.Criteria[0].Soft = nil
	out := evaluateCriteria(p, numberScenario(map[string]float64{scenario.QuestionLTV: 500}), nil)
	if out.HardPass != 1 || out.SoftPass != 1 {
		t.Errorf("criterion without bands must pass, got %+v", out)
	}
}

func TestEvaluateCriteria_CoverageLTVCeiling(t *testing.T) {
	p := ltvProgram()
	ceiling := 75.0

	// LTV 78 passes the program's own hard band but breaks the coverage
	// rule's ceiling override.
	out := evaluateCriteria(p, numberScenario(map[string]float64{scenario.QuestionLTV: 78}), &ceiling)
	if out.HardPass != 1 {
		t.Errorf("program hard band should pass, got HardPass=%d", out.HardPass)
	}
	if len(out.HardFailures) != 1 {
		t.Fatalf("expected ceiling hard failure, got %d", len(out.HardFailures))
	}
	v := out.HardFailures[0]
	if v.CriterionID != "coverage_ltv_ceiling" || v.Band != "ltv_ceiling" || v.Actual != 78 || v.Max != 75 {
		t.Errorf("unexpected ceiling violation %+v", v)
	}

	// At or under the ceiling nothing is added.
	out = evaluateCriteria(p, numberScenario(map[string]float64{scenario.QuestionLTV: 75}), &ceiling)
	if len(out.HardFailures) != 0 {
		t.Errorf("ceiling at the boundary must not fail, got %+v", out.HardFailures)
	}
}

func TestEvaluateCriteria_BooleanAndDateCoercion(t *testing.T) {
	p := catalog.Program{
		ID: "prog-1", LenderID: "lend-1", Version: 1, Active: true,
		Criteria: []catalog.Criterion{
			{
				ID: "crit-occ", Name: "Owner occupied", QuestionID: "owner_occupied",
				DataType: catalog.DataTypeBoolean,
				Hard:     &catalog.Band{Min: 0, Max: 0}, // must be false
				Active:   true,
			},
		},
	}
	sc := &scenario.Scenario{
		ID: "scn-1", State: "CA", LoanAmount: 280000,
		Answers: map[string]scenario.Value{"owner_occupied": scenario.Boolean(true)},
	}
	out := evaluateCriteria(p, sc, nil)
	if len(out.HardFailures) != 1 || out.HardFailures[0].Actual != 1 {
		t.Errorf("expected boolean true coerced to 1 and failing [0,0], got %+v", out)
	}
}
