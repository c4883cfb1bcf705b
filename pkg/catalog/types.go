package catalog

import (
	"time"
)

// DataType identifies the value domain of a criterion.
type DataType string

const (
	// DataTypeNumber is a numeric criterion (amounts, ratios, scores).
	DataTypeNumber DataType = "number"

	// DataTypeBoolean is a yes/no criterion, coerced to 1/0 for band checks.
	DataTypeBoolean DataType = "boolean"

	// DataTypeDate is a date criterion, coerced to Unix days for band checks.
	DataTypeDate DataType = "date"
)

// Scope identifies whether a coverage rule is attached to a program or to a
// lender as a fallback.
type Scope string

const (
	// ScopeProgram attaches a coverage rule to a single program version line.
	ScopeProgram Scope = "program"

	// ScopeLender attaches a fallback coverage rule to every program of a lender.
	ScopeLender Scope = "lender"
)

// Directive is the action carried by a broker house rule.
type Directive string

const (
	// DirectiveExclude removes a lender's programs from candidacy entirely.
	DirectiveExclude Directive = "exclude"
)

// Lender is a lending institution offering one or more programs.
type Lender struct {
	// ID is the stable lender identifier.
	ID string `yaml:"id"`

	// Name is the display name used in match results.
	Name string `yaml:"name"`

	// Active controls whether the lender's programs are candidates at all.
	Active bool `yaml:"active"`

	// Rating is the lender reputation rating, 0-100.
	Rating float64 `yaml:"rating"`
}

// Program is one versioned lending product. A (ID, Version) pair is immutable
// once published; edits create a new version.
type Program struct {
	// ID is the stable program identifier, shared across versions.
	ID string `yaml:"id"`

	// LenderID references the owning Lender.
	LenderID string `yaml:"lender_id"`

	// Name is the display name used in match results.
	Name string `yaml:"name"`

	// Version is the published version number, starting at 1.
	Version int `yaml:"version"`

	// Active controls whether this version participates in evaluation.
	Active bool `yaml:"active"`

	// ValidFrom and ValidUntil bound the validity window. A zero ValidUntil
	// means no expiry.
	ValidFrom  time.Time `yaml:"valid_from"`
	ValidUntil time.Time `yaml:"valid_until"`

	// Criteria are the threshold criteria of this program version.
	Criteria []Criterion `yaml:"criteria"`
}

// Band is an inclusive numeric range. Criteria values are tested for
// membership with Contains.
type Band struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Contains reports whether v falls inside the band, bounds inclusive.
func (b Band) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// Criterion is a single threshold criterion of a program version. It reads
// one scenario answer (identified by QuestionID) and tests it against up to
// three bands.
type Criterion struct {
	// ID uniquely identifies the criterion within its program version.
	// Exception grants reference this ID.
	ID string `yaml:"id"`

	// Name is the human-readable criterion name used in rationales and hints.
	Name string `yaml:"name"`

	// QuestionID links the criterion to the scenario answer it reads.
	QuestionID string `yaml:"question_id"`

	// DataType is the value domain answers are coerced into.
	DataType DataType `yaml:"data_type"`

	// Hard is the must-pass band. Failing it disqualifies the program unless
	// an approved exception grant covers the failure.
	Hard *Band `yaml:"hard"`

	// Soft is the degradation band. Failing it lowers score and tier but
	// never disqualifies.
	Soft *Band `yaml:"soft"`

	// Preferred is informational only.
	Preferred *Band `yaml:"preferred"`

	// Weight is the criterion weight consumed by weighted scoring models.
	Weight float64 `yaml:"weight"`

	// DealBreaker marks the criterion for rationale emphasis when it is the
	// dominant failure.
	DealBreaker bool `yaml:"deal_breaker"`

	// Active criteria are evaluated; inactive ones are skipped entirely.
	Active bool `yaml:"active"`
}

// CoverageRule scopes geographic eligibility. Rules are attached either to a
// program or to a lender, and target either a state or a metro within a state.
// Program-level rules take precedence over lender-level fallback rules, and
// metro rules are more specific than state rules within the same scope.
type CoverageRule struct {
	// Scope is program or lender.
	Scope Scope `yaml:"scope"`

	// RefID is the program ID or lender ID the rule is attached to.
	RefID string `yaml:"ref_id"`

	// State is the two-letter state code. Required.
	State string `yaml:"state"`

	// Metro is the metro name within State. Empty for state-wide rules.
	Metro string `yaml:"metro"`

	// Exclude inverts the rule: a matched excluding rule makes the program
	// ineligible for the scenario.
	Exclude bool `yaml:"exclude"`

	// MaxLTV, when non-nil, is an LTV ceiling override passed to scoring as a
	// hard constraint.
	MaxLTV *float64 `yaml:"max_ltv"`
}

// IsMetro reports whether the rule targets a metro rather than a whole state.
func (r CoverageRule) IsMetro() bool { return r.Metro != "" }

// HouseRule is a broker-level directive about a lender. An active EXCLUDE
// rule with confidence above the exclusion threshold removes the lender's
// programs from candidacy before criteria evaluation.
type HouseRule struct {
	// LenderID references the lender the directive applies to.
	LenderID string `yaml:"lender_id"`

	// Directive is the action; only "exclude" is defined.
	Directive Directive `yaml:"directive"`

	// Confidence is the rule confidence, 0.0-1.0.
	Confidence float64 `yaml:"confidence"`

	// Active controls whether the rule is applied.
	Active bool `yaml:"active"`
}

// HouseRuleConfidenceThreshold is the confidence a house rule must exceed to
// take effect.
const HouseRuleConfidenceThreshold = 0.8

// Effective reports whether the rule currently removes its lender.
func (h HouseRule) Effective() bool {
	return h.Active && h.Directive == DirectiveExclude && h.Confidence > HouseRuleConfidenceThreshold
}

// ScoringModel is a versioned weight configuration for a scoring strategy.
// At most one model per strategy may be active.
type ScoringModel struct {
	// Name identifies the model.
	Name string `yaml:"name"`

	// Strategy is the strategy the model configures ("static" or "weighted").
	Strategy string `yaml:"strategy"`

	// Version is the model version.
	Version int `yaml:"version"`

	// Active marks the model in use for its strategy.
	Active bool `yaml:"active"`

	// Weights are named coefficients consumed by the strategy. Missing keys
	// fall back to strategy defaults.
	Weights map[string]float64 `yaml:"weights"`
}

// Weight returns the named coefficient, or def when the model does not
// override it.
func (m *ScoringModel) Weight(name string, def float64) float64 {
	if m == nil || m.Weights == nil {
		return def
	}
	if v, ok := m.Weights[name]; ok {
		return v
	}
	return def
}

// MatchPattern is a historical success-rate record usable as a bonus signal.
// Patterns are advisory, never authoritative: they add at most a small bonus
// to the confidence score.
type MatchPattern struct {
	// ProgramID is the program the pattern was observed for.
	ProgramID string `yaml:"program_id"`

	// State is the scenario state the pattern was observed in. Empty matches
	// any state.
	State string `yaml:"state"`

	// SuccessRate is the observed close rate, 0.0-1.0.
	SuccessRate float64 `yaml:"success_rate"`

	// Samples is the number of observations backing the rate.
	Samples int `yaml:"samples"`
}
