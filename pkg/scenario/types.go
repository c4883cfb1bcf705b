package scenario

import (
	"fmt"
	"time"
)

// Kind is the value domain of a scenario answer.
type Kind string

const (
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindDate    Kind = "date"
	KindString  Kind = "string"
)

// Value is a typed answer value. Exactly one of the payload fields is
// meaningful, selected by Kind. Values are validated once when the scenario
// is admitted; the engine only calls Numeric.
type Value struct {
	Kind Kind `json:"kind"`

	Number  float64   `json:"number,omitempty"`
	Boolean bool      `json:"boolean,omitempty"`
	Date    time.Time `json:"date,omitempty"`
	String  string    `json:"string,omitempty"`
}

// Number returns a numeric Value.
func Number(v float64) Value { return Value{Kind: KindNumber, Number: v} }

// Boolean returns a boolean Value.
func Boolean(v bool) Value { return Value{Kind: KindBoolean, Boolean: v} }

// Date returns a date Value.
func Date(v time.Time) Value { return Value{Kind: KindDate, Date: v} }

// String returns a string Value.
func String(v string) Value { return Value{Kind: KindString, String: v} }

// Numeric coerces the value into the numeric domain used by band checks:
// numbers as-is, booleans as 1/0, dates as Unix days. String values do not
// coerce and report ok=false, which band checks treat as a missing answer.
func (v Value) Numeric() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Number, true
	case KindBoolean:
		if v.Boolean {
			return 1, true
		}
		return 0, true
	case KindDate:
		return float64(v.Date.Unix() / 86400), true
	default:
		return 0, false
	}
}

// Scenario is one loan request: a location, a loan amount, and the answered
// questions the criteria read.
type Scenario struct {
	// ID is the scenario identifier assigned by the workflow layer.
	ID string `json:"id" validate:"required"`

	// State and Metro locate the subject property for coverage resolution.
	State string `json:"state" validate:"required,len=2"`
	Metro string `json:"metro,omitempty"`

	// LoanAmount is the requested loan amount.
	LoanAmount float64 `json:"loan_amount" validate:"gt=0"`

	// Answers maps question ID to the validated answer value. Each question
	// appears at most once per scenario.
	Answers map[string]Value `json:"answers"`
}

// Answer returns the answer for a question, if one is on file.
func (s *Scenario) Answer(questionID string) (Value, bool) {
	v, ok := s.Answers[questionID]
	return v, ok
}

// Well-known question IDs the core reads directly.
const (
	// QuestionLTV is the loan-to-value ratio answer, in percent.
	QuestionLTV = "ltv"

	// QuestionPropertyValue is the appraised property value answer.
	QuestionPropertyValue = "property_value"
)

// LTV returns the scenario's loan-to-value ratio in percent. An explicit LTV
// answer wins; otherwise it is computed on read from the loan amount and the
// property value answer. It is never silently recomputed elsewhere.
func (s *Scenario) LTV() (float64, bool) {
	if v, ok := s.Answers[QuestionLTV]; ok {
		if n, ok := v.Numeric(); ok {
			return n, true
		}
	}
	if v, ok := s.Answers[QuestionPropertyValue]; ok {
		if pv, ok := v.Numeric(); ok && pv > 0 && s.LoanAmount > 0 {
			return s.LoanAmount / pv * 100, true
		}
	}
	return 0, false
}

// GrantStatus is the approval state of an exception grant.
type GrantStatus string

const (
	GrantApproved GrantStatus = "approved"
	GrantPending  GrantStatus = "pending"
	GrantDenied   GrantStatus = "denied"
)

// ExceptionGrant is a pre-approved override permitting one specific hard
// failure to not disqualify a program for one specific scenario.
type ExceptionGrant struct {
	// ScenarioID is the scenario the grant applies to.
	ScenarioID string `json:"scenario_id"`

	// ProgramID and CriterionID identify the failing criterion covered.
	ProgramID   string `json:"program_id"`
	CriterionID string `json:"criterion_id"`

	// Status must be GrantApproved for the grant to count.
	Status GrantStatus `json:"status"`

	// ExpiresAt bounds the grant's validity. A zero value means no expiry.
	ExpiresAt time.Time `json:"expires_at"`
}

// Usable reports whether the grant counts at the given instant: approved and
// unexpired. Pending and denied grants never count.
func (g ExceptionGrant) Usable(now time.Time) bool {
	if g.Status != GrantApproved {
		return false
	}
	return g.ExpiresAt.IsZero() || now.Before(g.ExpiresAt)
}

// Covers reports whether the grant covers the given failing criterion.
func (g ExceptionGrant) Covers(programID, criterionID string) bool {
	return g.ProgramID == programID && g.CriterionID == criterionID
}

func (g ExceptionGrant) String() string {
	return fmt.Sprintf("grant(%s/%s/%s %s)", g.ScenarioID, g.ProgramID, g.CriterionID, g.Status)
}
