package scenario

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Fixture is the yaml document shape for scenario fixtures. In production
// the workflow layer owns scenarios; fixtures stand in for it in the CLI and
// in tests.
type Fixture struct {
	Scenarios []fixtureScenario `yaml:"scenarios"`
	Grants    []fixtureGrant    `yaml:"grants"`
}

type fixtureScenario struct {
	ID         string                  `yaml:"id"`
	State      string                  `yaml:"state"`
	Metro      string                  `yaml:"metro"`
	LoanAmount float64                 `yaml:"loan_amount"`
	Answers    map[string]fixtureValue `yaml:"answers"`
}

type fixtureValue struct {
	Kind    string    `yaml:"kind"`
	Number  float64   `yaml:"number"`
	Boolean bool      `yaml:"boolean"`
	Date    time.Time `yaml:"date"`
	String  string    `yaml:"string"`
}

type fixtureGrant struct {
	ScenarioID  string    `yaml:"scenario_id"`
	ProgramID   string    `yaml:"program_id"`
	CriterionID string    `yaml:"criterion_id"`
	Status      string    `yaml:"status"`
	ExpiresAt   time.Time `yaml:"expires_at"`
}

// LoadFixture reads a scenario fixture file into a MemoryStore.
func LoadFixture(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario fixture: %w", err)
	}

	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parsing scenario fixture: %w", err)
	}

	store := NewMemoryStore()
	for _, fs := range fx.Scenarios {
		sc := &Scenario{
			ID:         fs.ID,
			State:      fs.State,
			Metro:      fs.Metro,
			LoanAmount: fs.LoanAmount,
			Answers:    make(map[string]Value, len(fs.Answers)),
		}
		for qid, fv := range fs.Answers {
			v, err := fv.value()
			if err != nil {
				return nil, fmt.Errorf("scenario %s, answer %s: %w", fs.ID, qid, err)
			}
			sc.Answers[qid] = v
		}
		store.Put(sc)
	}

	for _, fg := range fx.Grants {
		store.AddGrant(ExceptionGrant{
			ScenarioID:  fg.ScenarioID,
			ProgramID:   fg.ProgramID,
			CriterionID: fg.CriterionID,
			Status:      GrantStatus(fg.Status),
			ExpiresAt:   fg.ExpiresAt,
		})
	}

	return store, nil
}

func (fv fixtureValue) value() (Value, error) {
	switch Kind(fv.Kind) {
	case KindNumber:
		return Number(fv.Number), nil
	case KindBoolean:
		return Boolean(fv.Boolean), nil
	case KindDate:
		return Date(fv.Date), nil
	case KindString:
		return String(fv.String), nil
	default:
		return Value{}, fmt.Errorf("unknown value kind %q", fv.Kind)
	}
}
