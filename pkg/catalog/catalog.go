package catalog

import (
	"fmt"
	"sort"
	"time"
)

// Document is the parsed form of a catalog file before snapshot construction.
type Document struct {
	Lenders       []Lender       `yaml:"lenders"`
	Programs      []Program      `yaml:"programs"`
	Coverage      []CoverageRule `yaml:"coverage"`
	HouseRules    []HouseRule    `yaml:"house_rules"`
	ScoringModels []ScoringModel `yaml:"scoring_models"`
	Patterns      []MatchPattern `yaml:"patterns"`
}

// Catalog is an immutable snapshot of the program catalog. All maps are built
// once by New and read concurrently by evaluations without locking.
type Catalog struct {
	// Version labels the snapshot for audit records. File sources use the
	// document checksum, git sources the commit SHA.
	Version string

	lenders  map[string]Lender
	programs []Program // latest active version per program ID, sorted by ID

	// coverage indexes, keyed by the rule's attachment point
	programState map[string]map[string]CoverageRule // program ID -> state -> rule
	programMetro map[string]map[string]CoverageRule // program ID -> metroKey -> rule
	lenderState  map[string]map[string]CoverageRule // lender ID -> state -> rule
	lenderMetro  map[string]map[string]CoverageRule // lender ID -> metroKey -> rule

	excludedLenders map[string]bool
	models          map[string]*ScoringModel // strategy -> active model
	patterns        map[string][]MatchPattern
}

func metroKey(state, metro string) string { return state + "/" + metro }

// New validates a document and builds an immutable snapshot from it.
// Validation failures are returned as a single wrapped error naming the first
// offending record.
func New(doc *Document, version string) (*Catalog, error) {
	if err := Validate(doc); err != nil {
		return nil, err
	}

	c := &Catalog{
		Version:         version,
		lenders:         make(map[string]Lender, len(doc.Lenders)),
		programState:    make(map[string]map[string]CoverageRule),
		programMetro:    make(map[string]map[string]CoverageRule),
		lenderState:     make(map[string]map[string]CoverageRule),
		lenderMetro:     make(map[string]map[string]CoverageRule),
		excludedLenders: make(map[string]bool),
		models:          make(map[string]*ScoringModel),
		patterns:        make(map[string][]MatchPattern),
	}

	for _, l := range doc.Lenders {
		c.lenders[l.ID] = l
	}

	// Keep the latest active version per program ID.
	latest := make(map[string]Program)
	for _, p := range doc.Programs {
		if !p.Active {
			continue
		}
		if cur, ok := latest[p.ID]; !ok || p.Version > cur.Version {
			latest[p.ID] = p
		}
	}
	for _, p := range latest {
		c.programs = append(c.programs, p)
	}
	sort.Slice(c.programs, func(i, j int) bool { return c.programs[i].ID < c.programs[j].ID })

	for _, r := range doc.Coverage {
		var byRef map[string]map[string]CoverageRule
		var key string
		switch {
		case r.Scope == ScopeProgram && r.IsMetro():
			byRef, key = c.programMetro, metroKey(r.State, r.Metro)
		case r.Scope == ScopeProgram:
			byRef, key = c.programState, r.State
		case r.Scope == ScopeLender && r.IsMetro():
			byRef, key = c.lenderMetro, metroKey(r.State, r.Metro)
		default:
			byRef, key = c.lenderState, r.State
		}
		if byRef[r.RefID] == nil {
			byRef[r.RefID] = make(map[string]CoverageRule)
		}
		byRef[r.RefID][key] = r
	}

	for _, h := range doc.HouseRules {
		if h.Effective() {
			c.excludedLenders[h.LenderID] = true
		}
	}

	for i := range doc.ScoringModels {
		m := doc.ScoringModels[i]
		if m.Active {
			c.models[m.Strategy] = &m
		}
	}

	for _, p := range doc.Patterns {
		c.patterns[p.ProgramID] = append(c.patterns[p.ProgramID], p)
	}

	return c, nil
}

// Lender returns the lender by ID.
func (c *Catalog) Lender(id string) (Lender, bool) {
	l, ok := c.lenders[id]
	return l, ok
}

// Programs returns the active program versions valid at the given instant,
// in stable ID order. Programs of inactive lenders are omitted.
func (c *Catalog) Programs(now time.Time) []Program {
	out := make([]Program, 0, len(c.programs))
	for _, p := range c.programs {
		l, ok := c.lenders[p.LenderID]
		if !ok || !l.Active {
			continue
		}
		if now.Before(p.ValidFrom) {
			continue
		}
		if !p.ValidUntil.IsZero() && now.After(p.ValidUntil) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// LenderExcluded reports whether an effective house rule removes the lender.
func (c *Catalog) LenderExcluded(lenderID string) bool {
	return c.excludedLenders[lenderID]
}

// ProgramStateRule returns the program-level state rule, if one exists.
func (c *Catalog) ProgramStateRule(programID, state string) (CoverageRule, bool) {
	r, ok := c.programState[programID][state]
	return r, ok
}

// ProgramMetroRule returns the program-level metro rule, if one exists.
func (c *Catalog) ProgramMetroRule(programID, state, metro string) (CoverageRule, bool) {
	r, ok := c.programMetro[programID][metroKey(state, metro)]
	return r, ok
}

// LenderStateRule returns the lender-level fallback state rule, if one exists.
func (c *Catalog) LenderStateRule(lenderID, state string) (CoverageRule, bool) {
	r, ok := c.lenderState[lenderID][state]
	return r, ok
}

// LenderMetroRule returns the lender-level fallback metro rule, if one exists.
func (c *Catalog) LenderMetroRule(lenderID, state, metro string) (CoverageRule, bool) {
	r, ok := c.lenderMetro[lenderID][metroKey(state, metro)]
	return r, ok
}

// ActiveModel returns the active scoring model for a strategy, or nil when
// the catalog carries none (strategies then use their built-in defaults).
func (c *Catalog) ActiveModel(strategy string) *ScoringModel {
	return c.models[strategy]
}

// BestPattern returns the highest-success-rate pattern matching the program
// and state, preferring state-specific patterns over state-agnostic ones.
func (c *Catalog) BestPattern(programID, state string) (MatchPattern, bool) {
	var best MatchPattern
	found := false
	for _, p := range c.patterns[programID] {
		if p.State != "" && p.State != state {
			continue
		}
		if !found || betterPattern(p, best) {
			best, found = p, true
		}
	}
	return best, found
}

func betterPattern(a, b MatchPattern) bool {
	aSpecific, bSpecific := a.State != "", b.State != ""
	if aSpecific != bSpecific {
		return aSpecific
	}
	return a.SuccessRate > b.SuccessRate
}

// Validate checks a document's referential integrity and shape. It returns
// the first violation found.
func Validate(doc *Document) error {
	lenders := make(map[string]bool, len(doc.Lenders))
	for _, l := range doc.Lenders {
		if l.ID == "" {
			return fmt.Errorf("lender %q: missing id", l.Name)
		}
		if lenders[l.ID] {
			return fmt.Errorf("lender %s: duplicate id", l.ID)
		}
		if l.Rating < 0 || l.Rating > 100 {
			return fmt.Errorf("lender %s: rating %.1f outside 0-100", l.ID, l.Rating)
		}
		lenders[l.ID] = true
	}

	programs := make(map[string]bool, len(doc.Programs))
	versions := make(map[string]bool, len(doc.Programs))
	for _, p := range doc.Programs {
		if p.ID == "" {
			return fmt.Errorf("program %q: missing id", p.Name)
		}
		if !lenders[p.LenderID] {
			return fmt.Errorf("program %s: unknown lender %s", p.ID, p.LenderID)
		}
		vk := fmt.Sprintf("%s@%d", p.ID, p.Version)
		if versions[vk] {
			return fmt.Errorf("program %s: duplicate version %d", p.ID, p.Version)
		}
		versions[vk] = true
		programs[p.ID] = true

		seen := make(map[string]bool, len(p.Criteria))
		for _, cr := range p.Criteria {
			if cr.ID == "" || cr.QuestionID == "" {
				return fmt.Errorf("program %s: criterion %q missing id or question_id", p.ID, cr.Name)
			}
			if seen[cr.ID] {
				return fmt.Errorf("program %s: duplicate criterion %s", p.ID, cr.ID)
			}
			seen[cr.ID] = true
			for name, b := range map[string]*Band{"hard": cr.Hard, "soft": cr.Soft, "preferred": cr.Preferred} {
				if b != nil && b.Min > b.Max {
					return fmt.Errorf("program %s: criterion %s: %s band min %.2f > max %.2f",
						p.ID, cr.ID, name, b.Min, b.Max)
				}
			}
		}
	}

	for _, r := range doc.Coverage {
		if r.State == "" {
			return fmt.Errorf("coverage rule for %s %s: missing state", r.Scope, r.RefID)
		}
		switch r.Scope {
		case ScopeProgram:
			if !programs[r.RefID] {
				return fmt.Errorf("coverage rule: unknown program %s", r.RefID)
			}
		case ScopeLender:
			if !lenders[r.RefID] {
				return fmt.Errorf("coverage rule: unknown lender %s", r.RefID)
			}
		default:
			return fmt.Errorf("coverage rule for %s: unknown scope %q", r.RefID, r.Scope)
		}
	}

	for _, h := range doc.HouseRules {
		if !lenders[h.LenderID] {
			return fmt.Errorf("house rule: unknown lender %s", h.LenderID)
		}
	}

	active := make(map[string]string)
	for _, m := range doc.ScoringModels {
		if !m.Active {
			continue
		}
		if prev, ok := active[m.Strategy]; ok {
			return fmt.Errorf("scoring models %s and %s: both active for strategy %s",
				prev, m.Name, m.Strategy)
		}
		active[m.Strategy] = m.Name
	}

	for _, p := range doc.Patterns {
		if !programs[p.ProgramID] {
			return fmt.Errorf("match pattern: unknown program %s", p.ProgramID)
		}
		if p.SuccessRate < 0 || p.SuccessRate > 1 {
			return fmt.Errorf("match pattern for %s: success rate %.2f outside 0-1",
				p.ProgramID, p.SuccessRate)
		}
	}

	return nil
}
