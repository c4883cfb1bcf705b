package scenario

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned when no scenario (or no answers) exist for an ID.
var ErrNotFound = errors.New("scenario not found")

// Store provides read access to scenarios and their exception grants. The
// workflow layer owns the write side; the evaluation core only reads.
// Implementations must be safe for concurrent use.
type Store interface {
	// Scenario returns the scenario by ID, or ErrNotFound. A scenario with
	// no answers on file is reported as ErrNotFound: evaluation is not
	// meaningful before the import pipeline has delivered answers.
	Scenario(ctx context.Context, id string) (*Scenario, error)

	// Grants returns all exception grants recorded for the scenario,
	// regardless of status or expiry. Callers filter with Usable.
	Grants(ctx context.Context, scenarioID string) ([]ExceptionGrant, error)
}

// MemoryStore is an in-memory Store used by tests, fixtures, and the CLI.
type MemoryStore struct {
	mu        sync.RWMutex
	scenarios map[string]*Scenario
	grants    map[string][]ExceptionGrant
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		scenarios: make(map[string]*Scenario),
		grants:    make(map[string][]ExceptionGrant),
	}
}

// Put inserts or replaces a scenario.
func (s *MemoryStore) Put(sc *Scenario) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scenarios[sc.ID] = sc
}

// AddGrant records an exception grant for a scenario.
func (s *MemoryStore) AddGrant(g ExceptionGrant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[g.ScenarioID] = append(s.grants[g.ScenarioID], g)
}

// Scenario implements Store.
func (s *MemoryStore) Scenario(_ context.Context, id string) (*Scenario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.scenarios[id]
	if !ok || len(sc.Answers) == 0 {
		return nil, ErrNotFound
	}
	return sc, nil
}

// Grants implements Store.
func (s *MemoryStore) Grants(_ context.Context, scenarioID string) ([]ExceptionGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ExceptionGrant, len(s.grants[scenarioID]))
	copy(out, s.grants[scenarioID])
	return out, nil
}
