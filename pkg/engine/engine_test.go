package engine

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"matchbook-hq/matchbook/pkg/cache"
	"matchbook-hq/matchbook/pkg/catalog"
	"matchbook-hq/matchbook/pkg/ledger"
	"matchbook-hq/matchbook/pkg/scenario"
)

func testNow() time.Time {
	return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testCatalog is one lender with one bridge program: LTV hard [0, 80] and
// soft [0, 75], covered state-wide in CA.
func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	doc := &catalog.Document{
		Lenders: []catalog.Lender{
			{ID: "lend-1", Name: "First Capital", Active: true, Rating: 92},
		},
		Programs: []catalog.Program{ltvProgram()},
		Coverage: []catalog.CoverageRule{
			{Scope: catalog.ScopeProgram, RefID: "prog-1", State: "CA"},
		},
	}
	cat, err := catalog.New(doc, "test-v1")
	if err != nil {
		t.Fatalf("building catalog: %v", err)
	}
	return cat
}

// countingProvider counts snapshot reads so tests can tell a cache hit from a
// recomputation.
type countingProvider struct {
	cat   *catalog.Catalog
	reads atomic.Int32
}

func (p *countingProvider) Snapshot() *catalog.Catalog {
	p.reads.Add(1)
	return p.cat
}

type denyAllAdmitter struct{}

func (denyAllAdmitter) Allow(string) bool { return false }

func scenarioStore(ltv float64) *scenario.MemoryStore {
	store := scenario.NewMemoryStore()
	store.Put(&scenario.Scenario{
		ID: "scn-1", State: "CA", LoanAmount: 280000,
		Answers: map[string]scenario.Value{scenario.QuestionLTV: scenario.Number(ltv)},
	})
	return store
}

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = quietLogger()
	}
	eng, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	eng.now = testNow
	return eng
}

func evaluate(t *testing.T, eng *Engine, req Request) *Result {
	t.Helper()
	result, err := eng.Evaluate(context.Background(), req)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	return result
}

func TestEvaluate_BronzeAtSoftBoundary(t *testing.T) {
	eng := newTestEngine(t, Config{
		Catalog:   &countingProvider{cat: testCatalog(t)},
		Scenarios: scenarioStore(80),
	})

	result := evaluate(t, eng, Request{ScenarioID: "scn-1", TenantID: "tenant-a"})

	if result.CatalogVersion != "test-v1" {
		t.Errorf("CatalogVersion = %q", result.CatalogVersion)
	}
	if len(result.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(result.Matches))
	}
	m := result.Matches[0]
	if m.Tier != TierBronze {
		t.Errorf("Tier = %v, want bronze", m.Tier)
	}
	// LTV 80 passes the hard band, fails the soft one: 100 - 15*1.
	if m.Confidence != 85 {
		t.Errorf("Confidence = %v, want 85", m.Confidence)
	}
	if m.HardPassCount != 1 || m.TotalCriteria != 1 {
		t.Errorf("counts = (%d, %d), want (1, 1)", m.HardPassCount, m.TotalCriteria)
	}
	want := "Bronze: Loan-to-value ratio value 80.0 exceeds soft limit 75.0"
	if m.Rationale != want {
		t.Errorf("Rationale = %q, want %q", m.Rationale, want)
	}
	if len(m.ImprovementHints) != 1 || m.ImprovementHints[0] != "reduce Loan-to-value ratio to at most 75.0" {
		t.Errorf("hints = %v", m.ImprovementHints)
	}
}

func TestEvaluate_ExceptionRequired(t *testing.T) {
	store := scenarioStore(85)
	store.AddGrant(scenario.ExceptionGrant{
		ScenarioID: "scn-1", ProgramID: "prog-1", CriterionID: "crit-ltv",
		Status: scenario.GrantApproved,
	})
	eng := newTestEngine(t, Config{
		Catalog:   &countingProvider{cat: testCatalog(t)},
		Scenarios: store,
	})

	result := evaluate(t, eng, Request{ScenarioID: "scn-1", TenantID: "tenant-a"})
	if len(result.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(result.Matches))
	}
	if result.Matches[0].Tier != TierExceptionRequired {
		t.Errorf("Tier = %v, want exception_required", result.Matches[0].Tier)
	}
}

func TestEvaluate_DisqualifiedWithoutGrant(t *testing.T) {
	eng := newTestEngine(t, Config{
		Catalog:   &countingProvider{cat: testCatalog(t)},
		Scenarios: scenarioStore(85),
	})

	result := evaluate(t, eng, Request{ScenarioID: "scn-1", TenantID: "tenant-a"})
	m := result.Matches[0]
	if m.Tier != TierDisqualified {
		t.Fatalf("Tier = %v, want disqualified", m.Tier)
	}
	want := "Disqualified: Loan-to-value ratio value 85.0 outside hard range [0.0, 80.0]"
	if m.Rationale != want {
		t.Errorf("Rationale = %q, want %q", m.Rationale, want)
	}
}

func TestEvaluate_ScenarioNotFound(t *testing.T) {
	eng := newTestEngine(t, Config{
		Catalog:   &countingProvider{cat: testCatalog(t)},
		Scenarios: scenario.NewMemoryStore(),
	})

	_, err := eng.Evaluate(context.Background(), Request{ScenarioID: "ghost", TenantID: "tenant-a"})
	if !errors.Is(err, ErrScenarioNotFound) {
		t.Fatalf("expected ErrScenarioNotFound, got %v", err)
	}
}

func TestEvaluate_RateLimit(t *testing.T) {
	eng := newTestEngine(t, Config{
		Catalog:   &countingProvider{cat: testCatalog(t)},
		Scenarios: scenarioStore(70),
		Admission: denyAllAdmitter{},
	})

	_, err := eng.Evaluate(context.Background(), Request{ScenarioID: "scn-1", TenantID: "tenant-a"})
	if !errors.Is(err, ErrRateLimitExceeded) {
		t.Fatalf("expected ErrRateLimitExceeded, got %v", err)
	}
}

func TestEvaluate_TestModeBypassesAdmissionAndCache(t *testing.T) {
	store := cache.NewMemoryStore()
	eng := newTestEngine(t, Config{
		Catalog:   &countingProvider{cat: testCatalog(t)},
		Scenarios: scenarioStore(70),
		Admission: denyAllAdmitter{},
		Cache:     cache.New(store, time.Minute, quietLogger()),
	})

	req := Request{ScenarioID: "scn-1", TenantID: "tenant-a", Options: Options{TestMode: true}}
	if _, err := eng.Evaluate(context.Background(), req); err != nil {
		t.Fatalf("test mode must bypass admission: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("test mode must not populate the cache, found %d entries", store.Len())
	}
}

func TestEvaluate_CacheHit(t *testing.T) {
	provider := &countingProvider{cat: testCatalog(t)}
	store := cache.NewMemoryStore()
	eng := newTestEngine(t, Config{
		Catalog:   provider,
		Scenarios: scenarioStore(80),
		Cache:     cache.New(store, time.Minute, quietLogger()),
	})

	req := Request{ScenarioID: "scn-1", TenantID: "tenant-a"}
	first := evaluate(t, eng, req)
	second := evaluate(t, eng, req)

	if provider.reads.Load() != 1 {
		t.Errorf("expected 1 snapshot read, got %d", provider.reads.Load())
	}
	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Error("cached result differs from the original computation")
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 cache entry, got %d", store.Len())
	}
}

func TestEvaluate_LedgerRecords(t *testing.T) {
	storage := ledger.NewMemoryStorage()
	led := ledger.New(storage, quietLogger())
	eng := newTestEngine(t, Config{
		Catalog:   &countingProvider{cat: testCatalog(t)},
		Scenarios: scenarioStore(80),
		Ledger:    led,
	})

	evaluate(t, eng, Request{ScenarioID: "scn-1", TenantID: "tenant-a"})

	last, err := storage.Last(context.Background())
	if err != nil || last == nil {
		t.Fatalf("expected an audit record, got %v err=%v", last, err)
	}
	var p ledger.Payload
	if err := json.Unmarshal(last.Payload, &p); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	if p.ScenarioID != "scn-1" || p.TenantID != "tenant-a" || p.CatalogVersion != "test-v1" {
		t.Errorf("unexpected payload %+v", p)
	}
	if err := led.Verify(context.Background()); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestEvaluate_WeightedStrategy(t *testing.T) {
	eng := newTestEngine(t, Config{
		Catalog:   &countingProvider{cat: testCatalog(t)},
		Scenarios: scenarioStore(70),
	})

	result := evaluate(t, eng, Request{
		ScenarioID: "scn-1", TenantID: "tenant-a",
		Options: Options{ScoringStrategy: "weighted"},
	})
	m := result.Matches[0]
	// 100 - 0 + 0.1*92 + 20*1 clamps to 100; rating 92 keeps it below platinum.
	if m.Confidence != 100 {
		t.Errorf("Confidence = %v, want 100", m.Confidence)
	}
	if m.Tier != TierGold {
		t.Errorf("Tier = %v, want gold", m.Tier)
	}
	if m.ScoringDetail.Strategy != StrategyWeighted {
		t.Errorf("Strategy = %q", m.ScoringDetail.Strategy)
	}
}

func TestEvaluate_PatternBonus(t *testing.T) {
	doc := &catalog.Document{
		Lenders: []catalog.Lender{
			{ID: "lend-1", Name: "First Capital", Active: true, Rating: 92},
		},
		Programs: []catalog.Program{ltvProgram()},
		Coverage: []catalog.CoverageRule{
			{Scope: catalog.ScopeProgram, RefID: "prog-1", State: "CA"},
		},
		Patterns: []catalog.MatchPattern{
			{ProgramID: "prog-1", State: "CA", SuccessRate: 0.6, Samples: 50},
		},
	}
	cat, err := catalog.New(doc, "test-v2")
	if err != nil {
		t.Fatal(err)
	}
	eng := newTestEngine(t, Config{
		Catalog:   &countingProvider{cat: cat},
		Scenarios: scenarioStore(80),
	})

	result := evaluate(t, eng, Request{ScenarioID: "scn-1", TenantID: "tenant-a"})
	m := result.Matches[0]
	// Static 85 plus 0.6*10 bonus.
	if m.Confidence != 91 {
		t.Errorf("Confidence = %v, want 91", m.Confidence)
	}
	if m.PatternDetail == nil || m.PatternDetail.Bonus != 6 {
		t.Errorf("PatternDetail = %+v, want bonus 6", m.PatternDetail)
	}
	// A pattern bonus never lifts a soft failure out of bronze.
	if m.Tier != TierBronze {
		t.Errorf("Tier = %v, want bronze", m.Tier)
	}
}

func TestEvaluate_HouseRuleExclusion(t *testing.T) {
	doc := &catalog.Document{
		Lenders: []catalog.Lender{
			{ID: "lend-1", Name: "First Capital", Active: true, Rating: 92},
		},
		Programs: []catalog.Program{ltvProgram()},
		Coverage: []catalog.CoverageRule{
			{Scope: catalog.ScopeProgram, RefID: "prog-1", State: "CA"},
		},
		HouseRules: []catalog.HouseRule{
			{LenderID: "lend-1", Directive: catalog.DirectiveExclude, Confidence: 0.95, Active: true},
		},
	}
	cat, err := catalog.New(doc, "test-v3")
	if err != nil {
		t.Fatal(err)
	}
	eng := newTestEngine(t, Config{
		Catalog:   &countingProvider{cat: cat},
		Scenarios: scenarioStore(70),
	})

	result := evaluate(t, eng, Request{ScenarioID: "scn-1", TenantID: "tenant-a"})
	if len(result.Matches) != 0 {
		t.Errorf("excluded lender's program must not match, got %d matches", len(result.Matches))
	}
}

func TestEvaluate_InvalidRequest(t *testing.T) {
	eng := newTestEngine(t, Config{
		Catalog:   &countingProvider{cat: testCatalog(t)},
		Scenarios: scenarioStore(70),
	})

	tests := []struct {
		name string
		req  Request
	}{
		{"missing tenant", Request{ScenarioID: "scn-1"}},
		{"missing scenario", Request{TenantID: "tenant-a"}},
		{"unknown strategy", Request{
			ScenarioID: "scn-1", TenantID: "tenant-a",
			Options: Options{ScoringStrategy: "bogus"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.Evaluate(context.Background(), tt.req)
			var evalErr *EvaluationFailed
			if !errors.As(err, &evalErr) {
				t.Fatalf("expected *EvaluationFailed, got %v", err)
			}
			if evalErr.Code != CodeInvalidRequest {
				t.Errorf("Code = %v, want invalid_request", evalErr.Code)
			}
			if evalErr.CorrelationID == "" {
				t.Error("expected a correlation ID")
			}
		})
	}
}

func TestRequest_CacheKey(t *testing.T) {
	base := Request{ScenarioID: "scn-1", TenantID: "tenant-a"}

	// Empty and explicit static strategies produce the same key, case aside.
	explicit := base
	explicit.Options.ScoringStrategy = "STATIC"
	if base.CacheKey() != explicit.CacheKey() {
		t.Error("strategy normalization changed the key")
	}

	// Test mode does not participate in the key.
	test := base
	test.Options.TestMode = true
	if base.CacheKey() != test.CacheKey() {
		t.Error("test mode must not change the key")
	}

	weighted := base
	weighted.Options.ScoringStrategy = StrategyWeighted
	if base.CacheKey() == weighted.CacheKey() {
		t.Error("different strategies must produce different keys")
	}

	ab := base
	ab.Options.ABTestID = "exp-7"
	if base.CacheKey() == ab.CacheKey() {
		t.Error("A/B test ID must produce a different key")
	}

	other := base
	other.ScenarioID = "scn-2"
	if base.CacheKey() == other.CacheKey() {
		t.Error("different scenarios must produce different keys")
	}
}
