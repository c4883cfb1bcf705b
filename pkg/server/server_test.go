package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"matchbook-hq/matchbook/pkg/catalog"
	"matchbook-hq/matchbook/pkg/config"
	"matchbook-hq/matchbook/pkg/engine"
	"matchbook-hq/matchbook/pkg/scenario"
	"matchbook-hq/matchbook/pkg/telemetry/metrics"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type staticProvider struct{ cat *catalog.Catalog }

func (p staticProvider) Snapshot() *catalog.Catalog { return p.cat }

type denyAllAdmitter struct{}

func (denyAllAdmitter) Allow(string) bool { return false }

func newTestServer(t *testing.T, admitter engine.Admitter) *Server {
	t.Helper()

	doc := &catalog.Document{
		Lenders: []catalog.Lender{
			{ID: "lend-1", Name: "First Capital", Active: true, Rating: 92},
		},
		Programs: []catalog.Program{
			{
				ID: "prog-1", LenderID: "lend-1", Name: "Bridge", Version: 1, Active: true,
				Criteria: []catalog.Criterion{{
					ID: "crit-ltv", Name: "Loan-to-value ratio", QuestionID: scenario.QuestionLTV,
					DataType: catalog.DataTypeNumber,
					Hard:     &catalog.Band{Min: 0, Max: 80},
					Active:   true,
				}},
			},
		},
		Coverage: []catalog.CoverageRule{
			{Scope: catalog.ScopeProgram, RefID: "prog-1", State: "CA"},
		},
	}
	cat, err := catalog.New(doc, "test-v1")
	if err != nil {
		t.Fatal(err)
	}

	store := scenario.NewMemoryStore()
	store.Put(&scenario.Scenario{
		ID: "scn-1", State: "CA", LoanAmount: 280000,
		Answers: map[string]scenario.Value{scenario.QuestionLTV: scenario.Number(70)},
	})

	eng, err := engine.New(engine.Config{
		Catalog:   staticProvider{cat: cat},
		Scenarios: store,
		Admission: admitter,
		Logger:    quietLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}

	return New(config.ServerConfig{ListenAddress: "127.0.0.1:0"}, eng,
		metrics.NewCollector(nil), quietLogger())
}

func postEvaluate(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.httpSrv.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleEvaluate_OK(t *testing.T) {
	s := newTestServer(t, nil)

	rec := postEvaluate(t, s, `{"scenario_id":"scn-1","tenant_id":"tenant-a"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var result engine.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if result.ScenarioID != "scn-1" || len(result.Matches) != 1 {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestHandleEvaluate_ScenarioNotFound(t *testing.T) {
	s := newTestServer(t, nil)

	rec := postEvaluate(t, s, `{"scenario_id":"ghost","tenant_id":"tenant-a"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var resp struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != "scenario_not_found" {
		t.Errorf("code = %q", resp.Code)
	}
}

func TestHandleEvaluate_RateLimited(t *testing.T) {
	s := newTestServer(t, denyAllAdmitter{})

	rec := postEvaluate(t, s, `{"scenario_id":"scn-1","tenant_id":"tenant-a"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", rec.Header().Get("Retry-After"))
	}
}

func TestHandleEvaluate_MalformedBody(t *testing.T) {
	s := newTestServer(t, nil)

	rec := postEvaluate(t, s, `{"scenario_id":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleEvaluate_InvalidRequestIs500(t *testing.T) {
	s := newTestServer(t, nil)

	// Well-formed JSON failing engine validation surfaces as a wrapped
	// evaluation failure, not a transport-level 400.
	rec := postEvaluate(t, s, `{"scenario_id":"scn-1"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestHandleHealthz(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.httpSrv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q", body["status"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.httpSrv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestEvaluateRejectsGet(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/evaluate", nil)
	rec := httptest.NewRecorder()
	s.httpSrv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}
