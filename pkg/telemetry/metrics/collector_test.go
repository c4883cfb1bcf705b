package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func gather(t *testing.T, c *Collector) map[string]bool {
	t.Helper()
	families, err := c.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	return names
}

func TestCollector_RecordsInstruments(t *testing.T) {
	c := NewCollector(nil)

	c.EvaluationCompleted("silver", 25*time.Millisecond)
	c.CacheHit()
	c.CacheMiss()
	c.AdmissionRejected("tenant-a")
	c.LedgerAppended()
	c.LedgerVerifyFailed()
	c.ErrorRecorded("cache", "cache_read")

	names := gather(t, c)
	for _, want := range []string{
		"matchbook_core_evaluations_total",
		"matchbook_core_evaluation_duration_seconds",
		"matchbook_core_cache_hits_total",
		"matchbook_core_cache_misses_total",
		"matchbook_core_admission_rejections_total",
		"matchbook_core_ledger_appends_total",
		"matchbook_core_ledger_verify_failures_total",
		"matchbook_core_errors_total",
	} {
		if !names[want] {
			t.Errorf("missing metric family %s", want)
		}
	}
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector

	// All recording methods must be no-ops on a nil collector.
	c.EvaluationCompleted("silver", time.Millisecond)
	c.CacheHit()
	c.CacheMiss()
	c.AdmissionRejected("tenant-a")
	c.LedgerAppended()
	c.LedgerVerifyFailed()
	c.ErrorRecorded("engine", "scoring")

	if c.Registry() != nil {
		t.Error("nil collector must report a nil registry")
	}
}

func TestCollector_ExternalRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	if c.Registry() != reg {
		t.Error("collector must register on the supplied registry")
	}
}

func TestHandler_ServesExposition(t *testing.T) {
	c := NewCollector(nil)
	c.CacheHit()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := rec.Body.String(); body == "" {
		t.Error("expected exposition output")
	}
}
