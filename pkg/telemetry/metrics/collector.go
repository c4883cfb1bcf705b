package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "matchbook"
	subsystem = "core"
)

// Collector owns every Prometheus instrument of the evaluation core.
type Collector struct {
	registry *prometheus.Registry

	evaluationsTotal    *prometheus.CounterVec
	evaluationDuration  prometheus.Histogram
	cacheHitsTotal      prometheus.Counter
	cacheMissesTotal    prometheus.Counter
	admissionRejections *prometheus.CounterVec
	ledgerAppendsTotal  prometheus.Counter
	ledgerVerifyFailed  prometheus.Counter
	errorsTotal         *prometheus.CounterVec
}

// NewCollector creates and registers the instruments. If registry is nil a
// fresh registry is created.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,
		evaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "evaluations_total",
			Help: "Completed evaluations by top-ranked tier",
		}, []string{"tier"}),
		evaluationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name:    "evaluation_duration_seconds",
			Help:    "Wall time of full pipeline evaluations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		cacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "cache_hits_total",
			Help: "Result cache hits",
		}),
		cacheMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "cache_misses_total",
			Help: "Result cache misses",
		}),
		admissionRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "admission_rejections_total",
			Help: "Requests rejected by admission control",
		}, []string{"tenant"}),
		ledgerAppendsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "ledger_appends_total",
			Help: "Audit records appended",
		}),
		ledgerVerifyFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "ledger_verify_failures_total",
			Help: "Audit chain verification failures",
		}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "errors_total",
			Help: "Pipeline failures by component and code",
		}, []string{"component", "code"}),
	}

	registry.MustRegister(
		c.evaluationsTotal,
		c.evaluationDuration,
		c.cacheHitsTotal,
		c.cacheMissesTotal,
		c.admissionRejections,
		c.ledgerAppendsTotal,
		c.ledgerVerifyFailed,
		c.errorsTotal,
	)
	return c
}

// Registry returns the backing registry for HTTP exposure.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// EvaluationCompleted records a finished evaluation and its top tier.
func (c *Collector) EvaluationCompleted(topTier string, d time.Duration) {
	if c == nil {
		return
	}
	c.evaluationsTotal.WithLabelValues(topTier).Inc()
	c.evaluationDuration.Observe(d.Seconds())
}

// CacheHit records a fresh cache hit.
func (c *Collector) CacheHit() {
	if c == nil {
		return
	}
	c.cacheHitsTotal.Inc()
}

// CacheMiss records a cache miss.
func (c *Collector) CacheMiss() {
	if c == nil {
		return
	}
	c.cacheMissesTotal.Inc()
}

// AdmissionRejected records a rate-limited request.
func (c *Collector) AdmissionRejected(tenantID string) {
	if c == nil {
		return
	}
	c.admissionRejections.WithLabelValues(tenantID).Inc()
}

// LedgerAppended records one audit append.
func (c *Collector) LedgerAppended() {
	if c == nil {
		return
	}
	c.ledgerAppendsTotal.Inc()
}

// LedgerVerifyFailed records a chain verification failure.
func (c *Collector) LedgerVerifyFailed() {
	if c == nil {
		return
	}
	c.ledgerVerifyFailed.Inc()
}

// ErrorRecorded records one pipeline failure.
func (c *Collector) ErrorRecorded(component, code string) {
	if c == nil {
		return
	}
	c.errorsTotal.WithLabelValues(component, code).Inc()
}
