package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"matchbook-hq/matchbook/pkg/catalog"
	"matchbook-hq/matchbook/pkg/ledger"
	"matchbook-hq/matchbook/pkg/scenario"
	"matchbook-hq/matchbook/pkg/telemetry/logging"
	"matchbook-hq/matchbook/pkg/telemetry/metrics"
)

// CatalogProvider yields the current immutable catalog snapshot. Hot-reload
// sources swap snapshots atomically; a single evaluation reads exactly one.
type CatalogProvider interface {
	Snapshot() *catalog.Catalog
}

// Admitter gates requests per tenant before any evaluation work begins.
type Admitter interface {
	Allow(tenantID string) bool
}

// ResultCache is the engine's view of the result cache: raw payload in, raw
// payload out, so a hit is byte-identical to the original computation.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, payload []byte) error
	Delete(ctx context.Context, key string) error
}

// Recorder appends audit records. Satisfied by *ledger.Ledger.
type Recorder interface {
	Append(ctx context.Context, p ledger.Payload) (*ledger.Record, error)
}

// Config wires an Engine's collaborators.
type Config struct {
	// Catalog provides program catalog snapshots. Required.
	Catalog CatalogProvider

	// Scenarios provides scenarios and exception grants. Required.
	Scenarios scenario.Store

	// Admission gates requests per tenant. Optional; nil admits everything.
	Admission Admitter

	// Cache is the result cache. Optional; nil disables caching.
	Cache ResultCache

	// Ledger records evaluations. Optional; nil disables auditing.
	Ledger Recorder

	// Metrics is the telemetry collector. Nil records nothing.
	Metrics *metrics.Collector

	// Logger receives pipeline logs. Nil uses slog.Default.
	Logger *slog.Logger

	// Parallelism bounds concurrent per-program evaluation within one
	// request. Zero selects GOMAXPROCS.
	Parallelism int
}

// Engine runs the evaluation pipeline. It is safe for concurrent use; each
// Evaluate call is an independent unit of work.
type Engine struct {
	catalogs    CatalogProvider
	scenarios   scenario.Store
	admission   Admitter
	cache       ResultCache
	recorder    Recorder
	collector   *metrics.Collector
	logger      *slog.Logger
	validate    *validator.Validate
	strategies  map[string]Strategy
	remediator  *Remediator
	parallelism int
	now         func() time.Time
}

// New creates an engine from the config.
func New(cfg Config) (*Engine, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("engine: catalog provider is required")
	}
	if cfg.Scenarios == nil {
		return nil, errors.New("engine: scenario store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	parallelism := cfg.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}

	return &Engine{
		catalogs:    cfg.Catalog,
		scenarios:   cfg.Scenarios,
		admission:   cfg.Admission,
		cache:       cfg.Cache,
		recorder:    cfg.Ledger,
		collector:   cfg.Metrics,
		logger:      logger.With("component", "engine"),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		strategies:  defaultStrategies(),
		remediator:  NewRemediator(cfg.Cache, SlogErrorLog{Logger: logger}, logger),
		parallelism: parallelism,
		now:         time.Now,
	}, nil
}

// Remediator exposes the error handler for action overrides.
func (e *Engine) Remediator() *Remediator { return e.remediator }

// Evaluate runs the full pipeline for one request and returns the ranked
// result. Failure conditions surface as ErrRateLimitExceeded,
// ErrScenarioNotFound, or *EvaluationFailed wrapping the original cause
// after one remediation attempt.
func (e *Engine) Evaluate(ctx context.Context, req Request) (*Result, error) {
	start := e.now()
	logger := logging.WithEvaluation(e.logger, req.TenantID, req.ScenarioID)

	if err := e.validate.Struct(req); err != nil {
		e.collector.ErrorRecorded("engine", string(CodeInvalidRequest))
		return nil, e.remediator.Handle(ctx, Failure{
			CorrelationID: uuid.NewString(),
			Component:     "engine",
			Code:          CodeInvalidRequest,
			ScenarioID:    req.ScenarioID,
			TenantID:      req.TenantID,
			Err:           err,
		})
	}

	// Admission runs before any work. Test runs bypass it.
	if !req.Options.TestMode && e.admission != nil {
		if !e.admission.Allow(req.TenantID) {
			e.collector.AdmissionRejected(req.TenantID)
			logger.WarnContext(ctx, "request rejected by admission control")
			return nil, fmt.Errorf("tenant %s: %w", req.TenantID, ErrRateLimitExceeded)
		}
	}

	cacheKey := req.CacheKey()

	// Cache lookup short-circuits the whole pipeline. Test runs never read.
	if !req.Options.TestMode && e.cache != nil {
		payload, hit, err := e.cache.Get(ctx, cacheKey)
		if err != nil {
			// A broken cache read degrades to a miss; the failure is still
			// logged and remediated (flush) without failing the request.
			e.collector.ErrorRecorded("cache", string(CodeCacheRead))
			e.remediator.Handle(ctx, e.failure(CodeCacheRead, "cache", req, cacheKey, err))
		} else if hit {
			var cached Result
			if err := json.Unmarshal(payload, &cached); err == nil {
				e.collector.CacheHit()
				logger.DebugContext(ctx, "cache hit", "key", cacheKey)
				return &cached, nil
			}
		}
		e.collector.CacheMiss()
	}

	result, err := e.evaluatePipeline(ctx, logger, req)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		e.collector.ErrorRecorded("engine", string(CodeScoring))
		return nil, e.remediator.Handle(ctx, e.failure(CodeScoring, "engine", req, cacheKey, err))
	}

	// Audit before caching: a result that was never recorded must not be
	// served from the cache later.
	if e.recorder != nil {
		opts, _ := json.Marshal(req.Options)
		if _, err := e.recorder.Append(ctx, ledger.Payload{
			ScenarioID:     req.ScenarioID,
			TenantID:       req.TenantID,
			Options:        opts,
			Result:         payload,
			CatalogVersion: result.CatalogVersion,
		}); err != nil {
			e.collector.ErrorRecorded("ledger", string(CodeLedgerAppend))
			return nil, e.remediator.Handle(ctx, e.failure(CodeLedgerAppend, "ledger", req, cacheKey, err))
		}
		e.collector.LedgerAppended()
	}

	// Test runs never populate the cache.
	if !req.Options.TestMode && e.cache != nil {
		if err := e.cache.Put(ctx, cacheKey, payload); err != nil {
			e.collector.ErrorRecorded("cache", string(CodeCacheWrite))
			e.remediator.Handle(ctx, e.failure(CodeCacheWrite, "cache", req, cacheKey, err))
		}
	}

	topTier := "none"
	if len(result.Matches) > 0 {
		topTier = string(result.Matches[0].Tier)
	}
	e.collector.EvaluationCompleted(topTier, e.now().Sub(start))
	logger.InfoContext(ctx, "evaluation complete",
		"matches", len(result.Matches), "top_tier", topTier,
		"duration", e.now().Sub(start))

	return result, nil
}

// evaluatePipeline runs coverage, criteria, exceptions, scoring, and ranking
// against one catalog snapshot.
func (e *Engine) evaluatePipeline(ctx context.Context, logger *slog.Logger, req Request) (*Result, error) {
	sc, err := e.scenarios.Scenario(ctx, req.ScenarioID)
	if err != nil {
		if errors.Is(err, scenario.ErrNotFound) {
			logger.WarnContext(ctx, "scenario has no answers on file",
				"correlation_id", uuid.NewString())
			return nil, fmt.Errorf("scenario %s: %w", req.ScenarioID, ErrScenarioNotFound)
		}
		e.collector.ErrorRecorded("scenario", string(CodeScenarioLoad))
		return nil, e.remediator.Handle(ctx, e.failure(CodeScenarioLoad, "scenario", req, "", err))
	}

	grants, err := e.scenarios.Grants(ctx, req.ScenarioID)
	if err != nil {
		e.collector.ErrorRecorded("scenario", string(CodeScenarioLoad))
		return nil, e.remediator.Handle(ctx, e.failure(CodeScenarioLoad, "scenario", req, "", err))
	}

	now := e.now()
	snapshot := e.catalogs.Snapshot()

	// Coverage and house rules prune the candidate set before any scoring.
	var eligible []eligibleProgram
	for _, p := range snapshot.Programs(now) {
		if snapshot.LenderExcluded(p.LenderID) {
			continue
		}
		cov := resolveCoverage(snapshot, p, sc.State, sc.Metro)
		if !cov.Eligible {
			logger.DebugContext(ctx, "program not covered",
				"program_id", p.ID, "source", cov.Source)
			continue
		}
		eligible = append(eligible, eligibleProgram{program: p, coverage: cov})
	}

	strategyName := strings.ToLower(req.Options.ScoringStrategy)
	if strategyName == "" {
		strategyName = StrategyStatic
	}
	strategy, ok := e.strategies[strategyName]
	if !ok {
		err := fmt.Errorf("unknown scoring strategy %q", strategyName)
		e.collector.ErrorRecorded("engine", string(CodeInvalidRequest))
		return nil, e.remediator.Handle(ctx, e.failure(CodeInvalidRequest, "engine", req, "", err))
	}

	matches := make([]Match, len(eligible))
	var g errgroup.Group
	g.SetLimit(e.parallelism)
	var failMu sync.Mutex
	var failErr error
	for i := range eligible {
		g.Go(func() error {
			m, err := e.scoreProgram(snapshot, eligible[i], sc, grants, strategy, now)
			if err != nil {
				failMu.Lock()
				if failErr == nil {
					failErr = err
				}
				failMu.Unlock()
				return err
			}
			matches[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.collector.ErrorRecorded("engine", string(CodeScoring))
		return nil, e.remediator.Handle(ctx, e.failure(CodeScoring, "engine", req, "", failErr))
	}

	sortMatches(matches)

	return &Result{
		ScenarioID:     req.ScenarioID,
		TenantID:       req.TenantID,
		CatalogVersion: snapshot.Version,
		EvaluatedAt:    now.UTC(),
		Matches:        matches,
	}, nil
}

type eligibleProgram struct {
	program  catalog.Program
	coverage coverageDecision
}

// scoreProgram evaluates one eligible program end to end: criteria bands,
// exception coverage, confidence score, pattern bonus, tier, rationale.
func (e *Engine) scoreProgram(snapshot *catalog.Catalog, ep eligibleProgram, sc *scenario.Scenario,
	grants []scenario.ExceptionGrant, strategy Strategy, now time.Time) (Match, error) {

	p := ep.program
	lender, ok := snapshot.Lender(p.LenderID)
	if !ok {
		return Match{}, fmt.Errorf("program %s: lender %s missing from snapshot", p.ID, p.LenderID)
	}

	out := evaluateCriteria(p, sc, ep.coverage.MaxLTV)
	covered := exceptionsCover(grants, p.ID, out.HardFailures, now)

	model := snapshot.ActiveModel(strategy.Name())
	modelName := ""
	if model != nil {
		modelName = model.Name
	}

	raw := clamp(strategy.Score(ScoreInput{
		Total:        out.Total,
		HardPass:     out.HardPass,
		SoftFailures: len(out.SoftFailures),
		LenderRating: lender.Rating,
		Model:        model,
	}), 0, 100)

	var bonus float64
	var patternDetail *PatternDetail
	if pattern, ok := snapshot.BestPattern(p.ID, sc.State); ok {
		bonus = patternBonus(pattern)
		patternDetail = &PatternDetail{
			State:       pattern.State,
			SuccessRate: pattern.SuccessRate,
			Samples:     pattern.Samples,
			Bonus:       bonus,
		}
	}

	confidence := round1(clamp(raw+bonus, 0, 100))
	tier := assignTier(out, covered, confidence, lender.Rating)

	return Match{
		LenderName:     lender.Name,
		ProgramName:    p.Name,
		ProgramID:      p.ID,
		ProgramVersion: p.Version,
		HardPassCount:  out.HardPass,
		TotalCriteria:  out.Total,
		Confidence:     confidence,
		Tier:           tier,
		LenderRating:   lender.Rating,
		Rationale:      rationale(tier, out, confidence, lender.Rating),
		ScoringDetail: ScoringDetail{
			Strategy:     strategy.Name(),
			Model:        modelName,
			RawScore:     round1(raw),
			PatternBonus: round1(bonus),
			FinalScore:   confidence,
		},
		PatternDetail:    patternDetail,
		ImprovementHints: improvementHints(out.HardFailures, out.SoftFailures),
		HardFailures:     out.HardFailures,
		SoftFailures:     out.SoftFailures,
	}, nil
}

func (e *Engine) failure(code Code, component string, req Request, cacheKey string, err error) Failure {
	return Failure{
		CorrelationID: uuid.NewString(),
		Component:     component,
		Code:          code,
		ScenarioID:    req.ScenarioID,
		TenantID:      req.TenantID,
		CacheKey:      cacheKey,
		Err:           err,
	}
}
