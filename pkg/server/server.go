package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"matchbook-hq/matchbook/pkg/config"
	"matchbook-hq/matchbook/pkg/engine"
	"matchbook-hq/matchbook/pkg/telemetry/metrics"
)

// Server is the HTTP surface over the evaluation engine.
type Server struct {
	engine  *engine.Engine
	metrics *metrics.Collector
	logger  *slog.Logger
	httpSrv *http.Server
}

// New creates a server from the config and collaborators.
func New(cfg config.ServerConfig, eng *engine.Engine, collector *metrics.Collector, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine:  eng,
		metrics: collector,
		logger:  logger.With("component", "server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/evaluate", s.handleEvaluate)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	if collector != nil {
		mux.Handle("GET /metrics", collector.Handler())
	}

	s.httpSrv = &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// ListenAndServe blocks serving HTTP until Shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", "address", s.httpSrv.Addr)
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// errorResponse is the JSON error body.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req engine.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: "malformed request body", Code: "bad_request",
		})
		return
	}

	result, err := s.engine.Evaluate(r.Context(), req)
	if err != nil {
		s.writeEvaluateError(w, r, req, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) writeEvaluateError(w http.ResponseWriter, r *http.Request, req engine.Request, err error) {
	switch {
	case errors.Is(err, engine.ErrRateLimitExceeded):
		w.Header().Set("Retry-After", "60")
		writeJSON(w, http.StatusTooManyRequests, errorResponse{
			Error: err.Error(), Code: "rate_limit_exceeded",
		})
	case errors.Is(err, engine.ErrScenarioNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error: err.Error(), Code: "scenario_not_found",
		})
	default:
		var evalErr *engine.EvaluationFailed
		code := "evaluation_failed"
		if errors.As(err, &evalErr) {
			s.logger.ErrorContext(r.Context(), "evaluation failed",
				"correlation_id", evalErr.CorrelationID,
				"scenario_id", req.ScenarioID,
				"tenant_id", req.TenantID,
			)
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error: "evaluation failed", Code: code,
		})
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
