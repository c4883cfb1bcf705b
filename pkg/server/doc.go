// Package server exposes the evaluation core over HTTP: POST /v1/evaluate,
// GET /healthz, and GET /metrics.
package server
