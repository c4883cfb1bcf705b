// Package logging configures the process-wide structured logger.
//
// Logs are log/slog throughout; this package only builds the handler (JSON,
// text, or tint-colorized console) from configuration and provides helpers
// for attaching evaluation identity to a request-scoped logger.
package logging
