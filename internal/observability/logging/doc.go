// Package logging provides structured logging utilities with context propagation.
//
// This package wraps the standard library's log/slog package with helper functions
// for the patterns used by the batch job and the scheduler:
//   - JSON and text output formats
//   - Per-run ID propagation
//   - Context-aware logging
//   - Masking of API keys and webhook tokens in logged errors
//
// Example usage:
//
//	logger := logging.NewLogger()
//	ctx := logging.WithLogger(context.Background(), logger)
//	ctx = logging.WithRunID(ctx, logging.NewRunID())
//	logging.FromContext(ctx).Info("run started")
package logging
