// Package logging provides structured logging utilities with context propagation.
//
// Key features:
//   - JSON (default) and text output
//   - Request, trace and operation IDs propagated through context
//   - LOG_LEVEL driven levels
//
// Example usage:
//
//	logger := logging.NewLogger(cfg.LogLevel)
//	slog.SetDefault(logger)
//
//	ctx = logging.WithOperation(ctx, "load", uuid.NewString())
//	logging.FromContext(ctx).Info("loading headlines")
package logging
