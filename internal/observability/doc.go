// Package observability groups the logging, metrics and tracing helpers.
//
// Subpackages:
//   - logging: slog construction and context propagation
//   - metrics: Prometheus collectors for the remote source, cache and sync layers
//   - tracing: OpenTelemetry tracer and HTTP middleware
package observability
