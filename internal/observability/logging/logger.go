package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"newsdesk/internal/handler/http/requestid"
)

// Format selects the slog handler.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// ParseLevel maps a LOG_LEVEL value to a slog level. It accepts the slog names
// (case-insensitive, with offsets such as "info+2") and "warning".
// Anything unparsable is info.
func ParseLevel(s string) slog.Level {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "warning") {
		return slog.LevelWarn
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// NewLogger returns the process logger, JSON on stdout.
func NewLogger(level string) *slog.Logger {
	return New(os.Stdout, level, FormatJSON)
}

// New returns a logger writing format to w. Source positions are added at debug level.
func New(w io.Writer, level string, format Format) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{Level: lvl, AddSource: lvl <= slog.LevelDebug}
	if format == FormatText {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// ForRequest tags logger with the request id and the trace id found in ctx.
// logger is returned unchanged when ctx carries neither.
func ForRequest(ctx context.Context, logger *slog.Logger) *slog.Logger {
	var attrs []any
	if id := requestid.FromContext(ctx); id != "" {
		attrs = append(attrs, slog.String("request_id", id))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs, slog.String("trace_id", sc.TraceID().String()))
	}
	if len(attrs) == 0 {
		return logger
	}
	return logger.With(attrs...)
}

// WithOperation returns a context whose logger tags every entry with the operation name and id.
func WithOperation(ctx context.Context, op, id string) context.Context {
	return WithLogger(ctx, FromContext(ctx).With(slog.String("op", op), slog.String("op_id", id)))
}

type ctxKey struct{}

// FromContext returns the logger stored by WithLogger, or slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}
