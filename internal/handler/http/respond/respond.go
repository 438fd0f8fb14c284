// Package respond writes JSON responses and maps errors to safe client messages.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"newsdesk/internal/domain/entity"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			// ヘッダー送信後なのでログのみ
			slog.Default().Error("failed to encode JSON response",
				slog.Int("status_code", code),
				slog.Any("error", err))
		}
	}
}

// SafeError writes err when its message is safe to show (validation-style
// messages on 4xx). Anything else becomes "internal server error" and is logged.
func SafeError(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}
	msg := err.Error()
	if code < 500 && (errors.Is(err, entity.ErrValidationFailed) || errors.Is(err, entity.ErrInvalidInput) || looksSafe(msg)) {
		JSON(w, code, ErrorBody{Error: msg})
		return
	}
	slog.Default().Error("internal server error",
		slog.String("status", http.StatusText(code)),
		slog.Int("code", code),
		slog.String("error", SanitizeError(err)))
	JSON(w, code, ErrorBody{Error: "internal server error"})
}

// SourceError writes a classified remote failure using its human-readable description.
func SourceError(w http.ResponseWriter, err error) {
	JSON(w, StatusFor(err), ErrorBody{
		Error: SanitizeString(entity.Describe(err)),
		Kind:  entity.KindName(err),
	})
}

// StatusFor maps a failure kind to an HTTP status.
func StatusFor(err error) int {
	switch entity.Kind(err) {
	case nil:
		return http.StatusOK
	case entity.ErrNoConnection:
		return http.StatusServiceUnavailable
	case entity.ErrInvalidURL, entity.ErrStorage:
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

func looksSafe(msg string) bool {
	lower := strings.ToLower(msg)
	for _, s := range []string{"required", "invalid", "not found", "must be", "too long"} {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
