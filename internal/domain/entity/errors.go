package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain layer operations.
var (
	// ErrNotFound indicates that a requested entity was not found
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrValidationFailed indicates that validation checks have failed
	ErrValidationFailed = errors.New("validation failed")
)

// Failure kinds reported by the remote source and the store.
// Exactly one kind is attached to every failed remote call.
var (
	// ErrNoConnection indicates the connectivity signal was false; no I/O was attempted.
	ErrNoConnection = errors.New("no internet connection")

	// ErrInvalidURL indicates the request URL could not be built.
	ErrInvalidURL = errors.New("invalid request url")

	// ErrNoData indicates the transport succeeded but the response body was empty.
	ErrNoData = errors.New("no data received")

	// ErrTransport wraps any lower-level network failure.
	ErrTransport = errors.New("network request failed")

	// ErrDecode indicates the response body was not a valid article-list envelope.
	ErrDecode = errors.New("failed to decode response")

	// ErrStorage indicates a local storage failure. It never leaves the store layer.
	ErrStorage = errors.New("storage error")
)

// kinds lists the classification order used by Kind.
var kinds = []error{ErrNoConnection, ErrInvalidURL, ErrNoData, ErrDecode, ErrStorage, ErrTransport}

// ValidationError represents a validation error with detailed field information.
// It implements the error interface and provides context about which field failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Is lets errors.Is match ValidationError against ErrValidationFailed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// SourceError is a classified failure of a remote or storage operation.
// Kind is one of the failure sentinels above; Err is the underlying cause (may be nil).
type SourceError struct {
	Kind error
	Op   string
	Err  error
}

// NewSourceError builds a SourceError for the given kind and cause.
func NewSourceError(kind error, op string, err error) *SourceError {
	return &SourceError{Kind: kind, Op: op, Err: err}
}

// Error returns "op: kind: cause".
func (e *SourceError) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *SourceError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Kind classifies err into exactly one failure kind.
// Unknown errors are reported as ErrTransport; nil stays nil.
func Kind(err error) error {
	if err == nil {
		return nil
	}
	var se *SourceError
	if errors.As(err, &se) && se.Kind != nil {
		return se.Kind
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrTransport
}

// Describe returns a human-readable description for the presentation layer.
func Describe(err error) string {
	switch Kind(err) {
	case nil:
		return ""
	case ErrNoConnection:
		return "No internet connection."
	case ErrInvalidURL:
		return "The request could not be built."
	case ErrNoData:
		return "The server returned no data."
	case ErrDecode:
		return "The server response could not be read."
	case ErrStorage:
		return "Saved articles are unavailable."
	default:
		return "Network error: " + err.Error()
	}
}

// KindName returns a short label for the kind of err, suitable for metrics.
func KindName(err error) string {
	switch Kind(err) {
	case nil:
		return "success"
	case ErrNoConnection:
		return "no_connection"
	case ErrInvalidURL:
		return "invalid_url"
	case ErrNoData:
		return "no_data"
	case ErrDecode:
		return "decode"
	case ErrStorage:
		return "storage"
	default:
		return "transport"
	}
}
