// Package config reads typed settings from the environment.
// A malformed value is logged and replaced by the caller's default so one typo
// never stops the process; Validate-style checks live with the caller.
package config

import (
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Parser converts a trimmed, non-empty environment value.
type Parser[T any] func(string) (T, error)

// Lookup returns the parsed value of key, or def when key is unset, blank or malformed.
func Lookup[T any](key string, def T, parse Parser[T]) T {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		slog.Warn("ignoring malformed environment variable",
			slog.String("key", key),
			slog.String("value", raw),
			slog.Any("default", def),
			slog.String("error", err.Error()))
		return def
	}
	return v
}

// String returns key, or def when unset or blank.
//
//	base := config.String("NEWSAPI_BASE_URL", "https://newsapi.org/v2")
func String(key, def string) string {
	return Lookup(key, def, func(s string) (string, error) { return s, nil })
}

func Int(key string, def int) int {
	return Lookup(key, def, strconv.Atoi)
}

func Float(key string, def float64) float64 {
	return Lookup(key, def, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// Duration accepts time.ParseDuration syntax ("30s", "1h30m").
func Duration(key string, def time.Duration) time.Duration {
	return Lookup(key, def, time.ParseDuration)
}

// Choice lower-cases key and returns it when it is one of allowed.
func Choice(key, def string, allowed ...string) string {
	return Lookup(key, def, func(s string) (string, error) {
		s = strings.ToLower(s)
		if !slices.Contains(allowed, s) {
			return "", &choiceError{allowed: allowed}
		}
		return s, nil
	})
}

// List splits a comma separated value, dropping blank items.
// An unset key or a value with no items yields def.
func List(key string, def []string) []string {
	return Lookup(key, def, func(s string) ([]string, error) {
		var out []string
		for item := range strings.SplitSeq(s, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		if len(out) == 0 {
			return def, nil
		}
		return out, nil
	})
}

type choiceError struct {
	allowed []string
}

func (e *choiceError) Error() string {
	return "must be one of " + strings.Join(e.allowed, ", ")
}
