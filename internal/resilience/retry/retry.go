// Package retry re-runs transient remote failures with exponential backoff.
// A server-sent Retry-After overrides the computed delay when it is longer.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"syscall"
	"time"

	"newsdesk/internal/observability/logging"
)

// Config is a backoff policy.
type Config struct {
	// MaxAttempts includes the first call. Values below 1 mean a single call.
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// JitterFraction adds up to this share of the delay at random (0 to 1).
	JitterFraction float64
}

// NewsAPIConfig is the policy for NewsAPI calls.
// Every request counts against the daily quota, so retries stay few and quick.
func NewsAPIConfig(attempts int) Config {
	return Config{
		MaxAttempts:    attempts,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.2,
	}
}

// FeedFetchConfig is the policy for RSS/Atom downloads.
func FeedFetchConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialDelay:   1 * time.Second,
		MaxDelay:       10 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// WithBackoff calls fn until it succeeds, fails with a non-retryable error,
// or the attempts run out. fn always runs at least once. A non-retryable error
// is returned as is; exhausted retries wrap the last error.
func WithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	attempts := max(cfg.MaxAttempts, 1)
	logger := logging.FromContext(ctx)

	var err error
	delay := cfg.InitialDelay
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil {
			if attempt > 1 {
				logger.Info("operation succeeded after retry", slog.Int("attempt", attempt))
			}
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		wait := max(delay, retryAfter(err))
		logger.Warn("operation failed, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.Duration("delay", wait),
			slog.Any("error", err))

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry aborted: %w", errors.Join(ctx.Err(), err))
		}
		delay = next(delay, cfg)
	}

	if attempts == 1 {
		return err
	}
	return fmt.Errorf("max retry attempts (%d) exceeded: %w", attempts, err)
}

func next(delay time.Duration, cfg Config) time.Duration {
	delay = min(time.Duration(float64(delay)*cfg.Multiplier), cfg.MaxDelay)
	if cfg.JitterFraction <= 0 {
		return delay
	}
	// #nosec G404 -- jitter does not need cryptographic randomness
	return delay + time.Duration(rand.Float64()*float64(delay)*min(cfg.JitterFraction, 1))
}

// IsRetryable reports whether err is transient: timeouts, refused or reset
// connections, 5xx, 429 and 408. Context cancellation never is.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500 ||
			httpErr.StatusCode == http.StatusTooManyRequests ||
			httpErr.StatusCode == http.StatusRequestTimeout
	}
	return false
}

// HTTPError is a non-2xx response.
// Code carries the provider's machine-readable error code when the body had one.
type HTTPError struct {
	StatusCode int
	Code       string
	Message    string
	// RetryAfter is the server-requested wait, zero when absent.
	RetryAfter time.Duration
}

// NewHTTPError builds an HTTPError from a response, reading Retry-After.
func NewHTTPError(resp *http.Response) *HTTPError {
	return &HTTPError{
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
		RetryAfter: ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
	}
}

func (e *HTTPError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("HTTP %d: %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// maxRetryAfter caps a server-requested wait so a hostile header cannot park a load.
const maxRetryAfter = 30 * time.Second

// ParseRetryAfter reads a Retry-After value in seconds or HTTP-date form.
// Invalid or past values yield zero.
func ParseRetryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	var d time.Duration
	if secs, err := strconv.Atoi(v); err == nil {
		d = time.Duration(secs) * time.Second
	} else if at, err := http.ParseTime(v); err == nil {
		d = at.Sub(now)
	}
	return min(max(d, 0), maxRetryAfter)
}

func retryAfter(err error) time.Duration {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.RetryAfter
	}
	return 0
}
