// Package circuitbreaker guards remote sources and the local store with sony/gobreaker.
// Every state change is logged and exported as newsdesk_circuit_breaker_open{circuit}.
package circuitbreaker

import (
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"newsdesk/internal/observability/metrics"
)

// ErrOpenState is returned while the circuit is open.
var ErrOpenState = gobreaker.ErrOpenState

// ErrTooManyRequests is returned when the half-open probe quota is used up.
var ErrTooManyRequests = gobreaker.ErrTooManyRequests

// Config describes one circuit.
type Config struct {
	Name string
	// MaxRequests is the number of probes allowed while half-open.
	MaxRequests uint32
	// Interval clears the closed-state counts. Zero never clears them.
	Interval time.Duration
	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration
	// FailureThreshold trips the circuit at this failure ratio (0.6 = 60%)
	// once MinRequests calls have been counted.
	FailureThreshold float64
	MinRequests      uint32
	// IsSuccessful, when set, decides whether a returned error still counts as
	// a success. Remote sources use it so a rejected API key does not open the circuit.
	IsSuccessful func(err error) bool
}

// NewsAPIConfig is the NewsAPI circuit.
func NewsAPIConfig() Config {
	return Config{
		Name:             "newsapi",
		MaxRequests:      2,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// FeedFetchConfig is the RSS/Atom circuit. Feeds are slower to recover, so it stays open longer.
func FeedFetchConfig() Config {
	return Config{
		Name:             "feed-fetch",
		MaxRequests:      5,
		Interval:         60 * time.Second,
		Timeout:          120 * time.Second,
		FailureThreshold: 0.7,
		MinRequests:      10,
	}
}

// StoreConfig is the local store circuit.
// It opens after 5 consecutive failures so a dead database degrades immediately.
func StoreConfig() Config {
	return Config{
		Name:             "store",
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 1.0,
		MinRequests:      5,
	}
}

// CircuitBreaker is a named gobreaker circuit.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	name    string
}

// New creates a closed circuit.
func New(cfg Config) *CircuitBreaker {
	settings := gobreaker.Settings{
		Name:         cfg.Name,
		MaxRequests:  cfg.MaxRequests,
		Interval:     cfg.Interval,
		Timeout:      cfg.Timeout,
		IsSuccessful: cfg.IsSuccessful,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
			metrics.SetCircuitOpen(name, to == gobreaker.StateOpen)
		},
	}
	metrics.SetCircuitOpen(cfg.Name, false)

	return &CircuitBreaker{
		breaker: gobreaker.NewCircuitBreaker(settings),
		name:    cfg.Name,
	}
}

// Do runs fn through cb and returns its typed result.
func Do[T any](cb *CircuitBreaker, fn func() (T, error)) (T, error) {
	res, err := cb.breaker.Execute(func() (any, error) {
		return fn()
	})
	v, _ := res.(T)
	return v, err
}

// Run runs fn through the circuit.
func (cb *CircuitBreaker) Run(fn func() error) error {
	_, err := cb.breaker.Execute(func() (any, error) {
		return nil, fn()
	})
	return err
}

// Rejected reports whether err means the circuit refused the call without running it.
func Rejected(err error) bool {
	return errors.Is(err, ErrOpenState) || errors.Is(err, ErrTooManyRequests)
}

func (cb *CircuitBreaker) State() gobreaker.State {
	return cb.breaker.State()
}

func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// IsOpen reports whether calls are currently refused.
func (cb *CircuitBreaker) IsOpen() bool {
	return cb.breaker.State() == gobreaker.StateOpen
}
