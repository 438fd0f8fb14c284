// Package connectivity supplies the boolean network signal consulted before every remote call.
package connectivity

import (
	"sync/atomic"

	"newsdesk/internal/observability/metrics"
)

// Signal reports whether the network is currently usable.
// It is read once at the start of each remote request; later changes do not affect a request in flight.
type Signal interface {
	Connected() bool
}

// Flag is a Signal whose value is pushed by its owner. The zero value is disconnected.
type Flag struct {
	up atomic.Bool
}

// NewFlag returns a Flag with the given initial value.
func NewFlag(initial bool) *Flag {
	f := &Flag{}
	f.Set(initial)
	return f
}

func (f *Flag) Connected() bool { return f.up.Load() }

// Set stores the value and reports whether it changed.
func (f *Flag) Set(up bool) bool {
	metrics.SetConnected(up)
	return f.up.Swap(up) != up
}

// Always is a Signal that never changes.
type Always bool

func (a Always) Connected() bool { return bool(a) }
