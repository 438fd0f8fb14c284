package feed

import "newsdesk/internal/domain/entity"

// State is the coordinator's position in Idle -> Loading -> {Ready, Fallback, Empty}.
type State int

const (
	StateIdle State = iota
	StateLoading
	// StateReady: the article set came from the network.
	StateReady
	// StateFallback: the load failed and the set came from the cache.
	StateFallback
	// StateEmpty: the load failed and the cache had nothing.
	StateEmpty
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFallback:
		return "fallback"
	case StateEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// View is a consistent snapshot of the coordinator. Slices are copies.
type View struct {
	State     State
	Articles  []entity.Article
	Filtered  []entity.Article
	Filter    string
	Loading   bool
	LastError error
}
