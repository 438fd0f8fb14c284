package event

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"newsdesk/internal/domain/entity"
)

// DefaultStreamBuffer is the channel capacity used when NewStream gets a non-positive size.
const DefaultStreamBuffer = 64

// criticalSendWait bounds how long a LoadFailed or LoadingChanged waits for
// room when the buffer holds nothing that may be evicted.
const criticalSendWait = 250 * time.Millisecond

// Stream is an Observer that converts notifications into Events on a buffered channel.
//
// A full buffer never blocks on ArticlesUpdated or BookmarksUpdated: the oldest
// queued one of those is evicted to make room, or the new one is dropped when
// nothing is evictable. LoadFailed and LoadingChanged are never evicted; when
// the buffer is full of them the publisher waits up to criticalSendWait.
type Stream struct {
	mu      sync.Mutex
	ch      chan Event
	closed  bool
	dropped int
}

// NewStream creates a Stream with the given buffer size.
func NewStream(buffer int) *Stream {
	if buffer <= 0 {
		buffer = DefaultStreamBuffer
	}
	return &Stream{ch: make(chan Event, buffer)}
}

// Events returns the receive side. It is closed by Close.
func (s *Stream) Events() <-chan Event {
	return s.ch
}

// Close stops delivery and closes the channel. Further notifications are ignored.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

// Dropped returns how many events were discarded because the buffer was full.
func (s *Stream) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *Stream) ArticlesUpdated(articles []entity.Article) {
	s.send(Event{Kind: KindArticlesUpdated, Articles: slices.Clone(articles)})
}

func (s *Stream) LoadFailed(err error) {
	s.send(Event{Kind: KindLoadFailed, Err: err})
}

func (s *Stream) LoadingChanged(loading bool) {
	s.send(Event{Kind: KindLoadingChanged, Loading: loading})
}

func (s *Stream) BookmarksUpdated() {
	s.send(Event{Kind: KindBookmarksUpdated})
}

func (s *Stream) send(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- e:
		return
	default:
	}

	if s.evictOne() {
		s.ch <- e // room was just made and only send holds mu
		return
	}
	if !critical(e.Kind) {
		s.drop(e)
		return
	}

	timer := time.NewTimer(criticalSendWait)
	defer timer.Stop()
	select {
	case s.ch <- e:
	case <-timer.C:
		s.drop(e)
	}
}

// critical kinds carry the outcome of an operation and are delivered once each.
func critical(k Kind) bool {
	return k == KindLoadFailed || k == KindLoadingChanged
}

// evictOne removes the oldest queued ArticlesUpdated, else the oldest
// BookmarksUpdated, keeping the order of everything else. Must be called with mu held.
func (s *Stream) evictOne() bool {
	queued := make([]Event, 0, cap(s.ch))
	for drained := false; !drained; {
		select {
		case q := <-s.ch:
			queued = append(queued, q)
		default:
			drained = true
		}
	}

	victim := slices.IndexFunc(queued, func(q Event) bool { return q.Kind == KindArticlesUpdated })
	if victim < 0 {
		victim = slices.IndexFunc(queued, func(q Event) bool { return q.Kind == KindBookmarksUpdated })
	}
	// 受信側が途中で読んだ場合も空きができている
	evicted := victim >= 0 || len(queued) < cap(s.ch)
	if victim >= 0 {
		s.drop(queued[victim])
		queued = slices.Delete(queued, victim, victim+1)
	}
	for _, q := range queued {
		s.ch <- q
	}
	return evicted
}

func (s *Stream) drop(e Event) {
	s.dropped++
	slog.Warn("event stream buffer full, dropping event",
		slog.String("event", string(e.Kind)),
		slog.Int("dropped_total", s.dropped))
}
