package event

import (
	"log/slog"
	"runtime/debug"
	"slices"
	"sync"

	"newsdesk/internal/domain/entity"
)

type registration struct {
	id       uint64
	observer Observer
}

// Hub fans notifications out to subscribed observers. It is itself an Observer,
// so publishers depend only on the Observer interface.
// The zero value is ready to use.
type Hub struct {
	mu        sync.RWMutex
	nextID    uint64
	observers []registration
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{}
}

// Subscribe registers o and returns a function that removes it.
// The returned function is safe to call more than once.
func (h *Hub) Subscribe(o Observer) (unsubscribe func()) {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.observers = append(h.observers, registration{id: id, observer: o})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.observers = slices.DeleteFunc(h.observers, func(r registration) bool {
				return r.id == id
			})
		})
	}
}

// Len returns the number of subscribed observers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.observers)
}

func (h *Hub) ArticlesUpdated(articles []entity.Article) {
	h.publish(KindArticlesUpdated, func(o Observer) {
		// 各購読者に独立したコピーを渡す
		o.ArticlesUpdated(slices.Clone(articles))
	})
}

func (h *Hub) LoadFailed(err error) {
	h.publish(KindLoadFailed, func(o Observer) { o.LoadFailed(err) })
}

func (h *Hub) LoadingChanged(loading bool) {
	h.publish(KindLoadingChanged, func(o Observer) { o.LoadingChanged(loading) })
}

func (h *Hub) BookmarksUpdated() {
	h.publish(KindBookmarksUpdated, func(o Observer) { o.BookmarksUpdated() })
}

// publish delivers to a snapshot of the observers taken under the read lock,
// so observers may subscribe or unsubscribe from inside a callback.
func (h *Hub) publish(kind Kind, deliver func(Observer)) {
	h.mu.RLock()
	snapshot := slices.Clone(h.observers)
	h.mu.RUnlock()

	for _, r := range snapshot {
		h.deliver(kind, r, deliver)
	}
}

func (h *Hub) deliver(kind Kind, r registration, deliver func(Observer)) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("Panic in event observer",
				slog.String("event", string(kind)),
				slog.Uint64("observer_id", r.id),
				slog.Any("panic", p),
				slog.String("stack", string(debug.Stack())))
		}
	}()
	deliver(r.observer)
}
