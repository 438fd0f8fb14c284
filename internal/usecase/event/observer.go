// Package event delivers coordinator notifications to registered observers.
//
// Observers are not owned by the hub: a subscriber keeps its unsubscribe
// function and calls it when it goes away. Delivery is synchronous on the
// publishing goroutine, in registration order.
package event

import "newsdesk/internal/domain/entity"

// Observer receives the four notification kinds.
// Implementations must not block; slow consumers should buffer (see Stream).
type Observer interface {
	ArticlesUpdated(articles []entity.Article)
	LoadFailed(err error)
	LoadingChanged(loading bool)
	BookmarksUpdated()
}

// Funcs adapts optional callbacks to Observer. Nil fields are ignored.
type Funcs struct {
	OnArticlesUpdated  func([]entity.Article)
	OnLoadFailed       func(error)
	OnLoadingChanged   func(bool)
	OnBookmarksUpdated func()
}

func (f Funcs) ArticlesUpdated(articles []entity.Article) {
	if f.OnArticlesUpdated != nil {
		f.OnArticlesUpdated(articles)
	}
}

func (f Funcs) LoadFailed(err error) {
	if f.OnLoadFailed != nil {
		f.OnLoadFailed(err)
	}
}

func (f Funcs) LoadingChanged(loading bool) {
	if f.OnLoadingChanged != nil {
		f.OnLoadingChanged(loading)
	}
}

func (f Funcs) BookmarksUpdated() {
	if f.OnBookmarksUpdated != nil {
		f.OnBookmarksUpdated()
	}
}

// Kind names a notification.
type Kind string

const (
	KindArticlesUpdated  Kind = "articles_updated"
	KindLoadFailed       Kind = "load_failed"
	KindLoadingChanged   Kind = "loading_changed"
	KindBookmarksUpdated Kind = "bookmarks_updated"
)

// Event is one notification in value form, as carried by Stream.
type Event struct {
	Kind     Kind
	Articles []entity.Article // KindArticlesUpdated
	Err      error            // KindLoadFailed
	Loading  bool             // KindLoadingChanged
}
