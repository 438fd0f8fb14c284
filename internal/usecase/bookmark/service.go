// Package bookmark manages the bookmark flag of cached articles.
//
// It talks only to the store and never waits on a running load or search.
package bookmark

import (
	"context"
	"log/slog"

	"newsdesk/internal/domain/entity"
	"newsdesk/internal/observability/logging"
)

// Store is the subset of cache.Store used for bookmarks.
type Store interface {
	ToggleBookmark(ctx context.Context, url string) (bookmarked, found bool)
	IsBookmarked(ctx context.Context, url string) bool
	BookmarkedArticles(ctx context.Context) []entity.StoredArticle
}

// Notifier is told when the bookmark set changed.
type Notifier interface {
	BookmarksUpdated()
}

// Service toggles and lists bookmarks.
type Service struct {
	store    Store
	notifier Notifier
}

// NewService creates a Service. notifier may be nil.
func NewService(store Store, notifier Notifier) *Service {
	return &Service{store: store, notifier: notifier}
}

// Toggle flips the bookmark of url and returns the flag this toggle wrote.
// Unknown urls stay unbookmarked, return false and notify nobody.
func (s *Service) Toggle(ctx context.Context, url string) bool {
	now, found := s.store.ToggleBookmark(ctx, url)
	if !found {
		return false
	}

	logging.FromContext(ctx).Info("bookmark toggled",
		slog.String("url", url),
		slog.Bool("bookmarked", now))

	if s.notifier != nil {
		s.notifier.BookmarksUpdated()
	}
	return now
}

func (s *Service) IsBookmarked(ctx context.Context, url string) bool {
	return s.store.IsBookmarked(ctx, url)
}

// List returns bookmarked articles, newest first.
func (s *Service) List(ctx context.Context) []entity.StoredArticle {
	return s.store.BookmarkedArticles(ctx)
}
