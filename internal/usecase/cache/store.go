// Package cache is the article store seen by the rest of the application.
//
// It wraps a repository.ArticleRepository and absorbs every storage failure:
// errors are logged and counted, then reported as an empty result or a no-op.
// Callers therefore cannot tell "nothing stored" from "storage unavailable".
package cache

import (
	"context"
	"log/slog"
	"time"

	"newsdesk/internal/domain/entity"
	"newsdesk/internal/observability/logging"
	"newsdesk/internal/observability/metrics"
	"newsdesk/internal/repository"
	"newsdesk/internal/resilience/circuitbreaker"
)

// Store is safe for concurrent use when the underlying repository is.
type Store struct {
	repo    repository.ArticleRepository
	breaker *circuitbreaker.CircuitBreaker
}

// NewStore wraps repo with the store circuit breaker.
func NewStore(repo repository.ArticleRepository) *Store {
	return &Store{
		repo:    repo,
		breaker: circuitbreaker.New(circuitbreaker.StoreConfig()),
	}
}

// UpsertArticles inserts articles whose URL is not yet stored and returns how many were written.
// Existing records, including their bookmark flags, are left untouched.
func (s *Store) UpsertArticles(ctx context.Context, articles []entity.Article) int {
	if len(articles) == 0 {
		return 0
	}
	n, ok := call(ctx, s, "upsert", func() (int, error) {
		return s.repo.UpsertArticles(ctx, articles)
	})
	if !ok {
		return 0
	}
	metrics.RecordArticlesInserted(n)
	if total, ok := call(ctx, s, "count", func() (int64, error) {
		return s.repo.CountArticles(ctx)
	}); ok {
		metrics.UpdateArticlesCached(total)
	}
	logging.FromContext(ctx).Debug("articles cached",
		slog.Int("received", len(articles)),
		slog.Int("inserted", n))
	return n
}

// CachedArticles returns every stored article, newest publishedAt first.
func (s *Store) CachedArticles(ctx context.Context) []entity.Article {
	records, _ := call(ctx, s, "list_cached", func() ([]entity.StoredArticle, error) {
		return s.repo.ListCached(ctx)
	})
	return entity.Articles(records)
}

// BookmarkedArticles returns bookmarked records, newest publishedAt first.
func (s *Store) BookmarkedArticles(ctx context.Context) []entity.StoredArticle {
	records, _ := call(ctx, s, "list_bookmarked", func() ([]entity.StoredArticle, error) {
		return s.repo.ListBookmarked(ctx)
	})
	return nonNil(records)
}

// ToggleBookmark flips the bookmark flag of the stored article with url and
// returns the flag written. found is false for an unknown url or a storage
// failure; nothing changes in either case.
func (s *Store) ToggleBookmark(ctx context.Context, url string) (bookmarked, found bool) {
	type result struct{ bookmarked, found bool }
	r, ok := call(ctx, s, "toggle_bookmark", func() (result, error) {
		b, f, err := s.repo.ToggleBookmark(ctx, url)
		return result{b, f}, err
	})
	if ok && !r.found {
		logging.FromContext(ctx).Debug("toggle ignored, article not cached",
			slog.String("url", url))
	}
	return r.bookmarked, r.found
}

// IsBookmarked reports the stored flag; false when the url is unknown or storage failed.
func (s *Store) IsBookmarked(ctx context.Context, url string) bool {
	b, _ := call(ctx, s, "is_bookmarked", func() (bool, error) {
		return s.repo.IsBookmarked(ctx, url)
	})
	return b
}

// Count returns the number of stored articles, 0 on failure.
func (s *Store) Count(ctx context.Context) int64 {
	n, _ := call(ctx, s, "count", func() (int64, error) {
		return s.repo.CountArticles(ctx)
	})
	return n
}

// Circuit names the store breaker and reports whether it is refusing calls.
func (s *Store) Circuit() (name string, open bool) {
	return s.breaker.Name(), s.breaker.IsOpen()
}

// call runs fn through the breaker and converts any failure into (zero, false).
func call[T any](ctx context.Context, s *Store, op string, fn func() (T, error)) (T, bool) {
	var zero T
	start := time.Now()
	v, err := circuitbreaker.Do(s.breaker, fn)
	metrics.RecordStoreOperation(op, time.Since(start))
	if err != nil {
		metrics.RecordStorageError(op)
		attrs := []any{
			slog.String("op", op),
			slog.Any("error", entity.NewSourceError(entity.ErrStorage, "cache."+op, err)),
		}
		if circuitbreaker.Rejected(err) {
			attrs = append(attrs, slog.String("state", s.breaker.State().String()))
		}
		logging.FromContext(ctx).Error("storage operation failed", attrs...)
		return zero, false
	}
	return v, true
}

func nonNil(records []entity.StoredArticle) []entity.StoredArticle {
	if records == nil {
		return []entity.StoredArticle{}
	}
	return records
}
