// Package memory provides an in-process ArticleRepository used for ephemeral sessions and tests.
package memory

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"

	"newsdesk/internal/domain/entity"
	"newsdesk/internal/repository"
)

type record struct {
	entity.StoredArticle
	seq int
}

// ArticleRepo keeps articles in a map guarded by a single mutex.
type ArticleRepo struct {
	mu      sync.RWMutex
	byURL   map[string]*record
	nextSeq int
}

func NewArticleRepo() repository.ArticleRepository {
	return &ArticleRepo{byURL: make(map[string]*record)}
}

func (r *ArticleRepo) UpsertArticles(ctx context.Context, articles []entity.Article) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	inserted := 0
	for _, a := range articles {
		if err := entity.ValidateArticle(a); err != nil {
			slog.Warn("skipping invalid article", slog.String("url", a.URL), slog.Any("error", err))
			continue
		}
		if _, ok := r.byURL[a.URL]; ok {
			continue
		}
		r.nextSeq++
		r.byURL[a.URL] = &record{StoredArticle: entity.StoredArticle{Article: a}, seq: r.nextSeq}
		inserted++
	}
	return inserted, nil
}

func (r *ArticleRepo) ListCached(ctx context.Context) ([]entity.StoredArticle, error) {
	return r.list(ctx, func(*record) bool { return true })
}

func (r *ArticleRepo) ListBookmarked(ctx context.Context) ([]entity.StoredArticle, error) {
	return r.list(ctx, func(rec *record) bool { return rec.Bookmarked })
}

func (r *ArticleRepo) ToggleBookmark(ctx context.Context, url string) (bool, bool, error) {
	if err := ctx.Err(); err != nil {
		return false, false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byURL[url]
	if !ok {
		return false, false, nil
	}
	rec.Bookmarked = !rec.Bookmarked
	return rec.Bookmarked, true, nil
}

func (r *ArticleRepo) IsBookmarked(ctx context.Context, url string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byURL[url]
	return ok && rec.Bookmarked, nil
}

func (r *ArticleRepo) CountArticles(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.byURL)), nil
}

// list returns matching records newest first by published_at text, ties in insertion order.
func (r *ArticleRepo) list(ctx context.Context, keep func(*record) bool) ([]entity.StoredArticle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	recs := make([]record, 0, len(r.byURL))
	for _, rec := range r.byURL {
		if keep(rec) {
			recs = append(recs, *rec)
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(recs, func(a, b record) int {
		if c := cmp.Compare(b.PublishedAt, a.PublishedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})

	out := make([]entity.StoredArticle, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.StoredArticle)
	}
	return out, nil
}
