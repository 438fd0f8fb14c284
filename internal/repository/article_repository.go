// Package repository defines the persistence ports implemented by the storage adapters.
package repository

import (
	"context"

	"newsdesk/internal/domain/entity"
)

// ArticleRepository persists articles keyed by URL together with a bookmark flag.
//
// Write semantics are insert-only: an article whose URL is already stored is
// left untouched, including its bookmark flag. The only mutation of an existing
// row is ToggleBookmark.
type ArticleRepository interface {
	// UpsertArticles inserts every article whose URL is not yet stored with
	// bookmarked=false. Existing rows are never updated. Duplicate URLs inside
	// one batch are written once (first occurrence wins).
	// Returns the number of rows actually inserted.
	UpsertArticles(ctx context.Context, articles []entity.Article) (int, error)
	// ListCached returns all rows ordered by published_at DESC (text order).
	ListCached(ctx context.Context) ([]entity.StoredArticle, error)
	// ListBookmarked returns bookmarked rows with the same ordering as ListCached.
	ListBookmarked(ctx context.Context) ([]entity.StoredArticle, error)
	// ToggleBookmark flips the flag of the row with the given URL in one statement
	// and returns the flag that statement wrote. found is false (and err nil)
	// when no such row exists.
	ToggleBookmark(ctx context.Context, url string) (bookmarked, found bool, err error)
	IsBookmarked(ctx context.Context, url string) (bool, error)
	CountArticles(ctx context.Context) (int64, error)
}
