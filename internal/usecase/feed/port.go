package feed

import (
	"context"

	"newsdesk/internal/domain/entity"
)

// RemoteSource fetches article lists from the network.
// Implementations check connectivity themselves and classify failures with entity.Kind.
type RemoteSource interface {
	TopHeadlines(ctx context.Context) ([]entity.Article, error)
	SearchArticles(ctx context.Context, query string) ([]entity.Article, error)
}

// ArticleCache is the local store used for persistence and offline fallback.
// It never returns errors; a failing store looks empty.
type ArticleCache interface {
	UpsertArticles(ctx context.Context, articles []entity.Article) int
	CachedArticles(ctx context.Context) []entity.Article
}

// Bookmarks toggles and reads bookmark flags.
type Bookmarks interface {
	Toggle(ctx context.Context, url string) bool
	IsBookmarked(ctx context.Context, url string) bool
}
