// Package feed coordinates the remote source, the local cache and the active article set.
package feed

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"newsdesk/internal/domain/entity"
	"newsdesk/internal/observability/logging"
	"newsdesk/internal/observability/metrics"
	"newsdesk/internal/observability/tracing"
	"newsdesk/internal/usecase/event"
)

// fallbackReadTimeout bounds the cache read that replaces a failed load.
const fallbackReadTimeout = 5 * time.Second

// ErrNilDependency is returned by NewCoordinator when a required collaborator is missing.
var ErrNilDependency = errors.New("coordinator dependency is nil")

// Coordinator owns the active article set and the active filter.
//
// Loads and searches are not serialized: when two overlap, the one that
// completes last decides the article set. Readers always see a whole set.
type Coordinator struct {
	remote    RemoteSource
	cache     ArticleCache
	bookmarks Bookmarks
	observer  event.Observer

	mu sync.RWMutex
	// settled is the state reported once no load or search is in flight.
	settled  State
	articles []entity.Article
	filter   string
	filtered []entity.Article
	lastErr  error
	inflight int

	// pending tracks fire-and-forget cache writes.
	pending sync.WaitGroup
}

// NewCoordinator wires the collaborators. observer may be nil.
func NewCoordinator(remote RemoteSource, cache ArticleCache, bookmarks Bookmarks, observer event.Observer) (*Coordinator, error) {
	if remote == nil || cache == nil || bookmarks == nil {
		return nil, ErrNilDependency
	}
	if observer == nil {
		observer = event.Funcs{}
	}
	return &Coordinator{
		remote:    remote,
		cache:     cache,
		bookmarks: bookmarks,
		observer:  observer,
		articles:  []entity.Article{},
		filtered:  []entity.Article{},
	}, nil
}

// Load fetches top headlines. On success the result becomes the article set and
// is written to the cache in the background. On failure the cached articles
// become the set, and both the set and the error are published.
// The returned error is the remote failure, if any.
func (c *Coordinator) Load(ctx context.Context) (View, error) {
	ctx, span := tracing.Start(ctx, "feed.Load")
	defer span.End()
	ctx = logging.WithOperation(ctx, "load", uuid.NewString())
	logger := logging.FromContext(ctx)

	c.begin()
	articles, err := c.remote.TopHeadlines(ctx)

	if err == nil {
		c.persist(ctx, articles)

		filtered := c.finish(func() {
			c.replaceSet(articles)
			c.settled = StateReady
			c.lastErr = nil
		})
		c.observer.LoadingChanged(false)
		c.observer.ArticlesUpdated(filtered)

		metrics.RecordSyncOperation("load", StateReady.String())
		span.SetAttributes(attribute.Int("feed.articles", len(articles)))
		logger.Info("headlines loaded", slog.Int("articles", len(articles)))
		return c.View(), nil
	}

	cached := c.cachedFallback(ctx)
	result := StateFallback
	if len(cached) == 0 {
		result = StateEmpty
	}

	filtered := c.finish(func() {
		c.replaceSet(cached)
		c.settled = result
		c.lastErr = err
	})
	c.observer.LoadingChanged(false)
	c.observer.ArticlesUpdated(filtered)
	c.observer.LoadFailed(err)

	metrics.RecordSyncOperation("load", result.String())
	tracing.Fail(span, err, entity.KindName(err))
	logger.Warn("headline load failed, serving cache",
		slog.String("state", result.String()),
		slog.Int("cached", len(cached)),
		slog.Any("error", err))
	return c.View(), err
}

// Refresh is Load for scheduled callers that only need the error.
func (c *Coordinator) Refresh(ctx context.Context) error {
	_, err := c.Load(ctx)
	return err
}

// Search replaces the article set with the results for query and clears the filter.
// Results are not cached. A failure publishes only the error and leaves the set as it was.
// A blank query re-applies an empty filter to the current set without any I/O.
func (c *Coordinator) Search(ctx context.Context, query string) (View, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		c.Filter("")
		return c.View(), nil
	}

	ctx, span := tracing.Start(ctx, "feed.Search", attribute.Int("feed.query_len", len(query)))
	defer span.End()
	ctx = logging.WithOperation(ctx, "search", uuid.NewString())
	logger := logging.FromContext(ctx)

	c.begin()
	articles, err := c.remote.SearchArticles(ctx, query)

	if err == nil {
		filtered := c.finish(func() {
			c.filter = ""
			c.replaceSet(articles)
			c.settled = StateReady
			c.lastErr = nil
		})
		c.observer.LoadingChanged(false)
		c.observer.ArticlesUpdated(filtered)

		metrics.RecordSyncOperation("search", StateReady.String())
		logger.Info("search completed", slog.String("query", query), slog.Int("articles", len(articles)))
		return c.View(), nil
	}

	c.finish(func() {
		c.lastErr = err
	})
	c.observer.LoadingChanged(false)
	c.observer.LoadFailed(err)

	metrics.RecordSyncOperation("search", "failed")
	tracing.Fail(span, err, entity.KindName(err))
	logger.Warn("search failed", slog.String("query", query), slog.Any("error", err))
	return c.View(), err
}

// Filter sets the active filter and returns the articles whose title contains
// text, ignoring case. An empty text matches everything.
func (c *Coordinator) Filter(text string) []entity.Article {
	c.mu.Lock()
	c.filter = text
	c.filtered = applyFilter(c.articles, text)
	filtered := slices.Clone(c.filtered)
	c.mu.Unlock()

	c.observer.ArticlesUpdated(filtered)
	return filtered
}

// ToggleBookmark flips the bookmark of article and returns the new flag.
// The article set is not touched.
func (c *Coordinator) ToggleBookmark(ctx context.Context, article entity.Article) bool {
	return c.bookmarks.Toggle(ctx, article.Key())
}

func (c *Coordinator) IsBookmarked(ctx context.Context, article entity.Article) bool {
	return c.bookmarks.IsBookmarked(ctx, article.Key())
}

// View returns a snapshot of the current state.
func (c *Coordinator) View() View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return View{
		State:     c.stateLocked(),
		Articles:  slices.Clone(c.articles),
		Filtered:  slices.Clone(c.filtered),
		Filter:    c.filter,
		Loading:   c.inflight > 0,
		LastError: c.lastErr,
	}
}

// Flush waits for background cache writes started by Load.
func (c *Coordinator) Flush() {
	c.pending.Wait()
}

// Close waits for pending cache writes. The coordinator holds no other resources.
func (c *Coordinator) Close() error {
	c.Flush()
	return nil
}

// begin enters Loading and publishes LoadingChanged(true).
func (c *Coordinator) begin() {
	c.mu.Lock()
	c.inflight++
	c.mu.Unlock()

	c.observer.LoadingChanged(true)
}

// stateLocked is Loading while any operation is in flight, else the settled state.
// Must be called with mu held.
func (c *Coordinator) stateLocked() State {
	if c.inflight > 0 {
		return StateLoading
	}
	return c.settled
}

// cachedFallback reads the cache after a failed load. The caller's context is
// usually the reason the load failed, so the read gets its own deadline.
func (c *Coordinator) cachedFallback(ctx context.Context) []entity.Article {
	readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fallbackReadTimeout)
	defer cancel()
	return c.cache.CachedArticles(readCtx)
}

// finish applies mutate under the write lock and returns a copy of the filtered set.
func (c *Coordinator) finish(mutate func()) []entity.Article {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--
	mutate()
	return slices.Clone(c.filtered)
}

// replaceSet must be called with mu held.
func (c *Coordinator) replaceSet(articles []entity.Article) {
	c.articles = slices.Clone(articles)
	if c.articles == nil {
		c.articles = []entity.Article{}
	}
	c.filtered = applyFilter(c.articles, c.filter)
}

// persist writes headlines to the cache without blocking the caller.
func (c *Coordinator) persist(ctx context.Context, articles []entity.Article) {
	batch := slices.Clone(articles)
	bg := context.WithoutCancel(ctx)

	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		n := c.cache.UpsertArticles(bg, batch)
		logging.FromContext(bg).Debug("headlines persisted",
			slog.Int("received", len(batch)),
			slog.Int("inserted", n))
	}()
}

func applyFilter(articles []entity.Article, text string) []entity.Article {
	if text == "" {
		return slices.Clone(articles)
	}
	needle := strings.ToLower(text)
	out := make([]entity.Article, 0, len(articles))
	for _, a := range articles {
		if strings.Contains(strings.ToLower(a.Title), needle) {
			out = append(out, a)
		}
	}
	return out
}
