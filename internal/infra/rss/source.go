// Package rss implements a remote article source backed by a single RSS/Atom feed.
// It is an alternative to the NewsAPI client for deployments without an API key.
package rss

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"newsdesk/internal/domain/entity"
	"newsdesk/internal/infra/connectivity"
	"newsdesk/internal/observability/metrics"
	"newsdesk/internal/resilience/circuitbreaker"
	"newsdesk/internal/resilience/retry"
)

const maxFeedBytes = 10 << 20

// Source serves top headlines and searches from one feed.
type Source struct {
	feedURL        string
	client         *http.Client
	signal         connectivity.Signal
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// New creates a Source. A nil client gets a 30 second timeout.
func New(feedURL string, signal connectivity.Signal, client *http.Client) *Source {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Source{
		feedURL:        feedURL,
		client:         client,
		signal:         signal,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(),
	}
}

// Name identifies the source in logs.
func (s *Source) Name() string { return "rss" }

// TopHeadlines returns every item of the feed in feed order.
func (s *Source) TopHeadlines(ctx context.Context) ([]entity.Article, error) {
	return s.fetch(ctx, "top-headlines")
}

// SearchArticles returns feed items whose title or text contains query, ignoring case.
func (s *Source) SearchArticles(ctx context.Context, query string) ([]entity.Article, error) {
	all, err := s.fetch(ctx, "search")
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return all, nil
	}
	out := make([]entity.Article, 0, len(all))
	for _, a := range all {
		if strings.Contains(strings.ToLower(a.Title), needle) ||
			strings.Contains(strings.ToLower(a.Content), needle) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Source) fetch(ctx context.Context, endpoint string) (articles []entity.Article, err error) {
	op := "rss." + endpoint
	start := time.Now()
	defer func() {
		metrics.RecordRemoteRequest("rss-"+endpoint, entity.KindName(err), time.Since(start), len(articles))
	}()

	if !s.signal.Connected() {
		return nil, entity.NewSourceError(entity.ErrNoConnection, op, nil)
	}

	u, err := url.Parse(s.feedURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, entity.NewSourceError(entity.ErrInvalidURL, op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, entity.NewSourceError(entity.ErrInvalidURL, op, err)
	}
	req.Header.Set("User-Agent", "newsdesk/1.0")

	var body []byte
	retryErr := retry.WithBackoff(ctx, s.retryConfig, func() error {
		return s.circuitBreaker.Run(func() error {
			b, err := s.download(req)
			if err != nil {
				return err
			}
			body = b
			return nil
		})
	})
	if retryErr != nil {
		if circuitbreaker.Rejected(retryErr) {
			slog.Warn("feed fetch circuit breaker open, request rejected",
				slog.String("service", "feed-fetch"),
				slog.String("url", s.feedURL),
				slog.String("state", s.circuitBreaker.State().String()))
		}
		return nil, entity.NewSourceError(entity.ErrTransport, op, retryErr)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, entity.NewSourceError(entity.ErrNoData, op, nil)
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, entity.NewSourceError(entity.ErrDecode, op, err)
	}
	return toArticles(feed), nil
}

func (s *Source) download(req *http.Request) ([]byte, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, retry.NewHTTPError(resp)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
}

func toArticles(feed *gofeed.Feed) []entity.Article {
	out := make([]entity.Article, 0, len(feed.Items))
	for _, it := range feed.Items {
		// Content優先、なければDescriptionを使用
		content := it.Content
		if content == "" {
			content = it.Description
		}

		a := entity.Article{
			Title:       strings.TrimSpace(it.Title),
			Author:      author(it),
			PublishedAt: published(it),
			Content:     htmlToText(content),
			URL:         strings.TrimSpace(it.Link),
			SourceName:  feed.Title,
		}
		if it.Image != nil {
			a.ImageURL = it.Image.URL
		}
		if err := entity.ValidateArticle(a); err != nil {
			slog.Warn("skipping feed item",
				slog.String("title", a.Title),
				slog.Any("error", err))
			continue
		}
		out = append(out, a)
	}
	return out
}

func author(it *gofeed.Item) string {
	if len(it.Authors) > 0 && it.Authors[0] != nil {
		return it.Authors[0].Name
	}
	return ""
}

// published renders the item date as RFC 3339 in UTC so it sorts with NewsAPI timestamps.
// Unparseable dates are kept verbatim.
func published(it *gofeed.Item) string {
	switch {
	case it.PublishedParsed != nil:
		return it.PublishedParsed.UTC().Format(time.RFC3339)
	case it.UpdatedParsed != nil:
		return it.UpdatedParsed.UTC().Format(time.RFC3339)
	case it.Published != "":
		return it.Published
	default:
		return it.Updated
	}
}

// htmlToText flattens an HTML fragment to whitespace-normalised text.
func htmlToText(s string) string {
	if !strings.Contains(s, "<") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}
