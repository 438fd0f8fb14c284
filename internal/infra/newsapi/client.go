// Package newsapi implements the remote article source backed by the NewsAPI v2 HTTP API.
package newsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"newsdesk/internal/domain/entity"
	"newsdesk/internal/infra/connectivity"
	"newsdesk/internal/observability/metrics"
	"newsdesk/internal/observability/tracing"
	"newsdesk/internal/resilience/circuitbreaker"
	"newsdesk/internal/resilience/retry"
)

const (
	endpointTopHeadlines = "top-headlines"
	endpointEverything   = "everything"

	// maxBodyBytes caps a response body read into memory.
	maxBodyBytes = 10 << 20
)

// Config holds the client settings.
type Config struct {
	BaseURL       string
	APIKey        string
	Country       string
	Timeout       time.Duration
	RatePerSec    float64
	RetryAttempts int
}

// Client fetches article lists from NewsAPI.
// Every call checks the connectivity signal first and reports failures as *entity.SourceError.
type Client struct {
	cfg     Config
	http    *http.Client
	signal  connectivity.Signal
	limiter *rate.Limiter
	breaker *circuitbreaker.CircuitBreaker
	retry   retry.Config
}

// New creates a Client. A nil httpClient gets one with cfg.Timeout.
func New(cfg Config, signal connectivity.Signal, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 1
	}

	cbCfg := circuitbreaker.NewsAPIConfig()
	cbCfg.IsSuccessful = countsAsSuccess

	return &Client{
		cfg:     cfg,
		http:    httpClient,
		signal:  signal,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1),
		breaker: circuitbreaker.New(cbCfg),
		retry:   retry.NewsAPIConfig(cfg.RetryAttempts),
	}
}

// Name identifies the source in logs.
func (c *Client) Name() string { return "newsapi" }

// TopHeadlines fetches the current top headlines for the configured country.
func (c *Client) TopHeadlines(ctx context.Context) ([]entity.Article, error) {
	return c.fetch(ctx, endpointTopHeadlines, url.Values{
		"country": {c.cfg.Country},
		"apiKey":  {c.cfg.APIKey},
	})
}

// SearchArticles runs a full-text search sorted by publication date.
// The query is percent-encoded by url.Values, which cannot fail.
func (c *Client) SearchArticles(ctx context.Context, query string) ([]entity.Article, error) {
	return c.fetch(ctx, endpointEverything, url.Values{
		"q":      {query},
		"apiKey": {c.cfg.APIKey},
		"sortBy": {"publishedAt"},
	})
}

func (c *Client) fetch(ctx context.Context, endpoint string, params url.Values) (articles []entity.Article, err error) {
	op := "newsapi." + endpoint
	start := time.Now()
	defer func() {
		metrics.RecordRemoteRequest(endpoint, entity.KindName(err), time.Since(start), len(articles))
	}()

	// 接続がない場合はI/Oを一切行わない
	if !c.signal.Connected() {
		return nil, entity.NewSourceError(entity.ErrNoConnection, op, nil)
	}

	ctx, span := tracing.Start(ctx, op, attribute.String("newsapi.endpoint", endpoint))
	defer func() {
		if err != nil {
			tracing.Fail(span, err, entity.KindName(err))
		} else {
			span.SetAttributes(attribute.Int("newsapi.articles", len(articles)))
		}
		span.End()
	}()

	req, err := c.newRequest(ctx, endpoint, params)
	if err != nil {
		return nil, entity.NewSourceError(entity.ErrInvalidURL, op, err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, entity.NewSourceError(entity.ErrTransport, op, err)
	}

	var body []byte
	err = retry.WithBackoff(ctx, c.retry, func() error {
		return c.breaker.Run(func() error {
			b, err := c.do(req)
			if err != nil {
				return err
			}
			body = b
			return nil
		})
	})
	if err != nil {
		if circuitbreaker.Rejected(err) {
			slog.Warn("newsapi circuit breaker open, request rejected",
				slog.String("endpoint", endpoint),
				slog.String("state", c.breaker.State().String()))
		}
		return nil, entity.NewSourceError(entity.ErrTransport, op, err)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, entity.NewSourceError(entity.ErrNoData, op, nil)
	}

	articles, err = decodeArticles(body)
	if err != nil {
		return nil, entity.NewSourceError(entity.ErrDecode, op, err)
	}
	return articles, nil
}

func (c *Client) newRequest(ctx context.Context, endpoint string, params url.Values) (*http.Request, error) {
	u, err := url.Parse(strings.TrimRight(c.cfg.BaseURL, "/") + "/" + endpoint)
	if err != nil {
		return nil, redact(err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q is not absolute", c.cfg.BaseURL)
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, redact(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "newsdesk/1.0")
	return req, nil
}

// do performs one HTTP round trip and returns the body of a 2xx response.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, redact(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, redact(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := retry.NewHTTPError(resp)
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil && eb.Status == "error" {
			httpErr.Code = eb.Code
			if eb.Message != "" {
				httpErr.Message = eb.Message
			}
		}
		return nil, httpErr
	}
	return body, nil
}

// countsAsSuccess keeps client-side rejections (bad key, bad parameters) from tripping the breaker.
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	var httpErr *retry.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode < 500 && httpErr.StatusCode != http.StatusTooManyRequests
	}
	return false
}

// redact removes the API key from errors that embed the request URL.
func redact(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		ue.URL = redactURL(ue.URL)
	}
	return err
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Has("apiKey") {
		q.Set("apiKey", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
