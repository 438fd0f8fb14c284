package newsapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdesk/internal/domain/entity"
	"newsdesk/internal/infra/connectivity"
	"newsdesk/internal/resilience/retry"
)

const testKey = "secret-key"

const twoArticles = `{
  "status": "ok",
  "totalResults": 38,
  "articles": [
    {
      "source": {"id": null, "name": "Alpha Times"},
      "author": null,
      "title": "Alpha",
      "urlToImage": null,
      "publishedAt": "2024-01-02T00:00:00Z",
      "content": null,
      "url": "https://a.example/1"
    },
    {
      "source": {"id": "beta", "name": "Beta Daily"},
      "author": "Jane Roe",
      "title": "Beta",
      "urlToImage": "https://b.example/img.png",
      "publishedAt": "2024-01-01T00:00:00Z",
      "content": "body",
      "url": "https://b.example/2"
    }
  ]
}`

type testServer struct {
	*httptest.Server
	calls atomic.Int32
}

func newTestServer(t *testing.T, h http.HandlerFunc) *testServer {
	t.Helper()
	ts := &testServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.calls.Add(1)
		h(w, r)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newTestClient(baseURL string, signal connectivity.Signal, attempts int) *Client {
	return New(Config{
		BaseURL:       baseURL,
		APIKey:        testKey,
		Country:       "us",
		Timeout:       2 * time.Second,
		RatePerSec:    100,
		RetryAttempts: attempts,
	}, signal, nil)
}

/* ───────── 1. 正常系 ───────── */

func TestClient_TopHeadlines(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/top-headlines", r.URL.Path)
		assert.Equal(t, "us", r.URL.Query().Get("country"))
		assert.Equal(t, testKey, r.URL.Query().Get("apiKey"))
		_, _ = w.Write([]byte(twoArticles))
	})

	c := newTestClient(srv.URL, connectivity.Always(true), 1)
	got, err := c.TopHeadlines(context.Background())
	require.NoError(t, err)

	want := []entity.Article{
		{
			Title:       "Alpha",
			PublishedAt: "2024-01-02T00:00:00Z",
			URL:         "https://a.example/1",
			SourceName:  "Alpha Times",
		},
		{
			Title:       "Beta",
			Author:      "Jane Roe",
			ImageURL:    "https://b.example/img.png",
			PublishedAt: "2024-01-01T00:00:00Z",
			Content:     "body",
			URL:         "https://b.example/2",
			SourceName:  "Beta Daily",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("TopHeadlines() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, int32(1), srv.calls.Load())
}

func TestClient_SearchArticles(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/everything", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "go & rust", q.Get("q"))
		assert.Equal(t, "publishedAt", q.Get("sortBy"))
		assert.Equal(t, testKey, q.Get("apiKey"))
		// 予約文字はエンコードされている
		assert.Contains(t, r.URL.RawQuery, "q=go+%26+rust")
		_, _ = w.Write([]byte(`{"status":"ok","totalResults":0,"articles":[]}`))
	})

	c := newTestClient(srv.URL, connectivity.Always(true), 1)
	got, err := c.SearchArticles(context.Background(), "go & rust")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClient_TotalResultsNotChecked(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok","totalResults":999,"articles":[]}`))
	})

	c := newTestClient(srv.URL, connectivity.Always(true), 1)
	got, err := c.TopHeadlines(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 0)
}

/* ───────── 2. 接続ガード ───────── */

func TestClient_NoConnection(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(twoArticles))
	})

	c := newTestClient(srv.URL, connectivity.NewFlag(false), 3)

	_, err := c.TopHeadlines(context.Background())
	assert.ErrorIs(t, err, entity.ErrNoConnection)

	_, err = c.SearchArticles(context.Background(), "anything")
	assert.ErrorIs(t, err, entity.ErrNoConnection)

	// 通信は一度も発生しない
	assert.Equal(t, int32(0), srv.calls.Load())
}

/* ───────── 3. エラー分類 ───────── */

func TestClient_InvalidURL(t *testing.T) {
	for _, base := range []string{"://missing-scheme", "relative/path"} {
		t.Run(base, func(t *testing.T) {
			c := newTestClient(base, connectivity.Always(true), 1)
			_, err := c.TopHeadlines(context.Background())
			assert.Equal(t, entity.ErrInvalidURL, entity.Kind(err))
		})
	}
}

func TestClient_EmptyBody(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	c := newTestClient(srv.URL, connectivity.Always(true), 1)
	_, err := c.TopHeadlines(context.Background())
	assert.Equal(t, entity.ErrNoData, entity.Kind(err))
}

func TestClient_DecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>oops</html>`},
		{"missing status", `{"totalResults":0,"articles":[]}`},
		{"missing totalResults", `{"status":"ok","articles":[]}`},
		{"null articles", `{"status":"ok","totalResults":0,"articles":null}`},
		{"wrong type", `{"status":"ok","totalResults":"many","articles":[]}`},
		{"missing title", `{"status":"ok","totalResults":1,"articles":[{"publishedAt":"x","url":"u","source":{"name":"s"}}]}`},
		{"null url", `{"status":"ok","totalResults":1,"articles":[{"title":"t","publishedAt":"x","url":null,"source":{"name":"s"}}]}`},
		{"missing publishedAt", `{"status":"ok","totalResults":1,"articles":[{"title":"t","url":"u","source":{"name":"s"}}]}`},
		{"missing source name", `{"status":"ok","totalResults":1,"articles":[{"title":"t","publishedAt":"x","url":"u","source":{"id":"s"}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			c := newTestClient(srv.URL, connectivity.Always(true), 1)
			_, err := c.TopHeadlines(context.Background())
			assert.Equal(t, entity.ErrDecode, entity.Kind(err))
		})
	}
}

func TestClient_ErrorStatus(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status":"error","code":"apiKeyInvalid","message":"Your API key is invalid."}`))
	})

	c := newTestClient(srv.URL, connectivity.Always(true), 3)
	_, err := c.TopHeadlines(context.Background())
	require.Error(t, err)
	assert.Equal(t, entity.ErrTransport, entity.Kind(err))

	var httpErr *retry.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	assert.Equal(t, "apiKeyInvalid", httpErr.Code)

	// 4xx はリトライしない
	assert.Equal(t, int32(1), srv.calls.Load())
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var n atomic.Int32
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if n.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(twoArticles))
	})

	c := newTestClient(srv.URL, connectivity.Always(true), 2)
	got, err := c.TopHeadlines(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, int32(2), srv.calls.Load())
}

func TestClient_TransportErrorRedactsKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := newTestClient(base, connectivity.Always(true), 1)
	_, err := c.TopHeadlines(context.Background())
	require.Error(t, err)
	assert.Equal(t, entity.ErrTransport, entity.Kind(err))
	assert.NotContains(t, err.Error(), testKey)
	assert.NotContains(t, entity.Describe(err), testKey)
}

func TestClient_ContextCanceled(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(twoArticles))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestClient(srv.URL, connectivity.Always(true), 1)
	_, err := c.TopHeadlines(ctx)
	assert.Equal(t, entity.ErrTransport, entity.Kind(err))
	assert.ErrorIs(t, err, context.Canceled)
}

/* ───────── 4. 補助関数 ───────── */

func TestCountsAsSuccess(t *testing.T) {
	assert.True(t, countsAsSuccess(nil))
	assert.True(t, countsAsSuccess(&retry.HTTPError{StatusCode: 401}))
	assert.False(t, countsAsSuccess(&retry.HTTPError{StatusCode: 429}))
	assert.False(t, countsAsSuccess(&retry.HTTPError{StatusCode: 503}))
	assert.False(t, countsAsSuccess(errors.New("connection reset")))
}
