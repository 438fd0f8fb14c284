package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdesk/internal/infra/connectivity"
	"newsdesk/internal/usecase/feed"
)

type fixedCache struct {
	count int64
	open  bool
}

func (c fixedCache) Count(context.Context) int64 { return c.count }
func (c fixedCache) Circuit() (string, bool)     { return "store", c.open }

type fixedView feed.View

func (v fixedView) View() feed.View { return feed.View(v) }

func serveHealth(t *testing.T, h http.Handler) (int, HealthResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))
	return rec.Code, resp
}

func TestHealthHandler_Database(t *testing.T) {
	tests := []struct {
		name       string
		setupMock  func(sqlmock.Sqlmock)
		wantCode   int
		wantStatus string
	}{
		{
			name:       "healthy database",
			setupMock:  func(mock sqlmock.Sqlmock) { mock.ExpectPing() },
			wantCode:   http.StatusOK,
			wantStatus: "healthy",
		},
		{
			name:       "database connection error",
			setupMock:  func(mock sqlmock.Sqlmock) { mock.ExpectPing().WillReturnError(sql.ErrConnDone) },
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
			require.NoError(t, err)
			defer func() { _ = db.Close() }()
			tt.setupMock(mock)

			code, resp := serveHealth(t, &HealthHandler{DB: db, Version: "test-version"})

			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, "test-version", resp.Version)
			assert.NotEmpty(t, resp.Timestamp)
			assert.Contains(t, resp.Checks, "database")
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestHealthHandler_OfflineIsDegraded(t *testing.T) {
	code, resp := serveHealth(t, &HealthHandler{
		Cache:        fixedCache{count: 3},
		Connectivity: connectivity.Always(false),
		Coordinator:  fixedView(feed.View{State: feed.StateFallback}),
	})

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "in-memory store", resp.Checks["database"].Message)
	assert.Equal(t, "degraded", resp.Checks["connectivity"].Status)
	assert.EqualValues(t, 3, resp.Checks["cache"].Details["articles"])
	assert.Equal(t, "fallback", resp.Checks["coordinator"].Details["state"])
}

func TestHealthHandler_AllHealthy(t *testing.T) {
	code, resp := serveHealth(t, &HealthHandler{
		Cache:        fixedCache{},
		Connectivity: connectivity.Always(true),
	})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", resp.Status)
}

func TestHealthHandler_OpenStoreCircuitIsDegraded(t *testing.T) {
	code, resp := serveHealth(t, &HealthHandler{
		Cache:        fixedCache{count: 7, open: true},
		Connectivity: connectivity.Always(true),
	})

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "degraded", resp.Status)
	cache := resp.Checks["cache"]
	assert.Equal(t, "degraded", cache.Status)
	assert.Equal(t, "store", cache.Details["circuit"])
	assert.Equal(t, true, cache.Details["circuit_open"])
	// オープン中は件数を問い合わせない
	assert.NotContains(t, cache.Details, "articles")
}

func TestReadyHandler(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectPing()
	rec := httptest.NewRecorder()
	ReadyHandler{DB: db}.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	mock.ExpectPing().WillReturnError(sql.ErrConnDone)
	rec = httptest.NewRecorder()
	ReadyHandler{DB: db}.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection")

	rec = httptest.NewRecorder()
	ReadyHandler{}.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "memory store is always ready")
}

func TestLiveHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	LiveHandler{}.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}
