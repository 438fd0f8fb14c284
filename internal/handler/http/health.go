// Package http provides the JSON API that drives the article coordinator:
// routing, middleware, health checks and the Prometheus endpoint.
package http

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"newsdesk/internal/handler/http/respond"
	"newsdesk/internal/infra/connectivity"
	"newsdesk/internal/usecase/feed"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// HealthResponse is the JSON body of /health.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version"`
}

// CheckStatus is the result of one health check.
type CheckStatus struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// CacheStatus reports how many articles are cached and whether the store circuit is open.
type CacheStatus interface {
	Count(ctx context.Context) int64
	Circuit() (name string, open bool)
}

// CoordinatorView exposes the coordinator snapshot.
type CoordinatorView interface {
	View() feed.View
}

// HealthHandler reports database, cache, connectivity and coordinator status.
// Being offline is reported as degraded, not unhealthy: the cache keeps serving.
type HealthHandler struct {
	DB           *sql.DB // nil for the in-memory store
	Cache        CacheStatus
	Connectivity connectivity.Signal
	Coordinator  CoordinatorView
	Version      string
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]CheckStatus)
	if h.DB != nil {
		checks["database"] = checkDatabase(ctx, h.DB)
	} else {
		checks["database"] = CheckStatus{Status: statusHealthy, Message: "in-memory store"}
	}
	if h.Cache != nil {
		checks["cache"] = checkCache(ctx, h.Cache)
	}
	if h.Connectivity != nil {
		if h.Connectivity.Connected() {
			checks["connectivity"] = CheckStatus{Status: statusHealthy}
		} else {
			checks["connectivity"] = CheckStatus{Status: statusDegraded, Message: "offline, serving cached articles"}
		}
	}
	if h.Coordinator != nil {
		v := h.Coordinator.View()
		checks["coordinator"] = CheckStatus{
			Status: statusHealthy,
			Details: map[string]any{
				"state":    v.State.String(),
				"loading":  v.Loading,
				"articles": len(v.Articles),
			},
		}
	}

	status, code := statusHealthy, http.StatusOK
	for _, c := range checks {
		switch c.Status {
		case statusUnhealthy:
			status, code = statusUnhealthy, http.StatusServiceUnavailable
		case statusDegraded:
			if status == statusHealthy {
				status = statusDegraded
			}
		}
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respond.JSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	})
}

// checkCache reports the cached article count. An open store circuit is
// degraded: loads still work but nothing is cached or read back.
func checkCache(ctx context.Context, c CacheStatus) CheckStatus {
	name, open := c.Circuit()
	details := map[string]any{"circuit": name, "circuit_open": open}
	if open {
		return CheckStatus{Status: statusDegraded, Message: "store circuit open, cache unavailable", Details: details}
	}
	details["articles"] = c.Count(ctx)
	return CheckStatus{Status: statusHealthy, Details: details}
}

// checkDatabase pings db and reports pool statistics.
func checkDatabase(ctx context.Context, db *sql.DB) CheckStatus {
	if err := db.PingContext(ctx); err != nil {
		return CheckStatus{Status: statusUnhealthy, Message: respond.SanitizeError(err)}
	}

	stats := db.Stats()
	details := map[string]any{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}

	// sqliteは書き込み接続1本なので使用率は判定しない
	if stats.MaxOpenConnections > 1 {
		utilization := float64(stats.InUse) / float64(stats.MaxOpenConnections) * 100
		details["utilization_percent"] = utilization
		if utilization >= 80.0 {
			return CheckStatus{Status: statusDegraded, Message: "connection pool utilization above 80%", Details: details}
		}
	}
	return CheckStatus{Status: statusHealthy, Details: details}
}

// ReadyHandler answers 200 once the store is reachable.
type ReadyHandler struct {
	DB *sql.DB
}

func (h ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.DB != nil {
		if err := h.DB.PingContext(ctx); err != nil {
			respond.JSON(w, http.StatusServiceUnavailable, respond.ErrorBody{Error: "database not ready"})
			return
		}
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// LiveHandler always answers 200 while the process serves requests.
type LiveHandler struct{}

func (LiveHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "alive"})
}
