package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"newsdesk/internal/handler/http/article"
	"newsdesk/internal/handler/http/bookmark"
	"newsdesk/internal/handler/http/events"
	"newsdesk/internal/handler/http/requestid"
	"newsdesk/internal/observability/tracing"
)

// Deps are the collaborators served by the router.
type Deps struct {
	Articles  article.Coordinator
	Bookmarks bookmark.Service
	Events    events.Subscriber
	Health    http.Handler
	Ready     http.Handler
	Logger    *slog.Logger
	// RequestTimeout bounds the JSON endpoints. The event stream is exempt.
	RequestTimeout time.Duration
	// Heartbeat is the event stream keep-alive interval.
	Heartbeat time.Duration
	// CORSOrigins enables CORS for these origins. Empty disables it.
	CORSOrigins []string
}

// NewRouter builds the HTTP API.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()
	if len(d.CORSOrigins) > 0 {
		r.Use(CORS(DefaultCORSConfig(d.CORSOrigins), logger))
	}
	r.Use(requestid.Middleware)
	r.Use(Recover(logger))
	r.Use(tracing.Middleware)
	r.Use(Metrics)
	r.Use(Logging(logger))
	r.Use(InputValidation)

	r.Handle("/metrics", promhttp.Handler())
	r.Method(http.MethodGet, "/live", LiveHandler{})
	if d.Health != nil {
		r.Method(http.MethodGet, "/health", d.Health)
	}
	if d.Ready != nil {
		r.Method(http.MethodGet, "/ready", d.Ready)
	}
	if d.Events != nil {
		r.Method(http.MethodGet, "/events", events.Handler{Hub: d.Events, Heartbeat: d.Heartbeat})
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(timeout))
		if d.Articles != nil {
			article.Register(r, d.Articles)
		}
		if d.Bookmarks != nil {
			bookmark.Register(r, d.Bookmarks)
		}
	})
	return r
}
