package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"newsdesk/internal/config"
	hhttp "newsdesk/internal/handler/http"
	"newsdesk/internal/handler/http/respond"
	"newsdesk/internal/infra/adapter/persistence/memory"
	"newsdesk/internal/infra/adapter/persistence/postgres"
	"newsdesk/internal/infra/adapter/persistence/sqlite"
	"newsdesk/internal/infra/connectivity"
	"newsdesk/internal/infra/db"
	"newsdesk/internal/infra/newsapi"
	"newsdesk/internal/infra/rss"
	"newsdesk/internal/infra/worker"
	"newsdesk/internal/observability/logging"
	"newsdesk/internal/observability/tracing"
	"newsdesk/internal/repository"
	"newsdesk/internal/usecase/bookmark"
	"newsdesk/internal/usecase/cache"
	"newsdesk/internal/usecase/event"
	"newsdesk/internal/usecase/feed"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("newsdesk stopped with error", slog.Any("error", respond.SanitizeError(err)))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp := tracing.Setup("newsdesk", getVersion())
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shut down tracer provider", slog.Any("error", err))
		}
	}()

	repo, database, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	if database != nil {
		defer func() {
			if err := database.Close(); err != nil {
				logger.Error("failed to close database", slog.Any("error", err))
			}
		}()
	}

	store := cache.NewStore(repo)
	hub := event.NewHub()
	bookmarks := bookmark.NewService(store, hub)

	var (
		online  connectivity.Signal = connectivity.Always(true)
		monitor *connectivity.Monitor
	)
	if cfg.Connectivity.ProbeURL != "" {
		flag := connectivity.NewFlag(true)
		monitor, err = connectivity.NewMonitor(flag, nil, cfg.Connectivity.ProbeURL, cfg.Connectivity.Schedule)
		if err != nil {
			return err
		}
		online = flag
	}

	remote := newRemote(cfg, online, createHTTPClient(cfg.NewsAPI.Timeout))
	coordinator, err := feed.NewCoordinator(remote, store, bookmarks, hub)
	if err != nil {
		return err
	}
	defer func() {
		if err := coordinator.Close(); err != nil {
			logger.Error("failed to close coordinator", slog.Any("error", err))
		}
	}()

	version := getVersion()
	handler := hhttp.NewRouter(hhttp.Deps{
		Articles:  coordinator,
		Bookmarks: bookmarks,
		Events:    hub,
		Health: &hhttp.HealthHandler{
			DB:           database,
			Cache:        store,
			Connectivity: online,
			Coordinator:  coordinator,
			Version:      version,
		},
		Ready:       hhttp.ReadyHandler{DB: database},
		Logger:      logger,
		CORSOrigins: cfg.CORSOrigins,
	})

	g, gctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second, // Prevent Slowloris attacks
		// Event streams end with the base context; Shutdown alone would wait on them.
		BaseContext: func(_ net.Listener) context.Context {
			return gctx
		},
	}

	g.Go(func() error {
		logger.Info("server starting",
			slog.String("addr", cfg.HTTPAddr),
			slog.String("version", version),
			slog.String("source", remote.Name()),
			slog.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", slog.Any("error", err))
		}
		logger.Info("server stopped")
		return nil
	})

	if monitor != nil {
		monitor.Start(gctx)
		logger.Info("connectivity monitor started",
			slog.String("probe_url", cfg.Connectivity.ProbeURL),
			slog.String("schedule", cfg.Connectivity.Schedule))
		g.Go(func() error {
			<-gctx.Done()
			monitor.Stop()
			return nil
		})
	}

	if cfg.RefreshSchedule != "" {
		refresher, err := worker.NewRefresher(coordinator, worker.Config{
			Schedule: cfg.RefreshSchedule,
			Timezone: cfg.RefreshTimezone,
			Timeout:  cfg.RefreshTimeout,
		}, worker.NewMetrics(prometheus.DefaultRegisterer), logger)
		if err != nil {
			return err
		}
		refresher.Start(gctx)
		g.Go(func() error {
			<-gctx.Done()
			refresher.Stop()
			return nil
		})
	}

	// 起動時に一度読み込む。失敗してもキャッシュから表示できる。
	g.Go(func() error {
		if _, err := coordinator.Load(gctx); err != nil {
			logger.Warn("initial load failed", slog.Any("error", respond.SanitizeError(err)))
		}
		return nil
	})

	return g.Wait()
}

// openStore opens the configured backend and applies migrations.
// The returned *sql.DB is nil for the in-memory store.
func openStore(ctx context.Context, cfg config.StoreConfig) (repository.ArticleRepository, *sql.DB, error) {
	if cfg.Driver == config.StoreMemory {
		slog.Warn("using in-memory store, articles are lost on exit")
		return memory.NewArticleRepo(), nil, nil
	}

	database, err := db.Open(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	if err := db.Migrate(ctx, database, cfg.Driver); err != nil {
		_ = database.Close()
		return nil, nil, fmt.Errorf("migrate store: %w", err)
	}

	switch cfg.Driver {
	case config.StorePostgres:
		return postgres.NewArticleRepo(database), database, nil
	default:
		return sqlite.NewArticleRepo(database), database, nil
	}
}

type namedSource interface {
	feed.RemoteSource
	Name() string
}

// newRemote selects the remote source named by cfg.Source.
func newRemote(cfg *config.Config, online connectivity.Signal, client *http.Client) namedSource {
	if cfg.Source == config.SourceRSS {
		return rss.New(cfg.RSSFeedURL, online, client)
	}
	return newsapi.New(newsapi.Config{
		BaseURL:       cfg.NewsAPI.BaseURL,
		APIKey:        cfg.NewsAPI.APIKey,
		Country:       cfg.NewsAPI.Country,
		Timeout:       cfg.NewsAPI.Timeout,
		RatePerSec:    cfg.NewsAPI.RatePerSec,
		RetryAttempts: cfg.NewsAPI.RetryAttempts,
	}, online, client)
}

// createHTTPClient creates an HTTP client with timeouts and connection pooling.
// TLS 1.2+ is enforced.
func createHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}

func getVersion() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	return version
}
