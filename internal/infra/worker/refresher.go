// Package worker runs the scheduled headline refresh that keeps the offline cache warm.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"newsdesk/pkg/config"
)

// Job is the work run on every tick.
type Job interface {
	Refresh(ctx context.Context) error
}

// Config controls the refresh schedule.
type Config struct {
	// Schedule is a cron expression or descriptor such as "@every 10m".
	Schedule string
	// Timezone is an IANA name. Empty means UTC.
	Timezone string
	// Timeout bounds a single run.
	Timeout time.Duration
}

// Refresher runs a Job on a cron schedule. A tick that fires while the previous
// run is still going is skipped.
type Refresher struct {
	job      Job
	cfg      Config
	schedule cron.Schedule
	metrics  *Metrics
	logger   *slog.Logger
	cron     *cron.Cron
}

// NewRefresher validates cfg and prepares the scheduler. Nothing runs until Start.
func NewRefresher(job Job, cfg Config, metrics *Metrics, logger *slog.Logger) (*Refresher, error) {
	if job == nil {
		return nil, errors.New("NewRefresher: nil job")
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("NewRefresher: timeout must be positive, got %v", cfg.Timeout)
	}
	sched, err := config.ParseSchedule(cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("NewRefresher: %w", err)
	}
	loc := time.UTC
	if cfg.Timezone != "" {
		loc, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("NewRefresher: timezone %q: %w", cfg.Timezone, err)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Refresher{
		job:      job,
		cfg:      cfg,
		schedule: sched,
		metrics:  metrics,
		logger:   logger,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
	}, nil
}

// RunOnce performs one refresh bounded by the configured timeout.
func (r *Refresher) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	startTime := time.Now()
	r.logger.Info("refresh started")

	err := r.job.Refresh(ctx)
	duration := time.Since(startTime)
	if r.metrics != nil {
		r.metrics.RecordDuration(duration.Seconds())
	}
	if err != nil {
		if r.metrics != nil {
			r.metrics.RecordRun("failure")
		}
		r.logger.Warn("refresh failed",
			slog.Any("error", err),
			slog.Duration("duration", duration))
		return err
	}

	if r.metrics != nil {
		r.metrics.RecordRun("success")
		r.metrics.RecordLastSuccess()
	}
	r.logger.Info("refresh completed", slog.Duration("duration", duration))
	return nil
}

// Start begins scheduling in the background. Runs see ctx, so cancelling it
// aborts a refresh in flight. Start must be called at most once.
func (r *Refresher) Start(ctx context.Context) {
	r.cron.Schedule(r.schedule, cron.FuncJob(func() {
		// 結果はRunOnceがログとメトリクスに残す
		_ = r.RunOnce(ctx)
	}))
	r.cron.Start()
	r.logger.Info("scheduled refresh started",
		slog.String("schedule", r.cfg.Schedule),
		slog.String("timezone", r.cfg.Timezone))
}

// Stop halts scheduling and waits for a running refresh to finish.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
	r.logger.Info("scheduled refresh stopped")
}
