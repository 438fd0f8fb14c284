package connectivity

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"

	"newsdesk/pkg/config"
)

// DefaultProbeTimeout bounds a single probe.
const DefaultProbeTimeout = 3 * time.Second

// Monitor keeps a Flag current by probing a URL on a cron schedule.
type Monitor struct {
	flag     *Flag
	client   *http.Client
	probeURL string
	schedule cron.Schedule
	cron     *cron.Cron
}

// NewMonitor creates a monitor for probeURL. schedule accepts cron expressions
// and descriptors such as "@every 15s". A nil client uses a client with DefaultProbeTimeout.
func NewMonitor(flag *Flag, client *http.Client, probeURL, schedule string) (*Monitor, error) {
	sched, err := config.ParseSchedule(schedule)
	if err != nil {
		return nil, fmt.Errorf("connectivity monitor: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: DefaultProbeTimeout}
	}
	return &Monitor{
		flag:     flag,
		client:   client,
		probeURL: probeURL,
		schedule: sched,
		cron:     cron.New(),
	}, nil
}

// Probe runs one check synchronously, updates the flag and returns the observed state.
// Any HTTP response counts as connected; only transport failures count as offline.
func (m *Monitor) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, DefaultProbeTimeout)
	defer cancel()

	up := false
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, m.probeURL, nil)
	if err == nil {
		var resp *http.Response
		resp, err = m.client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			up = true
		}
	}

	if m.flag.Set(up) {
		if up {
			slog.Info("network connectivity restored", slog.String("probe_url", m.probeURL))
		} else {
			slog.Warn("network connectivity lost",
				slog.String("probe_url", m.probeURL),
				slog.Any("error", err))
		}
	}
	return up
}

// Start probes once immediately and then on every schedule tick until Stop.
func (m *Monitor) Start(ctx context.Context) {
	m.Probe(ctx)
	m.cron.Schedule(m.schedule, cron.FuncJob(func() {
		m.Probe(context.WithoutCancel(ctx))
	}))
	m.cron.Start()
}

// Stop halts scheduling and waits for a running probe to finish.
func (m *Monitor) Stop() {
	<-m.cron.Stop().Done()
}
