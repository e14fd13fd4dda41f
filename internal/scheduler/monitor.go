package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/siddharthpatel001/client-health-monitor/internal/domain"
	"github.com/siddharthpatel001/client-health-monitor/internal/notify"
	"github.com/siddharthpatel001/client-health-monitor/internal/probe"
	"github.com/siddharthpatel001/client-health-monitor/internal/repo"
)

// Prober runs the full probe set for one host. Satisfied by *probe.Suite.
type Prober interface {
	Run(ctx context.Context, host string) probe.Verdict
}

// Monitor is the periodic driver: every Interval it probes all tracked
// clients, evaluates the alert cooldown per row, and commits the cycle's
// status mutations in one batch.
type Monitor struct {
	Logger      *zap.Logger
	Clients     repo.ClientStore
	Prober      Prober
	Notifier    notify.Notifier
	Cooldown    time.Duration
	Interval    time.Duration
	Concurrency int

	started atomic.Bool
	active  atomic.Bool
}

func NewMonitor(
	logger *zap.Logger,
	clients repo.ClientStore,
	prober Prober,
	notifier notify.Notifier,
	cooldown time.Duration,
	interval time.Duration,
	concurrency int,
) *Monitor {
	if concurrency < 1 {
		concurrency = 1
	}
	if cooldown <= 0 {
		cooldown = time.Hour
	}
	return &Monitor{
		Logger:      logger,
		Clients:     clients,
		Prober:      prober,
		Notifier:    notifier,
		Cooldown:    cooldown,
		Interval:    interval,
		Concurrency: concurrency,
	}
}

// Running reports scheduler liveness for the process health endpoint.
func (m *Monitor) Running() bool { return m.started.Load() }

// Run starts the loop: an immediate pass, then one per tick. Cycles run
// sequentially in this goroutine; a tick that fires while a cycle is still
// in flight is skipped, never run concurrently. Stops when ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	if m.Interval <= 0 {
		m.Logger.Info("monitor_disabled")
		return
	}
	m.started.Store(true)
	defer m.started.Store(false)

	t := time.NewTicker(m.Interval)
	defer t.Stop()

	m.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			m.Logger.Info("monitor_stopped")
			return
		case <-t.C:
			m.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single monitoring cycle. Guarded so at most one cycle
// is ever active process-wide, even if triggered from outside the loop.
func (m *Monitor) RunOnce(ctx context.Context) {
	if !m.active.CompareAndSwap(false, true) {
		m.Logger.Warn("monitor_cycle_skipped_previous_still_running")
		return
	}
	defer m.active.Store(false)

	clients, err := m.Clients.List(ctx)
	if err != nil {
		m.Logger.Warn("monitor_list_error", zap.Error(err))
		return
	}
	m.Logger.Info("monitor_cycle_start", zap.Int("clients", len(clients)))
	if len(clients) == 0 {
		return
	}

	sem := make(chan struct{}, m.Concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	updates := make([]repo.CycleUpdate, 0, len(clients))
	var clientErrs error

	for _, c := range clients {
		client := c
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			// One bad client must never abort the cycle for the rest.
			defer func() {
				if r := recover(); r != nil {
					m.Logger.Error("monitor_client_panic",
						zap.String("host", client.Host),
						zap.Int64("client_id", client.ID),
						zap.Any("panic", r),
					)
					mu.Lock()
					clientErrs = multierr.Append(clientErrs, fmt.Errorf("client %d: %v", client.ID, r))
					mu.Unlock()
				}
			}()

			u := m.checkClient(ctx, client)
			mu.Lock()
			updates = append(updates, u)
			mu.Unlock()
		}()
	}
	wg.Wait()

	if clientErrs != nil {
		m.Logger.Error("monitor_cycle_client_errors", zap.Error(clientErrs))
	}

	// Single atomic commit for the whole cycle; on failure the store rolls
	// back and the next cycle starts clean.
	if err := m.Clients.ApplyCycle(ctx, updates); err != nil {
		m.Logger.Error("monitor_commit_failed", zap.Error(err))
		return
	}
	m.Logger.Info("monitor_cycle_done", zap.Int("updated", len(updates)))
}

func (m *Monitor) checkClient(ctx context.Context, c *domain.TrackedClient) repo.CycleUpdate {
	v := m.Prober.Run(ctx, c.Host)
	now := time.Now().UTC()

	u := repo.CycleUpdate{
		ID:          c.ID,
		Ping:        domain.FromReachable(v.Ping.Success),
		SSH:         domain.FromReachable(v.SSH.Success),
		Service:     domain.FromReachable(v.Service.Success),
		LastUpdated: now,
	}

	issues := v.Issues()
	if len(issues) == 0 {
		if c.LastAlertSent != nil {
			m.Logger.Info("client_recovered", zap.String("host", c.Host), zap.String("recipient", c.Email))
		}
		u.LastAlertSent = nil
		return u
	}

	// Degraded. Carry the existing stamp forward unless the cooldown expired.
	u.LastAlertSent = c.LastAlertSent

	cooled := true
	if c.LastAlertSent != nil {
		cooled = now.Sub(*c.LastAlertSent) > m.Cooldown
	}
	if !cooled {
		m.Logger.Debug("alert_cooldown_active",
			zap.String("host", c.Host),
			zap.Duration("since_last_alert", now.Sub(*c.LastAlertSent)),
		)
		return u
	}

	m.Logger.Warn("alert_dispatch",
		zap.String("host", c.Host),
		zap.String("recipient", c.Email),
		zap.Strings("issues", issues),
	)
	if err := m.Notifier.Notify(ctx, notify.Alert{Host: c.Host, Recipient: c.Email, Issues: issues}); err != nil {
		// Best-effort: log and move on. The stamp below resets the cooldown
		// window even for a failed send, so a broken transport stays quiet
		// for a full cooldown rather than retrying every cycle.
		m.Logger.Error("alert_dispatch_failed",
			zap.String("host", c.Host),
			zap.String("recipient", c.Email),
			zap.Error(err),
		)
	}
	ts := now
	u.LastAlertSent = &ts
	return u
}
