package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/idlekit/internal/core/domain"
	"github.com/custodia-labs/idlekit/internal/core/ports/driven"
	"github.com/custodia-labs/idlekit/internal/core/ports/driving"
	"github.com/custodia-labs/idlekit/internal/logger"
	"github.com/custodia-labs/idlekit/internal/metrics"
)

// Ensure Launcher implements the interface.
var _ driving.AutoIdleLauncher = (*Launcher)(nil)

// LauncherConfig holds the readiness and retry timings of the launcher.
type LauncherConfig struct {
	Retry         domain.RetryPolicy
	ReadyPoll     time.Duration
	ReadyTimeout  time.Duration
	PostReadyWait time.Duration
}

// DefaultLauncherConfig returns the production timings.
func DefaultLauncherConfig() LauncherConfig {
	return LauncherConfig{
		Retry:         domain.DefaultRetryPolicy(),
		ReadyPoll:     10 * time.Second,
		ReadyTimeout:  5 * time.Minute,
		PostReadyWait: 15 * time.Second,
	}
}

// Launcher starts the auto-idle list once the host is ready.
type Launcher struct {
	host     driven.Host
	registry driving.SessionRegistry
	lists    driven.ListStore
	identity driven.IdentityProvider
	clock    clockwork.Clock
	config   LauncherConfig
	report   reporter
}

// NewLauncher creates an auto-idle launcher.
func NewLauncher(
	host driven.Host,
	registry driving.SessionRegistry,
	lists driven.ListStore,
	identity driven.IdentityProvider,
	clock clockwork.Clock,
	config LauncherConfig,
	diag driven.DiagnosticSink,
) *Launcher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Launcher{
		host:     host,
		registry: registry,
		lists:    lists,
		identity: identity,
		clock:    clock,
		config:   config,
		report:   reporter{diag: diag},
	}
}

// Trigger launches the auto-idle list. A manual trigger with an empty list
// reports domain.ErrNoTitles; an automatic one returns an empty report.
// Launch failures never produce an error.
func (l *Launcher) Trigger(ctx context.Context, manual bool) (*domain.LaunchReport, error) {
	if l.host == nil || l.registry == nil || l.lists == nil || l.identity == nil {
		return nil, domain.ErrNotImplemented
	}

	id, err := l.identity.Current(ctx)
	if err != nil {
		return nil, err
	}
	titles, err := l.lists.GetList(ctx, id, domain.ListAutoIdle)
	if err != nil {
		return nil, fmt.Errorf("read auto-idle list: %w", err)
	}
	titles = domain.CapTitles(titles, domain.MaxConcurrentSessions)

	report := &domain.LaunchReport{Configured: titles}
	if len(titles) == 0 {
		if manual {
			return report, domain.ErrNoTitles
		}
		return report, nil
	}

	waited, err := l.awaitReady(ctx)
	if err != nil {
		return report, err
	}
	if !waited.ready {
		l.report.Printf("auto-idle: host not ready after %s, giving up", l.config.ReadyTimeout)
		report.GaveUp = true
		return report, nil
	}
	if waited.polled {
		if err := sleep(ctx, l.clock, l.config.PostReadyWait); err != nil {
			return report, err
		}
	}

	running, err := l.host.ListRunning(ctx)
	if err != nil {
		return report, fmt.Errorf("list running: %w", err)
	}
	pending := domain.ExcludeRunning(titles, running)
	for _, t := range titles {
		if domain.ContainsID(running, t.ID) {
			report.AlreadyRunning = append(report.AlreadyRunning, t)
		}
	}

	outcome, err := retryBatch(ctx, l.clock, l.config.Retry, pending, l.launch, l.host.ListRunning)
	report.Started = outcome.Confirmed
	report.Failed = outcome.Pending
	report.Attempts = outcome.Attempts
	if err != nil {
		return report, err
	}

	if len(outcome.Pending) > 0 {
		metrics.LaunchExhausted.WithLabelValues("auto_idle").Add(float64(len(outcome.Pending)))
		l.report.Printf("auto-idle: giving up on %v after %d attempts", domain.TitleIDs(outcome.Pending), outcome.Attempts)
	}
	logger.Info("auto-idle: %d started, %d already running, %d failed",
		len(report.Started), len(report.AlreadyRunning), len(report.Failed))
	return report, nil
}

type readiness struct {
	ready  bool
	polled bool
}

// awaitReady polls the host until it is ready or the timeout elapses.
func (l *Launcher) awaitReady(ctx context.Context) (readiness, error) {
	var state readiness
	deadline := l.clock.Now().Add(l.config.ReadyTimeout)
	for {
		ready, err := l.host.IsReady(ctx)
		if err != nil {
			logger.Debug("auto-idle: readiness check failed: %v", err)
		}
		if ready {
			state.ready = true
			return state, nil
		}
		if !l.clock.Now().Before(deadline) {
			return state, nil
		}
		state.polled = true
		if err := sleep(ctx, l.clock, l.config.ReadyPoll); err != nil {
			return state, err
		}
	}
}

// launch starts every pending title concurrently.
func (l *Launcher) launch(ctx context.Context, attempt int, pending []domain.Title) {
	metrics.LaunchAttempts.WithLabelValues("auto_idle").Inc()

	var mu sync.Mutex
	var failed []error
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range pending {
		g.Go(func() error {
			if _, err := l.registry.Start(gctx, t, false); err != nil {
				mu.Lock()
				failed = append(failed, err)
				mu.Unlock()
				l.report.Printf("auto-idle: attempt %d: failed to start %s: %v", attempt, t, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) > 0 {
		logger.Debug("auto-idle: attempt %d: %v", attempt, errors.Join(failed...))
	}
}
