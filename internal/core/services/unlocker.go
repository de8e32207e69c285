package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/custodia-labs/idlekit/internal/core/domain"
	"github.com/custodia-labs/idlekit/internal/core/ports/driven"
	"github.com/custodia-labs/idlekit/internal/core/ports/driving"
	"github.com/custodia-labs/idlekit/internal/logger"
	"github.com/custodia-labs/idlekit/internal/metrics"
)

// Ensure Unlocker implements the interface.
var _ driving.UnlockScheduler = (*Unlocker)(nil)

// UnlockerConfig holds the unlocker timings.
type UnlockerConfig struct {
	InitialDelay time.Duration
	SchedulePoll time.Duration
}

// DefaultUnlockerConfig returns the production timings.
func DefaultUnlockerConfig() UnlockerConfig {
	return UnlockerConfig{
		InitialDelay: 10 * time.Second,
		SchedulePoll: time.Minute,
	}
}

// Unlocker unlocks achievements one at a time on a jittered cadence.
type Unlocker struct {
	registry driving.SessionRegistry
	source   driven.AchievementSource
	orders   driven.AchievementOrderStore
	lists    driven.ListStore
	identity driven.IdentityProvider
	settings driving.SettingsService
	launcher driving.AutoIdleLauncher
	farming  driving.FarmingOrchestrator
	clock    clockwork.Clock
	config   UnlockerConfig
	report   reporter

	rngMu sync.Mutex
	rng   *rand.Rand

	mu     sync.Mutex
	state  domain.UnlockState
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewUnlocker creates an unlock scheduler. launcher and farming are the
// optional follow-up tasks and may be nil.
func NewUnlocker(
	registry driving.SessionRegistry,
	source driven.AchievementSource,
	orders driven.AchievementOrderStore,
	lists driven.ListStore,
	identity driven.IdentityProvider,
	settings driving.SettingsService,
	launcher driving.AutoIdleLauncher,
	farming driving.FarmingOrchestrator,
	clock clockwork.Clock,
	config UnlockerConfig,
	diag driven.DiagnosticSink,
) *Unlocker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Unlocker{
		registry: registry,
		source:   source,
		orders:   orders,
		lists:    lists,
		identity: identity,
		settings: settings,
		launcher: launcher,
		farming:  farming,
		clock:    clock,
		config:   config,
		report:   reporter{diag: diag},
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
		state:    domain.UnlockState{Phase: domain.UnlockIdle},
	}
}

// Run executes one unlock run and blocks until it completes, fails, or is cancelled.
func (u *Unlocker) Run(ctx context.Context) error {
	runCtx, err := u.begin(ctx)
	if err != nil {
		return err
	}
	defer u.finish()
	return u.run(runCtx)
}

// Start executes an unlock run in the background. The run outlives ctx
// and ends only by completion or Cancel.
func (u *Unlocker) Start(ctx context.Context) error {
	runCtx, err := u.begin(context.WithoutCancel(ctx))
	if err != nil {
		return err
	}
	go func() {
		defer u.finish()
		if err := u.run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			u.report.Printf("unlocker: run failed: %v", err)
		}
	}()
	return nil
}

// Cancel stops the active run, if any.
func (u *Unlocker) Cancel() {
	u.mu.Lock()
	cancel := u.cancel
	u.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Wait blocks until the active run has finished.
func (u *Unlocker) Wait() {
	u.wg.Wait()
}

// Snapshot returns the current run state.
func (u *Unlocker) Snapshot() domain.UnlockSnapshot {
	now := u.clock.Now()
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state.Snapshot(now)
}

func (u *Unlocker) begin(ctx context.Context) (context.Context, error) {
	if u.source == nil || u.lists == nil || u.identity == nil || u.settings == nil {
		return nil, domain.ErrNotImplemented
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.cancel != nil {
		return nil, domain.ErrUnlockInProgress
	}
	runCtx, cancel := context.WithCancel(ctx)
	u.cancel = cancel
	u.state = domain.UnlockState{RunID: uuid.NewString(), Phase: domain.UnlockIdle}
	u.wg.Add(1)
	return runCtx, nil
}

func (u *Unlocker) finish() {
	u.mu.Lock()
	if u.cancel != nil {
		u.cancel()
		u.cancel = nil
	}
	u.mu.Unlock()
	u.wg.Done()
}

func (u *Unlocker) run(ctx context.Context) error {
	id, err := u.identity.Current(ctx)
	if err != nil {
		return err
	}
	settings, err := u.settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	titles, err := u.lists.GetList(ctx, id, domain.ListAchievementUnlocker)
	if err != nil {
		return fmt.Errorf("read unlocker list: %w", err)
	}
	if len(titles) == 0 {
		return domain.ErrNoTitles
	}

	if err := sleep(ctx, u.clock, u.config.InitialDelay); err != nil {
		return u.cancelled(err, 0)
	}

	u.setPhase(domain.UnlockCheckingAccess)
	queue, err := u.buildQueue(ctx, id, titles, settings.Unlocker.IncludeHidden)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAccessDenied):
			logger.Warn("achievement data is private, nothing will be unlocked")
			u.setPhase(domain.UnlockPrivate)
			return nil
		case errors.Is(err, context.Canceled):
			return u.cancelled(err, 0)
		default:
			u.setPhase(domain.UnlockIdle)
			return err
		}
	}

	u.mu.Lock()
	u.state.Queue = queue
	u.mu.Unlock()
	u.setPhase(domain.UnlockUnlocking)

	idling, err := u.unlockLoop(ctx, id, settings.Unlocker)
	if err != nil {
		return u.cancelled(err, idling)
	}

	u.stopIdle(idling)
	u.setPhase(domain.UnlockComplete)
	u.mu.Lock()
	total := u.state.TotalUnlocked
	u.state.NextUnlockAt = time.Time{}
	u.mu.Unlock()
	logger.Info("unlocker: finished, %d achievements unlocked", total)

	u.runNextTask(ctx, settings.Unlocker.NextTask)
	return nil
}

// buildQueue fetches achievement data for every title before any unlock.
func (u *Unlocker) buildQueue(ctx context.Context, id string, titles []domain.Title, includeHidden bool) ([]domain.UnlockTarget, error) {
	var queue []domain.UnlockTarget
	for _, t := range titles {
		achievements, err := u.source.Fetch(ctx, t.ID)
		if err != nil {
			if errors.Is(err, domain.ErrAccessDenied) || errors.Is(err, domain.ErrIdentityMismatch) || ctx.Err() != nil {
				return nil, err
			}
			u.report.Printf("unlocker: failed to fetch achievements for %s: %v", t, err)
			continue
		}
		if domain.AnyProtected(achievements) {
			logger.Warn("skipping %s: it has protected achievements", t)
			continue
		}

		var order *domain.AchievementOrder
		if u.orders != nil {
			if order, err = u.orders.GetOrder(ctx, id, t.ID); err != nil {
				u.report.Printf("unlocker: failed to read order for %s: %v", t, err)
				order = nil
			}
		}
		titleSettings, err := u.settings.Title(ctx, t.ID)
		if err != nil {
			return nil, fmt.Errorf("load settings for %s: %w", t, err)
		}

		pending := domain.PlanUnlocks(achievements, order, includeHidden, titleSettings.MaxAchievementUnlocks)
		if len(pending) == 0 {
			u.dropFinished(ctx, id, t)
			continue
		}
		queue = append(queue, domain.UnlockTarget{Title: t, Pending: pending})
	}
	return queue, nil
}

// unlockLoop returns the id of the title being idled when it stops.
func (u *Unlocker) unlockLoop(ctx context.Context, id string, settings domain.UnlockerSettings) (int, error) {
	idling := 0
	for {
		u.mu.Lock()
		target := u.state.Current()
		var title domain.Title
		var next domain.PendingAchievement
		if target != nil {
			title = target.Title
			next, _ = u.state.NextAchievement()
		}
		u.mu.Unlock()
		if target == nil {
			return idling, nil
		}

		if !settings.Schedule.Contains(u.clock.Now()) {
			u.stopIdle(idling)
			idling = 0
			if err := u.waitForSchedule(ctx, settings.Schedule); err != nil {
				return 0, err
			}
		}

		if settings.Idle && u.registry != nil && idling != title.ID {
			u.stopIdle(idling)
			idling = 0
			if _, err := u.registry.Start(ctx, title, false); err != nil {
				u.report.Printf("unlocker: failed to idle %s: %v", title, err)
			} else {
				idling = title.ID
			}
		}

		unlockErr := u.source.Unlock(ctx, title.ID, next.ID)
		if unlockErr != nil {
			if ctx.Err() != nil {
				return idling, ctx.Err()
			}
			if errors.Is(unlockErr, domain.ErrIdentityMismatch) {
				return idling, unlockErr
			}
			metrics.Unlocks.WithLabelValues("failed").Inc()
			u.report.Printf("unlocker: failed to unlock %q in %s: %v", next.Name, title, unlockErr)
		} else {
			metrics.Unlocks.WithLabelValues("unlocked").Inc()
			logger.Info("unlocked %q in %s", next.Name, title)
		}

		u.mu.Lock()
		handled, titleDone := u.state.Record(unlockErr == nil)
		exhausted := u.state.Exhausted()
		u.mu.Unlock()

		if titleDone {
			if idling == title.ID {
				u.stopIdle(idling)
				idling = 0
			}
			if handled.Unlocked > 0 {
				u.dropFinished(ctx, id, title)
			} else {
				u.report.Printf("unlocker: nothing unlocked in %s, keeping it listed", title)
			}
		}
		if exhausted {
			return idling, nil
		}

		delay := u.nextDelay(next, settings.Interval)
		u.mu.Lock()
		u.state.NextUnlockAt = u.clock.Now().Add(delay)
		u.mu.Unlock()
		logger.Debug("unlocker: next unlock in %s", domain.FormatCountdown(delay))
		if err := sleep(ctx, u.clock, delay); err != nil {
			return idling, err
		}
	}
}

// waitForSchedule re-checks the window until it opens again.
func (u *Unlocker) waitForSchedule(ctx context.Context, window domain.ScheduleWindow) error {
	u.setPhase(domain.UnlockWaitingForSchedule)
	logger.Info("unlocker: outside schedule %s-%s, waiting", window.From, window.To)
	for !window.Contains(u.clock.Now()) {
		if err := sleep(ctx, u.clock, u.config.SchedulePoll); err != nil {
			return err
		}
	}
	u.setPhase(domain.UnlockUnlocking)
	return nil
}

func (u *Unlocker) nextDelay(prev domain.PendingAchievement, interval domain.JitterRange) time.Duration {
	if prev.DelayNextUnlock > 0 {
		return time.Duration(prev.DelayNextUnlock) * time.Minute
	}
	u.rngMu.Lock()
	defer u.rngMu.Unlock()
	return interval.Sample(u.rng)
}

// cancelled resets the state after an interrupted run.
func (u *Unlocker) cancelled(err error, idling int) error {
	u.stopIdle(idling)
	u.mu.Lock()
	u.state.NextUnlockAt = time.Time{}
	u.mu.Unlock()
	u.setPhase(domain.UnlockIdle)
	return err
}

func (u *Unlocker) stopIdle(titleID int) {
	if titleID == 0 || u.registry == nil {
		return
	}
	u.mu.Lock()
	title := domain.Title{ID: titleID}
	for _, t := range u.state.Queue {
		if t.Title.ID == titleID {
			title = t.Title
			break
		}
	}
	u.mu.Unlock()
	u.registry.Stop(context.Background(), title)
}

func (u *Unlocker) dropFinished(ctx context.Context, id string, title domain.Title) {
	if err := removeFromList(ctx, u.lists, id, domain.ListAchievementUnlocker, title.ID); err != nil {
		u.report.Printf("unlocker: failed to remove %s from list: %v", title, err)
	}
}

func (u *Unlocker) runNextTask(ctx context.Context, next domain.NextTask) {
	switch next {
	case domain.NextTaskAutoIdle:
		if u.launcher == nil {
			return
		}
		if _, err := u.launcher.Trigger(ctx, false); err != nil {
			u.report.Printf("unlocker: next task auto-idle failed: %v", err)
		}
	case domain.NextTaskFarming:
		if u.farming == nil {
			return
		}
		if _, err := u.farming.Start(ctx); err != nil {
			u.report.Printf("unlocker: next task farming failed: %v", err)
		}
	}
}

func (u *Unlocker) setPhase(phase domain.UnlockPhase) {
	u.mu.Lock()
	u.state.Phase = phase
	u.mu.Unlock()
	metrics.SetUnlockPhase(string(phase))
}
