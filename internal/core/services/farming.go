package services

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/idlekit/internal/core/domain"
	"github.com/custodia-labs/idlekit/internal/core/ports/driven"
	"github.com/custodia-labs/idlekit/internal/core/ports/driving"
	"github.com/custodia-labs/idlekit/internal/logger"
	"github.com/custodia-labs/idlekit/internal/metrics"
)

// Ensure Farming implements the interface.
var _ driving.FarmingOrchestrator = (*Farming)(nil)

// FarmingConfig holds the farming timings.
type FarmingConfig struct {
	Retry        domain.RetryPolicy
	DropsTimeout time.Duration
	// Cycle alternates bulk start and stop. The first step is the initial
	// start. An empty cycle keeps sessions running until Stop.
	Cycle []domain.CycleStep
}

// DefaultFarmingConfig returns the production timings.
func DefaultFarmingConfig() FarmingConfig {
	return FarmingConfig{
		Retry:        domain.DefaultRetryPolicy(),
		DropsTimeout: 30 * time.Second,
		Cycle:        domain.DefaultFarmingCycle(),
	}
}

// Farming validates community credentials, then starts and stops a batch
// of titles through the registry.
type Farming struct {
	host      driven.Host
	registry  driving.SessionRegistry
	creds     driven.CredentialsStore
	validator driven.CredentialValidator
	rewards   driven.RewardSource
	lists     driven.ListStore
	store     driven.SettingsStore
	settings  driving.SettingsService
	identity  driven.IdentityProvider
	clock     clockwork.Clock
	config    FarmingConfig
	report    reporter

	mu      sync.Mutex
	active  bool
	gen     uint64 // bumped by every Start and Stop
	runID   string
	step    int
	targets []domain.FarmingTarget
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewFarming creates a batch-farming orchestrator.
func NewFarming(
	host driven.Host,
	registry driving.SessionRegistry,
	creds driven.CredentialsStore,
	validator driven.CredentialValidator,
	rewards driven.RewardSource,
	lists driven.ListStore,
	store driven.SettingsStore,
	settings driving.SettingsService,
	identity driven.IdentityProvider,
	clock clockwork.Clock,
	config FarmingConfig,
	diag driven.DiagnosticSink,
) *Farming {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Farming{
		host:      host,
		registry:  registry,
		creds:     creds,
		validator: validator,
		rewards:   rewards,
		lists:     lists,
		store:     store,
		settings:  settings,
		identity:  identity,
		clock:     clock,
		config:    config,
		report:    reporter{diag: diag},
	}
}

// Start validates credentials, resolves the titles to farm and starts them
// in bulk. When a cycle is configured it keeps running in the background
// until every title is finished or Stop is called.
func (f *Farming) Start(ctx context.Context) (*domain.FarmingReport, error) {
	if f.host == nil || f.registry == nil || f.creds == nil || f.rewards == nil {
		return nil, domain.ErrNotImplemented
	}

	f.mu.Lock()
	if f.active {
		f.mu.Unlock()
		return nil, domain.ErrFarmingInProgress
	}
	f.active = true
	f.gen++
	gen := f.gen
	f.mu.Unlock()

	report, targets, err := f.start(ctx)
	if err != nil || len(report.Started) == 0 {
		f.mu.Lock()
		if f.gen == gen {
			f.active = false
		}
		f.mu.Unlock()
		if err != nil {
			metrics.FarmingRuns.WithLabelValues("failed").Inc()
		}
		return report, err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	f.mu.Lock()
	if f.gen != gen {
		f.mu.Unlock()
		cancel()
		f.registry.StopBulk(ctx)
		logger.Info("farming: stopped while starting")
		return report, domain.ErrFarmingStopped
	}
	f.runID = report.RunID
	f.step = 0
	f.targets = targets
	f.cancel = cancel
	if len(f.config.Cycle) > 0 {
		f.wg.Add(1)
		go f.cycle(runCtx)
	}
	f.mu.Unlock()
	metrics.FarmingRuns.WithLabelValues("started").Inc()
	metrics.FarmingTitles.Set(float64(len(targets)))
	return report, nil
}

func (f *Farming) start(ctx context.Context) (*domain.FarmingReport, []domain.FarmingTarget, error) {
	report := &domain.FarmingReport{RunID: uuid.NewString()}

	ready, err := f.host.IsReady(ctx)
	if err != nil {
		return report, nil, fmt.Errorf("%w: %w", domain.ErrHostUnavailable, err)
	}
	if !ready {
		return report, nil, domain.ErrHostUnavailable
	}

	id, creds, err := f.loadCredentials(ctx)
	if err != nil {
		return report, nil, err
	}
	if report.Profile, err = f.validate(ctx, id); err != nil {
		return report, nil, err
	}

	allTitles := false
	if f.settings != nil {
		settings, err := f.settings.Get(ctx)
		if err != nil {
			return report, nil, fmt.Errorf("load settings: %w", err)
		}
		allTitles = settings.Farming.AllTitles
	}

	targets, err := f.resolveTargets(ctx, id, *creds, allTitles)
	if err != nil {
		return report, nil, err
	}
	report.Targets = targets
	if len(targets) == 0 {
		logger.Info("farming: no titles have drops remaining")
		return report, nil, nil
	}

	titles := make([]domain.Title, len(targets))
	for i, t := range targets {
		titles[i] = t.Title
	}
	outcome, err := retryBatch(ctx, f.clock, f.config.Retry, titles, f.launch, f.registry.Running)
	report.Started = outcome.Confirmed
	report.Failed = outcome.Pending
	if err != nil {
		return report, nil, err
	}
	if len(outcome.Pending) > 0 {
		metrics.LaunchExhausted.WithLabelValues("farming").Add(float64(len(outcome.Pending)))
		f.report.Printf("farming: giving up on %v after %d attempts", domain.TitleIDs(outcome.Pending), outcome.Attempts)
	}

	started := targets[:0:0]
	for _, t := range targets {
		if slices.Contains(outcome.Confirmed, t.Title) {
			started = append(started, t)
		}
	}
	return report, started, nil
}

func (f *Farming) launch(ctx context.Context, attempt int, pending []domain.Title) {
	metrics.LaunchAttempts.WithLabelValues("farming").Inc()
	if err := f.registry.StartBulk(ctx, pending); err != nil {
		f.report.Printf("farming: attempt %d: failed to start %v: %v", attempt, domain.TitleIDs(pending), err)
	}
}

// resolveTargets returns the titles with drops left, capped at the host limit.
func (f *Farming) resolveTargets(ctx context.Context, id string, creds domain.SessionCredentials, allTitles bool) ([]domain.FarmingTarget, error) {
	var drops []domain.TitleDrops
	if allTitles {
		dctx, cancel := context.WithTimeout(ctx, f.config.DropsTimeout)
		defer cancel()
		all, err := f.rewards.TitlesWithDrops(dctx, creds)
		if err != nil {
			return nil, fmt.Errorf("list titles with drops: %w", err)
		}
		drops = all
	} else {
		titles, err := f.lists.GetList(ctx, id, domain.ListCardFarming)
		if err != nil {
			return nil, fmt.Errorf("read farming list: %w", err)
		}
		if len(titles) == 0 {
			return nil, domain.ErrNoTitles
		}
		drops = f.checkDrops(ctx, creds, titles)
	}

	var targets []domain.FarmingTarget
	for _, d := range drops {
		if d.Remaining <= 0 {
			if !allTitles {
				f.dropFinished(ctx, id, d.Title)
			}
			continue
		}
		maxDrops := 0
		if f.settings != nil {
			if ts, err := f.settings.Title(ctx, d.Title.ID); err == nil {
				maxDrops = ts.MaxCardDrops
			}
		}
		targets = append(targets, domain.NewFarmingTarget(d.Title, d.Remaining, maxDrops))
		if len(targets) == domain.MaxConcurrentSessions {
			break
		}
	}
	return targets, nil
}

// checkDrops queries the remaining drops of every title concurrently.
// Titles whose check fails are left out.
func (f *Farming) checkDrops(ctx context.Context, creds domain.SessionCredentials, titles []domain.Title) []domain.TitleDrops {
	results := make([]*domain.TitleDrops, len(titles))
	dctx, cancel := context.WithTimeout(ctx, f.config.DropsTimeout)
	defer cancel()

	var g errgroup.Group
	for i, t := range titles {
		g.Go(func() error {
			n, err := f.rewards.DropsRemaining(dctx, creds, t.ID)
			if err != nil {
				f.report.Printf("farming: failed to check drops for %s: %v", t, err)
				return nil
			}
			results[i] = &domain.TitleDrops{Title: t, Remaining: n}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]domain.TitleDrops, 0, len(titles))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

// cycle alternates bulk start and stop, re-checking drops after each stop.
func (f *Farming) cycle(ctx context.Context) {
	defer f.wg.Done()
	cycle := f.config.Cycle
	step := 0
	for {
		if err := sleep(ctx, f.clock, cycle[step].Duration); err != nil {
			return
		}
		step = (step + 1) % len(cycle)
		f.mu.Lock()
		f.step = step
		titles := make([]domain.Title, len(f.targets))
		for i, t := range f.targets {
			titles[i] = t.Title
		}
		f.mu.Unlock()

		switch cycle[step].Action {
		case domain.CycleStop:
			f.registry.StopBulk(ctx)
			if f.refresh(ctx) == 0 {
				f.complete()
				return
			}
		case domain.CycleStart:
			if err := f.registry.StartBulk(ctx, titles); err != nil {
				f.report.Printf("farming: failed to restart %v: %v", domain.TitleIDs(titles), err)
			}
		}
	}
}

// refresh updates the remaining drops and returns the number of unfinished targets.
func (f *Farming) refresh(ctx context.Context) int {
	id, creds, err := f.loadCredentials(ctx)
	f.mu.Lock()
	targets := slices.Clone(f.targets)
	f.mu.Unlock()
	if err != nil {
		f.report.Printf("farming: failed to load credentials: %v", err)
		return len(targets)
	}

	titles := make([]domain.Title, len(targets))
	for i, t := range targets {
		titles[i] = t.Title
	}
	remaining := make(map[int]int, len(targets))
	for _, d := range f.checkDrops(ctx, *creds, titles) {
		remaining[d.Title.ID] = d.Remaining
	}

	kept := targets[:0]
	for _, t := range targets {
		if n, ok := remaining[t.Title.ID]; ok {
			t.Remaining = n
		}
		if t.Finished() {
			logger.Info("farming: %s finished after %d drops", t.Title, t.Farmed())
			f.dropFinished(ctx, id, t.Title)
			continue
		}
		kept = append(kept, t)
	}

	f.mu.Lock()
	f.targets = kept
	f.mu.Unlock()
	metrics.FarmingTitles.Set(float64(len(kept)))
	return len(kept)
}

func (f *Farming) complete() {
	f.mu.Lock()
	cancel := f.cancel
	f.active = false
	f.cancel = nil
	f.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	metrics.FarmingRuns.WithLabelValues("completed").Inc()
	logger.Info("farming: all titles finished")
}

// Stop cancels the cycle and stops every farming session.
func (f *Farming) Stop(ctx context.Context) {
	f.mu.Lock()
	cancel := f.cancel
	f.cancel = nil
	f.active = false
	f.gen++
	f.targets = nil
	f.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	f.wg.Wait()
	metrics.FarmingTitles.Set(0)
	if f.registry != nil {
		f.registry.StopBulk(ctx)
	}
}

// CheckCredentials validates the stored credentials. A rejection purges them.
func (f *Farming) CheckCredentials(ctx context.Context) (*domain.ProfileSummary, error) {
	id, _, err := f.loadCredentials(ctx)
	if err != nil {
		return nil, err
	}
	return f.validate(ctx, id)
}

// Snapshot returns the current farming state.
func (f *Farming) Snapshot() domain.FarmingSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return domain.FarmingSnapshot{
		Active:  f.active,
		RunID:   f.runID,
		Step:    f.step,
		Targets: slices.Clone(f.targets),
	}
}

func (f *Farming) loadCredentials(ctx context.Context) (string, *domain.SessionCredentials, error) {
	if f.identity == nil || f.creds == nil {
		return "", nil, domain.ErrNotImplemented
	}
	id, err := f.identity.Current(ctx)
	if err != nil {
		return "", nil, err
	}
	creds, err := f.creds.Get(ctx, id)
	if err != nil {
		return "", nil, fmt.Errorf("read credentials: %w", err)
	}
	if !creds.IsComplete() {
		return "", nil, domain.ErrMissingCredentials
	}
	return id, creds, nil
}

// validate checks the stored credentials. An unreachable validator is
// reported without purging; an explicit rejection purges the credentials
// and the cached profile summary.
func (f *Farming) validate(ctx context.Context, id string) (*domain.ProfileSummary, error) {
	if f.validator == nil {
		return nil, domain.ErrNotImplemented
	}
	creds, err := f.creds.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	if !creds.IsComplete() {
		return nil, domain.ErrMissingCredentials
	}

	summary, err := f.validator.Validate(ctx, *creds)
	if err != nil {
		return nil, fmt.Errorf("validate credentials: %w", err)
	}
	if summary == nil {
		if err := f.creds.Delete(ctx, id); err != nil {
			f.report.Printf("farming: failed to purge credentials: %v", err)
		}
		if f.store != nil {
			if err := f.store.Delete(ctx, id, domain.SettingFarmUserSummary); err != nil {
				f.report.Printf("farming: failed to purge profile summary: %v", err)
			}
		}
		logger.Warn("community credentials are outdated, set them again")
		return nil, domain.ErrCredentialsExpired
	}

	if f.store != nil {
		if b, err := json.Marshal(summary); err == nil {
			if err := f.store.Set(ctx, id, domain.SettingFarmUserSummary, string(b)); err != nil {
				f.report.Printf("farming: failed to cache profile summary: %v", err)
			}
		}
	}
	return summary, nil
}

func (f *Farming) dropFinished(ctx context.Context, id string, title domain.Title) {
	if f.lists == nil {
		return
	}
	if err := removeFromList(ctx, f.lists, id, domain.ListCardFarming, title.ID); err != nil {
		f.report.Printf("farming: failed to remove %s from list: %v", title, err)
	}
}
