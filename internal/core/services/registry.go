package services

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/idlekit/internal/core/domain"
	"github.com/custodia-labs/idlekit/internal/core/ports/driven"
	"github.com/custodia-labs/idlekit/internal/core/ports/driving"
	"github.com/custodia-labs/idlekit/internal/logger"
	"github.com/custodia-labs/idlekit/internal/metrics"
)

// Ensure Registry implements the interface.
var _ driving.SessionRegistry = (*Registry)(nil)

const (
	defaultPollInterval = 5 * time.Second
	maxStopFailures     = 50
)

// budgetSource resolves the idle budget for a title in minutes.
type budgetSource interface {
	IdleBudget(ctx context.Context, titleID int) (int, error)
}

// sessionEntry is a tracked session. stopTimer and pollStop are either
// both set or both nil.
type sessionEntry struct {
	session     domain.IdleSession
	stopTimer   clockwork.Timer
	pollStop    chan struct{}
	lastStopErr string
}

func (e *sessionEntry) clearTimers() {
	if e.stopTimer != nil {
		e.stopTimer.Stop()
		e.stopTimer = nil
	}
	if e.pollStop != nil {
		close(e.pollStop)
		e.pollStop = nil
	}
}

// Registry owns the set of active sessions on the host.
type Registry struct {
	host         driven.Host
	budgets      budgetSource
	clock        clockwork.Clock
	pollInterval time.Duration
	report       reporter

	mu       sync.Mutex
	sessions map[int]*sessionEntry
	failures []domain.StopRecord
	closed   bool

	starts singleflight.Group
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryClock sets the clock used for budget timers and polls.
func WithRegistryClock(clock clockwork.Clock) RegistryOption {
	return func(r *Registry) { r.clock = clock }
}

// WithPollInterval sets the reconciliation poll interval.
func WithPollInterval(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

// WithRegistryDiagnostics mirrors stop failures to sink.
func WithRegistryDiagnostics(sink driven.DiagnosticSink) RegistryOption {
	return func(r *Registry) { r.report = reporter{diag: sink} }
}

// NewRegistry creates a session registry. budgets may be nil, in which case
// every session is unbudgeted.
func NewRegistry(host driven.Host, budgets budgetSource, opts ...RegistryOption) *Registry {
	r := &Registry{
		host:         host,
		budgets:      budgets,
		clock:        clockwork.NewRealClock(),
		pollInterval: defaultPollInterval,
		sessions:     make(map[int]*sessionEntry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start starts an idle session for title. Concurrent starts of the same
// title share a single host call and its result. The shared call ignores
// the callers' cancellation; a caller whose ctx ends returns ctx.Err()
// while the start finishes for the others.
func (r *Registry) Start(ctx context.Context, title domain.Title, manual bool) (domain.StartResult, error) {
	if r.isClosed() {
		return domain.StartResult{}, domain.ErrRegistryClosed
	}
	shared := context.WithoutCancel(ctx)
	ch := r.starts.DoChan(strconv.Itoa(title.ID), func() (any, error) {
		return r.start(shared, title, manual)
	})
	select {
	case <-ctx.Done():
		return domain.StartResult{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.StartResult{}, res.Err
		}
		return res.Val.(domain.StartResult), nil
	}
}

func (r *Registry) start(ctx context.Context, title domain.Title, manual bool) (domain.StartResult, error) {
	ready, err := r.host.IsReady(ctx)
	if err != nil {
		return domain.StartResult{}, fmt.Errorf("%w: %w", domain.ErrHostUnavailable, err)
	}
	if !ready {
		return domain.StartResult{}, domain.ErrHostUnavailable
	}

	budget := 0
	if r.budgets != nil {
		if budget, err = r.budgets.IdleBudget(ctx, title.ID); err != nil {
			return domain.StartResult{}, fmt.Errorf("resolve idle budget: %w", err)
		}
	}

	running, err := r.host.ListRunning(ctx)
	if err != nil {
		return domain.StartResult{}, fmt.Errorf("list running: %w", err)
	}
	if domain.ContainsID(running, title.ID) {
		logger.Warn("%s is already idling", title)
		metrics.SessionStarts.WithLabelValues("already_running").Inc()
		return domain.StartResult{AlreadyRunning: true}, nil
	}
	if len(running) >= domain.MaxConcurrentSessions {
		metrics.SessionStarts.WithLabelValues("limit").Inc()
		return domain.StartResult{}, domain.ErrSessionLimit
	}

	if err := r.host.StartSession(ctx, title); err != nil {
		metrics.SessionStarts.WithLabelValues("failed").Inc()
		return domain.StartResult{}, fmt.Errorf("%w: start %s: %w", domain.ErrIdentityMismatch, title, err)
	}
	metrics.SessionStarts.WithLabelValues("started").Inc()

	entry := &sessionEntry{session: domain.IdleSession{
		Title:     title,
		Kind:      domain.SessionIdle,
		StartedAt: r.clock.Now(),
	}}
	result := domain.StartResult{Started: true}
	if manual && budget > 0 {
		r.armBudget(entry, budget)
		result.BudgetMinutes = budget
		logger.Info("%s will stop after %d minutes", title, budget)
	}

	r.mu.Lock()
	if prev, ok := r.sessions[title.ID]; ok {
		prev.clearTimers()
	}
	r.sessions[title.ID] = entry
	r.updateGaugeLocked()
	r.mu.Unlock()

	return result, nil
}

// armBudget creates the deferred stop and its reconciliation poll together.
func (r *Registry) armBudget(entry *sessionEntry, budget int) {
	d := time.Duration(budget) * time.Minute
	title := entry.session.Title
	entry.session.BudgetMinutes = budget
	entry.session.StopAt = entry.session.StartedAt.Add(d)
	entry.stopTimer = r.clock.AfterFunc(d, func() { r.expire(title) })
	entry.pollStop = make(chan struct{})
	go r.poll(title.ID, entry.pollStop)
}

func (r *Registry) expire(title domain.Title) {
	metrics.BudgetExpirations.Inc()
	logger.Info("idle budget for %s expired", title)
	r.Stop(context.Background(), title)
}

// poll forgets the session once the host no longer reports it.
func (r *Registry) poll(titleID int, done <-chan struct{}) {
	ticker := r.clock.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.Chan():
			running, err := r.host.ListRunning(context.Background())
			if err != nil {
				logger.Debug("registry: poll for %d failed: %v", titleID, err)
				continue
			}
			if domain.ContainsID(running, titleID) {
				continue
			}
			r.mu.Lock()
			if entry, ok := r.sessions[titleID]; ok && entry.pollStop == done {
				entry.clearTimers()
				delete(r.sessions, titleID)
				r.updateGaugeLocked()
				metrics.SessionsReconciled.Inc()
			}
			r.mu.Unlock()
			return
		}
	}
}

// Stop stops the session for title. Failures are recorded, never returned.
func (r *Registry) Stop(ctx context.Context, title domain.Title) {
	r.mu.Lock()
	entry, tracked := r.sessions[title.ID]
	if tracked {
		entry.clearTimers()
		entry.session.StopAt = time.Time{}
	}
	r.mu.Unlock()

	if !tracked {
		running, err := r.host.ListRunning(ctx)
		if err == nil && !domain.ContainsID(running, title.ID) {
			return
		}
	}

	if err := r.host.StopSession(ctx, title.ID); err != nil {
		r.recordStopFailure(title, err, entry)
		return
	}

	r.mu.Lock()
	if cur, ok := r.sessions[title.ID]; ok && cur == entry {
		delete(r.sessions, title.ID)
		r.updateGaugeLocked()
	}
	r.mu.Unlock()
}

func (r *Registry) recordStopFailure(title domain.Title, err error, entry *sessionEntry) {
	r.report.Printf("registry: failed to stop %s: %v", title, fmt.Errorf("%w: %w", domain.ErrStopFailure, err))
	metrics.SessionStopFailures.Inc()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, domain.StopRecord{TitleID: title.ID, At: r.clock.Now(), Error: err.Error()})
	if len(r.failures) > maxStopFailures {
		r.failures = r.failures[len(r.failures)-maxStopFailures:]
	}
	if entry != nil {
		if cur, ok := r.sessions[title.ID]; ok && cur == entry {
			entry.lastStopErr = err.Error()
		}
	}
}

// StartBulk starts farming sessions for titles without budgets. Titles
// already tracked keep their session. When the host reports a failure,
// the titles it confirms running are still tracked.
func (r *Registry) StartBulk(ctx context.Context, titles []domain.Title) error {
	if r.isClosed() {
		return domain.ErrRegistryClosed
	}
	titles = domain.CapTitles(titles, domain.MaxConcurrentSessions)
	startErr := r.host.StartBulk(ctx, titles)
	if startErr == nil {
		r.trackFarming(titles)
		return nil
	}

	running, err := r.host.ListRunning(ctx)
	if err != nil {
		r.report.Printf("registry: failed to list running titles after bulk start: %v", err)
	} else {
		r.trackFarming(slices.DeleteFunc(slices.Clone(titles), func(t domain.Title) bool {
			return !slices.Contains(running, t.ID)
		}))
	}
	return fmt.Errorf("%w: %w", domain.ErrTransientLaunch, startErr)
}

func (r *Registry) trackFarming(titles []domain.Title) {
	now := r.clock.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range titles {
		if _, ok := r.sessions[t.ID]; ok {
			continue
		}
		r.sessions[t.ID] = &sessionEntry{session: domain.IdleSession{
			Title:     t,
			Kind:      domain.SessionFarming,
			StartedAt: now,
		}}
	}
	r.updateGaugeLocked()
}

// StopBulk stops every farming session.
func (r *Registry) StopBulk(ctx context.Context) {
	if err := r.host.StopBulk(ctx); err != nil {
		r.report.Printf("registry: failed to stop farming sessions: %v", fmt.Errorf("%w: %w", domain.ErrStopFailure, err))
		metrics.SessionStopFailures.Inc()
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, entry := range r.sessions {
		if entry.session.Kind == domain.SessionFarming {
			delete(r.sessions, id)
		}
	}
	r.updateGaugeLocked()
}

// Running returns the ids the host reports as running.
func (r *Registry) Running(ctx context.Context) ([]int, error) {
	return r.host.ListRunning(ctx)
}

// Snapshot returns the tracked sessions ordered by title id.
func (r *Registry) Snapshot() []domain.SessionSnapshot {
	now := r.clock.Now()
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.SessionSnapshot, 0, len(r.sessions))
	for _, entry := range r.sessions {
		snap := domain.SessionSnapshot{IdleSession: entry.session, LastStopError: entry.lastStopErr}
		if entry.session.Budgeted() {
			if rem := entry.session.StopAt.Sub(now); rem > 0 {
				snap.Remaining = rem
			}
		}
		out = append(out, snap)
	}
	slices.SortFunc(out, func(a, b domain.SessionSnapshot) int { return a.Title.ID - b.Title.ID })
	return out
}

// StopFailures returns recent stop failures, oldest first.
func (r *Registry) StopFailures() []domain.StopRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.failures)
}

// CancelAll clears every pending timer. Sessions keep running.
func (r *Registry) CancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entry := range r.sessions {
		entry.clearTimers()
		entry.session.StopAt = time.Time{}
	}
}

// Close cancels all timers and refuses further starts.
func (r *Registry) Close() {
	r.CancelAll()
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

func (r *Registry) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *Registry) updateGaugeLocked() {
	var idle, farming int
	for _, entry := range r.sessions {
		if entry.session.Kind == domain.SessionFarming {
			farming++
		} else {
			idle++
		}
	}
	metrics.SessionsActive.WithLabelValues(string(domain.SessionIdle)).Set(float64(idle))
	metrics.SessionsActive.WithLabelValues(string(domain.SessionFarming)).Set(float64(farming))
}
