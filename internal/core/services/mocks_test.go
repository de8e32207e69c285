package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/custodia-labs/idlekit/internal/core/domain"
	"github.com/custodia-labs/idlekit/internal/core/ports/driven"
	"github.com/custodia-labs/idlekit/internal/core/ports/driving"
)

const testIdentity = "76561198000000001"

var errHostDown = errors.New("helper exited")

// --- Host ---

// mockHost implements driven.Host for testing.
type mockHost struct {
	mu         sync.Mutex
	ready      bool
	readyAfter int // IsReady returns false for this many calls
	readyCalls int
	running    map[int]bool
	failStarts map[int]int // remaining failures per title
	stopErr    error
	listErr    error
	bulkErr    error
	startGate  chan struct{} // StartSession blocks until closed
	startCalls map[int]int
	stopCalls  []int
	bulkStarts [][]domain.Title
	bulkStops  int
}

func newMockHost() *mockHost {
	return &mockHost{
		ready:      true,
		running:    make(map[int]bool),
		failStarts: make(map[int]int),
		startCalls: make(map[int]int),
	}
}

func (m *mockHost) IsReady(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readyCalls++
	if m.readyCalls <= m.readyAfter {
		return false, nil
	}
	return m.ready, nil
}

func (m *mockHost) ListRunning(_ context.Context) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	ids := make([]int, 0, len(m.running))
	for id := range m.running {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (m *mockHost) StartSession(ctx context.Context, title domain.Title) error {
	m.mu.Lock()
	m.startCalls[title.ID]++
	gate := m.startGate
	m.mu.Unlock()
	if gate != nil {
		<-gate
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failStarts[title.ID] > 0 {
		m.failStarts[title.ID]--
		return errHostDown
	}
	m.running[title.ID] = true
	return nil
}

func (m *mockHost) StopSession(_ context.Context, titleID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCalls = append(m.stopCalls, titleID)
	if m.stopErr != nil {
		return m.stopErr
	}
	delete(m.running, titleID)
	return nil
}

func (m *mockHost) StartBulk(_ context.Context, titles []domain.Title) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bulkStarts = append(m.bulkStarts, slices.Clone(titles))
	if m.bulkErr != nil {
		return m.bulkErr
	}
	var errs []error
	for _, t := range titles {
		if m.failStarts[t.ID] > 0 {
			m.failStarts[t.ID]--
			errs = append(errs, fmt.Errorf("start %d: %w", t.ID, errHostDown))
			continue
		}
		m.running[t.ID] = true
	}
	return errors.Join(errs...)
}

func (m *mockHost) StopBulk(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bulkStops++
	m.running = make(map[int]bool)
	return nil
}

func (m *mockHost) setRunning(id int, running bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if running {
		m.running[id] = true
	} else {
		delete(m.running, id)
	}
}

func (m *mockHost) isRunning(id int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running[id]
}

func (m *mockHost) starts(id int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startCalls[id]
}

func (m *mockHost) stops() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.stopCalls)
}

func (m *mockHost) bulkStartCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bulkStarts)
}

// --- Diagnostics ---

// mockDiag implements driven.DiagnosticSink for testing.
type mockDiag struct {
	mu      sync.Mutex
	records []string
}

func (m *mockDiag) Record(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, message)
}

func (m *mockDiag) count(substr string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.records {
		if strings.Contains(r, substr) {
			n++
		}
	}
	return n
}

// --- Registry ---

// mockRegistry implements driving.SessionRegistry for testing.
type mockRegistry struct {
	mu      sync.Mutex
	started []int
	stopped []int
	running map[int]bool
}

func newMockRegistry() *mockRegistry {
	return &mockRegistry{running: make(map[int]bool)}
}

func (m *mockRegistry) Start(_ context.Context, title domain.Title, _ bool) (domain.StartResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = append(m.started, title.ID)
	m.running[title.ID] = true
	return domain.StartResult{Started: true}, nil
}

func (m *mockRegistry) Stop(_ context.Context, title domain.Title) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = append(m.stopped, title.ID)
	delete(m.running, title.ID)
}

func (m *mockRegistry) StartBulk(_ context.Context, titles []domain.Title) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range titles {
		m.running[t.ID] = true
	}
	return nil
}

func (m *mockRegistry) StopBulk(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = make(map[int]bool)
}

func (m *mockRegistry) Running(_ context.Context) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int, 0, len(m.running))
	for id := range m.running {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (m *mockRegistry) Snapshot() []domain.SessionSnapshot { return nil }

func (m *mockRegistry) StopFailures() []domain.StopRecord { return nil }

func (m *mockRegistry) CancelAll() {}

func (m *mockRegistry) isRunning(id int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running[id]
}

func (m *mockRegistry) stoppedIDs() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.stopped)
}

// --- Achievements ---

type unlockCall struct {
	titleID       int
	achievementID string
	at            time.Time
}

// mockAchievementSource implements driven.AchievementSource for testing.
type mockAchievementSource struct {
	mu           sync.Mutex
	clock        clockwork.Clock
	achievements map[int][]domain.Achievement
	fetchErr     map[int]error
	unlockErr    error
	fetched      []int
	unlocks      []unlockCall
}

func newMockAchievementSource(clock clockwork.Clock) *mockAchievementSource {
	return &mockAchievementSource{
		clock:        clock,
		achievements: make(map[int][]domain.Achievement),
		fetchErr:     make(map[int]error),
	}
}

func (m *mockAchievementSource) Fetch(_ context.Context, titleID int) ([]domain.Achievement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetched = append(m.fetched, titleID)
	if err := m.fetchErr[titleID]; err != nil {
		return nil, err
	}
	return slices.Clone(m.achievements[titleID]), nil
}

func (m *mockAchievementSource) Unlock(_ context.Context, titleID int, achievementID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unlockErr != nil {
		return m.unlockErr
	}
	m.unlocks = append(m.unlocks, unlockCall{titleID: titleID, achievementID: achievementID, at: m.clock.Now()})
	return nil
}

func (m *mockAchievementSource) unlockCalls() []unlockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.unlocks)
}

// --- Credentials and rewards ---

// mockValidator implements driven.CredentialValidator for testing.
type mockValidator struct {
	mu      sync.Mutex
	summary *domain.ProfileSummary
	err     error
	calls   int
	gate    chan struct{} // Validate blocks until closed
}

func (m *mockValidator) Validate(_ context.Context, _ domain.SessionCredentials) (*domain.ProfileSummary, error) {
	m.mu.Lock()
	m.calls++
	gate := m.gate
	m.mu.Unlock()
	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.summary, m.err
}

func (m *mockValidator) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockRewards implements driven.RewardSource for testing.
type mockRewards struct {
	mu    sync.Mutex
	drops map[int]int
	all   []domain.TitleDrops
	err   error
}

func newMockRewards() *mockRewards {
	return &mockRewards{drops: make(map[int]int)}
}

func (m *mockRewards) DropsRemaining(_ context.Context, _ domain.SessionCredentials, titleID int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	return m.drops[titleID], nil
}

func (m *mockRewards) TitlesWithDrops(_ context.Context, _ domain.SessionCredentials) ([]domain.TitleDrops, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.all), m.err
}

func (m *mockRewards) setDrops(titleID, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drops[titleID] = n
}

// --- Follow-up tasks ---

// mockLauncher implements driving.AutoIdleLauncher for testing.
type mockLauncher struct {
	mu     sync.Mutex
	calls  int
	report *domain.LaunchReport
	err    error
}

func (m *mockLauncher) Trigger(_ context.Context, _ bool) (*domain.LaunchReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.report, m.err
}

func (m *mockLauncher) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockFarming implements driving.FarmingOrchestrator for testing.
type mockFarming struct {
	mu       sync.Mutex
	starts   int
	checks   int
	checkErr error
	summary  *domain.ProfileSummary
	startErr error
}

func (m *mockFarming) Start(_ context.Context) (*domain.FarmingReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starts++
	return &domain.FarmingReport{}, m.startErr
}

func (m *mockFarming) Stop(_ context.Context) {}

func (m *mockFarming) CheckCredentials(_ context.Context) (*domain.ProfileSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks++
	return m.summary, m.checkErr
}

func (m *mockFarming) Snapshot() domain.FarmingSnapshot { return domain.FarmingSnapshot{} }

func (m *mockFarming) startCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.starts
}

// Ensure mocks implement interfaces
var (
	_ driven.Host                 = (*mockHost)(nil)
	_ driven.DiagnosticSink       = (*mockDiag)(nil)
	_ driven.AchievementSource    = (*mockAchievementSource)(nil)
	_ driven.CredentialValidator  = (*mockValidator)(nil)
	_ driven.RewardSource         = (*mockRewards)(nil)
	_ driving.SessionRegistry     = (*mockRegistry)(nil)
	_ driving.AutoIdleLauncher    = (*mockLauncher)(nil)
	_ driving.FarmingOrchestrator = (*mockFarming)(nil)
)

// pumpClock advances clock by step each time a goroutine blocks on it,
// until the returned stop function is called.
func pumpClock(clock *clockwork.FakeClock, step time.Duration) (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if err := clock.BlockUntilContext(ctx, 1); err != nil {
				return
			}
			clock.Advance(step)
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
