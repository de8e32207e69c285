package cli

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/idlekit/internal/adapters/driven/host/sim"
	"github.com/custodia-labs/idlekit/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/idlekit/internal/core/domain"
	"github.com/custodia-labs/idlekit/internal/core/services"
)

const testIdentity = "76561198000000001"

// cliFixture wires real services over the simulated host and memory stores.
type cliFixture struct {
	host      *sim.Host
	lists     *memory.ListStore
	settings  *memory.SettingsStore
	creds     *memory.CredentialsStore
	orders    *memory.OrderStore
	tasks     *memory.SchedulerStore
	validator *stubValidator
	rewards   *stubRewards
	registry  *services.Registry
	unlocker  *services.Unlocker
	farming   *services.Farming
}

func setupCLI(t *testing.T) *cliFixture {
	t.Helper()
	identity := memory.StaticIdentity(testIdentity)

	f := &cliFixture{
		host:      sim.New(),
		lists:     memory.NewListStore(),
		settings:  memory.NewSettingsStore(),
		creds:     memory.NewCredentialsStore(),
		orders:    memory.NewOrderStore(),
		tasks:     memory.NewSchedulerStore(),
		validator: &stubValidator{summary: &domain.ProfileSummary{Identity: testIdentity, Name: "gordon"}},
		rewards:   &stubRewards{drops: make(map[int]int)},
	}
	settingsSvc := services.NewSettingsService(f.settings, identity)
	f.registry = services.NewRegistry(f.host, settingsSvc)

	noRetry := domain.RetryPolicy{MaxAttempts: 1}
	launcherCfg := services.DefaultLauncherConfig()
	launcherCfg.Retry = noRetry
	launcher := services.NewLauncher(f.host, f.registry, f.lists, identity, nil, launcherCfg, nil)

	farmingCfg := services.DefaultFarmingConfig()
	farmingCfg.Retry = noRetry
	farmingCfg.Cycle = nil
	f.farming = services.NewFarming(f.host, f.registry, f.creds, f.validator, f.rewards, f.lists,
		f.settings, settingsSvc, identity, nil, farmingCfg, nil)

	unlockerCfg := services.DefaultUnlockerConfig()
	unlockerCfg.InitialDelay = 0
	f.unlocker = services.NewUnlocker(f.registry, f.host, f.orders, f.lists, identity, settingsSvc,
		launcher, f.farming, nil, unlockerCfg, nil)

	SetServices(&Services{
		Registry:    f.registry,
		Launcher:    launcher,
		Unlocker:    f.unlocker,
		Farming:     f.farming,
		Settings:    settingsSvc,
		Credentials: services.NewCredentialsService(f.creds, identity),
		Lists:       services.NewListService(f.lists, identity),
		Scheduler:   services.NewScheduler(domain.DefaultSchedulerConfig(), f.tasks, launcher, f.farming, nil),
		Orders:      f.orders,
		Identity:    identity,
	})
	t.Cleanup(func() {
		f.unlocker.Cancel()
		f.unlocker.Wait()
		f.farming.Stop(context.Background())
		f.registry.CancelAll()
		SetServices(nil)
	})
	return f
}

func (f *cliFixture) addToList(t *testing.T, name domain.ListName, titles ...domain.Title) {
	t.Helper()
	require.NoError(t, f.lists.SaveList(context.Background(), testIdentity, name, titles))
}

// resetFlags restores flag variables that persist between executions.
func resetFlags() {
	verbose = false
	idleWait = false
	idleDetach = false
	idleStatusJSON = false
	autoIdleJSON = false
	unlockStatusJSON = false
	settingsJSON = false
	farmDetach = false
	historyLimit = 10
	versionJSON = false
	credSessionID = ""
	credLoginSecure = ""
	credMachineAuth = ""
}

// runCLI executes the root command and returns combined output.
func runCLI(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(stdin)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags()
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// stubValidator implements driven.CredentialValidator for testing.
type stubValidator struct {
	mu      sync.Mutex
	summary *domain.ProfileSummary
	err     error
}

func (s *stubValidator) Validate(_ context.Context, _ domain.SessionCredentials) (*domain.ProfileSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary, s.err
}

// stubRewards implements driven.RewardSource for testing.
type stubRewards struct {
	mu    sync.Mutex
	drops map[int]int
}

func (s *stubRewards) DropsRemaining(_ context.Context, _ domain.SessionCredentials, titleID int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drops[titleID], nil
}

func (s *stubRewards) TitlesWithDrops(_ context.Context, _ domain.SessionCredentials) ([]domain.TitleDrops, error) {
	return nil, nil
}
