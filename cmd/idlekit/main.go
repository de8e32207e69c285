package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/custodia-labs/idlekit/internal/adapters/driven/community"
	"github.com/custodia-labs/idlekit/internal/adapters/driven/config/file"
	"github.com/custodia-labs/idlekit/internal/adapters/driven/diagnostics"
	"github.com/custodia-labs/idlekit/internal/adapters/driven/host/helper"
	"github.com/custodia-labs/idlekit/internal/adapters/driven/host/sim"
	"github.com/custodia-labs/idlekit/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/idlekit/internal/adapters/driving/cli"
	"github.com/custodia-labs/idlekit/internal/core/domain"
	"github.com/custodia-labs/idlekit/internal/core/ports/driven"
	"github.com/custodia-labs/idlekit/internal/core/services"
	"github.com/custodia-labs/idlekit/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = ""

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()

	config, err := file.NewConfigStore("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading config: %v\n", err)
		return 1
	}
	identity := file.NewIdentity(config)

	store, err := sqlite.NewStore(config.GetString(file.KeyDataDir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: opening store: %v\n", err)
		return 1
	}
	defer store.Close()

	diag, closeDiag := setupDiagnostics(config, clock)
	defer closeDiag()
	logger.SetHook(func(level, message string) {
		diag.Record(level + ": " + message)
	})
	defer logger.SetHook(nil)

	host, source, err := setupHost(config, clock)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	client := community.NewClient(community.Config{
		BaseURL:           config.GetString(file.KeyCommunityBaseURL),
		RequestsPerSecond: config.GetFloat(file.KeyCommunityRate),
	}, nil)

	settingsSvc := services.NewSettingsService(store.SettingsStore(), identity)
	credentialsSvc := services.NewCredentialsService(store.CredentialsStore(), identity)
	listSvc := services.NewListService(store.ListStore(), identity)

	registry := services.NewRegistry(host, settingsSvc,
		services.WithRegistryClock(clock),
		services.WithRegistryDiagnostics(diag),
	)
	defer registry.Close()

	launcher := services.NewLauncher(host, registry, store.ListStore(), identity, clock,
		services.DefaultLauncherConfig(), diag)
	farming := services.NewFarming(host, registry, store.CredentialsStore(),
		community.NewValidator(client), community.NewDrops(client), store.ListStore(),
		store.SettingsStore(), settingsSvc, identity, clock, services.DefaultFarmingConfig(), diag)
	unlocker := services.NewUnlocker(registry, source, store.OrderStore(), store.ListStore(),
		identity, settingsSvc, launcher, farming, clock, services.DefaultUnlockerConfig(), diag)
	scheduler := services.NewScheduler(domain.DefaultSchedulerConfig(), store.SchedulerStore(),
		launcher, farming, clock)

	cli.SetServices(&cli.Services{
		Registry:    registry,
		Launcher:    launcher,
		Unlocker:    unlocker,
		Farming:     farming,
		Settings:    settingsSvc,
		Credentials: credentialsSvc,
		Lists:       listSvc,
		Scheduler:   scheduler,
		Orders:      store.OrderStore(),
		Identity:    identity,
		Config:      config,
	})
	cli.SetDaemonConfig(cli.DaemonConfig{
		AutoIdle:    config.GetBool(file.KeyDaemonAutoIdle),
		Unlock:      config.GetBool(file.KeyDaemonUnlock),
		MetricsAddr: config.GetString(file.KeyDaemonMetricsAddr),
		MCPPort:     config.GetInt(file.KeyMCPPort),
		OnReload: func() {
			current, err := identity.Current(ctx)
			if err != nil {
				logger.Warn("config reloaded without a usable identity: %v", err)
				return
			}
			logger.Info("config reloaded for %s", current)
		},
	})
	cli.SetVersion(version)

	if err := cli.Execute(ctx); err != nil {
		return 1
	}
	return 0
}

// setupDiagnostics returns the sink every service records to. The file
// sink is added when diagnostics.file is set.
func setupDiagnostics(config *file.ConfigStore, clock clockwork.Clock) (driven.DiagnosticSink, func()) {
	path := config.GetString(file.KeyDiagnosticsFile)
	if path == "" {
		return diagnostics.LogSink{}, func() {}
	}
	sink, err := diagnostics.NewFileSink(path, clock)
	if err != nil {
		logger.Warn("diagnostics file disabled: %v", err)
		return diagnostics.LogSink{}, func() {}
	}
	return diagnostics.Multi{diagnostics.LogSink{}, sink}, func() {
		if err := sink.Close(); err != nil {
			logger.Warn("closing diagnostics file: %v", err)
		}
	}
}

// setupHost picks the simulated host when host.simulate is set and the
// helper host otherwise.
func setupHost(config *file.ConfigStore, clock clockwork.Clock) (driven.Host, driven.AchievementSource, error) {
	if config.GetBool(file.KeyHostSimulate) {
		h := sim.New()
		return h, h, nil
	}

	path := config.GetString(file.KeyHelperPath)
	h, err := helper.NewHost(helper.Config{
		HelperPath:   path,
		ProbeCommand: config.GetStringSlice(file.KeyProbeCommand),
		StartupGrace: time.Duration(config.GetInt(file.KeyStartupGraceSeconds)) * time.Second,
	}, clock)
	if err != nil {
		return nil, nil, fmt.Errorf("creating helper host: %w", err)
	}
	return h, helper.NewAchievements(path), nil
}
