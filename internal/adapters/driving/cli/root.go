// Package cli provides the idlekit command-line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/idlekit/internal/core/ports/driven"
	"github.com/custodia-labs/idlekit/internal/core/ports/driving"
	"github.com/custodia-labs/idlekit/internal/logger"
)

var (
	version = "dev"
	verbose bool
)

// Services wired in by main. Commands check for nil before use.
var (
	sessionRegistry    driving.SessionRegistry
	autoIdleLauncher   driving.AutoIdleLauncher
	unlockScheduler    driving.UnlockScheduler
	farmingService     driving.FarmingOrchestrator
	settingsService    driving.SettingsService
	credentialsService driving.CredentialsService
	listService        driving.ListService
	taskScheduler      driving.Scheduler
	orderStore         driven.AchievementOrderStore
	identityProvider   driven.IdentityProvider
	configStore        driven.ConfigStore
)

// Services holds every port the commands use.
type Services struct {
	Registry    driving.SessionRegistry
	Launcher    driving.AutoIdleLauncher
	Unlocker    driving.UnlockScheduler
	Farming     driving.FarmingOrchestrator
	Settings    driving.SettingsService
	Credentials driving.CredentialsService
	Lists       driving.ListService
	Scheduler   driving.Scheduler
	Orders      driven.AchievementOrderStore
	Identity    driven.IdentityProvider
	Config      driven.ConfigStore
}

var rootCmd = &cobra.Command{
	Use:   "idlekit",
	Short: "Unattended idling, achievement unlocking and card farming",
	Long: `idlekit automates long-running activities against the desktop host:
idle sessions with time budgets, auto-idling a saved list of titles,
unlocking achievements on a randomised cadence and farming card drops.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// SetServices wires the services used by every command.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	sessionRegistry = s.Registry
	autoIdleLauncher = s.Launcher
	unlockScheduler = s.Unlocker
	farmingService = s.Farming
	settingsService = s.Settings
	credentialsService = s.Credentials
	listService = s.Lists
	taskScheduler = s.Scheduler
	orderStore = s.Orders
	identityProvider = s.Identity
	configStore = s.Config
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command. Long-running commands stop when ctx is done.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
