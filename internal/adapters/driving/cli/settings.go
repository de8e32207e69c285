package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/idlekit/internal/core/domain"
)

var settingsJSON bool

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage automation settings",
	Long: `View and change the automation settings of the active identity.

Keys:
  general.max_idle_minutes           budget for every manual session (0 = per title)
  title.<id>.max_idle_minutes        budget for one title
  title.<id>.max_achievement_unlocks unlock limit for one title
  title.<id>.max_card_drops          drop limit for one title
  unlocker.interval_min              shortest wait between unlocks, in minutes
  unlocker.interval_max              longest wait between unlocks, in minutes
  unlocker.schedule_enabled          only unlock inside the daily window
  unlocker.schedule_from             window start (HH:MM)
  unlocker.schedule_to               window end (HH:MM, may wrap midnight)
  unlocker.idle                      idle the title while unlocking
  unlocker.include_hidden            unlock hidden achievements
  unlocker.next_task                 run auto_idle or farming when done
  farming.all_titles                 farm every title with drops`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsSet,
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset <key>",
	Short: "Restore a setting to its default",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsReset,
}

func init() {
	settingsCmd.PersistentFlags().BoolVar(&settingsJSON, "json", false, "output as JSON")
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsResetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return notConfigured("settings service")
	}

	ctx := cmd.Context()
	settings, err := settingsService.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if settingsJSON {
		return printJSON(cmd, settings)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[General]")
	cmd.Printf("  Max idle minutes: %s\n", orUnlimited(settings.General.MaxIdleMinutes))
	cmd.Println()

	u := settings.Unlocker
	cmd.Println("[Unlocker]")
	cmd.Printf("  Interval: %d-%d minutes\n", u.Interval.MinMinutes, u.Interval.MaxMinutes)
	if u.Schedule.Enabled {
		cmd.Printf("  Schedule: %s-%s\n", u.Schedule.From, u.Schedule.To)
	} else {
		cmd.Println("  Schedule: always")
	}
	cmd.Printf("  Idle while unlocking: %t\n", u.Idle)
	cmd.Printf("  Include hidden: %t\n", u.IncludeHidden)
	if u.NextTask != domain.NextTaskNone {
		cmd.Printf("  Next task: %s\n", u.NextTask)
	}
	cmd.Println()

	cmd.Println("[Farming]")
	cmd.Printf("  All titles: %t\n", settings.Farming.AllTitles)

	raw, err := settingsService.Raw(ctx)
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	var titleKeys []string
	for k := range raw {
		if strings.HasPrefix(k, "title.") {
			titleKeys = append(titleKeys, k)
		}
	}
	if len(titleKeys) > 0 {
		slices.Sort(titleKeys)
		cmd.Println()
		cmd.Println("[Titles]")
		for _, k := range titleKeys {
			cmd.Printf("  %s = %s\n", k, raw[k])
		}
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return notConfigured("settings service")
	}
	key, value := args[0], args[1]
	if err := settingsService.Set(cmd.Context(), key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	cmd.Printf("%s = %s\n", key, value)
	return nil
}

func runSettingsReset(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return notConfigured("settings service")
	}
	if err := settingsService.Reset(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to reset %s: %w", args[0], err)
	}
	cmd.Printf("%s restored to default\n", args[0])
	return nil
}

func orUnlimited(minutes int) string {
	if minutes <= 0 {
		return "unlimited"
	}
	return fmt.Sprintf("%d", minutes)
}
