package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/idlekit/internal/core/domain"
)

var unlockStatusJSON bool

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Unlock achievements on a schedule",
	Long: `Unlock achievements of the titles in the achievement_unlocker list one at a
time, waiting a random interval between unlocker.interval_min and
unlocker.interval_max minutes after each one.`,
}

var unlockRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the unlocker until it completes",
	Args:  cobra.NoArgs,
	RunE:  runUnlockRun,
}

var unlockStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the unlocker and follow its progress",
	Args:  cobra.NoArgs,
	RunE:  runUnlockStart,
}

var unlockStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the unlocker state",
	Args:  cobra.NoArgs,
	RunE:  runUnlockStatus,
}

var unlockCancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel the active unlock run",
	Args:  cobra.NoArgs,
	RunE:  runUnlockCancel,
}

var unlockOrderCmd = &cobra.Command{
	Use:   "order",
	Short: "Manage custom unlock orders",
}

var unlockOrderImportCmd = &cobra.Command{
	Use:   "import <title-id> <file>",
	Short: "Import a custom unlock order from YAML or JSON",
	Long: `Import the unlock order of one title. The file holds a list of entries,
either at the top level or under "entries":

  - id: ACH_WIN_ONE_GAME
  - id: ACH_SECRET
    skip: true
  - id: ACH_WIN_100_GAMES
    delay_next_unlock: 90

Achievements not named follow the ordered ones by unlock percentage.`,
	Args: cobra.ExactArgs(2),
	RunE: runUnlockOrderImport,
}

func init() {
	unlockStatusCmd.Flags().BoolVar(&unlockStatusJSON, "json", false, "output as JSON")
	unlockOrderCmd.AddCommand(unlockOrderImportCmd)
	unlockCmd.AddCommand(unlockRunCmd)
	unlockCmd.AddCommand(unlockStartCmd)
	unlockCmd.AddCommand(unlockStatusCmd)
	unlockCmd.AddCommand(unlockCancelCmd)
	unlockCmd.AddCommand(unlockOrderCmd)
	rootCmd.AddCommand(unlockCmd)
}

func runUnlockRun(cmd *cobra.Command, _ []string) error {
	if unlockScheduler == nil {
		return notConfigured("unlock scheduler")
	}

	ctx := cmd.Context()
	err := unlockScheduler.Run(ctx)
	if err != nil && !interrupted(ctx, err) {
		return fmt.Errorf("unlock run failed: %w", err)
	}
	printUnlockSnapshot(cmd, unlockScheduler.Snapshot())
	return nil
}

func runUnlockStart(cmd *cobra.Command, _ []string) error {
	if unlockScheduler == nil {
		return notConfigured("unlock scheduler")
	}

	ctx := cmd.Context()
	if err := unlockScheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start unlocker: %w", err)
	}

	done := make(chan struct{})
	go func() {
		unlockScheduler.Wait()
		close(done)
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	var last domain.UnlockSnapshot
	for {
		select {
		case <-ctx.Done():
			unlockScheduler.Cancel()
			<-done
			cmd.Println("Unlock run cancelled.")
			return nil
		case <-done:
			printUnlockSnapshot(cmd, unlockScheduler.Snapshot())
			return nil
		case <-ticker.C:
			snap := unlockScheduler.Snapshot()
			if snap.Phase != last.Phase || snap.TotalUnlocked != last.TotalUnlocked {
				printUnlockProgress(cmd, snap)
			}
			last = snap
		}
	}
}

func runUnlockStatus(cmd *cobra.Command, _ []string) error {
	if unlockScheduler == nil {
		return notConfigured("unlock scheduler")
	}
	snap := unlockScheduler.Snapshot()
	if unlockStatusJSON {
		return printJSON(cmd, snap)
	}
	printUnlockSnapshot(cmd, snap)
	return nil
}

func runUnlockCancel(cmd *cobra.Command, _ []string) error {
	if unlockScheduler == nil {
		return notConfigured("unlock scheduler")
	}
	unlockScheduler.Cancel()
	cmd.Println("Unlock run cancelled.")
	return nil
}

func printUnlockProgress(cmd *cobra.Command, snap domain.UnlockSnapshot) {
	switch snap.Phase {
	case domain.UnlockUnlocking:
		title := "-"
		if snap.CurrentTitle != nil {
			title = snap.CurrentTitle.String()
		}
		cmd.Printf("[%s] %s: %d unlocked, next in %s\n",
			snap.Phase, title, snap.UnlockedCount, domain.FormatCountdown(snap.NextUnlockEta))
	default:
		cmd.Printf("[%s] %d unlocked\n", snap.Phase, snap.TotalUnlocked)
	}
}

func printUnlockSnapshot(cmd *cobra.Command, snap domain.UnlockSnapshot) {
	cmd.Printf("Phase:    %s\n", snap.Phase)
	if snap.RunID != "" {
		cmd.Printf("Run:      %s\n", snap.RunID)
	}
	if snap.CurrentTitle != nil {
		cmd.Printf("Title:    %s (%d/%d)\n", snap.CurrentTitle, snap.CurrentIndex+1, snap.QueueLength)
		cmd.Printf("Unlocked: %d, %d remaining\n", snap.UnlockedCount, snap.RemainingForCurrent)
	}
	if !snap.NextUnlockAt.IsZero() {
		cmd.Printf("Next:     %s\n", domain.FormatCountdown(snap.NextUnlockEta))
	}
	cmd.Printf("Total:    %d\n", snap.TotalUnlocked)
}

// parseOrder accepts a bare entry list or a document with an entries key.
// JSON parses as YAML.
func parseOrder(data []byte) ([]domain.OrderEntry, error) {
	var entries []domain.OrderEntry
	if err := yaml.Unmarshal(data, &entries); err == nil {
		return entries, nil
	}
	var doc domain.AchievementOrder
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return doc.Entries, nil
}

func runUnlockOrderImport(cmd *cobra.Command, args []string) error {
	if orderStore == nil || identityProvider == nil {
		return notConfigured("order store")
	}
	titleID, err := strconv.Atoi(args[0])
	if err != nil || titleID <= 0 {
		return fmt.Errorf("%w: title id %q", domain.ErrInvalidInput, args[0])
	}

	data, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("failed to read order file: %w", err)
	}
	entries, err := parseOrder(data)
	if err != nil {
		return fmt.Errorf("failed to parse order file: %w", err)
	}
	for i, e := range entries {
		if e.ID == "" {
			return fmt.Errorf("%w: entry %d has no id", domain.ErrInvalidInput, i+1)
		}
		if e.DelayNextUnlock < 0 {
			return fmt.Errorf("%w: entry %s has a negative delay", domain.ErrInvalidInput, e.ID)
		}
	}

	ctx := cmd.Context()
	identity, err := identityProvider.Current(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNoIdentity) {
			return fmt.Errorf("%w: set identity.id in the config file", err)
		}
		return err
	}
	if err := orderStore.SaveOrder(ctx, identity, domain.AchievementOrder{TitleID: titleID, Entries: entries}); err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	cmd.Printf("Imported %d entries for title %d\n", len(entries), titleID)
	return nil
}
