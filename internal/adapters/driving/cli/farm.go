package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/idlekit/internal/core/domain"
)

var farmDetach bool

var farmCmd = &cobra.Command{
	Use:   "farm",
	Short: "Farm card drops",
	Long: `Validate the stored community credentials, then idle the titles of the
card_farming list (or every title with drops when farming.all_titles is on)
until no drops remain.`,
}

var farmStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start farming",
	Long: `Start farming. The drop cycle runs in this process: the command keeps
running until every title is finished or it is interrupted. With --detach
the batch is started and left running without the cycle.`,
	Args: cobra.NoArgs,
	RunE: runFarmStart,
}

var farmStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop farming",
	Args:  cobra.NoArgs,
	RunE:  runFarmStop,
}

func init() {
	farmStartCmd.Flags().BoolVarP(&farmDetach, "detach", "d", false, "start the batch and exit")
	farmCmd.AddCommand(farmStartCmd)
	farmCmd.AddCommand(farmStopCmd)
	rootCmd.AddCommand(farmCmd)
}

func runFarmStart(cmd *cobra.Command, _ []string) error {
	if farmingService == nil {
		return notConfigured("farming service")
	}

	ctx := cmd.Context()
	report, err := farmingService.Start(ctx)
	switch {
	case errors.Is(err, domain.ErrMissingCredentials):
		return fmt.Errorf("%w: run idlekit credentials set", err)
	case errors.Is(err, domain.ErrCredentialsExpired):
		return fmt.Errorf("%w: stored credentials were cleared, run idlekit credentials set", err)
	case errors.Is(err, domain.ErrNoTitles):
		cmd.Println("The card_farming list is empty. Add titles or set farming.all_titles to true.")
		return nil
	case err != nil:
		return fmt.Errorf("farming failed: %w", err)
	}

	if report.Profile != nil {
		cmd.Printf("Signed in as %s\n", report.Profile.Name)
	}
	if len(report.Started) == 0 && len(report.Failed) == 0 {
		cmd.Println("Nothing to farm.")
		return nil
	}
	for _, t := range report.Targets {
		cmd.Printf("  %s  %d drops remaining\n", t.Title, t.Remaining)
	}
	if len(report.Failed) > 0 {
		cmd.Printf("Failed to start: %s\n", formatTitles(report.Failed))
	}

	if farmDetach {
		return nil
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			farmingService.Stop(context.WithoutCancel(ctx))
			cmd.Println("Farming stopped.")
			return nil
		case <-ticker.C:
			if !farmingService.Snapshot().Active {
				cmd.Println("Farming complete.")
				return nil
			}
		}
	}
}

func runFarmStop(cmd *cobra.Command, _ []string) error {
	if farmingService == nil {
		return notConfigured("farming service")
	}
	farmingService.Stop(cmd.Context())
	cmd.Println("Farming stopped.")
	return nil
}
