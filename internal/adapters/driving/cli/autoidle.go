package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/idlekit/internal/core/domain"
)

var autoIdleJSON bool

var autoIdleCmd = &cobra.Command{
	Use:   "autoidle",
	Short: "Launch the auto-idle list",
	Long: `Wait for the host to be ready, then start every title in the auto_idle list
(at most 32). Titles that fail to start are retried up to three times.`,
	Args: cobra.NoArgs,
	RunE: runAutoIdle,
}

func init() {
	autoIdleCmd.Flags().BoolVar(&autoIdleJSON, "json", false, "output the launch report as JSON")
	rootCmd.AddCommand(autoIdleCmd)
}

func runAutoIdle(cmd *cobra.Command, _ []string) error {
	if autoIdleLauncher == nil {
		return notConfigured("auto-idle launcher")
	}

	report, err := autoIdleLauncher.Trigger(cmd.Context(), true)
	if errors.Is(err, domain.ErrNoTitles) {
		cmd.Println("The auto_idle list is empty. Add titles with: idlekit list add auto_idle <title-id>")
		return nil
	}
	if err != nil {
		return fmt.Errorf("auto-idle failed: %w", err)
	}

	if autoIdleJSON {
		return printJSON(cmd, report)
	}
	printLaunchReport(cmd, report)
	return nil
}

func printLaunchReport(cmd *cobra.Command, report *domain.LaunchReport) {
	if report.GaveUp {
		cmd.Println("Host never became ready; nothing was started.")
		return
	}
	cmd.Printf("Started:         %s\n", formatTitles(report.Started))
	cmd.Printf("Already running: %s\n", formatTitles(report.AlreadyRunning))
	if len(report.Failed) > 0 {
		cmd.Printf("Failed:          %s\n", formatTitles(report.Failed))
	}
	cmd.Printf("Attempts:        %d\n", report.Attempts)
}
