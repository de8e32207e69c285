package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/idlekit/internal/core/domain"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [task-id]",
	Short: "Show scheduled task runs",
	Long: `Show the daemon's scheduled tasks and their recent runs.

Tasks:
  auto-idle          launches the auto_idle list
  credentials-check  validates stored community credentials`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "runs to show per task")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if taskScheduler == nil {
		return notConfigured("scheduler")
	}

	ctx := cmd.Context()
	tasks, err := taskScheduler.Tasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}
	if len(args) == 1 {
		var filtered []domain.ScheduledTask
		for _, t := range tasks {
			if t.ID == args[0] {
				filtered = append(filtered, t)
			}
		}
		if len(filtered) == 0 {
			return fmt.Errorf("%w: task %q", domain.ErrNotFound, args[0])
		}
		tasks = filtered
	}
	if len(tasks) == 0 {
		cmd.Println("No tasks have been scheduled yet. Start the daemon with: idlekit daemon")
		return nil
	}

	for i, task := range tasks {
		if i > 0 {
			cmd.Println()
		}
		state := "enabled"
		if !task.Enabled {
			state = "disabled"
		}
		cmd.Printf("%s (%s, every %s, %s)\n", task.Name, task.ID, task.Interval, state)
		if !task.NextRun.IsZero() {
			cmd.Printf("  Next run: %s\n", task.NextRun.Local().Format(time.DateTime))
		}

		results, err := taskScheduler.History(ctx, task.ID, historyLimit)
		if err != nil {
			return fmt.Errorf("failed to get history for %s: %w", task.ID, err)
		}
		if len(results) == 0 {
			cmd.Println("  No runs yet.")
			continue
		}
		for _, r := range results {
			status := "ok"
			if !r.Success {
				status = "error: " + r.Error
			}
			line := fmt.Sprintf("  %s  %6s  %d titles  %s",
				r.StartedAt.Local().Format(time.DateTime), r.Duration().Round(time.Millisecond), r.Titles, status)
			if r.Summary != "" {
				line += " (" + r.Summary + ")"
			}
			cmd.Println(line)
		}
	}
	return nil
}
