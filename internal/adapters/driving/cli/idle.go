package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/idlekit/internal/core/domain"
)

var (
	idleWait       bool
	idleDetach     bool
	idleStatusJSON bool
)

var idleCmd = &cobra.Command{
	Use:   "idle",
	Short: "Manage idle sessions",
	Long: `Start, stop and inspect per-title idle sessions.

A manual session carries the idle budget from settings: the global
general.max_idle_minutes when positive, otherwise title.<id>.max_idle_minutes.`,
}

var idleStartCmd = &cobra.Command{
	Use:   "start <title-id> [name...]",
	Short: "Start idling a title",
	Long: `Start idling a title. A title the host already runs is reported, not an error.

The budget timer lives in this process, so a budgeted session keeps the
command running until the budget is spent or the session ends. --detach
returns at once and leaves the session running without its budget.
Use --wait to block on a session without a budget.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIdleStart,
}

var idleStopCmd = &cobra.Command{
	Use:   "stop <title-id>",
	Short: "Stop idling a title",
	Args:  cobra.ExactArgs(1),
	RunE:  runIdleStop,
}

var idleStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show running sessions",
	RunE:  runIdleStatus,
}

func init() {
	idleStartCmd.Flags().BoolVarP(&idleWait, "wait", "w", false, "block until the session ends")
	idleStartCmd.Flags().BoolVarP(&idleDetach, "detach", "d", false, "return at once; the budget is not enforced")
	idleStatusCmd.Flags().BoolVar(&idleStatusJSON, "json", false, "output as JSON")
	idleCmd.AddCommand(idleStartCmd)
	idleCmd.AddCommand(idleStopCmd)
	idleCmd.AddCommand(idleStatusCmd)
	rootCmd.AddCommand(idleCmd)
}

func runIdleStart(cmd *cobra.Command, args []string) error {
	if sessionRegistry == nil {
		return notConfigured("session registry")
	}
	title, err := parseTitle(args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	result, err := sessionRegistry.Start(ctx, title, true)
	if err != nil {
		return fmt.Errorf("failed to start %s: %w", title, err)
	}
	if result.AlreadyRunning {
		cmd.Printf("%s is already running\n", title)
		return nil
	}

	switch {
	case result.BudgetMinutes > 0 && idleDetach:
		cmd.Printf("Started %s; its %d minute budget is not enforced after this command exits\n",
			title, result.BudgetMinutes)
		return nil
	case result.BudgetMinutes > 0:
		cmd.Printf("Started %s (stops after %d minutes)\n", title, result.BudgetMinutes)
		return waitForSessionEnd(cmd, title)
	}

	cmd.Printf("Started %s\n", title)
	if !idleWait {
		return nil
	}
	return waitForSessionEnd(cmd, title)
}

// waitForSessionEnd polls the host until title is gone or the command is interrupted.
func waitForSessionEnd(cmd *cobra.Command, title domain.Title) error {
	ctx := cmd.Context()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			cmd.Printf("Interrupted; %s keeps running until stopped\n", title)
			return nil
		case <-ticker.C:
			running, err := sessionRegistry.Running(ctx)
			if err != nil {
				if interrupted(ctx, err) {
					cmd.Printf("Interrupted; %s keeps running until stopped\n", title)
					return nil
				}
				return fmt.Errorf("failed to list sessions: %w", err)
			}
			if !domain.ContainsID(running, title.ID) {
				cmd.Printf("%s stopped\n", title)
				return nil
			}
		}
	}
}

func runIdleStop(cmd *cobra.Command, args []string) error {
	if sessionRegistry == nil {
		return notConfigured("session registry")
	}
	title, err := parseTitle(args)
	if err != nil {
		return err
	}

	sessionRegistry.Stop(cmd.Context(), title)
	cmd.Printf("Stopped %s\n", title)
	return nil
}

// sessionStatus is the JSON shape of idle status.
type sessionStatus struct {
	Running      []int                    `json:"running"`
	Tracked      []domain.SessionSnapshot `json:"tracked"`
	StopFailures []domain.StopRecord      `json:"stop_failures,omitempty"`
}

func runIdleStatus(cmd *cobra.Command, _ []string) error {
	if sessionRegistry == nil {
		return notConfigured("session registry")
	}

	running, err := sessionRegistry.Running(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	status := sessionStatus{
		Running:      running,
		Tracked:      sessionRegistry.Snapshot(),
		StopFailures: sessionRegistry.StopFailures(),
	}

	if idleStatusJSON {
		return printJSON(cmd, status)
	}

	if len(status.Running) == 0 {
		cmd.Println("No sessions running.")
		return nil
	}

	tracked := make(map[int]domain.SessionSnapshot, len(status.Tracked))
	for _, s := range status.Tracked {
		tracked[s.Title.ID] = s
	}

	cmd.Printf("Running sessions (%d):\n", len(status.Running))
	for _, id := range status.Running {
		s, ok := tracked[id]
		switch {
		case !ok:
			cmd.Printf("  %d\n", id)
		case s.Budgeted():
			cmd.Printf("  %s  %s  stops in %s\n", s.Title, s.Kind, domain.FormatCountdown(s.Remaining))
		default:
			cmd.Printf("  %s  %s\n", s.Title, s.Kind)
		}
		if ok && s.LastStopError != "" {
			cmd.Printf("      last stop failed: %s\n", s.LastStopError)
		}
	}
	return nil
}
