package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/idlekit/internal/adapters/driving/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch sessions and the unlock run in a terminal view",
	Long: `Open a live view of running sessions, the unlock run and the farming
batch. The view refreshes every second.

Unlock and farming state is only known to the process running them, so
run watch from the daemon's terminal or start them from here.

Controls:
  ↑/k, ↓/j - Move through sessions
  c        - Cancel the unlock run
  f        - Stop farming
  r        - Refresh now
  ?        - Toggle help
  q        - Quit`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in watch view: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	ports := &tui.Ports{
		Registry: sessionRegistry,
		Unlocker: unlockScheduler,
		Farming:  farmingService,
	}
	app, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create watch view: %w", err)
	}
	app.WithContext(cmd.Context())

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	_, err = p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) && !interrupted(cmd.Context(), err) {
		return fmt.Errorf("watch view: %w", err)
	}
	return nil
}
