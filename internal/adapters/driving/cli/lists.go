package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/idlekit/internal/core/domain"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Manage title lists",
	Long: `Manage the saved title lists:

  auto_idle             titles started by autoidle and the daemon
  achievement_unlocker  titles the unlocker works through, in order
  card_farming          titles farmed for card drops
  favorites             titles kept for quick access`,
}

var listShowCmd = &cobra.Command{
	Use:   "show [list]",
	Short: "Show one list or all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runListShow,
}

var listAddCmd = &cobra.Command{
	Use:   "add <list> <title-id> [name...]",
	Short: "Add a title to a list",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runListAdd,
}

var listRemoveCmd = &cobra.Command{
	Use:   "remove <list> <title-id>",
	Short: "Remove a title from a list",
	Args:  cobra.ExactArgs(2),
	RunE:  runListRemove,
}

var listClearCmd = &cobra.Command{
	Use:   "clear <list>",
	Short: "Empty a list",
	Args:  cobra.ExactArgs(1),
	RunE:  runListClear,
}

func init() {
	listCmd.AddCommand(listShowCmd)
	listCmd.AddCommand(listAddCmd)
	listCmd.AddCommand(listRemoveCmd)
	listCmd.AddCommand(listClearCmd)
	rootCmd.AddCommand(listCmd)
}

func runListShow(cmd *cobra.Command, args []string) error {
	if listService == nil {
		return notConfigured("list service")
	}

	names := domain.AllLists()
	if len(args) == 1 {
		name, err := parseListName(args[0])
		if err != nil {
			return err
		}
		names = []domain.ListName{name}
	}

	for i, name := range names {
		titles, err := listService.Get(cmd.Context(), name)
		if err != nil {
			return fmt.Errorf("failed to get %s: %w", name, err)
		}
		if i > 0 {
			cmd.Println()
		}
		cmd.Printf("%s (%d):\n", name, len(titles))
		for _, t := range titles {
			cmd.Printf("  %s\n", t)
		}
	}
	return nil
}

func runListAdd(cmd *cobra.Command, args []string) error {
	if listService == nil {
		return notConfigured("list service")
	}
	name, err := parseListName(args[0])
	if err != nil {
		return err
	}
	title, err := parseTitle(args[1:])
	if err != nil {
		return err
	}
	if err := listService.Add(cmd.Context(), name, title); err != nil {
		return fmt.Errorf("failed to add to %s: %w", name, err)
	}
	cmd.Printf("Added %s to %s\n", title, name)
	return nil
}

func runListRemove(cmd *cobra.Command, args []string) error {
	if listService == nil {
		return notConfigured("list service")
	}
	name, err := parseListName(args[0])
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("%w: title id %q", domain.ErrInvalidInput, args[1])
	}
	if err := listService.Remove(cmd.Context(), name, id); err != nil {
		return fmt.Errorf("failed to remove from %s: %w", name, err)
	}
	cmd.Printf("Removed %d from %s\n", id, name)
	return nil
}

func runListClear(cmd *cobra.Command, args []string) error {
	if listService == nil {
		return notConfigured("list service")
	}
	name, err := parseListName(args[0])
	if err != nil {
		return err
	}
	if err := listService.Clear(cmd.Context(), name); err != nil {
		return fmt.Errorf("failed to clear %s: %w", name, err)
	}
	cmd.Printf("Cleared %s\n", name)
	return nil
}
