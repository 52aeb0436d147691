package cmd

import (
	"fmt"

	"github.com/kurbezz/shared-lists/internal/cli/api"
	"github.com/kurbezz/shared-lists/internal/cli/output"
	"github.com/spf13/cobra"
)

var (
	flagListPosition int
	flagNoCheckboxes bool
	flagNoProgress   bool
	flagListForce    bool
)

var listsCmd = &cobra.Command{
	Use:   "lists",
	Short: "Work with the lists on a page",
}

var listsLsCmd = &cobra.Command{
	Use:   "ls <page-id>",
	Short: "Show the lists of a page in order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		var resp api.Response[[]api.List]
		if err := apiClient.Get("/pages/"+args[0]+"/lists", nil, &resp); err != nil {
			return fmt.Errorf("listing lists: %w", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		output.ListTable(resp.Data)
		return nil
	},
}

var listsAddCmd = &cobra.Command{
	Use:   "add <page-id> <title>",
	Short: "Add a list to a page",
	Long: `Add a list to a page. Without --position the list is appended;
with it, lists at or after that position move down.

  listctl lists add <page-id> Produce
  listctl lists add <page-id> Dairy --position 0 --no-progress`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		body := map[string]interface{}{
			"title":           args[1],
			"show_checkboxes": !flagNoCheckboxes,
			"show_progress":   !flagNoProgress,
		}
		if cmd.Flags().Changed("position") {
			body["position"] = flagListPosition
		}

		var resp api.Response[api.List]
		if err := apiClient.Post("/pages/"+args[0]+"/lists", body, &resp); err != nil {
			return fmt.Errorf("creating list: %w", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		fmt.Printf("Created list %q at position %d (%s)\n", resp.Data.Title, resp.Data.Position, resp.Data.ID)
		return nil
	},
}

var listsReorderCmd = &cobra.Command{
	Use:   "reorder <page-id> <list-id>...",
	Short: "Reorder lists",
	Long: `Assign positions 0..n-1 to the given lists, in argument order.
Every list named must belong to the page; the batch is applied as a whole.

  listctl lists reorder <page-id> <dairy-id> <produce-id>`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		var resp api.Response[[]api.List]
		body := map[string]interface{}{"positions": sequentialPositions(args[1:])}
		if err := apiClient.Put("/pages/"+args[0]+"/lists/reorder", body, &resp); err != nil {
			return fmt.Errorf("reordering lists: %w", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		output.ListTable(resp.Data)
		return nil
	},
}

var listsRmCmd = &cobra.Command{
	Use:   "rm <page-id> <list-id>",
	Short: "Delete a list and its items",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		path := "/pages/" + args[0] + "/lists/" + args[1]
		var listResp api.Response[api.List]
		if err := apiClient.Get(path, nil, &listResp); err != nil {
			return fmt.Errorf("fetching list: %w", err)
		}

		if !flagListForce && !confirm(fmt.Sprintf("Delete list %q with %d items?", listResp.Data.Title, len(listResp.Data.Items))) {
			fmt.Println("Cancelled.")
			return nil
		}

		if err := apiClient.Delete(path, nil, nil); err != nil {
			return fmt.Errorf("deleting list: %w", err)
		}
		fmt.Printf("Deleted: %s\n", listResp.Data.Title)
		return nil
	},
}

func sequentialPositions(ids []string) []api.PositionUpdate {
	updates := make([]api.PositionUpdate, len(ids))
	for i, id := range ids {
		updates[i] = api.PositionUpdate{ID: id, Position: i}
	}
	return updates
}

func init() {
	listsAddCmd.Flags().IntVar(&flagListPosition, "position", 0, "Insert at this position instead of appending")
	listsAddCmd.Flags().BoolVar(&flagNoCheckboxes, "no-checkboxes", false, "Hide checkboxes on this list")
	listsAddCmd.Flags().BoolVar(&flagNoProgress, "no-progress", false, "Hide the progress counter on this list")
	listsRmCmd.Flags().BoolVarP(&flagListForce, "force", "f", false, "Skip confirmation prompt")
	listsCmd.AddCommand(listsLsCmd, listsAddCmd, listsReorderCmd, listsRmCmd)
	rootCmd.AddCommand(listsCmd)
}
