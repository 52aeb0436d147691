package cmd

import (
	"fmt"

	"github.com/kurbezz/shared-lists/internal/cli/api"
	"github.com/kurbezz/shared-lists/internal/cli/output"
	"github.com/spf13/cobra"
)

var flagItemPosition int

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "Work with the items of a list",
}

var itemsLsCmd = &cobra.Command{
	Use:   "ls <list-id>",
	Short: "Show the items of a list in order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		var resp api.Response[[]api.Item]
		if err := apiClient.Get("/lists/"+args[0]+"/items", nil, &resp); err != nil {
			return fmt.Errorf("listing items: %w", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		output.ItemTable(resp.Data)
		return nil
	},
}

var itemsAddCmd = &cobra.Command{
	Use:   "add <list-id> <content>",
	Short: "Add an item to a list",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		body := map[string]interface{}{"content": args[1]}
		if cmd.Flags().Changed("position") {
			body["position"] = flagItemPosition
		}

		var resp api.Response[api.Item]
		if err := apiClient.Post("/lists/"+args[0]+"/items", body, &resp); err != nil {
			return fmt.Errorf("creating item: %w", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		fmt.Printf("Added %q at position %d (%s)\n", resp.Data.Content, resp.Data.Position, resp.Data.ID)
		return nil
	},
}

var itemsCheckCmd = &cobra.Command{
	Use:   "check <list-id> <item-id>",
	Short: "Mark an item as done",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setChecked(args[0], args[1], true)
	},
}

var itemsUncheckCmd = &cobra.Command{
	Use:   "uncheck <list-id> <item-id>",
	Short: "Mark an item as not done",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setChecked(args[0], args[1], false)
	},
}

var itemsReorderCmd = &cobra.Command{
	Use:   "reorder <list-id> <item-id>...",
	Short: "Reorder items, assigning positions in argument order",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		var resp api.Response[[]api.Item]
		body := map[string]interface{}{"positions": sequentialPositions(args[1:])}
		if err := apiClient.Put("/lists/"+args[0]+"/items/reorder", body, &resp); err != nil {
			return fmt.Errorf("reordering items: %w", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		output.ItemTable(resp.Data)
		return nil
	},
}

var itemsRmCmd = &cobra.Command{
	Use:   "rm <list-id> <item-id>",
	Short: "Delete an item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		if err := apiClient.Delete("/lists/"+args[0]+"/items/"+args[1], nil, nil); err != nil {
			return fmt.Errorf("deleting item: %w", err)
		}
		fmt.Println("Deleted.")
		return nil
	},
}

func setChecked(listID, itemID string, checked bool) error {
	if err := requireAuth(); err != nil {
		return err
	}

	var resp api.Response[api.Item]
	if err := apiClient.Patch("/lists/"+listID+"/items/"+itemID, map[string]bool{"checked": checked}, &resp); err != nil {
		return fmt.Errorf("updating item: %w", err)
	}

	if flagJSON {
		output.JSON(resp.Data)
		return nil
	}
	mark := "[ ]"
	if resp.Data.Checked {
		mark = "[x]"
	}
	fmt.Printf("%s %s\n", mark, resp.Data.Content)
	return nil
}

func init() {
	itemsAddCmd.Flags().IntVar(&flagItemPosition, "position", 0, "Insert at this position instead of appending")
	itemsCmd.AddCommand(itemsLsCmd, itemsAddCmd, itemsCheckCmd, itemsUncheckCmd, itemsReorderCmd, itemsRmCmd)
	rootCmd.AddCommand(itemsCmd)
}
