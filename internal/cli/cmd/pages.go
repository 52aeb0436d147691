package cmd

import (
	"fmt"

	"github.com/kurbezz/shared-lists/internal/cli/api"
	"github.com/kurbezz/shared-lists/internal/cli/output"
	"github.com/spf13/cobra"
)

var (
	flagDescription string
	flagPageForce   bool
)

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "Work with pages",
}

var pagesLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List pages you created or that are shared with you",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		var resp api.Response[[]api.Page]
		if err := apiClient.Get("/pages", nil, &resp); err != nil {
			return fmt.Errorf("listing pages: %w", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		output.PageTable(resp.Data)
		return nil
	},
}

var pagesCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		body := map[string]interface{}{"title": args[0]}
		if flagDescription != "" {
			body["description"] = flagDescription
		}

		var resp api.Response[api.Page]
		if err := apiClient.Post("/pages", body, &resp); err != nil {
			return fmt.Errorf("creating page: %w", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		fmt.Printf("Created page %q (%s)\n", resp.Data.Title, resp.Data.ID)
		return nil
	},
}

var pagesShowCmd = &cobra.Command{
	Use:   "show <page-id>",
	Short: "Show a page with its lists and items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		var pageResp api.Response[api.Page]
		if err := apiClient.Get("/pages/"+args[0], nil, &pageResp); err != nil {
			return fmt.Errorf("fetching page: %w", err)
		}

		lists, err := fetchListsWithItems(args[0])
		if err != nil {
			return err
		}

		if flagJSON {
			output.JSON(map[string]interface{}{"page": pageResp.Data, "lists": lists})
			return nil
		}
		output.PageDetail(pageResp.Data, lists)
		return nil
	},
}

var pagesRmCmd = &cobra.Command{
	Use:   "rm <page-id>",
	Short: "Delete a page",
	Long: `Delete a page you created, together with its lists, items and shares.

  listctl pages rm <page-id>
  listctl pages rm <page-id> --force    Skip confirmation`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		var pageResp api.Response[api.Page]
		if err := apiClient.Get("/pages/"+args[0], nil, &pageResp); err != nil {
			return fmt.Errorf("fetching page: %w", err)
		}

		if !flagPageForce && !confirm(fmt.Sprintf("Delete page %q and everything on it? This cannot be undone.", pageResp.Data.Title)) {
			fmt.Println("Cancelled.")
			return nil
		}

		if err := apiClient.Delete("/pages/"+args[0], nil, nil); err != nil {
			return fmt.Errorf("deleting page: %w", err)
		}
		fmt.Printf("Deleted: %s\n", pageResp.Data.Title)
		return nil
	},
}

func fetchListsWithItems(pageID string) ([]api.List, error) {
	var listsResp api.Response[[]api.List]
	if err := apiClient.Get("/pages/"+pageID+"/lists", nil, &listsResp); err != nil {
		return nil, fmt.Errorf("fetching lists: %w", err)
	}

	lists := listsResp.Data
	for i := range lists {
		var itemsResp api.Response[[]api.Item]
		if err := apiClient.Get("/lists/"+lists[i].ID+"/items", nil, &itemsResp); err != nil {
			return nil, fmt.Errorf("fetching items of %q: %w", lists[i].Title, err)
		}
		lists[i].Items = itemsResp.Data
	}
	return lists, nil
}

func init() {
	pagesCreateCmd.Flags().StringVarP(&flagDescription, "description", "d", "", "Page description")
	pagesRmCmd.Flags().BoolVarP(&flagPageForce, "force", "f", false, "Skip confirmation prompt")
	pagesCmd.AddCommand(pagesLsCmd, pagesCreateCmd, pagesShowCmd, pagesRmCmd)
	rootCmd.AddCommand(pagesCmd)
}
