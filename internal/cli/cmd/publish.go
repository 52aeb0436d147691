package cmd

import (
	"fmt"
	"strings"

	"github.com/kurbezz/shared-lists/internal/cli/api"
	"github.com/kurbezz/shared-lists/internal/cli/output"
	"github.com/spf13/cobra"
)

var publishCmd = &cobra.Command{
	Use:   "publish <page-id> <slug>",
	Short: "Publish a read-only view of a page under a slug",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setPublicSlug(args[0], &args[1])
	},
}

var unpublishCmd = &cobra.Command{
	Use:   "unpublish <page-id>",
	Short: "Remove the public view of a page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setPublicSlug(args[0], nil)
	},
}

func setPublicSlug(pageID string, slug *string) error {
	if err := requireAuth(); err != nil {
		return err
	}

	var resp api.Response[api.Page]
	body := map[string]*string{"public_slug": slug}
	if err := apiClient.Put("/pages/"+pageID+"/public-slug", body, &resp); err != nil {
		return fmt.Errorf("updating public slug: %w", err)
	}

	if flagJSON {
		output.JSON(resp.Data)
		return nil
	}
	if resp.Data.PublicSlug == nil {
		fmt.Printf("%q is no longer public\n", resp.Data.Title)
		return nil
	}
	fmt.Printf("Published at %s/api/public/%s\n", strings.TrimRight(cfg.ServerURL, "/"), *resp.Data.PublicSlug)
	return nil
}

func init() {
	rootCmd.AddCommand(publishCmd, unpublishCmd)
}
