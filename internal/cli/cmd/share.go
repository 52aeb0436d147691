package cmd

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/kurbezz/shared-lists/internal/cli/api"
	"github.com/kurbezz/shared-lists/internal/cli/output"
	"github.com/spf13/cobra"
)

var flagCanEdit bool

var shareCmd = &cobra.Command{
	Use:   "share",
	Short: "Manage who can see or edit a page",
}

var shareLsCmd = &cobra.Command{
	Use:   "ls <page-id>",
	Short: "Show the users a page is shared with",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		var resp api.Response[[]api.Permission]
		if err := apiClient.Get("/pages/"+args[0]+"/permissions", nil, &resp); err != nil {
			return fmt.Errorf("listing permissions: %w", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		output.PermissionTable(resp.Data)
		return nil
	},
}

var shareGrantCmd = &cobra.Command{
	Use:   "grant <page-id> <username>",
	Short: "Share a page with a user",
	Long: `Share a page with another user. The grant is view-only unless --edit is set.

  listctl share grant <page-id> bob
  listctl share grant <page-id> bob --edit`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		user, err := findUser(args[1])
		if err != nil {
			return err
		}

		var resp api.Response[api.Permission]
		body := map[string]interface{}{"user_id": user.ID, "can_edit": flagCanEdit}
		if err := apiClient.Post("/pages/"+args[0]+"/permissions", body, &resp); err != nil {
			return fmt.Errorf("sharing page: %w", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		access := "view"
		if resp.Data.CanEdit {
			access = "edit"
		}
		fmt.Printf("Shared with %s (%s)\n", user.Username, access)
		return nil
	},
}

var shareRevokeCmd = &cobra.Command{
	Use:   "revoke <page-id> <permission-id>",
	Short: "Stop sharing a page with a user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		if err := apiClient.Delete("/pages/"+args[0]+"/permissions/"+args[1], nil, nil); err != nil {
			return fmt.Errorf("revoking permission: %w", err)
		}
		fmt.Println("Revoked.")
		return nil
	},
}

// findUser resolves a username through the search endpoint, requiring an exact match.
func findUser(username string) (*api.User, error) {
	var resp api.Response[[]api.User]
	if err := apiClient.Get("/users/search", url.Values{"q": {username}}, &resp); err != nil {
		return nil, fmt.Errorf("searching users: %w", err)
	}
	for i := range resp.Data {
		if strings.EqualFold(resp.Data[i].Username, username) {
			return &resp.Data[i], nil
		}
	}
	return nil, fmt.Errorf("no user named %q", username)
}

func init() {
	shareGrantCmd.Flags().BoolVar(&flagCanEdit, "edit", false, "Allow the user to edit the page")
	shareCmd.AddCommand(shareLsCmd, shareGrantCmd, shareRevokeCmd)
	rootCmd.AddCommand(shareCmd)
}
