package cmd

import (
	"fmt"
	"net/url"

	"github.com/kurbezz/shared-lists/internal/cli/api"
	"github.com/kurbezz/shared-lists/internal/cli/output"
	"github.com/spf13/cobra"
)

var flagHard bool

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage API keys",
	Long: `List and revoke API keys. New keys can only be created from a browser
session in the web settings page.`,
}

var keysLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List your API keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		var resp api.Response[[]api.APIKey]
		if err := apiClient.Get("/settings/api-keys", nil, &resp); err != nil {
			return fmt.Errorf("listing keys: %w", err)
		}

		if flagJSON {
			output.JSON(resp.Data)
			return nil
		}
		output.KeyTable(resp.Data)
		return nil
	},
}

var keysRevokeCmd = &cobra.Command{
	Use:   "revoke <key-id>",
	Short: "Revoke an API key",
	Long: `Revoke an API key so it can no longer authenticate. With --hard a key
that is already revoked is removed entirely.

The server only lets an API key revoke itself; other keys are managed from
the web settings page.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireAuth(); err != nil {
			return err
		}

		var params url.Values
		if flagHard {
			params = url.Values{"hard": {"true"}}
		}
		if err := apiClient.Delete("/settings/api-keys/"+args[0], params, nil); err != nil {
			return fmt.Errorf("revoking key: %w", err)
		}

		if flagHard {
			fmt.Println("Deleted.")
		} else {
			fmt.Println("Revoked.")
		}
		return nil
	},
}

func init() {
	keysRevokeCmd.Flags().BoolVar(&flagHard, "hard", false, "Delete a revoked key instead of revoking")
	keysCmd.AddCommand(keysLsCmd, keysRevokeCmd)
	rootCmd.AddCommand(keysCmd)
}
