package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/kurbezz/shared-lists/internal/cli/api"
	"github.com/kurbezz/shared-lists/internal/cli/config"
	"github.com/spf13/cobra"
)

var flagToken string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with an API key",
	Long: `Store an API key for later commands. Keys are created in the web
settings page; the token is validated against the server before it is saved.

  listctl login --token sl_abc123...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagToken == "" {
			return fmt.Errorf("--token is required")
		}
		if err := config.ValidateToken(flagToken); err != nil {
			return err
		}

		client := api.NewClient(cfg.ServerURL, flagToken)
		var resp api.Response[api.User]
		if err := client.Get("/users/me", nil, &resp); err != nil {
			var apiErr *api.APIError
			if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
				return fmt.Errorf("invalid token, server returned 401")
			}
			return fmt.Errorf("validating token: %w", err)
		}

		cfg.Token = flagToken
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}

		fmt.Printf("Logged in as %s\n", resp.Data.Username)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Clear(); err != nil {
			return fmt.Errorf("clearing config: %w", err)
		}
		fmt.Println("Logged out.")
		if os.Getenv(config.EnvToken) != "" {
			fmt.Printf("Note: %s is still set and will keep authenticating.\n", config.EnvToken)
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&flagToken, "token", "", "API key (sl_...)")
	rootCmd.AddCommand(loginCmd, logoutCmd)
}
