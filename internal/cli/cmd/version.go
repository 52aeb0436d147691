package cmd

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/kurbezz/shared-lists/internal/cli/output"
	"github.com/spf13/cobra"
)

// Version is the CLI version, injected at build time:
//
//	go build -ldflags "-X github.com/kurbezz/shared-lists/internal/cli/cmd.Version=1.2.3" ./cmd/listctl
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show CLI version and server health",
	RunE: func(cmd *cobra.Command, args []string) error {
		status := serverStatus()

		if flagJSON {
			output.JSON(map[string]string{
				"cli_version": Version,
				"server":      cfg.ServerURL,
				"status":      status,
			})
			return nil
		}

		fmt.Printf("listctl %s\n", Version)
		fmt.Printf("server  %s (%s)\n", cfg.ServerURL, status)
		return nil
	},
}

func serverStatus() string {
	resp, err := apiClient.HTTPClient.Get(strings.TrimRight(cfg.ServerURL, "/") + "/health")
	if err != nil {
		return "unreachable"
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("unhealthy: %d", resp.StatusCode)
	}
	return "ok"
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
