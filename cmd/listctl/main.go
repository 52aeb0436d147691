package main

import (
	"os"

	"github.com/kurbezz/shared-lists/internal/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
