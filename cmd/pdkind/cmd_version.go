package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags "-X main.version=...";
// it stays "dev" for a plain `go build`.
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the pdkind version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("pdkind", version)
		return nil
	},
}
