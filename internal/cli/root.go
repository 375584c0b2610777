// Package cli implements the couples command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "couples",
	Short: "Challenge proposal and credit ledger service for couples",
	Long: `couples runs the backend for a two-player engagement game: partners
propose challenges to each other, accept them at a negotiated credit cost,
and settle credits through an append-only ledger when a challenge is
confirmed complete.`,
	Version: Version,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default ~/.couples/config.toml)")
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
