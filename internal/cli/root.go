// Package cli wires the godcoind command tree: server, reindex, wallet
// and version, following the teacher's cobra root/subcommand layout.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:     "godcoind",
	Short:   "godcoind - a permissioned ledger node",
	Long:    `godcoind runs a single-producer permissioned ledger node: a script-gated account engine, an append-only block log, and a client-facing RPC surface.`,
	Version: "0.1.0-dev",
}

// Execute runs the root command; it is the sole entry point called from
// cmd/godcoind's main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path (TOML)")
}
