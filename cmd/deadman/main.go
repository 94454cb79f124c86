// Deadman is a node self-supervision daemon for high-availability clusters.
//
// It arms the kernel watchdog device so that a node whose control loop hangs
// is forcibly reset before it can cause split-brain, and keeps the device
// fed for as long as the loop is healthy.
//
// Usage:
//
//	deadman [command] [flags]
//
// See 'deadman --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ha-tools/deadman/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "deadman",
	Short: "Kernel watchdog supervision for HA cluster nodes",
	Long: `Deadman arms and feeds a kernel watchdog device on behalf of a
high-availability cluster node.

If the node's control loop hangs, the kernel watchdog resets the machine
before the cluster's liveness TTL expires, so a dead node can never keep
acting as a healthy one.`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("deadman %s (commit: %s)\n", version.Version, version.Commit)
	},
}
