// Package cli implements the fleetd command-line interface using Cobra.
// Each subcommand maps to a node-agent capability: run the per-node
// daemon, or replay a workload trace against the discrete-event simulator.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fleetd",
	Short: "fleetd — GPU spot-fleet preemption orchestration",
	Long: `fleetd watches a node's spot-preemption notice, drains its inference
workload within budget, and fails it over onto a healthy peer. It also
ships a discrete-event simulator for comparing scheduling policies against
a synthetic workload before running them live.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
