package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/synkti/fleetd/internal/daemon"
)

func init() {
	runCmd.Flags().StringVar(&runNodeID, "node-id", "", "Node id (overrides config, defaults to the identity keypair's public key)")
	runCmd.Flags().StringVar(&runFleet, "fleet", "", "Fleet name (overrides config)")
	rootCmd.AddCommand(runCmd)
}

var (
	runNodeID string
	runFleet  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the node agent",
	Long:  `Watch this node's spot-preemption notice and fail its workload over onto a peer when one arrives.`,
	RunE:  runAgent,
}

func runAgent(cmd *cobra.Command, args []string) error {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return err
	}
	if runNodeID != "" {
		cfg.Node.ID = runNodeID
	}
	if runFleet != "" {
		cfg.Node.Fleet = runFleet
	}

	d, err := daemon.New(cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return d.Serve(ctx)
}
