package remote

import (
	"context"
	"fmt"
	"log"

	"github.com/synkti/fleetd/internal/domain"
)

// ContainerSpawner builds and dispatches the shell commands that start the
// inference-engine container on a replacement node. It satisfies
// failover.Spawner.
//
// The stop-then-remove-by-name, device-path probe, and
// accelerator-or-CPU-fallback sequence are grounded on
// internal/infra/engine/subprocess.go's killOrphanLlamaServers
// (idempotent cleanup before start) and its GPU-layers-or-auto fallback
// (args = append(args, "--n-gpu-layers", ...)), generalized from a local
// llama-server process to a containerized engine launched on a remote node.
type ContainerSpawner struct {
	Exec          *Executor
	Image         string
	Port          int
	ContextLength int
	DevicePath    string // e.g. "/dev/nvidia0"; empty means CPU mode
}

// Spawn starts (or restarts) the inference container for w on nodeID.
func (c *ContainerSpawner) Spawn(ctx context.Context, nodeID string, w domain.Workload) error {
	name := fmt.Sprintf("fleetd-engine-%s", w.ModelID)

	runArgs := fmt.Sprintf(
		"-d --name %s --restart unless-stopped -p %d:%d -e MODEL_ID=%s -e CONTEXT_LENGTH=%d %s",
		name, c.Port, c.Port, w.ModelID, c.ContextLength, c.Image,
	)
	start := "docker run " + runArgs
	if c.DevicePath == "" {
		log.Printf("remote: no device path configured for %s, starting %s in CPU mode", nodeID, name)
	} else {
		start = fmt.Sprintf(
			"if [ -e %s ]; then docker run --gpus all %s; else echo 'fleetd: %s not found, starting %s in CPU mode' >&2; docker run %s; fi",
			c.DevicePath, runArgs, c.DevicePath, name, runArgs,
		)
	}

	commands := []string{
		fmt.Sprintf("docker stop %s >/dev/null 2>&1 || true", name),
		fmt.Sprintf("docker rm %s >/dev/null 2>&1 || true", name),
		start,
	}

	_, err := c.Exec.Run(ctx, nodeID, commands)
	if err != nil {
		return fmt.Errorf("container: spawn %s on %s: %w", name, nodeID, err)
	}
	return nil
}
