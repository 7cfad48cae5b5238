// Package daemon wires the node agent together: preemption monitor, peer
// registry, drain controller, placement engine, failover orchestrator, and
// their supporting infra (remote executor, engine adapter, metrics,
// security) into one long-running process per fleet node.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all daemon configuration.
type Config struct {
	Node      NodeConfig      `toml:"node"`
	Cloud     CloudConfig     `toml:"cloud"`
	Monitor   MonitorConfig   `toml:"monitor"`
	Registry  RegistryConfig  `toml:"registry"`
	Drain     DrainConfig     `toml:"drain"`
	Failover  FailoverConfig  `toml:"failover"`
	Engine    EngineConfig    `toml:"engine"`
	Security  SecurityConfig  `toml:"security"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// NodeConfig identifies this node within its fleet.
type NodeConfig struct {
	ID     string `toml:"id"`
	Fleet  string `toml:"fleet"`
	Region string `toml:"region"`
}

// CloudConfig selects and configures the cloud.Provider backend.
type CloudConfig struct {
	Provider     string `toml:"provider"` // "http" or "memory" (testing)
	MetadataBase string `toml:"metadata_base"`
}

// MonitorConfig controls the preemption-notice poll cadence.
type MonitorConfig struct {
	PollInterval   string `toml:"poll_interval"`
	RequestTimeout string `toml:"request_timeout"`
}

// RegistryConfig controls the peer-discovery poller and blob store.
type RegistryConfig struct {
	BlobDir      string `toml:"blob_dir"`
	PollInterval string `toml:"poll_interval"`
}

// DrainConfig controls the drain controller's budget.
type DrainConfig struct {
	BudgetSeconds int `toml:"budget_seconds"`
}

// FailoverConfig controls the failover orchestrator.
type FailoverConfig struct {
	Strategy                string `toml:"strategy"` // earliest|least-loaded|warm-least-loaded|random
	HealthCheckTimeoutSecs  int    `toml:"health_check_timeout_secs"`
	HealthCheckIntervalSecs int    `toml:"health_check_interval_secs"`
}

// EngineConfig controls the local and remote inference-engine adapters.
type EngineConfig struct {
	Image         string `toml:"image"`
	Port          int    `toml:"port"`
	ContextLength int    `toml:"context_length"`
	DevicePath    string `toml:"device_path"`
	BaseURL       string `toml:"base_url"` // this node's own engine, for drain observability
}

// SecurityConfig controls node identity.
type SecurityConfig struct {
	RequireSigning bool `toml:"require_signing"`
}

// TelemetryConfig controls observability.
type TelemetryConfig struct {
	Prometheus     bool `toml:"prometheus"`
	PrometheusPort int  `toml:"prometheus_port"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Node: NodeConfig{
			Fleet:  "default",
			Region: "auto",
		},
		Cloud: CloudConfig{
			Provider:     "http",
			MetadataBase: "http://169.254.169.254",
		},
		Monitor: MonitorConfig{
			PollInterval:   "5s",
			RequestTimeout: "2s",
		},
		Registry: RegistryConfig{
			BlobDir:      filepath.Join(fleetdHome(), "blobs"),
			PollInterval: "30s",
		},
		Drain: DrainConfig{
			BudgetSeconds: 115,
		},
		Failover: FailoverConfig{
			Strategy:                "warm-least-loaded",
			HealthCheckTimeoutSecs:  300,
			HealthCheckIntervalSecs: 2,
		},
		Engine: EngineConfig{
			Image:         "fleetd/inference-engine:latest",
			Port:          8000,
			ContextLength: 4096,
			BaseURL:       "http://127.0.0.1:8000",
		},
		Security: SecurityConfig{
			RequireSigning: true,
		},
		Telemetry: TelemetryConfig{
			Prometheus:     true,
			PrometheusPort: 9090,
		},
	}
}

// LoadConfig reads config from fleetdHome/config.toml, falling back to
// defaults if it does not exist.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(fleetdHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the config to fleetdHome/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(fleetdHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// fleetdHome returns the daemon's data directory.
func fleetdHome() string {
	if env := os.Getenv("FLEETD_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".fleetd")
}

// FleetdHome is exported for use by other packages (security keypair
// storage, CLI default paths).
func FleetdHome() string {
	return fleetdHome()
}
