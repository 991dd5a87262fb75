// Package agentconf loads the daemon's own wiring configuration.
package agentconf

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config describes where the daemon finds its installation tree and where
// it places its runtime artifacts.
type Config struct {
	// InstallDir is the root of the managed installation tree.
	InstallDir string `yaml:"install_dir"`

	// SocketPath is where the control API listens.
	SocketPath string `yaml:"socket_path"`

	// BackupRoot is where installation snapshots are created. Defaults to
	// the parent of InstallDir.
	BackupRoot string `yaml:"backup_root"`

	// ProtectedPaths overrides the default set of paths preserved across
	// updates.
	ProtectedPaths []string `yaml:"protected_paths"`
}

// Load reads the agent configuration from the provided YAML file. A missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	body, err := os.ReadFile(path) //nolint:gosec
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	if err == nil {
		err = yaml.Unmarshal(body, cfg)
		if err != nil {
			return nil, err
		}
	}

	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.InstallDir == "" {
		c.InstallDir = "."
	}

	abs, err := filepath.Abs(c.InstallDir)
	if err == nil {
		c.InstallDir = abs
	}

	if c.SocketPath == "" {
		c.SocketPath = "/run/blackboxd/unix.socket"
	}

	if c.BackupRoot == "" {
		c.BackupRoot = filepath.Dir(c.InstallDir)
	}
}
