// Package config manages advisor configuration and the .mca directory
// layout at the repository root.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const (
	MCADir       = ".mca"
	ConfigFile   = "config"
	DatabaseFile = "mca.db"
	LogFile      = "mca.log"
)

// Config represents the advisor configuration
type Config struct {
	// TestCommand overrides build-file probing for the verification gate
	TestCommand string `toml:"test_command"`
	// AutoCommit finalizes a verified run without pausing for review
	AutoCommit bool `toml:"auto_commit"`
	// LogLevel is a zerolog level name (debug, info, warn, error)
	LogLevel string `toml:"log_level"`

	path string // path to the .mca directory
}

// Default returns the configuration used when no file exists yet.
func Default() *Config {
	return &Config{LogLevel: "info"}
}

// Init creates the .mca directory under root and writes the default
// config if missing.
func Init(root string) (*Config, error) {
	mcaPath := filepath.Join(root, MCADir)
	if err := os.MkdirAll(mcaPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", mcaPath, err)
	}

	configPath := filepath.Join(mcaPath, ConfigFile)
	if _, err := os.Stat(configPath); err == nil {
		return load(mcaPath)
	}

	cfg := Default()
	cfg.path = mcaPath
	if err := cfg.Save(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load loads the configuration from the .mca directory under root,
// creating it on first use.
func Load(root string) (*Config, error) {
	mcaPath := filepath.Join(root, MCADir)
	if info, err := os.Stat(mcaPath); err != nil || !info.IsDir() {
		return Init(root)
	}
	return load(mcaPath)
}

func load(mcaPath string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(mcaPath, ConfigFile))
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			cfg.path = mcaPath
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.path = mcaPath
	return cfg, nil
}

// Save writes the configuration back to disk
func (c *Config) Save() error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(c.path, ConfigFile), data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// DatabasePath returns the path to the run-state database
func (c *Config) DatabasePath() string {
	return filepath.Join(c.path, DatabaseFile)
}

// LogPath returns the path to the log file
func (c *Config) LogPath() string {
	return filepath.Join(c.path, LogFile)
}
