// Package config loads the Relaypoint CLI configuration from
// ~/.relaypoint/config.yaml, with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/relaypoint/cli/internal/token"
)

const (
	// configFile is the YAML file name under ~/.relaypoint/
	configFile = "config.yaml"

	DefaultBaseURL = "https://api.relaypoint.dev"
	DefaultTimeout = 30 * time.Second
)

// Duration wraps time.Duration so config values read as "30s" or "2m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config holds the CLI configuration.
type Config struct {
	BaseURL string        `yaml:"base_url"`
	Store   token.Backend `yaml:"store"`
	Timeout Duration      `yaml:"timeout"`
}

// DefaultPath returns ~/.relaypoint/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".relaypoint", configFile), nil
}

// Load reads the configuration from the default path. A missing file yields
// the defaults; a malformed file is an error.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads the configuration from an explicit path, applying defaults
// and environment overrides (RELAYPOINT_BASE_URL, RELAYPOINT_STORE).
func LoadFile(path string) (*Config, error) {
	cfg := &Config{
		BaseURL: DefaultBaseURL,
		Store:   token.BackendKeyring,
		Timeout: Duration(DefaultTimeout),
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config from %s: %w", path, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config from %s: %w", path, err)
		}
	}

	if v := os.Getenv("RELAYPOINT_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("RELAYPOINT_STORE"); v != "" {
		cfg.Store = token.Backend(v)
	}

	backend, err := token.ValidateBackend(string(cfg.Store))
	if err != nil {
		return nil, err
	}
	cfg.Store = backend

	if cfg.Timeout <= 0 {
		cfg.Timeout = Duration(DefaultTimeout)
	}

	return cfg, nil
}
