package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConfigPath returns the default config file location.
func ConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "agentview", "config.json")
}

// Load reads the config from the default location.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config from path. A missing file yields the defaults;
// a present but invalid file is an error.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(expandPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// expandPath resolves a leading ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// DataDir resolves the configured local data directory.
func (c *Config) DataDir() string {
	if c.Source.DataDir != "" {
		return expandPath(c.Source.DataDir)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".agentview", "sessions")
}

// PrefsPath resolves the configured preference database path.
func (c *Config) PrefsPath() string {
	if c.Source.PrefsPath != "" {
		return expandPath(c.Source.PrefsPath)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".agentview", "prefs.db")
}
