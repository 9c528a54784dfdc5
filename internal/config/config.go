// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for loom.
//
// Supports both TOML and JSON configuration formats, with sensible
// defaults and environment variable overrides.
//
// Configuration file locations (in order of precedence):
//   - ~/.loom/config.toml
//   - ~/.loom/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/jeranaias/loom-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete loom configuration.
type Config struct {
	// DefaultModel is the model used for new sends.
	DefaultModel string `toml:"default_model" json:"default_model"`

	// Models is the list offered in the model picker.
	Models []string `toml:"models" json:"models"`

	// Endpoint is the completion endpoint configuration.
	Endpoint EndpointConfig `toml:"endpoint" json:"endpoint"`

	// Storage is the local persistence configuration.
	Storage StorageConfig `toml:"storage" json:"storage"`

	// UI is the terminal UI configuration.
	UI UIConfig `toml:"ui" json:"ui"`
}

// EndpointConfig contains completion endpoint configuration.
type EndpointConfig struct {
	// URL is the completion endpoint URL.
	URL string `toml:"url" json:"url"`
	// APIKey is the bearer token sent with each request.
	APIKey string `toml:"api_key" json:"api_key"`
}

// StorageConfig contains local persistence configuration.
type StorageConfig struct {
	// Path overrides the thread document location (empty = ~/.loom/threads.json).
	Path string `toml:"path" json:"path"`
	// WatchDocument reloads the collection when another process writes it.
	WatchDocument bool `toml:"watch_document" json:"watch_document"`
}

// UIConfig contains terminal UI configuration.
type UIConfig struct {
	// Theme selects the color theme: "dark" or "light".
	Theme string `toml:"theme" json:"theme"`
	// Markdown enables rendered markdown for assistant messages.
	Markdown bool `toml:"markdown" json:"markdown"`
}

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		DefaultModel: "claude-sonnet-4",
		Models: []string{
			"claude-sonnet-4",
			"claude-opus-4",
			"gpt-4o",
		},
		Endpoint: EndpointConfig{},
		Storage: StorageConfig{
			WatchDocument: true,
		},
		UI: UIConfig{
			Theme:    "dark",
			Markdown: true,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the loom configuration directory.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".loom"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// ensureSecurePermissions checks and fixes permissions on config files.
// Config files should be 0600 to protect the API key.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD
// =============================================================================

// Load loads configuration from the config file(s). Tries TOML first,
// then JSON, and falls back to defaults. Environment overrides are
// applied last.
func Load() (*Config, error) {
	if tomlPath, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			return LoadFromPath(tomlPath)
		}
	}

	if jsonPath, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			return LoadFromPath(jsonPath)
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file, TOML unless the
// path ends in .json. Missing fields keep their defaults.
func LoadFromPath(path string) (*Config, error) {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	cfg := Default()
	if strings.HasSuffix(path, ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read JSON config: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode JSON config: %w", err)
		}
	} else {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode TOML config: %w", err)
		}
	}

	cfg.fillDefaults()
	cfg.ApplyEnvOverrides()
	return cfg, nil
}

// fillDefaults repairs fields a partial config file left empty.
func (c *Config) fillDefaults() {
	def := Default()
	if c.DefaultModel == "" {
		c.DefaultModel = def.DefaultModel
	}
	if len(c.Models) == 0 {
		c.Models = def.Models
	}
	if c.UI.Theme == "" {
		c.UI.Theme = def.UI.Theme
	}
}

// ApplyEnvOverrides applies environment variable overrides. Environment
// wins over file values.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("LOOM_ENDPOINT_URL"); v != "" {
		c.Endpoint.URL = v
	}
	if v := os.Getenv("LOOM_API_KEY"); v != "" {
		c.Endpoint.APIKey = v
	}
	if v := os.Getenv("LOOM_MODEL"); v != "" {
		c.DefaultModel = v
	}
}

// =============================================================================
// SAVE
// =============================================================================

// Save writes the configuration to the TOML config file atomically with
// owner-only permissions.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to a TOML file.
func SaveTOML(cfg *Config, path string) error {
	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode TOML config: %w", err)
	}
	if err := util.AtomicWriteFile(path, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
