// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.DefaultModel == "" {
		t.Error("DefaultModel is empty")
	}
	if len(cfg.Models) == 0 {
		t.Error("Models is empty")
	}
	if cfg.UI.Theme != "dark" {
		t.Errorf("Theme = %q, want dark", cfg.UI.Theme)
	}
	if !cfg.Storage.WatchDocument {
		t.Error("WatchDocument should default to true")
	}
}

func TestLoadFromPathTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
default_model = "test-model"

[endpoint]
url = "https://api.example.com/complete"
api_key = "sk-file"

[ui]
theme = "light"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}

	if cfg.DefaultModel != "test-model" {
		t.Errorf("DefaultModel = %q", cfg.DefaultModel)
	}
	if cfg.Endpoint.URL != "https://api.example.com/complete" {
		t.Errorf("Endpoint.URL = %q", cfg.Endpoint.URL)
	}
	if cfg.Endpoint.APIKey != "sk-file" {
		t.Errorf("Endpoint.APIKey = %q", cfg.Endpoint.APIKey)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("UI.Theme = %q", cfg.UI.Theme)
	}
	// Unset fields keep defaults.
	if len(cfg.Models) == 0 {
		t.Error("Models should fall back to defaults")
	}
}

func TestLoadFromPathJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"default_model":"json-model","endpoint":{"url":"https://api.example.com"}}`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.DefaultModel != "json-model" {
		t.Errorf("DefaultModel = %q", cfg.DefaultModel)
	}
	if cfg.Endpoint.URL != "https://api.example.com" {
		t.Errorf("Endpoint.URL = %q", cfg.Endpoint.URL)
	}
}

func TestLoadFromPathMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("not [valid"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := LoadFromPath(path); err == nil {
		t.Error("expected an error for malformed config")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("LOOM_ENDPOINT_URL", "https://env.example.com")
	t.Setenv("LOOM_API_KEY", "sk-env")
	t.Setenv("LOOM_MODEL", "env-model")

	cfg := Default()
	cfg.Endpoint.URL = "https://file.example.com"
	cfg.ApplyEnvOverrides()

	if cfg.Endpoint.URL != "https://env.example.com" {
		t.Errorf("Endpoint.URL = %q, env should win", cfg.Endpoint.URL)
	}
	if cfg.Endpoint.APIKey != "sk-env" {
		t.Errorf("Endpoint.APIKey = %q", cfg.Endpoint.APIKey)
	}
	if cfg.DefaultModel != "env-model" {
		t.Errorf("DefaultModel = %q", cfg.DefaultModel)
	}
}

func TestSaveTOMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.DefaultModel = "saved-model"
	cfg.Endpoint.URL = "https://api.example.com"

	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config mode = %o, want 0600", perm)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if loaded.DefaultModel != "saved-model" {
		t.Errorf("DefaultModel = %q", loaded.DefaultModel)
	}
	if loaded.Endpoint.URL != "https://api.example.com" {
		t.Errorf("Endpoint.URL = %q", loaded.Endpoint.URL)
	}
}
