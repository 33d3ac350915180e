// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config failed validation: %v", err)
	}

	if cfg.Quiz.Model != "gpt-4" {
		t.Errorf("Quiz.Model = %q, want gpt-4", cfg.Quiz.Model)
	}
	if cfg.Upstream.BaseURL != "https://api.openai.com" {
		t.Errorf("Upstream.BaseURL = %q", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.TimeoutSecs != 30 {
		t.Errorf("Upstream.TimeoutSecs = %d, want 30", cfg.Upstream.TimeoutSecs)
	}
}

// clearEnvOverrides neutralizes ambient environment so file values are
// observable in assertions.
func clearEnvOverrides(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENAI_API_KEY", "API_BASE_URL", "QUIZCHAT_MODEL", "QUIZCHAT_QUESTIONS",
		"QUIZCHAT_ADDR", "QUIZCHAT_PROXY_URL", "QUIZCHAT_EXPORT_DIR", "QUIZCHAT_PASSPHRASE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFromPath(t *testing.T) {
	clearEnvOverrides(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
version = "1.0.0"

[quiz]
name = "Team Retro Quiz"
model = "gpt-4o"

[upstream]
base_url = "https://llm.internal.example"
timeout_secs = 45

[server]
listen_addr = "0.0.0.0:9000"

[export]
output_dir = "/tmp/results"
format = "markdown"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}

	if cfg.Quiz.Name != "Team Retro Quiz" {
		t.Errorf("Quiz.Name = %q", cfg.Quiz.Name)
	}
	if cfg.Quiz.Model != "gpt-4o" {
		t.Errorf("Quiz.Model = %q", cfg.Quiz.Model)
	}
	if cfg.Upstream.BaseURL != "https://llm.internal.example" {
		t.Errorf("Upstream.BaseURL = %q", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.TimeoutSecs != 45 {
		t.Errorf("Upstream.TimeoutSecs = %d", cfg.Upstream.TimeoutSecs)
	}
	if cfg.Server.ListenAddr != "0.0.0.0:9000" {
		t.Errorf("Server.ListenAddr = %q", cfg.Server.ListenAddr)
	}
	if cfg.Export.Format != "markdown" {
		t.Errorf("Export.Format = %q", cfg.Export.Format)
	}
}

func TestLoadFromPathFillsDefaults(t *testing.T) {
	clearEnvOverrides(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	// Partial file: everything unspecified comes from defaults.
	content := `
[quiz]
name = "Minimal Quiz"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}

	if cfg.Quiz.Name != "Minimal Quiz" {
		t.Errorf("Quiz.Name = %q", cfg.Quiz.Name)
	}
	if cfg.Quiz.Model != "gpt-4" {
		t.Errorf("Quiz.Model = %q, want default gpt-4", cfg.Quiz.Model)
	}
	if cfg.Server.ListenAddr != "127.0.0.1:8787" {
		t.Errorf("Server.ListenAddr = %q, want default", cfg.Server.ListenAddr)
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnvOverrides(t)
	t.Setenv("OPENAI_API_KEY", "sk-env-key")
	t.Setenv("API_BASE_URL", "https://override.example")
	t.Setenv("QUIZCHAT_MODEL", "gpt-4o-mini")
	t.Setenv("QUIZCHAT_PASSPHRASE", "env-passphrase")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Upstream.APIKey != "sk-env-key" {
		t.Errorf("APIKey = %q, want env value", cfg.Upstream.APIKey)
	}
	if cfg.Upstream.BaseURL != "https://override.example" {
		t.Errorf("BaseURL = %q, want env value", cfg.Upstream.BaseURL)
	}
	if cfg.Quiz.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q, want env value", cfg.Quiz.Model)
	}
	if cfg.Security.EncryptionPassphrase != "env-passphrase" {
		t.Errorf("EncryptionPassphrase not taken from env")
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	clearEnvOverrides(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[upstream]
api_key = "sk-file-key"
base_url = "https://file.example"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	t.Setenv("OPENAI_API_KEY", "sk-env-key")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}

	if cfg.Upstream.APIKey != "sk-env-key" {
		t.Errorf("APIKey = %q, env must win over file", cfg.Upstream.APIKey)
	}
	if cfg.Upstream.BaseURL != "https://file.example" {
		t.Errorf("BaseURL = %q, file value must survive", cfg.Upstream.BaseURL)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "empty quiz name",
			mutate: func(c *Config) { c.Quiz.Name = "  " },
			field:  "quiz.name",
		},
		{
			name:   "empty model",
			mutate: func(c *Config) { c.Quiz.Model = "" },
			field:  "quiz.model",
		},
		{
			name:   "bad base url",
			mutate: func(c *Config) { c.Upstream.BaseURL = "not a url" },
			field:  "upstream.base_url",
		},
		{
			name:   "zero timeout",
			mutate: func(c *Config) { c.Upstream.TimeoutSecs = 0 },
			field:  "upstream.timeout_secs",
		},
		{
			name:   "oversized timeout",
			mutate: func(c *Config) { c.Upstream.TimeoutSecs = 3600 },
			field:  "upstream.timeout_secs",
		},
		{
			name:   "bad listen addr",
			mutate: func(c *Config) { c.Server.ListenAddr = "no-port" },
			field:  "server.listen_addr",
		},
		{
			name:   "bad export format",
			mutate: func(c *Config) { c.Export.Format = "xml" },
			field:  "export.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not name field %q", err, tt.field)
			}
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	clearEnvOverrides(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := Default()
	cfg.Quiz.Name = "Saved Quiz"
	cfg.Server.ListenAddr = "127.0.0.1:9999"

	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat config: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config file permissions = %o, want 0600", perm)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if loaded.Quiz.Name != "Saved Quiz" {
		t.Errorf("Quiz.Name = %q after reload", loaded.Quiz.Name)
	}
	if loaded.Server.ListenAddr != "127.0.0.1:9999" {
		t.Errorf("Server.ListenAddr = %q after reload", loaded.Server.ListenAddr)
	}
}

func TestLoadFromPathFixesPermissions(t *testing.T) {
	clearEnvOverrides(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	if err := os.WriteFile(path, []byte("[quiz]\nname = \"Quiz\"\n"), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	if _, err := LoadFromPath(path); err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat config: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("permissions = %o after load, want 0600", perm)
	}
}
