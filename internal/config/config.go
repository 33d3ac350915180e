// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading for quizchat.
//
// Supports TOML configuration with sensible defaults, environment
// variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.quizchat/config.toml
//   - Built-in defaults
//
// Once loaded and validated, a Config is treated as immutable: callers
// copy the values they need into their own option structs and no code
// path mutates the loaded configuration afterwards.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete quizchat configuration.
type Config struct {
	// General settings
	Version string `toml:"version"`

	// Quiz configuration
	Quiz QuizConfig `toml:"quiz"`

	// Upstream completion API configuration
	Upstream UpstreamConfig `toml:"upstream"`

	// Proxy server configuration
	Server ServerConfig `toml:"server"`

	// Export configuration
	Export ExportConfig `toml:"export"`

	// Security configuration
	Security SecurityConfig `toml:"security"`
}

// QuizConfig contains quiz content configuration.
type QuizConfig struct {
	// Name is the quiz title used in exports
	Name string `toml:"name"`
	// QuestionsPath points to a JSON question catalog. Empty uses the
	// built-in catalog.
	QuestionsPath string `toml:"questions_path"`
	// Model is the upstream completion model
	Model string `toml:"model"`
}

// UpstreamConfig contains completion API configuration.
type UpstreamConfig struct {
	// APIKey is the upstream API credential. Prefer setting this via
	// the OPENAI_API_KEY environment variable over the config file.
	APIKey string `toml:"api_key"`
	// BaseURL is the upstream API base URL
	BaseURL string `toml:"base_url"`
	// TimeoutSecs is the per-request upstream timeout in seconds
	TimeoutSecs int `toml:"timeout_secs"`
	// ProxyURL, when set, routes completions through a running proxy
	// server instead of calling the upstream directly.
	ProxyURL string `toml:"proxy_url"`
}

// ServerConfig contains proxy server configuration.
type ServerConfig struct {
	// ListenAddr is the address the proxy server binds to
	ListenAddr string `toml:"listen_addr"`
}

// ExportConfig contains result export configuration.
type ExportConfig struct {
	// OutputDir is the directory result files are written to
	OutputDir string `toml:"output_dir"`
	// Format is the default export format: "json" or "markdown"
	Format string `toml:"format"`
}

// SecurityConfig contains security-related configuration.
type SecurityConfig struct {
	// EncryptionPassphrase, when set, seals exported result files with
	// AES-256-GCM. Prefer setting this via the QUIZCHAT_PASSPHRASE
	// environment variable over the config file.
	EncryptionPassphrase string `toml:"encryption_passphrase"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Quiz: QuizConfig{
			Name:          "Personal Growth Quiz",
			QuestionsPath: "",
			Model:         "gpt-4",
		},

		Upstream: UpstreamConfig{
			APIKey:      "",
			BaseURL:     "https://api.openai.com",
			TimeoutSecs: 30,
			ProxyURL:    "",
		},

		Server: ServerConfig{
			ListenAddr: "127.0.0.1:8787",
		},

		Export: ExportConfig{
			OutputDir: ".",
			Format:    "json",
		},

		Security: SecurityConfig{
			EncryptionPassphrase: "",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the quizchat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".quizchat"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files should be 0600 (owner read/write only) to
// protect API keys.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}

	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the default config file, falling back
// to built-in defaults when no file exists. Environment overrides are
// applied last, then the result is validated.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := loadTOML(cfg, path); err != nil {
				return nil, fmt.Errorf("failed to load config: %w", err)
			}
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if err := loadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadTOML loads configuration from a TOML file.
// SECURITY: Checks and fixes file permissions on load.
func loadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// Permissions might not be fixable on all systems.
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// fillDefaults fills in any missing values with defaults.
func (c *Config) fillDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Quiz.Name == "" {
		c.Quiz.Name = defaults.Quiz.Name
	}
	if c.Quiz.Model == "" {
		c.Quiz.Model = defaults.Quiz.Model
	}
	if c.Upstream.BaseURL == "" {
		c.Upstream.BaseURL = defaults.Upstream.BaseURL
	}
	if c.Upstream.TimeoutSecs == 0 {
		c.Upstream.TimeoutSecs = defaults.Upstream.TimeoutSecs
	}
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = defaults.Server.ListenAddr
	}
	if c.Export.OutputDir == "" {
		c.Export.OutputDir = defaults.Export.OutputDir
	}
	if c.Export.Format == "" {
		c.Export.Format = defaults.Export.Format
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// SECURITY: Creates config files with 0600 permissions (owner
// read/write only).
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# quizchat configuration file")
	fmt.Fprintln(file, "# Generated by quizchat - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the
// config. Environment variables always win over file values:
//
//	OPENAI_API_KEY        -> Upstream.APIKey
//	API_BASE_URL          -> Upstream.BaseURL
//	QUIZCHAT_MODEL        -> Quiz.Model
//	QUIZCHAT_QUESTIONS    -> Quiz.QuestionsPath
//	QUIZCHAT_ADDR         -> Server.ListenAddr
//	QUIZCHAT_PROXY_URL    -> Upstream.ProxyURL
//	QUIZCHAT_EXPORT_DIR   -> Export.OutputDir
//	QUIZCHAT_PASSPHRASE   -> Security.EncryptionPassphrase
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.Upstream.APIKey = key
	}
	if base := os.Getenv("API_BASE_URL"); base != "" {
		c.Upstream.BaseURL = base
	}
	if model := os.Getenv("QUIZCHAT_MODEL"); model != "" {
		c.Quiz.Model = model
	}
	if path := os.Getenv("QUIZCHAT_QUESTIONS"); path != "" {
		c.Quiz.QuestionsPath = path
	}
	if addr := os.Getenv("QUIZCHAT_ADDR"); addr != "" {
		c.Server.ListenAddr = addr
	}
	if proxy := os.Getenv("QUIZCHAT_PROXY_URL"); proxy != "" {
		c.Upstream.ProxyURL = proxy
	}
	if dir := os.Getenv("QUIZCHAT_EXPORT_DIR"); dir != "" {
		c.Export.OutputDir = dir
	}
	if pass := os.Getenv("QUIZCHAT_PASSPHRASE"); pass != "" {
		c.Security.EncryptionPassphrase = pass
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if strings.TrimSpace(c.Quiz.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "quiz.name",
			Message: "quiz name cannot be empty",
		})
	}

	if strings.TrimSpace(c.Quiz.Model) == "" {
		errs = append(errs, ValidationError{
			Field:   "quiz.model",
			Message: "model cannot be empty",
		})
	}

	if c.Upstream.BaseURL != "" {
		u, err := url.Parse(c.Upstream.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "upstream.base_url",
				Message: fmt.Sprintf("invalid URL '%s'", c.Upstream.BaseURL),
			})
		}
	}

	if c.Upstream.TimeoutSecs < 1 || c.Upstream.TimeoutSecs > 300 {
		errs = append(errs, ValidationError{
			Field:   "upstream.timeout_secs",
			Message: fmt.Sprintf("must be 1-300 seconds, got %d", c.Upstream.TimeoutSecs),
		})
	}

	if c.Upstream.ProxyURL != "" {
		u, err := url.Parse(c.Upstream.ProxyURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "upstream.proxy_url",
				Message: fmt.Sprintf("invalid URL '%s'", c.Upstream.ProxyURL),
			})
		}
	}

	if c.Server.ListenAddr != "" {
		if _, _, err := net.SplitHostPort(c.Server.ListenAddr); err != nil {
			errs = append(errs, ValidationError{
				Field:   "server.listen_addr",
				Message: fmt.Sprintf("invalid address '%s': must be host:port", c.Server.ListenAddr),
			})
		}
	}

	validFormats := map[string]bool{"json": true, "markdown": true}
	if !validFormats[strings.ToLower(c.Export.Format)] {
		errs = append(errs, ValidationError{
			Field:   "export.format",
			Message: fmt.Sprintf("invalid format '%s', must be one of: json, markdown", c.Export.Format),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
