// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - The "config" command: show, set, init, and path
// subcommands against the TOML configuration file.
package cli

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/jeranaias/quizchat-tui/internal/config"
)

// settableKeys maps the "config set" key names to setter functions.
// Credentials are deliberately absent: the API key and passphrase are
// set via environment variables or by editing the file directly.
var settableKeys = map[string]func(*config.Config, string) error{
	"quiz.name": func(c *config.Config, v string) error {
		c.Quiz.Name = v
		return nil
	},
	"quiz.model": func(c *config.Config, v string) error {
		c.Quiz.Model = v
		return nil
	},
	"quiz.questions_path": func(c *config.Config, v string) error {
		c.Quiz.QuestionsPath = v
		return nil
	},
	"upstream.base_url": func(c *config.Config, v string) error {
		c.Upstream.BaseURL = v
		return nil
	},
	"upstream.timeout_secs": func(c *config.Config, v string) error {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return fmt.Errorf("timeout_secs must be a positive integer, got %q", v)
		}
		c.Upstream.TimeoutSecs = secs
		return nil
	},
	"upstream.proxy_url": func(c *config.Config, v string) error {
		c.Upstream.ProxyURL = v
		return nil
	},
	"server.listen_addr": func(c *config.Config, v string) error {
		c.Server.ListenAddr = v
		return nil
	},
	"export.output_dir": func(c *config.Config, v string) error {
		c.Export.OutputDir = v
		return nil
	},
	"export.format": func(c *config.Config, v string) error {
		if v != "json" && v != "markdown" {
			return fmt.Errorf("format must be \"json\" or \"markdown\", got %q", v)
		}
		c.Export.Format = v
		return nil
	},
}

// HandleConfig dispatches the config subcommands.
func HandleConfig(args Args) error {
	switch args.Subcommand {
	case "", "show":
		return handleConfigShow(args)
	case "set":
		return handleConfigSet(args)
	case "init":
		return handleConfigInit(args)
	case "path":
		return handleConfigPath(args)
	default:
		return NewUsageError(
			fmt.Sprintf("unknown config subcommand %q", args.Subcommand),
			"valid subcommands: show, set, init, path")
	}
}

func handleConfigShow(args Args) error {
	cfg, err := config.Load()
	if err != nil {
		return NewCommandError("config", "load", fmt.Errorf("%w: %v", ErrConfigInvalid, err))
	}

	if args.JSON {
		return NewJSONResponse("config", map[string]any{
			"quiz": map[string]any{
				"name":           cfg.Quiz.Name,
				"questions_path": cfg.Quiz.QuestionsPath,
				"model":          cfg.Quiz.Model,
			},
			"upstream": map[string]any{
				"api_key":      maskCredential(cfg.Upstream.APIKey),
				"base_url":     cfg.Upstream.BaseURL,
				"timeout_secs": cfg.Upstream.TimeoutSecs,
				"proxy_url":    cfg.Upstream.ProxyURL,
			},
			"server": map[string]any{
				"listen_addr": cfg.Server.ListenAddr,
			},
			"export": map[string]any{
				"output_dir": cfg.Export.OutputDir,
				"format":     cfg.Export.Format,
			},
			"security": map[string]any{
				"encryption_passphrase_set": cfg.Security.EncryptionPassphrase != "",
			},
		}).Print()
	}

	fmt.Println("Current configuration:")
	fmt.Println()
	fmt.Printf("  quiz.name              = %s\n", cfg.Quiz.Name)
	fmt.Printf("  quiz.questions_path    = %s\n", orBuiltin(cfg.Quiz.QuestionsPath))
	fmt.Printf("  quiz.model             = %s\n", cfg.Quiz.Model)
	fmt.Printf("  upstream.api_key       = %s\n", maskCredential(cfg.Upstream.APIKey))
	fmt.Printf("  upstream.base_url      = %s\n", cfg.Upstream.BaseURL)
	fmt.Printf("  upstream.timeout_secs  = %d\n", cfg.Upstream.TimeoutSecs)
	fmt.Printf("  upstream.proxy_url     = %s\n", orNone(cfg.Upstream.ProxyURL))
	fmt.Printf("  server.listen_addr     = %s\n", cfg.Server.ListenAddr)
	fmt.Printf("  export.output_dir      = %s\n", cfg.Export.OutputDir)
	fmt.Printf("  export.format          = %s\n", cfg.Export.Format)
	fmt.Printf("  security.passphrase    = %s\n", setOrNot(cfg.Security.EncryptionPassphrase))
	return nil
}

func handleConfigSet(args Args) error {
	if args.ConfigKey == "" || args.ConfigVal == "" {
		return NewUsageError("config set requires a key and a value",
			"quizchat config set quiz.model gpt-4")
	}

	setter, ok := settableKeys[args.ConfigKey]
	if !ok {
		return NewUsageError(
			fmt.Sprintf("unknown or read-only config key %q", args.ConfigKey),
			"settable keys: "+strings.Join(settableKeyNames(), ", "))
	}

	cfg, err := config.Load()
	if err != nil {
		return NewCommandError("config", "load", fmt.Errorf("%w: %v", ErrConfigInvalid, err))
	}

	if err := setter(cfg, args.ConfigVal); err != nil {
		return NewUsageError(err.Error(), "")
	}
	if err := cfg.Validate(); err != nil {
		return NewCommandError("config", "validate", fmt.Errorf("%w: %v", ErrConfigInvalid, err))
	}
	if err := config.Save(cfg); err != nil {
		return NewCommandError("config", "save", err)
	}

	if !args.Quiet {
		fmt.Printf("Set %s = %s\n", args.ConfigKey, args.ConfigVal)
	}
	return nil
}

func handleConfigInit(args Args) error {
	path, err := config.ConfigPath()
	if err != nil {
		return NewCommandError("config", "resolve path", err)
	}

	if _, err := os.Stat(path); err == nil {
		return NewUsageError(
			fmt.Sprintf("config file already exists at %s", path),
			"edit it directly or use \"quizchat config set\"")
	}

	if err := config.Save(config.Default()); err != nil {
		return NewCommandError("config", "write defaults", err)
	}

	if !args.Quiet {
		fmt.Printf("Created %s\n", path)
	}
	return nil
}

func handleConfigPath(args Args) error {
	path, err := config.ConfigPath()
	if err != nil {
		return NewCommandError("config", "resolve path", err)
	}
	fmt.Println(path)
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// maskCredential shows just enough of a credential to confirm which one
// is configured.
func maskCredential(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

func orBuiltin(s string) string {
	if s == "" {
		return "(built-in catalog)"
	}
	return s
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func setOrNot(s string) string {
	if s == "" {
		return "(not set)"
	}
	return "(set)"
}

func settableKeyNames() []string {
	names := make([]string, 0, len(settableKeys))
	for k := range settableKeys {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
