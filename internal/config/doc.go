// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading for quizchat.
//
// Supports TOML configuration with sensible defaults, environment
// variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - QuizConfig: Quiz content and model settings
//   - UpstreamConfig: Completion API credential and endpoint
//   - ServerConfig: Proxy server settings
//   - ExportConfig: Result export settings
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (OPENAI_API_KEY, API_BASE_URL, QUIZCHAT_*)
//   - ~/.quizchat/config.toml
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	model := cfg.Quiz.Model
//	addr := cfg.Server.ListenAddr
package config
