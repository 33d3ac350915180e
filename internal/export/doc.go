// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export provides quiz result export functionality.
//
// This package writes result snapshots to disk in machine-readable and
// human-readable formats.
//
// # Key Types
//
//   - Exporter: Main export interface
//   - Options: Export configuration options
//
// # Supported Formats
//
//   - JSON: Machine-readable, deterministic field and response ordering
//   - Markdown: Human-readable, one section per question
//
// # Usage
//
// Export results as JSON:
//
//	snap := arch.Snapshot("Personal Growth Quiz")
//	path, err := export.ExportJSON(&snap, &export.Options{OutputDir: dir})
package export
