// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"

	"github.com/jeranaias/quizchat-tui/internal/archive"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports result snapshots to JSON format.
//
// The output is deterministic: the snapshot carries responses already
// ordered by question, and fields marshal in a fixed order, so exporting
// the same results twice yields byte-identical files apart from the
// completion date.
type JSONExporter struct{}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

// Export converts a result snapshot to indented JSON.
func (e *JSONExporter) Export(snap *archive.Snapshot) ([]byte, error) {
	if snap == nil {
		return nil, fmt.Errorf("snapshot is nil")
	}

	return json.MarshalIndent(snap, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
