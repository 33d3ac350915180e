// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"

	"github.com/jeranaias/quizchat-tui/internal/archive"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports result snapshots to Markdown format, one
// section per question in quiz order.
type MarkdownExporter struct{}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter() *MarkdownExporter {
	return &MarkdownExporter{}
}

// Export converts a result snapshot to Markdown.
func (e *MarkdownExporter) Export(snap *archive.Snapshot) ([]byte, error) {
	if snap == nil {
		return nil, fmt.Errorf("snapshot is nil")
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", snap.QuizName))
	sb.WriteString(fmt.Sprintf("**Completed:** %s\n\n", snap.CompletionDate))

	if len(snap.Responses) == 0 {
		sb.WriteString("_No responses recorded._\n")
		return []byte(sb.String()), nil
	}

	// Responses arrive sorted, so headings number by position.
	for i, resp := range snap.Responses {
		sb.WriteString(fmt.Sprintf("## Question %d\n\n", i+1))
		sb.WriteString(fmt.Sprintf("> %s\n\n", resp.Question))
		sb.WriteString(fmt.Sprintf("%s\n\n", resp.Response))

		if len(resp.Insights) > 0 {
			sb.WriteString("**Insights:**\n\n")
			for _, insight := range resp.Insights {
				sb.WriteString(fmt.Sprintf("- %s\n", insight))
			}
			sb.WriteString("\n")
		}
	}

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}
