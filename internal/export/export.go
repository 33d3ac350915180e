// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes completed quiz results to disk.
// Supports exporting result snapshots to various formats with metadata.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/quizchat-tui/internal/archive"
	"github.com/jeranaias/quizchat-tui/internal/util"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for result exporters.
type Exporter interface {
	// Export converts a result snapshot to the target format.
	Export(snap *archive.Snapshot) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".json", ".md").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory where files will be saved.
	// Default: current working directory
	OutputDir string
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir: ".",
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile exports a result snapshot to a file using the specified
// exporter. Returns the output file path or an error.
//
// The filename is derived from the quiz name and the export time:
// "personal_growth_quiz_20240115_143045.json".
func ExportToFile(snap *archive.Snapshot, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(snap)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	// Atomic write so a crash mid-export never leaves a torn result file.
	outputPath := filepath.Join(opts.OutputDir, Filename(snap.QuizName, exporter))
	if err := util.AtomicWriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return outputPath, nil
}

// Filename builds the timestamped output filename for a quiz result:
// "personal_growth_quiz_20240115_143045.json".
func Filename(quizName string, exporter Exporter) string {
	timestamp := time.Now().Format("20060102_150405")
	return fmt.Sprintf("%s_%s%s",
		sanitizeFilename(quizName),
		timestamp,
		exporter.FileExtension(),
	)
}

// ExportJSON exports to JSON format.
func ExportJSON(snap *archive.Snapshot, opts *Options) (string, error) {
	return ExportToFile(snap, NewJSONExporter(), opts)
}

// ExportMarkdown exports to Markdown format.
func ExportMarkdown(snap *archive.Snapshot, opts *Options) (string, error) {
	return ExportToFile(snap, NewMarkdownExporter(), opts)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename removes or replaces characters that are invalid in
// filenames across Windows and Unix.
func sanitizeFilename(s string) string {
	s = strings.ToLower(s)

	maxLen := 50
	runes := []rune(s)
	if len(runes) > maxLen {
		s = string(runes[:maxLen])
	}

	replacer := map[rune]rune{
		'/':  '-',
		'\\': '-',
		':':  '-',
		'*':  '-',
		'?':  '-',
		'"':  '-',
		'<':  '-',
		'>':  '-',
		'|':  '-',
		' ':  '_',
		'\t': '_',
		'\n': '_',
		'\r': '_',
	}

	result := []rune{}
	for _, r := range s {
		if replacement, found := replacer[r]; found {
			result = append(result, replacement)
		} else if r < 32 || r == 127 {
			result = append(result, '-')
		} else {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return "quiz_results"
	}

	return string(result)
}
