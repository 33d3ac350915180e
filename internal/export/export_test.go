// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeranaias/quizchat-tui/internal/archive"
)

func sampleSnapshot() *archive.Snapshot {
	return &archive.Snapshot{
		QuizName:       "Personal Growth Quiz",
		CompletionDate: "2024-01-15T14:30:45Z",
		Responses: []archive.Response{
			{
				QuestionID: 0,
				Question:   "What is one goal you have this year?",
				Response:   "Run a marathon.",
				Timestamp:  "2024-01-15T14:25:00Z",
				Insights:   []string{},
			},
			{
				QuestionID: 1,
				Question:   "What habit would you like to build?",
				Response:   "Reading before bed.",
				Timestamp:  "2024-01-15T14:27:00Z",
				Insights:   []string{"consistency"},
			},
		},
	}
}

func TestExportJSONWritesFile(t *testing.T) {
	dir := t.TempDir()

	path, err := ExportJSON(sampleSnapshot(), &Options{OutputDir: dir})
	if err != nil {
		t.Fatalf("ExportJSON() error = %v", err)
	}

	if filepath.Dir(path) != dir {
		t.Errorf("file written to %q, want directory %q", path, dir)
	}
	name := filepath.Base(path)
	if !strings.HasPrefix(name, "personal_growth_quiz_") {
		t.Errorf("filename = %q, want quiz-name prefix", name)
	}
	if !strings.HasSuffix(name, ".json") {
		t.Errorf("filename = %q, want .json suffix", name)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading exported file: %v", err)
	}

	var got archive.Snapshot
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("exported file is not valid JSON: %v", err)
	}
	if got.QuizName != "Personal Growth Quiz" {
		t.Errorf("quizName = %q", got.QuizName)
	}
	if len(got.Responses) != 2 {
		t.Fatalf("responses = %d, want 2", len(got.Responses))
	}
	if got.Responses[0].Question != "What is one goal you have this year?" ||
		got.Responses[1].Question != "What habit would you like to build?" {
		t.Error("responses not in question order")
	}

	// Entries carry question/response/timestamp/insights and nothing else.
	var doc struct {
		Responses []map[string]any `json:"responses"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("re-parsing exported file: %v", err)
	}
	for i, entry := range doc.Responses {
		if len(entry) != 4 {
			t.Errorf("responses[%d] has %d fields, want 4: %v", i, len(entry), entry)
		}
		if _, present := entry["questionId"]; present {
			t.Errorf("responses[%d] leaks the question index", i)
		}
	}
}

func TestJSONExportIsDeterministic(t *testing.T) {
	snap := sampleSnapshot()
	exporter := NewJSONExporter()

	first, err := exporter.Export(snap)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	second, err := exporter.Export(snap)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if string(first) != string(second) {
		t.Error("exporting the same snapshot twice produced different bytes")
	}
}

func TestJSONExporterNilSnapshot(t *testing.T) {
	if _, err := NewJSONExporter().Export(nil); err == nil {
		t.Error("expected error for nil snapshot")
	}
}

func TestExportMarkdown(t *testing.T) {
	dir := t.TempDir()

	path, err := ExportMarkdown(sampleSnapshot(), &Options{OutputDir: dir})
	if err != nil {
		t.Fatalf("ExportMarkdown() error = %v", err)
	}
	if !strings.HasSuffix(path, ".md") {
		t.Errorf("path = %q, want .md suffix", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading exported file: %v", err)
	}
	content := string(data)

	if !strings.Contains(content, "# Personal Growth Quiz") {
		t.Error("missing quiz title heading")
	}
	if !strings.Contains(content, "## Question 1") || !strings.Contains(content, "## Question 2") {
		t.Error("missing per-question headings")
	}
	if !strings.Contains(content, "Run a marathon.") {
		t.Error("missing response text")
	}
	if !strings.Contains(content, "- consistency") {
		t.Error("missing insight line")
	}
}

func TestExportEmptySnapshot(t *testing.T) {
	dir := t.TempDir()
	snap := &archive.Snapshot{
		QuizName:       "Personal Growth Quiz",
		CompletionDate: "2024-01-15T14:30:45Z",
		Responses:      []archive.Response{},
	}

	path, err := ExportJSON(snap, &Options{OutputDir: dir})
	if err != nil {
		t.Fatalf("ExportJSON() error = %v", err)
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `"responses": []`) {
		t.Errorf("empty responses must export as an empty array, got: %s", data)
	}
}

func TestExportCreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")

	if _, err := ExportJSON(sampleSnapshot(), &Options{OutputDir: dir}); err != nil {
		t.Fatalf("ExportJSON() error = %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("output directory not created: %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"spaces to underscores", "Personal Growth Quiz", "personal_growth_quiz"},
		{"path separators", "a/b\\c", "a-b-c"},
		{"empty input", "", "quiz_results"},
		{"control characters", "quiz\x01name", "quiz-name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeFilename(tt.input); got != tt.want {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
