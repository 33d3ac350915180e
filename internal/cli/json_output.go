// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - JSON output helpers for scripting integration.
package cli

import (
	"encoding/json"
	"fmt"
	"time"
)

// JSONResponse is the envelope for all --json command output.
type JSONResponse struct {
	Command   string      `json:"command"`
	Success   bool        `json:"success"`
	Timestamp string      `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// NewJSONResponse creates a success response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Command:   command,
		Success:   true,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
	}
}

// NewJSONErrorResponse creates an error response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	return &JSONResponse{
		Command:   command,
		Success:   false,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Error:     err.Error(),
	}
}

// Print writes the response as indented JSON to stdout.
func (r *JSONResponse) Print() error {
	out, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// =============================================================================
// COMMAND DATA STRUCTURES
// =============================================================================

// VersionData is the payload for "version --json".
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// StatusData is the payload for "status --json".
type StatusData struct {
	ConfigPath     string `json:"config_path"`
	QuizName       string `json:"quiz_name"`
	QuestionCount  int    `json:"question_count"`
	Model          string `json:"model"`
	UpstreamURL    string `json:"upstream_url"`
	ProxyURL       string `json:"proxy_url,omitempty"`
	ProxyReachable *bool  `json:"proxy_reachable,omitempty"`
	APIKeySet      bool   `json:"api_key_set"`
	SealingEnabled bool   `json:"sealing_enabled"`
	ExportDir      string `json:"export_dir"`
	ExportFormat   string `json:"export_format"`
}

// ExportData is the payload for "export --json".
type ExportData struct {
	Input  string `json:"input"`
	Output string `json:"output"`
	Format string `json:"format"`
	Sealed bool   `json:"sealed"`
}
