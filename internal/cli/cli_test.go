// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeranaias/quizchat-tui/internal/archive"
	"github.com/jeranaias/quizchat-tui/internal/config"
	"github.com/jeranaias/quizchat-tui/internal/export"
	"github.com/jeranaias/quizchat-tui/internal/secure"
)

// =============================================================================
// ARGUMENT PARSING
// =============================================================================

func TestParseArgsCommands(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		want Command
	}{
		{"no args defaults to TUI", nil, CmdTUI},
		{"explicit tui", []string{"tui"}, CmdTUI},
		{"serve", []string{"serve"}, CmdServe},
		{"server alias", []string{"server"}, CmdServe},
		{"proxy alias", []string{"proxy"}, CmdServe},
		{"export", []string{"export"}, CmdExport},
		{"unseal", []string{"unseal", "f.enc"}, CmdUnseal},
		{"reveal alias", []string{"reveal", "f.enc"}, CmdUnseal},
		{"config", []string{"config"}, CmdConfig},
		{"status", []string{"status"}, CmdStatus},
		{"status short", []string{"s"}, CmdStatus},
		{"version", []string{"version"}, CmdVersion},
		{"version flag", []string{"--version"}, CmdVersion},
		{"help", []string{"help"}, CmdHelp},
		{"help flag", []string{"-h"}, CmdHelp},
		{"unknown falls back to TUI", []string{"bogus"}, CmdTUI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, _ := ParseArgs(tt.argv)
			if cmd != tt.want {
				t.Errorf("ParseArgs(%v) = %v, want %v", tt.argv, cmd, tt.want)
			}
		})
	}
}

func TestParseArgsGlobalFlags(t *testing.T) {
	cmd, args := ParseArgs([]string{"--quiet", "--json", "--model", "gpt-4o", "status"})
	if cmd != CmdStatus {
		t.Fatalf("cmd = %v, want CmdStatus", cmd)
	}
	if !args.Quiet || !args.JSON {
		t.Errorf("Quiet=%v JSON=%v, want both true", args.Quiet, args.JSON)
	}
	if args.Model != "gpt-4o" {
		t.Errorf("Model = %q, want gpt-4o", args.Model)
	}
}

func TestParseArgsModelEquals(t *testing.T) {
	_, args := ParseArgs([]string{"--model=gpt-4"})
	if args.Model != "gpt-4" {
		t.Errorf("Model = %q, want gpt-4", args.Model)
	}
}

func TestParseServeArgs(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		addr string
	}{
		{"long flag", []string{"serve", "--addr", "0.0.0.0:9090"}, "0.0.0.0:9090"},
		{"short flag", []string{"serve", "-a", "127.0.0.1:1234"}, "127.0.0.1:1234"},
		{"equals form", []string{"serve", "--addr=:8080"}, ":8080"},
		{"default empty", []string{"serve"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := ParseArgs(tt.argv)
			if cmd != CmdServe {
				t.Fatalf("cmd = %v, want CmdServe", cmd)
			}
			if args.Addr != tt.addr {
				t.Errorf("Addr = %q, want %q", args.Addr, tt.addr)
			}
		})
	}
}

func TestParseExportArgs(t *testing.T) {
	_, args := ParseArgs([]string{"export",
		"--input", "results.json",
		"--output", "/tmp/out",
		"--format", "markdown",
		"--seal",
	})
	if args.Input != "results.json" {
		t.Errorf("Input = %q", args.Input)
	}
	if args.Output != "/tmp/out" {
		t.Errorf("Output = %q", args.Output)
	}
	if args.Format != "markdown" {
		t.Errorf("Format = %q", args.Format)
	}
	if !args.Seal {
		t.Error("Seal = false, want true")
	}
}

func TestParseExportBarePositionalIsInput(t *testing.T) {
	_, args := ParseArgs([]string{"export", "results.json"})
	if args.Input != "results.json" {
		t.Errorf("Input = %q, want results.json", args.Input)
	}
}

func TestParseUnsealArgs(t *testing.T) {
	_, args := ParseArgs([]string{"unseal", "results.json.enc"})
	if args.Input != "results.json.enc" {
		t.Errorf("Input = %q, want results.json.enc", args.Input)
	}
}

func TestParseConfigArgs(t *testing.T) {
	_, args := ParseArgs([]string{"config", "set", "quiz.model", "gpt-4o"})
	if args.Subcommand != "set" {
		t.Errorf("Subcommand = %q, want set", args.Subcommand)
	}
	if args.ConfigKey != "quiz.model" {
		t.Errorf("ConfigKey = %q, want quiz.model", args.ConfigKey)
	}
	if args.ConfigVal != "gpt-4o" {
		t.Errorf("ConfigVal = %q, want gpt-4o", args.ConfigVal)
	}
}

// =============================================================================
// EXIT CODES
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"usage error", NewUsageError("bad flag", ""), ExitUsage},
		{"config error", NewCommandError("serve", "load", ErrConfigInvalid), ExitConfig},
		{"not found", NewCommandError("export", "read", fs.ErrNotExist), ExitNotFound},
		{"permission", NewCommandError("export", "read", fs.ErrPermission), ExitPermission},
		{"generic error", errors.New("boom"), ExitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.want {
				t.Errorf("GetExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

// =============================================================================
// EXPORT / SEAL ROUNDTRIP
// =============================================================================

func sampleSnapshot() *archive.Snapshot {
	return &archive.Snapshot{
		QuizName:       "Growth Quiz",
		CompletionDate: "2025-01-01T12:00:00Z",
		Responses: []archive.Response{
			{
				QuestionID: 0,
				Question:   "What energizes you?",
				Response:   "Building things.",
				Timestamp:  "2025-01-01T11:58:00Z",
				Insights:   []string{"values creation"},
			},
		},
	}
}

func TestExportSealedRoundtrip(t *testing.T) {
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Security.EncryptionPassphrase = "correct horse battery staple"

	opts := export.DefaultOptions()
	opts.OutputDir = dir

	path, err := exportSealed(sampleSnapshot(), export.NewJSONExporter(), opts, cfg)
	if err != nil {
		t.Fatalf("exportSealed() error = %v", err)
	}
	if !strings.HasSuffix(path, ".json.enc") {
		t.Errorf("sealed path = %q, want .json.enc suffix", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sealed file: %v", err)
	}
	if !secure.IsSealed(string(data)) {
		t.Fatal("sealed file does not carry the sealed marker")
	}

	// readSnapshot must transparently unseal it.
	snap, err := readSnapshot(path, cfg)
	if err != nil {
		t.Fatalf("readSnapshot() error = %v", err)
	}
	if snap.QuizName != "Growth Quiz" {
		t.Errorf("QuizName = %q after roundtrip", snap.QuizName)
	}
	if len(snap.Responses) != 1 || snap.Responses[0].Response != "Building things." {
		t.Errorf("responses did not survive the roundtrip: %+v", snap.Responses)
	}
}

func TestExportSealedRequiresPassphrase(t *testing.T) {
	cfg := config.Default()

	opts := export.DefaultOptions()
	opts.OutputDir = t.TempDir()

	_, err := exportSealed(sampleSnapshot(), export.NewJSONExporter(), opts, cfg)
	if err == nil {
		t.Fatal("exportSealed() with no passphrase should fail")
	}
}

func TestReadSnapshotPlainFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results.json")

	data, err := json.Marshal(sampleSnapshot())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	snap, err := readSnapshot(path, config.Default())
	if err != nil {
		t.Fatalf("readSnapshot() error = %v", err)
	}
	if snap.QuizName != "Growth Quiz" {
		t.Errorf("QuizName = %q", snap.QuizName)
	}
}

func TestReadSnapshotRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "garbage.json")
	if err := os.WriteFile(path, []byte("not json at all"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := readSnapshot(path, config.Default()); err == nil {
		t.Fatal("readSnapshot() should reject non-JSON input")
	}
}

// =============================================================================
// STATUS HELPERS
// =============================================================================

func TestProbeProxy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions && r.URL.Path == "/api/chat" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if !probeProxy(srv.URL) {
		t.Error("probeProxy() = false against a live preflight endpoint")
	}
	if probeProxy("http://127.0.0.1:1") {
		t.Error("probeProxy() = true against a closed port")
	}
}

// =============================================================================
// DISPLAY HELPERS
// =============================================================================

func TestMaskCredential(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "(not set)"},
		{"short", "****"},
		{"sk-projabcdef123456", "sk-p...3456"},
	}

	for _, tt := range tests {
		if got := maskCredential(tt.in); got != tt.want {
			t.Errorf("maskCredential(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
