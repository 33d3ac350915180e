// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// export.go - The "export" and "unseal" commands: re-export saved quiz
// results, optionally sealing them at rest.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/quizchat-tui/internal/archive"
	"github.com/jeranaias/quizchat-tui/internal/config"
	"github.com/jeranaias/quizchat-tui/internal/export"
	"github.com/jeranaias/quizchat-tui/internal/secure"
	"github.com/jeranaias/quizchat-tui/internal/util"
)

// HandleExport re-exports a saved result file into another format or a
// sealed form.
func HandleExport(args Args) error {
	if args.Input == "" {
		return NewUsageError("export requires --input FILE",
			"quizchat export --input growth_quiz_20250101_120000.json")
	}

	cfg, err := config.Load()
	if err != nil {
		return NewCommandError("export", "load config", fmt.Errorf("%w: %v", ErrConfigInvalid, err))
	}

	snap, err := readSnapshot(args.Input, cfg)
	if err != nil {
		return err
	}

	format := args.Format
	if format == "" {
		format = cfg.Export.Format
	}
	var exporter export.Exporter
	switch format {
	case "markdown", "md":
		exporter = export.NewMarkdownExporter()
		format = "markdown"
	case "", "json":
		exporter = export.NewJSONExporter()
		format = "json"
	default:
		return NewUsageError(fmt.Sprintf("unknown export format %q", format),
			"supported formats: json, markdown")
	}

	opts := export.DefaultOptions()
	if cfg.Export.OutputDir != "" {
		opts.OutputDir = cfg.Export.OutputDir
	}
	if args.Output != "" {
		opts.OutputDir = args.Output
	}

	var outputPath string
	if args.Seal {
		outputPath, err = exportSealed(snap, exporter, opts, cfg)
	} else {
		outputPath, err = export.ExportToFile(snap, exporter, opts)
	}
	if err != nil {
		return NewCommandError("export", "write result", err)
	}

	if args.JSON {
		return NewJSONResponse("export", ExportData{
			Input:  args.Input,
			Output: outputPath,
			Format: format,
			Sealed: args.Seal,
		}).Print()
	}
	if !args.Quiet {
		fmt.Printf("Exported to %s\n", outputPath)
	}
	return nil
}

// HandleUnseal decrypts a sealed result file and writes the plaintext
// to stdout.
func HandleUnseal(args Args) error {
	if args.Input == "" {
		return NewUsageError("unseal requires a file argument",
			"quizchat unseal results.json.enc")
	}

	cfg, err := config.Load()
	if err != nil {
		return NewCommandError("unseal", "load config", fmt.Errorf("%w: %v", ErrConfigInvalid, err))
	}

	sealer := secure.New(cfg.Security.EncryptionPassphrase)
	if !sealer.Configured() {
		return NewUsageError("no encryption passphrase configured",
			"set QUIZCHAT_PASSPHRASE or security.encryption_passphrase")
	}

	data, err := os.ReadFile(args.Input)
	if err != nil {
		return NewCommandError("unseal", "read file", err)
	}

	plaintext, err := sealer.Open(strings.TrimSpace(string(data)))
	if err != nil {
		return NewCommandError("unseal", "decrypt", err)
	}

	os.Stdout.Write(plaintext)
	return nil
}

// readSnapshot loads a saved result file, transparently unsealing it
// when it was exported with --seal.
func readSnapshot(path string, cfg *config.Config) (*archive.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewCommandError("export", "read input", err)
	}

	if secure.IsSealed(strings.TrimSpace(string(data))) {
		sealer := secure.New(cfg.Security.EncryptionPassphrase)
		if !sealer.Configured() {
			return nil, NewUsageError("input file is sealed but no passphrase is configured",
				"set QUIZCHAT_PASSPHRASE to read it")
		}
		data, err = sealer.Open(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, NewCommandError("export", "unseal input", err)
		}
	}

	var snap archive.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, NewCommandError("export", "parse input",
			fmt.Errorf("not a saved quiz result file: %w", err))
	}
	return &snap, nil
}

// exportSealed renders the snapshot and writes the sealed ciphertext.
// Sealed files get a ".enc" suffix and tight permissions.
func exportSealed(snap *archive.Snapshot, exporter export.Exporter, opts *export.Options, cfg *config.Config) (string, error) {
	sealer := secure.New(cfg.Security.EncryptionPassphrase)
	if !sealer.Configured() {
		return "", NewUsageError("--seal requires an encryption passphrase",
			"set QUIZCHAT_PASSPHRASE or security.encryption_passphrase")
	}

	content, err := exporter.Export(snap)
	if err != nil {
		return "", err
	}

	sealed, err := sealer.Seal(content)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return "", err
	}

	sealedPath := filepath.Join(opts.OutputDir, export.Filename(snap.QuizName, exporter)+".enc")
	if err := util.AtomicWriteFile(sealedPath, []byte(sealed), 0600); err != nil {
		return "", err
	}
	return sealedPath, nil
}
