// quizchat TUI - A conversational quiz in the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/quizchat-tui/internal/cli"
	"github.com/jeranaias/quizchat-tui/internal/config"
	"github.com/jeranaias/quizchat-tui/internal/gateway"
	"github.com/jeranaias/quizchat-tui/internal/proxy"
	"github.com/jeranaias/quizchat-tui/internal/quiz"
	"github.com/jeranaias/quizchat-tui/internal/ui/chat"
	"github.com/jeranaias/quizchat-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.2.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdServe:
		exitOnError(cli.HandleServe(args))

	case cli.CmdExport:
		exitOnError(cli.HandleExport(args))

	case cli.CmdUnseal:
		exitOnError(cli.HandleUnseal(args))

	case cli.CmdConfig:
		exitOnError(cli.HandleConfig(args))

	case cli.CmdStatus:
		exitOnError(cli.HandleStatus(args))

	case cli.CmdVersion:
		cli.HandleVersion(args)

	case cli.CmdHelp:
		cli.HandleHelp()

	default:
		exitOnError(runTUI(args))
	}
}

// runTUI loads configuration, wires the quiz engine to its completion
// backend, and runs the chat interface.
func runTUI(args cli.Args) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	catalog, err := loadCatalog(cfg)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}

	modelName := cfg.Quiz.Model
	if args.Model != "" {
		modelName = args.Model
	}

	engine := quiz.NewEngine(catalog, buildCompleter(cfg), modelName)

	theme := styles.NewTheme()
	m := chat.New(theme, engine, chat.Options{
		QuizName:     cfg.Quiz.Name,
		ExportDir:    cfg.Export.OutputDir,
		ExportFormat: cfg.Export.Format,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run interface: %w", err)
	}
	return nil
}

// buildCompleter routes completions through the proxy when one is
// configured, otherwise talks to the upstream directly.
func buildCompleter(cfg *config.Config) quiz.Completer {
	if cfg.Upstream.ProxyURL != "" {
		return proxy.NewClient(cfg.Upstream.ProxyURL)
	}
	return gateway.New(gateway.Config{
		APIKey:  cfg.Upstream.APIKey,
		BaseURL: cfg.Upstream.BaseURL,
		Timeout: time.Duration(cfg.Upstream.TimeoutSecs) * time.Second,
	})
}

func loadCatalog(cfg *config.Config) (quiz.Catalog, error) {
	if cfg.Quiz.QuestionsPath != "" {
		return quiz.LoadCatalog(cfg.Quiz.QuestionsPath)
	}
	return quiz.DefaultCatalog()
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
