// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - The "status" command: summarize the effective
// configuration and check whether a configured proxy is reachable.
package cli

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jeranaias/quizchat-tui/internal/config"
	"github.com/jeranaias/quizchat-tui/internal/quiz"
)

// proxyProbeTimeout bounds the reachability check so status stays fast
// even when the proxy address is black-holed.
const proxyProbeTimeout = 2 * time.Second

// HandleStatus prints a summary of the effective configuration.
func HandleStatus(args Args) error {
	cfg, err := config.Load()
	if err != nil {
		return NewCommandError("status", "load config", fmt.Errorf("%w: %v", ErrConfigInvalid, err))
	}

	configPath, err := config.ConfigPath()
	if err != nil {
		return NewCommandError("status", "resolve config path", err)
	}

	catalog, err := loadCatalog(cfg)
	if err != nil {
		return NewCommandError("status", "load questions", err)
	}

	var proxyReachable *bool
	if cfg.Upstream.ProxyURL != "" {
		reachable := probeProxy(cfg.Upstream.ProxyURL)
		proxyReachable = &reachable
	}

	if args.JSON {
		return NewJSONResponse("status", StatusData{
			ConfigPath:     configPath,
			QuizName:       cfg.Quiz.Name,
			QuestionCount:  catalog.Len(),
			Model:          cfg.Quiz.Model,
			UpstreamURL:    cfg.Upstream.BaseURL,
			ProxyURL:       cfg.Upstream.ProxyURL,
			ProxyReachable: proxyReachable,
			APIKeySet:      cfg.Upstream.APIKey != "",
			SealingEnabled: cfg.Security.EncryptionPassphrase != "",
			ExportDir:      cfg.Export.OutputDir,
			ExportFormat:   cfg.Export.Format,
		}).Print()
	}

	fmt.Printf("quizchat %s\n\n", Version)
	fmt.Printf("  Config file:   %s\n", configPath)
	fmt.Printf("  Quiz:          %s (%d questions)\n", cfg.Quiz.Name, catalog.Len())
	fmt.Printf("  Model:         %s\n", cfg.Quiz.Model)
	fmt.Printf("  Upstream:      %s\n", cfg.Upstream.BaseURL)
	fmt.Printf("  API key:       %s\n", setOrNot(cfg.Upstream.APIKey))
	if cfg.Upstream.ProxyURL != "" {
		fmt.Printf("  Proxy:         %s (%s)\n", cfg.Upstream.ProxyURL, reachableLabel(proxyReachable))
	} else {
		fmt.Printf("  Proxy:         (direct upstream)\n")
	}
	fmt.Printf("  Export:        %s files to %s\n", cfg.Export.Format, cfg.Export.OutputDir)
	fmt.Printf("  Sealing:       %s\n", enabledLabel(cfg.Security.EncryptionPassphrase != ""))
	return nil
}

// loadCatalog resolves the question catalog the same way the TUI does.
func loadCatalog(cfg *config.Config) (quiz.Catalog, error) {
	if cfg.Quiz.QuestionsPath != "" {
		return quiz.LoadCatalog(cfg.Quiz.QuestionsPath)
	}
	return quiz.DefaultCatalog()
}

// probeProxy checks whether the proxy answers CORS preflights on its
// chat endpoint.
func probeProxy(proxyURL string) bool {
	url := strings.TrimRight(proxyURL, "/") + "/api/chat"
	req, err := http.NewRequest(http.MethodOptions, url, nil)
	if err != nil {
		return false
	}

	client := &http.Client{Timeout: proxyProbeTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusNoContent
}

func reachableLabel(reachable *bool) string {
	if reachable != nil && *reachable {
		return "reachable"
	}
	return "unreachable"
}

func enabledLabel(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
