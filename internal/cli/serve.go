// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve.go - The "serve" command: runs the credential-injecting proxy.
package cli

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeranaias/quizchat-tui/internal/config"
	"github.com/jeranaias/quizchat-tui/internal/gateway"
	"github.com/jeranaias/quizchat-tui/internal/proxy"
)

// shutdownGrace bounds how long in-flight requests may run after an
// interrupt before the listener is torn down.
const shutdownGrace = 10 * time.Second

// HandleServe runs the proxy server until interrupted.
func HandleServe(args Args) error {
	cfg, err := config.Load()
	if err != nil {
		return NewCommandError("serve", "load config", fmt.Errorf("%w: %v", ErrConfigInvalid, err))
	}

	addr := cfg.Server.ListenAddr
	if args.Addr != "" {
		addr = args.Addr
	}

	gw := gateway.New(gateway.Config{
		APIKey:  cfg.Upstream.APIKey,
		BaseURL: cfg.Upstream.BaseURL,
		Timeout: time.Duration(cfg.Upstream.TimeoutSecs) * time.Second,
	})

	server := proxy.NewServer(addr, gw)

	// Run until SIGINT/SIGTERM, then drain with a grace period.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	if !args.Quiet {
		fmt.Printf("quizchat proxy listening on %s\n", server.Addr())
		fmt.Println("Press Ctrl+C to stop.")
	}

	select {
	case err := <-errCh:
		if err != nil {
			return NewCommandError("serve", "run server", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("PROXY_SHUTDOWN | addr=%s", server.Addr())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return NewCommandError("serve", "shutdown", err)
	}
	return nil
}
