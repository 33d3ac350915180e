// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package proxy exposes the completion gateway over HTTP.
//
// It serves a single endpoint, POST /api/chat, that accepts a chat
// completion payload, forwards it upstream through the gateway with the
// server-held credential injected, and relays the upstream body back
// unmodified. Failures come back as a stable JSON shape:
//
//	{"error": "<message>", "requestId": "<uuid>"}
//
// with the HTTP status derived from the gateway's error classification.
// CORS headers are set on every response so a browser client can always
// read the reply. The proxy never retries on the caller's behalf.
package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/quizchat-tui/internal/gateway"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is the default listen address for the proxy server.
	DefaultAddr = "127.0.0.1:8787"

	// ChatPath is the single completion endpoint the proxy serves.
	ChatPath = "/api/chat"

	// MaxRequestBodySize is the maximum size for request bodies (1MB).
	MaxRequestBodySize = 1 * 1024 * 1024

	// Version is the proxy server version.
	Version = "0.2.0"
)

// ============================================================================
// SERVER
// ============================================================================

// Server is the HTTP proxy in front of the completion gateway.
type Server struct {
	addr    string
	gw      *gateway.Gateway
	router  *http.ServeMux
	limiter *RateLimiter
	server  *http.Server
}

// NewServer creates a proxy Server forwarding through gw. An empty addr
// falls back to DefaultAddr.
func NewServer(addr string, gw *gateway.Gateway) *Server {
	if addr == "" {
		addr = DefaultAddr
	}

	s := &Server{
		addr:    addr,
		gw:      gw,
		router:  http.NewServeMux(),
		limiter: DefaultRateLimiter(),
	}

	s.router.HandleFunc(ChatPath, s.handleChat)
	return s
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Handler returns the server's full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return Chain(
		RecoveryMiddleware(),
		LoggingMiddleware(log.Default()),
		CORSMiddleware(),
		RateLimitMiddleware(s.limiter),
	)(s.router)
}

// ============================================================================
// CHAT HANDLER
// ============================================================================

// handleChat handles POST /api/chat. Method filtering happens here
// rather than in mux registration so rejections carry the JSON error
// shape; OPTIONS never reaches this handler (the CORS middleware
// answers preflight).
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed", "")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	var payload gateway.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		// The request never reached the gateway, so correlation starts
		// here. Full decode error stays in the log only.
		requestID := uuid.NewString()
		log.Printf("PROXY_BAD_REQUEST | request=%s error=%v", requestID, err)
		writeError(w, http.StatusBadRequest, "Invalid request format", requestID)
		return
	}

	body, err := s.gw.Complete(r.Context(), payload)
	if err != nil {
		gerr := gateway.AsError(err)
		writeError(w, gerr.HTTPStatus(), gerr.Message, gerr.RequestID)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("PROXY_START | addr=%s version=%s", s.addr, Version)
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	log.Printf("PROXY_SHUTDOWN | starting graceful shutdown")
	return s.server.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

// errorBody is the wire shape for every proxy failure.
type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// writeError writes the proxy's JSON error shape. requestID may be
// empty for failures that occur before a correlation ID is assigned.
func writeError(w http.ResponseWriter, status int, message, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorBody{Error: message, RequestID: requestID}); err != nil {
		log.Printf("PROXY_WRITE_ERROR | error=%v", err)
	}
}
