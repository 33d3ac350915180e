// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway translates chat completion requests into calls against
// an upstream OpenAI-compatible endpoint.
//
// The gateway is a pure function of (request) -> (response | error): it
// holds no session state, injects the upstream credential, enforces a
// hard timeout, and normalizes every failure into a typed Error carrying
// a correlation identifier. It performs no automatic retries; recovery
// is the caller's concern.
package gateway

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Configuration constants for the upstream completion API.
const (
	// DefaultBaseURL is the default upstream completion API base URL.
	DefaultBaseURL = "https://api.openai.com"

	// DefaultTimeout is the hard timeout for upstream requests.
	DefaultTimeout = 30 * time.Second

	// completionsPath is the chat completions endpoint path.
	completionsPath = "/v1/chat/completions"

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit
)

// sharedTransport is the pooled transport for all upstream requests.
// PERFORMANCE: Connection pooling reduces TCP handshake overhead. Each
// gateway wraps it in its own client so the client-level timeout always
// matches the configured one.
var sharedTransport = &http.Transport{
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
	TLSClientConfig: &tls.Config{
		MinVersion: tls.VersionTLS12,
	},
}

// =============================================================================
// ERROR TAXONOMY
// =============================================================================

// Kind classifies gateway failures.
type Kind string

const (
	// KindInvalidRequest is a malformed client payload; rejected before
	// any network call and without consuming credentials.
	KindInvalidRequest Kind = "invalid_request"

	// KindMissingCredential is a fatal configuration error: the upstream
	// credential is absent. Distinct from per-request upstream failures.
	KindMissingCredential Kind = "missing_credential"

	// KindUpstreamRejected is an upstream 4xx with a structured error
	// body, surfaced verbatim where possible.
	KindUpstreamRejected Kind = "upstream_rejected"

	// KindUpstreamUnavailable covers upstream 5xx, connection failures,
	// and timeouts.
	KindUpstreamUnavailable Kind = "upstream_unavailable"
)

// Error is the structured failure shape returned by the gateway. Every
// Error carries the correlation identifier assigned at call entry so
// failures are traceable end-to-end.
type Error struct {
	Kind      Kind   `json:"kind"`
	Message   string `json:"error"`
	RequestID string `json:"requestId"`
	Status    int    `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("gateway %s [request %s]: %s", e.Kind, e.RequestID, e.Message)
}

// HTTPStatus returns the HTTP status the error maps to on the proxy
// surface.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindInvalidRequest:
		return http.StatusBadRequest
	case KindUpstreamRejected:
		if e.Status >= 400 && e.Status < 500 {
			return e.Status
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// AsError extracts a gateway *Error from err, or wraps err into an
// UpstreamUnavailable error when it carries no taxonomy.
func AsError(err error) *Error {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr
	}
	return &Error{
		Kind:    KindUpstreamUnavailable,
		Message: err.Error(),
	}
}

// =============================================================================
// REQUEST / RESPONSE TYPES
// =============================================================================

// ChatMessage represents a single message in a completion payload.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Payload is the client-supplied completion request, forwarded upstream
// unmodified beyond the bearer credential.
type Payload struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

// Validate checks the payload constraints enforced before any network
// call is attempted.
func (p Payload) Validate() error {
	if strings.TrimSpace(p.Model) == "" || len(p.Messages) == 0 {
		return errors.New("payload must carry a model and at least one message")
	}
	return nil
}

// upstreamError is the error envelope upstream APIs return on 4xx.
type upstreamError struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

// =============================================================================
// GATEWAY
// =============================================================================

// Config is the immutable gateway configuration, constructed once at
// process start and passed by reference. Request handling never reads
// ambient global state.
type Config struct {
	// APIKey is the upstream bearer credential. Its absence is a fatal
	// configuration error, not a per-request failure.
	APIKey string

	// BaseURL is the upstream API base URL. Empty means DefaultBaseURL.
	BaseURL string

	// Timeout bounds each upstream call. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Gateway forwards completion payloads to the upstream endpoint. It is
// safe for concurrent use; no mutable state is shared across calls.
type Gateway struct {
	apiKey     string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// New creates a Gateway from cfg.
func New(cfg Config) *Gateway {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Gateway{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: baseURL,
		timeout: timeout,
		httpClient: &http.Client{
			Transport: sharedTransport,
			Timeout:   timeout,
		},
	}
}

// IsConfigured reports whether the upstream credential is present.
func (g *Gateway) IsConfigured() bool {
	return g.apiKey != ""
}

// Complete forwards the payload to the upstream completion endpoint and
// returns the upstream JSON body unmodified on success.
//
// Status handling follows the proxy contract: anything in [200,500) is a
// response to inspect, a status >= 400 becomes an application error with
// the upstream error message when present, and statuses >= 500 along
// with connection failures and timeouts collapse into a single
// UpstreamUnavailable kind.
func (g *Gateway) Complete(ctx context.Context, payload Payload) (json.RawMessage, error) {
	requestID := uuid.NewString()
	log.Printf("GATEWAY_REQUEST | request=%s model=%s messages=%d", requestID, payload.Model, len(payload.Messages))

	if err := payload.Validate(); err != nil {
		log.Printf("GATEWAY_INVALID | request=%s error=%v", requestID, err)
		return nil, &Error{
			Kind:      KindInvalidRequest,
			Message:   "Invalid request format",
			RequestID: requestID,
		}
	}

	if !g.IsConfigured() {
		log.Printf("GATEWAY_MISCONFIGURED | request=%s reason=missing_credential", requestID)
		return nil, &Error{
			Kind:      KindMissingCredential,
			Message:   "upstream API credential is not set",
			RequestID: requestID,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &Error{
			Kind:      KindInvalidRequest,
			Message:   fmt.Sprintf("failed to marshal request: %v", err),
			RequestID: requestID,
		}
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+completionsPath, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{
			Kind:      KindUpstreamUnavailable,
			Message:   fmt.Sprintf("failed to create request: %v", err),
			RequestID: requestID,
		}
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	start := time.Now()
	resp, err := g.httpClient.Do(req)

	// SECURITY: Clear the credential header after the request so log
	// paths never see it.
	req.Header.Del("Authorization")

	if err != nil {
		log.Printf("GATEWAY_TRANSPORT_ERROR | request=%s error=%v", requestID, err)
		msg := "upstream completion service unavailable"
		if errors.Is(err, context.DeadlineExceeded) {
			msg = "upstream request timed out"
		}
		return nil, &Error{
			Kind:      KindUpstreamUnavailable,
			Message:   msg,
			RequestID: requestID,
		}
	}
	defer resp.Body.Close()

	respBody, err := readResponse(resp)
	if err != nil {
		return nil, &Error{
			Kind:      KindUpstreamUnavailable,
			Message:   err.Error(),
			RequestID: requestID,
		}
	}

	log.Printf("GATEWAY_RESPONSE | request=%s status=%d latency=%dms", requestID, resp.StatusCode, time.Since(start).Milliseconds())

	switch {
	case resp.StatusCode >= 500:
		return nil, &Error{
			Kind:      KindUpstreamUnavailable,
			Message:   "upstream completion service unavailable",
			RequestID: requestID,
			Status:    resp.StatusCode,
		}
	case resp.StatusCode >= 400:
		return nil, &Error{
			Kind:      KindUpstreamRejected,
			Message:   upstreamErrorMessage(respBody),
			RequestID: requestID,
			Status:    resp.StatusCode,
		}
	default:
		// Success: return the upstream JSON body unmodified.
		return json.RawMessage(respBody), nil
	}
}

// upstreamErrorMessage extracts the message from an upstream error body,
// falling back to a generic message when the body is not the expected
// envelope.
func upstreamErrorMessage(body []byte) string {
	var envelope upstreamError
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return "upstream completion API error"
}

// readResponse reads the response body with a size limit.
// SECURITY: Response size limit prevents memory exhaustion.
func readResponse(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// =============================================================================
// COMPLETION HELPERS
// =============================================================================

// Completion is the minimal shape the quiz engine needs out of an
// upstream completion body.
type Completion struct {
	Choices []struct {
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// ExtractContent pulls the first choice's message content out of an
// upstream completion body. A body without choices is malformed.
func ExtractContent(raw json.RawMessage) (string, error) {
	var completion Completion
	if err := json.Unmarshal(raw, &completion); err != nil {
		return "", fmt.Errorf("failed to parse completion: %w", err)
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", errors.New("malformed completion: no choices")
	}
	return completion.Choices[0].Message.Content, nil
}
