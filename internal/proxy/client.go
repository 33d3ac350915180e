// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jeranaias/quizchat-tui/internal/gateway"
)

// ClientTimeout sits above the gateway's upstream timeout so the proxy
// classifies slow upstreams before the client gives up on the proxy.
const ClientTimeout = 35 * time.Second

// Client talks to a running proxy server over HTTP. It satisfies the
// same completion contract as the gateway itself, so the conversation
// engine does not care whether completions are direct or proxied.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client for the proxy at baseURL, e.g.
// "http://127.0.0.1:8787".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: ClientTimeout,
		},
	}
}

// Complete sends the payload to the proxy's chat endpoint and returns
// the upstream completion body. Proxy error responses are rehydrated
// into the gateway's error taxonomy from their status and JSON body.
func (c *Client) Complete(ctx context.Context, payload gateway.Payload) (json.RawMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ChatPath, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &gateway.Error{
			Kind:    gateway.KindUpstreamUnavailable,
			Message: fmt.Sprintf("proxy unreachable: %v", err),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, gateway.MaxResponseSize))
	if err != nil {
		return nil, &gateway.Error{
			Kind:    gateway.KindUpstreamUnavailable,
			Message: fmt.Sprintf("read proxy response: %v", err),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeProxyError(resp.StatusCode, body)
	}

	return json.RawMessage(body), nil
}

// decodeProxyError maps a proxy error response back into the gateway
// taxonomy. The proxy's wire shape carries message and correlation ID;
// the kind is recovered from the HTTP status.
func decodeProxyError(status int, body []byte) *gateway.Error {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || eb.Error == "" {
		eb.Error = fmt.Sprintf("proxy returned status %d", status)
	}

	kind := gateway.KindUpstreamUnavailable
	switch {
	case status == http.StatusBadRequest:
		kind = gateway.KindInvalidRequest
	case status >= 400 && status < 500:
		kind = gateway.KindUpstreamRejected
	}

	return &gateway.Error{
		Kind:      kind,
		Message:   eb.Error,
		RequestID: eb.RequestID,
		Status:    status,
	}
}
