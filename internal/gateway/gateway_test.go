// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPayload() Payload {
	return Payload{
		Model:    "gpt-4",
		Messages: []ChatMessage{{Role: "user", Content: "hello"}},
	}
}

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func TestComplete_InvalidPayloadNoNetworkCall(t *testing.T) {
	var calls int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
	}))
	defer upstream.Close()

	g := New(Config{APIKey: "sk-test", BaseURL: upstream.URL})

	tests := []struct {
		name    string
		payload Payload
	}{
		{"empty model", Payload{Model: "", Messages: []ChatMessage{{Role: "user", Content: "hi"}}}},
		{"whitespace model", Payload{Model: "   ", Messages: []ChatMessage{{Role: "user", Content: "hi"}}}},
		{"no messages", Payload{Model: "gpt-4"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := g.Complete(context.Background(), tc.payload)
			require.Error(t, err)

			var gerr *Error
			require.True(t, errors.As(err, &gerr))
			assert.Equal(t, KindInvalidRequest, gerr.Kind)
			assert.NotEmpty(t, gerr.RequestID)
		})
	}

	assert.Zero(t, atomic.LoadInt64(&calls), "validation failures must not reach the network")
}

func TestComplete_MissingCredential(t *testing.T) {
	var calls int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
	}))
	defer upstream.Close()

	g := New(Config{APIKey: "", BaseURL: upstream.URL})

	_, err := g.Complete(context.Background(), validPayload())
	require.Error(t, err)

	var gerr *Error
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, KindMissingCredential, gerr.Kind)
	assert.Zero(t, atomic.LoadInt64(&calls), "missing credential must not consume the upstream")
}

// =============================================================================
// UPSTREAM STATUS MAPPING TESTS
// =============================================================================

func TestComplete_SuccessReturnsBodyUnmodified(t *testing.T) {
	upstreamBody := `{"id":"cmpl-1","choices":[{"message":{"role":"assistant","content":"hi there"},"finish_reason":"stop"}]}`

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var forwarded Payload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&forwarded))
		assert.Equal(t, "gpt-4", forwarded.Model)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(upstreamBody))
	}))
	defer upstream.Close()

	g := New(Config{APIKey: "sk-test", BaseURL: upstream.URL})

	raw, err := g.Complete(context.Background(), validPayload())
	require.NoError(t, err)
	assert.JSONEq(t, upstreamBody, string(raw))

	content, err := ExtractContent(raw)
	require.NoError(t, err)
	assert.Equal(t, "hi there", content)
}

func TestComplete_UpstreamRejectedUsesErrorBody(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"Rate limit reached","code":"rate_limit"}}`))
	}))
	defer upstream.Close()

	g := New(Config{APIKey: "sk-test", BaseURL: upstream.URL})

	_, err := g.Complete(context.Background(), validPayload())
	var gerr *Error
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, KindUpstreamRejected, gerr.Kind)
	assert.Equal(t, "Rate limit reached", gerr.Message)
	assert.Equal(t, http.StatusTooManyRequests, gerr.HTTPStatus())
}

func TestComplete_UpstreamRejectedGenericMessage(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("not json"))
	}))
	defer upstream.Close()

	g := New(Config{APIKey: "sk-test", BaseURL: upstream.URL})

	_, err := g.Complete(context.Background(), validPayload())
	var gerr *Error
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, KindUpstreamRejected, gerr.Kind)
	assert.Equal(t, "upstream completion API error", gerr.Message)
}

func TestComplete_ServerErrorIsUnavailable(t *testing.T) {
	var calls int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer upstream.Close()

	g := New(Config{APIKey: "sk-test", BaseURL: upstream.URL})

	_, err := g.Complete(context.Background(), validPayload())
	var gerr *Error
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, KindUpstreamUnavailable, gerr.Kind)

	// No automatic retry: exactly one upstream attempt.
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestComplete_TimeoutIsUnavailable(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer upstream.Close()

	g := New(Config{APIKey: "sk-test", BaseURL: upstream.URL, Timeout: 20 * time.Millisecond})

	_, err := g.Complete(context.Background(), validPayload())
	var gerr *Error
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, KindUpstreamUnavailable, gerr.Kind)
	assert.Contains(t, gerr.Message, "timed out")
}

func TestComplete_ConnectionFailureIsUnavailable(t *testing.T) {
	g := New(Config{APIKey: "sk-test", BaseURL: "http://127.0.0.1:1"})

	_, err := g.Complete(context.Background(), validPayload())
	var gerr *Error
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, KindUpstreamUnavailable, gerr.Kind)
	assert.NotEmpty(t, gerr.RequestID)
}

// =============================================================================
// HELPER TESTS
// =============================================================================

func TestExtractContent_Malformed(t *testing.T) {
	_, err := ExtractContent(json.RawMessage(`{"choices":[]}`))
	assert.Error(t, err)

	_, err = ExtractContent(json.RawMessage(`{`))
	assert.Error(t, err)
}

func TestNew_ClientTimeoutFollowsConfig(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		want    time.Duration
	}{
		{"zero uses default", 0, DefaultTimeout},
		{"below default", 5 * time.Second, 5 * time.Second},
		{"above default", 120 * time.Second, 120 * time.Second},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := New(Config{APIKey: "sk-test", Timeout: tc.timeout})
			assert.Equal(t, tc.want, g.timeout)
			assert.Equal(t, tc.want, g.httpClient.Timeout,
				"client-level timeout must not cap the configured one")
		})
	}
}

func TestAsError_WrapsUnknown(t *testing.T) {
	gerr := AsError(errors.New("boom"))
	assert.Equal(t, KindUpstreamUnavailable, gerr.Kind)

	orig := &Error{Kind: KindInvalidRequest, RequestID: "req-1"}
	assert.Same(t, orig, AsError(orig))
}
