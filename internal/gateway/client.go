// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Configuration constants for the completion endpoint.
const (
	// DefaultTimeout is the default timeout for completion requests.
	// Completions with extended thinking can run long.
	DefaultTimeout = 120 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit

	// ThinkingBudgetTokens is the token budget for extended thinking.
	ThinkingBudgetTokens = 10000

	// OrganisationID identifies the calling organisation to the endpoint.
	OrganisationID = 13

	// RequestSource tags every request in the endpoint's metadata.
	RequestSource = "copilotkit codebase agent"
)

// SystemPreamble is prepended to every request as the system message. It
// never appears in the stored thread.
const SystemPreamble = "You are a helpful assistant operating inside a " +
	"developer tool. When the user asks about a codebase, use the deepwiki " +
	"tool to look up repository documentation and source before answering. " +
	"Answer concisely and format code in fenced blocks."

// Shared HTTP client with connection pooling for all completion requests.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
	Timeout: DefaultTimeout,
}

// ErrNotConfigured indicates the endpoint URL is not set.
var ErrNotConfigured = errors.New("completion endpoint not configured")

// =============================================================================
// ERRORS
// =============================================================================

// TransportError represents a non-2xx reply from the endpoint.
type TransportError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("completion request failed (HTTP %d): %s", e.Status, e.Body)
	}
	return fmt.Sprintf("completion request failed (HTTP %d)", e.Status)
}

// NetworkError represents a request that never produced a reply.
type NetworkError struct {
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return "completion request failed: " + e.Err.Error()
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// ChatMessage is a single history entry on the wire.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// thinkingConfig enables extended thinking with a fixed budget.
type thinkingConfig struct {
	Type         string `json:"type"`
	BudgetTokens int    `json:"budget_tokens"`
}

// requestMetadata tags the request for the endpoint's accounting.
type requestMetadata struct {
	Source string `json:"source"`
}

// completionRequest is the full request envelope.
type completionRequest struct {
	Model          string          `json:"model"`
	Messages       []ChatMessage   `json:"messages"`
	Thinking       thinkingConfig  `json:"thinking"`
	OrganisationID int             `json:"organisation_id"`
	Metadata       requestMetadata `json:"metadata"`
}

// Completion is the endpoint's reply. Usage is passed through opaque:
// the endpoint owns its shape and the client only stores it.
type Completion struct {
	Output    string          `json:"output"`
	Usage     json.RawMessage `json:"usage"`
	TimeTaken float64         `json:"time_taken_seconds"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client sends completion requests to the configured endpoint.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a client for the given endpoint URL. An empty URL
// produces a client whose requests fail with ErrNotConfigured.
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint:   strings.TrimSuffix(strings.TrimSpace(endpoint), "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: sharedHTTPClient,
	}
}

// WithHTTPClient sets a custom HTTP client, used by tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// IsConfigured returns true if the client has an endpoint URL.
func (c *Client) IsConfigured() bool {
	return c.endpoint != ""
}

// Complete sends one completion request and returns the reply. The
// history is sent verbatim after the system preamble; the request is
// attempted exactly once.
func (c *Client) Complete(ctx context.Context, history []ChatMessage, modelID string) (*Completion, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	body, err := c.BuildRequest(history, modelID)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(data)),
		}
	}

	var completion Completion
	if err := json.Unmarshal(data, &completion); err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("decode response: %w", err)}
	}
	return &completion, nil
}

// BuildRequest encodes the request envelope for the given history and
// model. Exposed so the session layer can record the exact payload of a
// pending request for diagnostics.
func (c *Client) BuildRequest(history []ChatMessage, modelID string) ([]byte, error) {
	messages := make([]ChatMessage, 0, len(history)+1)
	messages = append(messages, ChatMessage{Role: "system", Content: SystemPreamble})
	messages = append(messages, history...)

	return json.Marshal(completionRequest{
		Model:    modelID,
		Messages: messages,
		Thinking: thinkingConfig{
			Type:         "enabled",
			BudgetTokens: ThinkingBudgetTokens,
		},
		OrganisationID: OrganisationID,
		Metadata:       requestMetadata{Source: RequestSource},
	})
}
