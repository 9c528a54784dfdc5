// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/loom-tui/internal/gateway"
	"github.com/jeranaias/loom-tui/internal/model"
	"github.com/jeranaias/loom-tui/internal/thread"
)

// Sentinel errors for send preconditions.
var (
	// ErrBlankMessage indicates the message was empty or whitespace.
	ErrBlankMessage = errors.New("message is blank")

	// ErrRequestPending indicates the thread already has a request in
	// flight. Each thread holds at most one.
	ErrRequestPending = errors.New("request already pending for thread")
)

// Completer is the completion dependency of the controller. Satisfied by
// *gateway.Client; tests substitute a fake.
type Completer interface {
	Complete(ctx context.Context, history []gateway.ChatMessage, modelID string) (*gateway.Completion, error)
	BuildRequest(history []gateway.ChatMessage, modelID string) ([]byte, error)
}

// PendingRequest describes a request in flight for one thread.
type PendingRequest struct {
	Model       string
	ContextSize int
	Payload     []byte
	StartedAt   time.Time
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller drives the send lifecycle. A send runs in two phases: Begin
// appends the user message and marks the thread pending, Resolve performs
// the completion and records the outcome. The split lets the UI redraw
// with the user message visible while the request is in flight.
//
// Pending state and the last error are tracked per thread and never
// persisted: a restart clears both.
type Controller struct {
	repo      *thread.Repository
	completer Completer
	modelID   string

	mu      sync.Mutex
	pending map[string]*PendingRequest
	errors  map[string]string
}

// NewController creates a controller over the given repository and
// completion client.
func NewController(repo *thread.Repository, completer Completer, modelID string) *Controller {
	return &Controller{
		repo:      repo,
		completer: completer,
		modelID:   modelID,
		pending:   make(map[string]*PendingRequest),
		errors:    make(map[string]string),
	}
}

// SetModel changes the model used for subsequent sends. Requests already
// in flight keep the model they started with.
func (c *Controller) SetModel(modelID string) {
	c.mu.Lock()
	c.modelID = modelID
	c.mu.Unlock()
}

// Model returns the model used for new sends.
func (c *Controller) Model() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modelID
}

// Begin starts a send. A blank message and a thread with a request
// already in flight are both rejected before any state changes. An empty
// threadID creates a new thread. On success the user message is appended
// and persisted, the thread is marked pending, and the updated thread is
// returned for immediate display.
func (c *Controller) Begin(threadID, content string) (*model.Thread, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrBlankMessage
	}

	c.mu.Lock()
	if _, inFlight := c.pending[threadID]; threadID != "" && inFlight {
		c.mu.Unlock()
		return nil, ErrRequestPending
	}
	modelID := c.modelID
	c.mu.Unlock()

	if threadID == "" {
		threadID = c.repo.Create().ID
	}

	updated, err := c.repo.Append(threadID, model.NewUserMessage(content, modelID))
	if err != nil {
		return nil, err
	}

	history := historyOf(updated)
	payload, err := c.completer.BuildRequest(history, modelID)
	if err != nil {
		payload = nil
	}

	c.mu.Lock()
	delete(c.errors, threadID)
	c.pending[threadID] = &PendingRequest{
		Model:       modelID,
		ContextSize: len(history),
		Payload:     payload,
		StartedAt:   time.Now(),
	}
	c.mu.Unlock()

	return updated, nil
}

// Resolve performs the completion for a thread marked pending by Begin
// and records the outcome: success appends the assistant message, failure
// records the error for display. Either way the pending mark is cleared.
// A thread deleted while in flight absorbs the outcome silently.
func (c *Controller) Resolve(ctx context.Context, threadID string) *model.Thread {
	c.mu.Lock()
	req, ok := c.pending[threadID]
	c.mu.Unlock()
	if !ok {
		return nil
	}

	th, err := c.repo.Get(threadID)
	if err != nil {
		// Deleted before the request went out.
		c.clearPending(threadID)
		return nil
	}

	completion, err := c.completer.Complete(ctx, historyOf(th), req.Model)

	if _, getErr := c.repo.Get(threadID); getErr != nil {
		// Deleted while in flight: drop the outcome.
		c.clearPending(threadID)
		return nil
	}

	if err != nil {
		c.mu.Lock()
		c.errors[threadID] = err.Error()
		delete(c.pending, threadID)
		c.mu.Unlock()
		updated, _ := c.repo.Get(threadID)
		return updated
	}

	output := completion.Output
	if strings.TrimSpace(output) == "" {
		output = "No response received"
	}

	updated, appendErr := c.repo.Append(threadID,
		model.NewAssistantMessage(output, req.Model, completion.Usage, completion.TimeTaken))
	c.clearPending(threadID)
	if appendErr != nil {
		return nil
	}
	return updated
}

// IsPending reports whether the thread has a request in flight.
func (c *Controller) IsPending(threadID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[threadID]
	return ok
}

// Pending returns the in-flight request for a thread, if any.
func (c *Controller) Pending(threadID string) (*PendingRequest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	req, ok := c.pending[threadID]
	return req, ok
}

// Error returns the last recorded error for a thread, or "".
func (c *Controller) Error(threadID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errors[threadID]
}

// ClearError discards the recorded error for a thread.
func (c *Controller) ClearError(threadID string) {
	c.mu.Lock()
	delete(c.errors, threadID)
	c.mu.Unlock()
}

// Forget drops all per-thread state for a deleted thread.
func (c *Controller) Forget(threadID string) {
	c.mu.Lock()
	delete(c.pending, threadID)
	delete(c.errors, threadID)
	c.mu.Unlock()
}

func (c *Controller) clearPending(threadID string) {
	c.mu.Lock()
	delete(c.pending, threadID)
	c.mu.Unlock()
}

// historyOf converts a thread's stored messages to wire form, in order.
func historyOf(th *model.Thread) []gateway.ChatMessage {
	history := make([]gateway.ChatMessage, 0, len(th.Messages))
	for _, msg := range th.Messages {
		history = append(history, gateway.ChatMessage{
			Role:    msg.Role.String(),
			Content: msg.Content,
		})
	}
	return history
}
