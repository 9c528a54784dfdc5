// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/loom-tui/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role identifies the author of a message. Only RoleUser and RoleAssistant
// are ever persisted; RoleSystem appears solely in the outbound request
// envelope built by the gateway.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the wire representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable label for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// Storable reports whether messages with this role belong in the thread
// document. System entries are transport-only.
func (r Role) Storable() bool {
	return r == RoleUser || r == RoleAssistant
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single turn in a thread. ID, Role, Content, and Timestamp are
// immutable once the message has been appended.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Model     string    `json:"model,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	// Assistant-only fields, passed through from the completion endpoint.
	// Usage is opaque token accounting; its shape is not interpreted here.
	Usage     json.RawMessage `json:"usage,omitempty"`
	TimeTaken float64         `json:"time_taken,omitempty"`
}

// NewMessage creates a message with a generated ID and the current time.
func NewMessage(role Role, content, modelID string) *Message {
	return &Message{
		ID:        "msg_" + uuid.NewString(),
		Role:      role,
		Content:   content,
		Model:     modelID,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a user message.
func NewUserMessage(content, modelID string) *Message {
	return NewMessage(RoleUser, content, modelID)
}

// NewAssistantMessage creates an assistant message carrying the endpoint's
// usage accounting and elapsed time.
func NewAssistantMessage(content, modelID string, usage json.RawMessage, timeTaken float64) *Message {
	msg := NewMessage(RoleAssistant, content, modelID)
	msg.Usage = usage
	msg.TimeTaken = timeTaken
	return msg
}

// Preview returns the content clipped to maxRunes runes with an ellipsis
// marker when shortened.
func (m *Message) Preview(maxRunes int) string {
	return util.TruncateRunes(m.Content, maxRunes)
}

// IsEmpty reports whether the message has no content.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0
}
