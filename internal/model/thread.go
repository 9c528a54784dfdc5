// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/loom-tui/internal/util"
)

// DefaultTitle is the placeholder title a thread carries until its first
// user message supplies one.
const DefaultTitle = "New Chat"

// TitleRunes is the maximum title length derived from a message; longer
// content is clipped and marked with an ellipsis.
const TitleRunes = 50

// =============================================================================
// THREAD TYPE
// =============================================================================

// Thread is one persisted conversation. Messages are append-only and their
// order is chronological; it is never rearranged.
type Thread struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Messages  []*Message `json:"messages"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// NewThread creates an empty thread with a generated ID, the given title
// (DefaultTitle when blank), and current timestamps.
func NewThread(title string) *Thread {
	if title == "" {
		title = DefaultTitle
	}
	now := time.Now()
	return &Thread{
		ID:        "thr_" + uuid.NewString(),
		Title:     title,
		Messages:  make([]*Message, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// =============================================================================
// MESSAGE ACCESS
// =============================================================================

// Append adds a message to the end of the thread and refreshes UpdatedAt.
func (t *Thread) Append(msg *Message) {
	t.Messages = append(t.Messages, msg)
	t.UpdatedAt = time.Now()
}

// MessageCount returns the number of messages in the thread.
func (t *Thread) MessageCount() int {
	return len(t.Messages)
}

// IsEmpty reports whether the thread holds no messages.
func (t *Thread) IsEmpty() bool {
	return len(t.Messages) == 0
}

// LastMessage returns the most recent message, or nil for an empty thread.
func (t *Thread) LastMessage() *Message {
	if len(t.Messages) == 0 {
		return nil
	}
	return t.Messages[len(t.Messages)-1]
}

// MessageByID returns the message with the given id, or nil.
func (t *Thread) MessageByID(id string) *Message {
	for _, msg := range t.Messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

// =============================================================================
// TITLE
// =============================================================================

// TitleFromContent derives a thread title from message content: the first
// TitleRunes runes, with an ellipsis marker appended only when the content
// was actually clipped.
func TitleFromContent(content string) string {
	clipped, wasClipped := util.ClipRunes(content, TitleRunes)
	if wasClipped {
		return clipped + util.Ellipsis
	}
	return clipped
}

// =============================================================================
// CLONING
// =============================================================================

// Clone returns a deep copy of the thread. The repository hands clones to
// callers so a returned snapshot cannot mutate stored state.
func (t *Thread) Clone() *Thread {
	clone := &Thread{
		ID:        t.ID,
		Title:     t.Title,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
		Messages:  make([]*Message, len(t.Messages)),
	}
	for i, msg := range t.Messages {
		msgCopy := *msg
		clone.Messages[i] = &msgCopy
	}
	return clone
}

// =============================================================================
// EXPORT
// =============================================================================

// ExportMarkdown renders the thread as a Markdown transcript.
func (t *Thread) ExportMarkdown() string {
	var sb strings.Builder
	sb.WriteString("# " + t.Title + "\n\n")
	sb.WriteString("Created: " + t.CreatedAt.Format(time.RFC3339) + "\n\n")
	sb.WriteString("---\n\n")

	for _, msg := range t.Messages {
		sb.WriteString("**" + msg.Role.DisplayName() + "** (" + msg.Timestamp.Format("15:04") + "):\n\n")
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n---\n\n")
	}

	return sb.String()
}

// ExportJSON renders the thread as pretty-printed JSON.
func (t *Thread) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}
