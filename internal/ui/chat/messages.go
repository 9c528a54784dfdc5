// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// MESSAGES
// =============================================================================

// completionResolvedMsg reports that a pending request finished, in
// success or failure. The outcome is already recorded in the controller
// and repository; the UI only needs to redraw.
type completionResolvedMsg struct {
	threadID string
}

// documentChangedMsg reports that another process wrote the thread
// document.
type documentChangedMsg struct{}

// DocumentChanged builds the message the store watcher sends into the
// program when the thread document changes on disk.
func DocumentChanged() tea.Msg {
	return documentChangedMsg{}
}

// exportDoneMsg reports the outcome of a thread export.
type exportDoneMsg struct {
	path string
	err  error
}

// statusExpiredMsg clears a transient status bar note.
type statusExpiredMsg struct {
	seq int
}

// =============================================================================
// COMMANDS
// =============================================================================

// resolveCmd runs the completion for a thread and reports back.
func (m Model) resolveCmd(threadID string) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctrl.Resolve(context.Background(), threadID)
		return completionResolvedMsg{threadID: threadID}
	}
}

// exportCmd writes the thread to the exports directory.
func (m Model) exportCmd(threadID string) tea.Cmd {
	return func() tea.Msg {
		path, err := m.exportThread(threadID)
		return exportDoneMsg{path: path, err: err}
	}
}
