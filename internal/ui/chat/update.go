// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/loom-tui/internal/search"
	"github.com/jeranaias/loom-tui/internal/session"
)

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		if key.Matches(msg, m.keyMap.Quit) {
			return m, tea.Quit
		}
		switch m.mode {
		case modeChat:
			return m.updateChat(msg)
		case modeThreads:
			return m.updateThreads(msg)
		case modeSearch:
			return m.updateSearch(msg)
		case modeModelPicker:
			return m.updateModelPicker(msg)
		case modeConfirmDelete:
			return m.updateConfirmDelete(msg)
		case modeDiagnostics, modeHelp:
			// Any key closes these overlays.
			m.mode = modeChat
			return m, nil
		}

	case completionResolvedMsg:
		if msg.threadID == m.activeThreadID {
			m.refreshViewport()
		}
		return m, nil

	case documentChangedMsg:
		m.repo.Reload()
		if m.activeThreadID != "" && m.activeThread() == nil {
			m.activeThreadID = ""
		}
		m.refreshViewport()
		return m, nil

	case exportDoneMsg:
		if msg.err != nil {
			return m, m.setStatus("Export failed: " + msg.err.Error())
		}
		return m, m.setStatus("Exported to " + msg.path)

	case statusExpiredMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleResize adjusts all components to the new terminal size.
func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	headerHeight := 1
	inputHeight := 3
	statusHeight := 1
	m.viewport.Width = msg.Width
	m.viewport.Height = msg.Height - headerHeight - inputHeight - statusHeight
	if m.viewport.Height < 1 {
		m.viewport.Height = 1
	}

	m.input.Width = msg.Width - 6
	m.searchInput.Width = msg.Width - 12

	wrap := msg.Width - 4
	if wrap > 100 {
		wrap = 100
	}
	if wrap < 20 {
		wrap = 20
	}
	m.initRenderer(wrap)

	m.ready = true
	m.refreshViewport()
	return m, nil
}

// =============================================================================
// CHAT MODE
// =============================================================================

func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	km := m.keyMap
	switch {
	case key.Matches(msg, km.Submit):
		return m.submit()

	case key.Matches(msg, km.NewThread):
		m.activeThreadID = ""
		m.refreshViewport()
		return m, nil

	case key.Matches(msg, km.Threads):
		m.mode = modeThreads
		m.threadCursor = m.activeThreadIndex()
		return m, nil

	case key.Matches(msg, km.Search):
		m.mode = modeSearch
		m.searchInput.SetValue("")
		m.searchInput.Focus()
		m.searchResults = nil
		m.searchCursor = 0
		return m, textinput.Blink

	case key.Matches(msg, km.Delete):
		if m.activeThreadID != "" {
			m.mode = modeConfirmDelete
		}
		return m, nil

	case key.Matches(msg, km.Model):
		m.mode = modeModelPicker
		m.modelCursor = m.currentModelIndex()
		return m, nil

	case key.Matches(msg, km.Diagnostics):
		if _, ok := m.ctrl.Pending(m.activeThreadID); ok {
			m.mode = modeDiagnostics
		}
		return m, nil

	case key.Matches(msg, km.Export):
		if m.activeThreadID != "" {
			return m, m.exportCmd(m.activeThreadID)
		}
		return m, nil

	case key.Matches(msg, km.Help):
		m.mode = modeHelp
		return m, nil

	case key.Matches(msg, km.Dismiss):
		if m.activeThreadID != "" {
			m.ctrl.ClearError(m.activeThreadID)
		}
		return m, nil

	case key.Matches(msg, km.Up), key.Matches(msg, km.Down),
		key.Matches(msg, km.PageUp), key.Matches(msg, km.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit starts a send for the active thread.
func (m Model) submit() (tea.Model, tea.Cmd) {
	content := m.input.Value()

	th, err := m.ctrl.Begin(m.activeThreadID, content)
	switch {
	case errors.Is(err, session.ErrBlankMessage):
		return m, nil
	case errors.Is(err, session.ErrRequestPending):
		return m, m.setStatus("A request is already in flight for this thread")
	case err != nil:
		return m, m.setStatus("Send failed: " + err.Error())
	}

	m.activeThreadID = th.ID
	m.input.Reset()
	m.refreshViewport()
	return m, tea.Batch(m.resolveCmd(th.ID), m.spinner.Tick)
}

// =============================================================================
// THREAD SWITCHER
// =============================================================================

func (m Model) updateThreads(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	threads := m.repo.List()
	switch msg.String() {
	case "up":
		if m.threadCursor > 0 {
			m.threadCursor--
		}
	case "down":
		if m.threadCursor < len(threads)-1 {
			m.threadCursor++
		}
	case "enter":
		if m.threadCursor >= 0 && m.threadCursor < len(threads) {
			m.activeThreadID = threads[m.threadCursor].ID
		}
		m.mode = modeChat
		m.refreshViewport()
	case "esc":
		m.mode = modeChat
	}
	return m, nil
}

// activeThreadIndex returns the list index of the active thread, or 0.
func (m Model) activeThreadIndex() int {
	for i, th := range m.repo.List() {
		if th.ID == m.activeThreadID {
			return i
		}
	}
	return 0
}

// =============================================================================
// SEARCH MODE
// =============================================================================

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeChat
		m.searchInput.Blur()
		m.searchResults = nil
		return m, nil
	case "up":
		if m.searchCursor > 0 {
			m.searchCursor--
		}
		return m, nil
	case "down":
		if m.searchCursor < len(m.searchResults)-1 {
			m.searchCursor++
		}
		return m, nil
	case "enter":
		if m.searchCursor >= 0 && m.searchCursor < len(m.searchResults) {
			m.activeThreadID = m.searchResults[m.searchCursor].ThreadID
			m.mode = modeChat
			m.searchInput.Blur()
			m.searchResults = nil
			m.refreshViewport()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.searchResults = search.Run(m.repo.List(), m.searchInput.Value())
	m.searchCursor = 0
	return m, cmd
}

// =============================================================================
// MODEL PICKER
// =============================================================================

func (m Model) updateModelPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up":
		if m.modelCursor > 0 {
			m.modelCursor--
		}
	case "down":
		if m.modelCursor < len(m.cfg.Models)-1 {
			m.modelCursor++
		}
	case "enter":
		if m.modelCursor >= 0 && m.modelCursor < len(m.cfg.Models) {
			picked := m.cfg.Models[m.modelCursor]
			m.ctrl.SetModel(picked)
			m.cfg.DefaultModel = picked
		}
		m.mode = modeChat
		return m, m.setStatus(fmt.Sprintf("Model set to %s", m.ctrl.Model()))
	case "esc":
		m.mode = modeChat
	}
	return m, nil
}

// currentModelIndex returns the picker index of the current model, or 0.
func (m Model) currentModelIndex() int {
	for i, name := range m.cfg.Models {
		if name == m.ctrl.Model() {
			return i
		}
	}
	return 0
}

// =============================================================================
// DELETE CONFIRMATION
// =============================================================================

func (m Model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		deleted := m.activeThreadID
		remaining := m.repo.Delete(deleted)
		m.ctrl.Forget(deleted)
		if len(remaining) > 0 {
			m.activeThreadID = remaining[0].ID
		} else {
			m.activeThreadID = ""
		}
		m.mode = modeChat
		m.refreshViewport()
	case "n", "esc":
		m.mode = modeChat
	}
	return m, nil
}
