// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/loom-tui/internal/model"
	"github.com/jeranaias/loom-tui/internal/util"
)

// View renders the interface.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	switch m.mode {
	case modeThreads:
		return m.viewOverlay(m.renderThreadList())
	case modeSearch:
		return m.viewOverlay(m.renderSearch())
	case modeModelPicker:
		return m.viewOverlay(m.renderModelPicker())
	case modeConfirmDelete:
		return m.viewOverlay(m.renderConfirmDelete())
	case modeDiagnostics:
		return m.viewOverlay(m.renderDiagnostics())
	case modeHelp:
		return m.viewOverlay(m.renderHelp())
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderInputArea())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

// viewOverlay centers an overlay box in the window.
func (m Model) viewOverlay(content string) string {
	box := m.theme.OverlayBox.Render(content)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// =============================================================================
// CHROME
// =============================================================================

// renderHeader shows the active thread title and collection size.
func (m Model) renderHeader() string {
	title := model.DefaultTitle
	if th := m.activeThread(); th != nil {
		title = th.Title
	}

	left := m.theme.Title.Render("loom") + "  " + util.TruncateRunes(title, 60)
	right := fmt.Sprintf("%d threads", m.repo.Count())

	pad := m.width - runewidth.StringWidth(left) - runewidth.StringWidth(right) - 2
	if pad < 1 {
		pad = 1
	}
	return m.theme.Header.Width(m.width).Render(left + strings.Repeat(" ", pad) + right)
}

// renderInputArea shows the error banner or pending line above the input.
func (m Model) renderInputArea() string {
	var b strings.Builder

	if errText := m.ctrl.Error(m.activeThreadID); m.activeThreadID != "" && errText != "" {
		b.WriteString(m.theme.ErrorBanner.Width(m.width).Render("Error: " + errText + "  (Esc to dismiss)"))
		b.WriteString("\n")
	} else if req, ok := m.ctrl.Pending(m.activeThreadID); m.activeThreadID != "" && ok {
		elapsed := time.Since(req.StartedAt).Round(time.Second)
		b.WriteString(m.theme.Spinner.Render(m.spinner.View()) + " " +
			m.theme.ThinkingText.Render(fmt.Sprintf("Waiting for %s (%s)", req.Model, elapsed)))
		b.WriteString("\n")
	} else {
		b.WriteString("\n")
	}

	b.WriteString(m.theme.InputContainer.Width(m.width).Render(m.input.View()))
	return b.String()
}

// renderStatusBar shows the model, a transient status note, and shortcuts.
func (m Model) renderStatusBar() string {
	if m.status != "" {
		return m.theme.StatusBar.Width(m.width).Render(m.status)
	}

	parts := []string{m.theme.StatusModel.Render(m.ctrl.Model())}
	for _, b := range m.keyMap.ShortHelp() {
		h := b.Help()
		parts = append(parts, m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
	}
	return m.theme.StatusBar.Width(m.width).Render(strings.Join(parts, "  "))
}

// =============================================================================
// THREAD RENDERING
// =============================================================================

// renderThread renders a whole thread for the viewport. A nil thread is
// the blank new-chat state.
func (m Model) renderThread(th *model.Thread) string {
	if th == nil || th.IsEmpty() {
		return m.theme.SearchEmpty.Render("\n  No messages yet. Type below to start the conversation.")
	}

	var b strings.Builder
	for i, msg := range th.Messages {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}
	return b.String()
}

// renderMessage renders one message with its label and metadata.
func (m Model) renderMessage(msg *model.Message) string {
	var label, body string

	switch msg.Role {
	case model.RoleUser:
		label = m.theme.UserLabel.Render(msg.Role.DisplayName())
		body = m.theme.UserBody.Render(msg.Content)
	case model.RoleAssistant:
		label = m.theme.AssistantLabel.Render(msg.Role.DisplayName())
		body = m.theme.AssistantBody.Render(m.renderMarkdown(msg.Content))
		if meta := m.renderMeta(msg); meta != "" {
			body += "\n" + m.theme.MessageMeta.Render(meta)
		}
	default:
		label = msg.Role.DisplayName()
		body = msg.Content
	}

	return label + "\n" + body
}

// renderMarkdown renders assistant content through glamour, falling back
// to the raw text when the renderer is unavailable.
func (m Model) renderMarkdown(content string) string {
	if m.renderer == nil {
		return content
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}

// renderMeta formats the model and timing line under a reply.
func (m Model) renderMeta(msg *model.Message) string {
	parts := []string{}
	if msg.Model != "" {
		parts = append(parts, msg.Model)
	}
	if msg.TimeTaken > 0 {
		parts = append(parts, util.FloatToString(msg.TimeTaken)+"s")
	}
	return strings.Join(parts, " · ")
}

// =============================================================================
// OVERLAYS
// =============================================================================

// renderThreadList renders the thread switcher.
func (m Model) renderThreadList() string {
	threads := m.repo.List()
	if len(threads) == 0 {
		return "No threads yet.\n\nPress Esc to go back."
	}

	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Threads"))
	b.WriteString("\n\n")
	for i, th := range threads {
		line := fmt.Sprintf("%s  %s",
			util.TruncateRunes(th.Title, 40),
			m.theme.ListMeta.Render(fmt.Sprintf("%d messages", th.MessageCount())))
		if m.ctrl.IsPending(th.ID) {
			line += " " + m.theme.Spinner.Render(m.spinner.View())
		}
		if i == m.threadCursor {
			b.WriteString(m.theme.ListSelected.Render("> " + line))
		} else {
			b.WriteString(m.theme.ListItem.Render("  " + line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.theme.ShortcutDesc.Render("Enter select · Esc close"))
	return b.String()
}

// renderSearch renders the search overlay with live results.
func (m Model) renderSearch() string {
	var b strings.Builder
	b.WriteString(m.theme.SearchPrompt.Render("Search messages"))
	b.WriteString("\n\n")
	b.WriteString(m.searchInput.View())
	b.WriteString("\n\n")

	switch {
	case m.searchResults == nil:
		b.WriteString(m.theme.SearchEmpty.Render("Type to search across all threads."))
	case len(m.searchResults) == 0:
		b.WriteString(m.theme.SearchEmpty.Render("No results."))
	default:
		max := len(m.searchResults)
		if max > 10 {
			max = 10
		}
		for i := 0; i < max; i++ {
			r := m.searchResults[i]
			line := fmt.Sprintf("%s %s  %s",
				m.theme.ListMeta.Render("["+util.TruncateRunes(r.ThreadTitle, 24)+"]"),
				r.Role.DisplayName()+":",
				m.theme.SearchPreview.Render(r.Preview))
			if i == m.searchCursor {
				b.WriteString(m.theme.ListSelected.Render("> " + line))
			} else {
				b.WriteString(m.theme.ListItem.Render("  " + line))
			}
			b.WriteString("\n")
		}
		if len(m.searchResults) > max {
			b.WriteString(m.theme.ListMeta.Render(fmt.Sprintf("  ... and %d more", len(m.searchResults)-max)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.theme.ShortcutDesc.Render("Enter open thread · Esc close"))
	return b.String()
}

// renderModelPicker renders the model selection overlay.
func (m Model) renderModelPicker() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Model"))
	b.WriteString("\n\n")
	for i, name := range m.cfg.Models {
		marker := "  "
		if name == m.ctrl.Model() {
			marker = "* "
		}
		if i == m.modelCursor {
			b.WriteString(m.theme.ListSelected.Render("> " + marker + name))
		} else {
			b.WriteString(m.theme.ListItem.Render("  " + marker + name))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.theme.ShortcutDesc.Render("Enter select · Esc close"))
	return b.String()
}

// renderConfirmDelete renders the delete confirmation.
func (m Model) renderConfirmDelete() string {
	title := ""
	if th := m.activeThread(); th != nil {
		title = th.Title
	}
	return fmt.Sprintf("Delete thread %q?\n\nThis cannot be undone.\n\n%s",
		util.TruncateRunes(title, 50),
		m.theme.ShortcutDesc.Render("y delete · n cancel"))
}

// renderDiagnostics renders the in-flight request details.
func (m Model) renderDiagnostics() string {
	req, ok := m.ctrl.Pending(m.activeThreadID)
	if !ok {
		return "No request in flight.\n\nPress any key to close."
	}

	payload := string(req.Payload)
	if util.RuneLen(payload) > 2000 {
		payload = util.TruncateRunes(payload, 2000)
	}

	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Request in flight"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Model:    %s\n", req.Model))
	b.WriteString(fmt.Sprintf("Messages: %s\n", util.IntToString(req.ContextSize)))
	b.WriteString(fmt.Sprintf("Elapsed:  %s\n", time.Since(req.StartedAt).Round(time.Second)))
	b.WriteString("\nPayload:\n")
	b.WriteString(m.theme.SearchPreview.Render(payload))
	b.WriteString("\n\n")
	b.WriteString(m.theme.ShortcutDesc.Render("Press any key to close"))
	return b.String()
}

// renderHelp renders the keybinding reference.
func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Keys"))
	b.WriteString("\n\n")
	for _, group := range m.keyMap.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("%s  %s\n",
				m.theme.ShortcutKey.Render(runewidth.FillRight(h.Key, 8)),
				m.theme.ShortcutDesc.Render(h.Desc)))
		}
		b.WriteString("\n")
	}
	b.WriteString(m.theme.ShortcutDesc.Render("Press any key to close"))
	return b.String()
}
