// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/loom-tui/internal/config"
	"github.com/jeranaias/loom-tui/internal/model"
	"github.com/jeranaias/loom-tui/internal/search"
	"github.com/jeranaias/loom-tui/internal/session"
	"github.com/jeranaias/loom-tui/internal/thread"
	"github.com/jeranaias/loom-tui/internal/ui/styles"
	"github.com/jeranaias/loom-tui/internal/util"
)

// mode is the active view state. modeChat is the base; every other mode
// is a modal overlay that returns to modeChat.
type mode int

const (
	modeChat mode = iota
	modeThreads
	modeSearch
	modeModelPicker
	modeConfirmDelete
	modeDiagnostics
	modeHelp
)

// Model is the Bubble Tea model for the loom interface.
type Model struct {
	theme *styles.Theme
	cfg   *config.Config
	repo  *thread.Repository
	ctrl  *session.Controller

	mode   mode
	width  int
	height int
	ready  bool

	viewport    viewport.Model
	input       textinput.Model
	searchInput textinput.Model
	spinner     spinner.Model
	keyMap      KeyMap

	// activeThreadID is "" when composing a thread that does not exist
	// yet; the first send creates it.
	activeThreadID string

	threadCursor int
	modelCursor  int

	// searchResults is nil when no search is active, and empty (not
	// nil) when a search matched nothing.
	searchResults []search.Result
	searchCursor  int

	status    string
	statusSeq int

	renderer *glamour.TermRenderer
}

// New creates the chat model.
func New(theme *styles.Theme, cfg *config.Config, repo *thread.Repository, ctrl *session.Controller) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 4096
	ti.Focus()

	si := textinput.New()
	si.Prompt = "Search: "
	si.Placeholder = "Type to search..."
	si.CharLimit = 256

	vp := viewport.New(80, 20)
	vp.SetContent("")

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}

	m := Model{
		theme:       theme,
		cfg:         cfg,
		repo:        repo,
		ctrl:        ctrl,
		viewport:    vp,
		input:       ti,
		searchInput: si,
		spinner:     sp,
		keyMap:      DefaultKeyMap(),
	}

	// Open on the most recently created thread, if any.
	if threads := repo.List(); len(threads) > 0 {
		m.activeThreadID = threads[0].ID
	}
	m.initRenderer(80)
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// initRenderer builds the markdown renderer for the given wrap width.
// A renderer failure falls back to plain text.
func (m *Model) initRenderer(width int) {
	if !m.cfg.UI.Markdown {
		m.renderer = nil
		return
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		m.renderer = nil
		return
	}
	m.renderer = r
}

// activeThread returns the selected thread, or nil while composing a
// thread that has not been created yet.
func (m Model) activeThread() *model.Thread {
	if m.activeThreadID == "" {
		return nil
	}
	th, err := m.repo.Get(m.activeThreadID)
	if err != nil {
		return nil
	}
	return th
}

// refreshViewport re-renders the active thread into the viewport and
// keeps the view pinned to the latest message.
func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderThread(m.activeThread()))
	m.viewport.GotoBottom()
}

// setStatus shows a transient note in the status bar.
func (m *Model) setStatus(s string) tea.Cmd {
	m.status = s
	m.statusSeq++
	seq := m.statusSeq
	return tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return statusExpiredMsg{seq: seq}
	})
}

// exportThread writes the thread as markdown under ~/.loom/exports.
func (m Model) exportThread(threadID string) (string, error) {
	content, err := m.repo.Export(threadID, "markdown")
	if err != nil {
		return "", err
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(home, ".loom", "exports",
		fmt.Sprintf("%s-%s.md", threadID, time.Now().Format("20060102-150405")))
	if err := util.AtomicWriteFile(path, []byte(content), 0600); err != nil {
		return "", err
	}
	return path, nil
}
