// Package watch is the live board view: a filesystem watcher feeds refreshes
// into a bubbletea program that owns the terminal and the filter prompt.
package watch

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/kanban/internal/logbook"
)

// Filters narrow the live view.
type Filters struct {
	Session string
	Card    string
}

// RenderFunc produces one frame of board output.
type RenderFunc func(f Filters, detail bool) (string, error)

type inputMode int

const (
	modeNormal inputMode = iota
	modeSession
	modeCard
)

type refreshMsg struct{}

// stoppedMsg reports that the file watcher gave up; no further refreshes come.
type stoppedMsg struct{ err error }

type keyMap struct {
	Detail  key.Binding
	Session key.Binding
	Card    key.Binding
	Quit    key.Binding
	Cancel  key.Binding
	Accept  key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Detail:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "detail")),
		Session: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "session")),
		Card:    key.NewBinding(key.WithKeys("#"), key.WithHelp("#", "card")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Cancel:  key.NewBinding(key.WithKeys("esc")),
		Accept:  key.NewBinding(key.WithKeys("enter")),
	}
}

// Model is the live view state. Filters are written only by key handling.
type Model struct {
	render      RenderFunc
	book        *logbook.Logbook
	keys        keyMap
	input       textinput.Model
	mode        inputMode
	filters     Filters
	detail      bool
	interactive bool
	content     string
	err         error
	stopped     error
	width       int

	dim    lipgloss.Style
	accent lipgloss.Style
	panel  lipgloss.Style
}

// NewModel builds a model. book may be nil; in detail mode its tail is shown
// under the board.
func NewModel(render RenderFunc, book *logbook.Logbook, interactive bool, initial Filters, detail bool) *Model {
	in := textinput.New()
	in.Prompt = ""
	in.CharLimit = 64
	m := &Model{
		render:      render,
		book:        book,
		keys:        defaultKeys(),
		input:       in,
		filters:     initial,
		detail:      detail,
		interactive: interactive,
		dim:         lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		accent:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1),
	}
	m.refresh()
	return m
}

// Filters returns the active filters.
func (m *Model) Filters() Filters {
	return m.filters
}

// Detail reports whether the full-detail style is on.
func (m *Model) Detail() bool {
	return m.detail
}

func (m *Model) refresh() {
	m.content, m.err = m.render(m.filters, m.detail)
}

// Init is a no-op; the first frame is rendered in NewModel.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles refreshes, resizes and keys.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshMsg:
		m.refresh()
		return m, nil
	case stoppedMsg:
		m.stopped = msg.err
		if !m.interactive {
			return m, tea.Quit
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if m.mode != modeNormal {
			return m.updatePrompt(msg)
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Detail):
			m.detail = !m.detail
			m.refresh()
		case key.Matches(msg, m.keys.Session):
			m.openPrompt(modeSession, m.filters.Session)
			return m, textinput.Blink
		case key.Matches(msg, m.keys.Card):
			m.openPrompt(modeCard, m.filters.Card)
			return m, textinput.Blink
		}
	}
	return m, nil
}

func (m *Model) openPrompt(mode inputMode, value string) {
	m.mode = mode
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *Model) closePrompt() {
	m.mode = modeNormal
	m.input.Blur()
}

// updatePrompt edits the active filter live. Enter keeps it; esc clears it.
func (m *Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.Accept):
		m.closePrompt()
		return m, nil
	case key.Matches(msg, m.keys.Cancel):
		m.setFilter("")
		m.closePrompt()
		m.refresh()
		return m, nil
	}
	if m.mode == modeCard && msg.Type == tea.KeyRunes {
		for _, r := range msg.Runes {
			if r < '0' || r > '9' {
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.setFilter(strings.TrimSpace(m.input.Value()))
	m.refresh()
	return m, cmd
}

func (m *Model) setFilter(value string) {
	switch m.mode {
	case modeSession:
		m.filters.Session = value
	case modeCard:
		m.filters.Card = value
	}
}

// View renders the board frame, the prompt or filter line and the key hints.
func (m *Model) View() string {
	var b strings.Builder
	if m.err != nil {
		b.WriteString(fmt.Sprintf("Error: %v\n", m.err))
	} else {
		b.WriteString(m.content)
	}
	if m.stopped != nil {
		b.WriteString(fmt.Sprintf("\nWatcher stopped: %v (press q to quit)\n", m.stopped))
	}
	if m.detail {
		if panel := m.renderLogPanel(); panel != "" {
			b.WriteString("\n" + panel + "\n")
		}
	}
	b.WriteString("\n")
	switch m.mode {
	case modeSession:
		b.WriteString(m.accent.Render("Session filter: ") + m.input.View() + "\n")
	case modeCard:
		b.WriteString(m.accent.Render("Card filter: #") + m.input.View() + "\n")
	default:
		if line := m.filterLine(); line != "" {
			b.WriteString(m.dim.Render(line) + "\n")
		}
	}
	if m.interactive {
		b.WriteString(m.dim.Render("[?]detail [/]session [#]card [q]quit"))
	} else {
		b.WriteString(m.dim.Render("(Ctrl+C to exit)"))
	}
	return b.String()
}

func (m *Model) filterLine() string {
	var parts []string
	if m.filters.Session != "" {
		parts = append(parts, "session="+m.filters.Session)
	}
	if m.filters.Card != "" {
		parts = append(parts, "card=#"+m.filters.Card)
	}
	if len(parts) == 0 {
		return ""
	}
	return "Filter: " + strings.Join(parts, " ")
}

func (m *Model) renderLogPanel() string {
	if m.book == nil {
		return ""
	}
	lines, total := m.book.Tail(6)
	if len(lines) == 0 {
		return ""
	}
	head := m.accent.Render(fmt.Sprintf("LOG · %s (%d lines)", filepath.Base(m.book.Path()), total))
	return m.panel.Render(head + "\n" + m.dim.Render(strings.Join(lines, "\n")))
}
