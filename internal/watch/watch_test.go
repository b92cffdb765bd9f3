package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/kanban/internal/logbook"
)

type recorder struct {
	calls   int
	filters Filters
	detail  bool
}

func (r *recorder) render(f Filters, detail bool) (string, error) {
	r.calls++
	r.filters = f
	r.detail = detail
	return "BOARD", nil
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m *Model, msgs ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = m.Update(msg)
	}
	return cmd
}

func TestDetailToggleRerenders(t *testing.T) {
	r := &recorder{}
	m := NewModel(r.render, nil, true, Filters{}, false)
	send(m, runes("?"))
	if !m.Detail() || !r.detail {
		t.Fatalf("detail = %v (rendered %v), want true", m.Detail(), r.detail)
	}
	send(m, runes("?"))
	if m.Detail() {
		t.Fatalf("second ? should turn detail off")
	}
	if r.calls != 3 {
		t.Fatalf("render calls = %d, want 3", r.calls)
	}
}

func TestSessionPromptLiveUpdatesAndKeeps(t *testing.T) {
	r := &recorder{}
	m := NewModel(r.render, nil, true, Filters{}, false)
	send(m, runes("/"), runes("a"), runes("l"), runes("x"))
	if r.filters.Session != "alx" {
		t.Fatalf("live filter = %q, want alx", r.filters.Session)
	}
	send(m, tea.KeyMsg{Type: tea.KeyBackspace}, tea.KeyMsg{Type: tea.KeyEnter})
	if got := m.Filters().Session; got != "al" {
		t.Fatalf("session filter = %q, want al", got)
	}
	if m.mode != modeNormal {
		t.Fatalf("enter should leave the prompt")
	}
	// Back in normal mode, q quits instead of typing.
	if cmd := send(m, runes("q")); cmd == nil {
		t.Fatalf("q should quit")
	} else if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("q returned %T, want QuitMsg", cmd())
	}
}

func TestCardPromptEscClears(t *testing.T) {
	r := &recorder{}
	m := NewModel(r.render, nil, true, Filters{Card: "9"}, false)
	send(m, runes("#"))
	if !strings.Contains(m.View(), "Card filter: #") {
		t.Fatalf("prompt not shown:\n%s", m.View())
	}
	send(m, runes("1"), runes("x"))
	if got := m.Filters().Card; got != "91" {
		t.Fatalf("card filter = %q, want 91 (letters ignored)", got)
	}
	send(m, runes("q"))
	if m.mode != modeCard {
		t.Fatalf("q inside the prompt should not quit or close it")
	}
	send(m, tea.KeyMsg{Type: tea.KeyEsc})
	if got := m.Filters().Card; got != "" {
		t.Fatalf("esc left filter %q", got)
	}
	if r.filters.Card != "" {
		t.Fatalf("board not re-rendered after clearing")
	}
}

func TestViewShowsHintsAndFilters(t *testing.T) {
	m := NewModel((&recorder{}).render, nil, true, Filters{Session: "bob"}, false)
	view := m.View()
	for _, want := range []string{"BOARD", "Filter: session=bob", "[?]detail [/]session [#]card [q]quit"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
	passive := NewModel((&recorder{}).render, nil, false, Filters{}, false)
	if !strings.Contains(passive.View(), "(Ctrl+C to exit)") {
		t.Fatalf("non-interactive view missing exit hint")
	}
}

func TestDetailShowsLogTail(t *testing.T) {
	book, err := logbook.New(filepath.Join(t.TempDir(), "kanban.log"))
	if err != nil {
		t.Fatalf("logbook: %v", err)
	}
	book.Info("create #1 in todo")
	m := NewModel((&recorder{}).render, book, true, Filters{}, true)
	if view := m.View(); !strings.Contains(view, "create #1 in todo") {
		t.Fatalf("detail view missing log tail:\n%s", view)
	}
}

func TestRefreshMessageRerenders(t *testing.T) {
	r := &recorder{}
	m := NewModel(r.render, nil, false, Filters{}, false)
	send(m, refreshMsg{}, refreshMsg{})
	if r.calls != 3 {
		t.Fatalf("render calls = %d, want 3", r.calls)
	}
}

func TestWatcherFailureShowsInView(t *testing.T) {
	failure := errors.New("watch: queue overflow")
	m := NewModel((&recorder{}).render, nil, true, Filters{}, false)
	if cmd := send(m, stoppedMsg{err: failure}); cmd != nil {
		t.Fatalf("interactive view should stay open")
	}
	send(m, refreshMsg{})
	view := m.View()
	if !strings.Contains(view, "Watcher stopped: watch: queue overflow") || !strings.Contains(view, "BOARD") {
		t.Fatalf("view missing watcher failure:\n%s", view)
	}

	passive := NewModel((&recorder{}).render, nil, false, Filters{}, false)
	cmd := send(passive, stoppedMsg{err: failure})
	if cmd == nil {
		t.Fatalf("non-interactive view should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("cmd = %T, want tea.QuitMsg", cmd())
	}
}

func TestCoalesceDebouncesBursts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	in := make(chan struct{})
	var fired atomic.Int32
	done := make(chan struct{})
	go func() {
		coalesce(ctx, in, 30*time.Millisecond, func() { fired.Add(1) })
		close(done)
	}()
	for i := 0; i < 5; i++ {
		in <- struct{}{}
	}
	time.Sleep(150 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Fatalf("notifications = %d, want 1", got)
	}
	cancel()
	<-done
}

func TestWatcherSignalsCardChanges(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"todo", "logs"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	w, err := NewWatcher(root, "logs")
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	w.window = 10 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notified := make(chan struct{}, 8)
	go w.Run(ctx, func() { notified <- struct{}{} })

	if err := os.WriteFile(filepath.Join(root, "logs", "kanban.log"), []byte("x\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	select {
	case <-notified:
		t.Fatalf("log write triggered a refresh")
	case <-time.After(100 * time.Millisecond):
	}

	if err := os.WriteFile(filepath.Join(root, "todo", "1.json"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write card: %v", err)
	}
	select {
	case <-notified:
	case <-time.After(2 * time.Second):
		t.Fatalf("no refresh after card write")
	}
}
