package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/kanban/internal/logbook"
)

// Logger is the console side of board logging. Notices go to the terminal
// (usually stderr) and are mirrored into the board logbook so they survive
// the session that printed them.
type Logger struct {
	out  io.Writer
	book *logbook.Logbook
	warn lipgloss.Style
	note lipgloss.Style
}

// New writes to out and mirrors into book. Either may be nil.
func New(out io.Writer, book *logbook.Logbook) *Logger {
	if out == nil {
		out = io.Discard
	}
	r := lipgloss.NewRenderer(out)
	return &Logger{
		out:  out,
		book: book,
		warn: r.NewStyle().Foreground(lipgloss.Color("214")),
		note: r.NewStyle().Faint(true),
	}
}

// Warnf reports a recoverable problem, such as a skipped card document.
func (l *Logger) Warnf(format string, args ...any) {
	if l == nil {
		return
	}
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	fmt.Fprintln(l.out, l.warn.Render("warning: "+msg))
	l.book.Warn("%s", msg)
}

// Noticef reports something the caller did not ask for but should know about.
func (l *Logger) Noticef(format string, args ...any) {
	if l == nil {
		return
	}
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	fmt.Fprintln(l.out, l.note.Render(msg))
	l.book.Info("%s", msg)
}

// Printf records a line in the logbook only.
func (l *Logger) Printf(format string, args ...any) {
	if l == nil {
		return
	}
	l.book.Info(format, args...)
}
