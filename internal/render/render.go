// Package render turns board listings and cards into terminal text or the
// compact XML form read by agents.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Style selects an output format.
type Style string

const (
	Simple Style = "simple"
	Detail Style = "detail"
	XML    Style = "xml"
)

// Styles lists the accepted --output-style values.
var Styles = []Style{Simple, Detail, XML}

// ParseStyle validates an --output-style value. Empty means simple.
func ParseStyle(value string) (Style, error) {
	switch s := Style(strings.ToLower(strings.TrimSpace(value))); s {
	case "":
		return Simple, nil
	case Simple, Detail, XML:
		return s, nil
	}
	return "", fmt.Errorf("render: unknown output style %q (use simple, detail or xml)", value)
}

// Printer holds styles bound to one output's color profile. Writers that are
// not terminals get plain text.
type Printer struct {
	dim     lipgloss.Style
	bold    lipgloss.Style
	dimBold lipgloss.Style
	accent  lipgloss.Style
}

// New builds a printer for w.
func New(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		dim:     r.NewStyle().Faint(true),
		bold:    r.NewStyle().Bold(true),
		dimBold: r.NewStyle().Faint(true).Bold(true),
		accent:  r.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true),
	}
}

// paint styles each line separately so lipgloss does not pad multi-line
// blocks to a common width.
func paint(style lipgloss.Style, text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = style.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}
