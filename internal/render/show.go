package render

import (
	"fmt"
	"strings"

	"github.com/kingrea/kanban/internal/board"
	"github.com/kingrea/kanban/internal/store"
)

// Card renders one card in full. Simple and detail share the human form.
func (p *Printer) Card(e store.Entry, style Style) string {
	if style == XML {
		return CardXML(e)
	}
	c := e.Card
	var b strings.Builder
	b.WriteString(p.accent.Render(fmt.Sprintf("=== Card #%d (%s) ===", e.ID, board.Status(e))))
	b.WriteString("\n\n")
	action := c.Action
	if action == "" {
		action = "[NO ACTION]"
	}
	b.WriteString(action + "\n")

	if c.Intent != "" {
		b.WriteString("\n" + p.dimBold.Render("  Intent") + "\n")
		for _, line := range wrapWords(c.Intent, 80) {
			b.WriteString("  " + line + "\n")
		}
	}
	if len(c.Criteria) > 0 {
		b.WriteString("\n" + p.dimBold.Render("  Acceptance Criteria") + "\n")
		for i, cr := range c.Criteria {
			fmt.Fprintf(&b, "  %s %d. %s\n", checkbox(cr.Met), i+1, cr.Text)
		}
	}
	for _, group := range []struct {
		title string
		files []string
	}{{"Edit Files", c.EditFiles}, {"Read Files", c.ReadFiles}} {
		if len(group.files) == 0 {
			continue
		}
		b.WriteString("\n" + p.dimBold.Render("  "+group.title) + "\n")
		for _, f := range sorted(group.files) {
			b.WriteString("  " + f + "\n")
		}
	}
	if c.CancelReason != "" {
		b.WriteString("\n" + p.dimBold.Render("  Cancel Reason") + "\n")
		b.WriteString("  " + c.CancelReason + "\n")
	}

	var footer []string
	if c.Session != "" {
		footer = append(footer, "Session: "+ShortSession(c.Session))
	}
	footer = append(footer, metadata(c)...)
	created := "unknown"
	if !c.Created.IsZero() {
		created = c.Created.Local().Format("2006-01-02")
	}
	footer = append(footer, "Created: "+created)
	b.WriteString("\n" + p.bold.Render(strings.Join(footer, " · ")) + "\n")
	return b.String()
}
