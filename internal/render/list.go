package render

import (
	"fmt"
	"strings"

	"github.com/kingrea/kanban/internal/board"
	"github.com/kingrea/kanban/internal/card"
	"github.com/kingrea/kanban/internal/config"
	"github.com/kingrea/kanban/internal/store"
)

// Board renders a listing in style.
func (p *Printer) Board(l board.Listing, style Style) string {
	if style == XML {
		return BoardXML(l)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "KANBAN BOARD: %s\n\n", l.Root)

	if !l.Visibility.HideMine {
		if l.Visibility.Caller != "" {
			fmt.Fprintf(&b, "=== Your Session (%s) ===\n\n", ShortSession(l.Visibility.Caller))
		} else {
			b.WriteString("=== Your Cards ===\n\n")
		}
		for _, col := range l.Columns {
			entries := l.Mine[col]
			fmt.Fprintf(&b, "%s (%d)\n", strings.ToUpper(col), len(entries))
			if len(entries) == 0 {
				b.WriteString("  (empty)\n")
			}
			for i, e := range entries {
				b.WriteString(p.cardLine(e, style, i == 0, false))
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}
	}

	if !l.Visibility.OnlyMine && l.HasOthers() {
		b.WriteString("=== Other Sessions ===\n\n")
		for _, col := range l.Columns {
			entries := l.Others[col]
			if len(entries) == 0 {
				continue
			}
			fmt.Fprintf(&b, "%s (%d)\n", strings.ToUpper(col), len(entries))
			for i, e := range entries {
				b.WriteString(p.cardLine(e, style, i == 0, true))
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}
	}

	b.WriteString(p.metrics(l.Metrics))
	return b.String()
}

func (p *Printer) metrics(m board.Metrics) string {
	lines := []string{
		"─── Metrics ───",
		fmt.Sprintf("Throughput: %d cards/hr · %d today · %d all-time", m.PerHour, m.Today, m.AllTime),
	}
	if m.HasLeadTime {
		lines = append(lines, "Avg Lead Time: "+LeadTime(m.AvgLeadTime))
	}
	return paint(p.dim, strings.Join(lines, "\n")) + "\n"
}

// cardLine renders one card row. Detail style appends intent, criteria,
// persona and files as indented sections.
func (p *Printer) cardLine(e store.Entry, style Style, first, showSession bool) string {
	var b strings.Builder
	if style != Simple && !first {
		b.WriteString("\n")
	}
	c := e.Card
	action := c.Action
	if action == "" {
		action = "[NO ACTION]"
	}
	fmt.Fprintf(&b, "  #%d %s", e.ID, action)
	if showSession && c.Session != "" {
		b.WriteString(" " + p.dim.Render("("+ShortSession(c.Session)+")"))
	}
	if e.Column == config.ColumnDone || e.Archived() {
		if lead, ok := c.LeadTime(); ok {
			b.WriteString(" " + p.dim.Render("("+LeadTime(lead)+")"))
		}
	}
	if style != Detail {
		return b.String()
	}
	sections := detailSections(c)
	for _, section := range sections {
		b.WriteString("\n\n")
		b.WriteString(paint(p.dim, section))
	}
	return b.String()
}

func detailSections(c card.Card) []string {
	var sections []string
	if c.Intent != "" {
		lines := []string{"    Intent"}
		for _, line := range clipLines(c.Intent, 80, 3) {
			lines = append(lines, "    "+line)
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}
	if len(c.Criteria) > 0 {
		lines := []string{"    Acceptance Criteria"}
		for i, cr := range c.Criteria {
			lines = append(lines, fmt.Sprintf("    %s %d. %s", checkbox(cr.Met), i+1, cr.Text))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}
	if meta := metadata(c); len(meta) > 0 {
		sections = append(sections, "    "+strings.Join(meta, " · "))
	}
	if files := fileSection("    ", "Edit Files", c.EditFiles); files != "" {
		sections = append(sections, files)
	}
	if files := fileSection("    ", "Read Files", c.ReadFiles); files != "" {
		sections = append(sections, files)
	}
	return sections
}

func metadata(c card.Card) []string {
	var parts []string
	if c.Persona != "" && c.Persona != card.DefaultPersona {
		parts = append(parts, "Persona: "+c.Persona)
	}
	if c.Model != "" {
		parts = append(parts, "Model: "+string(c.Model))
	}
	return parts
}

func fileSection(indent, title string, files []string) string {
	if len(files) == 0 {
		return ""
	}
	lines := []string{indent + title}
	for _, f := range sorted(files) {
		lines = append(lines, indent+f)
	}
	return strings.Join(lines, "\n")
}
