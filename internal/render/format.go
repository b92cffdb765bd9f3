package render

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kingrea/kanban/internal/session"
)

// LeadTime formats a duration as "45s", "12m", "2h 15m" or "3d 1h".
func LeadTime(d time.Duration) string {
	seconds := int(d / time.Second)
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	hours, rem := minutes/60, minutes%60
	if hours < 24 {
		if rem > 0 {
			return fmt.Sprintf("%dh %dm", hours, rem)
		}
		return fmt.Sprintf("%dh", hours)
	}
	days, remHours := hours/24, hours%24
	if remHours > 0 {
		return fmt.Sprintf("%dd %dh", days, remHours)
	}
	return fmt.Sprintf("%dd", days)
}

// ShortSession abbreviates UUID-like labels to their first eight characters
// and leaves friendly names whole.
func ShortSession(label string) string {
	if session.IsUUID(label) && len(label) > 8 {
		return label[:8]
	}
	return label
}

// wrapWords fills paragraphs greedily to width. A literal "\n" sequence in
// the text counts as a line break.
func wrapWords(text string, width int) []string {
	text = strings.ReplaceAll(text, `\n`, "\n")
	var out []string
	for _, paragraph := range strings.Split(text, "\n") {
		current := ""
		for _, word := range strings.Fields(paragraph) {
			if current != "" && len(current)+len(word)+1 > width {
				out = append(out, current)
				current = word
				continue
			}
			if current != "" {
				current += " "
			}
			current += word
		}
		if current != "" {
			out = append(out, current)
		}
	}
	return out
}

// clipLines breaks text at the last space before width and keeps at most
// maxLines lines.
func clipLines(text string, width, maxLines int) []string {
	var out []string
	for text != "" && len(out) < maxLines {
		if len(text) <= width {
			out = append(out, text)
			break
		}
		cut := strings.LastIndex(text[:width], " ")
		if cut <= 0 {
			cut = width
		}
		out = append(out, text[:cut])
		text = strings.TrimLeft(text[cut:], " ")
	}
	return out
}

func sorted(values []string) []string {
	out := append([]string{}, values...)
	sort.Strings(out)
	return out
}

func checkbox(met bool) string {
	if met {
		return "✅"
	}
	return "⬜"
}
