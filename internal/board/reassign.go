package board

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/kingrea/kanban/internal/config"
	"github.com/kingrea/kanban/internal/priority"
	"github.com/kingrea/kanban/internal/store"
)

// NoSession is the reassignment target and selector that mean "ownerless".
const NoSession = "none"

// Selector picks cards for bulk administration.
type Selector struct {
	IDs []int
	// From is a glob over owning sessions; "none" selects ownerless cards.
	From string
	// Columns limits a From selection; empty means every active column
	// except done and canceled.
	Columns []string
}

// Reassign hands the selected cards to session to ("none" clears the owner).
// Each moved card gets an activity entry and goes to the bottom of its new
// owner's scope. Cards already owned by to are left alone.
func (b *Board) Reassign(sel Selector, to string) ([]store.Entry, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return nil, fmt.Errorf("board: reassign needs a target session (or %q)", NoSession)
	}
	target := to
	if strings.EqualFold(target, NoSession) {
		target = ""
	}
	match, err := sessionMatcher(sel.From)
	if err != nil {
		return nil, err
	}
	columns, err := b.selectorColumns(sel.Columns)
	if err != nil {
		return nil, err
	}
	if len(sel.IDs) == 0 && sel.From == "" {
		return nil, fmt.Errorf("%w: give card numbers or --from", ErrNothingSelected)
	}

	var out []store.Entry
	err = b.store.Locked(func() error {
		var picked []store.Entry
		if len(sel.IDs) > 0 {
			for _, id := range sel.IDs {
				e, err := b.store.Get(id)
				if err != nil {
					return err
				}
				if match(e.Card.Session) {
					picked = append(picked, e)
				}
			}
		} else {
			for _, col := range columns {
				entries, err := b.store.List(col)
				if err != nil {
					return err
				}
				for _, e := range entries {
					if match(e.Card.Session) {
						picked = append(picked, e)
					}
				}
			}
		}
		for _, e := range picked {
			if e.Card.Session == target {
				continue
			}
			from := e.Card.Session
			e.Card.Session = target
			e.Card.Log(b.now(), fmt.Sprintf("Reassigned from %s to %s", displaySession(from), displaySession(target)))
			if !e.Archived() {
				if err := b.place(&e.Card, e.ID, e.Column, priority.AtBottom(), false); err != nil {
					return err
				}
			}
			if err := b.store.Write(e); err != nil {
				return err
			}
			b.log.Printf("reassign #%d %s -> %s", e.ID, displaySession(from), displaySession(target))
			out = append(out, e)
		}
		return nil
	})
	return out, err
}

func (b *Board) selectorColumns(requested []string) ([]string, error) {
	if len(requested) == 0 {
		var cols []string
		for _, col := range b.cfg.Columns() {
			if col != config.ColumnDone && col != config.ColumnCanceled {
				cols = append(cols, col)
			}
		}
		return cols, nil
	}
	cols := make([]string, 0, len(requested))
	for _, raw := range splitList(requested) {
		col, err := b.cfg.Column(raw)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return cols, nil
}

// sessionMatcher compiles a session glob. An empty pattern matches all.
func sessionMatcher(pattern string) (func(string) bool, error) {
	pattern = strings.TrimSpace(pattern)
	switch {
	case pattern == "":
		return func(string) bool { return true }, nil
	case strings.EqualFold(pattern, NoSession):
		return func(s string) bool { return s == "" }, nil
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("board: invalid session pattern %q: %w", pattern, err)
	}
	return func(s string) bool { return s != "" && g.Match(s) }, nil
}

// splitList flattens repeated and comma-separated flag values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
