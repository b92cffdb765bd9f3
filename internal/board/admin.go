package board

import (
	"fmt"

	"github.com/kingrea/kanban/internal/store"
)

// Clear deletes every card in the named columns. All column names are
// validated before anything is removed.
func (b *Board) Clear(columns []string) (int, error) {
	names := splitList(columns)
	if len(names) == 0 {
		return 0, fmt.Errorf("%w: name at least one column", ErrNothingSelected)
	}
	resolved := make([]string, 0, len(names))
	for _, name := range names {
		col, err := b.cfg.Column(name)
		if err != nil {
			return 0, err
		}
		resolved = append(resolved, col)
	}
	removed := 0
	err := b.store.Locked(func() error {
		for _, col := range resolved {
			entries, err := b.store.List(col)
			if err != nil {
				return err
			}
			for _, e := range entries {
				if err := b.store.Delete(e); err != nil {
					return err
				}
				removed++
			}
			b.log.Printf("clear %s: %d card(s)", col, len(entries))
		}
		return nil
	})
	return removed, err
}

// Delete removes one card, wherever it lives.
func (b *Board) Delete(id int) (store.Entry, error) {
	var out store.Entry
	err := b.store.Locked(func() error {
		e, err := b.store.Get(id)
		if err != nil {
			return err
		}
		if err := b.store.Delete(e); err != nil {
			return err
		}
		b.log.Printf("delete #%d from %s: %s", id, Status(e), e.Card.Action)
		out = e
		return nil
	})
	return out, err
}
