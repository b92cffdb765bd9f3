package board

import (
	"errors"
	"fmt"

	"github.com/kingrea/kanban/internal/card"
	"github.com/kingrea/kanban/internal/config"
	"github.com/kingrea/kanban/internal/priority"
	"github.com/kingrea/kanban/internal/store"
)

// Create writes validated drafts into column (todo or doing), owned by the
// caller. The first card lands at pos, which is mandatory when the caller
// already has cards there; later cards follow one another in order. Every
// reference is resolved before anything is written.
func (b *Board) Create(column string, drafts []card.Draft, pos priority.Position) ([]store.Entry, error) {
	if column != config.ColumnTodo && column != config.ColumnDoing {
		return nil, fmt.Errorf("board: cards are created in %s or %s, not %s", config.ColumnTodo, config.ColumnDoing, column)
	}
	if len(drafts) == 0 {
		return nil, ErrNothingSelected
	}
	var out []store.Entry
	err := b.store.Locked(func() error {
		now := b.now()
		cards := make([]card.Card, len(drafts))
		for i, d := range drafts {
			cards[i] = d.Build(b.caller, now)
		}
		if err := b.place(&cards[0], 0, column, pos, true); err != nil {
			return err
		}
		if err := b.chain(column, cards); err != nil {
			return err
		}
		for i := range cards {
			e, err := b.store.Create(column, cards[i])
			if err != nil {
				return err
			}
			key, _ := e.Card.Key()
			b.log.Printf("create #%d in %s @%d (session %s): %s", e.ID, column, key, displaySession(b.caller), e.Card.Action)
			out = append(out, e)
		}
		return nil
	})
	return out, err
}

// chain keys cards[1:] one after another behind cards[0], which is already
// placed. Every key is computed before anything is written, so an exhausted
// gap leaves the board untouched. Unwritten cards stand in with negative
// identities.
func (b *Board) chain(column string, cards []card.Card) error {
	if len(cards) < 2 {
		return nil
	}
	items, err := b.scope(column, b.caller, 0)
	if err != nil {
		return err
	}
	for i := range cards {
		if i > 0 {
			key, err := b.engine.Key(items, priority.AfterCard(-i))
			if errors.Is(err, priority.ErrGapExhausted) {
				return fmt.Errorf("%w: no room for card[%d] after card[%d]; place the batch with --top or --bottom",
					priority.ErrGapExhausted, i, i-1)
			}
			if err != nil {
				return err
			}
			cards[i].SetKey(key)
		}
		key, _ := cards[i].Key()
		items = append(items, priority.Item{ID: -(i + 1), Key: key, HasKey: true})
	}
	return nil
}
