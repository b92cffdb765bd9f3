package board

import (
	"fmt"
	"strings"

	"github.com/kingrea/kanban/internal/card"
	"github.com/kingrea/kanban/internal/config"
	"github.com/kingrea/kanban/internal/priority"
	"github.com/kingrea/kanban/internal/store"
)

// Op names a guarded lifecycle transition.
type Op string

const (
	OpStart  Op = "start"
	OpReview Op = "review"
	OpRedo   Op = "redo"
	OpDefer  Op = "defer"
	OpDone   Op = "done"
	OpCancel Op = "cancel"
)

type rule struct {
	from []string
	to   string
}

var rules = map[Op]rule{
	OpStart:  {from: []string{config.ColumnTodo}, to: config.ColumnDoing},
	OpReview: {from: []string{config.ColumnDoing}, to: config.ColumnReview},
	OpRedo:   {from: []string{config.ColumnReview}, to: config.ColumnDoing},
	OpDefer:  {from: []string{config.ColumnDoing, config.ColumnReview}, to: config.ColumnTodo},
	OpDone:   {from: []string{config.ColumnTodo, config.ColumnDoing, config.ColumnReview}, to: config.ColumnDone},
	OpCancel: {from: []string{config.ColumnTodo, config.ColumnDoing, config.ColumnReview}, to: config.ColumnCanceled},
}

// Target returns the column op moves cards into.
func Target(op Op) string {
	return rules[op].to
}

// check verifies op may run on e under this board's column set.
func (b *Board) check(op Op, e store.Entry) error {
	r, ok := rules[op]
	if !ok {
		return fmt.Errorf("board: unknown transition %q", op)
	}
	if !b.cfg.HasColumn(r.to) {
		return fmt.Errorf("%w: %s (this board has no %s column)", config.ErrUnknownColumn, r.to, r.to)
	}
	var allowed []string
	for _, col := range r.from {
		if b.cfg.HasColumn(col) {
			allowed = append(allowed, col)
		}
	}
	if !e.Archived() {
		for _, col := range allowed {
			if e.Column == col {
				return nil
			}
		}
	}
	return &TransitionError{ID: e.ID, Op: op, From: Status(e), Allowed: allowed}
}

// transitionLocked runs one guarded move. The caller holds the board lock.
func (b *Board) transitionLocked(op Op, e store.Entry, pos priority.Position, apply func(*card.Card) error) (store.Entry, error) {
	if err := b.check(op, e); err != nil {
		return store.Entry{}, err
	}
	if apply != nil {
		if err := apply(&e.Card); err != nil {
			return store.Entry{}, err
		}
	}
	e.Card.Touch(b.now())
	to := rules[op].to
	if err := b.place(&e.Card, e.ID, to, pos, false); err != nil {
		return store.Entry{}, err
	}
	from := e.Column
	moved, err := b.store.Move(e, to)
	if err != nil {
		return store.Entry{}, err
	}
	b.log.Printf("%s #%d %s -> %s (session %s)", op, e.ID, from, to, displaySession(b.caller))
	return moved, nil
}

func (b *Board) transition(op Op, id int, pos priority.Position, apply func(*card.Card) error) (store.Entry, error) {
	var out store.Entry
	err := b.store.Locked(func() error {
		e, err := b.store.Get(id)
		if err != nil {
			return err
		}
		out, err = b.transitionLocked(op, e, pos, apply)
		return err
	})
	return out, err
}

// Start moves queued cards into doing. Every card is resolved and checked
// before the first one moves. The first card lands at pos; each following
// card goes directly after the previous one when they share a session.
func (b *Board) Start(ids []int, pos priority.Position) ([]store.Entry, error) {
	if len(ids) == 0 {
		return nil, ErrNothingSelected
	}
	var out []store.Entry
	err := b.store.Locked(func() error {
		entries := make([]store.Entry, 0, len(ids))
		seen := make(map[int]bool, len(ids))
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			e, err := b.store.Get(id)
			if err != nil {
				return err
			}
			if err := b.check(OpStart, e); err != nil {
				return err
			}
			entries = append(entries, e)
		}
		for i, e := range entries {
			p := pos
			if i > 0 {
				prev := out[len(out)-1]
				if prev.Card.Session == e.Card.Session {
					p = priority.AfterCard(prev.ID)
				} else {
					p = priority.AtBottom()
				}
			}
			moved, err := b.transitionLocked(OpStart, e, p, nil)
			if err != nil {
				return err
			}
			out = append(out, moved)
		}
		return nil
	})
	return out, err
}

// SendToReview moves an active card into review.
func (b *Board) SendToReview(id int, pos priority.Position) (store.Entry, error) {
	return b.transition(OpReview, id, pos, nil)
}

// Redo returns a reviewed card to doing.
func (b *Board) Redo(id int, pos priority.Position) (store.Entry, error) {
	return b.transition(OpRedo, id, pos, nil)
}

// Defer puts an active or reviewed card back in the queue.
func (b *Board) Defer(id int, pos priority.Position) (store.Entry, error) {
	return b.transition(OpDefer, id, pos, nil)
}

// Done completes a card. Cards with open criteria are refused with every
// unmet criterion listed. On success exactly one activity entry is added.
func (b *Board) Done(id int, message string) (store.Entry, error) {
	return b.transition(OpDone, id, priority.Position{}, func(c *card.Card) error {
		if unmet := c.UnmetCriteria(); len(unmet) > 0 {
			err := &UnmetCriteriaError{ID: id, Total: len(c.Criteria)}
			for _, idx := range unmet {
				err.Unmet = append(err.Unmet, Unmet{Number: idx + 1, Text: c.Criteria[idx].Text})
			}
			return err
		}
		message = strings.TrimSpace(message)
		if message == "" {
			message = "Completed"
		}
		c.Log(b.now(), message)
		return nil
	})
}

// Cancel abandons a card, recording reason when given.
func (b *Board) Cancel(id int, reason string) (store.Entry, error) {
	return b.transition(OpCancel, id, priority.Position{}, func(c *card.Card) error {
		reason = strings.TrimSpace(reason)
		if reason == "" {
			c.Log(b.now(), "Canceled")
			return nil
		}
		c.CancelReason = reason
		c.Log(b.now(), "Canceled: "+reason)
		return nil
	})
}

// Move relocates a card to any column without lifecycle checks. Moving within
// the same column only reorders, so it needs a position. Archived cards may be
// moved back onto the board.
func (b *Board) Move(id int, column string, pos priority.Position) (store.Entry, error) {
	column, err := b.cfg.Column(column)
	if err != nil {
		return store.Entry{}, err
	}
	var out store.Entry
	err = b.store.Locked(func() error {
		e, err := b.store.Get(id)
		if err != nil {
			return err
		}
		if !e.Archived() && e.Column == column && pos.IsZero() {
			return fmt.Errorf("board: card #%d is already in %s; give --top, --bottom, --after or --before to reorder", id, column)
		}
		from := Status(e)
		e.Card.Touch(b.now())
		if err := b.place(&e.Card, e.ID, column, pos, false); err != nil {
			return err
		}
		out, err = b.store.Move(e, column)
		if err != nil {
			return err
		}
		b.log.Printf("move #%d %s -> %s %s", id, from, column, pos)
		return nil
	})
	return out, err
}
