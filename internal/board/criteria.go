package board

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kingrea/kanban/internal/card"
	"github.com/kingrea/kanban/internal/store"
)

// update loads a card, applies fn and writes it back under the board lock.
func (b *Board) update(id int, fn func(*card.Card) error) (store.Entry, error) {
	var out store.Entry
	err := b.store.Locked(func() error {
		e, err := b.store.Get(id)
		if err != nil {
			return err
		}
		if err := fn(&e.Card); err != nil {
			return err
		}
		e.Card.Touch(b.now())
		if err := b.store.Write(e); err != nil {
			return err
		}
		out = e
		return nil
	})
	return out, err
}

// AddCriterion appends an unmet criterion.
func (b *Board) AddCriterion(id int, text string) (store.Entry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return store.Entry{}, &card.ValidationError{Index: -1, Field: "criteria", Reason: "text must be non-empty"}
	}
	e, err := b.update(id, func(c *card.Card) error {
		c.Criteria = append(c.Criteria, card.Criterion{Text: text})
		return nil
	})
	if err == nil {
		b.log.Printf("criteria add #%d: %s", id, text)
	}
	return e, err
}

// RemoveCriterion drops criterion n (1-based). A reason is required and is
// kept in the activity log; the last criterion cannot be removed.
func (b *Board) RemoveCriterion(id, n int, reason string) (card.Criterion, store.Entry, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return card.Criterion{}, store.Entry{}, ErrReasonRequired
	}
	var removed card.Criterion
	e, err := b.update(id, func(c *card.Card) error {
		if len(c.Criteria) == 0 {
			return fmt.Errorf("%w: #%d", ErrNoCriteria, id)
		}
		if n < 1 || n > len(c.Criteria) {
			return fmt.Errorf("%w: invalid criterion number %d (valid range: 1-%d)", ErrCriterionNotFound, n, len(c.Criteria))
		}
		if len(c.Criteria) == 1 {
			return ErrLastCriterion
		}
		removed = c.Criteria[n-1]
		c.Criteria = append(c.Criteria[:n-1:n-1], c.Criteria[n:]...)
		c.Log(b.now(), fmt.Sprintf("Removed AC %d: '%s' (reason: %s)", n, removed.Text, reason))
		return nil
	})
	if err != nil {
		return card.Criterion{}, store.Entry{}, err
	}
	b.log.Printf("criteria remove #%d: %s (reason: %s)", id, removed.Text, reason)
	return removed, e, nil
}

// CheckCriteria marks every referenced criterion met. All references are
// resolved before any is changed.
func (b *Board) CheckCriteria(id int, refs []string) ([]card.Criterion, store.Entry, error) {
	return b.setCriteria(id, refs, true)
}

// UncheckCriteria marks every referenced criterion unmet.
func (b *Board) UncheckCriteria(id int, refs []string) ([]card.Criterion, store.Entry, error) {
	return b.setCriteria(id, refs, false)
}

func (b *Board) setCriteria(id int, refs []string, met bool) ([]card.Criterion, store.Entry, error) {
	if len(refs) == 0 {
		return nil, store.Entry{}, fmt.Errorf("%w: name a criterion by number or text prefix", ErrCriterionNotFound)
	}
	var changed []card.Criterion
	e, err := b.update(id, func(c *card.Card) error {
		if len(c.Criteria) == 0 {
			return fmt.Errorf("%w: #%d", ErrNoCriteria, id)
		}
		indices := make([]int, 0, len(refs))
		for _, ref := range refs {
			idx, err := resolveCriterion(c.Criteria, ref)
			if err != nil {
				return err
			}
			indices = append(indices, idx)
		}
		for _, idx := range indices {
			c.Criteria[idx].Met = met
			changed = append(changed, c.Criteria[idx])
		}
		return nil
	})
	if err != nil {
		return nil, store.Entry{}, err
	}
	verb := "check"
	if !met {
		verb = "uncheck"
	}
	for _, cr := range changed {
		b.log.Printf("criteria %s #%d: %s", verb, id, cr.Text)
	}
	return changed, e, nil
}

// resolveCriterion finds a criterion by 1-based number or, failing that, by
// case-insensitive text prefix (first match wins).
func resolveCriterion(criteria []card.Criterion, ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	if n, err := strconv.Atoi(ref); err == nil {
		if n >= 1 && n <= len(criteria) {
			return n - 1, nil
		}
		return 0, fmt.Errorf("%w matching '%s' (valid range: 1-%d)", ErrCriterionNotFound, ref, len(criteria))
	}
	prefix := strings.ToLower(ref)
	if prefix != "" {
		for i, c := range criteria {
			if strings.HasPrefix(strings.ToLower(c.Text), prefix) {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("%w matching '%s'", ErrCriterionNotFound, ref)
}
