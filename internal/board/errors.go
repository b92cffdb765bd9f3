package board

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoCriteria is returned when a criteria operation targets a card
	// without any.
	ErrNoCriteria = errors.New("board: card has no acceptance criteria")
	// ErrLastCriterion protects the last criterion from removal.
	ErrLastCriterion = errors.New("board: cannot remove the last acceptance criterion")
	// ErrCriterionNotFound is returned when a reference matches no criterion.
	ErrCriterionNotFound = errors.New("board: no criterion found")
	// ErrReasonRequired is returned when a removal gives no reason.
	ErrReasonRequired = errors.New("board: a reason is required")
	// ErrNothingSelected is returned when a selector names no cards.
	ErrNothingSelected = errors.New("board: no cards selected")
	// ErrWrongColumn is returned when a position references a card elsewhere.
	ErrWrongColumn = errors.New("board: reference card is in another column")
)

// TransitionError reports a lifecycle move the card's column does not allow.
type TransitionError struct {
	ID      int
	Op      Op
	From    string
	Allowed []string
}

func (e *TransitionError) Error() string {
	quoted := make([]string, len(e.Allowed))
	for i, col := range e.Allowed {
		quoted[i] = "'" + col + "'"
	}
	return fmt.Sprintf("card #%d is in '%s', not %s (%s only works on cards in %s)",
		e.ID, e.From, strings.Join(quoted, " or "), e.Op, strings.Join(e.Allowed, " or "))
}

// Unmet is one criterion blocking completion, numbered from 1.
type Unmet struct {
	Number int
	Text   string
}

// UnmetCriteriaError blocks the done transition and lists every criterion
// still open.
type UnmetCriteriaError struct {
	ID    int
	Total int
	Unmet []Unmet
}

func (e *UnmetCriteriaError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "🛑 Cannot complete card #%d: %d of %d acceptance criteria unmet:", e.ID, len(e.Unmet), e.Total)
	for _, u := range e.Unmet {
		fmt.Fprintf(&b, "\n  ⬜ %d. %s", u.Number, u.Text)
	}
	fmt.Fprintf(&b, "\n\nCheck items with: kanban criteria check %d <n>", e.ID)
	return b.String()
}

// PositionRequiredError is returned when a card would join a non-empty scope
// without saying where.
type PositionRequiredError struct {
	Column  string
	Session string
	// Scope lists the scope's cards as "#id@key" in order.
	Scope string
}

func (e *PositionRequiredError) Error() string {
	owner := e.Session
	if owner == "" {
		owner = "no session"
	}
	return fmt.Sprintf("%s already has cards for %s (%s); choose a position with --top, --bottom, --after N or --before N",
		e.Column, owner, e.Scope)
}

// CrossSessionError rejects ordering relative to another session's card.
type CrossSessionError struct {
	Ref        int
	RefSession string
	Session    string
}

func (e *CrossSessionError) Error() string {
	return fmt.Sprintf("card #%d belongs to session %s, not %s; cards can only be ordered within one session",
		e.Ref, displaySession(e.RefSession), displaySession(e.Session))
}

func displaySession(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
