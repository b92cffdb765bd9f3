// Package priority computes sortable integer keys so a card can be placed at
// an exact position within its (column, session) scope without rewriting any
// other card.
package priority

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	// DefaultBaseline is the key given to the first card of an empty scope.
	DefaultBaseline = 1000
	// DefaultStep is the distance used for top, bottom and fallback placement.
	DefaultStep = 10
)

var (
	// ErrReferenceMissing is returned when an after/before target is not in scope.
	ErrReferenceMissing = errors.New("priority: reference card not in scope")
	// ErrGapExhausted is returned when two neighbours have no free key between
	// them. Existing keys are never rewritten to make room.
	ErrGapExhausted = errors.New("priority: no free key between neighbouring cards")
)

// Placement selects where a card lands relative to its scope.
type Placement int

const (
	Unspecified Placement = iota
	Top
	Bottom
	After
	Before
)

// Position is a placement plus, for After and Before, the reference identity.
type Position struct {
	Placement Placement
	Ref       int
}

// AtTop places a card ahead of everything in scope.
func AtTop() Position { return Position{Placement: Top} }

// AtBottom places a card behind everything in scope.
func AtBottom() Position { return Position{Placement: Bottom} }

// AfterCard places a card directly behind ref.
func AfterCard(ref int) Position { return Position{Placement: After, Ref: ref} }

// BeforeCard places a card directly ahead of ref.
func BeforeCard(ref int) Position { return Position{Placement: Before, Ref: ref} }

// IsZero reports whether no placement was requested.
func (p Position) IsZero() bool {
	return p.Placement == Unspecified
}

// Relative reports whether the position names a reference card.
func (p Position) Relative() bool {
	return p.Placement == After || p.Placement == Before
}

func (p Position) String() string {
	switch p.Placement {
	case Top:
		return "top"
	case Bottom:
		return "bottom"
	case After:
		return "after #" + strconv.Itoa(p.Ref)
	case Before:
		return "before #" + strconv.Itoa(p.Ref)
	default:
		return "unspecified"
	}
}

// Item is one card in a scope as the engine sees it.
type Item struct {
	ID     int
	Key    int
	HasKey bool
}

// Engine holds the scheme's constants.
type Engine struct {
	Baseline int
	Step     int
}

// New returns an engine, substituting defaults for non-positive values.
func New(baseline, step int) Engine {
	if baseline <= 0 {
		baseline = DefaultBaseline
	}
	if step <= 0 {
		step = DefaultStep
	}
	return Engine{Baseline: baseline, Step: step}
}

// Effective is the key an item sorts by; items without one sit at the baseline.
func (e Engine) Effective(it Item) int {
	if !it.HasKey {
		return e.Baseline
	}
	return it.Key
}

// Less orders by effective key, then lower identity first.
func (e Engine) Less(a, b Item) bool {
	ka, kb := e.Effective(a), e.Effective(b)
	if ka != kb {
		return ka < kb
	}
	return a.ID < b.ID
}

// Sort orders items in place.
func (e Engine) Sort(items []Item) {
	sort.SliceStable(items, func(i, j int) bool { return e.Less(items[i], items[j]) })
}

// Key computes the key for a card placed at pos among scope. scope must not
// contain the card being placed. An unspecified position is treated as bottom.
func (e Engine) Key(scope []Item, pos Position) (int, error) {
	items := append([]Item{}, scope...)
	e.Sort(items)
	if pos.Relative() {
		return e.relativeKey(items, pos)
	}
	if len(items) == 0 {
		return e.Baseline, nil
	}
	switch pos.Placement {
	case Top:
		return e.Effective(items[0]) - e.Step, nil
	default:
		return e.Effective(items[len(items)-1]) + e.Step, nil
	}
}

func (e Engine) relativeKey(items []Item, pos Position) (int, error) {
	idx := -1
	for i, it := range items {
		if it.ID == pos.Ref {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, fmt.Errorf("%w: #%d", ErrReferenceMissing, pos.Ref)
	}
	ref := e.Effective(items[idx])
	if pos.Placement == After {
		if idx+1 >= len(items) {
			return ref + e.Step, nil
		}
		return e.between(items, idx, idx+1)
	}
	if idx == 0 {
		return ref - e.Step, nil
	}
	return e.between(items, idx-1, idx)
}

// between bisects the keys of the adjacent items lo and hi.
func (e Engine) between(items []Item, lo, hi int) (int, error) {
	low, high := e.Effective(items[lo]), e.Effective(items[hi])
	if high-low < 2 {
		return 0, fmt.Errorf("%w: #%d@%d and #%d@%d (scope: %s); move one of them to the top or bottom first",
			ErrGapExhausted, items[lo].ID, low, items[hi].ID, high, e.Describe(items))
	}
	return low + (high-low)/2, nil
}

// Describe renders the scope as "#id@key" pairs in order, for errors that ask
// the caller to choose a position.
func (e Engine) Describe(scope []Item) string {
	items := append([]Item{}, scope...)
	e.Sort(items)
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = fmt.Sprintf("#%d@%d", it.ID, e.Effective(it))
	}
	return strings.Join(parts, ", ")
}
