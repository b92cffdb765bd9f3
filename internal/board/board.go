// Package board is the column state machine. It owns every mutation of the
// board: creation, guarded transitions, administrative moves, reassignment,
// criteria edits and deletion, plus the read-side queries the renderers use.
package board

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/kingrea/kanban/internal/archive"
	"github.com/kingrea/kanban/internal/card"
	"github.com/kingrea/kanban/internal/config"
	"github.com/kingrea/kanban/internal/priority"
	"github.com/kingrea/kanban/internal/store"
)

// Logger records board activity. Printf lines go to the logbook only;
// Noticef lines are also shown to the caller.
type Logger interface {
	Printf(format string, args ...any)
	Noticef(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any)  {}
func (nopLogger) Noticef(string, ...any) {}

// Board binds a store to its configuration and the calling session.
type Board struct {
	cfg    *config.Config
	store  *store.Store
	engine priority.Engine
	caller string
	now    func() time.Time
	log    Logger
}

// Option customizes a Board.
type Option func(*Board)

// WithClock overrides the clock used for timestamps and the archive cutoff.
func WithClock(clock func() time.Time) Option {
	return func(b *Board) {
		if clock != nil {
			b.now = clock
		}
	}
}

// WithLogger routes activity lines to log.
func WithLogger(log Logger) Option {
	return func(b *Board) {
		if log != nil {
			b.log = log
		}
	}
}

// New builds a board. caller is the resolved session label new cards are
// owned by; empty means ownerless.
func New(cfg *config.Config, s *store.Store, caller string, opts ...Option) *Board {
	b := &Board{
		cfg:    cfg,
		store:  s,
		engine: priority.New(cfg.Board.Priority.Baseline, cfg.Board.Priority.Step),
		caller: caller,
		now:    time.Now,
		log:    nopLogger{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Caller returns the session label mutations are attributed to.
func (b *Board) Caller() string {
	return b.caller
}

// Root returns the board directory.
func (b *Board) Root() string {
	return b.store.Root()
}

// Config returns the board configuration.
func (b *Board) Config() *config.Config {
	return b.cfg
}

// Engine returns the ordering engine used for placement and sorting.
func (b *Board) Engine() priority.Engine {
	return b.engine
}

// Get looks a card up by identity, including cold storage.
func (b *Board) Get(id int) (store.Entry, error) {
	return b.store.Get(id)
}

// Status names where an entry lives: its column, or "archived".
func Status(e store.Entry) string {
	if e.Archived() {
		return ArchivedGroup
	}
	return e.Column
}

// Sweep archives done cards past the configured age. Commands run it before
// doing anything else.
func (b *Board) Sweep() ([]store.Entry, error) {
	var moved []store.Entry
	err := b.store.Locked(func() error {
		var err error
		moved, err = archive.Sweep(b.store, config.ColumnDone, b.cfg.ArchiveDays(), b.now())
		return err
	})
	if len(moved) > 0 {
		b.log.Noticef("Auto-archived %d old card(s) to %s/", len(moved), filepath.Join(b.Root(), store.ArchiveDir))
		for _, e := range moved {
			b.log.Printf("archived #%d -> %s", e.ID, e.Bucket)
		}
	}
	if err != nil {
		return moved, fmt.Errorf("board: archive sweep: %w", err)
	}
	return moved, nil
}

// scope returns the ordering items sharing column and session, leaving out
// the card with identity exclude.
func (b *Board) scope(column, session string, exclude int) ([]priority.Item, error) {
	entries, err := b.store.List(column)
	if err != nil {
		return nil, err
	}
	var items []priority.Item
	for _, e := range entries {
		if e.ID == exclude || e.Card.Session != session {
			continue
		}
		items = append(items, itemOf(e))
	}
	return items, nil
}

func itemOf(e store.Entry) priority.Item {
	key, ok := e.Card.Key()
	return priority.Item{ID: e.ID, Key: key, HasKey: ok}
}

// place assigns c an ordering key for column. id is c's identity (0 for a
// card not yet written). With explicit set, a non-empty scope demands a
// position; otherwise an unspecified position means bottom.
func (b *Board) place(c *card.Card, id int, column string, pos priority.Position, explicit bool) error {
	items, err := b.scope(column, c.Session, id)
	if err != nil {
		return err
	}
	if pos.Relative() {
		if pos.Ref == id {
			return fmt.Errorf("board: card #%d cannot be positioned relative to itself", id)
		}
		ref, err := b.store.Get(pos.Ref)
		if err != nil {
			return err
		}
		if ref.Archived() || ref.Column != column {
			return fmt.Errorf("%w: #%d is in '%s', not '%s'", ErrWrongColumn, ref.ID, Status(ref), column)
		}
		if ref.Card.Session != c.Session {
			return &CrossSessionError{Ref: ref.ID, RefSession: ref.Card.Session, Session: c.Session}
		}
	}
	if pos.IsZero() && explicit && len(items) > 0 {
		return &PositionRequiredError{Column: column, Session: c.Session, Scope: b.engine.Describe(items)}
	}
	key, err := b.engine.Key(items, pos)
	if err != nil {
		return err
	}
	c.SetKey(key)
	return nil
}
