// Package session resolves who is calling and decides which cards count as
// theirs. It never mutates cards.
package session

import (
	"os"
	"os/user"
	"strings"

	"github.com/google/uuid"
)

// EnvSession overrides the caller label when no flag is given.
const EnvSession = "KANBAN_SESSION"

// Label picks the raw caller label: explicit flag, then KANBAN_SESSION, then
// the account name. getenv defaults to os.Getenv.
func Label(flag string, getenv func(string) string) string {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := strings.TrimSpace(flag); v != "" {
		return v
	}
	if v := strings.TrimSpace(getenv(EnvSession)); v != "" {
		return v
	}
	if v := strings.TrimSpace(getenv("USER")); v != "" {
		return v
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return ""
}

// IsUUID reports whether label looks like a generated session identifier.
func IsUUID(label string) bool {
	_, err := uuid.Parse(strings.TrimSpace(label))
	return err == nil
}

// TableKey is the part of a UUID label the name table is keyed by: the first
// eight hex digits of its canonical form.
func TableKey(label string) string {
	label = strings.TrimSpace(label)
	if id, err := uuid.Parse(label); err == nil {
		return id.String()[:8]
	}
	label = strings.ToLower(label)
	if len(label) > 8 {
		return label[:8]
	}
	return label
}

// Resolve maps UUID-like labels to their friendly name through table and
// returns any other label unchanged.
func Resolve(label string, table *Table) (string, error) {
	if !IsUUID(label) || table == nil {
		return label, nil
	}
	return table.Name(TableKey(label))
}

// Mine reports whether a card owned by cardSession belongs to caller.
// Ownerless cards belong to everyone, and a caller with no identity owns all.
func Mine(cardSession, caller string) bool {
	if caller == "" || strings.TrimSpace(cardSession) == "" {
		return true
	}
	return cardSession == caller
}

// Flags are the caller's display preferences.
type Flags struct {
	// Explicit is the --session value; it restricts output to that session.
	Explicit string
	OnlyMine bool
	ShowMine bool
	HideMine bool
	// HideMineDefault comes from configuration or KANBAN_HIDE_MINE.
	HideMineDefault bool
}

// Visibility decides which groups of cards are shown.
type Visibility struct {
	Caller   string
	HideMine bool
	OnlyMine bool
	// Explicit records that the caller named a session on the command line.
	Explicit bool
}

// Visible resolves flags against the detected caller.
func Visible(caller string, f Flags) Visibility {
	if f.Explicit != "" {
		return Visibility{Caller: f.Explicit, OnlyMine: true, Explicit: true}
	}
	v := Visibility{Caller: caller, OnlyMine: f.OnlyMine}
	switch {
	case f.OnlyMine, f.ShowMine:
		v.HideMine = false
	case f.HideMine:
		v.HideMine = true
	default:
		v.HideMine = f.HideMineDefault
	}
	return v
}

// Mine classifies a card session against the visibility's caller.
func (v Visibility) Mine(cardSession string) bool {
	return Mine(cardSession, v.Caller)
}
