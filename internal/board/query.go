package board

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gobwas/glob"

	"github.com/kingrea/kanban/internal/config"
	"github.com/kingrea/kanban/internal/session"
	"github.com/kingrea/kanban/internal/store"
)

// ArchivedGroup names cold storage when a listing includes it.
const ArchivedGroup = "archived"

// Filter narrows a listing. Zero values disable each criterion.
type Filter struct {
	Columns []string
	Since   time.Time
	Until   time.Time

	// Archived appends cold storage as a final group, ordered by identity.
	Archived bool
	// FileGlob keeps cards whose edit or read files match.
	FileGlob string
	// SessionPrefix keeps cards whose session starts with it, ignoring case.
	SessionPrefix string
	// CardPrefix keeps cards whose number starts with it.
	CardPrefix string
}

// Metrics summarise completed work in the done column.
type Metrics struct {
	PerHour     int
	Today       int
	AllTime     int
	AvgLeadTime time.Duration
	HasLeadTime bool
}

// Listing is one rendered view of the board, split by ownership.
type Listing struct {
	Root       string
	Visibility session.Visibility
	Columns    []string
	Mine       map[string][]store.Entry
	Others     map[string][]store.Entry
	Metrics    Metrics
}

// HasOthers reports whether any column holds another session's cards.
func (l Listing) HasOthers() bool {
	for _, entries := range l.Others {
		if len(entries) > 0 {
			return true
		}
	}
	return false
}

// Count returns how many cards the listing shows.
func (l Listing) Count() int {
	n := 0
	for _, col := range l.Columns {
		n += len(l.Mine[col]) + len(l.Others[col])
	}
	return n
}

// SelectColumns resolves --column values against the board. With none
// given, done and canceled are left out unless asked for.
func (b *Board) SelectColumns(requested []string, showDone, showCanceled, showAll bool) ([]string, error) {
	names := splitList(requested)
	if len(names) > 0 {
		var cols []string
		seen := make(map[string]bool)
		for _, name := range names {
			col, err := b.cfg.Column(name)
			if err != nil {
				return nil, err
			}
			if !seen[col] {
				seen[col] = true
				cols = append(cols, col)
			}
		}
		return cols, nil
	}
	var cols []string
	for _, col := range b.cfg.Columns() {
		switch {
		case showAll:
		case col == config.ColumnDone && !showDone:
			continue
		case col == config.ColumnCanceled && !showCanceled:
			continue
		}
		cols = append(cols, col)
	}
	return cols, nil
}

// List gathers the filtered cards per column, each group in key order.
func (b *Board) List(f Filter, vis session.Visibility) (Listing, error) {
	columns := append([]string{}, f.Columns...)
	if len(columns) == 0 {
		var err error
		if columns, err = b.SelectColumns(nil, false, false, false); err != nil {
			return Listing{}, err
		}
	}
	if f.Archived {
		columns = append(columns, ArchivedGroup)
	}
	var match glob.Glob
	if pattern := strings.TrimSpace(f.FileGlob); pattern != "" {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return Listing{}, fmt.Errorf("board: invalid file pattern %q: %w", pattern, err)
		}
		match = g
	}

	out := Listing{
		Root:       b.Root(),
		Visibility: vis,
		Columns:    columns,
		Mine:       make(map[string][]store.Entry),
		Others:     make(map[string][]store.Entry),
	}
	for _, col := range columns {
		entries, err := b.entries(col)
		if err != nil {
			return Listing{}, err
		}
		for _, e := range entries {
			if !f.keep(e, match) {
				continue
			}
			if vis.Mine(e.Card.Session) {
				if !vis.HideMine {
					out.Mine[col] = append(out.Mine[col], e)
				}
			} else if !vis.OnlyMine {
				out.Others[col] = append(out.Others[col], e)
			}
		}
		if col != ArchivedGroup {
			b.SortEntries(out.Mine[col])
			b.SortEntries(out.Others[col])
		}
	}
	metrics, err := b.Metrics()
	if err != nil {
		return Listing{}, err
	}
	out.Metrics = metrics
	return out, nil
}

func (b *Board) entries(group string) ([]store.Entry, error) {
	if group == ArchivedGroup {
		return b.store.ListArchived()
	}
	return b.store.List(group)
}

func (f Filter) keep(e store.Entry, match glob.Glob) bool {
	if f.CardPrefix != "" && !strings.HasPrefix(strconv.Itoa(e.ID), f.CardPrefix) {
		return false
	}
	if f.SessionPrefix != "" && !strings.HasPrefix(strings.ToLower(e.Card.Session), strings.ToLower(f.SessionPrefix)) {
		return false
	}
	if !e.Card.Updated.IsZero() {
		if !f.Since.IsZero() && e.Card.Updated.Before(f.Since) {
			return false
		}
		if !f.Until.IsZero() && e.Card.Updated.After(f.Until) {
			return false
		}
	}
	if match != nil {
		for _, path := range e.Card.Touches() {
			if match.Match(path) {
				return true
			}
		}
		return false
	}
	return true
}

// SortEntries orders entries by effective key, then identity.
func (b *Board) SortEntries(entries []store.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return b.engine.Less(itemOf(entries[i]), itemOf(entries[j]))
	})
}

// Metrics measures throughput and lead time over the done column.
func (b *Board) Metrics() (Metrics, error) {
	var m Metrics
	if !b.cfg.HasColumn(config.ColumnDone) {
		return m, nil
	}
	entries, err := b.store.List(config.ColumnDone)
	if err != nil {
		return m, err
	}
	now := b.now()
	hourAgo := now.Add(-time.Hour)
	midnight := startOfDay(now)
	var total time.Duration
	var measured int
	for _, e := range entries {
		m.AllTime++
		updated := e.Card.Updated
		if !updated.IsZero() {
			if !updated.Before(hourAgo) {
				m.PerHour++
			}
			if !updated.Before(midnight) {
				m.Today++
			}
		}
		if lead, ok := e.Card.LeadTime(); ok {
			total += lead
			measured++
		}
	}
	if measured > 0 {
		m.AvgLeadTime = total / time.Duration(measured)
		m.HasLeadTime = true
	}
	return m, nil
}

// ParseDateFilter reads --since/--until values: today, yesterday, week,
// month, RFC 3339 or YYYY-MM-DD. Relative words count from local midnight
// or from now.
func ParseDateFilter(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	switch strings.ToLower(value) {
	case "":
		return time.Time{}, nil
	case "today":
		return startOfDay(now), nil
	case "yesterday":
		return startOfDay(now).AddDate(0, 0, -1), nil
	case "week":
		return now.AddDate(0, 0, -7), nil
	case "month":
		return now.AddDate(0, 0, -30), nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", value, now.Location()); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", value, now.Location()); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("board: invalid date %q (use today, yesterday, week, month or YYYY-MM-DD)", value)
}

func startOfDay(t time.Time) time.Time {
	local := t.Local()
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, local.Location())
}
