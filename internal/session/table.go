package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// TableFile is the name table's file name under the board root.
const TableFile = "sessions.json"

// ErrCorruptTable is returned when the name table exists but cannot be read
// as a mapping. The file is left as found.
var ErrCorruptTable = errors.New("session: name table is unreadable")

// Warner receives problems found while reading the table.
type Warner interface {
	Warnf(format string, args ...any)
}

type discardWarner struct{}

func (discardWarner) Warnf(string, ...any) {}

// Table is the persisted mapping from identifier prefixes to friendly names.
type Table struct {
	path   string
	locker func(func() error) error
	warn   Warner
}

// TableOption customizes a Table.
type TableOption func(*Table)

// WithLocker serialises read-merge-write cycles with other board writers.
func WithLocker(locker func(func() error) error) TableOption {
	return func(t *Table) {
		if locker != nil {
			t.locker = locker
		}
	}
}

// WithWarner reports an unreadable table before the lookup fails.
func WithWarner(w Warner) TableOption {
	return func(t *Table) {
		if w != nil {
			t.warn = w
		}
	}
}

// NewTable opens the table stored under root.
func NewTable(root string, opts ...TableOption) *Table {
	t := &Table{
		path:   filepath.Join(root, TableFile),
		locker: func(fn func() error) error { return fn() },
		warn:   discardWarner{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Path returns the backing file.
func (t *Table) Path() string {
	return t.path
}

// Load returns the current mapping. A missing file is an empty table; any
// other read or parse failure is an error wrapping ErrCorruptTable.
func (t *Table) Load() (map[string]string, error) {
	out := map[string]string{}
	data, err := os.ReadFile(t.path)
	if errors.Is(err, fs.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptTable, t.path, err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptTable, t.path, err)
	}
	if out == nil {
		out = map[string]string{}
	}
	return out, nil
}

// Name returns the friendly name for key, assigning and persisting a new one
// on first sight. Existing entries are never reassigned, and a table that
// cannot be read is never rewritten.
func (t *Table) Name(key string) (string, error) {
	var name string
	err := t.locker(func() error {
		names, err := t.Load()
		if err != nil {
			t.warn.Warnf("%v; fix or remove the file to restore session names", err)
			return err
		}
		if existing, ok := names[key]; ok {
			name = existing
			return nil
		}
		taken := make(map[string]bool, len(names))
		for _, v := range names {
			taken[v] = true
		}
		name = Derive(key, taken)
		names[key] = name
		return t.save(names)
	})
	if err != nil {
		return "", err
	}
	return name, nil
}

func (t *Table) save(names map[string]string) error {
	data, err := json.MarshalIndent(names, "", "  ")
	if err != nil {
		return fmt.Errorf("session: encode table: %w", err)
	}
	data = append(data, '\n')
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("session: create %s: %w", filepath.Dir(t.path), err)
	}
	if err := atomic.WriteFile(t.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("session: write table: %w", err)
	}
	return os.Chmod(t.path, 0o644)
}
