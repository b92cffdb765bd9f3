// Package store persists cards as N.json documents under one directory per
// column. The directory a file sits in is the card's state and the file name
// is its identity.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/kingrea/kanban/internal/card"
	"github.com/kingrea/kanban/internal/fslock"
)

const (
	// ArchiveDir holds monthly cold-storage buckets.
	ArchiveDir = "archive"
	// ScratchDir is free space for agents sharing the board.
	ScratchDir = "scratchpad"
	seqFile    = ".seq"
	lockFile   = ".lock"
)

var (
	// ErrCardNotFound is returned when no column or bucket holds the identity.
	ErrCardNotFound = errors.New("store: card not found")
	// ErrUnknownColumn is returned for column names the board does not declare.
	ErrUnknownColumn = errors.New("store: unknown column")
	// ErrCardExists guards against a move or create overwriting another file.
	ErrCardExists = errors.New("store: card file already exists")
)

var cardFile = regexp.MustCompile(`^(\d+)\.json$`)

// Entry is a card together with where it lives.
type Entry struct {
	ID     int
	Column string
	// Bucket is the YYYY-MM cold-storage bucket, empty for active cards.
	Bucket string
	Path   string
	Card   card.Card
}

// Archived reports whether the entry sits in cold storage.
func (e Entry) Archived() bool {
	return e.Bucket != ""
}

// Warner receives notices about documents skipped during scans.
type Warner interface {
	Warnf(format string, args ...any)
}

type discardWarner struct{}

func (discardWarner) Warnf(string, ...any) {}

// Store manages card documents rooted at a board directory.
type Store struct {
	root    string
	columns []string
	warn    Warner
}

// Option customizes a Store during construction.
type Option func(*Store)

// WithWarner routes skipped-document notices to w.
func WithWarner(w Warner) Option {
	return func(s *Store) {
		if w != nil {
			s.warn = w
		}
	}
}

// New builds a store for root with the given active columns.
func New(root string, columns []string, opts ...Option) *Store {
	s := &Store{
		root:    root,
		columns: append([]string{}, columns...),
		warn:    discardWarner{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the board directory.
func (s *Store) Root() string {
	return s.root
}

// Columns returns the active column names in board order.
func (s *Store) Columns() []string {
	return append([]string{}, s.columns...)
}

// HasColumn reports whether name is an active column.
func (s *Store) HasColumn(name string) bool {
	for _, col := range s.columns {
		if col == name {
			return true
		}
	}
	return false
}

// Init creates every directory the board needs. It is safe to call repeatedly.
func (s *Store) Init() error {
	dirs := append(s.Columns(), ArchiveDir, ScratchDir)
	for _, dir := range dirs {
		if err := os.MkdirAll(filepath.Join(s.root, dir), 0o755); err != nil {
			return fmt.Errorf("store: create %s: %w", dir, err)
		}
	}
	return nil
}

// Locked runs fn while holding the board-wide lock. Mutations that allocate
// identities or rewrite shared files must run inside it.
func (s *Store) Locked(fn func() error) error {
	lock, err := fslock.Acquire(filepath.Join(s.root, lockFile))
	if err != nil {
		return err
	}
	defer lock.Release()
	return fn()
}

// Create allocates the next identity and writes c into column. The returned
// entry holds its own copy of c. Callers hold the board lock.
func (s *Store) Create(column string, c card.Card) (Entry, error) {
	if !s.HasColumn(column) {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}
	id, err := s.nextID()
	if err != nil {
		return Entry{}, err
	}
	entry := Entry{ID: id, Column: column, Path: s.cardPath(column, "", id), Card: c.Clone()}
	if _, err := os.Stat(entry.Path); err == nil {
		return Entry{}, fmt.Errorf("%w: %s", ErrCardExists, entry.Path)
	}
	if err := s.Write(entry); err != nil {
		return Entry{}, err
	}
	if err := s.writeSeq(id); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Get finds a card by identity, active columns first then cold storage.
func (s *Store) Get(id int) (Entry, error) {
	for _, column := range s.columns {
		path := s.cardPath(column, "", id)
		if _, err := os.Stat(path); err == nil {
			return s.load(id, column, "", path)
		}
	}
	buckets, err := s.buckets()
	if err != nil {
		return Entry{}, err
	}
	for i := len(buckets) - 1; i >= 0; i-- {
		path := s.cardPath("", buckets[i], id)
		if _, err := os.Stat(path); err == nil {
			return s.load(id, "", buckets[i], path)
		}
	}
	return Entry{}, fmt.Errorf("%w: #%d", ErrCardNotFound, id)
}

// Write persists the entry's card at its current path.
func (s *Store) Write(e Entry) error {
	data, err := card.Encode(e.Card)
	if err != nil {
		return err
	}
	return writeFile(e.Path, data)
}

// Move writes the entry's card and renames it into column, keeping its number.
func (s *Store) Move(e Entry, column string) (Entry, error) {
	if !s.HasColumn(column) {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}
	if err := s.Write(e); err != nil {
		return Entry{}, err
	}
	if e.Column == column && !e.Archived() {
		return e, nil
	}
	target := s.cardPath(column, "", e.ID)
	if err := s.rename(e.Path, target); err != nil {
		return Entry{}, err
	}
	e.Column = column
	e.Bucket = ""
	e.Path = target
	return e, nil
}

// ArchiveTo relocates a card into the named cold-storage bucket untouched.
func (s *Store) ArchiveTo(e Entry, bucket string) (Entry, error) {
	dir := filepath.Join(s.root, ArchiveDir, bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Entry{}, fmt.Errorf("store: create bucket %s: %w", bucket, err)
	}
	target := s.cardPath("", bucket, e.ID)
	if err := s.rename(e.Path, target); err != nil {
		return Entry{}, err
	}
	e.Column = ""
	e.Bucket = bucket
	e.Path = target
	return e, nil
}

// Delete removes the card document.
func (s *Store) Delete(e Entry) error {
	if err := os.Remove(e.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: #%d", ErrCardNotFound, e.ID)
		}
		return fmt.Errorf("store: delete #%d: %w", e.ID, err)
	}
	return nil
}

// List returns the cards in column ordered by identity. Malformed documents
// are reported to the warner and skipped.
func (s *Store) List(column string) ([]Entry, error) {
	if !s.HasColumn(column) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, column)
	}
	return s.scan(filepath.Join(s.root, column), column, "")
}

// ListArchived returns every card in cold storage ordered by identity.
func (s *Store) ListArchived() ([]Entry, error) {
	buckets, err := s.buckets()
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, bucket := range buckets {
		entries, err := s.scan(filepath.Join(s.root, ArchiveDir, bucket), "", bucket)
		if err != nil {
			return nil, err
		}
		out = append(out, entries...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// MaxID is the highest identity ever issued, from file names and the
// persisted high-water mark.
func (s *Store) MaxID() (int, error) {
	highest := s.readSeq()
	dirs := make([]string, 0, len(s.columns))
	for _, column := range s.columns {
		dirs = append(dirs, filepath.Join(s.root, column))
	}
	buckets, err := s.buckets()
	if err != nil {
		return 0, err
	}
	for _, bucket := range buckets {
		dirs = append(dirs, filepath.Join(s.root, ArchiveDir, bucket))
	}
	for _, dir := range dirs {
		ids, err := fileIDs(dir)
		if err != nil {
			return 0, err
		}
		for _, id := range ids {
			if id > highest {
				highest = id
			}
		}
	}
	return highest, nil
}

func (s *Store) nextID() (int, error) {
	highest, err := s.MaxID()
	if err != nil {
		return 0, err
	}
	return highest + 1, nil
}

func (s *Store) scan(dir, column, bucket string) ([]Entry, error) {
	ids, err := fileIDs(dir)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		path := filepath.Join(dir, strconv.Itoa(id)+".json")
		entry, err := s.load(id, column, bucket, path)
		if err != nil {
			s.warn.Warnf("skipping %s: %v", path, err)
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *Store) load(id int, column, bucket, path string) (Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, fmt.Errorf("store: read %s: %w", path, err)
	}
	c, err := card.Decode(data)
	if err != nil {
		return Entry{}, fmt.Errorf("store: decode #%d: %w", id, err)
	}
	return Entry{ID: id, Column: column, Bucket: bucket, Path: path, Card: c}, nil
}

func (s *Store) buckets() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, ArchiveDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: read archive: %w", err)
	}
	var out []string
	for _, entry := range entries {
		if entry.IsDir() {
			out = append(out, entry.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) cardPath(column, bucket string, id int) string {
	name := strconv.Itoa(id) + ".json"
	if bucket != "" {
		return filepath.Join(s.root, ArchiveDir, bucket, name)
	}
	return filepath.Join(s.root, column, name)
}

func (s *Store) rename(from, to string) error {
	if _, err := os.Stat(to); err == nil {
		return fmt.Errorf("%w: %s", ErrCardExists, to)
	}
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return fmt.Errorf("store: create %s: %w", filepath.Dir(to), err)
	}
	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("store: move %s: %w", filepath.Base(from), err)
	}
	return nil
}

func (s *Store) readSeq() int {
	data, err := os.ReadFile(filepath.Join(s.root, seqFile))
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (s *Store) writeSeq(id int) error {
	if id <= s.readSeq() {
		return nil
	}
	return writeFile(filepath.Join(s.root, seqFile), []byte(strconv.Itoa(id)+"\n"))
}

func fileIDs(dir string) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: read %s: %w", dir, err)
	}
	ids := make([]int, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := cardFile.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		id, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

// writeFile replaces path atomically; readers never observe a partial card.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("store: create %s: %w", filepath.Dir(path), err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("store: write %s: %w", path, err)
	}
	// atomic.WriteFile leaves new files with the temp file's 0600 mode.
	if err := os.Chmod(path, 0o644); err != nil {
		return fmt.Errorf("store: chmod %s: %w", path, err)
	}
	return nil
}
