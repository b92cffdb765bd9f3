// internal/config/config.go
//
// This package handles configuration and the .kanban directory structure.
// Every project that shares a board gets a .kanban/ folder at its git root
// (or wherever KANBAN_ROOT points).

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// BoardDir is the name of the directory we create in each project
	BoardDir = ".kanban"
	// ConfigFile sits at the board root.
	ConfigFile = "config.yaml"

	EnvRoot        = "KANBAN_ROOT"
	EnvArchiveDays = "KANBAN_ARCHIVE_DAYS"
	EnvHideMine    = "KANBAN_HIDE_MINE"

	DefaultArchiveDays = 30
	defaultBaseline    = 1000
	defaultStep        = 10
)

// Column roles. The state machine refers to columns by these names.
const (
	ColumnTodo     = "todo"
	ColumnDoing    = "doing"
	ColumnReview   = "review"
	ColumnDone     = "done"
	ColumnCanceled = "canceled"
)

// KnownColumns is the full column set in display order.
var KnownColumns = []string{ColumnTodo, ColumnDoing, ColumnReview, ColumnDone, ColumnCanceled}

var requiredColumns = []string{ColumnTodo, ColumnDoing, ColumnDone, ColumnCanceled}

// ErrUnknownColumn is returned for a column name the board does not declare.
var ErrUnknownColumn = errors.New("config: unknown column")

const defaultBoardConfigYAML = `# kanban board configuration
version: 1

# Active columns in display order. todo, doing, done and canceled are required;
# drop review to run a board without a review stage.
columns:
  - todo
  - doing
  - review
  - done
  - canceled

# Done cards untouched for this many days move to archive/YYYY-MM/.
# 0 disables the sweep. KANBAN_ARCHIVE_DAYS overrides this value.
archive_days: 30

# Ordering keys: the first card of an empty column gets baseline, and
# top/bottom placement moves by step.
priority:
  baseline: 1000
  step: 10

# Hide your own cards in list output by default. KANBAN_HIDE_MINE overrides.
hide_mine: false
`

// PriorityConfig tunes the ordering keys.
type PriorityConfig struct {
	Baseline int `yaml:"baseline" mapstructure:"baseline"`
	Step     int `yaml:"step" mapstructure:"step"`
}

// BoardConfig models .kanban/config.yaml.
type BoardConfig struct {
	Version     int            `yaml:"version" mapstructure:"version"`
	Columns     []string       `yaml:"columns" mapstructure:"columns"`
	ArchiveDays int            `yaml:"archive_days" mapstructure:"archive_days"`
	Priority    PriorityConfig `yaml:"priority" mapstructure:"priority"`
	HideMine    bool           `yaml:"hide_mine" mapstructure:"hide_mine"`
}

// Config holds the runtime configuration for one board.
type Config struct {
	// Root is the board directory (usually <project>/.kanban).
	Root string

	Board BoardConfig
}

// FindRoot picks the board directory: explicit flag, then KANBAN_ROOT, then
// the nearest ancestor of cwd holding a .kanban board or a .git directory,
// and finally cwd itself.
func FindRoot(flag, cwd string) (string, error) {
	if v := strings.TrimSpace(flag); v != "" {
		return filepath.Abs(v)
	}
	if v := strings.TrimSpace(environment().GetString("root")); v != "" {
		return filepath.Abs(v)
	}
	start, err := filepath.Abs(cwd)
	if err != nil {
		return "", fmt.Errorf("config: resolve %s: %w", cwd, err)
	}
	for dir := start; ; {
		if isDir(filepath.Join(dir, BoardDir)) || exists(filepath.Join(dir, ".git")) {
			return filepath.Join(dir, BoardDir), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return filepath.Join(start, BoardDir), nil
}

// InitBoardDir creates the board root, its logs directory and a default
// config.yaml when none exists. Column directories are the store's concern.
//
// Structure created:
// .kanban/
// ├── config.yaml
// └── logs/
func InitBoardDir(root string) error {
	if err := os.MkdirAll(filepath.Join(root, "logs"), 0o755); err != nil {
		return fmt.Errorf("config: ensure board dir: %w", err)
	}
	return ensureBoardConfig(filepath.Join(root, ConfigFile))
}

// Load reads config.yaml under root (if present) and layers environment
// overrides on top.
func Load(root string) (*Config, error) {
	cfg := Default(root)
	if err := cfg.loadBoardConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration with built-in settings for root.
func Default(root string) *Config {
	return &Config{Root: root, Board: defaultBoardConfig()}
}

// ConfigPath returns the on-disk location for the board config file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.Root, ConfigFile)
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.Root, "logs")
}

// LogPath returns the board's logbook file.
func (c *Config) LogPath() string {
	return filepath.Join(c.LogsDir(), "kanban.log")
}

// Columns returns the active columns in display order.
func (c *Config) Columns() []string {
	return append([]string{}, c.Board.Columns...)
}

// HasColumn reports whether name is an active column.
func (c *Config) HasColumn(name string) bool {
	return contains(c.Board.Columns, name)
}

// Column normalises a user-supplied column name and checks it is active.
func (c *Config) Column(name string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if !c.HasColumn(normalized) {
		return "", fmt.Errorf("%w: %q (valid: %s)", ErrUnknownColumn, name, strings.Join(c.Board.Columns, ", "))
	}
	return normalized, nil
}

// ArchiveDays is the age after which done cards are archived; 0 disables it.
func (c *Config) ArchiveDays() int {
	return c.Board.ArchiveDays
}

// HideMine is the default for hiding the caller's own cards.
func (c *Config) HideMine() bool {
	return c.Board.HideMine
}

func (c *Config) loadBoardConfig() error {
	path := c.ConfigPath()
	v := environment()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: parse %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	// The bool decoder rejects "yes", which KANBAN_HIDE_MINE accepts.
	if raw := v.GetString("hide_mine"); raw != "" {
		v.Set("hide_mine", truthy(raw))
	}

	parsed := c.Board
	if err := v.Unmarshal(&parsed); err != nil {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.Board = parsed
	return nil
}

// environment returns a viper instance with the KANBAN_* overrides bound to
// their config keys. Empty variables count as unset.
func environment() *viper.Viper {
	v := viper.New()
	for key, name := range map[string]string{
		"root":         EnvRoot,
		"archive_days": EnvArchiveDays,
		"hide_mine":    EnvHideMine,
	} {
		// BindEnv only fails when called without a key.
		_ = v.BindEnv(key, name)
	}
	return v
}

func defaultBoardConfig() BoardConfig {
	return BoardConfig{
		Version:     1,
		Columns:     append([]string{}, KnownColumns...),
		ArchiveDays: DefaultArchiveDays,
		Priority:    PriorityConfig{Baseline: defaultBaseline, Step: defaultStep},
	}
}

func (bc *BoardConfig) applyDefaults() {
	if bc.Version == 0 {
		bc.Version = 1
	}
	if len(bc.Columns) == 0 {
		bc.Columns = append([]string{}, KnownColumns...)
	}
	if bc.Priority.Baseline == 0 {
		bc.Priority.Baseline = defaultBaseline
	}
	if bc.Priority.Step == 0 {
		bc.Priority.Step = defaultStep
	}
}

func (bc *BoardConfig) normalize() {
	seen := make(map[string]bool, len(bc.Columns))
	columns := make([]string, 0, len(bc.Columns))
	for _, col := range bc.Columns {
		col = strings.ToLower(strings.TrimSpace(col))
		if col == "" || seen[col] {
			continue
		}
		seen[col] = true
		columns = append(columns, col)
	}
	bc.Columns = columns
}

func (bc *BoardConfig) validate() error {
	if bc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	for _, col := range bc.Columns {
		if !contains(KnownColumns, col) {
			return fmt.Errorf("columns: %w: %q", ErrUnknownColumn, col)
		}
	}
	for _, col := range requiredColumns {
		if !contains(bc.Columns, col) {
			return fmt.Errorf("columns: %s is required", col)
		}
	}
	if bc.ArchiveDays < 0 {
		return fmt.Errorf("archive_days must be >= 0")
	}
	if bc.Priority.Step < 1 {
		return fmt.Errorf("priority.step must be >= 1")
	}
	return nil
}

func truthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func ensureBoardConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultBoardConfigYAML), 0o644)
}

// Save validates the board settings and writes them back to config.yaml.
func (c *Config) Save() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.Board.applyDefaults()
	c.Board.normalize()
	if err := c.Board.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.Root, 0o755); err != nil {
		return fmt.Errorf("config: ensure board dir: %w", err)
	}
	data, err := yaml.Marshal(c.Board)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("config: write board config: %w", err)
	}
	return nil
}
