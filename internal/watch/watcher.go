package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceWindow coalesces bursts of filesystem events into one refresh.
const DebounceWindow = 100 * time.Millisecond

// Watcher reports card document changes anywhere under a board root.
type Watcher struct {
	root   string
	skip   map[string]bool
	fs     *fsnotify.Watcher
	window time.Duration
}

// NewWatcher watches root and every directory below it, except the named
// top-level directories (logs would otherwise trigger their own refreshes).
func NewWatcher(root string, skip ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: start watcher: %w", err)
	}
	w := &Watcher{root: root, skip: make(map[string]bool), fs: fw, window: DebounceWindow}
	for _, name := range skip {
		w.skip[filepath.Join(root, name)] = true
	}
	if err := w.addTree(root); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.skip[path] {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("watch: add %s: %w", path, err)
		}
		return nil
	})
}

// Run forwards relevant events, debounced, to notify until ctx is done.
func (w *Watcher) Run(ctx context.Context, notify func()) error {
	defer w.fs.Close()
	signals := make(chan struct{}, 1)
	go coalesce(ctx, signals, w.window, notify)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch: %w", err)
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && !w.skipped(ev.Name) {
					_ = w.addTree(ev.Name)
				}
			}
			if !w.relevant(ev) {
				continue
			}
			select {
			case signals <- struct{}{}:
			default:
			}
		}
	}
}

func (w *Watcher) skipped(path string) bool {
	for dir := range w.skip {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// relevant keeps card documents and directory renames; lock and temp files
// are ignored.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
		return false
	}
	if w.skipped(ev.Name) {
		return false
	}
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	if strings.HasSuffix(base, ".json") {
		return true
	}
	return filepath.Ext(base) == ""
}

// coalesce calls notify once per quiet period after signals arrive. A signal
// during the window restarts it.
func coalesce(ctx context.Context, in <-chan struct{}, window time.Duration, notify func()) {
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-in:
			if !ok {
				return
			}
			if timer == nil {
				timer = time.NewTimer(window)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(window)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			notify()
		}
	}
}
