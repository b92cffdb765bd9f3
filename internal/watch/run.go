package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/kingrea/kanban/internal/logbook"
)

// Options configure a live view session.
type Options struct {
	Root    string
	Skip    []string
	Render  RenderFunc
	Book    *logbook.Logbook
	Filters Filters
	Detail  bool
	In      io.Reader
	Out     io.Writer
}

// Interactive reports whether r is a terminal that can drive the key loop.
func Interactive(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Run watches the board and redraws until the user quits or ctx ends. A
// watcher that cannot start is fatal; a missing terminal only disables keys.
func Run(ctx context.Context, opts Options) error {
	if opts.Render == nil {
		return errors.New("watch: no renderer")
	}
	w, err := NewWatcher(opts.Root, opts.Skip...)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	interactive := Interactive(opts.In)
	if interactive {
		fmt.Fprintf(opts.Out, "Watching %s for changes... (Press ? for help)\n", opts.Root)
	} else {
		fmt.Fprintf(opts.Out, "Watching %s for changes... (Ctrl+C to exit)\n", opts.Root)
	}

	model := NewModel(opts.Render, opts.Book, interactive, opts.Filters, opts.Detail)
	progOpts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithOutput(opts.Out), tea.WithAltScreen()}
	if interactive {
		progOpts = append(progOpts, tea.WithInput(opts.In))
	} else {
		progOpts = append(progOpts, tea.WithInput(nil))
	}
	p := tea.NewProgram(model, progOpts...)

	watchErr := make(chan error, 1)
	go func() {
		err := w.Run(ctx, func() { p.Send(refreshMsg{}) })
		if err != nil {
			p.Send(stoppedMsg{err: err})
		}
		watchErr <- err
	}()

	_, err = p.Run()
	cancel()
	if werr := <-watchErr; werr != nil {
		return werr
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch: %w", err)
	}
	return nil
}
