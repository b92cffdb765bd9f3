package cli

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/kingrea/kanban/internal/board"
	"github.com/kingrea/kanban/internal/render"
	"github.com/kingrea/kanban/internal/session"
	"github.com/kingrea/kanban/internal/watch"
)

type listOptions struct {
	columns      []string
	showDone     bool
	showCanceled bool
	showAll      bool
	archived     bool
	onlyMine     bool
	showMine     bool
	hideMine     bool
	since        string
	until        string
	file         string
	style        string
	watch        bool
}

func (a *app) listCommand() *cobra.Command {
	var opts listOptions
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show the board",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runList(cmd.Context(), opts)
		},
	}
	f := cmd.Flags()
	f.StringArrayVar(&opts.columns, "column", nil, "column(s) to show; repeatable or comma-separated")
	f.BoolVar(&opts.showDone, "show-done", false, "include the done column")
	f.BoolVar(&opts.showCanceled, "show-canceled", false, "include the canceled column")
	f.BoolVar(&opts.showAll, "show-all", false, "include every column")
	f.BoolVar(&opts.archived, "archived", false, "also list cards in cold storage")
	f.BoolVar(&opts.onlyMine, "only-mine", false, "hide other sessions' cards")
	f.BoolVar(&opts.showMine, "show-mine", false, "show your own cards even when hidden by default")
	f.BoolVar(&opts.hideMine, "hide-mine", false, "hide your own cards")
	f.StringVar(&opts.since, "since", "", "only cards updated since (today, yesterday, week, month, YYYY-MM-DD)")
	f.StringVar(&opts.until, "until", "", "only cards updated until (same forms as --since)")
	f.StringVar(&opts.file, "file", "", "only cards reading or editing files matching `GLOB`")
	f.StringVarP(&opts.style, "output-style", "o", string(render.Simple), "simple, detail or xml")
	f.BoolVarP(&opts.watch, "watch", "w", false, "redraw whenever the board changes")
	return cmd
}

func (a *app) runList(ctx context.Context, opts listOptions) error {
	style, err := render.ParseStyle(opts.style)
	if err != nil {
		return err
	}
	b, err := a.open()
	if err != nil {
		return err
	}
	columns, err := b.SelectColumns(opts.columns, opts.showDone, opts.showCanceled, opts.showAll)
	if err != nil {
		return err
	}
	filter := board.Filter{Columns: columns, Archived: opts.archived, FileGlob: opts.file}
	now := a.now()
	if filter.Since, err = board.ParseDateFilter(opts.since, now); err != nil {
		return err
	}
	if filter.Until, err = board.ParseDateFilter(opts.until, now); err != nil {
		return err
	}
	flags := session.Flags{
		OnlyMine:        opts.onlyMine,
		ShowMine:        opts.showMine,
		HideMine:        opts.hideMine,
		HideMineDefault: a.cfg.HideMine(),
	}
	if a.sessionFlag != "" {
		flags.Explicit = b.Caller()
	}
	vis := session.Visible(b.Caller(), flags)
	if style == render.XML && vis.Explicit {
		// Agents naming their session still get the others' rows.
		vis.OnlyMine = false
	}

	frame := func(f watch.Filters, detail bool) (string, error) {
		view := filter
		view.SessionPrefix = f.Session
		view.CardPrefix = f.Card
		listing, err := b.List(view, vis)
		if err != nil {
			return "", err
		}
		st := style
		if detail {
			st = render.Detail
		}
		return a.printer().Board(listing, st), nil
	}
	if opts.watch {
		return a.watch(ctx, frame, style == render.Detail)
	}
	out, err := frame(watch.Filters{}, style == render.Detail)
	if err != nil {
		return err
	}
	a.printf("%s", out)
	return nil
}

func (a *app) showCommand() *cobra.Command {
	var style string
	var watchFlag bool
	cmd := &cobra.Command{
		Use:   "show N",
		Short: "Show one card in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			st, err := render.ParseStyle(style)
			if err != nil {
				return err
			}
			b, err := a.open()
			if err != nil {
				return err
			}
			frame := func(_ watch.Filters, detail bool) (string, error) {
				e, err := b.Get(id)
				if err != nil {
					return "", err
				}
				return a.printer().Card(e, st), nil
			}
			if watchFlag {
				return a.watch(cmd.Context(), frame, st == render.Detail)
			}
			out, err := frame(watch.Filters{}, false)
			if err != nil {
				return err
			}
			a.printf("%s", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&style, "output-style", "o", string(render.Simple), "simple, detail or xml")
	cmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "redraw whenever the card changes")
	return cmd
}

// watch runs the live view until quit or interrupt.
func (a *app) watch(ctx context.Context, frame watch.RenderFunc, detail bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	return watch.Run(ctx, watch.Options{
		Root:   a.board.Root(),
		Skip:   []string{"logs"},
		Render: frame,
		Book:   a.book,
		Detail: detail,
		In:     a.stdin,
		Out:    a.stdout,
	})
}
