// Package cli wires the kanban command tree. Each command group lives in its
// own file; they share the app, which opens the board lazily per invocation.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kingrea/kanban/internal/board"
	"github.com/kingrea/kanban/internal/config"
	"github.com/kingrea/kanban/internal/logbook"
	"github.com/kingrea/kanban/internal/logging"
	"github.com/kingrea/kanban/internal/priority"
	"github.com/kingrea/kanban/internal/render"
	"github.com/kingrea/kanban/internal/session"
	"github.com/kingrea/kanban/internal/store"
)

// Option customizes an invocation, mostly for tests.
type Option func(*app)

// WithClock fixes the time seen by the board and the logbook.
func WithClock(clock func() time.Time) Option {
	return func(a *app) {
		if clock != nil {
			a.now = clock
		}
	}
}

// WithEnv replaces environment lookups for the session label.
func WithEnv(getenv func(string) string) Option {
	return func(a *app) {
		if getenv != nil {
			a.getenv = getenv
		}
	}
}

// WithWorkDir sets the directory board discovery starts from.
func WithWorkDir(dir string) Option {
	return func(a *app) {
		a.cwd = dir
	}
}

type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
	now    func() time.Time
	cwd    string

	rootFlag    string
	sessionFlag string

	cfg    *config.Config
	store  *store.Store
	board  *board.Board
	book   *logbook.Logbook
	logger *logging.Logger

	answers *bufio.Reader
}

// Run executes one kanban command line and returns the process exit code.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer, opts ...Option) int {
	a := &app{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		getenv: os.Getenv,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.cwd == "" {
		if wd, err := os.Getwd(); err == nil {
			a.cwd = wd
		}
	}
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		a.reportError(err)
		return 1
	}
	return 0
}

func (a *app) reportError(err error) {
	var unmet *board.UnmetCriteriaError
	if errors.As(err, &unmet) {
		fmt.Fprintln(a.stderr, unmet.Error())
		return
	}
	fmt.Fprintln(a.stderr, "Error:", err)
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "kanban",
		Short: "File-based kanban board for coordinating agent sessions",
		Long: `kanban keeps a board of work cards as JSON documents under .kanban/.

Every caller works under a session label; cards are ordered per session and
column, and completion is gated on acceptance criteria.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.rootFlag, "root", "", "board directory (default: <git root>/.kanban, or $"+config.EnvRoot+")")
	root.PersistentFlags().StringVar(&a.sessionFlag, "session", "", "session label (default: $"+session.EnvSession+")")

	root.AddCommand(
		a.initCommand(),
		a.createCommand("todo", config.ColumnTodo, "Queue new card(s) in todo"),
		a.createCommand("do", config.ColumnDoing, "Create card(s) directly in doing"),
		a.startCommand(),
		a.transitionCommand("review", "Send a card from doing to review", board.OpReview),
		a.transitionCommand("redo", "Return a reviewed card to doing", board.OpRedo),
		a.transitionCommand("defer", "Put an active or reviewed card back in todo", board.OpDefer),
		a.doneCommand(),
		a.cancelCommand(),
		a.moveCommand(),
		a.reassignCommand(),
		a.criteriaCommand(),
		a.showCommand(),
		a.listCommand(),
		a.clearCommand(),
		a.deleteCommand(),
		a.sessionHookCommand(),
		a.whoamiCommand(),
	)
	return root
}

func (a *app) findRoot() (string, error) {
	return config.FindRoot(a.rootFlag, a.cwd)
}

// open resolves the root, initialises a missing board, identifies the caller
// and runs the archival sweep.
func (a *app) open() (*board.Board, error) {
	if a.board != nil {
		return a.board, nil
	}
	root, err := a.findRoot()
	if err != nil {
		return nil, err
	}
	if err := config.InitBoardDir(root); err != nil {
		return nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	book, err := logbook.New(cfg.LogPath(), logbook.WithClock(a.now))
	if err != nil {
		return nil, err
	}
	logger := logging.New(a.stderr, book)
	s := store.New(root, cfg.Columns(), store.WithWarner(logger))
	if err := s.Init(); err != nil {
		return nil, err
	}
	caller, err := a.resolveCaller(root, s, logger)
	if err != nil {
		return nil, err
	}
	b := board.New(cfg, s, caller, board.WithClock(a.now), board.WithLogger(logger))
	if _, err := b.Sweep(); err != nil {
		logger.Warnf("%v", err)
	}
	a.cfg, a.store, a.board, a.book, a.logger = cfg, s, b, book, logger
	return b, nil
}

func (a *app) resolveCaller(root string, s *store.Store, logger *logging.Logger) (string, error) {
	label := session.Label(a.sessionFlag, a.getenv)
	table := session.NewTable(root, session.WithLocker(s.Locked), session.WithWarner(logger))
	return session.Resolve(label, table)
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.stdout, format, args...)
}

func (a *app) printer() *render.Printer {
	return render.New(a.stdout)
}

// parseID accepts "7" or "#7".
func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(arg), "#"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid card number %q", arg)
	}
	return id, nil
}

func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := parseID(arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// readPayload returns the JSON argument, or stdin when it is absent or "-".
func (a *app) readPayload(args []string) ([]byte, error) {
	if len(args) > 0 && args[0] != "-" {
		return []byte(args[0]), nil
	}
	data, err := io.ReadAll(a.stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return data, nil
}

// confirm asks a yes/no question on stderr and reads the answer from stdin.
func (a *app) confirm(prompt string) bool {
	fmt.Fprintf(a.stderr, "%s [y/N] ", prompt)
	if a.answers == nil {
		a.answers = bufio.NewReader(a.stdin)
	}
	line, _ := a.answers.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// positionFlags are the shared --top/--bottom/--after/--before flags.
type positionFlags struct {
	top    bool
	bottom bool
	after  int
	before int
}

func (p *positionFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&p.top, "top", false, "place above the session's other cards")
	cmd.Flags().BoolVar(&p.bottom, "bottom", false, "place below the session's other cards")
	cmd.Flags().IntVar(&p.after, "after", 0, "place directly after card `N`")
	cmd.Flags().IntVar(&p.before, "before", 0, "place directly before card `N`")
}

func (p *positionFlags) position() (priority.Position, error) {
	var picked []priority.Position
	if p.top {
		picked = append(picked, priority.AtTop())
	}
	if p.bottom {
		picked = append(picked, priority.AtBottom())
	}
	if p.after > 0 {
		picked = append(picked, priority.AfterCard(p.after))
	}
	if p.before > 0 {
		picked = append(picked, priority.BeforeCard(p.before))
	}
	switch len(picked) {
	case 0:
		return priority.Position{}, nil
	case 1:
		return picked[0], nil
	}
	return priority.Position{}, errors.New("use only one of --top, --bottom, --after, --before")
}
