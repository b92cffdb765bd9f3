package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kingrea/kanban/internal/board"
	"github.com/kingrea/kanban/internal/config"
	"github.com/kingrea/kanban/internal/logging"
	"github.com/kingrea/kanban/internal/session"
	"github.com/kingrea/kanban/internal/store"
)

var errAborted = errors.New("aborted")

func (a *app) initCommand() *cobra.Command {
	var withoutReview bool
	cmd := &cobra.Command{
		Use:   "init [PATH]",
		Short: "Create the board directory structure",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flag := a.rootFlag
			if len(args) == 1 {
				flag = args[0]
			}
			root, err := config.FindRoot(flag, a.cwd)
			if err != nil {
				return err
			}
			if err := config.InitBoardDir(root); err != nil {
				return err
			}
			cfg, err := config.Load(root)
			if err != nil {
				return err
			}
			if withoutReview && cfg.HasColumn(config.ColumnReview) {
				var cols []string
				for _, col := range cfg.Columns() {
					if col != config.ColumnReview {
						cols = append(cols, col)
					}
				}
				cfg.Board.Columns = cols
				if err := cfg.Save(); err != nil {
					return err
				}
			}
			if err := store.New(root, cfg.Columns()).Init(); err != nil {
				return err
			}
			a.printf("Kanban board ready at: %s\n", root)
			return nil
		},
	}
	cmd.Flags().BoolVar(&withoutReview, "without-review", false, "configure the board without a review column")
	return cmd
}

func (a *app) reassignCommand() *cobra.Command {
	var to, from string
	var columns []string
	cmd := &cobra.Command{
		Use:   "reassign [N...] --to NAME|none",
		Short: "Hand cards to another session, or make them ownerless",
		Long: `Hand cards to another session, or make them ownerless.

Select cards by number, or by --from (a glob over session names; "none"
selects ownerless cards) optionally limited with --column.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			b, err := a.open()
			if err != nil {
				return err
			}
			target := to
			if session.IsUUID(target) {
				table := session.NewTable(b.Root(), session.WithLocker(a.store.Locked), session.WithWarner(a.logger))
				if target, err = session.Resolve(target, table); err != nil {
					return err
				}
			}
			moved, err := b.Reassign(board.Selector{IDs: ids, From: from, Columns: columns}, target)
			if err != nil {
				return err
			}
			if len(moved) == 0 {
				a.printf("No cards matched.\n")
				return nil
			}
			for _, e := range moved {
				a.printf("Reassigned: #%d -> %s\n", e.ID, sessionOrNone(e.Card.Session))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", `new owning session ("none" for ownerless)`)
	cmd.Flags().StringVar(&from, "from", "", `select cards whose session matches GLOB ("none" for ownerless)`)
	cmd.Flags().StringArrayVar(&columns, "column", nil, "limit --from to these columns")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func sessionOrNone(s string) string {
	if s == "" {
		return board.NoSession
	}
	return s
}

func (a *app) clearCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "clear COLUMN...",
		Short: "Delete every card in the given columns",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.open()
			if err != nil {
				return err
			}
			columns, err := b.SelectColumns(args, false, false, false)
			if err != nil {
				return err
			}
			names := strings.Join(columns, ", ")
			if !force && !a.confirm(fmt.Sprintf("Delete all cards in %s?", names)) {
				return errAborted
			}
			n, err := b.Clear(columns)
			if err != nil {
				return err
			}
			a.printf("Cleared %d card(s) from %s\n", n, names)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")
	return cmd
}

func (a *app) deleteCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete N",
		Short: "Delete one card permanently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			b, err := a.open()
			if err != nil {
				return err
			}
			e, err := b.Get(id)
			if err != nil {
				return err
			}
			if !force && !a.confirm(fmt.Sprintf("Delete card #%d (%s)?", id, e.Card.Action)) {
				return errAborted
			}
			if _, err := b.Delete(id); err != nil {
				return err
			}
			a.printf("Deleted: #%d\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")
	return cmd
}

type hookInput struct {
	SessionID string `json:"session_id"`
	AgentType string `json:"agent_type"`
}

func (a *app) sessionHookCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "session-hook",
		Short: "Print session instructions for an agent start hook (reads JSON on stdin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := io.ReadAll(a.stdin)
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			var in hookInput
			if err := json.Unmarshal(data, &in); err != nil {
				return fmt.Errorf("invalid hook payload: %w", err)
			}
			id := strings.TrimSpace(in.SessionID)
			if id == "" || in.AgentType != "" {
				return nil
			}
			root, err := a.findRoot()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(root, 0o755); err != nil {
				return err
			}
			key := id
			if session.IsUUID(id) {
				key = session.TableKey(id)
			} else if len(key) > 8 {
				key = key[:8]
			}
			table := session.NewTable(root,
				session.WithLocker(store.New(root, nil).Locked),
				session.WithWarner(logging.New(a.stderr, nil)))
			name, err := table.Name(key)
			if err != nil {
				return err
			}
			a.printf("🔖 Your kanban session is: %s\n\n", name)
			a.printf("You MUST use --session %s on ALL kanban commands:\n", name)
			a.printf("  kanban list --session %s\n", name)
			a.printf("  kanban do '{\"intent\":\"...\",\"action\":\"...\"}' --session %s\n", name)
			a.printf("  kanban show 5 --session %s\n", name)
			a.printf("  kanban review 5 --session %s\n", name)
			a.printf("  kanban done 5 'summary' --session %s\n", name)
			return nil
		},
	}
}

func (a *app) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the session label commands run under",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.open()
			if err != nil {
				return err
			}
			a.printf("%s\n", sessionOrNone(b.Caller()))
			return nil
		},
	}
}
