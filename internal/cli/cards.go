package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kingrea/kanban/internal/board"
	"github.com/kingrea/kanban/internal/card"
)

func (a *app) createCommand(use, column, short string) *cobra.Command {
	var pos positionFlags
	cmd := &cobra.Command{
		Use:   use + " [JSON|-]",
		Short: short,
		Long: short + `.

The payload is one JSON object or an array of objects:
  {"action": "...", "intent": "...", "editFiles": [...], "readFiles": [...],
   "criteria": ["..."], "persona": "...", "model": "haiku|sonnet|opus"}

When the session already has cards in the column, give a position.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pos.position()
			if err != nil {
				return err
			}
			payload, err := a.readPayload(args)
			if err != nil {
				return err
			}
			drafts, err := card.ParseDrafts(payload)
			if err != nil {
				return err
			}
			b, err := a.open()
			if err != nil {
				return err
			}
			entries, err := b.Create(column, drafts, p)
			if err != nil {
				return err
			}
			for _, e := range entries {
				a.printf("%d\n", e.ID)
			}
			return nil
		},
	}
	pos.register(cmd)
	return cmd
}

func (a *app) startCommand() *cobra.Command {
	var pos positionFlags
	cmd := &cobra.Command{
		Use:   "start N...",
		Short: "Move queued card(s) from todo to doing",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			p, err := pos.position()
			if err != nil {
				return err
			}
			b, err := a.open()
			if err != nil {
				return err
			}
			entries, err := b.Start(ids, p)
			if err != nil {
				return err
			}
			for _, e := range entries {
				a.printf("Started: #%d - moved to doing\n", e.ID)
			}
			return nil
		},
	}
	pos.register(cmd)
	return cmd
}

func (a *app) transitionCommand(use, short string, op board.Op) *cobra.Command {
	var pos positionFlags
	cmd := &cobra.Command{
		Use:   use + " N",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := pos.position()
			if err != nil {
				return err
			}
			b, err := a.open()
			if err != nil {
				return err
			}
			switch op {
			case board.OpReview:
				if _, err := b.SendToReview(id, p); err != nil {
					return err
				}
				a.printf("Moved: #%d -> %s/\n", id, board.Target(op))
			case board.OpRedo:
				if _, err := b.Redo(id, p); err != nil {
					return err
				}
				a.printf("Redo: #%d - moved back to %s\n", id, board.Target(op))
			case board.OpDefer:
				if _, err := b.Defer(id, p); err != nil {
					return err
				}
				a.printf("Deferred: #%d - moved to %s\n", id, board.Target(op))
			default:
				return fmt.Errorf("unsupported transition %s", op)
			}
			return nil
		},
	}
	pos.register(cmd)
	return cmd
}

func (a *app) doneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "done N [message]",
		Short: "Complete a card; every acceptance criterion must be met",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			message := ""
			if len(args) > 1 {
				message = strings.TrimSpace(args[1])
			}
			b, err := a.open()
			if err != nil {
				return err
			}
			if _, err := b.Done(id, message); err != nil {
				return err
			}
			if message == "" {
				a.printf("Done: #%d\n", id)
			} else {
				a.printf("Done: #%d - %s\n", id, message)
			}
			return nil
		},
	}
}

func (a *app) cancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel N [reason]",
		Short: "Abandon a card",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			reason := ""
			if len(args) > 1 {
				reason = strings.TrimSpace(args[1])
			}
			b, err := a.open()
			if err != nil {
				return err
			}
			if _, err := b.Cancel(id, reason); err != nil {
				return err
			}
			if reason == "" {
				a.printf("Canceled: #%d\n", id)
			} else {
				a.printf("Canceled: #%d - %s\n", id, reason)
			}
			return nil
		},
	}
}

func (a *app) moveCommand() *cobra.Command {
	var pos positionFlags
	cmd := &cobra.Command{
		Use:   "move N COLUMN",
		Short: "Move a card to any column, skipping lifecycle checks",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := pos.position()
			if err != nil {
				return err
			}
			b, err := a.open()
			if err != nil {
				return err
			}
			e, err := b.Move(id, args[1], p)
			if err != nil {
				return err
			}
			if p.IsZero() {
				a.printf("Moved: #%d -> %s/\n", id, e.Column)
			} else {
				a.printf("Moved: #%d -> %s/ (%s)\n", id, e.Column, p)
			}
			return nil
		},
	}
	pos.register(cmd)
	return cmd
}
