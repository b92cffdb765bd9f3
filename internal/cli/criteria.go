package cli

import (
	"errors"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func (a *app) criteriaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "criteria",
		Aliases: []string{"ac"},
		Short:   "Manage a card's acceptance criteria",
		Long: `Manage a card's acceptance criteria.

Criteria are referenced by 1-based number or by a case-insensitive prefix of
their text.`,
	}
	cmd.AddCommand(
		a.criteriaAddCommand(),
		a.criteriaRemoveCommand(),
		a.criteriaCheckCommand(),
		a.criteriaUncheckCommand(),
	)
	return cmd
}

func (a *app) criteriaAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add N TEXT",
		Short: "Append an unmet criterion",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			text := strings.Join(args[1:], " ")
			b, err := a.open()
			if err != nil {
				return err
			}
			if _, err := b.AddCriterion(id, text); err != nil {
				return err
			}
			a.printf("Added criterion to #%d: %s\n", id, strings.TrimSpace(text))
			return nil
		},
	}
}

func (a *app) criteriaRemoveCommand() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "remove N INDEX [REASON]",
		Short: "Remove a criterion; a reason is required",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return errors.New("criterion to remove must be a number")
			}
			if len(args) == 3 && reason == "" {
				reason = args[2]
			}
			b, err := a.open()
			if err != nil {
				return err
			}
			removed, _, err := b.RemoveCriterion(id, n, reason)
			if err != nil {
				return err
			}
			a.printf("Removed criterion from #%d: %s\n", id, removed.Text)
			a.printf("Reason: %s\n", strings.TrimSpace(reason))
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "why the criterion no longer applies")
	return cmd
}

func (a *app) criteriaCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check N REF...",
		Short: "Mark criteria met",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			b, err := a.open()
			if err != nil {
				return err
			}
			changed, _, err := b.CheckCriteria(id, args[1:])
			if err != nil {
				return err
			}
			for _, c := range changed {
				a.printf("✅ Checked: %s\n", c.Text)
			}
			return nil
		},
	}
}

func (a *app) criteriaUncheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "uncheck N REF...",
		Short: "Mark criteria unmet",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			b, err := a.open()
			if err != nil {
				return err
			}
			changed, _, err := b.UncheckCriteria(id, args[1:])
			if err != nil {
				return err
			}
			for _, c := range changed {
				a.printf("⬜ Unchecked: %s\n", c.Text)
			}
			return nil
		},
	}
}
