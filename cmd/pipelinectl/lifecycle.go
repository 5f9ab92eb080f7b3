package main

import (
	"fmt"
	"strings"

	"roofing_backend/internal/lifecycle"

	"github.com/spf13/cobra"
)

type statusRow struct {
	Status   string `json:"status"`
	Label    string `json:"label"`
	Terminal bool   `json:"terminal"`
}

type checkResult struct {
	Kind    string   `json:"kind"`
	From    string   `json:"from"`
	To      string   `json:"to"`
	Valid   bool     `json:"valid"`
	Allowed []string `json:"allowed"`
}

func tableArg(raw string) (*lifecycle.Table, error) {
	table := lifecycle.TableFor(lifecycle.Kind(strings.ToLower(strings.TrimSpace(raw))))
	if table == nil {
		return nil, fmt.Errorf("unknown kind %q (must be lead or job)", raw)
	}
	return table, nil
}

func statusRows(table *lifecycle.Table, statuses []lifecycle.Status) []statusRow {
	rows := make([]statusRow, len(statuses))
	for i, s := range statuses {
		rows[i] = statusRow{Status: string(s), Label: table.Label(s), Terminal: table.IsTerminal(s)}
	}
	return rows
}

func newStatusesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "statuses <lead|job>",
		Short:   "List the statuses of a lifecycle in order",
		GroupID: "lifecycle",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := tableArg(args[0])
			if err != nil {
				return err
			}
			rows := statusRows(table, table.Statuses())
			if opts.jsonOutput {
				return printJSON(cmd.OutOrStdout(), rows)
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "STATUS\tLABEL\tTERMINAL")
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%t\n", r.Status, r.Label, r.Terminal)
			}
			return tw.Flush()
		},
	}
}

func newTransitionsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "transitions <lead|job> <status>",
		Short:   "List the statuses reachable in one step",
		GroupID: "lifecycle",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := tableArg(args[0])
			if err != nil {
				return err
			}
			from := lifecycle.Status(strings.ToLower(strings.TrimSpace(args[1])))
			rows := statusRows(table, lifecycle.AllowedTransitions(table, from))
			if opts.jsonOutput {
				return printJSON(cmd.OutOrStdout(), rows)
			}

			if len(rows) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No transitions from %s\n", from)
				return nil
			}
			for _, r := range rows {
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%s)\n", from, r.Status, r.Label)
			}
			return nil
		},
	}
}

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "check <lead|job> <from> <to>",
		Short:   "Check a single status transition; exits 1 when it is not allowed",
		GroupID: "lifecycle",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := tableArg(args[0])
			if err != nil {
				return err
			}
			from := lifecycle.Status(strings.ToLower(strings.TrimSpace(args[1])))
			to := lifecycle.Status(strings.ToLower(strings.TrimSpace(args[2])))

			res := checkResult{
				Kind:    string(table.Kind()),
				From:    string(from),
				To:      string(to),
				Valid:   lifecycle.IsValidTransition(table, from, to),
				Allowed: lifecycle.StatusStrings(lifecycle.AllowedTransitions(table, from)),
			}
			if opts.jsonOutput {
				if err := printJSON(cmd.OutOrStdout(), res); err != nil {
					return err
				}
			} else if res.Valid {
				fmt.Fprintf(cmd.OutOrStdout(), "ok: %s -> %s\n", from, to)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "invalid transition: %s -> %s (allowed: %s)\n", from, to, strings.Join(res.Allowed, ", "))
			}

			if !res.Valid {
				return errRejected
			}
			return nil
		},
	}
}
