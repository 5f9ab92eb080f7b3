package main

import (
	"fmt"
	"time"

	"roofing_backend/internal/reports/aging"

	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

type agingRow struct {
	Due         string `json:"due"`
	DaysOverdue int    `json:"daysOverdue"`
	Bucket      string `json:"bucket"`
}

func newAgingCmd(opts *options) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:     "aging <due-date>...",
		Short:   "Classify due dates into receivable aging buckets",
		GroupID: "reports",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := time.Now().UTC()
			if asOf != "" {
				parsed, err := time.Parse(dateLayout, asOf)
				if err != nil {
					return fmt.Errorf("invalid --as-of: %w", err)
				}
				ref = parsed
			}

			rows := make([]agingRow, 0, len(args))
			for _, raw := range args {
				due, err := time.Parse(dateLayout, raw)
				if err != nil {
					return fmt.Errorf("invalid due date %q: %w", raw, err)
				}
				days := aging.DaysOverdue(&due, ref)
				rows = append(rows, agingRow{Due: raw, DaysOverdue: days, Bucket: aging.Classify(days)})
			}

			if opts.jsonOutput {
				return printJSON(cmd.OutOrStdout(), rows)
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "DUE\tDAYS OVERDUE\tBUCKET")
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", r.Due, r.DaysOverdue, r.Bucket)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "reference date (YYYY-MM-DD, defaults to today UTC)")
	return cmd
}
