package main

import (
	"fmt"

	"roofing_backend/internal/leads/scoring"

	"github.com/spf13/cobra"
)

func newScoreCmd(opts *options) *cobra.Command {
	var (
		in        scoring.Input
		rulesPath string
	)

	cmd := &cobra.Command{
		Use:     "score",
		Short:   "Score a lead description against the default or a custom rule file",
		GroupID: "scoring",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := scoring.NewStore(nil)
			if rulesPath != "" {
				if err := store.Reload(rulesPath); err != nil {
					return err
				}
			}

			res := store.Score(in)
			if opts.jsonOutput {
				return printJSON(cmd.OutOrStdout(), res)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Score: %d (%s)\n", res.Score, res.Tier)
			tw := newTable(out)
			for _, f := range res.Factors {
				fmt.Fprintf(tw, "  %s\t+%d\n", f.Name, f.Points)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&in.JobType, "job-type", "", "job type, e.g. full_replacement")
	cmd.Flags().StringVar(&in.Timeline, "timeline", "", "urgency, e.g. within_week")
	cmd.Flags().IntVar(&in.PhotoCount, "photos", 0, "number of photos attached")
	cmd.Flags().BoolVar(&in.HasInsuranceClaim, "insurance", false, "lead has an insurance claim")
	cmd.Flags().Float64Var(&in.RoofSizeSqFt, "roof-sqft", 0, "roof size in square feet")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "YAML rule file (defaults apply when empty)")
	return cmd
}
