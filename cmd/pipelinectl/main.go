// Command pipelinectl inspects the lead and job lifecycles, scores leads
// against a rule file and queues background rescoring.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// errRejected marks a check that ran cleanly but did not pass.
var errRejected = errors.New("rejected")

type options struct {
	jsonOutput bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "pipelinectl <command>",
		Short:         "Inspect the roofing pipeline lifecycles and lead scoring",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "output as JSON")

	root.AddGroup(
		&cobra.Group{ID: "lifecycle", Title: "Lifecycle:"},
		&cobra.Group{ID: "scoring", Title: "Scoring:"},
		&cobra.Group{ID: "reports", Title: "Reports:"},
	)

	root.AddCommand(newStatusesCmd(opts))
	root.AddCommand(newTransitionsCmd(opts))
	root.AddCommand(newCheckCmd(opts))
	root.AddCommand(newScoreCmd(opts))
	root.AddCommand(newEnqueueRescoreCmd(opts))
	root.AddCommand(newAgingCmd(opts))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errRejected) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
