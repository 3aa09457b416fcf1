package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"eventschema/internal/pipeline"
)

func newInspectCmd(root *rootOptions) *cobra.Command {
	var only string
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the merged structure and report notes of each event type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			run, err := root.loadRun(cmd)
			if err != nil {
				return err
			}
			logger := root.logger(cmd)

			r, chans, cleanup, err := pipeline.Build(cmd.Context(), run, pipeline.Options{SkipPublish: true, SkipCatalog: true}, logger)
			if err != nil {
				return err
			}
			defer cleanup()
			r.Generators = nil

			sum, err := r.Run(cmd.Context(), "inspect", chans)
			if err != nil {
				return err
			}
			found := false
			for _, o := range sum.Outcomes {
				if only != "" && o.EventType != only {
					continue
				}
				found = true
				printOutcome(cmd.OutOrStdout(), o)
			}
			if only != "" && !found {
				return fmt.Errorf("event type %q not observed", only)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&only, "event-type", "e", "", "only print this event type")
	return cmd
}

func printOutcome(w io.Writer, o pipeline.Outcome) {
	fmt.Fprintf(w, "== %s (%s, %d samples, channels: %s)\n", o.EventType, o.Kind(), o.Samples, strings.Join(o.Channels, ", "))
	if o.Err != nil {
		fmt.Fprintf(w, "  error: %v\n", o.Err)
	}
	if o.Structure != nil {
		for _, line := range o.Structure.Tree.DotNotation() {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
	for _, note := range o.Report {
		fmt.Fprintf(w, "  note: %s\n", note)
	}
}
