package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"eventschema/internal/pipeline"
)

type generateOptions struct {
	runID string
	out   string
}

func newGenerateCmd(root *rootOptions) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Collect samples, merge structures and publish generated definitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			run, err := root.loadRun(cmd)
			if err != nil {
				return err
			}
			if opts.out != "" {
				run.Output.Dir = opts.out
			}
			logger := root.logger(cmd)

			flush := setupMetrics(run.Metrics, run.Job, logger)
			defer flush()

			ctx := cmd.Context()
			start := time.Now()
			r, chans, cleanup, err := pipeline.Build(ctx, run, pipeline.Options{}, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			sum, err := r.Run(ctx, opts.runID, chans)
			if sum != nil {
				printOutcomes(cmd.OutOrStdout(), sum)
			}
			if err != nil {
				return err
			}
			logger.Printf("generate: completed in %s", time.Since(start).Truncate(time.Millisecond))

			if _, _, failed := sum.Counts(); failed > 0 {
				return fmt.Errorf("%d event type(s) failed", failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.runID, "run-id", "", "run identifier (default: random UUID)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output directory (overrides output.dir)")
	return cmd
}

func printOutcomes(w io.Writer, sum *pipeline.Summary) {
	fmt.Fprintf(w, "run %s\n", sum.RunID)
	for _, o := range sum.Outcomes {
		if o.Err != nil {
			fmt.Fprintf(w, "%-40s %-12s %v\n", o.EventType, o.Kind(), o.Err)
			continue
		}
		fmt.Fprintf(w, "%-40s %-12s samples=%d artifacts=%d notes=%d\n", o.EventType, o.Kind(), o.Samples, len(o.Artifacts), len(o.Report))
	}
}
