package main

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"eventschema/internal/config"
)

// errInvalidConfig is returned after validation issues have been printed.
var errInvalidConfig = errors.New("configuration is invalid")

type rootOptions struct {
	cfgPath string
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "schemagen",
		Short:         "Infer event schemas and generate view and ETL definitions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.cfgPath, "config", "c", "schemagen.yaml", "run config path (.yaml, .yml or .json)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logs")

	cmd.AddCommand(newValidateCmd(opts))
	cmd.AddCommand(newInspectCmd(opts))
	cmd.AddCommand(newGenerateCmd(opts))
	return cmd
}

// logger writes component logs to the command's stderr. Without --verbose
// only warnings and failures get through.
func (o *rootOptions) logger(cmd *cobra.Command) *log.Logger {
	w := cmd.ErrOrStderr()
	if !o.verbose {
		w = &quietWriter{w: w}
	}
	return log.New(w, "", log.LstdFlags)
}

// loadRun loads the run file, applies defaults and prints validation issues
// as "severity: path: message". It fails when any issue is an error.
func (o *rootOptions) loadRun(cmd *cobra.Command) (config.Run, error) {
	run, err := config.Load(o.cfgPath)
	if err != nil {
		return config.Run{}, err
	}
	run.ApplyDefaults()
	issues := run.Validate()
	printIssues(cmd.ErrOrStderr(), issues)
	if config.HasErrors(issues) {
		return config.Run{}, fmt.Errorf("%s: %w", o.cfgPath, errInvalidConfig)
	}
	return run, nil
}

func printIssues(w io.Writer, issues []config.Issue) {
	for _, iss := range issues {
		fmt.Fprintf(w, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
}
