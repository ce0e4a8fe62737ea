package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mapforge/internal/config"
	"mapforge/internal/diagshell"
	"mapforge/internal/format"
	"mapforge/internal/logging"
	"mapforge/internal/pipeline"
)

func runExtract(cmd *cobra.Command, _ []string) error {
	opts := config.Options{
		Maps:       rootFlags.maps,
		Vmaps:      rootFlags.vmaps,
		Mmaps:      rootFlags.mmaps,
		Verbose:    rootFlags.verbose,
		Shell:      rootFlags.shell,
		LogFile:    rootFlags.logFile,
		ConfigFile: rootFlags.configFile,
	}
	// Only explicitly-set directory flags override the overlay file.
	if cmd.Flags().Changed("input") {
		opts.Input = rootFlags.input
	}
	if cmd.Flags().Changed("output") {
		opts.Output = rootFlags.output
	}

	cfg, err := config.Resolve(opts)
	if err != nil {
		return err
	}
	initLogging(cfg)

	// Hard precondition: never invoke a tool against a client tree without Data.
	if err := config.ValidateInput(cfg.InputDir); err != nil {
		return err
	}

	if cfg.Verbose {
		cfg.Echo(cmd.OutOrStdout())
	}

	return extract(cmd.Context(), cfg, nil, os.Stdin, cmd.OutOrStdout())
}

// extract runs the pipeline and, on unexpected failure with the shell armed,
// hands control to the diagnostic session before propagating the error.
// Configuration and precondition errors never reach this point.
func extract(ctx context.Context, cfg *config.Config, runner pipeline.Runner, shellIn io.Reader, out io.Writer) error {
	results, err := pipeline.New(cfg, runner).Run(ctx)
	if err != nil {
		if cfg.Shell {
			diagshell.Enter(diagshell.Capture(err, cfg), shellIn, out)
		}
		return err
	}
	fmt.Fprintln(out, summarize(results))
	return nil
}

func initLogging(cfg *config.Config) {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	if cfg.LogFile != "" {
		logging.Init(level, "text", io.MultiWriter(os.Stderr, logging.Rotating(cfg.LogFile)))
		return
	}
	logging.Init(level, "text")
}

// summarize renders the per-stage outcome table shown at the end of a run.
func summarize(results []pipeline.StageResult) string {
	tb := format.NewTable(format.ASCII)
	tb.Header("Stage", "Outcome", "Files", "Duration")
	for _, r := range results {
		tb.Row(string(r.Stage), string(r.Outcome), format.FmtCounts(r.Counts), format.FmtDuration(r.Duration))
	}
	return tb.String()
}
