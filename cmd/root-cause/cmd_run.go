package main

import (
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Ollrogge/hoedur-root-cause/cmd/root-cause/internal/engine"
	"github.com/Ollrogge/hoedur-root-cause/cmd/root-cause/internal/pipeline"
)

// crashInputFromFlags builds the crash identifier from the command's flags.
// The Changed check keeps --crash-id 0 expressible while still detecting
// that no id was given at all.
func crashInputFromFlags(cmd *cobra.Command) engine.CrashInput {
	return engine.CrashInput{
		ID:    crashID,
		HasID: cmd.Flags().Changed("crash-id"),
		File:  crashFile,
	}
}

// outputDirFor defaults the output directory to the corpus archive's own
// directory when none is given.
func outputDirFor(corpusArchive string, args []string) string {
	if len(args) > 1 {
		return args[1]
	}
	return filepath.Dir(corpusArchive)
}

// applyTraceOverrides layers run-scoped flags over the loaded config and
// re-validates, so a bad --error-policy fails before any process starts.
func applyTraceOverrides(cmd *cobra.Command) error {
	if cmd.Flags().Changed("workers") {
		cfg.Trace.Workers = traceWorkers
	}
	if cmd.Flags().Changed("error-policy") {
		cfg.Trace.ErrorPolicy = errorPolicy
	}
	return cfg.Validate()
}

func newController() *pipeline.Controller {
	return pipeline.New(cfg, engine.NewExecRunner(slog.Default()), slog.Default())
}

func runPipeline(cmd *cobra.Command, args []string) error {
	crash := crashInputFromFlags(cmd)
	if err := crash.Validate(); err != nil {
		return err
	}
	if err := applyTraceOverrides(cmd); err != nil {
		return err
	}

	corpusArchive := args[0]
	return newController().Run(cmd.Context(), pipeline.Request{
		Crash:         crash,
		CorpusArchive: corpusArchive,
		OutputDir:     outputDirFor(corpusArchive, args),
		Duration:      exploreDuration,
	})
}

func runExplore(cmd *cobra.Command, args []string) error {
	crash := crashInputFromFlags(cmd)
	if err := crash.Validate(); err != nil {
		return err
	}

	corpusArchive := args[0]
	req := pipeline.Request{
		Crash:         crash,
		CorpusArchive: corpusArchive,
		OutputDir:     outputDirFor(corpusArchive, args),
		Duration:      exploreDuration,
	}

	ctrl := newController()
	crashArchive, err := ctrl.CrashArchive(cmd.Context(), req)
	if err != nil {
		return err
	}
	return ctrl.Explore(cmd.Context(), crashArchive, req)
}
