package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Ollrogge/hoedur-root-cause/cmd/root-cause/internal/pipeline"
	"github.com/Ollrogge/hoedur-root-cause/cmd/root-cause/internal/workspace"
)

// runTraceStage reruns only the parallel trace stage against an output
// directory that already holds a crash archive and exploration results.
func runTraceStage(cmd *cobra.Command, args []string) error {
	if err := applyTraceOverrides(cmd); err != nil {
		return err
	}

	outputDir := args[0]
	crashArchive := pipeline.CrashArchivePath(outputDir, crashID)

	ws := workspace.NewManager(slog.Default())
	for _, w := range ws.SweepStaleTraces(outputDir) {
		slog.Warn("Best-effort cleanup failed", slog.String("warning", w.String()))
	}

	results, err := newController().Trace(cmd.Context(), crashArchive, outputDir)
	if err != nil {
		return err
	}
	slog.Info("Trace stage complete", slog.Int("traces", len(results)))
	return nil
}
