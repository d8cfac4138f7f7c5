package main

import (
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("Pipeline failed", slog.Any("error", err))
		os.Exit(1)
	}
}

// setupLogger installs the process-wide logger: human-readable text on a
// terminal, JSON when output is redirected.
func setupLogger(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
