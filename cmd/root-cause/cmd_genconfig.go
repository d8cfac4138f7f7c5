package main

import (
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Ollrogge/hoedur-root-cause/cmd/root-cause/internal/engine"
	"github.com/Ollrogge/hoedur-root-cause/cmd/root-cause/internal/workspace"
)

// runGenConfig derives an engine config from the firmware image in a
// directory, via the external fuzzware config generator and the engine's
// converter. Here a missing firmware image is fatal: there is nothing to
// generate a config from.
func runGenConfig(cmd *cobra.Command, args []string) error {
	dir := args[0]

	ws := workspace.NewManager(slog.Default())
	image, err := ws.LocateFirmwareImage(dir)
	if err != nil {
		return err
	}

	// fuzzware writes config.yml next to the image; drop any stale copy.
	stale := filepath.Join(filepath.Dir(image), "config.yml")
	if err := ws.ClearStaleArtifact(stale); err != nil {
		return err
	}

	runner := engine.NewExecRunner(slog.Default())
	if err := runner.Run(cmd.Context(), []string{"fuzzware", "genconfig", image}); err != nil {
		return err
	}
	if err := runner.Run(cmd.Context(), []string{"hoedur-convert-fuzzware-config", "config.yml", "config.yml"}); err != nil {
		return err
	}

	slog.Info("Engine config generated", slog.String("image", image))
	return nil
}
