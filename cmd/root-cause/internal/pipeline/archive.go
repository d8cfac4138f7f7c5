package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
)

// CrashArchivePath is the deterministic location of the crash archive the
// archive stage produces for a given crash id.
func CrashArchivePath(outputDir string, id int) string {
	return filepath.Join(outputDir, fmt.Sprintf("crash-#%d.corpus.tar.zst", id))
}

// ExplorationCorpusPath is the location of the exploration stage's corpus
// byproduct for a given crash id. The byproduct has no use in this pipeline
// and is removed so a rerun cannot mistake it for a real crash archive.
func ExplorationCorpusPath(outputDir string, id int) string {
	return filepath.Join(outputDir, fmt.Sprintf("crash-#%d.exploration.corpus.tar.zst", id))
}

// CrashArchive extracts a self-contained crash archive from the base corpus.
//
// Description:
//
//	Invokes the engine's archive-extraction mode with exactly one of
//	--input-id / --input. The stage does no validation beyond the crash
//	input invariant; invalid ids and corrupt archives surface as engine
//	failures.
//
// Outputs:
//
//	string - Path of the produced crash archive.
//	error - Usage error before any process starts, or engine failure.
func (c *Controller) CrashArchive(ctx context.Context, req Request) (string, error) {
	if err := req.Crash.Validate(); err != nil {
		return "", err
	}

	c.logger.Info("Producing crash archive",
		slog.Int("crash_id", req.Crash.ArchiveID()),
		slog.String("corpus_archive", req.CorpusArchive),
	)

	argv := c.cfg.Engine.Binaries().CrashArchiveArgs(req.CorpusArchive, req.Crash, req.OutputDir)
	if err := c.runner.Run(ctx, argv); err != nil {
		return "", stageError("crash archive", err)
	}
	return CrashArchivePath(req.OutputDir, req.Crash.ArchiveID()), nil
}
