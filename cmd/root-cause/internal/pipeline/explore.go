package pipeline

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Explore replays the crash archive through the engine's exploration mode
// for the request's duration budget, populating the trace directories with
// newly discovered crashing and non-crashing inputs.
//
// The exploration corpus byproduct is cleared both before the run (a stale
// copy from an aborted run would confuse the engine) and after it (the
// post-condition this pipeline guarantees).
func (c *Controller) Explore(ctx context.Context, crashArchive string, req Request) error {
	byproduct := ExplorationCorpusPath(req.OutputDir, req.Crash.ArchiveID())
	if err := c.ws.ClearStaleArtifact(byproduct); err != nil {
		c.logger.Warn("Could not clear stale exploration corpus", slog.Any("error", err))
	}

	minutes := durationMinutes(req.Duration)
	c.logger.Info("Exploring state space around crash",
		slog.String("crash_archive", crashArchive),
		slog.Int("duration_minutes", minutes),
	)

	stop := c.watchDiscoveries(req.OutputDir)
	defer stop()

	argv := c.cfg.Engine.Binaries().ExplorationArgs(crashArchive, req.OutputDir, minutes)
	if err := c.runner.Run(ctx, argv); err != nil {
		return stageError("exploration", err)
	}

	if err := c.ws.ClearStaleArtifact(byproduct); err != nil {
		c.logger.Warn("Could not remove exploration corpus byproduct", slog.Any("error", err))
	}
	return nil
}

// durationMinutes converts the duration budget to the engine's integer
// minute unit, rounding up with a floor of one minute.
func durationMinutes(d time.Duration) int {
	minutes := int(math.Ceil(d.Minutes()))
	if minutes < 1 {
		return 1
	}
	return minutes
}

// watchDiscoveries logs inputs as exploration materializes them, so a run
// that is bounded in minutes is not silent for minutes. Best effort: if the
// watcher cannot start, exploration proceeds without progress output.
func (c *Controller) watchDiscoveries(outputDir string) (stop func()) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		c.logger.Warn("Discovery watcher unavailable", slog.Any("error", err))
		return func() {}
	}

	crashes, nonCrashes := c.ws.TraceDirs(outputDir)
	for _, dir := range []string{crashes, nonCrashes} {
		if err := watcher.Add(dir); err != nil {
			c.logger.Warn("Cannot watch trace dir",
				slog.String("dir", dir),
				slog.Any("error", err),
			)
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Create) && isDiscoveredInput(event.Name) {
					c.logger.Info("Exploration discovered input", slog.String("path", event.Name))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				c.logger.Debug("Discovery watcher error", slog.Any("error", err))
			}
		}
	}()

	return func() {
		watcher.Close()
		<-done
	}
}

func isDiscoveredInput(name string) bool {
	return strings.Contains(name, "#") && strings.HasSuffix(name, ".bin")
}
