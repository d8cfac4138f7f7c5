// Package pipeline sequences the root-cause analysis stages: crash-archive
// extraction, bounded exploration around the crash, and massively parallel
// trace regeneration. Each stage's filesystem output is the next stage's
// input; the controller only threads identifiers and paths between them.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	"github.com/Ollrogge/hoedur-root-cause/cmd/root-cause/internal/config"
	"github.com/Ollrogge/hoedur-root-cause/cmd/root-cause/internal/engine"
	"github.com/Ollrogge/hoedur-root-cause/cmd/root-cause/internal/workspace"
)

// Request carries everything a full pipeline run needs.
type Request struct {
	// Crash identifies the crashing input, by corpus index or file path.
	Crash engine.CrashInput

	// CorpusArchive is the base corpus archive the crash came from.
	CorpusArchive string

	// OutputDir is the workspace for all derived artifacts.
	OutputDir string

	// Duration bounds the exploration stage.
	Duration time.Duration
}

// Controller runs the pipeline stages in order. Stage failures propagate
// immediately; there is no checkpointing, a rerun starts from the beginning
// and relies on the workspace reset for idempotency.
type Controller struct {
	cfg    *config.Config
	runner engine.Runner
	ws     *workspace.Manager
	logger *slog.Logger

	metricsOnce    sync.Once
	traceSuccesses metric.Int64Counter
	traceFailures  metric.Int64Counter
	traceLatency   metric.Float64Histogram
}

// New creates a controller. Every log line emitted by the run carries a
// fresh run id. A nil logger falls back to slog.Default().
func New(cfg *config.Config, runner engine.Runner, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("run_id", uuid.NewString()))
	return &Controller{
		cfg:    cfg,
		runner: runner,
		ws:     workspace.NewManager(logger),
		logger: logger,
	}
}

// Run executes the full pipeline: workspace reset, crash-archive extraction,
// exploration, stale-trace sweep, parallel tracing.
func (c *Controller) Run(ctx context.Context, req Request) error {
	if err := req.Crash.Validate(); err != nil {
		return err
	}

	warnings, err := c.ws.ResetTraceDirs(req.OutputDir)
	c.logWarnings("workspace reset", warnings)
	if err != nil {
		return stageError("workspace reset", err)
	}

	if _, err := c.ws.LocateFirmwareImage(req.OutputDir); err != nil {
		// Only the downstream analyzer needs the firmware image.
		c.logger.Warn("No firmware image in output directory", slog.Any("error", err))
	}

	crashArchive, err := c.CrashArchive(ctx, req)
	if err != nil {
		return err
	}

	if err := c.Explore(ctx, crashArchive, req); err != nil {
		return err
	}

	c.logWarnings("stale trace sweep", c.ws.SweepStaleTraces(req.OutputDir))

	results, err := c.Trace(ctx, crashArchive, req.OutputDir)
	if err != nil {
		return err
	}

	c.logger.Info("Pipeline complete",
		slog.Int("traces", len(results)),
		slog.String("output_dir", req.OutputDir),
	)
	return nil
}

func (c *Controller) logWarnings(op string, warnings []workspace.Warning) {
	for _, w := range warnings {
		c.logger.Warn("Best-effort cleanup failed",
			slog.String("stage", op),
			slog.String("warning", w.String()),
		)
	}
}

// stageError prefixes an error with the failing stage's name, so the user
// sees which part of the pipeline gave up on top of the engine's own stderr.
func stageError(stage string, err error) error {
	return fmt.Errorf("%s stage: %w", stage, err)
}
