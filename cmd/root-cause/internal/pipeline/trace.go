package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/Ollrogge/hoedur-root-cause/cmd/root-cause/internal/config"
	"github.com/Ollrogge/hoedur-root-cause/cmd/root-cause/internal/workspace"
)

var meter = otel.Meter("rootcause.trace")

var (
	// ErrNoTraceInputs is returned when exploration produced nothing to
	// trace. An empty exploration result is an error, not a no-op success.
	ErrNoTraceInputs = errors.New("no exploration inputs found to trace")

	// ErrTraceFailures is returned when the stage finished but one or more
	// individual traces failed under the continue policy.
	ErrTraceFailures = errors.New("trace stage completed with failures")
)

// TraceResult is the per-input outcome of the trace stage. The controller
// decides explicitly whether failed items abort the batch or are recorded.
type TraceResult struct {
	Input     workspace.TraceInput
	TracePath string
	Duration  time.Duration
	Err       error
}

// TracePathFor derives the unique trace destination for one input. Deriving
// the name from the input itself means concurrent workers never alias on a
// shared output file; the -trace.bin suffix keeps outputs out of the input
// enumeration and inside the stale sweep.
func TracePathFor(input string) string {
	return strings.TrimSuffix(input, ".bin") + "-trace.bin"
}

// Trace regenerates a root-cause trace for every exploration-discovered
// input, fanned out across a bounded worker pool.
//
// Description:
//
//	Each work item is a full engine invocation with private memory; the
//	filesystem is the only shared resource. Dispatch is unordered and
//	completions carry no ordering guarantee. Under the continue policy a
//	failing item is recorded in its result and siblings keep running;
//	under the abort policy the first failure cancels the rest of the
//	batch.
//
// Outputs:
//
//	[]TraceResult - One entry per enumerated input, also on partial failure.
//	error - ErrNoTraceInputs, an aborted batch's first failure, or
//	ErrTraceFailures summarizing recorded failures.
func (c *Controller) Trace(ctx context.Context, crashArchive, outputDir string) ([]TraceResult, error) {
	inputs, err := c.ws.EnumerateTraceInputs(outputDir)
	if err != nil {
		return nil, stageError("trace", err)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTraceInputs, filepath.Join(outputDir, "traces"))
	}

	workers := c.traceWorkers()
	c.logger.Info("Tracing exploration inputs",
		slog.Int("inputs", len(inputs)),
		slog.Int("workers", workers),
		slog.String("error_policy", c.cfg.Trace.ErrorPolicy),
	)

	c.initTraceMetrics()
	abort := c.cfg.Trace.ErrorPolicy == config.PolicyAbort
	binaries := c.cfg.Engine.Binaries()

	results := make([]TraceResult, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, input := range inputs {
		i, input := i, input
		g.Go(func() error {
			start := time.Now()
			tracePath := TracePathFor(input.Path)

			argv := binaries.TraceArgs(crashArchive, c.cfg.Hook, tracePath, input.Path)
			runErr := c.runner.Run(gctx, argv)

			elapsed := time.Since(start)
			results[i] = TraceResult{
				Input:     input,
				TracePath: tracePath,
				Duration:  elapsed,
				Err:       runErr,
			}
			c.recordTrace(gctx, input.Category, elapsed, runErr)

			if runErr != nil {
				c.logger.Error("Trace failed",
					slog.String("input", input.Path),
					slog.Any("error", runErr),
				)
				if abort {
					return runErr
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, stageError("trace", err)
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return results, fmt.Errorf("%w: %d of %d inputs", ErrTraceFailures, failed, len(inputs))
	}
	return results, nil
}

// traceWorkers sizes the pool: configured value, or cpu count minus one
// (reserving a core for the controller and the OS), floor one.
func (c *Controller) traceWorkers() int {
	workers := c.cfg.Trace.Workers
	if workers <= 0 {
		workers = runtime.NumCPU() - 1
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

// initTraceMetrics lazily creates the stage's instruments. Metric creation
// failure degrades to logging only.
func (c *Controller) initTraceMetrics() {
	c.metricsOnce.Do(func() {
		var err error
		c.traceSuccesses, err = meter.Int64Counter("trace_success_total",
			metric.WithDescription("Number of successful trace invocations"),
		)
		if err != nil {
			c.logger.Warn("Metric init failed", slog.String("metric", "trace_success_total"), slog.Any("error", err))
		}
		c.traceFailures, err = meter.Int64Counter("trace_failure_total",
			metric.WithDescription("Number of failed trace invocations"),
		)
		if err != nil {
			c.logger.Warn("Metric init failed", slog.String("metric", "trace_failure_total"), slog.Any("error", err))
		}
		c.traceLatency, err = meter.Float64Histogram("trace_duration_seconds",
			metric.WithDescription("Wall time of individual trace invocations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			c.logger.Warn("Metric init failed", slog.String("metric", "trace_duration_seconds"), slog.Any("error", err))
		}
	})
}

func categoryAttr(c workspace.Category) attribute.KeyValue {
	return attribute.String("category", string(c))
}

func (c *Controller) recordTrace(ctx context.Context, category workspace.Category, elapsed time.Duration, err error) {
	attrs := metric.WithAttributes(categoryAttr(category))
	if err != nil {
		if c.traceFailures != nil {
			c.traceFailures.Add(ctx, 1, attrs)
		}
	} else if c.traceSuccesses != nil {
		c.traceSuccesses.Add(ctx, 1, attrs)
	}
	if c.traceLatency != nil {
		c.traceLatency.Record(ctx, elapsed.Seconds(), attrs)
	}
}
