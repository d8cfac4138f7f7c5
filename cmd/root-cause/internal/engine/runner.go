package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// =============================================================================
// Error Definitions
// =============================================================================

var (
	// ErrEngineFailed is returned when an engine invocation exits non-zero
	// or cannot be started at all.
	ErrEngineFailed = errors.New("engine invocation failed")

	// ErrEmptyCommand is returned when Run is called with an empty argv.
	ErrEmptyCommand = errors.New("empty command")
)

// Runner executes a single external engine invocation.
//
// # Description
//
// This interface is the only path through which the pipeline spawns
// processes. Implementations do not capture or parse output; the engine's
// observable contract is its exit status and its filesystem side effects.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use; the trace stage calls
// Run from multiple goroutines at once.
type Runner interface {
	Run(ctx context.Context, argv []string) error
}

// ExecRunner runs commands synchronously with the pipeline's own stdout and
// stderr, so engine progress output reaches the user unmodified.
type ExecRunner struct {
	logger *slog.Logger
}

// NewExecRunner creates a runner. A nil logger falls back to slog.Default().
func NewExecRunner(logger *slog.Logger) *ExecRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecRunner{logger: logger}
}

// Run executes argv[0] with the remaining elements as arguments.
//
// Inputs:
//
//	ctx - Context for cancellation. Cancellation kills the child process.
//	argv - Full argument vector including the binary name. Must not be empty.
//
// Outputs:
//
//	error - Non-nil if the process could not start or exited non-zero,
//	wrapping ErrEngineFailed with the exit code when available.
func (r *ExecRunner) Run(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return ErrEmptyCommand
	}

	r.logger.Debug("Running engine command", slog.String("cmd", strings.Join(argv, " ")))
	start := time.Now()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%w: %s exited with code %d", ErrEngineFailed, argv[0], exitErr.ExitCode())
		}
		return fmt.Errorf("%w: %s: %v", ErrEngineFailed, argv[0], err)
	}

	r.logger.Debug("Engine command finished",
		slog.String("bin", argv[0]),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}
