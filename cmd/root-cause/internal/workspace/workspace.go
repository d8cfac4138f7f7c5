// Package workspace owns the on-disk layout of a pipeline output directory:
// the crash archive, the firmware image, and the traces/ tree the exploration
// and trace stages communicate through. All state crosses stage boundaries
// via this layout; there is no in-memory handoff.
package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	tracesDirName     = "traces"
	crashesDirName    = "crashes"
	nonCrashesDirName = "non_crashes"

	traceDirMode = 0o755
)

// staleTraceSuffixes are engine byproducts and pipeline trace outputs that
// must not survive into a rerun. Exploration-discovered inputs never carry
// these suffixes.
var staleTraceSuffixes = []string{"-full.bin", "-summary.bin", "-trace.bin"}

var (
	// ErrNoFirmwareImage is returned when no firmware image is found in a
	// directory. Fatal for config generation, a warning on the trace path.
	ErrNoFirmwareImage = errors.New("no firmware image found")
)

// Category distinguishes exploration-discovered inputs by the directory they
// were materialized in, never by content inspection.
type Category string

const (
	CategoryCrash    Category = "crashes"
	CategoryNonCrash Category = "non_crashes"
)

// TraceInput is one exploration-discovered input file queued for tracing.
type TraceInput struct {
	Path     string
	Category Category
}

// Warning records a non-fatal workspace cleanup failure. Cleanup is best
// effort; callers decide whether to escalate.
type Warning struct {
	Op   string
	Path string
	Err  error
}

func (w Warning) String() string {
	return fmt.Sprintf("%s %s: %v", w.Op, w.Path, w.Err)
}

// Manager performs all workspace filesystem operations.
type Manager struct {
	logger *slog.Logger
}

// NewManager creates a workspace manager. A nil logger falls back to
// slog.Default().
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{logger: logger}
}

// TraceDirs returns the crashes and non_crashes trace directories for an
// output directory.
func (m *Manager) TraceDirs(outputDir string) (crashes, nonCrashes string) {
	traces := filepath.Join(outputDir, tracesDirName)
	return filepath.Join(traces, crashesDirName), filepath.Join(traces, nonCrashesDirName)
}

// ResetTraceDirs removes any pre-existing trace subdirectories and recreates
// them empty.
//
// Description:
//
//	Removal failures are returned as warnings, not errors: the reset is a
//	best-effort cleanup and the pipeline proceeds. Failure to recreate the
//	directories is an error, since no later stage can function without
//	them. The operation is idempotent.
//
// Outputs:
//
//	[]Warning - One entry per failed removal.
//	error - Non-nil only if a directory could not be created.
func (m *Manager) ResetTraceDirs(outputDir string) ([]Warning, error) {
	crashes, nonCrashes := m.TraceDirs(outputDir)

	var warnings []Warning
	for _, dir := range []string{crashes, nonCrashes} {
		if err := os.RemoveAll(dir); err != nil {
			warnings = append(warnings, Warning{Op: "remove", Path: dir, Err: err})
		}
		if err := os.MkdirAll(dir, traceDirMode); err != nil {
			return warnings, fmt.Errorf("create trace dir %s: %w", dir, err)
		}
	}
	return warnings, nil
}

// SweepStaleTraces deletes stale trace artifacts (*-full.bin, *-summary.bin,
// *-trace.bin) under both trace subdirectories, leaving the exploration
// inputs themselves intact. Used before the trace stage, after exploration
// has already populated the directories.
func (m *Manager) SweepStaleTraces(outputDir string) []Warning {
	crashes, nonCrashes := m.TraceDirs(outputDir)

	var warnings []Warning
	for _, dir := range []string{crashes, nonCrashes} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				warnings = append(warnings, Warning{Op: "read", Path: dir, Err: err})
			}
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !hasStaleSuffix(entry.Name()) {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if err := os.Remove(path); err != nil {
				warnings = append(warnings, Warning{Op: "remove", Path: path, Err: err})
			}
		}
	}
	return warnings
}

func hasStaleSuffix(name string) bool {
	for _, suffix := range staleTraceSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// EnumerateTraceInputs collects every exploration-discovered input under the
// crashes and non_crashes trace directories.
//
// Description:
//
//	Inputs are .bin files whose name embeds the engine's '#<n>' index
//	token. Engine byproducts and previous trace outputs are excluded, so
//	a rerun after a partial sweep never traces its own output files.
//	Ordering within the result is not meaningful; the trace stage
//	dispatches unordered.
func (m *Manager) EnumerateTraceInputs(outputDir string) ([]TraceInput, error) {
	crashes, nonCrashes := m.TraceDirs(outputDir)

	var inputs []TraceInput
	for _, src := range []struct {
		dir      string
		category Category
	}{
		{crashes, CategoryCrash},
		{nonCrashes, CategoryNonCrash},
	} {
		matches, err := filepath.Glob(filepath.Join(src.dir, "*#*.bin"))
		if err != nil {
			return nil, fmt.Errorf("enumerate %s: %w", src.dir, err)
		}
		for _, match := range matches {
			if hasStaleSuffix(match) {
				continue
			}
			inputs = append(inputs, TraceInput{Path: match, Category: src.category})
		}
	}
	return inputs, nil
}

// LocateFirmwareImage globs for the firmware image in a directory, trying
// *.elf first and falling back to *.bin. One match is expected; with more
// than one the first is used.
func (m *Manager) LocateFirmwareImage(dir string) (string, error) {
	for _, pattern := range []string{"*.elf", "*.bin"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return "", fmt.Errorf("glob %s in %s: %w", pattern, dir, err)
		}
		if len(matches) > 1 {
			m.logger.Warn("Multiple firmware image candidates, using first",
				slog.String("dir", dir),
				slog.Int("count", len(matches)),
			)
		}
		if len(matches) > 0 {
			return matches[0], nil
		}
	}
	return "", fmt.Errorf("%w in %s", ErrNoFirmwareImage, dir)
}

// ClearStaleArtifact deletes a named byproduct file. Absence is not an error.
func (m *Manager) ClearStaleArtifact(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale artifact %s: %w", path, err)
	}
	return nil
}
