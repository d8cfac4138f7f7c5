package engine

import (
	"errors"
	"strconv"
)

var (
	// ErrNoCrashInput is returned when neither a crash id nor a crash file
	// is supplied.
	ErrNoCrashInput = errors.New("crash input missing: need a crash id or a crash file")

	// ErrBothCrashInputs is returned when a crash id and a crash file are
	// supplied together.
	ErrBothCrashInputs = errors.New("crash id and crash file are mutually exclusive")
)

// Binaries names the external engine entry points. The exploration binary is
// an explicit configuration value; the pipeline never probes for alternate
// binary names at runtime.
type Binaries struct {
	// Fuzzer is the main engine binary used for single-run tracing.
	Fuzzer string

	// CrashArchive is the archive-extraction binary.
	CrashArchive string

	// Exploration is the binary used for exploration mode. Often the same
	// as Fuzzer, but exploration-patched builds ship under their own name.
	Exploration string
}

// CrashInput identifies the crashing input to analyze: exactly one of a
// numeric corpus index or a standalone input file path.
type CrashInput struct {
	// ID is the corpus index of the crashing input. Meaningful only when
	// HasID is true, so that index 0 remains expressible.
	ID    int
	HasID bool

	// File is a path to a standalone crashing input file.
	File string
}

// Validate enforces the id-XOR-file invariant. It must be called before any
// external process is started.
func (c CrashInput) Validate() error {
	switch {
	case !c.HasID && c.File == "":
		return ErrNoCrashInput
	case c.HasID && c.File != "":
		return ErrBothCrashInputs
	}
	return nil
}

// ArchiveID is the numeric id embedded in derived artifact names.
// File-based inputs use 0, matching what the engine writes.
func (c CrashInput) ArchiveID() int {
	if c.HasID {
		return c.ID
	}
	return 0
}

// CrashArchiveArgs builds the archive-extraction invocation.
//
// Exactly one of --input-id / --input is emitted, per CrashInput. The output
// directory is the engine's single positional argument.
func (b Binaries) CrashArchiveArgs(corpusArchive string, crash CrashInput, outputDir string) []string {
	args := []string{b.CrashArchive, "--corpus-archive", corpusArchive}
	if crash.HasID {
		args = append(args, "--input-id", strconv.Itoa(crash.ID))
	} else {
		args = append(args, "--input", crash.File)
	}
	return append(args, outputDir)
}

// ExplorationArgs builds the bounded exploration invocation. The crash
// archive doubles as import-config and import-corpus; minutes bounds the
// otherwise open-ended run.
func (b Binaries) ExplorationArgs(crashArchive, outputDir string, minutes int) []string {
	return []string{
		b.Exploration,
		"--import-config", crashArchive,
		"exploration",
		"--import-corpus", crashArchive,
		"--archive-dir", outputDir,
		"--duration", strconv.Itoa(minutes),
	}
}

// TraceArgs builds a single-run root-cause trace invocation for one input.
// traceFile must be unique per input; concurrent trace workers share nothing
// but the filesystem.
func (b Binaries) TraceArgs(crashArchive, hook, traceFile, input string) []string {
	return []string{
		b.Fuzzer,
		"--import-config", crashArchive,
		"--debug", "--trace",
		"--trace-type", "root-cause",
		"--hook", hook,
		"--trace-file", traceFile,
		"run", input,
	}
}
