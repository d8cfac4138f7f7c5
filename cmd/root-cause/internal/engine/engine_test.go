package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrashInput_Validate(t *testing.T) {
	tests := []struct {
		name    string
		input   CrashInput
		wantErr error
	}{
		{"neither id nor file", CrashInput{}, ErrNoCrashInput},
		{"both id and file", CrashInput{ID: 3, HasID: true, File: "crash.bin"}, ErrBothCrashInputs},
		{"id only", CrashInput{ID: 3, HasID: true}, nil},
		{"id zero is valid", CrashInput{ID: 0, HasID: true}, nil},
		{"file only", CrashInput{File: "crash.bin"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestCrashInput_ArchiveID(t *testing.T) {
	assert.Equal(t, 42, CrashInput{ID: 42, HasID: true}.ArchiveID())
	// File-based inputs always derive artifact names from id 0.
	assert.Equal(t, 0, CrashInput{File: "crash.bin"}.ArchiveID())
}

func testBinaries() Binaries {
	return Binaries{
		Fuzzer:       "hoedur-arm",
		CrashArchive: "hoedur-crash-archive",
		Exploration:  "hoedur-exploration-arm",
	}
}

func TestCrashArchiveArgs_ByID(t *testing.T) {
	argv := testBinaries().CrashArchiveArgs("base.tar.zst", CrashInput{ID: 42, HasID: true}, "out")

	assert.Equal(t, []string{
		"hoedur-crash-archive",
		"--corpus-archive", "base.tar.zst",
		"--input-id", "42",
		"out",
	}, argv)
	assert.NotContains(t, argv, "--input")
}

func TestCrashArchiveArgs_ByFile(t *testing.T) {
	argv := testBinaries().CrashArchiveArgs("base.tar.zst", CrashInput{File: "crash.bin"}, "out")

	assert.Equal(t, []string{
		"hoedur-crash-archive",
		"--corpus-archive", "base.tar.zst",
		"--input", "crash.bin",
		"out",
	}, argv)
	assert.NotContains(t, argv, "--input-id")
}

func TestExplorationArgs(t *testing.T) {
	argv := testBinaries().ExplorationArgs("out/crash-#42.corpus.tar.zst", "out", 10)

	require.Equal(t, []string{
		"hoedur-exploration-arm",
		"--import-config", "out/crash-#42.corpus.tar.zst",
		"exploration",
		"--import-corpus", "out/crash-#42.corpus.tar.zst",
		"--archive-dir", "out",
		"--duration", "10",
	}, argv)
}

func TestTraceArgs(t *testing.T) {
	argv := testBinaries().TraceArgs(
		"out/crash-#42.corpus.tar.zst",
		"hooks/memcpy.rn",
		"out/traces/crashes/input#7-trace.bin",
		"out/traces/crashes/input#7.bin",
	)

	require.Equal(t, []string{
		"hoedur-arm",
		"--import-config", "out/crash-#42.corpus.tar.zst",
		"--debug", "--trace",
		"--trace-type", "root-cause",
		"--hook", "hooks/memcpy.rn",
		"--trace-file", "out/traces/crashes/input#7-trace.bin",
		"run", "out/traces/crashes/input#7.bin",
	}, argv)
}
