package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestResetTraceDirs_Idempotent(t *testing.T) {
	out := t.TempDir()
	m := NewManager(nil)

	for i := 0; i < 2; i++ {
		warnings, err := m.ResetTraceDirs(out)
		require.NoError(t, err)
		assert.Empty(t, warnings)
	}

	crashes, nonCrashes := m.TraceDirs(out)
	for _, dir := range []string{crashes, nonCrashes} {
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries, "%s should exist and be empty", dir)
	}
}

func TestResetTraceDirs_RemovesStaleFiles(t *testing.T) {
	out := t.TempDir()
	m := NewManager(nil)
	crashes, _ := m.TraceDirs(out)
	stale := filepath.Join(crashes, "old#1.bin")
	writeFile(t, stale)

	_, err := m.ResetTraceDirs(out)
	require.NoError(t, err)

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "stale input should have been removed")
}

func TestSweepStaleTraces_KeepsInputs(t *testing.T) {
	out := t.TempDir()
	m := NewManager(nil)
	crashes, nonCrashes := m.TraceDirs(out)

	input := filepath.Join(crashes, "input#3.bin")
	full := filepath.Join(crashes, "input#3-full.bin")
	summary := filepath.Join(nonCrashes, "input#4-summary.bin")
	trace := filepath.Join(nonCrashes, "input#4-trace.bin")
	for _, f := range []string{input, full, summary, trace} {
		writeFile(t, f)
	}

	warnings := m.SweepStaleTraces(out)
	assert.Empty(t, warnings)

	_, err := os.Stat(input)
	assert.NoError(t, err, "exploration input must survive the sweep")
	for _, f := range []string{full, summary, trace} {
		_, err := os.Stat(f)
		assert.True(t, os.IsNotExist(err), "%s should have been swept", f)
	}
}

func TestSweepStaleTraces_MissingDirsAreFine(t *testing.T) {
	m := NewManager(nil)
	assert.Empty(t, m.SweepStaleTraces(t.TempDir()))
}

func TestEnumerateTraceInputs(t *testing.T) {
	out := t.TempDir()
	m := NewManager(nil)
	crashes, nonCrashes := m.TraceDirs(out)

	wantPaths := map[string]Category{
		filepath.Join(crashes, "input#1.bin"):    CategoryCrash,
		filepath.Join(crashes, "input#2.bin"):    CategoryCrash,
		filepath.Join(nonCrashes, "input#3.bin"): CategoryNonCrash,
	}
	for path := range wantPaths {
		writeFile(t, path)
	}
	// Decoys: no index token, engine byproducts, previous trace outputs.
	writeFile(t, filepath.Join(crashes, "notindexed.bin"))
	writeFile(t, filepath.Join(crashes, "input#1-full.bin"))
	writeFile(t, filepath.Join(nonCrashes, "input#3-summary.bin"))
	writeFile(t, filepath.Join(nonCrashes, "input#3-trace.bin"))

	inputs, err := m.EnumerateTraceInputs(out)
	require.NoError(t, err)
	require.Len(t, inputs, len(wantPaths))
	for _, in := range inputs {
		category, ok := wantPaths[in.Path]
		assert.True(t, ok, "unexpected input %s", in.Path)
		assert.Equal(t, category, in.Category)
	}
}

func TestEnumerateTraceInputs_Empty(t *testing.T) {
	out := t.TempDir()
	m := NewManager(nil)
	_, err := m.ResetTraceDirs(out)
	require.NoError(t, err)

	inputs, err := m.EnumerateTraceInputs(out)
	require.NoError(t, err)
	assert.Empty(t, inputs)
}

func TestLocateFirmwareImage(t *testing.T) {
	t.Run("prefers elf over bin", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "firmware.elf"))
		writeFile(t, filepath.Join(dir, "firmware.bin"))

		image, err := NewManager(nil).LocateFirmwareImage(dir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "firmware.elf"), image)
	})

	t.Run("falls back to bin", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "firmware.bin"))

		image, err := NewManager(nil).LocateFirmwareImage(dir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "firmware.bin"), image)
	})

	t.Run("none found", func(t *testing.T) {
		_, err := NewManager(nil).LocateFirmwareImage(t.TempDir())
		assert.ErrorIs(t, err, ErrNoFirmwareImage)
	})
}

func TestClearStaleArtifact(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(nil)

	path := filepath.Join(dir, "crash-#0.exploration.corpus.tar.zst")
	writeFile(t, path)

	require.NoError(t, m.ClearStaleArtifact(path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Absence is not an error.
	assert.NoError(t, m.ClearStaleArtifact(path))
}
