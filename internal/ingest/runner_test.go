package ingest

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"futures-roll-lab/internal/storage"
	"futures-roll-lab/internal/storage/memory"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestRunner(store storage.BarStore, loc *time.Location) *Runner {
	return NewRunner(RunnerOptions{
		BarStore: store,
		Location: loc,
		Logger:   log.New(io.Discard, "", 0),
	})
}

func TestRunner_IngestFiles(t *testing.T) {
	dir := t.TempDir()
	fileOne := writeCSV(t, dir, "gc_2023_11.csv", sampleCSV)
	fileTwo := writeCSV(t, dir, "gc_2023_12.csv",
		`ts_event,open,high,low,close,volume,symbol
2023-12-01T00:00:00Z,1990.0,1995.5,1988.0,1994.25,98000,GCG4
`)

	store := memory.NewBarStore()
	runner := newTestRunner(store, time.UTC)

	result, err := runner.IngestFiles(context.Background(), []string{fileOne, fileTwo})
	require.NoError(t, err)

	assert.Equal(t, 2, result.FilesProcessed)
	assert.Equal(t, 3, result.BarsIngested)

	count, err := store.CountByRoot(context.Background(), "GC")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestRunner_DuplicateAcrossFilesFails(t *testing.T) {
	dir := t.TempDir()
	fileOne := writeCSV(t, dir, "one.csv", sampleCSV)
	fileTwo := writeCSV(t, dir, "two.csv", sampleCSV)

	store := memory.NewBarStore()
	runner := newTestRunner(store, time.UTC)

	result, err := runner.IngestFiles(context.Background(), []string{fileOne, fileTwo})
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// First file landed; the duplicate file rolled back wholesale
	assert.Equal(t, 1, result.FilesProcessed)
	assert.Equal(t, 2, result.BarsIngested)

	count, err := store.CountByRoot(context.Background(), "GC")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestRunner_MissingFile(t *testing.T) {
	store := memory.NewBarStore()
	runner := newTestRunner(store, time.UTC)

	_, err := runner.IngestFiles(context.Background(), []string{"does-not-exist.csv"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does-not-exist.csv")
}

func TestRunner_LocationConversionPreservesInstant(t *testing.T) {
	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	dir := t.TempDir()
	file := writeCSV(t, dir, "gc.csv", sampleCSV)

	store := memory.NewBarStore()
	runner := newTestRunner(store, loc)

	_, err = runner.IngestFiles(context.Background(), []string{file})
	require.NoError(t, err)

	bars, err := store.GetByRoot(context.Background(), "GC")
	require.NoError(t, err)
	require.Len(t, bars, 2)

	utc := time.Date(2023, time.November, 20, 0, 0, 0, 0, time.UTC)
	assert.True(t, bars[0].Timestamp.Equal(utc))
}

func TestRunner_HeaderOnlyFileIsNoOp(t *testing.T) {
	dir := t.TempDir()
	file := writeCSV(t, dir, "empty.csv", "ts_event,open,high,low,close,volume,symbol\n")

	store := memory.NewBarStore()
	runner := newTestRunner(store, time.UTC)

	result, err := runner.IngestFiles(context.Background(), []string{file})
	require.NoError(t, err)
	assert.Equal(t, 1, result.FilesProcessed)
	assert.Equal(t, 0, result.BarsIngested)
}
