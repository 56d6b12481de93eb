package completion_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cliwrap/cliwrap/internal/completion"
	"github.com/cliwrap/cliwrap/internal/logging"
	"github.com/cliwrap/cliwrap/internal/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTree lays out a small workspace for the index to walk.
func buildTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "scripts"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".hidden"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "vendor"), 0o755))

	write := func(rel, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(root, rel), []byte(content), 0o644))
	}
	write("notes.txt", "plain file\n")
	write(".dotfile", "skip me\n")
	write(filepath.Join("scripts", "report.sql"), "-- Usage: report <month>\nSELECT 1;\n")
	write(filepath.Join(".hidden", "secret.sql"), "SELECT 2;\n")
	write(filepath.Join("vendor", "ignored.txt"), "noise\n")
	return root
}

func entriesByDisplay(entries []completion.Entry) map[string]completion.Entry {
	m := make(map[string]completion.Entry, len(entries))
	for _, e := range entries {
		m[e.Display] = e
	}
	return m
}

// TestBuildEntries tests directory labels, extension trimming, and
// dot-entry skipping.
func TestBuildEntries(t *testing.T) {
	root := buildTree(t)

	idx := completion.NewIndex(completion.Config{
		Root:   root,
		Ignore: []string{"vendor", "vendor/**"},
	}, nil, logging.NewNop())
	idx.BuildNow()

	entries := idx.Entries()
	byDisplay := entriesByDisplay(entries)

	assert.Contains(t, byDisplay, "scripts\t(dir)")
	assert.Equal(t, "scripts", byDisplay["scripts\t(dir)"].Insert)

	require.Contains(t, byDisplay, "scripts/report.sql")
	assert.Equal(t, "scripts/report", byDisplay["scripts/report.sql"].Insert)

	require.Contains(t, byDisplay, "notes.txt")
	assert.Equal(t, "notes.txt", byDisplay["notes.txt"].Insert)

	for display := range byDisplay {
		assert.NotContains(t, display, ".hidden")
		assert.NotContains(t, display, ".dotfile")
		assert.NotContains(t, display, "vendor/")
	}
	assert.NotContains(t, byDisplay, "vendor\t(dir)")
	assert.False(t, idx.BuiltAt().IsZero())
}

// TestRebuildThrottles tests that rebuilds coalesce and rate-limit.
func TestRebuildThrottles(t *testing.T) {
	root := buildTree(t)
	workers := pool.New(2)
	defer workers.Shutdown()

	idx := completion.NewIndex(completion.Config{
		Root:            root,
		RebuildInterval: time.Hour,
	}, workers, logging.NewNop())

	assert.True(t, idx.Rebuild())
	assert.False(t, idx.Rebuild())

	assert.Eventually(t, func() bool { return !idx.BuiltAt().IsZero() },
		2*time.Second, 10*time.Millisecond)
	// Still throttled after the first build completed.
	assert.False(t, idx.Rebuild())
}

// TestRebuildRefusedSubmitKeepsBudget tests that a rebuild refused by a
// saturated pool does not spend the throttle budget: once the pool has
// room again, a rebuild within the same interval still goes through.
func TestRebuildRefusedSubmitKeepsBudget(t *testing.T) {
	root := buildTree(t)
	workers := pool.New(1)
	defer workers.Shutdown()

	// Pin the only worker, then fill the backlog so submits are refused.
	release := make(chan struct{})
	require.True(t, workers.Submit(func() { <-release }))
	for workers.Submit(func() {}) {
	}

	idx := completion.NewIndex(completion.Config{
		Root:            root,
		RebuildInterval: time.Hour,
	}, workers, logging.NewNop())

	assert.False(t, idx.Rebuild())

	close(release)
	assert.Eventually(t, func() bool { return idx.Rebuild() },
		2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return !idx.BuiltAt().IsZero() },
		2*time.Second, 10*time.Millisecond)
}

// TestUsage tests usage-line extraction from .sql files.
func TestUsage(t *testing.T) {
	root := buildTree(t)

	assert.Equal(t, "report <month>",
		completion.Usage(filepath.Join(root, "scripts", "report.sql")))
	assert.Empty(t, completion.Usage(filepath.Join(root, "notes.txt")))
	assert.Empty(t, completion.Usage(filepath.Join(root, "missing.sql")))
}
