package main_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	main "github.com/fwojciec/lectern/cmd/lectern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var addedIDRe = regexp.MustCompile(`\(([0-9a-f-]{36})\)`)

// newMain returns a Main using temporary storage and a fake site.
func newMain(t *testing.T, s *site) *main.Main {
	t.Helper()
	dir := t.TempDir()
	m := main.NewMain()
	m.DBPath = filepath.Join(dir, "lectern.db")
	m.CacheDir = filepath.Join(dir, "cache")
	m.Fetcher = s.fetcher()
	return m
}

func run(t *testing.T, m *main.Main, args ...string) (string, string, error) {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	err := m.Run(context.Background(), args, stdout, stderr)
	return stdout.String(), stderr.String(), err
}

func TestMain_Run(t *testing.T) {
	t.Parallel()

	t.Run("no arguments shows help and fails", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := run(t, newMain(t, newSite()))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "no command specified")
		assert.Contains(t, stdout, "Usage: lectern")
	})

	t.Run("help succeeds", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := run(t, newMain(t, newSite()), "--help")

		require.NoError(t, err)
		assert.Contains(t, stdout, "prefetch")
	})

	t.Run("invalid config file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("maxRetries: 0\n"), 0o644))

		_, stderr, err := run(t, newMain(t, newSite()), "--config", path, "list")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load config")
		assert.Contains(t, stderr, "LECTERN_CONFIG")
	})
}

func TestMain_Run_EndToEnd(t *testing.T) {
	t.Parallel()

	// Given: a fresh library backed by SQLite and the file cache
	s := newSite()
	m := newMain(t, s)

	// When: adding a book, reading a chapter twice and inspecting the cache
	stdout, _, err := run(t, m, "add", bookURL)
	require.NoError(t, err)
	match := addedIDRe.FindStringSubmatch(stdout)
	require.Len(t, match, 2, stdout)
	id := match[1]

	stdout, _, err = run(t, m, "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, id+"  山门  青松")

	stdout, _, err = run(t, m, "read", id, "1")
	require.NoError(t, err)
	assert.Contains(t, stdout, chapter1Text)

	_, _, err = run(t, m, "read", id, "1")
	require.NoError(t, err)

	stdout, _, err = run(t, m, "chapters", id)
	require.NoError(t, err)
	assert.Contains(t, stdout, "*    1  第一章 风起")

	stdout, _, err = run(t, m, "cache", "usage")
	require.NoError(t, err)

	// Then: the second read came from the cache
	assert.Equal(t, 1, s.hitsFor(chapter1URL))
	assert.Contains(t, stdout, "1 chapters in 1 books")

	stdout, _, err = run(t, m, "delete", id, "--force")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Deleted")

	stdout, _, err = run(t, m, "cache", "usage")
	require.NoError(t, err)
	assert.Contains(t, stdout, "0 chapters in 0 books")
}
