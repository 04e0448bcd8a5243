package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/lectern"
	"github.com/fwojciec/lectern/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exportChapter(n int) *lectern.Chapter {
	return &lectern.Chapter{
		BookID:    "b1",
		Ref:       lectern.ChapterRef{Title: "第一章 风起", URL: "https://www.biquge.example/book/1/1.html"},
		Text:      "山门外，风起云涌。",
		Origin:    lectern.OriginNetwork,
		FetchedAt: time.Date(2026, 3, n, 0, 0, 0, 0, time.UTC),
	}
}

func TestExporter_SaveStagesUntilCommit(t *testing.T) {
	t.Parallel()

	// Given an exporter
	base := t.TempDir()
	exp, err := fs.NewExporter(base, "book")
	require.NoError(t, err)

	// When a chapter is saved
	require.NoError(t, exp.Save(context.Background(), 1, exportChapter(1)))

	// Then it is staged in the temp directory only
	_, err = os.Stat(filepath.Join(base, "book.tmp", "0001.txt"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(base, "book"))
	assert.True(t, os.IsNotExist(err))

	// When committed
	require.NoError(t, exp.Commit())

	// Then the chapter appears at the destination and the stage is gone
	_, err = os.Stat(filepath.Join(base, "book", "0001.txt"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(base, "book.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestExporter_CommitReplacesPreviousExport(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "book"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "book", "0009.txt"), []byte("old"), 0644))

	exp, err := fs.NewExporter(base, "book")
	require.NoError(t, err)
	require.NoError(t, exp.Save(context.Background(), 1, exportChapter(1)))
	require.NoError(t, exp.Commit())

	_, err = os.Stat(filepath.Join(base, "book", "0009.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestExporter_AbortRemovesStage(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	exp, err := fs.NewExporter(base, "book")
	require.NoError(t, err)
	require.NoError(t, exp.Save(context.Background(), 2, exportChapter(1)))

	require.NoError(t, exp.Abort())

	_, err = os.Stat(filepath.Join(base, "book.tmp"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(base, "book"))
	assert.True(t, os.IsNotExist(err))
}

func TestFormatChapter(t *testing.T) {
	t.Parallel()

	got := fs.FormatChapter(exportChapter(2))

	assert.Equal(t, "---\n"+
		"source: https://www.biquge.example/book/1/1.html\n"+
		"title: 第一章 风起\n"+
		"origin: network\n"+
		"fetched: 2026-03-02\n"+
		"---\n\n"+
		"山门外，风起云涌。\n", got)
}

func TestNewExporter_RejectsPathNames(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"", ".", "..", "../etc", "a/b", `a\b`} {
		_, err := fs.NewExporter(t.TempDir(), name)
		assert.Equal(t, lectern.EINVALID, lectern.ErrorCode(err), "name %q", name)
	}
}

func TestExporter_RejectsNonPositivePosition(t *testing.T) {
	t.Parallel()

	exp, err := fs.NewExporter(t.TempDir(), "book")
	require.NoError(t, err)

	err = exp.Save(context.Background(), 0, exportChapter(1))

	assert.Equal(t, lectern.EINVALID, lectern.ErrorCode(err))
}
