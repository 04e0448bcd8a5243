package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/lectern"
)

// Ensure Exporter implements lectern.BookExport at compile time.
var _ lectern.BookExport = (*Exporter)(nil)

// Exporter writes a book as numbered text files. Chapters are staged in
// baseDir/name.tmp and moved to baseDir/name on Commit.
type Exporter struct {
	baseDir string
	name    string
}

// NewExporter creates an Exporter. name must be a single path element.
func NewExporter(baseDir, name string) (*Exporter, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return nil, lectern.Errorf(lectern.EINVALID, "invalid export name %q", name)
	}
	return &Exporter{baseDir: baseDir, name: name}, nil
}

func (e *Exporter) tempDir() string {
	return filepath.Join(e.baseDir, e.name+".tmp")
}

func (e *Exporter) finalDir() string {
	return filepath.Join(e.baseDir, e.name)
}

// Save stages a chapter as NNNN.txt.
func (e *Exporter) Save(ctx context.Context, position int, ch *lectern.Chapter) error {
	if position < 1 {
		return lectern.Errorf(lectern.EINVALID, "chapter position must be positive")
	}
	if err := os.MkdirAll(e.tempDir(), 0755); err != nil {
		return err
	}
	path := filepath.Join(e.tempDir(), fmt.Sprintf("%04d%s", position, entryExt))
	return os.WriteFile(path, []byte(FormatChapter(ch)), 0644)
}

// FormatChapter formats a chapter with a YAML header.
func FormatChapter(ch *lectern.Chapter) string {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("source: ")
	b.WriteString(ch.Ref.URL)
	b.WriteString("\ntitle: ")
	b.WriteString(ch.Ref.Title)
	b.WriteString("\norigin: ")
	b.WriteString(string(ch.Origin))
	b.WriteString("\nfetched: ")
	b.WriteString(ch.FetchedAt.Format("2006-01-02"))
	b.WriteString("\n---\n\n")
	b.WriteString(ch.Text)
	b.WriteString("\n")
	return b.String()
}

// Commit replaces the destination directory with the staged chapters.
func (e *Exporter) Commit() error {
	if err := os.RemoveAll(e.finalDir()); err != nil {
		return err
	}
	return os.Rename(e.tempDir(), e.finalDir())
}

// Abort removes the staged chapters.
func (e *Exporter) Abort() error {
	return os.RemoveAll(e.tempDir())
}
