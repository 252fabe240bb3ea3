// Package output handles directory layout and file writing for one
// section. The section owns a single images/ directory shared by all
// its pages; a top-level page with children gets a directory named
// after its sanitized title with its own file as a sibling of that
// directory, and every descendant's file lands inside it.
package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gaurav-prasanna/notemark/core"
	"github.com/gaurav-prasanna/notemark/core/sanitize"
)

// Writer writes rendered pages under a section's output directory.
type Writer struct {
	SectionDir string
}

// New creates a Writer rooted at sectionDir, creating it and the
// shared images directory. Both creations are idempotent.
func New(sectionDir string) (*Writer, error) {
	if err := os.MkdirAll(sectionDir, 0755); err != nil {
		return nil, fmt.Errorf("creating section directory: %w", err)
	}
	w := &Writer{SectionDir: sectionDir}
	if err := os.MkdirAll(w.ImagesDir(), 0755); err != nil {
		return nil, fmt.Errorf("creating images directory: %w", err)
	}
	return w, nil
}

// ImagesDir returns the section's shared image store.
func (w *Writer) ImagesDir() string {
	return filepath.Join(w.SectionDir, "images")
}

// ChildDir returns the directory that holds the children of a
// top-level page with the given title.
func (w *Writer) ChildDir(title string) string {
	return filepath.Join(w.SectionDir, sanitize.Title(title))
}

// Write stores the rendered page. Top-level pages land directly in the
// section directory; nested pages in their task's parent directory,
// which is created on demand.
func (w *Writer) Write(task core.ConversionTask, data []byte, ext string) (string, error) {
	dir := w.SectionDir
	if task.ParentDir != "" {
		dir = task.ParentDir
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	path := filepath.Join(dir, sanitize.Title(task.Page.Title)+ext)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file %s: %w", path, err)
	}
	return path, nil
}
