package feed

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// Writer persists rendered feed documents.
type Writer struct {
	path string
}

// NewWriter creates a Writer for the feed file at path.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Path returns the feed file path.
func (w *Writer) Path() string { return w.path }

// Exists reports whether the feed file is present.
func (w *Writer) Exists() bool {
	_, err := os.Stat(w.path)
	return err == nil
}

// Write atomically replaces the feed file with doc.
func (w *Writer) Write(ctx context.Context, doc []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create feed directory: %w", err)
	}
	if err := renameio.WriteFile(w.path, doc, 0o644); err != nil {
		return fmt.Errorf("write feed %s: %w", w.path, err)
	}
	return nil
}
