package snippet

import (
	"context"
	"path/filepath"

	"github.com/spf13/afero"

	"docsnip/internal/errors"
	"docsnip/internal/paths"
)

// Writer persists materialized artifacts into a workspace.
type Writer interface {
	Write(ctx context.Context, ws Workspace, art Artifact) error
}

// FSWriter writes artifacts through an afero filesystem.
type FSWriter struct {
	fs afero.Fs
}

// NewFSWriter creates a writer over fs (afero.NewOsFs() in production).
func NewFSWriter(fs afero.Fs) *FSWriter {
	return &FSWriter{fs: fs}
}

// Write creates the artifact's folder if needed and writes its file,
// replacing any previous content.
func (w *FSWriter) Write(ctx context.Context, ws Workspace, art Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	full := paths.JoinRootPath(ws.Root, art.Path)
	dir := filepath.Dir(full)

	if err := w.fs.MkdirAll(dir, 0755); err != nil {
		return errors.New(errors.FilesystemError, "failed to create snippet directory", err).WithPath(dir)
	}
	if err := afero.WriteFile(w.fs, full, []byte(art.Content), 0644); err != nil {
		return errors.New(errors.FilesystemError, "failed to write snippet", err).WithPath(full)
	}
	return nil
}

// Clean removes the workspace root and everything below it.
func (w *FSWriter) Clean(ws Workspace) error {
	if err := w.fs.RemoveAll(ws.Root); err != nil {
		return errors.New(errors.FilesystemError, "failed to clean workspace", err).WithPath(ws.Root)
	}
	return nil
}
