// Package tempfiles manages the per-run scratch directory that holds uploaded
// media and intermediate render artifacts. Each run owns an isolated,
// uuid-named directory so concurrent invocations never collide, and the whole
// tree is removed in one sweep when the run finishes.
package tempfiles

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Workspace is the scratch directory for a single pipeline run. It is owned
// exclusively by that run and must not be shared.
type Workspace struct {
	dir string
}

// NewWorkspace creates a fresh run-scoped directory under the system temp dir.
func NewWorkspace() (*Workspace, error) {
	dir := filepath.Join(os.TempDir(), "reel-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create run workspace: %w", err)
	}
	log.Debug().Str("dir", dir).Msg("Run workspace created")
	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace root.
func (w *Workspace) Dir() string {
	return w.dir
}

// Path returns the absolute path for a named artifact inside the workspace.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// Persist fully buffers the reader into a workspace file and returns its path.
func (w *Workspace) Persist(name string, r io.Reader) (string, error) {
	path := w.Path(name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	log.Debug().Str("path", path).Msg("Upload persisted to workspace")
	return path, nil
}

// Cleanup removes the whole workspace tree. Deletion errors are swallowed:
// cleanup is best-effort on every exit path and must never mask a run error.
func (w *Workspace) Cleanup() {
	if err := os.RemoveAll(w.dir); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("dir", w.dir).Msg("Failed to remove run workspace")
		return
	}
	log.Debug().Str("dir", w.dir).Msg("Run workspace removed")
}
