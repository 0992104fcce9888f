package docstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rpggio/hourbank/internal/repository"
)

// beforeRename runs between the temp file write and the rename. Tests use
// it to simulate a writer dying mid-save.
var beforeRename func(tmpPath string) error

// FileBackend keeps the document in a single JSON file.
type FileBackend struct {
	path string
}

// NewFileBackend returns a backend for the file at path, creating its
// directory if needed.
func NewFileBackend(path string) (*FileBackend, error) {
	if path == "" {
		path = "state.json"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
	}
	return &FileBackend{path: path}, nil
}

// Path returns the canonical document path.
func (f *FileBackend) Path() string { return f.path }

// Read returns the file contents, or repository.ErrNotFound.
func (f *FileBackend) Read(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Write replaces the file atomically: the payload goes to a synced temp file
// in the same directory, which is then renamed over the canonical path.
func (f *FileBackend) Write(_ context.Context, payload []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".state-*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if beforeRename != nil {
		if err := beforeRename(tmp.Name()); err != nil {
			return err
		}
	}
	return os.Rename(tmp.Name(), f.path)
}
