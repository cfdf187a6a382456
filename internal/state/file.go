package state

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// FileRepository persists the snapshot as JSON at a fixed path, mirroring the
// per-browser local storage the web storefront relies on.
type FileRepository struct {
	path string
}

// NewFileRepository constructs a repository writing to path. Parent
// directories are created on first save.
func NewFileRepository(path string) (*FileRepository, error) {
	if path == "" {
		return nil, errors.New("state: file path is required")
	}
	return &FileRepository{path: path}, nil
}

// Load reads and decodes the snapshot file.
func (r *FileRepository) Load(ctx context.Context) (Snapshot, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return Snapshot{}, notFoundError("state: no snapshot file")
	}
	if err != nil {
		return Snapshot{}, unavailableError("state: read failed", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		// A corrupt file is treated as absent; the next save rewrites it.
		return Snapshot{}, notFoundError("state: snapshot file corrupt")
	}
	return snapshot, nil
}

// Save writes the snapshot atomically via a temp file rename.
func (r *FileRepository) Save(ctx context.Context, snapshot Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return unavailableError("state: encode failed", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return unavailableError("state: mkdir failed", err)
	}

	tmp, err := os.CreateTemp(dir, ".cart-*.tmp")
	if err != nil {
		return unavailableError("state: temp file failed", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return unavailableError("state: write failed", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return unavailableError("state: close failed", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return unavailableError("state: rename failed", err)
	}
	return nil
}

// Clear removes the snapshot file; a missing file is not an error.
func (r *FileRepository) Clear(ctx context.Context) error {
	err := os.Remove(r.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return unavailableError("state: remove failed", err)
	}
	return nil
}
