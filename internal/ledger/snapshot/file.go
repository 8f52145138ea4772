package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dvloznov/finance-assistant/internal/ledger"
)

// FileStore keeps the snapshot in a local JSON file. Saves go through a
// temporary file and a rename so a crash never leaves a half-written snapshot.
type FileStore struct {
	path string
}

// NewFileStore creates a store for path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load implements Store.
func (s *FileStore) Load(ctx context.Context) (ledger.State, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return ledger.State{}, nil
	}
	if err != nil {
		return ledger.State{}, fmt.Errorf("FileStore.Load: reading %s: %w", s.path, err)
	}
	return decode(data)
}

// Save implements Store.
func (s *FileStore) Save(ctx context.Context, state ledger.State) error {
	data, err := encode(state)
	if err != nil {
		return fmt.Errorf("FileStore.Save: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("FileStore.Save: creating %s: %w", dir, err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("FileStore.Save: writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("FileStore.Save: renaming %s: %w", tmp, err)
	}
	return nil
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }
