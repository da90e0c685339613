// Package statefile persists the portfolio state as a single JSON document.
// It is the authoritative store: every save is write-through, so a crash can
// lose at most the in-flight mutation, never prior history.
package statefile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/akeller/resolvebot/internal/domain"
)

// Store implements domain.StateStore on a local JSON file.
type Store struct {
	path string
}

// New creates a Store persisting to path.
func New(path string) *Store {
	return &Store{path: path}
}

// Load reads the state file. A missing file yields an empty portfolio, not
// an error, so a fresh deployment starts cleanly.
func (s *Store) Load(_ context.Context) (domain.PortfolioState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.PortfolioState{}, nil
		}
		return domain.PortfolioState{}, fmt.Errorf("statefile: read %s: %w", s.path, err)
	}

	var state domain.PortfolioState
	if err := json.Unmarshal(data, &state); err != nil {
		return domain.PortfolioState{}, fmt.Errorf("statefile: decode %s: %w", s.path, err)
	}
	return state, nil
}

// Save writes the full state atomically: marshal, write to a temp file in
// the same directory, fsync, rename over the old file. An external crash can
// therefore never observe a torn state document.
func (s *Store) Save(_ context.Context, state domain.PortfolioState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("statefile: encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("statefile: create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("statefile: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("statefile: sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("statefile: close temp: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("statefile: rename: %w", err)
	}
	return nil
}
