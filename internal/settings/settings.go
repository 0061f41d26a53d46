// Package settings persists view preferences between runs.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const fileMode = 0o644

// State holds the persisted view preferences. Absent keys keep their
// defaults on load, so new fields stay backward compatible.
type State struct {
	ShouldAutoScroll bool            `yaml:"shouldAutoScroll"`
	VisibleColumns   map[string]bool `yaml:"visibleColumns,omitempty"`
}

// Default returns the state used when nothing was saved yet.
func Default() State {
	return State{ShouldAutoScroll: true}
}

// Store reads and writes the state file.
type Store struct {
	path string
}

// DefaultPath resolves the per-user state file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("settings: resolve config dir: %w", err)
	}
	return filepath.Join(dir, "lumen", "state.yaml"), nil
}

// NewStore creates a store at path, or at DefaultPath when path is empty.
func NewStore(path string) (*Store, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return &Store{path: path}, nil
}

// Path reports where the state is stored.
func (s *Store) Path() string { return s.path }

// Load reads the saved state. A missing file yields defaults without error;
// an unreadable or malformed file yields defaults and the error.
func (s *Store) Load() (State, error) {
	st := Default()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return st, nil
		}
		return st, fmt.Errorf("settings: read state: %w", err)
	}

	if err := yaml.Unmarshal(data, &st); err != nil {
		return Default(), fmt.Errorf("settings: parse state: %w", err)
	}
	return st, nil
}

// Save writes the state atomically (temp file + rename).
func (s *Store) Save(st State) error {
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("settings: encode state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("settings: create state dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, fileMode); err != nil {
		return fmt.Errorf("settings: write state tmp: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("settings: rename state file: %w", err)
	}
	return nil
}
