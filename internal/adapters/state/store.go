// Package state persists provisioning state and guards it with an advisory
// run lock.
package state

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/themperek/rig/internal/core/domain"
	"go.trai.ch/zerr"
)

// Store implements ports.StateStore using a flat JSON file. Writes are
// atomic: the state is written to a temporary file in the same directory
// and renamed over the previous one, so a crash mid-write never corrupts
// previously-persisted state.
type Store struct{}

// NewStore creates a new state store.
func NewStore() *Store {
	return &Store{}
}

// Load returns the persisted state at path, or an empty state if none
// exists yet.
func (s *Store) Load(path string) (*domain.State, error) {
	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.NewState(), nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrPersistence.Error()), "path", path)
	}

	if len(data) == 0 {
		return domain.NewState(), nil
	}

	state := domain.NewState()
	if err := json.Unmarshal(data, state); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrPersistence.Error()), "path", path)
	}
	return state, nil
}

// Save writes the whole state atomically.
func (s *Store) Save(path string, state *domain.State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrPersistence.Error())
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrPersistence.Error()), "path", path)
	}

	tmp, err := os.CreateTemp(dir, domain.StateFileName+".tmp-*")
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrPersistence.Error()), "path", path)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return zerr.With(zerr.Wrap(err, domain.ErrPersistence.Error()), "path", path)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return zerr.With(zerr.Wrap(err, domain.ErrPersistence.Error()), "path", path)
	}
	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		_ = os.Remove(tmpName)
		return zerr.With(zerr.Wrap(err, domain.ErrPersistence.Error()), "path", path)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return zerr.With(zerr.Wrap(err, domain.ErrPersistence.Error()), "path", path)
	}
	return nil
}

// RecordTransition updates one step's record and persists immediately.
func (s *Store) RecordTransition(path string, rec domain.ExecutionRecord) error {
	state, err := s.Load(path)
	if err != nil {
		return err
	}
	state.Set(rec)
	return s.Save(path, state)
}
