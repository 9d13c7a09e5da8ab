// Package store persists the accumulated coverage map as a single JSON file.
package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/covertask/internal/domain"
)

// DefaultPath is the well-known location consumed by the nyc reporting
// engine.
const DefaultPath = ".nyc_output/out.json"

// FileStore provides JSON file-based storage for the coverage map. The host
// runner invokes tasks serially, so concurrent writers are not synchronized.
type FileStore struct {
	FilePath string
}

// Path returns the persisted file location.
func (s *FileStore) Path() string {
	if s.FilePath == "" {
		return filepath.FromSlash(DefaultPath)
	}
	return s.FilePath
}

// Exists reports whether a coverage map has been persisted.
func (s *FileStore) Exists() (bool, error) {
	_, err := os.Stat(s.Path())
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Load reads the persisted map. Returns an empty map if no file exists yet.
func (s *FileStore) Load() (domain.CoverageMap, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.CoverageMap{}, nil
		}
		return nil, err
	}

	m, err := domain.ParseCoverageMap(data)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Save rewrites the persisted file with the full map as pretty-printed JSON,
// creating the containing directory on demand.
func (s *FileStore) Save(m domain.CoverageMap) error {
	dir := filepath.Dir(s.Path())
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.Path(), data, 0o600)
}
