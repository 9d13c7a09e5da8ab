// Package pathutil provides utilities for safe path handling.
package pathutil

import (
	"errors"
	"path/filepath"
	"strings"
)

var (
	// ErrEmptyPath is returned when an empty path is supplied.
	ErrEmptyPath = errors.New("path is empty")
	// ErrNullBytes is returned when a path contains null bytes.
	ErrNullBytes = errors.New("path contains null bytes")
)

// ValidatePath cleans a user-supplied location such as a report directory or
// coverage store path and returns it in canonical form. Symlinks are resolved
// when the path exists; a path that does not exist yet is returned cleaned so
// new output directories can still be created.
func ValidatePath(path string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}

	cleaned := filepath.Clean(path)

	if strings.Contains(cleaned, "\x00") {
		return "", ErrNullBytes
	}

	realPath, err := filepath.EvalSymlinks(cleaned)
	if err != nil {
		return cleaned, nil
	}

	return realPath, nil
}

// IsPathSafe reports whether a path is acceptable as an output destination.
// Paths that climb above the working directory are rejected so a report is
// never written outside the project.
func IsPathSafe(path string) bool {
	if path == "" {
		return false
	}

	if strings.Contains(path, "\x00") {
		return false
	}

	cleaned := filepath.Clean(path)

	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return false
	}

	return true
}
