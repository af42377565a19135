// Package core implements the orchestrator: ecosystem scanning, dependency
// graph construction and leveled execution, the workflow library, and the
// native procedure handlers backing the aggregation registry.
package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio"
)

// JSONStore provides generic JSON file I/O for a single document of type T.
// Writes go through a temp file and rename so readers never observe a partial
// document; every mutation of a stored document is a full read-modify-write.
type JSONStore[T any] struct {
	rootDir      string
	filename     string
	allowMissing bool // If true, missing file returns zero value instead of error
}

// NewJSONStore creates a new JSON store for type T.
//
// Parameters:
//   - rootDir: Directory containing the JSON file
//   - filename: Name of the JSON file (e.g., "ecosystem.manifest.json")
//   - allowMissing: If true, Load() returns zero value for missing files instead of error
func NewJSONStore[T any](rootDir, filename string, allowMissing bool) *JSONStore[T] {
	return &JSONStore[T]{
		rootDir:      rootDir,
		filename:     filename,
		allowMissing: allowMissing,
	}
}

// Path returns the full file path
func (s *JSONStore[T]) Path() string {
	return filepath.Join(s.rootDir, s.filename)
}

// Exists reports whether the stored file is present on disk.
func (s *JSONStore[T]) Exists() bool {
	_, err := os.Stat(s.Path())
	return err == nil
}

// Load reads and unmarshals the JSON file into type T
func (s *JSONStore[T]) Load() (T, error) {
	var result T

	data, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && s.allowMissing {
			return result, nil // Return zero value
		}
		return result, err
	}

	if err := json.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("invalid %s: %w", s.filename, err)
	}

	return result, nil
}

// Save marshals T and writes it atomically (temp file, then rename).
func (s *JSONStore[T]) Save(data T) error {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", s.filename, err)
	}
	bytes = append(bytes, '\n')

	if err := os.MkdirAll(s.rootDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", s.rootDir, err)
	}
	if err := renameio.WriteFile(s.Path(), bytes, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.filename, err)
	}

	return nil
}
