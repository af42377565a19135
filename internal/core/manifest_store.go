package core

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/xeipuuv/gojsonschema"

	"github.com/mark1russell7/ecosys/internal/types"
)

// manifestSchema validates the manifest shape before any workflow trusts its
// contents. The repo field grammar itself is checked by the gitref parser;
// the schema only pins structure.
const manifestSchema = `{
  "type": "object",
  "required": ["version", "root", "packages"],
  "properties": {
    "version": { "type": "string" },
    "root": { "type": "string", "minLength": 1 },
    "packages": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "required": ["repo", "path"],
        "properties": {
          "repo": { "type": "string", "minLength": 1 },
          "path": { "type": "string", "minLength": 1 }
        }
      }
    },
    "projectTemplate": {
      "type": "object",
      "properties": {
        "files": { "type": "array", "items": { "type": "string" } },
        "dirs":  { "type": "array", "items": { "type": "string" } }
      }
    }
  }
}`

// ManifestStore handles ecosystem manifest I/O. The manifest is the
// authoritative package inventory; all writes are atomic full rewrites.
type ManifestStore interface {
	Load() (types.Manifest, error)
	Save(m types.Manifest) error
	Path() string
	Exists() bool
	// RootDir returns the expanded absolute ecosystem root the manifest
	// declares.
	RootDir(m types.Manifest) string
}

// FileManifestStore implements ManifestStore using JSONStore.
type FileManifestStore struct {
	store *JSONStore[types.Manifest]
}

// NewFileManifestStore creates a manifest store under rootDir (the directory
// that contains the ecosystem/ subdirectory).
func NewFileManifestStore(rootDir string) *FileManifestStore {
	return &FileManifestStore{
		store: NewJSONStore[types.Manifest](filepath.Join(rootDir, EcosystemDir), ManifestFile, false),
	}
}

// Path returns the manifest file path.
func (s *FileManifestStore) Path() string { return s.store.Path() }

// Exists reports whether the manifest file is present.
func (s *FileManifestStore) Exists() bool { return s.store.Exists() }

// Load reads, parses and validates the manifest. A missing file yields
// ErrManifestMissing; parse and schema violations yield ManifestInvalidError.
func (s *FileManifestStore) Load() (types.Manifest, error) {
	m, err := s.store.Load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return types.Manifest{}, ErrManifestMissing
		}
		return types.Manifest{}, &ManifestInvalidError{Path: s.Path(), Cause: err}
	}
	if reasons := validateManifest(m); len(reasons) > 0 {
		return types.Manifest{}, &ManifestInvalidError{Path: s.Path(), Reasons: reasons}
	}
	return m, nil
}

// Save writes the manifest atomically.
func (s *FileManifestStore) Save(m types.Manifest) error {
	return s.store.Save(m)
}

// RootDir expands the manifest root's home-directory sentinel and returns an
// absolute path.
func (s *FileManifestStore) RootDir(m types.Manifest) string {
	return ExpandHome(m.Root)
}

// validateManifest checks the manifest against its schema and version field.
// Returned reasons are empty for a valid manifest.
func validateManifest(m types.Manifest) []string {
	var reasons []string

	doc := gojsonschema.NewGoLoader(m)
	schema := gojsonschema.NewStringLoader(manifestSchema)
	result, err := gojsonschema.Validate(schema, doc)
	if err != nil {
		return []string{err.Error()}
	}
	for _, desc := range result.Errors() {
		reasons = append(reasons, desc.String())
	}

	if m.Version != "" {
		if _, err := semver.NewVersion(m.Version); err != nil {
			reasons = append(reasons, "version: '"+m.Version+"' is not a semantic version")
		}
	}
	return reasons
}

// ExpandHome expands a leading ~ to the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
