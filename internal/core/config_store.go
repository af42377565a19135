package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GlobalConfig holds user-level tool settings from ~/.config/ecosys/config.yml.
// Everything is optional; zero values fall back to the compiled defaults.
type GlobalConfig struct {
	Owner         string `yaml:"owner,omitempty"`
	DefaultBranch string `yaml:"default_branch,omitempty"`
	Concurrency   int    `yaml:"concurrency,omitempty"`
	Root          string `yaml:"root,omitempty"` // overrides the manifest lookup root
}

// ConfigStore handles global config I/O.
type ConfigStore interface {
	Load() (GlobalConfig, error)
	Save(cfg GlobalConfig) error
	Path() string
}

// FileConfigStore implements ConfigStore over the user config directory.
type FileConfigStore struct {
	path string
}

// NewFileConfigStore creates a store rooted at the user config directory.
func NewFileConfigStore() *FileConfigStore {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return &FileConfigStore{path: filepath.Join(dir, "ecosys", "config.yml")}
}

// NewFileConfigStoreAt creates a store at an explicit path (tests).
func NewFileConfigStoreAt(path string) *FileConfigStore {
	return &FileConfigStore{path: path}
}

// Path returns the config file path.
func (s *FileConfigStore) Path() string { return s.path }

// Load reads the global config; a missing file yields the zero config.
func (s *FileConfigStore) Load() (GlobalConfig, error) {
	var cfg GlobalConfig
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid %s: %w", s.path, err)
	}
	return cfg, nil
}

// Save writes the global config.
func (s *FileConfigStore) Save(cfg GlobalConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}

// Defaulted returns cfg with zero values replaced by compiled defaults.
func (c GlobalConfig) Defaulted() GlobalConfig {
	out := c
	if out.Owner == "" {
		out.Owner = DefaultOwner
	}
	if out.DefaultBranch == "" {
		out.DefaultBranch = DefaultBranch
	}
	if out.Concurrency <= 0 {
		out.Concurrency = DefaultConcurrency
	}
	return out
}
