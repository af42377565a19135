package core

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/renameio"
)

// DirEntry is one readdir result.
type DirEntry struct {
	Name string `json:"name"`
	Type string `json:"type"` // "file" or "dir"
}

// FileSystem abstracts the filesystem primitives the workflows depend on.
// These mirror the external procedure contracts (fs.exists, fs.read.json,
// fs.mkdir, fs.write, fs.rm, fs.glob, fs.readdir) so tests can substitute
// mocks for every side effect.
type FileSystem interface {
	Exists(path string) bool
	MkdirAll(path string, perm os.FileMode) error
	// ReadJSON decodes the file at path into out; invalid JSON is an error,
	// never silently tolerated.
	ReadJSON(path string, out any) error
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, content []byte) error
	Remove(path string) error
	RemoveAll(path string) error
	// Glob matches pattern relative to cwd, skipping any path containing an
	// ignore segment. Patterns support ** for any directory depth.
	Glob(pattern, cwd string, ignore []string) ([]string, error)
	ReadDir(path string) ([]DirEntry, error)
	Stat(path string) (os.FileInfo, error)
}

// OSFileSystem implements FileSystem using the standard os package. File
// writes go through a temp file and rename, so a crashed rename pass never
// leaves a half-written package.json.
type OSFileSystem struct{}

// NewOSFileSystem creates an OSFileSystem.
func NewOSFileSystem() *OSFileSystem {
	return &OSFileSystem{}
}

// Exists reports whether path exists.
func (f *OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// MkdirAll creates a directory path.
func (f *OSFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// ReadJSON reads and decodes a JSON file.
func (f *OSFileSystem) ReadJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("invalid JSON in %s: %w", path, err)
	}
	return nil
}

// ReadFile reads a file's content.
func (f *OSFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile writes content atomically.
func (f *OSFileSystem) WriteFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return renameio.WriteFile(path, content, 0644)
}

// Remove removes a single file.
func (f *OSFileSystem) Remove(path string) error {
	return os.Remove(path)
}

// RemoveAll removes a directory tree.
func (f *OSFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// Glob walks cwd matching pattern. Ignore entries are matched against every
// path segment (node_modules anywhere in the path skips the subtree).
func (f *OSFileSystem) Glob(pattern, cwd string, ignore []string) ([]string, error) {
	if cwd == "" {
		cwd = "."
	}
	var matches []string
	err := filepath.WalkDir(cwd, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(cwd, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			if containsSegment(rel, ignore) {
				return filepath.SkipDir
			}
			return nil
		}
		if containsSegment(rel, ignore) {
			return nil
		}
		ok, matchErr := matchGlob(pattern, filepath.ToSlash(rel))
		if matchErr != nil {
			return matchErr
		}
		if ok {
			matches = append(matches, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// ReadDir lists directory contents.
func (f *OSFileSystem) ReadDir(path string) ([]DirEntry, error) {
	if path == "" {
		path = "."
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	out := make([]DirEntry, 0, len(entries))
	for _, e := range entries {
		t := "file"
		if e.IsDir() {
			t = "dir"
		}
		out = append(out, DirEntry{Name: e.Name(), Type: t})
	}
	return out, nil
}

// Stat returns file info.
func (f *OSFileSystem) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// containsSegment reports whether any segment of rel equals an ignore entry.
func containsSegment(rel string, ignore []string) bool {
	if len(ignore) == 0 {
		return false
	}
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		for _, ig := range ignore {
			if seg == ig {
				return true
			}
		}
	}
	return false
}

// matchGlob matches a slash-separated path against a pattern where "**"
// crosses directory boundaries and "*"/"?" stay within one segment.
func matchGlob(pattern, path string) (bool, error) {
	return matchSegments(strings.Split(pattern, "/"), strings.Split(path, "/"))
}

func matchSegments(pat, segs []string) (bool, error) {
	for len(pat) > 0 {
		if pat[0] == "**" {
			// ** matches zero or more leading segments.
			for skip := 0; skip <= len(segs); skip++ {
				ok, err := matchSegments(pat[1:], segs[skip:])
				if err != nil || ok {
					return ok, err
				}
			}
			return false, nil
		}
		if len(segs) == 0 {
			return false, nil
		}
		ok, err := matchSegmentAlternatives(pat[0], segs[0])
		if err != nil || !ok {
			return false, err
		}
		pat, segs = pat[1:], segs[1:]
	}
	return len(segs) == 0, nil
}

// matchSegmentAlternatives expands one brace group ({ts,tsx}) before the
// stdlib segment match. Nested braces do not occur in the patterns this tool
// uses.
func matchSegmentAlternatives(pat, seg string) (bool, error) {
	open := strings.IndexByte(pat, '{')
	if open == -1 {
		return filepath.Match(pat, seg)
	}
	end := strings.IndexByte(pat[open:], '}')
	if end == -1 {
		return filepath.Match(pat, seg)
	}
	end += open
	for _, alt := range strings.Split(pat[open+1:end], ",") {
		ok, err := matchSegmentAlternatives(pat[:open]+alt+pat[end+1:], seg)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}
