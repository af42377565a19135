package core

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mark1russell7/ecosys/internal/types"
)

// ============================================================================
// In-memory FileSystem
// ============================================================================

// MemFileSystem is an in-memory FileSystem that records every mutating call,
// so tests can assert dry-run purity and write ordering.
type MemFileSystem struct {
	mu    sync.Mutex
	files map[string][]byte
	dirs  map[string]bool
	// Calls records mutating operations as "op path" strings.
	Calls []string
	// FailOn maps "op path" to an error returned instead of acting.
	FailOn map[string]error
}

// NewMemFileSystem creates an empty in-memory filesystem.
func NewMemFileSystem() *MemFileSystem {
	return &MemFileSystem{
		files:  make(map[string][]byte),
		dirs:   make(map[string]bool),
		FailOn: make(map[string]error),
	}
}

// AddFile seeds a file (and its parent directories).
func (m *MemFileSystem) AddFile(path string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[filepath.Clean(path)] = content
	for dir := filepath.Dir(path); dir != "." && dir != "/"; dir = filepath.Dir(dir) {
		m.dirs[filepath.Clean(dir)] = true
	}
}

// AddJSON seeds a file with the JSON encoding of v.
func (m *MemFileSystem) AddJSON(path string, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		panic(err)
	}
	m.AddFile(path, data)
}

// AddDir seeds a directory.
func (m *MemFileSystem) AddDir(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for dir := filepath.Clean(path); dir != "." && dir != "/"; dir = filepath.Dir(dir) {
		m.dirs[dir] = true
	}
}

// FileContent returns a seeded or written file's content.
func (m *MemFileSystem) FileContent(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[filepath.Clean(path)]
	return data, ok
}

// MutatingCalls returns the recorded mutating operations.
func (m *MemFileSystem) MutatingCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Calls...)
}

func (m *MemFileSystem) record(op, path string) error {
	m.Calls = append(m.Calls, op+" "+path)
	return m.FailOn[op+" "+path]
}

// Exists reports whether a seeded file or directory exists.
func (m *MemFileSystem) Exists(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	_, isFile := m.files[path]
	return isFile || m.dirs[path]
}

// MkdirAll records the mkdir and creates the directory.
func (m *MemFileSystem) MkdirAll(path string, _ os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("mkdir", path); err != nil {
		return err
	}
	for dir := filepath.Clean(path); dir != "." && dir != "/"; dir = filepath.Dir(dir) {
		m.dirs[dir] = true
	}
	return nil
}

// ReadJSON decodes a seeded file.
func (m *MemFileSystem) ReadJSON(path string, out any) error {
	data, ok := m.FileContent(path)
	if !ok {
		return os.ErrNotExist
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("invalid JSON in %s: %w", path, err)
	}
	return nil
}

// ReadFile returns a seeded file's content.
func (m *MemFileSystem) ReadFile(path string) ([]byte, error) {
	data, ok := m.FileContent(path)
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

// WriteFile records the write and stores the content.
func (m *MemFileSystem) WriteFile(path string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("write", path); err != nil {
		return err
	}
	m.files[filepath.Clean(path)] = content
	return nil
}

// Remove records and removes a file.
func (m *MemFileSystem) Remove(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("rm", path); err != nil {
		return err
	}
	path = filepath.Clean(path)
	if _, ok := m.files[path]; !ok {
		return os.ErrNotExist
	}
	delete(m.files, path)
	return nil
}

// RemoveAll records and removes a subtree.
func (m *MemFileSystem) RemoveAll(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("rmall", path); err != nil {
		return err
	}
	path = filepath.Clean(path)
	for f := range m.files {
		if f == path || strings.HasPrefix(f, path+"/") {
			delete(m.files, f)
		}
	}
	for d := range m.dirs {
		if d == path || strings.HasPrefix(d, path+"/") {
			delete(m.dirs, d)
		}
	}
	return nil
}

// Glob matches seeded files below cwd.
func (m *MemFileSystem) Glob(pattern, cwd string, ignore []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cwd = filepath.Clean(cwd)
	var matches []string
	for f := range m.files {
		if !strings.HasPrefix(f, cwd+"/") {
			continue
		}
		rel := strings.TrimPrefix(f, cwd+"/")
		if containsSegment(rel, ignore) {
			continue
		}
		ok, err := matchGlob(pattern, filepath.ToSlash(rel))
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, rel)
		}
	}
	sort.Strings(matches)
	return matches, nil
}

// ReadDir lists immediate children of path.
func (m *MemFileSystem) ReadDir(path string) ([]DirEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	seen := make(map[string]string)
	for f := range m.files {
		if filepath.Dir(f) == path {
			seen[filepath.Base(f)] = "file"
		}
	}
	for d := range m.dirs {
		if filepath.Dir(d) == path {
			seen[filepath.Base(d)] = "dir"
		}
	}
	var names []string
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	entries := make([]DirEntry, 0, len(names))
	for _, n := range names {
		entries = append(entries, DirEntry{Name: n, Type: seen[n]})
	}
	return entries, nil
}

// Stat is unsupported detail-wise; it only reports existence.
func (m *MemFileSystem) Stat(path string) (os.FileInfo, error) {
	if !m.Exists(path) {
		return nil, os.ErrNotExist
	}
	return nil, nil
}

// ============================================================================
// Function-field GitClient mock
// ============================================================================

// MockGitClient implements GitClient with overridable function fields and a
// call log.
type MockGitClient struct {
	mu    sync.Mutex
	Calls []string

	StatusFunc        func(dir string) (types.GitStatus, error)
	AddFunc           func(dir string, all bool) error
	CommitFunc        func(dir, message string) (string, error)
	PushFunc          func(dir string) error
	PullFunc          func(dir, remote string, rebase bool) (types.PullInfo, error)
	CloneFunc         func(url, dest, branch string) error
	CheckoutFunc      func(dir, ref string) error
	BranchesFunc      func(dir string) ([]string, error)
	CurrentBranchFunc func(dir string) (string, error)
	RemoteURLFunc     func(dir, name string) (string, error)
	InitFunc          func(dir string) error
}

// NewMockGitClient creates a mock whose every operation succeeds.
func NewMockGitClient() *MockGitClient {
	return &MockGitClient{
		StatusFunc:        func(string) (types.GitStatus, error) { return types.GitStatus{Branch: "main", Clean: true}, nil },
		AddFunc:           func(string, bool) error { return nil },
		CommitFunc:        func(string, string) (string, error) { return "abc123def456", nil },
		PushFunc:          func(string) error { return nil },
		PullFunc:          func(string, string, bool) (types.PullInfo, error) { return types.PullInfo{Commits: 1}, nil },
		CloneFunc:         func(string, string, string) error { return nil },
		CheckoutFunc:      func(string, string) error { return nil },
		BranchesFunc:      func(string) ([]string, error) { return []string{"main"}, nil },
		CurrentBranchFunc: func(string) (string, error) { return "main", nil },
		RemoteURLFunc:     func(string, string) (string, error) { return "", fmt.Errorf("no remote") },
		InitFunc:          func(string) error { return nil },
	}
}

func (g *MockGitClient) log(call string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls = append(g.Calls, call)
}

// CallLog returns the recorded git operations.
func (g *MockGitClient) CallLog() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.Calls...)
}

func (g *MockGitClient) Status(_ context.Context, dir string) (types.GitStatus, error) {
	g.log("status " + dir)
	return g.StatusFunc(dir)
}

func (g *MockGitClient) Add(_ context.Context, dir string, all bool) error {
	g.log("add " + dir)
	return g.AddFunc(dir, all)
}

func (g *MockGitClient) Commit(_ context.Context, dir, message string) (string, error) {
	g.log("commit " + dir)
	return g.CommitFunc(dir, message)
}

func (g *MockGitClient) Push(_ context.Context, dir string) error {
	g.log("push " + dir)
	return g.PushFunc(dir)
}

func (g *MockGitClient) Pull(_ context.Context, dir, remote string, rebase bool) (types.PullInfo, error) {
	g.log("pull " + dir)
	return g.PullFunc(dir, remote, rebase)
}

func (g *MockGitClient) Clone(_ context.Context, url, dest, branch string) error {
	g.log("clone " + url + " -> " + dest)
	return g.CloneFunc(url, dest, branch)
}

func (g *MockGitClient) Checkout(_ context.Context, dir, ref string) error {
	g.log("checkout " + dir)
	return g.CheckoutFunc(dir, ref)
}

func (g *MockGitClient) Branches(_ context.Context, dir string) ([]string, error) {
	g.log("branch " + dir)
	return g.BranchesFunc(dir)
}

func (g *MockGitClient) CurrentBranch(_ context.Context, dir string) (string, error) {
	g.log("current-branch " + dir)
	return g.CurrentBranchFunc(dir)
}

func (g *MockGitClient) RemoteURL(_ context.Context, dir, name string) (string, error) {
	g.log("remote " + dir)
	return g.RemoteURLFunc(dir, name)
}

func (g *MockGitClient) Init(_ context.Context, dir string) error {
	g.log("init " + dir)
	return g.InitFunc(dir)
}

// ============================================================================
// Function-field ProcessRunner mock
// ============================================================================

// MockProcessRunner implements ProcessRunner with overridable function fields
// and a call log.
type MockProcessRunner struct {
	mu    sync.Mutex
	Calls []string

	InstallFunc func(cwd string, packages []string, dev bool) (types.ProcessResult, error)
	RunFunc     func(script, cwd string) (types.ProcessResult, error)
	ExecFunc    func(command, cwd string) (types.ProcessResult, error)
}

// NewMockProcessRunner creates a mock whose every invocation succeeds.
func NewMockProcessRunner() *MockProcessRunner {
	ok := types.ProcessResult{Success: true, Duration: 10 * time.Millisecond}
	return &MockProcessRunner{
		InstallFunc: func(string, []string, bool) (types.ProcessResult, error) { return ok, nil },
		RunFunc:     func(string, string) (types.ProcessResult, error) { return ok, nil },
		ExecFunc:    func(string, string) (types.ProcessResult, error) { return ok, nil },
	}
}

func (r *MockProcessRunner) log(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, call)
}

// CallLog returns the recorded process invocations.
func (r *MockProcessRunner) CallLog() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.Calls...)
}

func (r *MockProcessRunner) Install(_ context.Context, cwd string, packages []string, dev bool) (types.ProcessResult, error) {
	r.log("install " + cwd)
	return r.InstallFunc(cwd, packages, dev)
}

func (r *MockProcessRunner) Run(_ context.Context, script, cwd string) (types.ProcessResult, error) {
	r.log("run " + script + " " + cwd)
	return r.RunFunc(script, cwd)
}

func (r *MockProcessRunner) Exec(_ context.Context, command, cwd string, _ time.Duration) (types.ProcessResult, error) {
	r.log("exec " + command)
	return r.ExecFunc(command, cwd)
}

// ============================================================================
// ManifestStore stub
// ============================================================================

// StubManifestStore serves a fixed manifest and records saves.
type StubManifestStore struct {
	Manifest  types.Manifest
	LoadErr   error
	Saved     []types.Manifest
	NotExists bool
}

func (s *StubManifestStore) Load() (types.Manifest, error) {
	if s.LoadErr != nil {
		return types.Manifest{}, s.LoadErr
	}
	return s.Manifest, nil
}

func (s *StubManifestStore) Save(m types.Manifest) error {
	s.Saved = append(s.Saved, m)
	s.Manifest = m
	return nil
}

func (s *StubManifestStore) Path() string { return "/eco/ecosystem/ecosystem.manifest.json" }

func (s *StubManifestStore) Exists() bool { return !s.NotExists }

func (s *StubManifestStore) RootDir(m types.Manifest) string { return ExpandHome(m.Root) }
