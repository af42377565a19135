package core

import (
	"testing"

	"github.com/mark1russell7/ecosys/internal/types"
)

// ============================================================================
// TestBuilder - Fluent API for Test Setup
// ============================================================================

// TestBuilder assembles an Engine over in-memory collaborators, seeding a
// manifest and on-disk package fixtures as it goes.
type TestBuilder struct {
	t        *testing.T
	root     string
	manifest types.Manifest
	fs       *MemFileSystem
	git      *MockGitClient
	runner   *MockProcessRunner
	store    *StubManifestStore
	ui       UICallback
}

// NewTestBuilder creates a builder with an empty ecosystem rooted at /eco.
func NewTestBuilder(t *testing.T) *TestBuilder {
	return &TestBuilder{
		t:    t,
		root: "/eco",
		manifest: types.Manifest{
			Version:  "1.0.0",
			Root:     "/eco",
			Packages: map[string]types.ManifestEntry{},
			ProjectTemplate: types.ProjectTemplate{
				Files: []string{"package.json"},
				Dirs:  []string{"src"},
			},
		},
		fs:     NewMemFileSystem(),
		git:    NewMockGitClient(),
		runner: NewMockProcessRunner(),
		ui:     &SilentUICallback{},
	}
}

// WithTemplate overrides the manifest's project template.
func (b *TestBuilder) WithTemplate(files, dirs []string) *TestBuilder {
	b.manifest.ProjectTemplate = types.ProjectTemplate{Files: files, Dirs: dirs}
	return b
}

// WithManifestEntry registers a package in the manifest without creating it
// on disk.
func (b *TestBuilder) WithManifestEntry(name, repo string) *TestBuilder {
	b.manifest.Packages[name] = types.ManifestEntry{Repo: repo, Path: name}
	return b
}

// WithPackage registers a package and seeds its directory with a
// package.json declaring deps (version strings as given).
func (b *TestBuilder) WithPackage(name string, deps map[string]string) *TestBuilder {
	b.WithManifestEntry(name, "github:"+DefaultOwner+"/"+name+"#main")
	dir := b.root + "/" + name
	b.fs.AddDir(dir + "/.git")
	b.fs.AddDir(dir + "/src")
	pkg := map[string]any{"name": name}
	if len(deps) > 0 {
		pkg["dependencies"] = deps
	}
	b.fs.AddJSON(dir+"/"+PackageFile, pkg)
	return b
}

// InternalDep formats an ecosystem-owned git ref version string for name.
func InternalDep(name string) string {
	return "github:" + DefaultOwner + "/" + name + "#main"
}

// WithGit configures the git mock.
func (b *TestBuilder) WithGit(fn func(*MockGitClient)) *TestBuilder {
	fn(b.git)
	return b
}

// WithRunner configures the process runner mock.
func (b *TestBuilder) WithRunner(fn func(*MockProcessRunner)) *TestBuilder {
	fn(b.runner)
	return b
}

// WithUI sets a custom UI callback.
func (b *TestBuilder) WithUI(ui UICallback) *TestBuilder {
	b.ui = ui
	return b
}

// Build wires the engine.
func (b *TestBuilder) Build() *Engine {
	b.store = &StubManifestStore{Manifest: b.manifest}
	engine, err := NewEngineWithDeps(Deps{
		Manifest: b.store,
		FS:       b.fs,
		Git:      b.git,
		Runner:   b.runner,
		UI:       b.ui,
	})
	if err != nil {
		b.t.Fatalf("engine wiring failed: %v", err)
	}
	return engine
}

// Mocks returns the mock collaborators for assertions.
func (b *TestBuilder) Mocks() (*MemFileSystem, *MockGitClient, *MockProcessRunner, *StubManifestStore) {
	return b.fs, b.git, b.runner, b.store
}

// ============================================================================
// Common helpers
// ============================================================================

// capturingUI captures warnings and errors for assertions.
type capturingUI struct {
	Warnings []string
	Errors   []string
}

func (c *capturingUI) ShowError(title, message string) { c.Errors = append(c.Errors, title+": "+message) }
func (c *capturingUI) ShowSuccess(string)              {}
func (c *capturingUI) ShowWarning(title, message string) {
	c.Warnings = append(c.Warnings, title+": "+message)
}
func (c *capturingUI) AskConfirmation(string, string) bool { return true }
func (c *capturingUI) GetOutputMode() OutputMode           { return OutputQuiet }
func (c *capturingUI) IsAutoApprove() bool                 { return true }

// containsCall reports whether any recorded call contains substr.
func containsCall(calls []string, substr string) bool {
	for _, c := range calls {
		if len(c) >= len(substr) && stringsContains(c, substr) {
			return true
		}
	}
	return false
}

func stringsContains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
