package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mark1russell7/ecosys/internal/types"
)

func validManifest() types.Manifest {
	return types.Manifest{
		Version: "1.0.0",
		Root:    "/eco",
		Packages: map[string]types.ManifestEntry{
			"core": {Repo: "github:mark1russell7/core#main", Path: "core"},
		},
		ProjectTemplate: types.ProjectTemplate{Files: []string{"package.json"}, Dirs: []string{"src"}},
	}
}

func TestManifestStore_RoundTrip(t *testing.T) {
	root := t.TempDir()
	store := NewFileManifestStore(root)

	if store.Exists() {
		t.Fatal("store reports existence before save")
	}
	if err := store.Save(validManifest()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !store.Exists() {
		t.Fatal("store missing after save")
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Version != "1.0.0" || loaded.Packages["core"].Repo != "github:mark1russell7/core#main" {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestManifestStore_MissingIsSentinel(t *testing.T) {
	store := NewFileManifestStore(t.TempDir())
	_, err := store.Load()
	if err != ErrManifestMissing {
		t.Errorf("error = %v, want ErrManifestMissing", err)
	}
}

func TestManifestStore_RejectsMalformedJSON(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, EcosystemDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := NewFileManifestStore(root).Load()
	if !IsManifestInvalid(err) {
		t.Errorf("error = %v, want ManifestInvalidError", err)
	}
}

func TestManifestStore_SchemaViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.Manifest)
	}{
		{"empty root", func(m *types.Manifest) { m.Root = "" }},
		{"package without repo", func(m *types.Manifest) {
			m.Packages["bad"] = types.ManifestEntry{Path: "bad"}
		}},
		{"package without path", func(m *types.Manifest) {
			m.Packages["bad"] = types.ManifestEntry{Repo: "github:o/r#main"}
		}},
		{"non-semver version", func(m *types.Manifest) { m.Version = "latest-and-greatest!" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			root := t.TempDir()
			store := NewFileManifestStore(root)
			m := validManifest()
			tc.mutate(&m)
			if err := store.Save(m); err != nil {
				t.Fatalf("save failed: %v", err)
			}
			if _, err := store.Load(); !IsManifestInvalid(err) {
				t.Errorf("error = %v, want ManifestInvalidError", err)
			}
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	if got := ExpandHome("~/eco"); got != filepath.Join(home, "eco") {
		t.Errorf("ExpandHome(~/eco) = %q", got)
	}
	if got := ExpandHome("~"); got != home {
		t.Errorf("ExpandHome(~) = %q", got)
	}
	if got := ExpandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("ExpandHome(/abs/path) = %q", got)
	}
	if got := ExpandHome("~user/x"); got != "~user/x" {
		t.Errorf("ExpandHome(~user/x) = %q (only bare ~ expands)", got)
	}
}
