package core

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/mark1russell7/ecosys/internal/gitref"
	"github.com/mark1russell7/ecosys/internal/types"
)

// packageJSON is the subset of package.json the scanner reads.
type packageJSON struct {
	Name                 string            `json:"name"`
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
	Pnpm                 *pnpmSection      `json:"pnpm,omitempty"`
}

// pnpmSection is the pnpm block audit inspects for the build allowlist.
type pnpmSection struct {
	OnlyBuiltDependencies []string `json:"onlyBuiltDependencies,omitempty"`
}

// Scanner discovers package descriptors from the manifest. The manifest is
// the authoritative set; the scanner never traverses arbitrary directories.
type Scanner struct {
	manifest ManifestStore
	fs       FileSystem
	git      GitClient
	ui       UICallback
	owner    string
}

// NewScanner creates a Scanner with the given collaborators.
func NewScanner(manifest ManifestStore, fs FileSystem, git GitClient, ui UICallback, owner string) *Scanner {
	if owner == "" {
		owner = DefaultOwner
	}
	return &Scanner{manifest: manifest, fs: fs, git: git, ui: ui, owner: owner}
}

// Scan reads the manifest and produces one descriptor per package that exists
// and parses. Problem packages are skipped with a warning so the rest of the
// fleet still orchestrates.
func (s *Scanner) Scan(ctx context.Context) ([]types.PackageDescriptor, error) {
	manifest, err := s.manifest.Load()
	if err != nil {
		return nil, err
	}
	return s.scanManifest(ctx, manifest), nil
}

// ScanManifest produces descriptors for an already-loaded manifest (used by
// install, which clones missing packages between loading and scanning).
func (s *Scanner) ScanManifest(ctx context.Context, manifest types.Manifest) []types.PackageDescriptor {
	return s.scanManifest(ctx, manifest)
}

func (s *Scanner) scanManifest(ctx context.Context, manifest types.Manifest) []types.PackageDescriptor {
	root := ExpandHome(manifest.Root)

	// Deterministic scan order keeps warnings stable across runs.
	names := make([]string, 0, len(manifest.Packages))
	for name := range manifest.Packages {
		names = append(names, name)
	}
	sort.Strings(names)

	descriptors := make([]types.PackageDescriptor, 0, len(names))
	for _, name := range names {
		entry := manifest.Packages[name]
		if desc, ok := s.scanPackage(ctx, name, filepath.Join(root, entry.Path)); ok {
			descriptors = append(descriptors, desc)
		}
	}
	return descriptors
}

// scanPackage validates one manifest entry on disk and collects its metadata.
func (s *Scanner) scanPackage(ctx context.Context, name, dir string) (types.PackageDescriptor, bool) {
	if !s.fs.Exists(dir) {
		s.ui.ShowWarning(name, "Package directory does not exist: "+dir)
		return types.PackageDescriptor{}, false
	}

	var pkg packageJSON
	if err := s.fs.ReadJSON(filepath.Join(dir, PackageFile), &pkg); err != nil {
		s.ui.ShowWarning(name, "Cannot read package.json: "+err.Error())
		return types.PackageDescriptor{}, false
	}

	declaredName := pkg.Name
	if declaredName == "" {
		declaredName = name
	}

	desc := types.PackageDescriptor{
		Name:         declaredName,
		RepoPath:     dir,
		InternalDeps: s.internalDeps(pkg),
	}

	if !s.fs.Exists(filepath.Join(dir, ".git")) {
		s.ui.ShowWarning(name, "Not a git repository; branch and remote unavailable")
		return desc, true
	}

	if branch, err := s.git.CurrentBranch(ctx, dir); err == nil {
		desc.CurrentBranch = branch
	}
	// Absence of an origin remote is not an error.
	if url, err := s.git.RemoteURL(ctx, dir, "origin"); err == nil {
		desc.GitRemote = url
	}
	return desc, true
}

// internalDeps merges dependencies and devDependencies and keeps those whose
// version string is an ecosystem-owned git ref, in stable order.
func (s *Scanner) internalDeps(pkg packageJSON) []string {
	merged := make(map[string]string, len(pkg.Dependencies)+len(pkg.DevDependencies))
	for dep, ver := range pkg.Dependencies {
		merged[dep] = ver
	}
	for dep, ver := range pkg.DevDependencies {
		merged[dep] = ver
	}

	var internal []string
	for dep, ver := range merged {
		if gitref.IsInternalRef(ver, s.owner) {
			internal = append(internal, dep)
		}
	}
	sort.Strings(internal)
	return internal
}
