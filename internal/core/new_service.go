package core

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mark1russell7/ecosys/internal/gitref"
	"github.com/mark1russell7/ecosys/internal/types"
)

// NewPackageOptions configures the new-package workflow.
type NewPackageOptions struct {
	Name         string // bare name; the full package name is the scoped form
	Preset       string // scaffolding preset handed to the external generator
	SkipGit      bool
	SkipManifest bool
	DryRun       bool
}

// NewService scaffolds a new package, initializes its repository and
// registers it in the manifest.
type NewService struct {
	engine *Engine
}

// NewNewService creates a NewService over engine.
func NewNewService(engine *Engine) *NewService {
	return &NewService{engine: engine}
}

// Create resolves paths from the manifest, scaffolds the package, optionally
// runs the git init workflow and registers the manifest entry. The manifest
// update is a full read-modify-write.
func (s *NewService) Create(ctx context.Context, opts NewPackageOptions) (*types.NewResult, error) {
	deps := s.engine.Deps()
	start := time.Now()

	if opts.Name == "" {
		return nil, fmt.Errorf("new: package name is required")
	}
	scopedName := DefaultScope + "/" + opts.Name
	if strings.HasPrefix(opts.Name, "@") {
		scopedName = opts.Name
		opts.Name = opts.Name[strings.IndexByte(opts.Name, '/')+1:]
	}

	var manifest types.Manifest
	manifestExists := deps.Manifest.Exists()
	if manifestExists {
		var err error
		manifest, err = deps.Manifest.Load()
		if err != nil {
			return nil, err
		}
	}

	template := manifest.ProjectTemplate
	if len(template.Files) == 0 && len(template.Dirs) == 0 {
		template = types.ProjectTemplate{Files: DefaultTemplate.Files, Dirs: DefaultTemplate.Dirs}
	}

	root := deps.Manifest.RootDir(manifest)
	if manifest.Root == "" {
		root = "."
	}
	target := filepath.Join(root, opts.Name)

	result := &types.NewResult{
		WorkflowResult: types.WorkflowResult{RunID: uuid.NewString(), Success: true},
		Name:           scopedName,
		RepoPath:       target,
	}

	if deps.FS.Exists(target) {
		return nil, fmt.Errorf("new: target path already exists: %s", target)
	}

	if opts.DryRun {
		result.PlannedOperations = []string{
			"create " + target,
			"create " + filepath.Join(target, "src"),
			"scaffold preset " + opts.Preset,
		}
		if !opts.SkipGit {
			result.PlannedOperations = append(result.PlannedOperations, "git init + first commit + create remote")
		}
		if !opts.SkipManifest {
			result.PlannedOperations = append(result.PlannedOperations, "register "+opts.Name+" in manifest")
		}
		result.TotalDuration = time.Since(start)
		return result, nil
	}

	if err := deps.FS.MkdirAll(target, 0755); err != nil {
		return nil, err
	}
	for _, dir := range template.Dirs {
		if err := deps.FS.MkdirAll(filepath.Join(target, dir), 0755); err != nil {
			return nil, err
		}
	}
	entry := filepath.Join(target, "src", "index.ts")
	if err := deps.FS.WriteFile(entry, []byte("export {};\n")); err != nil {
		return nil, err
	}

	// External scaffolding: init then generate. Failures are hard errors —
	// a half-scaffolded package would fail every later workflow.
	for _, sub := range []string{"init", "generate"} {
		cmd := "npx ecosys-scaffold " + sub
		if opts.Preset != "" {
			cmd += " --preset " + opts.Preset
		}
		out, err := deps.Runner.Exec(ctx, cmd, target, BuildTimeout)
		if err != nil {
			return nil, err
		}
		if !out.Success {
			return nil, fmt.Errorf("new: scaffold %s failed: %s", sub, firstLine(out.Stderr))
		}
	}

	if !opts.SkipGit {
		if _, err := s.engine.Dispatch(ctx, "git.initWorkflow", map[string]any{
			"cwd":          target,
			"message":      "chore: scaffold " + scopedName,
			"createRemote": true,
			"repoOwner":    deps.Config.Owner,
			"repoName":     opts.Name,
		}); err != nil {
			return nil, err
		}
	}

	if !opts.SkipManifest && manifestExists {
		if manifest.Packages == nil {
			manifest.Packages = make(map[string]types.ManifestEntry)
		}
		manifest.Packages[opts.Name] = types.ManifestEntry{
			Repo: gitref.Format(&types.GitRef{
				Host:  DefaultHost,
				Owner: deps.Config.Owner,
				Repo:  opts.Name,
				Ref:   deps.Config.DefaultBranch,
			}),
			Path: opts.Name,
		}
		if err := deps.Manifest.Save(manifest); err != nil {
			return nil, err
		}
	}

	result.TotalDuration = time.Since(start)
	return result, nil
}
