package core

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mark1russell7/ecosys/internal/gitref"
	"github.com/mark1russell7/ecosys/internal/types"
)

// InstallOptions configures the install workflow.
type InstallOptions struct {
	DryRun          bool
	ContinueOnError bool
	Concurrency     int
}

// InstallService brings the whole fleet to a buildable state: clone whatever
// the manifest lists but disk lacks, then install+build everything in
// dependency order.
type InstallService struct {
	engine *Engine
}

// NewInstallService creates an InstallService over engine.
func NewInstallService(engine *Engine) *InstallService {
	return &InstallService{engine: engine}
}

// Install clones missing packages and runs install+build per node in leveled
// order. A second Install over a populated tree performs zero clones and
// still succeeds.
func (s *InstallService) Install(ctx context.Context, opts InstallOptions) (*types.InstallResult, error) {
	deps := s.engine.Deps()
	start := time.Now()

	manifest, err := deps.Manifest.Load()
	if err != nil {
		return nil, err
	}
	root := deps.Manifest.RootDir(manifest)

	result := &types.InstallResult{
		WorkflowResult: types.WorkflowResult{RunID: uuid.NewString(), Success: true},
		Cloned:         []string{},
		Skipped:        []string{},
	}

	for _, name := range sortedManifestNames(manifest) {
		entry := manifest.Packages[name]
		dest := filepath.Join(root, entry.Path)
		if deps.FS.Exists(dest) {
			result.Skipped = append(result.Skipped, name)
			continue
		}

		ref, ok := gitref.Parse(entry.Repo)
		if !ok {
			result.Success = false
			result.Errors = append(result.Errors, name+": manifest repo is not a valid git ref: "+entry.Repo)
			continue
		}

		if opts.DryRun {
			result.PlannedOperations = append(result.PlannedOperations, "clone "+entry.Repo+" -> "+dest)
			result.Cloned = append(result.Cloned, name)
			continue
		}

		deps.UI.ShowSuccess("Cloning " + name + " from " + entry.Repo)
		if err := deps.Git.Clone(ctx, cloneURL(ref), dest, ref.Ref); err != nil {
			result.Success = false
			result.Errors = append(result.Errors, name+": "+err.Error())
			continue
		}
		result.Cloned = append(result.Cloned, name)
	}

	if opts.DryRun {
		for _, name := range result.Skipped {
			result.PlannedOperations = append(result.PlannedOperations, "install+build "+name)
		}
		result.TotalDuration = time.Since(start)
		return result, nil
	}

	// Scan the now-populated tree and walk it in dependency order.
	descriptors := s.engine.Scanner().ScanManifest(ctx, manifest)
	graph, err := s.engine.PlanDescriptors(descriptors, "")
	if err != nil {
		return nil, err
	}

	execOpts := types.ExecuteOptions{
		Concurrency: opts.Concurrency,
		FailFast:    !opts.ContinueOnError,
	}
	graphResult := s.engine.Executor().Execute(ctx, graph, func(ctx context.Context, node *types.DAGNode, logf func(string, ...any)) error {
		logf("pnpm install + build in %s", node.RepoPath)
		_, err := s.engine.Dispatch(ctx, "pnpm.installAndBuild", map[string]any{
			"cwd":         node.RepoPath,
			"packageName": node.Name,
		})
		return err
	}, execOpts)

	result.Results = graphResult.Results
	if !graphResult.Success {
		result.Success = false
		for name, r := range graphResult.Results {
			if !r.Success && !r.Skipped {
				result.Errors = append(result.Errors, name+": "+r.ErrorMsg)
			}
		}
	}
	result.TotalDuration = time.Since(start)
	return result, nil
}

// cloneURL converts a parsed manifest ref into a cloneable URL. Hosts are
// first labels (github), expanded to their canonical domain.
func cloneURL(ref *types.GitRef) string {
	host := ref.Host
	switch host {
	case "github":
		host = "github.com"
	case "gitlab":
		host = "gitlab.com"
	case "bitbucket":
		host = "bitbucket.org"
	}
	return "https://" + host + "/" + ref.Owner + "/" + ref.Repo + ".git"
}

func sortedManifestNames(m types.Manifest) []string {
	names := make([]string, 0, len(m.Packages))
	for name := range m.Packages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
