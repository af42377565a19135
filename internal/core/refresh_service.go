package core

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mark1russell7/ecosys/internal/types"
)

// RefreshOptions configures the refresh workflow.
type RefreshOptions struct {
	// Package selects a single package; empty with All=false is an error.
	Package string
	// All refreshes the whole fleet in dependency order.
	All bool
	// Recursive refreshes Package plus its transitive prerequisites.
	Recursive bool
	// Force runs cleanup.force before installing.
	Force bool
	// SkipGit skips the commit+push phase.
	SkipGit bool
	DryRun  bool
	// AutoConfirm continues past failures (failFast = !AutoConfirm).
	AutoConfirm bool
	Concurrency int
}

// RefreshService re-installs, rebuilds and commits packages. The per-package
// pipeline is the refresh.single aggregation; fleet modes parameterize the
// leveled executor with it.
type RefreshService struct {
	engine *Engine
}

// NewRefreshService creates a RefreshService over engine.
func NewRefreshService(engine *Engine) *RefreshService {
	return &RefreshService{engine: engine}
}

// Refresh dispatches to single, recursive-subtree, or fleet mode.
func (s *RefreshService) Refresh(ctx context.Context, opts RefreshOptions) (*types.RefreshResult, error) {
	switch {
	case opts.All:
		return s.refreshGraph(ctx, "", opts)
	case opts.Recursive:
		if opts.Package == "" {
			return nil, NewPackageNotScannedError("")
		}
		return s.refreshGraph(ctx, opts.Package, opts)
	default:
		if opts.Package == "" {
			return nil, NewPackageNotScannedError("")
		}
		return s.refreshSingle(ctx, opts)
	}
}

// refreshSingle runs the refresh.single aggregation for one package.
func (s *RefreshService) refreshSingle(ctx context.Context, opts RefreshOptions) (*types.RefreshResult, error) {
	start := time.Now()

	graph, err := s.engine.Plan(ctx, opts.Package)
	if err != nil {
		return nil, err
	}
	node := graph.Nodes[opts.Package]

	out, err := s.engine.Dispatch(ctx, "refresh.single", map[string]any{
		"cwd":         node.RepoPath,
		"packageName": node.Name,
		"force":       opts.Force,
		"skipGit":     opts.SkipGit,
		"dryRun":      opts.DryRun,
	})
	if err != nil {
		return nil, err
	}

	result := &types.RefreshResult{
		WorkflowResult: types.WorkflowResult{
			RunID:         uuid.NewString(),
			Success:       true,
			TotalDuration: time.Since(start),
		},
		Name: node.Name,
		Path: node.RepoPath,
	}
	if m, ok := out.(map[string]any); ok {
		if planned, ok := m["plannedOperations"].([]any); ok {
			for _, p := range planned {
				if s, ok := p.(string); ok {
					result.PlannedOperations = append(result.PlannedOperations, s)
				}
			}
		}
		if ops, ok := m["operations"].([]any); ok {
			for _, o := range ops {
				if s, ok := o.(string); ok {
					result.Operations = append(result.Operations, s)
				}
			}
		}
	}
	return result, nil
}

// refreshGraph runs refresh.single per node across the leveled plan; root
// empty means the whole fleet.
func (s *RefreshService) refreshGraph(ctx context.Context, root string, opts RefreshOptions) (*types.RefreshResult, error) {
	start := time.Now()

	graph, err := s.engine.Plan(ctx, root)
	if err != nil {
		return nil, err
	}

	result := &types.RefreshResult{
		WorkflowResult: types.WorkflowResult{RunID: uuid.NewString()},
	}

	if opts.DryRun {
		result.Success = true
		for _, level := range graph.Levels {
			for _, node := range level {
				result.PlannedOperations = append(result.PlannedOperations,
					"refresh "+node.Name+" (level "+strconv.Itoa(node.Level)+")")
			}
		}
		result.TotalDuration = time.Since(start)
		return result, nil
	}

	execOpts := types.ExecuteOptions{
		Concurrency: opts.Concurrency,
		FailFast:    !opts.AutoConfirm,
	}
	graphResult := s.engine.Executor().Execute(ctx, graph, func(ctx context.Context, node *types.DAGNode, logf func(string, ...any)) error {
		logf("refreshing %s", node.Name)
		_, err := s.engine.Dispatch(ctx, "refresh.single", map[string]any{
			"cwd":         node.RepoPath,
			"packageName": node.Name,
			"force":       opts.Force,
			"skipGit":     opts.SkipGit,
		})
		return err
	}, execOpts)

	result.Success = graphResult.Success
	result.Results = graphResult.Results
	result.TotalDuration = time.Since(start)
	return result, nil
}
