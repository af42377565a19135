package core

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mark1russell7/ecosys/internal/types"
)

// PullOptions configures the pull workflow.
type PullOptions struct {
	Remote          string
	Rebase          bool
	DryRun          bool
	ContinueOnError bool
	Concurrency     int
}

// PullService pulls every package in the fleet. Dependency ordering is not
// semantically required for pull; the leveled executor is reused for
// symmetry with the other fleet workflows.
type PullService struct {
	engine *Engine
}

// NewPullService creates a PullService over engine.
func NewPullService(engine *Engine) *PullService {
	return &PullService{engine: engine}
}

// Pull runs git.pull per node across the leveled plan.
func (s *PullService) Pull(ctx context.Context, opts PullOptions) (*types.PullResult, error) {
	start := time.Now()

	graph, err := s.engine.Plan(ctx, "")
	if err != nil {
		return nil, err
	}

	result := &types.PullResult{
		WorkflowResult: types.WorkflowResult{RunID: uuid.NewString()},
	}

	if opts.DryRun {
		result.Success = true
		for _, name := range sortedNames(graph.Nodes) {
			result.PlannedOperations = append(result.PlannedOperations, "git pull in "+graph.Nodes[name].RepoPath)
		}
		result.TotalDuration = time.Since(start)
		return result, nil
	}

	execOpts := types.ExecuteOptions{
		Concurrency: opts.Concurrency,
		FailFast:    !opts.ContinueOnError,
	}
	graphResult := s.engine.Executor().Execute(ctx, graph, func(ctx context.Context, node *types.DAGNode, logf func(string, ...any)) error {
		out, err := s.engine.Dispatch(ctx, "git.pull", map[string]any{
			"cwd":    node.RepoPath,
			"remote": opts.Remote,
			"rebase": opts.Rebase,
		})
		if err != nil {
			return err
		}
		if m, ok := out.(map[string]any); ok {
			logf("pulled %v commits", m["commits"])
		}
		return nil
	}, execOpts)

	result.Success = graphResult.Success
	result.Results = graphResult.Results
	result.TotalDuration = time.Since(start)
	return result, nil
}
