package core

import (
	"context"

	"github.com/mark1russell7/ecosys/internal/types"
)

// StatusService reports per-package branch/remote/dependency summaries
// without executing anything.
type StatusService struct {
	engine *Engine
}

// NewStatusService creates a StatusService over engine.
func NewStatusService(engine *Engine) *StatusService {
	return &StatusService{engine: engine}
}

// Status scans the fleet and levels it, returning one report per package in
// level order.
func (s *StatusService) Status(ctx context.Context) ([]types.StatusReport, error) {
	descriptors, err := s.engine.Scanner().Scan(ctx)
	if err != nil {
		return nil, err
	}
	graph, err := s.engine.PlanDescriptors(descriptors, "")
	if err != nil {
		return nil, err
	}

	byName := make(map[string]types.PackageDescriptor, len(descriptors))
	for _, d := range descriptors {
		byName[d.Name] = d
	}

	var reports []types.StatusReport
	for _, level := range graph.Levels {
		for _, node := range level {
			d := byName[node.Name]
			reports = append(reports, types.StatusReport{
				Name:         node.Name,
				Path:         node.RepoPath,
				Branch:       d.CurrentBranch,
				Remote:       d.GitRemote,
				InternalDeps: node.Dependencies,
				Level:        node.Level,
			})
		}
	}
	return reports, nil
}
