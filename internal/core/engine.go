package core

import (
	"context"
	"fmt"

	"github.com/mark1russell7/ecosys/internal/agg"
	"github.com/mark1russell7/ecosys/internal/types"
)

// Deps bundles the collaborators every service shares. Tests substitute mocks
// member by member.
type Deps struct {
	Manifest ManifestStore
	FS       FileSystem
	Git      GitClient
	Runner   ProcessRunner
	Registry *agg.Registry
	UI       UICallback
	Config   GlobalConfig
}

// Engine owns the registry and the scan → graph → level → execute pipeline
// that every fleet workflow parameterizes. It is created once per process;
// the registry is populated at construction and treated as write-once.
type Engine struct {
	deps     Deps
	scanner  *Scanner
	executor *GraphExecutor
}

// NewEngine wires the production collaborators for an ecosystem rooted at
// rootDir and registers every native procedure and workflow aggregation.
func NewEngine(rootDir string, ui UICallback, cfg GlobalConfig) (*Engine, error) {
	deps := Deps{
		Manifest: NewFileManifestStore(rootDir),
		FS:       NewOSFileSystem(),
		Git:      NewSystemGitClient(false),
		Runner:   NewPnpmRunner(),
		Registry: agg.NewRegistry(),
		UI:       ui,
		Config:   cfg.Defaulted(),
	}
	return NewEngineWithDeps(deps)
}

// NewEngineWithDeps wires an engine over explicit collaborators (tests).
func NewEngineWithDeps(deps Deps) (*Engine, error) {
	if deps.UI == nil {
		deps.UI = &SilentUICallback{}
	}
	if deps.Registry == nil {
		deps.Registry = agg.NewRegistry()
	}
	deps.Config = deps.Config.Defaulted()

	e := &Engine{
		deps:     deps,
		scanner:  NewScanner(deps.Manifest, deps.FS, deps.Git, deps.UI, deps.Config.Owner),
		executor: NewGraphExecutor(deps.UI),
	}

	procs := NewProcedures(deps.FS, deps.Git, deps.Runner)
	if err := procs.Register(deps.Registry); err != nil {
		return nil, err
	}
	if err := RegisterWorkflowAggregations(deps.Registry); err != nil {
		return nil, err
	}
	if err := deps.Registry.RegisterHandler("dag.traverse", e.dagTraverse, nil); err != nil {
		return nil, err
	}
	return e, nil
}

// Deps exposes the engine's collaborators to the services built on it.
func (e *Engine) Deps() Deps { return e.deps }

// Scanner exposes the manifest scanner.
func (e *Engine) Scanner() *Scanner { return e.scanner }

// Executor exposes the leveled graph executor.
func (e *Engine) Executor() *GraphExecutor { return e.executor }

// Registry exposes the procedure registry.
func (e *Engine) Registry() *agg.Registry { return e.deps.Registry }

// Dispatch invokes a registered procedure by path.
func (e *Engine) Dispatch(ctx context.Context, path string, input any) (any, error) {
	return e.deps.Registry.Dispatch(ctx, path, input)
}

// Plan scans the fleet and levels its dependency graph. When root is
// non-empty the plan is scoped to that package and its prerequisites.
func (e *Engine) Plan(ctx context.Context, root string) (*types.LeveledGraph, error) {
	descriptors, err := e.scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}
	return e.PlanDescriptors(descriptors, root)
}

// PlanDescriptors levels an already-scanned descriptor set.
func (e *Engine) PlanDescriptors(descriptors []types.PackageDescriptor, root string) (*types.LeveledGraph, error) {
	nodes := BuildGraph(descriptors, e.deps.Config.Owner, e.deps.Config.DefaultBranch)
	if root != "" {
		var err error
		nodes, err = FilterFromRoot(nodes, root)
		if err != nil {
			return nil, err
		}
	}
	return BuildLeveledDAG(nodes)
}

// dagTraverse is the generic leveled-traversal procedure: it runs an
// arbitrary visit per node, in dependency order, with bounded parallelism.
// The visit parameter is either a deferred step (when=parent) or a plain
// procedure path; anything else violates the value rules. Each visit receives
// the node's cwd and packageName overlaid onto its input — the mechanism by
// which one generic workflow specializes per node.
func (e *Engine) dagTraverse(ctx context.Context, call *agg.CallContext, input any) (any, error) {
	m, ok := input.(map[string]any)
	if !ok {
		return nil, &agg.RefRuleViolationError{Param: "input", Message: fmt.Sprintf("dag.traverse input is %T, expected a mapping", input)}
	}

	visit := m["visit"]
	visitPath, isPath := visit.(string)
	if !isPath && !agg.IsStep(visit) {
		return nil, &agg.RefRuleViolationError{Param: "visit", Message: "visit is neither a procedure path nor a deferred step"}
	}

	graph, err := e.Plan(ctx, inputString(m, "root"))
	if err != nil {
		return nil, err
	}

	opts := types.ExecuteOptions{
		Concurrency: e.deps.Config.Concurrency,
		FailFast:    true,
	}
	if c, ok := m["concurrency"].(int); ok && c > 0 {
		opts.Concurrency = c
	} else if c, ok := m["concurrency"].(float64); ok && c > 0 {
		opts.Concurrency = int(c)
	}
	if cont, ok := m["continueOnError"].(bool); ok {
		opts.FailFast = !cont
	}

	result := e.executor.Execute(ctx, graph, func(ctx context.Context, node *types.DAGNode, logf func(string, ...any)) error {
		overlay := map[string]any{
			"cwd":         node.RepoPath,
			"packageName": node.Name,
		}
		var visitErr error
		if isPath {
			_, visitErr = call.Call(ctx, visitPath, overlay)
		} else {
			_, visitErr = call.ExecuteDeferred(ctx, visit, overlay)
		}
		if visitErr != nil {
			logf("visit failed: %v", visitErr)
		}
		return visitErr
	}, opts)

	return graphResultTree(result), nil
}

// graphResultTree renders a GraphResult as a plain tree for reference
// resolution by calling aggregations.
func graphResultTree(result *types.GraphResult) map[string]any {
	results := make(map[string]any, len(result.Results))
	for name, r := range result.Results {
		results[name] = map[string]any{
			"success":  r.Success,
			"skipped":  r.Skipped,
			"error":    r.ErrorMsg,
			"duration": r.Duration.String(),
		}
	}
	return map[string]any{
		"success": result.Success,
		"results": results,
	}
}
