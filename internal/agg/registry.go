package agg

import (
	"context"
	"sync"
)

// Handler is a native procedure implementation. The input tree arrives fully
// resolved; call exposes recursive invocation back through the dispatcher.
type Handler func(ctx context.Context, call *CallContext, input any) (any, error)

// Metadata describes a registered procedure.
type Metadata struct {
	Description string
	Tags        []string
}

// Procedure is one registry entry: either a native handler or an aggregation
// definition, never both.
type Procedure struct {
	Path        string
	Handler     Handler
	Aggregation any
	Meta        Metadata
}

// RegisterOptions control registration behavior.
type RegisterOptions struct {
	Replace bool
	Meta    Metadata
}

// Registry is the process-wide mapping from dotted procedure path to
// procedure record. It is intended to be populated once at startup; a
// concurrent replace registration is not guaranteed to be visible to in-flight
// workflows.
type Registry struct {
	mu       sync.RWMutex
	procs    map[string]Procedure
	maxDepth int
}

// NewRegistry creates an empty registry with the default interpreter depth
// bound.
func NewRegistry() *Registry {
	return &Registry{
		procs:    make(map[string]Procedure),
		maxDepth: DefaultMaxDepth,
	}
}

// RegisterHandler registers a native handler under path.
func (r *Registry) RegisterHandler(path string, h Handler, opts *RegisterOptions) error {
	return r.register(Procedure{Path: path, Handler: h}, opts)
}

// RegisterAggregation registers an aggregation definition under path.
// Definitions are immutable after registration unless re-registered with the
// replace flag.
func (r *Registry) RegisterAggregation(path string, def any, opts *RegisterOptions) error {
	return r.register(Procedure{Path: path, Aggregation: def}, opts)
}

func (r *Registry) register(p Procedure, opts *RegisterOptions) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if opts != nil {
		p.Meta = opts.Meta
	}
	if _, exists := r.procs[p.Path]; exists && (opts == nil || !opts.Replace) {
		return &AlreadyRegisteredError{Path: p.Path}
	}
	r.procs[p.Path] = p
	return nil
}

// Lookup returns the procedure registered under path. Lookup is exact.
func (r *Registry) Lookup(path string) (Procedure, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.procs[path]
	return p, ok
}

// Paths returns all registered procedure paths (unordered).
func (r *Registry) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.procs))
	for p := range r.procs {
		out = append(out, p)
	}
	return out
}

// Dispatch resolves path and invokes the procedure with input. Handlers are
// called directly; aggregations are interpreted with input as their top-level
// context entry.
func (r *Registry) Dispatch(ctx context.Context, path string, input any) (any, error) {
	return r.dispatch(ctx, path, input, 0)
}

// dispatch carries the interpreter nesting depth across recursive procedure
// invocations so circular aggregation references terminate with
// AggregationTooDeepError instead of exhausting the stack.
func (r *Registry) dispatch(ctx context.Context, path string, input any, depth int) (any, error) {
	if depth > r.maxDepth {
		return nil, &AggregationTooDeepError{Path: path, MaxDepth: r.maxDepth}
	}
	proc, ok := r.Lookup(path)
	if !ok {
		return nil, NewProcedureNotFoundError(path)
	}
	// Tagged-variant switch: a record is a handler or an aggregation.
	if proc.Handler != nil {
		return proc.Handler(ctx, &CallContext{reg: r, depth: depth}, input)
	}
	interp := &Interpreter{reg: r, maxDepth: r.maxDepth}
	return interp.run(ctx, proc.Aggregation, input, depth+1)
}

// CallContext is the handle handed to native handlers for recursive
// invocation and deferred-step hydration.
type CallContext struct {
	reg   *Registry
	depth int
}

// Call invokes another procedure through the dispatcher.
func (c *CallContext) Call(ctx context.Context, path string, input any) (any, error) {
	return c.reg.dispatch(ctx, path, input, c.depth+1)
}

// ExecuteDeferred runs a step that was carried as a value (when=parent, or a
// custom tag enabled by the hosting procedure). overlay entries are merged
// into the step's resolved input, with existing input keys taking precedence
// except for absent ones — this is the cwd-injection mechanism by which a
// generic workflow is specialized per node.
func (c *CallContext) ExecuteDeferred(ctx context.Context, step any, overlay map[string]any) (any, error) {
	m, ok := step.(map[string]any)
	if !ok || !IsStep(m) {
		return nil, &RefRuleViolationError{
			Param:   "step",
			Message: "deferred value is not a step definition",
		}
	}
	interp := &Interpreter{reg: c.reg, maxDepth: c.reg.maxDepth}
	scope := NewScope(nil)
	for k, v := range overlay {
		scope.Bind(k, v)
	}
	return interp.execDeferred(ctx, m, scope, overlay, c.depth+1)
}
