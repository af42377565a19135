package agg

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// DefaultMaxDepth bounds step nesting. Depth grows with operator nesting and
// cross-aggregation dispatch, not with the number of steps in a chain, so the
// bound is generous for real workflows while stopping circular procedure
// references.
const DefaultMaxDepth = 256

// cwdKey is the internal scope binding that carries the enclosing step's
// working directory for implicit inheritance.
const cwdKey = "__cwd"

// Interpreter executes aggregation trees against a registry.
type Interpreter struct {
	reg      *Registry
	maxDepth int
}

// NewInterpreter creates an interpreter over reg.
func NewInterpreter(reg *Registry) *Interpreter {
	return &Interpreter{reg: reg, maxDepth: reg.maxDepth}
}

// Run executes an aggregation with input bound as the top-level context entry
// "input" and returns the tree's result.
func (it *Interpreter) Run(ctx context.Context, def any, input any) (any, error) {
	return it.run(ctx, def, input, 0)
}

func (it *Interpreter) run(ctx context.Context, def any, input any, depth int) (any, error) {
	scope := NewScope(nil)
	scope.Bind("input", input)
	if m, ok := input.(map[string]any); ok {
		if cwd, ok := m["cwd"].(string); ok && cwd != "" {
			scope.Bind(cwdKey, cwd)
		}
	}
	return it.eval(ctx, def, scope, depth)
}

// eval executes one aggregation value: steps run, everything else resolves.
func (it *Interpreter) eval(ctx context.Context, v any, scope *Scope, depth int) (any, error) {
	if depth > it.maxDepth {
		return nil, &AggregationTooDeepError{MaxDepth: it.maxDepth}
	}
	if m, ok := v.(map[string]any); ok && IsStep(m) {
		return it.execStep(ctx, m, scope, depth)
	}
	return Resolve(v, scope), nil
}

// execStep resolves a step's input and runs it. Steps tagged parent, never,
// or a custom tag are not executed here: they pass through as values for a
// hosting procedure to hydrate later.
func (it *Interpreter) execStep(ctx context.Context, step map[string]any, scope *Scope, depth int) (any, error) {
	if when := stepWhen(step); when != WhenImmediate {
		return step, nil
	}

	path, err := procPath(step[KeyProc])
	if err != nil {
		return nil, &RefRuleViolationError{Param: KeyProc, Message: err.Error()}
	}

	input := Resolve(step[KeyInput], scope)

	// A step carrying an explicit cwd establishes it for nested steps.
	stepScope := scope
	if m, ok := input.(map[string]any); ok {
		if cwd, ok := m["cwd"].(string); ok && cwd != "" {
			stepScope = NewScope(scope)
			stepScope.Bind(cwdKey, cwd)
		}
	}

	result, err := it.invoke(ctx, path, input, stepScope, depth)
	if err != nil {
		return nil, err
	}
	if name, ok := step[KeyName].(string); ok && name != "" {
		scope.Bind(name, result)
	}
	return result, nil
}

// invoke routes a resolved step to a control operator or the registry.
func (it *Interpreter) invoke(ctx context.Context, path string, input any, scope *Scope, depth int) (any, error) {
	if op, isClient := clientOperator(path); isClient {
		return it.execOperator(ctx, op, input, scope, depth)
	}
	// Implicit cwd: a dispatched input without a cwd inherits the enclosing
	// step's. The copy keeps the caller's tree intact.
	if m, ok := input.(map[string]any); ok {
		if _, has := m["cwd"]; !has {
			if cwd, found := scope.Lookup(cwdKey); found {
				withCwd := make(map[string]any, len(m)+1)
				for k, v := range m {
					withCwd[k] = v
				}
				withCwd["cwd"] = cwd
				input = withCwd
			}
		}
	}
	return it.reg.dispatch(ctx, path, input, depth+1)
}

func clientOperator(path string) (string, bool) {
	const prefix = ClientNamespace + "."
	if len(path) > len(prefix) && path[:len(prefix)] == prefix {
		return path[len(prefix):], true
	}
	return "", false
}

func (it *Interpreter) execOperator(ctx context.Context, op string, input any, scope *Scope, depth int) (any, error) {
	switch op {
	case "identity":
		return input, nil
	case "chain":
		return it.opChain(ctx, input, scope, depth)
	case "parallel":
		return it.opParallel(ctx, input, scope, depth)
	case "conditional":
		return it.opConditional(ctx, input, scope, depth)
	case "tryCatch":
		return it.opTryCatch(ctx, input, scope, depth)
	case "map":
		return it.opMap(ctx, input, scope, depth)
	case "throw":
		return it.opThrow(input)
	default:
		return nil, NewProcedureNotFoundError(ClientNamespace + "." + op)
	}
}

// opChain executes steps sequentially in declaration order and returns the
// last step's result. Each step sees the accumulated context, so later steps
// can reference earlier ones by name.
func (it *Interpreter) opChain(ctx context.Context, input any, scope *Scope, depth int) (any, error) {
	steps, err := operandList(input, "steps")
	if err != nil {
		return nil, err
	}
	chainScope := NewScope(scope)
	var result any = Unresolved
	for _, s := range steps {
		result, err = it.eval(ctx, s, chainScope, depth+1)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// opParallel executes all tasks concurrently and returns results in task
// order. A task failure aborts the set: the first failure is reported after
// all siblings settle.
func (it *Interpreter) opParallel(ctx context.Context, input any, scope *Scope, depth int) (any, error) {
	tasks, err := operandList(input, "tasks")
	if err != nil {
		return nil, err
	}
	results := make([]any, len(tasks))
	var eg errgroup.Group
	for i, task := range tasks {
		i, task := i, task
		// Each task diverges into its own scope link so local name bindings
		// cannot race across tasks.
		taskScope := NewScope(scope)
		eg.Go(func() error {
			r, taskErr := it.eval(ctx, task, taskScope, depth+1)
			if taskErr != nil {
				return taskErr
			}
			results[i] = r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// opConditional executes then when condition is truthy, else otherwise.
// Branch absence means no step runs and the result is the unresolved marker.
func (it *Interpreter) opConditional(ctx context.Context, input any, scope *Scope, depth int) (any, error) {
	m, ok := input.(map[string]any)
	if !ok {
		return nil, &RefRuleViolationError{Param: "conditional", Message: fmt.Sprintf("input is %T, expected a mapping", input)}
	}
	cond := m["condition"]
	if IsStep(cond) {
		var err error
		cond, err = it.eval(ctx, cond, scope, depth+1)
		if err != nil {
			return nil, err
		}
	}
	branch := m["else"]
	if IsTruthy(cond) {
		branch = m["then"]
	}
	if branch == nil {
		return Unresolved, nil
	}
	return it.eval(ctx, branch, scope, depth+1)
}

// opTryCatch executes try; a failure is swallowed and replaced by catch —
// executed if catch is itself a step (with the error bound under "error"),
// returned as a value otherwise.
func (it *Interpreter) opTryCatch(ctx context.Context, input any, scope *Scope, depth int) (any, error) {
	m, ok := input.(map[string]any)
	if !ok {
		return nil, &RefRuleViolationError{Param: "tryCatch", Message: fmt.Sprintf("input is %T, expected a mapping", input)}
	}
	result, err := it.eval(ctx, m["try"], scope, depth+1)
	if err == nil {
		return result, nil
	}
	catch := m["catch"]
	if IsStep(catch) {
		catchScope := NewScope(scope)
		catchScope.Bind("error", map[string]any{"message": err.Error()})
		return it.eval(ctx, catch, catchScope, depth+1)
	}
	return Resolve(catch, scope), nil
}

// opMap binds each element of items under the reserved key "item" and
// executes mapper, returning results in order. Execution is sequential;
// parallelism is expressed with the parallel operator. The item binding is
// overwritten per iteration — nested maps need explicit rebinding via a named
// step.
func (it *Interpreter) opMap(ctx context.Context, input any, scope *Scope, depth int) (any, error) {
	m, ok := input.(map[string]any)
	if !ok {
		return nil, &RefRuleViolationError{Param: "map", Message: fmt.Sprintf("input is %T, expected a mapping", input)}
	}
	items, err := operandList(m["items"], "items")
	if err != nil {
		return nil, err
	}
	mapper := m["mapper"]
	if !IsStep(mapper) {
		return nil, &RefRuleViolationError{Param: "mapper", Message: "mapper must be a step definition"}
	}
	results := make([]any, 0, len(items))
	iterScope := NewScope(scope)
	for _, item := range items {
		iterScope.Bind(ItemKey, item)
		r, err := it.eval(ctx, mapper, iterScope, depth+1)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

func (it *Interpreter) opThrow(input any) (any, error) {
	msg := "aggregation raised"
	if m, ok := input.(map[string]any); ok {
		if s, ok := m["message"].(string); ok && s != "" {
			msg = s
		}
	}
	return nil, &ThrowError{Message: msg}
}

// execDeferred hydrates a step that was carried as a value. The when tag is
// ignored (the hosting procedure is explicitly running it now); overlay
// entries fill input keys the step left absent.
func (it *Interpreter) execDeferred(ctx context.Context, step map[string]any, scope *Scope, overlay map[string]any, depth int) (any, error) {
	if depth > it.maxDepth {
		return nil, &AggregationTooDeepError{MaxDepth: it.maxDepth}
	}
	path, err := procPath(step[KeyProc])
	if err != nil {
		return nil, &RefRuleViolationError{Param: KeyProc, Message: err.Error()}
	}
	input := Resolve(step[KeyInput], scope)
	m, ok := input.(map[string]any)
	if !ok {
		if input == nil || IsUnresolved(input) {
			m = make(map[string]any)
		} else {
			return it.invoke(ctx, path, input, scope, depth)
		}
	}
	merged := make(map[string]any, len(m)+len(overlay))
	for k, v := range m {
		merged[k] = v
	}
	for k, v := range overlay {
		if _, has := merged[k]; !has {
			merged[k] = v
		}
	}
	return it.invoke(ctx, path, merged, scope, depth)
}

// operandList coerces an operator operand into a sequence. A mapping with the
// named key unwraps first ({steps: [...]} and bare [...] are both accepted).
func operandList(v any, key string) ([]any, error) {
	if m, ok := v.(map[string]any); ok {
		v = m[key]
	}
	switch x := v.(type) {
	case nil:
		return nil, nil
	case []any:
		return x, nil
	default:
		if IsUnresolved(x) {
			return nil, nil
		}
		return nil, &RefRuleViolationError{Param: key, Message: fmt.Sprintf("expected a sequence, got %T", v)}
	}
}
