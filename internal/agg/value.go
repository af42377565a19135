// Package agg implements the declarative workflow format ("aggregations") and
// its interpreter. An aggregation is a JSON-shaped tree of literals,
// references into the execution context, template strings, and steps that name
// a procedure. Procedures are resolved through a process-wide registry which
// dispatches to either a native handler or another aggregation.
package agg

import (
	"fmt"
	"strings"
)

// Reserved keys of the aggregation value format.
const (
	KeyProc   = "proc"
	KeyInput  = "input"
	KeyName   = "name"
	KeyWhen   = "when"
	KeyRef    = "ref"
	KeyInvert = "invert"

	// ItemKey is the well-known context key bound by the map operator for
	// each element. It is overwritten per iteration; nested maps must rebind
	// the outer element under an explicit name first.
	ItemKey = "item"

	// ClientNamespace is the reserved proc namespace of the built-in control
	// operators.
	ClientNamespace = "client"
)

// When controls the execution timing of a step.
type When string

// Scheduling tags.
const (
	WhenImmediate When = "immediate"
	WhenParent    When = "parent"
	WhenNever     When = "never"
)

// unresolved is the marker produced by failed reference lookups. It is treated
// as "missing" by conditionals and stringifies to the empty string in
// templates; it is never an error by itself.
type unresolved struct{}

func (unresolved) String() string { return "" }

// Unresolved is the singleton unresolved marker.
var Unresolved = unresolved{}

// IsUnresolved reports whether v is the unresolved marker.
func IsUnresolved(v any) bool {
	_, ok := v.(unresolved)
	return ok
}

// Ref builds a reference node resolving the dotted path in the execution
// context.
func Ref(path string) map[string]any {
	return map[string]any{KeyRef: path}
}

// NotRef builds an inverted reference node: the looked-up value is coerced to
// its logical negation.
func NotRef(path string) map[string]any {
	return map[string]any{KeyRef: path, KeyInvert: true}
}

// Step builds an anonymous step invoking the dotted procedure path.
func Step(proc string, input any) map[string]any {
	return map[string]any{KeyProc: splitProc(proc), KeyInput: input}
}

// NamedStep builds a step whose result is bound into the execution context
// under name.
func NamedStep(name, proc string, input any) map[string]any {
	s := Step(proc, input)
	s[KeyName] = name
	return s
}

// DeferredStep builds a step tagged when=parent: the interpreter does not
// execute it but carries it as a value to its parent procedure, which runs it
// (e.g. once per node of a traversal).
func DeferredStep(proc string, input any) map[string]any {
	s := Step(proc, input)
	s[KeyWhen] = string(WhenParent)
	return s
}

// IsStep reports whether v is a step definition (a mapping with a proc key).
func IsStep(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	_, ok = m[KeyProc]
	return ok
}

// splitProc splits a dotted procedure path into its identifier sequence.
func splitProc(proc string) []string {
	return strings.Split(proc, ".")
}

// procPath normalizes the proc field of a step to a dotted path. Accepted
// forms: a dotted string, []string, or []any of strings (the shape produced
// by JSON decoding).
func procPath(v any) (string, error) {
	switch p := v.(type) {
	case string:
		if p == "" {
			return "", fmt.Errorf("empty proc path")
		}
		return p, nil
	case []string:
		if len(p) == 0 {
			return "", fmt.Errorf("empty proc path")
		}
		return strings.Join(p, "."), nil
	case []any:
		if len(p) == 0 {
			return "", fmt.Errorf("empty proc path")
		}
		parts := make([]string, len(p))
		for i, seg := range p {
			s, ok := seg.(string)
			if !ok {
				return "", fmt.Errorf("proc path segment %d is %T, not a string", i, seg)
			}
			parts[i] = s
		}
		return strings.Join(parts, "."), nil
	default:
		return "", fmt.Errorf("proc is %T, expected a string or identifier sequence", v)
	}
}

// stepWhen extracts the scheduling tag of a step, defaulting to immediate.
func stepWhen(step map[string]any) When {
	raw, ok := step[KeyWhen]
	if !ok {
		return WhenImmediate
	}
	s, ok := raw.(string)
	if !ok || s == "" {
		return WhenImmediate
	}
	return When(s)
}

// IsTruthy implements the interpreter's truthiness coercion: nil, false,
// empty string, numeric zero, and the unresolved marker are falsy; everything
// else (including empty sequences and mappings) is truthy.
func IsTruthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case unresolved:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	default:
		return true
	}
}

// Stringify renders a value for template substitution. Missing values
// (nil or unresolved) render as the empty string.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case unresolved:
		return ""
	case string:
		return x
	default:
		return fmt.Sprintf("%v", x)
	}
}
