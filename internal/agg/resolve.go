package agg

import (
	"strings"
)

// Scope is one link of the execution context chain. Each nested step sees its
// ancestors' named results without copying; a new link is created only where
// bindings may diverge (parallel tasks, map iterations).
type Scope struct {
	parent *Scope
	vals   map[string]any
}

// NewScope creates a scope chained to parent (parent may be nil).
func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, vals: make(map[string]any)}
}

// Bind binds a named value into this scope link. Inner bindings shadow outer
// ones.
func (s *Scope) Bind(name string, v any) {
	s.vals[name] = v
}

// lookupHead resolves the first path segment through the scope chain,
// innermost link first.
func (s *Scope) lookupHead(name string) (any, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vals[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Lookup resolves a dotted path. The head segment is resolved through the
// scope chain; the remaining segments descend through mappings. A segment
// whose current value is not a mapping yields false ("missing"), not an
// error.
func (s *Scope) Lookup(path string) (any, bool) {
	segments := strings.Split(path, ".")
	cur, ok := s.lookupHead(segments[0])
	if !ok {
		return nil, false
	}
	for _, seg := range segments[1:] {
		m, isMap := cur.(map[string]any)
		if !isMap {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Resolve traverses an input tree and substitutes references and templates
// against the scope:
//
//   - a mapping containing a ref key is replaced by the dotted-path lookup
//     (invert coerces to the logical negation); a failed lookup yields the
//     unresolved marker;
//   - a string containing {{…}} has each occurrence substituted, missing
//     values stringifying to the empty string;
//   - a mapping containing a proc key is a nested step definition and is NOT
//     descended into;
//   - other mappings and sequences are descended recursively.
func Resolve(v any, scope *Scope) any {
	switch x := v.(type) {
	case map[string]any:
		if refPath, ok := x[KeyRef].(string); ok {
			return resolveRef(refPath, x, scope)
		}
		if _, ok := x[KeyProc]; ok {
			return x
		}
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = Resolve(val, scope)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = Resolve(val, scope)
		}
		return out
	case string:
		if strings.Contains(x, "{{") {
			return substituteTemplates(x, scope)
		}
		return x
	default:
		return v
	}
}

func resolveRef(path string, node map[string]any, scope *Scope) any {
	val, ok := scope.Lookup(path)
	if !ok {
		val = Unresolved
	}
	if invert, _ := node[KeyInvert].(bool); invert {
		return !IsTruthy(val)
	}
	return val
}

// substituteTemplates replaces each {{path}} occurrence in s. Templates are
// stringifying by design (they exist for path construction); refs carry type.
func substituteTemplates(s string, scope *Scope) string {
	var b strings.Builder
	for {
		start := strings.Index(s, "{{")
		if start == -1 {
			b.WriteString(s)
			return b.String()
		}
		end := strings.Index(s[start:], "}}")
		if end == -1 {
			b.WriteString(s)
			return b.String()
		}
		end += start
		b.WriteString(s[:start])
		path := strings.TrimSpace(s[start+2 : end])
		if val, ok := scope.Lookup(path); ok {
			b.WriteString(Stringify(val))
		}
		s = s[end+2:]
	}
}
