// Package gitref parses ecosystem git dependency strings of the form
// host:owner/repo#ref and recognizes refs owned by the ecosystem.
//
// These strings appear as version specifiers in package.json dependency maps
// (e.g. "github:mark1russell7/client-core#main") and as the repo field of
// manifest entries. Only refs owned by the ecosystem induce graph edges; all
// other git-specified dependencies are opaque to the orchestrator.
package gitref

import (
	"regexp"
	"strings"

	"github.com/mark1russell7/ecosys/internal/types"
)

// refRegex matches host:owner/repo#ref where host is letters/digits, owner is
// anything but "/", repo is anything but "#", and ref runs to end of string.
var refRegex = regexp.MustCompile(`^([A-Za-z0-9]+):([^/]+)/([^#]+)#(.*)$`)

// Parse parses a host:owner/repo#ref string. The second return value is false
// when the string does not match the grammar; no partial refs are produced.
func Parse(raw string) (*types.GitRef, bool) {
	matches := refRegex.FindStringSubmatch(raw)
	if matches == nil {
		return nil, false
	}
	return &types.GitRef{
		Raw:   raw,
		Host:  matches[1],
		Owner: matches[2],
		Repo:  matches[3],
		Ref:   matches[4],
	}, true
}

// IsInternalRef reports whether a dependency version string identifies an
// ecosystem-owned git ref. The predicate is an owner-prefix substring match:
// "mark1russell7/" inside "github:mark1russell7/core#main" marks the dep as
// internal regardless of host.
func IsInternalRef(dep, owner string) bool {
	if dep == "" || owner == "" {
		return false
	}
	return strings.Contains(dep, owner+"/")
}

// Format renders a GitRef back to its host:owner/repo#ref form.
func Format(ref *types.GitRef) string {
	return ref.Host + ":" + ref.Owner + "/" + ref.Repo + "#" + ref.Ref
}
