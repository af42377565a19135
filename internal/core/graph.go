package core

import (
	"sort"
	"strings"

	"github.com/mark1russell7/ecosys/internal/gitref"
	"github.com/mark1russell7/ecosys/internal/types"
)

// BuildGraph turns scanned descriptors into a name → node mapping. Edges are
// restricted to dependencies whose names were also scanned: everything else
// is out-of-ecosystem and silently dropped — it is a dependency in a
// package-manager sense but opaque to the orchestrator.
func BuildGraph(descriptors []types.PackageDescriptor, owner, defaultBranch string) map[string]*types.DAGNode {
	if owner == "" {
		owner = DefaultOwner
	}
	if defaultBranch == "" {
		defaultBranch = DefaultBranch
	}

	scanned := make(map[string]bool, len(descriptors))
	for _, d := range descriptors {
		scanned[d.Name] = true
	}

	nodes := make(map[string]*types.DAGNode, len(descriptors))
	for _, d := range descriptors {
		var deps []string
		for _, dep := range d.InternalDeps {
			if scanned[dep] {
				deps = append(deps, dep)
			}
		}

		branch := d.CurrentBranch
		if branch == "" {
			branch = defaultBranch
		}

		nodes[d.Name] = &types.DAGNode{
			Name:           d.Name,
			RepoPath:       d.RepoPath,
			GitRef:         synthesizeRef(d, owner, branch),
			RequiredBranch: branch,
			Dependencies:   deps,
		}
	}
	return nodes
}

// synthesizeRef derives the canonical git ref for a descriptor: parsed from
// the remote URL when one exists, fabricated from owner, name and branch
// otherwise.
func synthesizeRef(d types.PackageDescriptor, owner, branch string) string {
	if d.GitRemote != "" {
		if ref := refFromRemote(d.GitRemote, branch); ref != "" {
			return ref
		}
	}
	return gitref.Format(&types.GitRef{
		Host:  DefaultHost,
		Owner: owner,
		Repo:  d.Name,
		Ref:   branch,
	})
}

// refFromRemote converts a git remote URL (https or scp-style ssh) to the
// host:owner/repo#branch form. Returns "" for unrecognized URLs.
func refFromRemote(remote, branch string) string {
	host, path := splitRemote(remote)
	if host == "" || path == "" {
		return ""
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 {
		return ""
	}
	repo := strings.TrimSuffix(parts[len(parts)-1], ".git")
	// Host keeps its first label only: github.com -> github.
	host, _, _ = strings.Cut(host, ".")
	return gitref.Format(&types.GitRef{
		Host:  host,
		Owner: parts[len(parts)-2],
		Repo:  repo,
		Ref:   branch,
	})
}

func splitRemote(remote string) (host, path string) {
	// https://github.com/owner/repo.git
	if _, rest, found := strings.Cut(remote, "://"); found {
		host, path, _ = strings.Cut(rest, "/")
		return host, path
	}
	// git@github.com:owner/repo.git
	if _, rest, found := strings.Cut(remote, "@"); found {
		if h, p, ok := strings.Cut(rest, ":"); ok {
			return h, p
		}
	}
	return "", ""
}

// FilterFromRoot returns the subgraph reachable from name over dependency
// edges (the target and its transitive prerequisites). The requested package
// must have been scanned.
func FilterFromRoot(nodes map[string]*types.DAGNode, name string) (map[string]*types.DAGNode, error) {
	if _, ok := nodes[name]; !ok {
		return nil, NewPackageNotScannedError(name)
	}

	reachable := make(map[string]*types.DAGNode)
	var visit func(n string)
	visit = func(n string) {
		node, ok := nodes[n]
		if !ok || reachable[n] != nil {
			return
		}
		reachable[n] = node
		for _, dep := range node.Dependencies {
			visit(dep)
		}
	}
	visit(name)
	return reachable, nil
}

// Ancestors returns the transitive dependencies of name (everything it
// requires, directly or not).
func Ancestors(nodes map[string]*types.DAGNode, name string) ([]string, error) {
	sub, err := FilterFromRoot(nodes, name)
	if err != nil {
		return nil, err
	}
	var out []string
	for n := range sub {
		if n != name {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Descendants returns the transitive dependents of name (everything that
// requires it, directly or not), via an on-demand reverse-edge index.
func Descendants(nodes map[string]*types.DAGNode, name string) ([]string, error) {
	if _, ok := nodes[name]; !ok {
		return nil, NewPackageNotScannedError(name)
	}

	reverse := reverseEdges(nodes)
	seen := map[string]bool{name: true}
	queue := []string{name}
	var out []string
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, dependent := range reverse[cur] {
			if !seen[dependent] {
				seen[dependent] = true
				out = append(out, dependent)
				queue = append(queue, dependent)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// reverseEdges builds the dependency → dependents index.
func reverseEdges(nodes map[string]*types.DAGNode) map[string][]string {
	reverse := make(map[string][]string, len(nodes))
	for name, node := range nodes {
		for _, dep := range node.Dependencies {
			reverse[dep] = append(reverse[dep], name)
		}
	}
	return reverse
}
