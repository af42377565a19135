package core

import (
	"sort"

	"github.com/mark1russell7/ecosys/internal/types"
)

// BuildLeveledDAG assigns levels with Kahn's algorithm, emitting one level
// per iteration:
//
//  1. Compute each node's in-degree (count of intra-graph dependencies).
//  2. Seed the frontier with zero-in-degree nodes — level 0.
//  3. Emit the frontier, decrement each dependent's in-degree, and collect
//     newly-zero dependents as the next frontier.
//  4. Repeat until the frontier empties.
//
// Fewer emitted nodes than input means a cycle: the error names every node
// with a positive residual in-degree. Tie-breaks within a level are
// unspecified; the executor treats a level as an unordered set (the sort here
// only keeps output deterministic for display).
func BuildLeveledDAG(nodes map[string]*types.DAGNode) (*types.LeveledGraph, error) {
	inDegree := make(map[string]int, len(nodes))
	for name, node := range nodes {
		inDegree[name] = len(node.Dependencies)
	}
	reverse := reverseEdges(nodes)

	var frontier []string
	for name, deg := range inDegree {
		if deg == 0 {
			frontier = append(frontier, name)
		}
	}

	graph := &types.LeveledGraph{Nodes: nodes}
	emitted := 0
	for level := 0; len(frontier) > 0; level++ {
		sort.Strings(frontier)
		levelNodes := make([]*types.DAGNode, 0, len(frontier))
		var next []string
		for _, name := range frontier {
			node := nodes[name]
			node.Level = level
			levelNodes = append(levelNodes, node)
			emitted++
			for _, dependent := range reverse[name] {
				inDegree[dependent]--
				if inDegree[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		graph.Levels = append(graph.Levels, levelNodes)
		frontier = next
	}

	if emitted < len(nodes) {
		var cycleNodes []string
		for name, deg := range inDegree {
			if deg > 0 {
				cycleNodes = append(cycleNodes, name)
			}
		}
		sort.Strings(cycleNodes)
		return nil, &CycleDetectedError{Nodes: cycleNodes}
	}

	for _, name := range sortedNames(nodes) {
		node := nodes[name]
		if len(reverse[name]) == 0 {
			graph.Roots = append(graph.Roots, node)
		}
		if len(node.Dependencies) == 0 {
			graph.Leaves = append(graph.Leaves, node)
		}
	}
	return graph, nil
}

func sortedNames(nodes map[string]*types.DAGNode) []string {
	names := make([]string, 0, len(nodes))
	for name := range nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
