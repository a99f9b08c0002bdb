// Package layout seeds deterministic positions for the constellation:
// connected components on a centered grid, each arranged radially around
// its best-connected node.
package layout

import (
	"sort"

	"github.com/kittclouds/constellation/pkg/graph"
)

// induced keeps the edges whose endpoints are both in nodes.
func induced(nodes []graph.Node, edges []graph.Edge) []graph.Edge {
	ids := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		ids[n.ID] = struct{}{}
	}
	out := make([]graph.Edge, 0, len(edges))
	for _, e := range edges {
		_, okFrom := ids[e.From]
		_, okTo := ids[e.To]
		if okFrom && okTo {
			out = append(out, e)
		}
	}
	return out
}

// FindComponents partitions nodes into connected components. Components are
// pairwise disjoint, cover every node, and are ordered largest first; isolated
// nodes form singleton components. Edges leaving the node set are ignored.
// Members appear in breadth-first order, neighbors taken in edge order.
func FindComponents(nodes []graph.Node, edges []graph.Edge) [][]graph.Node {
	adj := graph.BuildNeighborOrder(induced(nodes, edges))

	byID := make(map[string]graph.Node, len(nodes))
	for _, n := range nodes {
		if _, dup := byID[n.ID]; !dup {
			byID[n.ID] = n
		}
	}

	visited := make(map[string]struct{}, len(nodes))
	components := make([][]graph.Node, 0)

	for _, start := range nodes {
		if _, done := visited[start.ID]; done {
			continue
		}

		var component []graph.Node
		visited[start.ID] = struct{}{}
		queue := []string{start.ID}
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			component = append(component, byID[id])

			for _, next := range adj[id] {
				if _, done := visited[next]; !done {
					visited[next] = struct{}{}
					queue = append(queue, next)
				}
			}
		}
		components = append(components, component)
	}

	sort.SliceStable(components, func(i, j int) bool {
		return len(components[i]) > len(components[j])
	})
	return components
}
