// Package selection picks a bounded, connectivity-preserving subset of the
// vocabulary graph to render.
//
// Sampling nodes independently from a large graph yields disconnected
// fragments. SelectConnectedNodes instead grows breadth-first neighborhoods
// from the highest-degree nodes, so the visible subset stays explorable.
package selection

import (
	"sort"

	"github.com/kittclouds/constellation/pkg/graph"
)

// SelectConnectedNodes returns at most target nodes, no id twice. Neighbors
// are visited in edge order.
// When target covers the whole graph the input is returned unchanged.
func SelectConnectedNodes(all []graph.Node, edges []graph.Edge, target int) []graph.Node {
	if len(all) == 0 || target <= 0 {
		return []graph.Node{}
	}
	if target >= len(all) {
		return all
	}

	adj := graph.BuildNeighborOrder(edges)

	index := make(map[string]int, len(all))
	for i, n := range all {
		if _, seen := index[n.ID]; !seen {
			index[n.ID] = i
		}
	}

	// Seeds by descending degree, ties by original position.
	ranked := make([]int, len(all))
	for i := range ranked {
		ranked[i] = i
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return adj.Degree(all[ranked[a]].ID) > adj.Degree(all[ranked[b]].ID)
	})

	selected := make(map[string]struct{}, target)
	result := make([]graph.Node, 0, target)

	for _, seed := range ranked {
		if len(result) >= target {
			break
		}
		if _, done := selected[all[seed].ID]; done {
			continue
		}

		queue := []string{all[seed].ID}
		for len(queue) > 0 && len(result) < target {
			id := queue[0]
			queue = queue[1:]
			if _, done := selected[id]; done {
				continue
			}
			i, known := index[id]
			if !known {
				continue
			}
			selected[id] = struct{}{}
			result = append(result, all[i])

			for _, next := range adj[id] {
				if _, done := selected[next]; !done {
					queue = append(queue, next)
				}
			}
		}
	}

	// Unreachable while target < len(all), kept as a guard.
	for _, n := range all {
		if len(result) >= target {
			break
		}
		if _, done := selected[n.ID]; !done {
			selected[n.ID] = struct{}{}
			result = append(result, n)
		}
	}

	return result
}
