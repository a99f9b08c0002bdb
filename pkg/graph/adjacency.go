package graph

import "sort"

// Adjacency maps a node id to the set of directly connected node ids.
// It is symmetric: b in a's set implies a in b's set.
type Adjacency map[string]map[string]struct{}

// BuildAdjacency indexes every edge in both directions.
func BuildAdjacency(edges []Edge) Adjacency {
	adj := make(Adjacency)
	for _, e := range edges {
		adj.link(e.From, e.To)
		adj.link(e.To, e.From)
	}
	return adj
}

func (a Adjacency) link(from, to string) {
	set := a[from]
	if set == nil {
		set = make(map[string]struct{})
		a[from] = set
	}
	set[to] = struct{}{}
}

// Degree counts distinct neighbors; parallel edges count once.
func (a Adjacency) Degree(id string) int {
	return len(a[id])
}

// Has reports whether a and b are directly connected.
func (a Adjacency) Has(from, to string) bool {
	_, ok := a[from][to]
	return ok
}

// Neighbors returns the connected ids in lexical order.
func (a Adjacency) Neighbors(id string) []string {
	set := a[id]
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Orphans returns the nodes with no connections, in input order.
func (a Adjacency) Orphans(nodes []Node) []Node {
	var orphans []Node
	for _, n := range nodes {
		if a.Degree(n.ID) == 0 {
			orphans = append(orphans, n)
		}
	}
	return orphans
}

// NeighborOrder lists each node's distinct neighbors in the order their first
// connecting edge appears. Breadth-first walks use it so that traversal order
// follows the edge list rather than id spelling.
type NeighborOrder map[string][]string

// BuildNeighborOrder indexes every edge in both directions, keeping first
// occurrences only.
func BuildNeighborOrder(edges []Edge) NeighborOrder {
	seen := make(Adjacency)
	order := make(NeighborOrder)
	add := func(from, to string) {
		if seen.Has(from, to) {
			return
		}
		seen.link(from, to)
		order[from] = append(order[from], to)
	}
	for _, e := range edges {
		add(e.From, e.To)
		add(e.To, e.From)
	}
	return order
}

// Degree counts distinct neighbors.
func (o NeighborOrder) Degree(id string) int {
	return len(o[id])
}
