package graph

// VisibleNode is a node selected for rendering. X/Y are filled by the layout
// engine; Fixed asks the simulation not to move the node.
type VisibleNode struct {
	Node
	Name  string  `json:"name"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Fixed bool    `json:"fixed,omitempty"`
}

// VisibleLink is an edge whose endpoints are both visible.
type VisibleLink struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// Touches reports whether the link has id as source or target.
func (l VisibleLink) Touches(id string) bool {
	return l.Source == id || l.Target == id
}

// ToVisible wraps nodes with their render name.
func ToVisible(nodes []Node) []VisibleNode {
	out := make([]VisibleNode, len(nodes))
	for i, n := range nodes {
		out[i] = VisibleNode{Node: n, Name: n.Label}
	}
	return out
}

// VisibleLinks keeps the edges whose endpoints are both in nodes, preserving
// edge order and duplicates.
func VisibleLinks(nodes []VisibleNode, edges []Edge) []VisibleLink {
	ids := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		ids[n.ID] = struct{}{}
	}

	links := make([]VisibleLink, 0)
	for _, e := range edges {
		_, okFrom := ids[e.From]
		_, okTo := ids[e.To]
		if okFrom && okTo {
			links = append(links, VisibleLink{ID: EdgeID(e), Source: e.From, Target: e.To})
		}
	}
	return links
}
