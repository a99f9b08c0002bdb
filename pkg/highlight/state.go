// Package highlight tracks which node the user last clicked and the
// neighborhood emphasized around it until the highlight expires.
package highlight

import "github.com/kittclouds/constellation/pkg/graph"

// State is the emphasized subset. The zero value is Idle.
type State struct {
	ActiveNodeID string              `json:"activeNodeId,omitempty"`
	Nodes        map[string]struct{} `json:"-"`
	Links        map[string]struct{} `json:"-"`
}

// Derive computes the highlight for active. An empty id yields Idle.
// Nodes are the active node and all its neighbors in the full graph; links
// are the visible links touching it.
func Derive(active string, adj graph.Adjacency, links []graph.VisibleLink) State {
	if active == "" {
		return State{}
	}

	nodes := map[string]struct{}{active: {}}
	for _, id := range adj.Neighbors(active) {
		nodes[id] = struct{}{}
	}

	hl := make(map[string]struct{})
	for _, l := range links {
		if l.Touches(active) {
			hl[l.ID] = struct{}{}
		}
	}
	return State{ActiveNodeID: active, Nodes: nodes, Links: hl}
}

// Active reports whether a node is highlighted.
func (s State) Active() bool { return s.ActiveNodeID != "" }

// HasNode reports whether id is in the highlighted node set.
func (s State) HasNode(id string) bool {
	_, ok := s.Nodes[id]
	return ok
}

// HasLink reports whether the link id is in the highlighted link set.
func (s State) HasLink(id string) bool {
	_, ok := s.Links[id]
	return ok
}
