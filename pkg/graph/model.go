// Package graph holds the word/sentence graph served by the vocabulary backend
// and the derived sets the constellation view renders.
package graph

import (
	"errors"
	"fmt"
)

// Kind distinguishes the two node families in the vocabulary graph.
type Kind string

const (
	KindWord     Kind = "word"
	KindSentence Kind = "sentence"
)

// Valid reports whether k is a kind the view knows how to paint.
func (k Kind) Valid() bool {
	return k == KindWord || k == KindSentence
}

// Node is a word or sentence entity. Immutable once fetched; identity is ID.
type Node struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	Kind        Kind    `json:"type"`
	ReviewCount *int    `json:"review_count,omitempty"`
	Meaning     *string `json:"meaning,omitempty"`
}

// Reviews returns the review count, treating a missing value as zero.
func (n Node) Reviews() int {
	if n.ReviewCount == nil {
		return 0
	}
	return *n.ReviewCount
}

// Edge is an undirected association, e.g. a word appearing in a sentence.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// EdgeID formats the stable rendering key of an edge.
func EdgeID(e Edge) string {
	return e.From + "->" + e.To
}

// Payload is the body of GET /graph/.
type Payload struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// ErrMalformed marks a payload that violates the graph contract.
var ErrMalformed = errors.New("malformed graph payload")

// Validate checks identity and referential integrity. Duplicate edges are allowed.
func (p *Payload) Validate() error {
	if p.Nodes == nil {
		p.Nodes = []Node{}
	}
	if p.Edges == nil {
		p.Edges = []Edge{}
	}

	seen := make(map[string]struct{}, len(p.Nodes))
	for i, n := range p.Nodes {
		if n.ID == "" {
			return fmt.Errorf("%w: node %d has empty id", ErrMalformed, i)
		}
		if !n.Kind.Valid() {
			return fmt.Errorf("%w: node %q has unknown type %q", ErrMalformed, n.ID, n.Kind)
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("%w: duplicate node id %q", ErrMalformed, n.ID)
		}
		seen[n.ID] = struct{}{}
	}

	for i, e := range p.Edges {
		if _, ok := seen[e.From]; !ok {
			return fmt.Errorf("%w: edge %d references unknown node %q", ErrMalformed, i, e.From)
		}
		if _, ok := seen[e.To]; !ok {
			return fmt.Errorf("%w: edge %d references unknown node %q", ErrMalformed, i, e.To)
		}
	}
	return nil
}
