package constellation

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/kittclouds/constellation/internal/store"
	"github.com/kittclouds/constellation/pkg/lexicon"
)

// Defaults for GET /constellation.
const (
	DefaultLimit     = 50
	DefaultMinWeight = 2
)

// Options filters the co-occurrence map.
type Options struct {
	Limit     int
	MinWeight int
	// AutoLayout scatters nodes randomly for a client-side layout pass;
	// otherwise nodes sit on a circle.
	AutoLayout bool
	Seed       int64
}

// Point is a 2D position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData is the payload of a word node.
type NodeData struct {
	Label     string `json:"label"`
	WordID    string `json:"wordId"`
	Frequency int    `json:"frequency,omitempty"`
	Meaning   string `json:"meaning,omitempty"`
	Language  string `json:"language"`
}

// Node is one word in the constellation.
type Node struct {
	ID       string   `json:"id"`
	Position Point    `json:"position"`
	Data     NodeData `json:"data"`
	Type     string   `json:"type"`
}

// EdgeStyle is how the client strokes a connection.
type EdgeStyle struct {
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
}

// EdgeData carries the connection weight.
type EdgeData struct {
	Weight int `json:"weight"`
}

// Edge connects two words that share sentences.
type Edge struct {
	ID     string    `json:"id"`
	Source string    `json:"source"`
	Target string    `json:"target"`
	Style  EdgeStyle `json:"style"`
	Data   EdgeData  `json:"data"`
}

// Response is the body of GET /constellation.
type Response struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Connection is an unordered word pair and the number of sentences both
// appear in. WordA < WordB.
type Connection struct {
	WordA, WordB string
	Weight       int
}

// Connections counts shared sentences for every word pair, keeps those with
// weight >= minWeight and orders them by weight, heaviest first.
func Connections(links []*store.Link, minWeight int) []Connection {
	bySentence := make(map[string][]string)
	for _, l := range links {
		bySentence[l.SentenceID] = append(bySentence[l.SentenceID], l.WordID)
	}

	weights := make(map[[2]string]int)
	for _, ws := range bySentence {
		sort.Strings(ws)
		for i := 0; i < len(ws); i++ {
			for j := i + 1; j < len(ws); j++ {
				if ws[i] != ws[j] {
					weights[[2]string{ws[i], ws[j]}]++
				}
			}
		}
	}

	out := make([]Connection, 0, len(weights))
	for pair, w := range weights {
		if w >= minWeight {
			out = append(out, Connection{WordA: pair[0], WordB: pair[1], Weight: w})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		if out[i].WordA != out[j].WordA {
			return out[i].WordA < out[j].WordA
		}
		return out[i].WordB < out[j].WordB
	})
	return out
}

// Build assembles the constellation from the vocabulary.
func Build(words []*store.Word, links []*store.Link, opts Options) Response {
	conns := Connections(links, opts.MinWeight)
	limit := opts.Limit
	if limit < 0 {
		limit = 0
	}
	if len(conns) > limit {
		conns = conns[:limit]
	}

	frequency := make(map[string]int)
	for _, l := range links {
		frequency[l.WordID]++
	}

	connected := make(map[string]struct{}, 2*len(conns))
	for _, c := range conns {
		connected[c.WordA] = struct{}{}
		connected[c.WordB] = struct{}{}
	}

	resp := Response{Nodes: []Node{}, Edges: make([]Edge, 0, len(conns))}
	var kept []*store.Word
	for _, w := range words {
		if _, ok := connected[w.ID]; ok {
			kept = append(kept, w)
		}
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	for i, w := range kept {
		pos := circlePosition(i, len(kept))
		if opts.AutoLayout {
			pos = Point{X: rng.Float64() * 800, Y: rng.Float64() * 600}
		}
		resp.Nodes = append(resp.Nodes, Node{
			ID:       w.ID,
			Position: pos,
			Type:     "wordNode",
			Data: NodeData{
				Label:     w.Text,
				WordID:    w.ID,
				Frequency: frequency[w.ID],
				Meaning:   w.Meaning,
				Language:  lexicon.Language(w.Text),
			},
		})
	}

	for _, c := range conns {
		resp.Edges = append(resp.Edges, Edge{
			ID:     fmt.Sprintf("e%s-%s", c.WordA, c.WordB),
			Source: c.WordA,
			Target: c.WordB,
			Style: EdgeStyle{
				Stroke:      "rgba(255,255,255,0.2)",
				StrokeWidth: math.Min(5, float64(c.Weight)/2),
			},
			Data: EdgeData{Weight: c.Weight},
		})
	}
	return resp
}

// circlePosition places node i of total on a circle around (400, 300).
func circlePosition(i, total int) Point {
	radius := math.Min(300, float64(total)*20)
	angle := float64(i) / float64(total) * 2 * math.Pi
	return Point{X: 400 + radius*math.Cos(angle), Y: 300 + radius*math.Sin(angle)}
}
