package layout

import (
	"math"
	"sort"

	"github.com/kittclouds/constellation/pkg/graph"
)

const (
	// ComponentSpacing is the distance between neighboring component centers.
	ComponentSpacing = 300.0
	// MinRingRadius bounds the ring radius for small components.
	MinRingRadius = 40.0
	// RingRadiusPerNode grows the ring with the component size.
	RingRadiusPerNode = 8.0
)

// Position is a 2D coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// RingRadius returns the radius used for a component of n nodes.
func RingRadius(n int) float64 {
	return math.Max(MinRingRadius, float64(n)*RingRadiusPerNode)
}

// GridCenters returns the centers of count cells on a square grid of side
// ceil(sqrt(count)), spaced by ComponentSpacing and centered at the origin.
// Cells fill row by row.
func GridCenters(count int) []Position {
	if count == 0 {
		return nil
	}
	side := int(math.Ceil(math.Sqrt(float64(count))))
	offset := float64(side-1) * ComponentSpacing / 2

	centers := make([]Position, count)
	for i := range centers {
		row, col := i/side, i%side
		centers[i] = Position{
			X: float64(col)*ComponentSpacing - offset,
			Y: float64(row)*ComponentSpacing - offset,
		}
	}
	return centers
}

// LayoutComponent places one component around (cx, cy). The highest-degree
// node sits at the center; the rest follow by descending degree at equal
// angles around a ring of RingRadius(len(component)), starting at angle 0.
func LayoutComponent(component []graph.Node, edges []graph.Edge, cx, cy float64) []graph.VisibleNode {
	switch len(component) {
	case 0:
		return nil
	case 1:
		return []graph.VisibleNode{pinned(component[0], cx, cy)}
	}

	adj := graph.BuildAdjacency(induced(component, edges))
	ordered := make([]graph.Node, len(component))
	copy(ordered, component)
	sort.SliceStable(ordered, func(i, j int) bool {
		return adj.Degree(ordered[i].ID) > adj.Degree(ordered[j].ID)
	})

	radius := RingRadius(len(component))
	ring := len(ordered) - 1

	out := make([]graph.VisibleNode, 0, len(ordered))
	out = append(out, pinned(ordered[0], cx, cy))
	for k, n := range ordered[1:] {
		angle := float64(k) / float64(ring) * 2 * math.Pi
		out = append(out, pinned(n, cx+radius*math.Cos(angle), cy+radius*math.Sin(angle)))
	}
	return out
}

// AssignFixedPositions lays out every component on the grid. Every returned
// node is Fixed; callers decide whether the simulation keeps the pin.
func AssignFixedPositions(nodes []graph.Node, edges []graph.Edge) []graph.VisibleNode {
	if len(nodes) == 0 {
		return []graph.VisibleNode{}
	}

	components := FindComponents(nodes, edges)
	centers := GridCenters(len(components))

	out := make([]graph.VisibleNode, 0, len(nodes))
	for i, component := range components {
		out = append(out, LayoutComponent(component, edges, centers[i].X, centers[i].Y)...)
	}
	return out
}

func pinned(n graph.Node, x, y float64) graph.VisibleNode {
	return graph.VisibleNode{Node: n, Name: n.Label, X: x, Y: y, Fixed: true}
}
