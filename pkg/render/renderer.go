package render

import (
	"math"

	"github.com/kittclouds/constellation/pkg/graph"
	"github.com/kittclouds/constellation/pkg/highlight"
)

// Op is a draw primitive.
type Op int

const (
	// OpGradientCircle fills a circle with a radial gradient.
	OpGradientCircle Op = iota
	// OpText draws centered, top-aligned text.
	OpText
)

// GradientStop is one color stop of a radial gradient.
type GradientStop struct {
	Offset float64
	Color  RGBA
}

// Command is one draw call in graph coordinates.
type Command struct {
	Op       Op
	X, Y     float64
	Radius   float64
	Stops    []GradientStop
	Text     string
	FontSize float64
	Fill     RGBA
}

// LinkStyle is how a link is stroked.
type LinkStyle struct {
	Color RGBA
	Width float64
}

// Renderer is the paint contract of the view.
type Renderer interface {
	PaintNode(node graph.VisibleNode, state highlight.State, hovered bool, nowMillis, scale float64) []Command
	PaintLink(link graph.VisibleLink, state highlight.State, nowMillis float64) LinkStyle
	// HitTestRadius is the clickable disc radius, independent of the glow.
	HitTestRadius(node graph.VisibleNode) float64
}

var (
	starWhite  = RGBA{R: 255, G: 255, B: 255}
	lavender   = RGBA{R: 177, G: 156, B: 217}
	labelColor = RGBA{R: 255, G: 251, B: 244, A: 0.92}
)

// Canvas is the default starfield look.
type Canvas struct {
	BaseRadius   float64
	HitRadius    float64
	GlowScale    float64
	HighlightMul float64
	LabelZoom    float64
}

// NewCanvas returns the default look.
func NewCanvas() *Canvas {
	return &Canvas{
		BaseRadius:   4,
		HitRadius:    5 * 1.4,
		GlowScale:    2.5,
		HighlightMul: 1.35,
		LabelZoom:    0.8,
	}
}

type nodeColors struct {
	core, glow, highlight RGBA
}

func visuals(n graph.Node, sparkle float64) nodeColors {
	if n.Kind == graph.KindWord {
		return nodeColors{
			core:      starWhite.WithAlpha(clampUnit(0.95 * sparkle)),
			glow:      starWhite.WithAlpha(clampUnit(0.6 * sparkle)),
			highlight: starWhite.WithAlpha(clampUnit(0.98 * sparkle)),
		}
	}
	b := Brightness(n.Reviews())
	return nodeColors{
		core:      lavender.WithAlpha(clampUnit((0.8 + 0.2*b) * sparkle)),
		glow:      lavender.WithAlpha(clampUnit((0.6 + 0.3*b) * sparkle)),
		highlight: lavender.WithAlpha(clampUnit((b + 0.5) * sparkle)),
	}
}

// PaintNode emits the outer glow, the core and, when visible, the label.
func (c *Canvas) PaintNode(node graph.VisibleNode, state highlight.State, hovered bool, nowMillis, scale float64) []Command {
	colors := visuals(node.Node, NodeSparkle(nowMillis, node.ID))
	lit := state.HasNode(node.ID)

	radius := c.BaseRadius
	if lit {
		radius *= c.HighlightMul
	}
	scaled := radius / math.Sqrt(scale)

	mid, outer := colors.core, colors.glow
	if lit {
		mid, outer = colors.highlight, colors.highlight
	}

	cmds := []Command{
		{
			Op: OpGradientCircle, X: node.X, Y: node.Y, Radius: scaled * c.GlowScale,
			Stops: []GradientStop{
				{0, colors.glow},
				{0.3, colors.glow.WithAlpha(0.3)},
				{1, Transparent},
			},
		},
		{
			Op: OpGradientCircle, X: node.X, Y: node.Y, Radius: scaled,
			Stops: []GradientStop{
				{0, colors.core},
				{0.4, mid},
				{0.8, outer},
				{1, colors.glow},
			},
		},
	}

	showLabel := node.Label != "" &&
		((node.Kind == graph.KindWord && scale > c.LabelZoom) ||
			(node.Kind == graph.KindSentence && hovered))
	if showLabel {
		cmds = append(cmds, Command{
			Op:       OpText,
			X:        node.X,
			Y:        node.Y + scaled + 2/scale,
			Text:     node.Label,
			FontSize: clamp(5/math.Sqrt(scale), 3, 12),
			Fill:     labelColor,
		})
	}
	return cmds
}

// PaintLink brightens and widens highlighted links.
func (c *Canvas) PaintLink(link graph.VisibleLink, state highlight.State, nowMillis float64) LinkStyle {
	sparkle := LinkSparkle(nowMillis, link.ID)
	if state.HasLink(link.ID) {
		return LinkStyle{Color: starWhite.WithAlpha(clampUnit(0.6 * sparkle)), Width: 1.8}
	}
	return LinkStyle{Color: starWhite.WithAlpha(clampUnit(0.15 * sparkle)), Width: 0.6}
}

// HitTestRadius is constant for every node.
func (c *Canvas) HitTestRadius(graph.VisibleNode) float64 {
	return c.HitRadius
}

// HitTest returns the topmost node whose hit disc contains (x, y). Nodes
// painted later are on top.
func HitTest(nodes []graph.VisibleNode, x, y float64, r Renderer) (graph.VisibleNode, bool) {
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		rad := r.HitTestRadius(n)
		if dx, dy := x-n.X, y-n.Y; dx*dx+dy*dy <= rad*rad {
			return n, true
		}
	}
	return graph.VisibleNode{}, false
}
