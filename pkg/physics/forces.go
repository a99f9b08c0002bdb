package physics

import "math"

// jiggle replaces exact zeros so coincident bodies still separate. A fixed
// value keeps runs reproducible.
const jiggle = 1e-6

func nonZero(v float64) float64 {
	if v == 0 {
		return jiggle
	}
	return v
}

// Center translates all bodies so their mean lies at (X, Y).
type Center struct {
	X, Y     float64
	Strength float64
	bodies   []*Body
}

// NewCenter returns a full-strength centering force.
func NewCenter(x, y float64) *Center {
	return &Center{X: x, Y: y, Strength: 1}
}

func (c *Center) Initialize(bodies []*Body) { c.bodies = bodies }

func (c *Center) Apply(float64) {
	if len(c.bodies) == 0 {
		return
	}
	var sx, sy float64
	for _, b := range c.bodies {
		sx += b.X
		sy += b.Y
	}
	n := float64(len(c.bodies))
	sx = (sx/n - c.X) * c.Strength
	sy = (sy/n - c.Y) * c.Strength
	for _, b := range c.bodies {
		b.X -= sx
		b.Y -= sy
	}
}

// Radial pulls each body toward a circle of Radius around (X, Y).
// Radius 0 is a plain attraction to the point.
type Radial struct {
	Strength float64
	Radius   float64
	X, Y     float64
	bodies   []*Body
}

// NewRadial mirrors d3.forceRadial(radius, x, y) with an explicit strength.
func NewRadial(strength, radius, x, y float64) *Radial {
	return &Radial{Strength: strength, Radius: radius, X: x, Y: y}
}

func (r *Radial) Initialize(bodies []*Body) { r.bodies = bodies }

func (r *Radial) Apply(alpha float64) {
	for _, b := range r.bodies {
		dx := nonZero(b.X - r.X)
		dy := nonZero(b.Y - r.Y)
		dist := math.Sqrt(dx*dx + dy*dy)
		k := (r.Radius - dist) * r.Strength * alpha / dist
		b.VX += dx * k
		b.VY += dy * k
	}
}

// Spring is one link between two body ids.
type Spring struct {
	Source, Target string
}

type resolvedSpring struct {
	source, target *Body
	bias           float64
	strength       float64
}

// Link is a spring force keeping linked bodies near Distance apart.
// Strength defaults to 1/min(degree(source), degree(target)).
type Link struct {
	Distance float64
	springs  []Spring
	resolved []resolvedSpring
}

// NewLink builds a link force with d3's default distance of 30.
func NewLink(springs []Spring) *Link {
	return &Link{Distance: 30, springs: springs}
}

func (l *Link) Initialize(bodies []*Body) {
	index := make(map[string]*Body, len(bodies))
	for _, b := range bodies {
		index[b.ID] = b
	}
	count := make(map[string]int)
	for _, s := range l.springs {
		count[s.Source]++
		count[s.Target]++
	}

	l.resolved = l.resolved[:0]
	for _, s := range l.springs {
		src, dst := index[s.Source], index[s.Target]
		if src == nil || dst == nil {
			continue
		}
		cs, ct := float64(count[s.Source]), float64(count[s.Target])
		l.resolved = append(l.resolved, resolvedSpring{
			source:   src,
			target:   dst,
			bias:     cs / (cs + ct),
			strength: 1 / math.Min(cs, ct),
		})
	}
}

func (l *Link) Apply(alpha float64) {
	for _, s := range l.resolved {
		dx := nonZero(s.target.X + s.target.VX - s.source.X - s.source.VX)
		dy := nonZero(s.target.Y + s.target.VY - s.source.Y - s.source.VY)
		dist := math.Sqrt(dx*dx + dy*dy)
		k := (dist - l.Distance) / dist * alpha * s.strength
		dx, dy = dx*k, dy*k
		s.target.VX -= dx * s.bias
		s.target.VY -= dy * s.bias
		s.source.VX += dx * (1 - s.bias)
		s.source.VY += dy * (1 - s.bias)
	}
}

// ManyBody is a pairwise charge. Negative strength repels.
type ManyBody struct {
	Strength    float64
	DistanceMin float64
	bodies      []*Body
}

// NewManyBody uses d3's default charge of -30.
func NewManyBody() *ManyBody {
	return &ManyBody{Strength: -30, DistanceMin: 1}
}

func (m *ManyBody) Initialize(bodies []*Body) { m.bodies = bodies }

// Apply is quadratic; visible graphs are bounded by the node selector.
func (m *ManyBody) Apply(alpha float64) {
	min2 := m.DistanceMin * m.DistanceMin
	for i, a := range m.bodies {
		for j, b := range m.bodies {
			if i == j {
				continue
			}
			dx := nonZero(b.X - a.X)
			dy := nonZero(b.Y - a.Y)
			l := dx*dx + dy*dy
			if l < min2 {
				l = math.Sqrt(min2 * l)
			}
			w := m.Strength * alpha / l
			a.VX += dx * w
			a.VY += dy * w
		}
	}
}
