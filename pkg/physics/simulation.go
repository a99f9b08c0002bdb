// Package physics is a small velocity-Verlet force layout in the manner of
// d3-force: an alpha that cools each tick, named forces that nudge body
// velocities, and pinned bodies that never move.
package physics

import (
	"math"
	"time"
)

// Body is one simulated node.
type Body struct {
	ID     string
	X, Y   float64
	VX, VY float64

	// Pinned bodies stay at (PinX, PinY).
	Pinned     bool
	PinX, PinY float64
}

// Pin fixes the body at its current position.
func (b *Body) Pin() {
	b.Pinned, b.PinX, b.PinY = true, b.X, b.Y
}

// Release lets forces move the body again.
func (b *Body) Release() {
	b.Pinned = false
}

// Force mutates body velocities (or positions) once per tick.
type Force interface {
	// Initialize is called whenever the force is installed.
	Initialize(bodies []*Body)
	Apply(alpha float64)
}

// Engine is the surface the simulation driver needs. It is kept small so the
// scheduling logic can be exercised against a fake.
type Engine interface {
	SetForce(name string, f Force)
	RemoveForce(name string)
	Force(name string) Force
	// Tick advances one step. It reports whether the simulation is still hot.
	Tick() bool
	// ZoomToFit animates the camera onto every body.
	ZoomToFit(duration time.Duration, padding float64)
}

// Config tunes cooling and the viewport.
type Config struct {
	AlphaMin      float64
	AlphaDecay    float64
	AlphaTarget   float64
	VelocityDecay float64
	CooldownTicks int
	CooldownTime  time.Duration

	Width, Height    float64
	MinZoom, MaxZoom float64
}

// DefaultConfig settles quickly: strong friction and fast cooling.
func DefaultConfig() Config {
	return Config{
		AlphaMin:      0.001,
		AlphaDecay:    0.1,
		VelocityDecay: 0.9,
		CooldownTicks: 100,
		CooldownTime:  6 * time.Second,
		Width:         800,
		Height:        600,
		MinZoom:       0.2,
		MaxZoom:       4,
	}
}

// Simulation implements Engine.
type Simulation struct {
	cfg     Config
	bodies  []*Body
	index   map[string]*Body
	forces  map[string]Force
	order   []string
	alpha   float64
	ticks   int
	started time.Time
	now     func() time.Time
	camera  *Camera
}

// New creates a hot simulation over bodies. now supplies the clock used for
// cooldown and camera animation.
func New(bodies []*Body, cfg Config, now func() time.Time) *Simulation {
	s := &Simulation{
		cfg:    cfg,
		bodies: bodies,
		index:  make(map[string]*Body, len(bodies)),
		forces: make(map[string]Force),
		now:    now,
		camera: NewCamera(cfg.Width, cfg.Height, cfg.MinZoom, cfg.MaxZoom),
	}
	for _, b := range bodies {
		s.index[b.ID] = b
		if b.Pinned {
			b.X, b.Y = b.PinX, b.PinY
		}
	}
	s.Reheat()
	return s
}

// Reheat restarts cooling from alpha 1.
func (s *Simulation) Reheat() {
	s.alpha = 1
	s.ticks = 0
	s.started = s.now()
}

// SetForce installs or replaces a named force.
func (s *Simulation) SetForce(name string, f Force) {
	if f == nil {
		s.RemoveForce(name)
		return
	}
	if _, exists := s.forces[name]; !exists {
		s.order = append(s.order, name)
	}
	s.forces[name] = f
	f.Initialize(s.bodies)
}

// RemoveForce uninstalls a named force. Unknown names are ignored.
func (s *Simulation) RemoveForce(name string) {
	if _, exists := s.forces[name]; !exists {
		return
	}
	delete(s.forces, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Force returns the named force or nil.
func (s *Simulation) Force(name string) Force {
	return s.forces[name]
}

// Forces lists installed force names in installation order.
func (s *Simulation) Forces() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Active reports whether another tick would run.
func (s *Simulation) Active() bool {
	if s.alpha < s.cfg.AlphaMin {
		return false
	}
	if s.cfg.CooldownTicks > 0 && s.ticks >= s.cfg.CooldownTicks {
		return false
	}
	if s.cfg.CooldownTime > 0 && s.now().Sub(s.started) >= s.cfg.CooldownTime {
		return false
	}
	return true
}

// Tick cools alpha, applies forces in installation order and integrates.
func (s *Simulation) Tick() bool {
	if !s.Active() {
		return false
	}
	s.alpha += (s.cfg.AlphaTarget - s.alpha) * s.cfg.AlphaDecay

	for _, name := range s.order {
		s.forces[name].Apply(s.alpha)
	}

	keep := 1 - s.cfg.VelocityDecay
	for _, b := range s.bodies {
		if b.Pinned {
			b.X, b.Y, b.VX, b.VY = b.PinX, b.PinY, 0, 0
			continue
		}
		b.VX *= keep
		b.VY *= keep
		b.X += b.VX
		b.Y += b.VY
	}
	s.ticks++
	return true
}

// Alpha is the current temperature.
func (s *Simulation) Alpha() float64 { return s.alpha }

// Ticks counts steps since the last reheat.
func (s *Simulation) Ticks() int { return s.ticks }

// Bodies returns the simulated bodies in input order.
func (s *Simulation) Bodies() []*Body { return s.bodies }

// Body looks a body up by id.
func (s *Simulation) Body(id string) *Body { return s.index[id] }

// Camera exposes the viewport.
func (s *Simulation) Camera() *Camera { return s.camera }

// UseCamera replaces the viewport, keeping its transform and fit count.
// A nil camera is ignored.
func (s *Simulation) UseCamera(c *Camera) {
	if c != nil {
		s.camera = c
	}
}

// Resize changes the viewport size.
func (s *Simulation) Resize(width, height float64) {
	s.camera.Resize(width, height)
}

// Bounds returns the bounding box of all bodies. ok is false when empty.
func (s *Simulation) Bounds() (minX, minY, maxX, maxY float64, ok bool) {
	if len(s.bodies) == 0 {
		return 0, 0, 0, 0, false
	}
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, b := range s.bodies {
		minX, maxX = math.Min(minX, b.X), math.Max(maxX, b.X)
		minY, maxY = math.Min(minY, b.Y), math.Max(maxY, b.Y)
	}
	return minX, minY, maxX, maxY, true
}

// ZoomToFit animates the camera so every body is visible with padding
// screen pixels on each side.
func (s *Simulation) ZoomToFit(duration time.Duration, padding float64) {
	minX, minY, maxX, maxY, ok := s.Bounds()
	if !ok {
		return
	}
	s.camera.FitTo(minX, minY, maxX, maxY, padding, duration, s.now())
}
