// Package view is the constellation page core: it fetches the vocabulary
// graph once, selects and lays out a bounded visible subset, drives the
// force simulation and tracks click highlights. Every method runs on the
// scheduler's thread; only the fetch itself happens elsewhere.
package view

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/kittclouds/constellation/internal/api"
	"github.com/kittclouds/constellation/pkg/driver"
	"github.com/kittclouds/constellation/pkg/graph"
	"github.com/kittclouds/constellation/pkg/highlight"
	"github.com/kittclouds/constellation/pkg/layout"
	"github.com/kittclouds/constellation/pkg/physics"
	"github.com/kittclouds/constellation/pkg/render"
	"github.com/kittclouds/constellation/pkg/sched"
	"github.com/kittclouds/constellation/pkg/selection"
	"github.com/kittclouds/constellation/pkg/snapshot"
)

// Status is the page state of one fetch attempt.
type Status int

const (
	StatusLoading Status = iota
	StatusError
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	case StatusReady:
		return "ready"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ErrClosed is returned by operations on a closed view.
var ErrClosed = errors.New("view closed")

// Fetcher reads the full graph. *api.Client implements it.
type Fetcher interface {
	GetGraph(ctx context.Context) (graph.Payload, error)
}

// Controller owns the state behind one constellation canvas.
type Controller struct {
	sched    sched.Scheduler
	fetcher  Fetcher
	renderer render.Renderer
	logger   *log.Logger
	physCfg  physics.Config

	maxVisible    int
	width, height float64
	mounted       bool
	closed        bool

	status Status
	errMsg string
	err    error
	gen    uint64
	cancel context.CancelFunc

	allNodes []graph.Node
	allEdges []graph.Edge
	adj      graph.Adjacency
	visible  []graph.VisibleNode
	links    []graph.VisibleLink
	sim      *physics.Simulation

	driver    *driver.Driver
	highlight *highlight.Controller
	pulser    *highlight.Pulser

	onRedraw func()
	onStatus func(Status, string)
}

// Option configures a Controller.
type Option func(*Controller)

// WithMaxVisible bounds the visible node count. 0 shows everything.
func WithMaxVisible(n int) Option {
	return func(c *Controller) { c.maxVisible = n }
}

// WithRenderer replaces the default canvas look.
func WithRenderer(r render.Renderer) Option {
	return func(c *Controller) { c.renderer = r }
}

// WithLogger sets the logger shared with the driver.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithPhysics overrides the simulation settings.
func WithPhysics(cfg physics.Config) Option {
	return func(c *Controller) { c.physCfg = cfg }
}

// WithOnRedraw is called whenever the canvas should repaint.
func WithOnRedraw(fn func()) Option {
	return func(c *Controller) { c.onRedraw = fn }
}

// WithOnStatus is called on every status change.
func WithOnStatus(fn func(Status, string)) Option {
	return func(c *Controller) { c.onStatus = fn }
}

// New creates an unmounted view in the Loading state. Call Load to fetch.
func New(s sched.Scheduler, f Fetcher, opts ...Option) *Controller {
	c := &Controller{
		sched:    s,
		fetcher:  f,
		renderer: render.NewCanvas(),
		logger:   log.New(io.Discard, "", 0),
		physCfg:  physics.DefaultConfig(),
		status:   StatusLoading,
		adj:      graph.Adjacency{},
		visible:  []graph.VisibleNode{},
		links:    []graph.VisibleLink{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxVisible < 0 {
		c.maxVisible = 0
	}
	c.width, c.height = c.physCfg.Width, c.physCfg.Height

	c.driver = driver.New(s, c.engine, driver.WithLogger(c.logger))
	c.highlight = highlight.NewController(s, highlight.WithOnChange(func(highlight.State) { c.redraw() }))
	c.pulser = highlight.NewPulser(s, highlight.PulseInterval, c.redraw)
	return c
}

// engine is the driver's handle: nil until both a graph and a canvas exist.
func (c *Controller) engine() physics.Engine {
	if !c.mounted || c.sim == nil {
		return nil
	}
	return c.sim
}

// Load starts a fetch. A newer Load or Close makes this one's result stale.
func (c *Controller) Load(ctx context.Context) error {
	if c.closed {
		return ErrClosed
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	gen := c.gen
	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.setStatus(StatusLoading, "")
	c.logger.Printf("view: fetching graph (attempt %d)", gen)

	go func() {
		p, err := c.fetcher.GetGraph(fetchCtx)
		c.sched.Post(func() {
			if gen != c.gen || c.closed {
				return
			}
			cancel()
			c.cancel = nil
			c.finish(p, err)
		})
	}()
	return nil
}

func (c *Controller) finish(p graph.Payload, err error) {
	if err == nil {
		err = p.Validate()
	}
	if err != nil {
		c.logger.Printf("view: fetch failed: %v", err)
		c.err = err
		c.setStatus(StatusError, api.UserMessage(err))
		return
	}

	c.err = nil
	c.allNodes = p.Nodes
	c.allEdges = p.Edges
	c.adj = graph.BuildAdjacency(p.Edges)
	c.rebuild()
	if len(c.allNodes) > 0 {
		c.driver.RequestFit()
	}
	c.setStatus(StatusReady, "")
}

// rebuild derives the visible set, seeds the simulation and re-arms the
// driver. The camera fit belongs to the fetch, not to rebuild. Singleton components keep their grid slot; larger components
// start from their ring layout and are released to the forces.
func (c *Controller) rebuild() {
	target := c.maxVisible
	if target == 0 {
		target = len(c.allNodes)
	}
	selected := selection.SelectConnectedNodes(c.allNodes, c.allEdges, target)
	c.visible = layout.AssignFixedPositions(selected, c.allEdges)
	c.links = graph.VisibleLinks(c.visible, c.allEdges)

	linked := make(map[string]bool, len(c.visible))
	for _, l := range c.links {
		if l.Source != l.Target {
			linked[l.Source], linked[l.Target] = true, true
		}
	}

	bodies := make([]*physics.Body, len(c.visible))
	for i := range c.visible {
		n := &c.visible[i]
		n.Fixed = !linked[n.ID]
		b := &physics.Body{ID: n.ID, X: n.X, Y: n.Y}
		if n.Fixed {
			b.Pin()
		}
		bodies[i] = b
	}
	c.sim = physics.New(bodies, c.physCfg, c.sched.Now)
	c.sim.Resize(c.width, c.height)

	c.highlight.SetGraph(c.adj, c.links)

	if len(c.allNodes) == 0 {
		c.driver.Stop()
		c.pulser.Stop()
		return
	}

	springs := make([]physics.Spring, len(c.links))
	for i, l := range c.links {
		springs[i] = physics.Spring{Source: l.Source, Target: l.Target}
	}
	c.driver.Arm(len(c.allNodes), len(c.allEdges), springs)
	c.pulser.Start()
	c.logger.Printf("view: %d/%d nodes visible, %d links", len(c.visible), len(c.allNodes), len(c.links))
}

// SetMaxVisible changes the visible bound and, once loaded, re-derives the
// visible set. 0 shows everything. The viewport stays where it is.
func (c *Controller) SetMaxVisible(n int) error {
	if n < 0 {
		return fmt.Errorf("max visible must be >= 0, got %d", n)
	}
	c.maxVisible = n
	if c.status == StatusReady && !c.closed {
		cam := c.sim.Camera()
		c.rebuild()
		c.sim.UseCamera(cam)
		c.redraw()
	}
	return nil
}

// Mount attaches the canvas. Scheduling waiting on the engine proceeds on
// the driver's next poll.
func (c *Controller) Mount(width, height float64) {
	if width > 0 && height > 0 {
		c.width, c.height = width, height
	}
	c.mounted = true
	if c.sim != nil {
		c.sim.Resize(c.width, c.height)
	}
	c.redraw()
}

// Click highlights a node.
func (c *Controller) Click(id string) {
	if c.status != StatusReady || c.closed {
		return
	}
	c.highlight.Click(id)
}

// ClickAt hit-tests a screen point at the current camera and clicks the
// node under it.
func (c *Controller) ClickAt(sx, sy float64) (string, bool) {
	n, ok := c.nodeAt(sx, sy)
	if !ok {
		return "", false
	}
	c.Click(n.ID)
	return n.ID, true
}

// Hover tracks the node under the pointer ("" for none).
func (c *Controller) Hover(id string) {
	if c.closed {
		return
	}
	if c.highlight.Hovered() != id {
		c.highlight.Hover(id)
		c.redraw()
	}
}

// HoverAt is Hover for a screen point.
func (c *Controller) HoverAt(sx, sy float64) string {
	n, _ := c.nodeAt(sx, sy)
	c.Hover(n.ID)
	return n.ID
}

func (c *Controller) nodeAt(sx, sy float64) (graph.VisibleNode, bool) {
	if c.sim == nil || c.status != StatusReady {
		return graph.VisibleNode{}, false
	}
	c.syncPositions()
	x, y := c.sim.Camera().ToGraph(c.sched.Now(), sx, sy)
	return render.HitTest(c.visible, x, y, c.renderer)
}

func (c *Controller) syncPositions() {
	for i := range c.visible {
		if b := c.sim.Body(c.visible[i].ID); b != nil {
			c.visible[i].X, c.visible[i].Y = b.X, b.Y
		}
	}
}

// Frame advances the simulation by one tick when mounted and paints every
// visible link and node at nowMillis.
func (c *Controller) Frame(nowMillis float64) render.Frame {
	f := render.Frame{
		Width:      c.width,
		Height:     c.height,
		Scale:      1,
		Background: render.Color(0, 0, 0, 1),
	}
	if c.sim == nil || c.status != StatusReady || c.closed {
		return f
	}
	if c.mounted {
		c.sim.Tick()
	}
	c.syncPositions()

	t := c.sim.Camera().At(time.Unix(0, int64(nowMillis*float64(time.Millisecond))))
	f.CenterX, f.CenterY, f.Scale = t.X, t.Y, t.K

	state := c.highlight.State()
	hovered := c.highlight.Hovered()
	for _, l := range c.links {
		src, dst := c.sim.Body(l.Source), c.sim.Body(l.Target)
		f.Links = append(f.Links, render.Segment{
			X1: src.X, Y1: src.Y, X2: dst.X, Y2: dst.Y,
			Style: c.renderer.PaintLink(l, state, nowMillis),
		})
	}
	for _, n := range c.visible {
		f.Commands = append(f.Commands, c.renderer.PaintNode(n, state, n.ID == hovered, nowMillis, t.K)...)
	}
	return f
}

// Status returns the page state and, for StatusError, the user message.
func (c *Controller) Status() (Status, string) { return c.status, c.errMsg }

// Err is the fetch error behind StatusError.
func (c *Controller) Err() error { return c.err }

// VisibleNodes returns the rendered nodes with their latest positions.
func (c *Controller) VisibleNodes() []graph.VisibleNode {
	if c.sim != nil {
		c.syncPositions()
	}
	return c.visible
}

// VisibleLinks returns the rendered links.
func (c *Controller) VisibleLinks() []graph.VisibleLink { return c.links }

// Highlight returns the current highlight.
func (c *Controller) Highlight() highlight.State { return c.highlight.State() }

// Hovered returns the hovered node id.
func (c *Controller) Hovered() string { return c.highlight.Hovered() }

// Simulation exposes the engine for headless export; nil before a load.
func (c *Controller) Simulation() *physics.Simulation { return c.sim }

// Driver exposes the force scheduler state.
func (c *Controller) Driver() *driver.Driver { return c.driver }

// Counts reports the full graph size.
func (c *Controller) Counts() (nodes, edges int) { return len(c.allNodes), len(c.allEdges) }

// Snapshot captures the current layout.
func (c *Controller) Snapshot() snapshot.Snapshot {
	snap := snapshot.Snapshot{
		SavedAt: c.sched.Now(),
		Nodes:   make([]snapshot.NodePosition, 0, len(c.visible)),
		Links:   make([]string, 0, len(c.links)),
	}
	if c.sim == nil {
		return snap
	}
	t := c.sim.Camera().At(c.sched.Now())
	snap.Camera = snapshot.Camera{X: t.X, Y: t.Y, K: t.K}
	for _, n := range c.VisibleNodes() {
		snap.Nodes = append(snap.Nodes, snapshot.NodePosition{ID: n.ID, X: n.X, Y: n.Y, Fixed: n.Fixed})
	}
	for _, l := range c.links {
		snap.Links = append(snap.Links, l.ID)
	}
	return snap
}

// Close cancels the fetch and every timer. The view is unusable afterwards.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.driver.Stop()
	c.highlight.Close()
	c.pulser.Stop()
	c.sim = nil
}

func (c *Controller) setStatus(s Status, msg string) {
	c.status, c.errMsg = s, msg
	if c.onStatus != nil {
		c.onStatus(s, msg)
	}
	c.redraw()
}

func (c *Controller) redraw() {
	if c.onRedraw != nil && !c.closed {
		c.onRedraw()
	}
}
