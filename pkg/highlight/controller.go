package highlight

import (
	"time"

	"github.com/kittclouds/constellation/pkg/graph"
	"github.com/kittclouds/constellation/pkg/sched"
)

// DefaultTTL is how long a click keeps its highlight.
const DefaultTTL = 900 * time.Millisecond

// Controller drives the Idle/Highlighted state machine. Methods must run on
// the scheduler's thread.
type Controller struct {
	sched sched.Scheduler
	ttl   time.Duration

	adj     graph.Adjacency
	links   []graph.VisibleLink
	state   State
	hovered string
	expiry  sched.Timer

	onChange func(State)
}

// Option configures a Controller.
type Option func(*Controller)

// WithTTL overrides DefaultTTL.
func WithTTL(d time.Duration) Option {
	return func(c *Controller) { c.ttl = d }
}

// WithOnChange registers a callback invoked after each state transition.
func WithOnChange(fn func(State)) Option {
	return func(c *Controller) { c.onChange = fn }
}

// NewController starts Idle with an empty graph.
func NewController(s sched.Scheduler, opts ...Option) *Controller {
	c := &Controller{sched: s, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetGraph replaces the topology after a reload and returns to Idle.
func (c *Controller) SetGraph(adj graph.Adjacency, links []graph.VisibleLink) {
	c.adj = adj
	c.links = links
	c.hovered = ""
	c.reset()
}

// Click highlights id. A pending expiry is stopped before the new state is
// set, so an older click can never clear a newer highlight.
func (c *Controller) Click(id string) {
	c.stopExpiry()
	if id == "" {
		c.reset()
		return
	}
	c.set(Derive(id, c.adj, c.links))

	var timer sched.Timer
	timer = c.sched.AfterFunc(c.ttl, func() {
		if c.expiry != timer {
			return
		}
		c.expiry = nil
		c.set(State{})
	})
	c.expiry = timer
}

// Hover tracks the hovered node. It never changes the highlight.
func (c *Controller) Hover(id string) { c.hovered = id }

// Hovered returns the hovered node id, or "".
func (c *Controller) Hovered() string { return c.hovered }

// State returns the current highlight.
func (c *Controller) State() State { return c.state }

// Close stops the expiry timer and drops the highlight.
func (c *Controller) Close() {
	c.stopExpiry()
	c.state = State{}
	c.hovered = ""
}

func (c *Controller) reset() {
	c.stopExpiry()
	if c.state.Active() {
		c.set(State{})
	}
}

func (c *Controller) stopExpiry() {
	if c.expiry != nil {
		c.expiry.Stop()
		c.expiry = nil
	}
}

func (c *Controller) set(s State) {
	c.state = s
	if c.onChange != nil {
		c.onChange(s)
	}
}
