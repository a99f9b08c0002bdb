// Package driver owns the force simulation's schedule: which forces run,
// when the layout freezes, and the single camera fit per graph load.
package driver

import (
	"io"
	"log"
	"time"

	"github.com/kittclouds/constellation/pkg/physics"
	"github.com/kittclouds/constellation/pkg/sched"
)

// Force names installed on the engine.
const (
	ForceCenter  = "center"
	ForceAttract = "attract"
	ForceCharge  = "charge"
	ForceLink    = "link"
)

// Defaults.
const (
	PollInterval    = 100 * time.Millisecond
	FreezePerItem   = 100 * time.Millisecond
	FitDelay        = 1500 * time.Millisecond
	FitDuration     = 400 * time.Millisecond
	FitPadding      = 50.0
	AttractStrength = 0.004
)

// Handle returns the mounted engine, or nil while the renderer is not ready.
type Handle func() physics.Engine

// Driver schedules force changes on whichever engine Handle yields.
// All methods must be called on the scheduler's thread.
type Driver struct {
	sched  sched.Scheduler
	handle Handle
	logger *log.Logger

	springs     []physics.Spring
	freezeDelay time.Duration
	armed       bool
	frozen      bool
	fitted      bool

	freezeTimer sched.Timer
	pollTimer   sched.Timer
	fitTimer    sched.Timer
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger used for scheduling traces.
func WithLogger(l *log.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// New creates an idle driver.
func New(s sched.Scheduler, handle Handle, opts ...Option) *Driver {
	d := &Driver{
		sched:  s,
		handle: handle,
		logger: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Arm prepares a new graph load: forces are (re)installed as soon as the
// engine is available, and a one-time freeze fires after
// (nodeCount+edgeCount)*100ms. Any freeze pending from an earlier load is
// cancelled.
func (d *Driver) Arm(nodeCount, edgeCount int, springs []physics.Spring) {
	d.cancel(&d.freezeTimer)
	d.cancel(&d.pollTimer)

	d.springs = springs
	d.freezeDelay = time.Duration(nodeCount+edgeCount) * FreezePerItem
	d.armed = true
	d.frozen = false
	d.start()
}

func (d *Driver) start() {
	d.pollTimer = nil
	engine := d.handle()
	if engine == nil {
		d.logger.Printf("driver: engine not mounted, retrying in %s", PollInterval)
		d.pollTimer = d.sched.AfterFunc(PollInterval, d.start)
		return
	}

	engine.SetForce(ForceCenter, physics.NewCenter(0, 0))
	engine.SetForce(ForceAttract, physics.NewRadial(AttractStrength, 0, 0, 0))
	if engine.Force(ForceCharge) == nil {
		engine.SetForce(ForceCharge, physics.NewManyBody())
	}
	if engine.Force(ForceLink) == nil {
		engine.SetForce(ForceLink, physics.NewLink(d.springs))
	}

	d.freezeTimer = d.sched.AfterFunc(d.freezeDelay, func() {
		d.freezeTimer = nil
		d.freeze(engine)
	})
}

func (d *Driver) freeze(engine physics.Engine) {
	engine.RemoveForce(ForceCharge)
	engine.RemoveForce(ForceLink)
	engine.RemoveForce(ForceCenter)
	d.frozen = true
	d.logger.Printf("driver: layout frozen after %s", d.freezeDelay)
}

// RequestFit schedules the camera fit for a new load. Only one fit happens
// per request no matter how long mounting takes.
func (d *Driver) RequestFit() {
	d.cancel(&d.fitTimer)
	d.fitted = false
	d.fitTimer = d.sched.AfterFunc(FitDelay, d.tryFit)
}

func (d *Driver) tryFit() {
	d.fitTimer = nil
	if d.fitted {
		return
	}
	engine := d.handle()
	if engine == nil {
		d.fitTimer = d.sched.AfterFunc(PollInterval, d.tryFit)
		return
	}
	engine.ZoomToFit(FitDuration, FitPadding)
	d.fitted = true
}

// Armed reports whether a load has been armed since the last Stop.
func (d *Driver) Armed() bool { return d.armed }

// Frozen reports whether the current load's freeze has fired.
func (d *Driver) Frozen() bool { return d.frozen }

// Fitted reports whether the current load's fit has run.
func (d *Driver) Fitted() bool { return d.fitted }

// Stop cancels every pending timer.
func (d *Driver) Stop() {
	d.cancel(&d.freezeTimer)
	d.cancel(&d.pollTimer)
	d.cancel(&d.fitTimer)
	d.armed = false
}

func (d *Driver) cancel(t *sched.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}
