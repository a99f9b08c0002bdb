package highlight

import (
	"time"

	"github.com/kittclouds/constellation/pkg/sched"
)

// PulseInterval is the repaint cadence for the sparkle animation.
const PulseInterval = 100 * time.Millisecond

// Pulser requests a redraw on a fixed interval. It only calls redraw; it
// never touches topology or positions.
type Pulser struct {
	sched    sched.Scheduler
	interval time.Duration
	redraw   func()
	timer    sched.Timer
}

// NewPulser creates a stopped pulser.
func NewPulser(s sched.Scheduler, interval time.Duration, redraw func()) *Pulser {
	return &Pulser{sched: s, interval: interval, redraw: redraw}
}

// Start begins pulsing. Calling Start while running is a no-op.
func (p *Pulser) Start() {
	if p.timer != nil {
		return
	}
	p.timer = p.sched.Every(p.interval, p.redraw)
}

// Stop halts pulsing.
func (p *Pulser) Stop() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// Running reports whether the pulser is started.
func (p *Pulser) Running() bool { return p.timer != nil }
