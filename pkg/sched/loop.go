package sched

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Loop is a real-time event loop. Run drains callbacks on the calling
// goroutine; timers and Post from other goroutines hand work to it.
type Loop struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
	done    chan struct{}
	closed  atomic.Bool
	once    sync.Once
}

// NewLoop creates an idle loop. Call Run to start processing.
func NewLoop() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Run processes callbacks until ctx is done or Close is called.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.mu.Lock()
		batch := l.pending
		l.pending = nil
		l.mu.Unlock()

		for _, fn := range batch {
			fn()
		}
		if len(batch) > 0 {
			continue
		}

		select {
		case <-ctx.Done():
			l.Close()
			return ctx.Err()
		case <-l.done:
			return nil
		case <-l.wake:
		}
	}
}

// Close stops the loop. Pending callbacks are dropped.
func (l *Loop) Close() {
	l.once.Do(func() {
		l.closed.Store(true)
		close(l.done)
	})
}

// Now returns the wall clock.
func (l *Loop) Now() time.Time {
	return time.Now()
}

// Post queues fn. Posting to a closed loop is a no-op.
func (l *Loop) Post(fn func()) {
	if l.closed.Load() {
		return
	}
	l.mu.Lock()
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Call runs fn on the loop and waits for it. Must not be called from the
// loop goroutine. Returns false if the loop closed first.
func (l *Loop) Call(fn func()) bool {
	ran := make(chan struct{})
	l.Post(func() {
		fn()
		close(ran)
	})
	select {
	case <-ran:
		return true
	case <-l.done:
		return false
	}
}

type loopTimer struct {
	stopped atomic.Bool
	mu      sync.Mutex
	timer   *time.Timer
}

func (t *loopTimer) Stop() bool {
	if !t.stopped.CompareAndSwap(false, true) {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	return true
}

func (t *loopTimer) arm(d time.Duration, fire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped.Load() {
		return
	}
	t.timer = time.AfterFunc(d, fire)
}

// AfterFunc schedules fn on the loop. The stop flag is checked on the loop
// goroutine right before fn runs, so Stop from a loop callback always wins.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &loopTimer{}
	t.arm(d, func() {
		l.Post(func() {
			if t.stopped.CompareAndSwap(false, true) {
				fn()
			}
		})
	})
	return t
}

// Every schedules fn repeatedly on the loop.
func (l *Loop) Every(d time.Duration, fn func()) Timer {
	t := &loopTimer{}
	var tick func()
	tick = func() {
		l.Post(func() {
			if t.stopped.Load() {
				return
			}
			fn()
			t.arm(d, tick)
		})
	}
	t.arm(d, tick)
	return t
}
