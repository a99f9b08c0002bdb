package sched

import (
	"sync"
	"time"

	"github.com/emirpasic/gods/queues/priorityqueue"
)

// Manual is a virtual clock. Time only moves through Advance, and callbacks
// run on the goroutine calling Advance or Flush. Tests and headless exports
// use it to replay a timeline deterministically.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	queue  *priorityqueue.Queue
	posted []func()
}

type manualTimer struct {
	m        *Manual
	when     time.Time
	seq      uint64
	interval time.Duration
	fn       func()
	stopped  bool
}

func (t *manualTimer) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

func byDeadline(a, b interface{}) int {
	ta, tb := a.(*manualTimer), b.(*manualTimer)
	switch {
	case ta.when.Before(tb.when):
		return -1
	case tb.when.Before(ta.when):
		return 1
	case ta.seq < tb.seq:
		return -1
	case ta.seq > tb.seq:
		return 1
	}
	return 0
}

// NewManual starts a virtual clock at start.
func NewManual(start time.Time) *Manual {
	return &Manual{
		now:   start,
		queue: priorityqueue.NewWith(byDeadline),
	}
}

// Now returns the virtual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) schedule(d, interval time.Duration, fn func()) *manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d < 0 {
		d = 0
	}
	m.seq++
	t := &manualTimer{m: m, when: m.now.Add(d), seq: m.seq, interval: interval, fn: fn}
	m.queue.Enqueue(t)
	return t
}

// AfterFunc runs fn once the clock has advanced by d.
func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	return m.schedule(d, 0, fn)
}

// Every runs fn each time the clock crosses another multiple of d.
func (m *Manual) Every(d time.Duration, fn func()) Timer {
	if d <= 0 {
		panic("sched: non-positive interval")
	}
	return m.schedule(d, d, fn)
}

// Post queues fn for the next Flush or Advance. Safe from any goroutine.
func (m *Manual) Post(fn func()) {
	m.mu.Lock()
	m.posted = append(m.posted, fn)
	m.mu.Unlock()
}

// Flush runs posted callbacks, including ones they post, and returns how
// many ran.
func (m *Manual) Flush() int {
	ran := 0
	for {
		m.mu.Lock()
		batch := m.posted
		m.posted = nil
		m.mu.Unlock()
		if len(batch) == 0 {
			return ran
		}
		for _, fn := range batch {
			fn()
			ran++
		}
	}
}

// next pops the earliest live timer due at or before deadline.
func (m *Manual) next(deadline time.Time) *manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		head, ok := m.queue.Peek()
		if !ok {
			return nil
		}
		t := head.(*manualTimer)
		if t.stopped {
			m.queue.Dequeue()
			continue
		}
		if t.when.After(deadline) {
			return nil
		}
		m.queue.Dequeue()
		m.now = t.when
		if t.interval > 0 {
			m.seq++
			t.when = t.when.Add(t.interval)
			t.seq = m.seq
			m.queue.Enqueue(t)
		} else {
			t.stopped = true
		}
		return t
	}
}

// NextDeadline returns when the earliest live timer fires.
func (m *Manual) NextDeadline() (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		head, ok := m.queue.Peek()
		if !ok {
			return time.Time{}, false
		}
		t := head.(*manualTimer)
		if t.stopped {
			m.queue.Dequeue()
			continue
		}
		return t.when, true
	}
}

// Advance moves the clock forward by d, firing due timers in deadline order.
func (m *Manual) Advance(d time.Duration) {
	m.Flush()
	deadline := m.Now().Add(d)
	for {
		t := m.next(deadline)
		if t == nil {
			break
		}
		t.fn()
		m.Flush()
	}
	m.mu.Lock()
	if m.now.Before(deadline) {
		m.now = deadline
	}
	m.mu.Unlock()
}

// Pending counts live timers.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, v := range m.queue.Values() {
		if !v.(*manualTimer).stopped {
			n++
		}
	}
	return n
}
