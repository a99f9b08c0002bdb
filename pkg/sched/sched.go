// Package sched is the single-threaded scheduling model the constellation
// runs on: every callback executes on one logical thread, timers included,
// so a stopped timer can never fire afterwards.
package sched

import "time"

// Timer is a pending one-shot or repeating callback.
type Timer interface {
	// Stop cancels the timer. It reports whether a pending call was prevented.
	Stop() bool
}

// Scheduler runs callbacks serially.
type Scheduler interface {
	Now() time.Time
	// AfterFunc runs fn once after d.
	AfterFunc(d time.Duration, fn func()) Timer
	// Every runs fn every d until stopped.
	Every(d time.Duration, fn func()) Timer
	// Post queues fn to run as soon as possible. Safe from any goroutine.
	Post(fn func())
}

// NowMillis is the wall-clock value paint routines take as input.
func NowMillis(s Scheduler) float64 {
	return float64(s.Now().UnixNano()) / float64(time.Millisecond)
}
