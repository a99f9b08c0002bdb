package view

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kittclouds/constellation/pkg/driver"
	"github.com/kittclouds/constellation/pkg/sched"
)

// FrameInterval is the virtual frame period used by Settle.
const FrameInterval = 16 * time.Millisecond

// ErrNotSettled is returned when the layout has not frozen within the frame
// budget, or when nothing is left scheduled that could freeze it.
var ErrNotSettled = errors.New("layout did not settle")

// Settle loads the graph into a view running on a virtual clock and plays
// frames until the layout is frozen and the fit animation has finished.
// Frames are only painted while the simulation is moving; once it cools the
// clock jumps from timer to timer, so the freeze delay of a large graph does
// not eat into the budget. maxFrames bounds the painted frames, <= 0 means
// no bound.
func Settle(ctx context.Context, f Fetcher, width, height float64, maxFrames int, opts ...Option) (*Controller, *sched.Manual, error) {
	m := sched.NewManual(time.Now())
	v := New(m, f, opts...)
	v.Mount(width, height)
	if err := v.Load(ctx); err != nil {
		return nil, nil, err
	}

	poll := time.NewTicker(time.Millisecond)
	defer poll.Stop()
	for {
		m.Flush()
		if st, _ := v.Status(); st != StatusLoading {
			break
		}
		select {
		case <-ctx.Done():
			v.Close()
			return nil, nil, ctx.Err()
		case <-poll.C:
		}
	}

	if st, _ := v.Status(); st == StatusError {
		err := v.Err()
		v.Close()
		return nil, nil, fmt.Errorf("load graph: %w", err)
	}
	if !v.Driver().Armed() {
		return v, m, nil
	}

	var fitDone time.Time
	for frames := 0; ; {
		if err := ctx.Err(); err != nil {
			v.Close()
			return nil, nil, err
		}
		d := v.Driver()
		if d.Frozen() && d.Fitted() {
			if fitDone.IsZero() {
				fitDone = m.Now().Add(driver.FitDuration)
			}
			if !m.Now().Before(fitDone) {
				return v, m, nil
			}
		}

		if v.Simulation().Active() {
			if maxFrames > 0 && frames >= maxFrames {
				break
			}
			v.Frame(sched.NowMillis(m))
			frames++
			m.Advance(FrameInterval)
			continue
		}

		next, ok := m.NextDeadline()
		if !fitDone.IsZero() && (!ok || fitDone.Before(next)) {
			next, ok = fitDone, true
		}
		if !ok {
			break
		}
		m.Advance(next.Sub(m.Now()))
	}
	v.Close()
	return nil, nil, ErrNotSettled
}
