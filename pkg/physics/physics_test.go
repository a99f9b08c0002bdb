package physics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time      { return c.t }
func (c *fakeClock) add(d time.Duration) { c.t = c.t.Add(d) }
func newClock() *fakeClock               { return &fakeClock{t: time.Unix(1700000000, 0)} }
func dist(a, b *Body) float64            { return math.Hypot(a.X-b.X, a.Y-b.Y) }
func bodies(ids ...string) []*Body {
	out := make([]*Body, len(ids))
	for i, id := range ids {
		out[i] = &Body{ID: id, X: float64(i * 10), Y: float64(i * 5)}
	}
	return out
}

func TestTickCoolsAndStopsAfterCooldownTicks(t *testing.T) {
	clock := newClock()
	sim := New(bodies("a", "b"), DefaultConfig(), clock.now)

	n := 0
	for sim.Tick() {
		n++
		require.Less(t, n, 1000)
	}
	// alpha*0.9^k stays above 0.001 for ~65 ticks, so alphaMin ends it first.
	assert.LessOrEqual(t, n, 100)
	assert.Less(t, sim.Alpha(), DefaultConfig().AlphaMin)
	assert.False(t, sim.Active())
}

func TestTickStopsOnCooldownTicks(t *testing.T) {
	clock := newClock()
	cfg := DefaultConfig()
	cfg.AlphaDecay = 0.001
	cfg.CooldownTicks = 7
	sim := New(bodies("a"), cfg, clock.now)

	n := 0
	for sim.Tick() {
		n++
	}
	assert.Equal(t, 7, n)
}

func TestTickStopsOnCooldownTime(t *testing.T) {
	clock := newClock()
	cfg := DefaultConfig()
	cfg.AlphaDecay = 0.001
	sim := New(bodies("a"), cfg, clock.now)

	assert.True(t, sim.Tick())
	clock.add(6 * time.Second)
	assert.False(t, sim.Tick())

	sim.Reheat()
	assert.True(t, sim.Tick())
	assert.Equal(t, 1, sim.Ticks())
}

func TestPinnedBodiesDoNotMove(t *testing.T) {
	clock := newClock()
	bs := bodies("a", "b", "c")
	bs[0].Pin()
	sim := New(bs, DefaultConfig(), clock.now)
	sim.SetForce("charge", NewManyBody())
	sim.SetForce("center", NewCenter(100, 100))

	for sim.Tick() {
	}
	assert.Equal(t, 0.0, bs[0].X)
	assert.Equal(t, 0.0, bs[0].Y)
	assert.NotEqual(t, 10.0, bs[1].X)
}

func TestForceRegistry(t *testing.T) {
	sim := New(bodies("a"), DefaultConfig(), newClock().now)
	c := NewCenter(0, 0)
	sim.SetForce("center", c)
	sim.SetForce("attract", NewRadial(0.004, 0, 0, 0))
	sim.SetForce("center", c)

	assert.Equal(t, []string{"center", "attract"}, sim.Forces())
	assert.Same(t, c, sim.Force("center"))

	sim.RemoveForce("center")
	sim.RemoveForce("missing")
	assert.Nil(t, sim.Force("center"))
	assert.Equal(t, []string{"attract"}, sim.Forces())

	sim.SetForce("attract", nil)
	assert.Empty(t, sim.Forces())
}

func TestCenterMovesMeanToTarget(t *testing.T) {
	bs := []*Body{{ID: "a", X: 10, Y: 0}, {ID: "b", X: 30, Y: 20}}
	c := NewCenter(0, 0)
	c.Initialize(bs)
	c.Apply(1)

	assert.InDelta(t, -10, bs[0].X, 1e-9)
	assert.InDelta(t, 10, bs[1].X, 1e-9)
	assert.InDelta(t, 0, (bs[0].Y+bs[1].Y)/2, 1e-9)
}

func TestRadialPullsTowardPoint(t *testing.T) {
	bs := []*Body{{ID: "a", X: 100, Y: 0}}
	r := NewRadial(0.004, 0, 0, 0)
	r.Initialize(bs)
	r.Apply(1)

	assert.InDelta(t, -0.4, bs[0].VX, 1e-6)
	assert.InDelta(t, 0, bs[0].VY, 1e-6)
}

func TestLinkPullsTowardRestDistance(t *testing.T) {
	clock := newClock()
	bs := []*Body{{ID: "a", X: 0}, {ID: "b", X: 200}}
	sim := New(bs, DefaultConfig(), clock.now)
	sim.SetForce("link", NewLink([]Spring{{Source: "a", Target: "b"}, {Source: "a", Target: "ghost"}}))

	before := dist(bs[0], bs[1])
	sim.Tick()
	assert.Less(t, dist(bs[0], bs[1]), before)
}

func TestManyBodyRepels(t *testing.T) {
	clock := newClock()
	bs := []*Body{{ID: "a", X: 0}, {ID: "b", X: 5}}
	sim := New(bs, DefaultConfig(), clock.now)
	sim.SetForce("charge", NewManyBody())

	sim.Tick()
	assert.Greater(t, dist(bs[0], bs[1]), 5.0)
}

func TestManyBodySeparatesCoincidentBodies(t *testing.T) {
	bs := []*Body{{ID: "a"}, {ID: "b"}}
	m := NewManyBody()
	m.Initialize(bs)
	m.Apply(1)

	assert.False(t, math.IsNaN(bs[0].VX))
	assert.False(t, math.IsInf(bs[0].VX, 0))
}

func TestZoomToFitAnimates(t *testing.T) {
	clock := newClock()
	bs := []*Body{{ID: "a", X: -100, Y: -50}, {ID: "b", X: 100, Y: 50}}
	sim := New(bs, DefaultConfig(), clock.now)
	cam := sim.Camera()

	sim.ZoomToFit(400*time.Millisecond, 50)
	assert.Equal(t, 1, cam.Fits())

	// 700/200 = 3.5, 500/100 = 5 -> 3.5
	target := cam.Target()
	assert.InDelta(t, 3.5, target.K, 1e-9)
	assert.InDelta(t, 0, target.X, 1e-9)

	mid := cam.At(clock.now().Add(200 * time.Millisecond))
	assert.InDelta(t, 2.25, mid.K, 1e-9)

	clock.add(400 * time.Millisecond)
	assert.Equal(t, target, cam.At(clock.now()))

	sx, sy := cam.ToScreen(clock.now(), 100, 50)
	assert.InDelta(t, 750, sx, 1e-9)
	assert.InDelta(t, 475, sy, 1e-9)
	x, y := cam.ToGraph(clock.now(), sx, sy)
	assert.InDelta(t, 100, x, 1e-9)
	assert.InDelta(t, 50, y, 1e-9)
}

func TestUseCameraCarriesViewport(t *testing.T) {
	clock := newClock()
	old := New([]*Body{{ID: "a", X: -100, Y: -50}, {ID: "b", X: 100, Y: 50}}, DefaultConfig(), clock.now)
	old.ZoomToFit(0, 50)

	next := New([]*Body{{ID: "a"}}, DefaultConfig(), clock.now)
	next.UseCamera(old.Camera())
	assert.Same(t, old.Camera(), next.Camera())
	assert.Equal(t, 1, next.Camera().Fits())

	next.UseCamera(nil)
	assert.Same(t, old.Camera(), next.Camera())
}

func TestZoomToFitClampsAndIgnoresEmpty(t *testing.T) {
	clock := newClock()
	sim := New(nil, DefaultConfig(), clock.now)
	sim.ZoomToFit(0, 50)
	assert.Equal(t, 0, sim.Camera().Fits())

	single := New([]*Body{{ID: "a", X: 3, Y: 4}}, DefaultConfig(), clock.now)
	single.ZoomToFit(0, 50)
	assert.Equal(t, Transform{X: 3, Y: 4, K: 4}, single.Camera().Target())

	wide := New([]*Body{{ID: "a", X: -1e6}, {ID: "b", X: 1e6}}, DefaultConfig(), clock.now)
	wide.ZoomToFit(0, 50)
	assert.Equal(t, 0.2, wide.Camera().Target().K)
}
