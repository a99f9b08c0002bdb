package physics

import (
	"math"
	"time"
)

// Transform maps graph space to the screen: the graph point (X, Y) is drawn
// at the viewport center, scaled by K.
type Transform struct {
	X, Y float64
	K    float64
}

// Camera animates between transforms.
type Camera struct {
	width, height    float64
	minZoom, maxZoom float64

	from, to Transform
	start    time.Time
	duration time.Duration
	fits     int
}

// NewCamera starts at the origin with zoom 1.
func NewCamera(width, height, minZoom, maxZoom float64) *Camera {
	identity := Transform{K: 1}
	return &Camera{
		width: width, height: height,
		minZoom: minZoom, maxZoom: maxZoom,
		from: identity, to: identity,
	}
}

// Resize changes the viewport size.
func (c *Camera) Resize(width, height float64) {
	c.width, c.height = width, height
}

// Size returns the viewport size.
func (c *Camera) Size() (width, height float64) {
	return c.width, c.height
}

// Fits counts FitTo calls.
func (c *Camera) Fits() int { return c.fits }

func (c *Camera) clampZoom(k float64) float64 {
	return math.Max(c.minZoom, math.Min(c.maxZoom, k))
}

// At returns the transform at now, easing from the previous target.
func (c *Camera) At(now time.Time) Transform {
	if c.duration <= 0 || !now.Before(c.start.Add(c.duration)) {
		return c.to
	}
	t := float64(now.Sub(c.start)) / float64(c.duration)
	if t < 0 {
		t = 0
	}
	e := easeCubicInOut(t)
	return Transform{
		X: c.from.X + (c.to.X-c.from.X)*e,
		Y: c.from.Y + (c.to.Y-c.from.Y)*e,
		K: c.from.K + (c.to.K-c.from.K)*e,
	}
}

// Target is the transform the camera is heading to.
func (c *Camera) Target() Transform { return c.to }

// FitTo starts an animation onto the box with padding pixels on each side.
func (c *Camera) FitTo(minX, minY, maxX, maxY, padding float64, duration time.Duration, now time.Time) {
	w := math.Max(c.width-2*padding, 1)
	h := math.Max(c.height-2*padding, 1)
	bw, bh := maxX-minX, maxY-minY

	k := c.maxZoom
	if bw > 0 {
		k = math.Min(k, w/bw)
	}
	if bh > 0 {
		k = math.Min(k, h/bh)
	}

	c.from = c.At(now)
	c.to = Transform{X: (minX + maxX) / 2, Y: (minY + maxY) / 2, K: c.clampZoom(k)}
	c.start = now
	c.duration = duration
	c.fits++
}

// ToScreen projects a graph point through the transform at now.
func (c *Camera) ToScreen(now time.Time, x, y float64) (sx, sy float64) {
	t := c.At(now)
	return (x-t.X)*t.K + c.width/2, (y-t.Y)*t.K + c.height/2
}

// ToGraph inverts ToScreen.
func (c *Camera) ToGraph(now time.Time, sx, sy float64) (x, y float64) {
	t := c.At(now)
	return (sx-c.width/2)/t.K + t.X, (sy-c.height/2)/t.K + t.Y
}

func easeCubicInOut(t float64) float64 {
	t *= 2
	if t <= 1 {
		return t * t * t / 2
	}
	t -= 2
	return (t*t*t + 2) / 2
}
