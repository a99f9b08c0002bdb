package render

import (
	"fmt"
	"math"
	"strconv"
)

// RGBA is a paint color. Alpha must lie in [0, 1].
type RGBA struct {
	R, G, B uint8
	A       float64
}

// Color builds an RGBA. An alpha outside [0, 1] is a programming error and
// panics; callers clamp with clampUnit first.
func Color(r, g, b uint8, a float64) RGBA {
	if math.IsNaN(a) || a < 0 || a > 1 {
		panic(fmt.Sprintf("render: alpha %v out of range", a))
	}
	return RGBA{R: r, G: g, B: b, A: a}
}

// WithAlpha returns c with a different alpha, checked like Color.
func (c RGBA) WithAlpha(a float64) RGBA {
	return Color(c.R, c.G, c.B, a)
}

// String formats c as a CSS rgba() value.
func (c RGBA) String() string {
	return fmt.Sprintf("rgba(%d,%d,%d,%s)", c.R, c.G, c.B, strconv.FormatFloat(c.A, 'f', -1, 64))
}

// Transparent is fully transparent black.
var Transparent = RGBA{}

func clampUnit(v float64) float64 {
	return clamp(v, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
