// Package render turns visible nodes and links into draw commands. Every
// function takes the paint time explicitly so frames are reproducible.
package render

import "math"

func phase(id string) float64 {
	n := len(id)
	if n == 0 {
		n = 1
	}
	return float64(n) * 0.1
}

// NodeSparkle is the node pulse factor in [0.6, 1].
func NodeSparkle(nowMillis float64, id string) float64 {
	return clamp(0.8+0.2*math.Sin(nowMillis*0.003+phase(id)), 0.6, 1)
}

// LinkSparkle is the link pulse factor in [0.5, 1].
func LinkSparkle(nowMillis float64, id string) float64 {
	return clamp(0.7+0.3*math.Sin(nowMillis*0.002+phase(id)), 0.5, 1)
}

// Brightness grows with review count and saturates at 1.
func Brightness(reviewCount int) float64 {
	return math.Min(1, 0.3+float64(reviewCount)*0.25)
}
