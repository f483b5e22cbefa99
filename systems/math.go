package systems

import "math"

// clamp01 clamps a value to the [0, 1] range.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// clampMin0 clamps a value to be non-negative.
func clampMin0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// normalizedDot returns the dot product of two integer offsets after
// normalising each to unit length. Zero vectors yield 0.
func normalizedDot(ax, ay, bx, by int) float64 {
	la := math.Hypot(float64(ax), float64(ay))
	lb := math.Hypot(float64(bx), float64(by))
	if la == 0 || lb == 0 {
		return 0
	}
	return (float64(ax)*float64(bx) + float64(ay)*float64(by)) / (la * lb)
}
