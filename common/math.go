package common

import "math"

// Clamp constrains v to the inclusive range [lo, hi].
//
// Parameters:
//   - v: the value to constrain
//   - lo: the lower bound of the range
//   - hi: the upper bound of the range
//
// Returns:
//   - float32: v limited to [lo, hi]
func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampInt constrains v to the inclusive integer range [lo, hi].
//
// Parameters:
//   - v: the value to constrain
//   - lo: the lower bound of the range
//   - hi: the upper bound of the range
//
// Returns:
//   - int: v limited to [lo, hi]
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp linearly interpolates between a and b by factor t.
// t is not clamped; values outside [0, 1] extrapolate.
//
// Parameters:
//   - a: the start value (t = 0)
//   - b: the end value (t = 1)
//   - t: the interpolation factor
//
// Returns:
//   - float32: the interpolated value
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// Log2 returns the base-2 logarithm of v.
//
// Parameters:
//   - v: the input value (must be > 0 for a finite result)
//
// Returns:
//   - float32: log2(v)
func Log2(v float32) float32 {
	return float32(math.Log2(float64(v)))
}

// Floor returns the largest integer value less than or equal to v.
//
// Parameters:
//   - v: the input value
//
// Returns:
//   - float32: floor(v)
func Floor(v float32) float32 {
	return float32(math.Floor(float64(v)))
}
