package common

import "math"

// GammaToLinear converts a display-space (sRGB gamma encoded) value to linear
// light using the standard sRGB inverse transfer function.
//
// Parameters:
//   - x: the gamma-encoded value, typically in [0, 1]
//
// Returns:
//   - float32: the linear-light value
func GammaToLinear(x float32) float32 {
	if x <= 0.04045 {
		return x / 12.92
	}
	return float32(math.Pow(float64(x+0.055)/1.055, 2.4))
}

// LinearToGamma converts a linear-light value to display space using the
// standard sRGB forward transfer function. This is the inverse of GammaToLinear.
//
// Parameters:
//   - x: the linear-light value, typically in [0, 1]
//
// Returns:
//   - float32: the gamma-encoded value
func LinearToGamma(x float32) float32 {
	if x <= 0.0031308 {
		return x * 12.92
	}
	return float32(1.055*math.Pow(float64(x), 1.0/2.4) - 0.055)
}
