package common

import (
	"math"
	"testing"
)

// TestGammaToLinearKnownValues checks the sRGB inverse transfer function at
// the piecewise boundary and a few reference points.
func TestGammaToLinearKnownValues(t *testing.T) {
	cases := []struct {
		in, want float32
	}{
		{0, 0},
		{0.04045, 0.04045 / 12.92},
		{1, 1},
		{0.5, 0.21404114},
	}
	for _, c := range cases {
		got := GammaToLinear(c.in)
		if math.Abs(float64(got-c.want)) > 1e-5 {
			t.Errorf("GammaToLinear(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

// TestGammaToLinearMonotonic verifies the transfer function never decreases
// over [0, 1].
func TestGammaToLinearMonotonic(t *testing.T) {
	prev := float32(-1)
	for i := 0; i <= 1000; i++ {
		x := float32(i) / 1000
		y := GammaToLinear(x)
		if y < prev {
			t.Fatalf("GammaToLinear not monotonic at x=%v: %v < %v", x, y, prev)
		}
		prev = y
	}
}

// TestSRGBRoundTrip verifies that the forward transfer undoes the inverse
// transfer within floating tolerance.
func TestSRGBRoundTrip(t *testing.T) {
	for i := 0; i <= 100; i++ {
		x := float32(i) / 100
		back := LinearToGamma(GammaToLinear(x))
		if math.Abs(float64(back-x)) > 1e-5 {
			t.Errorf("round trip of %v gave %v", x, back)
		}
	}
}

// TestClamp checks boundary behavior of the float and int clamp helpers.
func TestClamp(t *testing.T) {
	if got := Clamp(-1, 0, 1); got != 0 {
		t.Errorf("Clamp(-1,0,1) = %v, want 0", got)
	}
	if got := Clamp(2, 0, 1); got != 1 {
		t.Errorf("Clamp(2,0,1) = %v, want 1", got)
	}
	if got := Clamp(0.5, 0, 1); got != 0.5 {
		t.Errorf("Clamp(0.5,0,1) = %v, want 0.5", got)
	}
	if got := ClampInt(-3, 1, 16); got != 1 {
		t.Errorf("ClampInt(-3,1,16) = %v, want 1", got)
	}
	if got := ClampInt(40, 1, 16); got != 16 {
		t.Errorf("ClampInt(40,1,16) = %v, want 16", got)
	}
}
