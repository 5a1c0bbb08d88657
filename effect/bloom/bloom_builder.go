package bloom

import "github.com/Carmen-Shannon/bloom-go/effect/metrics"

// BloomBuilderOption is a functional option for configuring a bloomEffect.
// Options route through the clamped setters, so out-of-range values are
// limited rather than rejected.
type BloomBuilderOption func(b *bloomEffect)

// WithThreshold sets the initial luminance cutoff in display (gamma) space.
//
// Parameters:
//   - v: the threshold, clamped to [0, 1]
//
// Returns:
//   - BloomBuilderOption: option function to apply
func WithThreshold(v float32) BloomBuilderOption {
	return func(b *bloomEffect) {
		b.SetThreshold(v)
	}
}

// WithSoftKnee sets the initial soft-knee transition width.
//
// Parameters:
//   - v: the soft knee, clamped to [0, 1]
//
// Returns:
//   - BloomBuilderOption: option function to apply
func WithSoftKnee(v float32) BloomBuilderOption {
	return func(b *bloomEffect) {
		b.SetSoftKnee(v)
	}
}

// WithRadius sets the initial blur spread radius.
//
// Parameters:
//   - v: the radius, clamped to [1, 8]
//
// Returns:
//   - BloomBuilderOption: option function to apply
func WithRadius(v float32) BloomBuilderOption {
	return func(b *bloomEffect) {
		b.SetRadius(v)
	}
}

// WithIntensity sets the initial additive bloom strength.
//
// Parameters:
//   - v: the intensity, clamped to [0, 2]
//
// Returns:
//   - BloomBuilderOption: option function to apply
func WithIntensity(v float32) BloomBuilderOption {
	return func(b *bloomEffect) {
		b.SetIntensity(v)
	}
}

// WithMaxIterations sets the pyramid depth cap.
//
// Parameters:
//   - n: the maximum iteration count, clamped to [1, 20]
//
// Returns:
//   - BloomBuilderOption: option function to apply
func WithMaxIterations(n int) BloomBuilderOption {
	return func(b *bloomEffect) {
		b.SetMaxIterations(n)
	}
}

// WithHighQuality sets the initial high-quality flag.
//
// Parameters:
//   - on: whether to use full-resolution buffers and wide-tap filtering
//
// Returns:
//   - BloomBuilderOption: option function to apply
func WithHighQuality(on bool) BloomBuilderOption {
	return func(b *bloomEffect) {
		b.SetHighQuality(on)
	}
}

// WithAntiFlicker sets the initial anti-flicker flag.
//
// Parameters:
//   - on: whether to enable anti-flicker filtering
//
// Returns:
//   - BloomBuilderOption: option function to apply
func WithAntiFlicker(on bool) BloomBuilderOption {
	return func(b *bloomEffect) {
		b.SetAntiFlicker(on)
	}
}

// WithMetrics attaches a metrics recorder that logs per-pass timings and a
// per-frame summary. A nil recorder leaves instrumentation disabled.
//
// Parameters:
//   - rec: the metrics recorder to attach
//
// Returns:
//   - BloomBuilderOption: option function to apply
func WithMetrics(rec *metrics.Recorder) BloomBuilderOption {
	return func(b *bloomEffect) {
		b.rec = rec
	}
}
