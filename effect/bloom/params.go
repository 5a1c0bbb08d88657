package bloom

import "github.com/Carmen-Shannon/bloom-go/common"

// kneeEpsilon keeps the soft-knee curve coefficients finite when the
// configured knee width is zero.
const kneeEpsilon = 1e-5

// config holds the user-editable effect configuration. Values persist across
// frames; setters clamp to the documented ranges.
type config struct {
	// threshold is the luminance cutoff in display (gamma) space, [0, 1].
	threshold float32

	// softKnee is the width of the smooth transition around the threshold, [0, 1].
	softKnee float32

	// radius controls the blur spread and drives the pyramid depth, [1, 8].
	radius float32

	// intensity is the additive strength of the bloom contribution, [0, 2].
	intensity float32

	// maxIterations caps the pyramid depth regardless of resolution, [1, 20].
	maxIterations int

	// highQuality enables full-resolution working buffers and wide-tap filtering.
	highQuality bool

	// antiFlicker enables median filtering in the prefilter and luma-weighted
	// sampling in the first downsample.
	antiFlicker bool
}

// frameParams is the immutable parameter set for one frame. It is derived
// fresh from the configuration and the working resolution every frame and is
// never persisted, so no hidden state leaks between frames.
type frameParams struct {
	// iterations is the pyramid depth used this frame, in [1, maxIterations].
	iterations int

	// sampleScale corrects the upsample filter radius for non-power-of-two
	// mip alignment: 0.5 plus the fractional part of the pyramid log height.
	sampleScale float32

	// threshold is the luminance cutoff converted to linear space.
	threshold float32

	// curve holds the soft-knee coefficients (threshold-knee, 2*knee, 0.25/knee),
	// parameterizing a quadratic ramp of width 2*knee around the threshold.
	curve [3]float32

	// prefilterOffs is the half-texel alignment correction, -0.5 only when
	// running reduced-resolution with anti-flicker enabled.
	prefilterOffs float32

	// intensity is the additive composite strength.
	intensity float32
}

// deriveParams computes the per-frame parameter set from the configuration
// and the working buffer height. Tying the iteration count to log2 of the
// working height keeps the blur spread resolution-independent: a fixed depth
// would over-blur small images and under-blur large ones.
func deriveParams(cfg config, workingHeight int) frameParams {
	th := workingHeight
	if th < 1 {
		th = 1
	}

	logh := common.Log2(float32(th)) + cfg.radius - 8
	loghFloor := common.Floor(logh)

	lthresh := common.GammaToLinear(cfg.threshold)
	knee := lthresh*cfg.softKnee + kneeEpsilon

	var offs float32
	if !cfg.highQuality && cfg.antiFlicker {
		offs = -0.5
	}

	return frameParams{
		iterations:    common.ClampInt(int(loghFloor), 1, cfg.maxIterations),
		sampleScale:   0.5 + logh - loghFloor,
		threshold:     lthresh,
		curve:         [3]float32{lthresh - knee, knee * 2, 0.25 / knee},
		prefilterOffs: offs,
		intensity:     cfg.intensity,
	}
}
