// Package bloom implements a physically-motivated bloom post-process: bright
// regions of a source image are extracted with a soft-knee threshold, blurred
// at multiple spatial scales through a mip pyramid of progressively
// downsampled buffers, and composited additively back onto the original.
//
// The pipeline runs strictly sequentially within one ProcessFrame call and
// holds no state between frames beyond the acquired filter kernel: every
// temporary buffer is borrowed from the target pool and released before
// ProcessFrame returns, on every exit path.
package bloom

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/bloom-go/effect/kernel"
	"github.com/Carmen-Shannon/bloom-go/effect/metrics"
	"github.com/Carmen-Shannon/bloom-go/effect/target"
)

// ErrNotActivated is returned by ProcessFrame when the effect has not been
// activated (or has been deactivated) and therefore holds no filter kernel.
var ErrNotActivated = errors.New("bloom: effect not activated")

// bloomEffect is the implementation of the Bloom interface.
type bloomEffect struct {
	kernels  kernel.Provider
	targets  target.Pool
	platform target.Platform
	rec      *metrics.Recorder

	cfg config

	// filter is the shared kernel capability, held from Activate to Deactivate.
	filter kernel.Kernel
}

// Bloom is the bloom post-process effect. The host activates it once, calls
// ProcessFrame from its per-frame render callback, and deactivates it when
// the effect is disabled. Configuration setters may be called between frames;
// they clamp to the documented ranges and take effect on the next frame.
type Bloom interface {
	// Activate acquires the filter-kernel capability. A failed Activate is
	// fatal to the effect: the host must not call ProcessFrame.
	//
	// Returns:
	//   - error: an error if the kernel capability is unavailable
	Activate() error

	// Deactivate releases the filter-kernel capability. Safe to call when
	// not activated.
	Deactivate()

	// ProcessFrame runs the full pipeline once: prefilter, downsample chain,
	// upsample/combine chain, final composite into dst. The destination is
	// written exactly once, as the final step; on error it is left untouched.
	// All temporary buffers acquired during the frame are released before
	// ProcessFrame returns.
	//
	// Parameters:
	//   - src: the source color image (host-owned, never released here)
	//   - dst: the destination image (host-owned, written once)
	//
	// Returns:
	//   - error: ErrNotActivated, or an error if a pass or allocation failed
	ProcessFrame(src, dst target.Target) error

	// Threshold returns the luminance cutoff in display (gamma) space.
	//
	// Returns:
	//   - float32: the threshold in [0, 1]
	Threshold() float32

	// SetThreshold sets the luminance cutoff in display (gamma) space,
	// clamped to [0, 1].
	//
	// Parameters:
	//   - v: the new threshold
	SetThreshold(v float32)

	// SoftKnee returns the soft-knee transition width.
	//
	// Returns:
	//   - float32: the soft knee in [0, 1]
	SoftKnee() float32

	// SetSoftKnee sets the soft-knee transition width, clamped to [0, 1].
	//
	// Parameters:
	//   - v: the new soft knee
	SetSoftKnee(v float32)

	// Radius returns the blur spread radius.
	//
	// Returns:
	//   - float32: the radius in [1, 8]
	Radius() float32

	// SetRadius sets the blur spread radius, clamped to [1, 8].
	//
	// Parameters:
	//   - v: the new radius
	SetRadius(v float32)

	// Intensity returns the additive bloom strength.
	//
	// Returns:
	//   - float32: the intensity in [0, 2]
	Intensity() float32

	// SetIntensity sets the additive bloom strength, clamped to [0, 2].
	//
	// Parameters:
	//   - v: the new intensity
	SetIntensity(v float32)

	// MaxIterations returns the pyramid depth cap.
	//
	// Returns:
	//   - int: the maximum iteration count in [1, 20]
	MaxIterations() int

	// SetMaxIterations sets the pyramid depth cap, clamped to [1, 20].
	//
	// Parameters:
	//   - n: the new maximum iteration count
	SetMaxIterations(n int)

	// HighQuality returns whether full-resolution buffers and wide-tap
	// filtering are enabled.
	//
	// Returns:
	//   - bool: true in high-quality mode
	HighQuality() bool

	// SetHighQuality toggles full-resolution working buffers and wide-tap
	// combine filtering.
	//
	// Parameters:
	//   - on: the new high-quality flag
	SetHighQuality(on bool)

	// AntiFlicker returns whether anti-flicker filtering is enabled.
	//
	// Returns:
	//   - bool: true when anti-flicker filtering is enabled
	AntiFlicker() bool

	// SetAntiFlicker toggles the anti-flicker median/luma-weighted filtering
	// in the prefilter and first downsample.
	//
	// Parameters:
	//   - on: the new anti-flicker flag
	SetAntiFlicker(on bool)
}

var _ Bloom = &bloomEffect{}

// NewBloom creates a Bloom effect bound to the given collaborators.
//
// Parameters:
//   - kernels: the filter-kernel provider (acquired at Activate)
//   - targets: the temporary render-target pool
//   - platform: the platform capability probe selecting the buffer format
//   - options: functional options overriding the default configuration
//
// Returns:
//   - Bloom: the configured effect (not yet activated)
func NewBloom(kernels kernel.Provider, targets target.Pool, platform target.Platform, options ...BloomBuilderOption) Bloom {
	if kernels == nil || targets == nil || platform == nil {
		panic("bloom: kernel provider, target pool, and platform probe are required")
	}
	b := &bloomEffect{
		kernels:  kernels,
		targets:  targets,
		platform: platform,
		cfg: config{
			threshold:     0.8,
			softKnee:      0.5,
			radius:        2.5,
			intensity:     0.8,
			maxIterations: 16,
			highQuality:   true,
		},
	}
	for _, opt := range options {
		opt(b)
	}
	return b
}

func (b *bloomEffect) Activate() error {
	if b.filter != nil {
		return nil
	}
	k, err := b.kernels.Acquire()
	if err != nil {
		return fmt.Errorf("bloom: acquire filter kernel: %w", err)
	}
	b.filter = k
	return nil
}

func (b *bloomEffect) Deactivate() {
	if b.filter == nil {
		return
	}
	b.kernels.Release(b.filter)
	b.filter = nil
}

func (b *bloomEffect) ProcessFrame(src, dst target.Target) (err error) {
	if b.filter == nil {
		return ErrNotActivated
	}
	if src == nil || dst == nil {
		return errors.New("bloom: source and destination images must be non-nil")
	}

	// Working resolution: full size in high-quality mode, halved otherwise.
	tw, th := src.Width(), src.Height()
	if !b.cfg.highQuality {
		tw /= 2
		th /= 2
	}
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}

	format := target.FormatRGBA16Float
	if b.platform.Constrained() {
		format = target.FormatRGBA8Unorm
	}

	p := deriveParams(b.cfg, th)
	b.rec.FrameStart(tw, th, p.iterations)

	// Every temporary acquired this frame is tracked here and handed back in
	// one place, so all exit paths release exactly what was allocated.
	var acquired []target.Target
	defer func() {
		for _, tmp := range acquired {
			tmp.Release()
		}
		if err != nil {
			b.rec.FrameError(err, len(acquired))
			return
		}
		b.rec.FrameEnd(len(acquired), len(acquired))
	}()

	grab := func(w, h int) (target.Target, error) {
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		tmp, grabErr := b.targets.Get(w, h, format)
		if grabErr != nil {
			return nil, grabErr
		}
		acquired = append(acquired, tmp)
		return tmp, nil
	}

	run := func(passSrc, passDst target.Target, pass kernel.Pass) error {
		b.rec.PassStart()
		if runErr := b.filter.Run(passSrc, passDst, pass); runErr != nil {
			return fmt.Errorf("bloom: %v pass: %w", pass, runErr)
		}
		b.rec.PassEnd(pass, passDst.Width(), passDst.Height())
		return nil
	}

	// Stage this frame's parameter set on the kernel. Values are derived
	// fresh each frame; nothing carries over from the previous one.
	b.filter.SetFloat(kernel.ParamThreshold, p.threshold)
	b.filter.SetVec3(kernel.ParamCurve, p.curve)
	b.filter.SetFloat(kernel.ParamPrefilterOffs, p.prefilterOffs)
	b.filter.SetFloat(kernel.ParamSampleScale, p.sampleScale)
	b.filter.SetFloat(kernel.ParamIntensity, p.intensity)

	// Prefilter: suppress below-threshold content into the working buffer.
	prefiltered, err := grab(tw, th)
	if err != nil {
		return fmt.Errorf("bloom: allocate prefilter buffer: %w", err)
	}
	if err = run(src, prefiltered, kernel.PrefilterPass(b.cfg.antiFlicker)); err != nil {
		return err
	}

	// Downsample chain: each level halves the previous stage.
	down := make([]target.Target, 0, p.iterations)
	last := prefiltered
	for level := 0; level < p.iterations; level++ {
		var buf target.Target
		buf, err = grab(last.Width()/2, last.Height()/2)
		if err != nil {
			return fmt.Errorf("bloom: allocate downsample buffer %d: %w", level, err)
		}
		if err = run(last, buf, kernel.DownsamplePass(level == 0, b.cfg.antiFlicker)); err != nil {
			return err
		}
		down = append(down, buf)
		last = buf
	}

	// Upsample/combine chain: walk back up the pyramid, blending each finer
	// downsample level into the accumulator. The deepest level has no finer
	// sibling and is skipped; with a single iteration the chain is empty.
	for level := p.iterations - 2; level >= 0; level-- {
		base := down[level]
		var buf target.Target
		buf, err = grab(base.Width(), base.Height())
		if err != nil {
			return fmt.Errorf("bloom: allocate combine buffer %d: %w", level, err)
		}
		b.filter.SetTexture(kernel.ParamBaseTex, base)
		if err = run(last, buf, kernel.CombinePass(b.cfg.highQuality)); err != nil {
			return err
		}
		last = buf
	}

	// Final composite: blend the accumulated blur onto the original source
	// (not the prefiltered image), writing the destination exactly once.
	b.filter.SetTexture(kernel.ParamBaseTex, src)
	if err = run(last, dst, kernel.CompositePass(b.cfg.highQuality)); err != nil {
		return err
	}

	// Clear the base binding so the kernel holds no reference to a buffer
	// that is about to be released.
	b.filter.SetTexture(kernel.ParamBaseTex, nil)

	return nil
}
