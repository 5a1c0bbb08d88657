package bloom

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Carmen-Shannon/bloom-go/effect/kernel"
	"github.com/Carmen-Shannon/bloom-go/effect/target"
)

// fakeTarget is a pool-issued buffer that records its release.
type fakeTarget struct {
	width    int
	height   int
	format   target.Format
	pool     *fakePool
	released bool
}

var _ target.Target = &fakeTarget{}

func (t *fakeTarget) Width() int            { return t.width }
func (t *fakeTarget) Height() int           { return t.height }
func (t *fakeTarget) Format() target.Format { return t.format }

func (t *fakeTarget) Release() {
	if t.released {
		if t.pool != nil {
			t.pool.doubleReleases++
		}
		return
	}
	t.released = true
	if t.pool != nil {
		t.pool.outstanding--
	}
}

// fakePool tracks outstanding buffers and can fail after a set number of
// allocations.
type fakePool struct {
	outstanding    int
	totalIssued    int
	doubleReleases int

	// failAt makes the nth call to Get fail, counting from 1; zero means
	// never fail.
	failAt int
}

var _ target.Pool = &fakePool{}

func (p *fakePool) Get(width, height int, format target.Format) (target.Target, error) {
	if p.failAt > 0 && p.totalIssued+1 == p.failAt {
		return nil, errors.New("pool exhausted")
	}
	p.totalIssued++
	p.outstanding++
	return &fakeTarget{width: width, height: height, format: format, pool: p}, nil
}

// fakePlatform reports a fixed format constraint.
type fakePlatform struct {
	constrained bool
}

var _ target.Platform = &fakePlatform{}

func (p *fakePlatform) Constrained() bool { return p.constrained }

// passRecord captures one kernel dispatch.
type passRecord struct {
	pass      kernel.Pass
	srcWidth  int
	srcHeight int
	dstWidth  int
	dstHeight int
	baseSet   bool
}

// fakeKernel records staged parameters and dispatched passes.
type fakeKernel struct {
	floats   map[string]float32
	vecs     map[string][3]float32
	base     target.Target
	passes   []passRecord
	dstSeen  []target.Target
	failPass int // fail on the nth Run call (1-based); zero means never
}

var _ kernel.Kernel = &fakeKernel{}

func newFakeKernel() *fakeKernel {
	return &fakeKernel{
		floats: make(map[string]float32),
		vecs:   make(map[string][3]float32),
	}
}

func (k *fakeKernel) SetFloat(name string, v float32)   { k.floats[name] = v }
func (k *fakeKernel) SetVec3(name string, v [3]float32) { k.vecs[name] = v }

func (k *fakeKernel) SetTexture(name string, t target.Target) {
	if name == kernel.ParamBaseTex {
		k.base = t
	}
}

func (k *fakeKernel) Run(src, dst target.Target, pass kernel.Pass) error {
	if k.failPass > 0 && len(k.passes)+1 == k.failPass {
		return errors.New("dispatch failed")
	}
	k.passes = append(k.passes, passRecord{
		pass:      pass,
		srcWidth:  src.Width(),
		srcHeight: src.Height(),
		dstWidth:  dst.Width(),
		dstHeight: dst.Height(),
		baseSet:   k.base != nil,
	})
	k.dstSeen = append(k.dstSeen, dst)
	return nil
}

// fakeProvider hands out a single kernel and counts the handshake.
type fakeProvider struct {
	kernel   *fakeKernel
	acquired int
	released int
	fail     bool
}

var _ kernel.Provider = &fakeProvider{}

func (p *fakeProvider) Acquire() (kernel.Kernel, error) {
	if p.fail {
		return nil, errors.New("no kernel capability")
	}
	p.acquired++
	return p.kernel, nil
}

func (p *fakeProvider) Release(kernel.Kernel) { p.released++ }

type harness struct {
	effect   Bloom
	kernel   *fakeKernel
	pool     *fakePool
	provider *fakeProvider
}

func newHarness(t *testing.T, options ...BloomBuilderOption) *harness {
	t.Helper()
	k := newFakeKernel()
	prov := &fakeProvider{kernel: k}
	pool := &fakePool{}
	h := &harness{
		effect:   NewBloom(prov, pool, &fakePlatform{}, options...),
		kernel:   k,
		pool:     pool,
		provider: prov,
	}
	if err := h.effect.Activate(); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	return h
}

func hostTarget(w, h int) *fakeTarget {
	return &fakeTarget{width: w, height: h, format: target.FormatRGBA16Float}
}

// TestProcessFrameNotActivated verifies ProcessFrame refuses to run without
// an acquired kernel and dispatches nothing.
func TestProcessFrameNotActivated(t *testing.T) {
	k := newFakeKernel()
	b := NewBloom(&fakeProvider{kernel: k}, &fakePool{}, &fakePlatform{})

	err := b.ProcessFrame(hostTarget(256, 256), hostTarget(256, 256))
	if !errors.Is(err, ErrNotActivated) {
		t.Errorf("ProcessFrame() error = %v, want ErrNotActivated", err)
	}
	if len(k.passes) != 0 {
		t.Errorf("dispatched %d passes before activation, want 0", len(k.passes))
	}
}

// TestActivateFailure verifies a failed kernel acquisition surfaces as an
// error and leaves the effect inactive.
func TestActivateFailure(t *testing.T) {
	b := NewBloom(&fakeProvider{fail: true}, &fakePool{}, &fakePlatform{})
	if err := b.Activate(); err == nil {
		t.Fatal("Activate() error = nil, want error")
	}
	if err := b.ProcessFrame(hostTarget(64, 64), hostTarget(64, 64)); !errors.Is(err, ErrNotActivated) {
		t.Errorf("ProcessFrame() error = %v, want ErrNotActivated", err)
	}
}

// TestDeactivateReleasesKernel verifies the Activate/Deactivate handshake
// with the provider, including idempotent Deactivate.
func TestDeactivateReleasesKernel(t *testing.T) {
	h := newHarness(t)
	h.effect.Deactivate()
	h.effect.Deactivate()

	if h.provider.acquired != 1 {
		t.Errorf("acquired = %d, want 1", h.provider.acquired)
	}
	if h.provider.released != 1 {
		t.Errorf("released = %d, want 1", h.provider.released)
	}
}

// TestProcessFrameBufferAccounting verifies the allocation count and that
// every temporary is returned to the pool, across the full iteration range.
func TestProcessFrameBufferAccounting(t *testing.T) {
	// Heights chosen to hit iteration counts from 1 up to the default cap.
	for _, height := range []int{32, 128, 512, 2048, 8192} {
		t.Run(fmt.Sprintf("height %d", height), func(t *testing.T) {
			h := newHarness(t)
			src := hostTarget(height, height)
			dst := hostTarget(height, height)

			if err := h.effect.ProcessFrame(src, dst); err != nil {
				t.Fatalf("ProcessFrame() error = %v", err)
			}

			iterations := deriveParams(defaultTestConfig(), height).iterations
			want := 1 + iterations + (iterations - 1)
			if h.pool.totalIssued != want {
				t.Errorf("issued %d temporaries, want %d (iterations=%d)", h.pool.totalIssued, want, iterations)
			}
			if h.pool.outstanding != 0 {
				t.Errorf("%d temporaries still outstanding after frame", h.pool.outstanding)
			}
			if h.pool.doubleReleases != 0 {
				t.Errorf("%d double releases", h.pool.doubleReleases)
			}
			if src.released || dst.released {
				t.Error("host-owned source or destination was released")
			}
		})
	}
}

// TestProcessFramePassSequence verifies the dispatched pass order for a
// known pyramid depth: prefilter, downsamples, combines, composite.
func TestProcessFramePassSequence(t *testing.T) {
	h := newHarness(t)
	// 1024-high working buffer at radius 2.5 yields 4 iterations.
	if err := h.effect.ProcessFrame(hostTarget(1024, 1024), hostTarget(1024, 1024)); err != nil {
		t.Fatalf("ProcessFrame() error = %v", err)
	}

	want := []kernel.Pass{
		kernel.PassPrefilter,
		kernel.PassDownsampleFirst,
		kernel.PassDownsample,
		kernel.PassDownsample,
		kernel.PassDownsample,
		kernel.PassCombineHQ,
		kernel.PassCombineHQ,
		kernel.PassCombineHQ,
		kernel.PassCompositeHQ,
	}
	if len(h.kernel.passes) != len(want) {
		t.Fatalf("dispatched %d passes, want %d", len(h.kernel.passes), len(want))
	}
	for i, rec := range h.kernel.passes {
		if rec.pass != want[i] {
			t.Errorf("pass %d = %v, want %v", i, rec.pass, want[i])
		}
	}
}

// TestProcessFrameAntiFlickerVariants verifies the anti-flicker flag selects
// the median prefilter and luma-weighted first downsample.
func TestProcessFrameAntiFlickerVariants(t *testing.T) {
	h := newHarness(t, WithAntiFlicker(true))
	if err := h.effect.ProcessFrame(hostTarget(512, 512), hostTarget(512, 512)); err != nil {
		t.Fatalf("ProcessFrame() error = %v", err)
	}

	if h.kernel.passes[0].pass != kernel.PassPrefilterAntiFlicker {
		t.Errorf("first pass = %v, want %v", h.kernel.passes[0].pass, kernel.PassPrefilterAntiFlicker)
	}
	if h.kernel.passes[1].pass != kernel.PassDownsampleFirstAntiFlicker {
		t.Errorf("second pass = %v, want %v", h.kernel.passes[1].pass, kernel.PassDownsampleFirstAntiFlicker)
	}
	for i, rec := range h.kernel.passes[2:] {
		if rec.pass == kernel.PassDownsampleFirstAntiFlicker {
			t.Errorf("pass %d reused the first-downsample variant", i+2)
		}
	}
}

// TestProcessFrameLowQualityVariants verifies reduced-resolution mode halves
// the working size and selects the narrow-tap combine and composite.
func TestProcessFrameLowQualityVariants(t *testing.T) {
	h := newHarness(t, WithHighQuality(false))
	if err := h.effect.ProcessFrame(hostTarget(1024, 1024), hostTarget(1024, 1024)); err != nil {
		t.Fatalf("ProcessFrame() error = %v", err)
	}

	first := h.kernel.passes[0]
	if first.dstWidth != 512 || first.dstHeight != 512 {
		t.Errorf("prefilter target = %dx%d, want 512x512", first.dstWidth, first.dstHeight)
	}
	last := h.kernel.passes[len(h.kernel.passes)-1]
	if last.pass != kernel.PassCompositeLQ {
		t.Errorf("final pass = %v, want %v", last.pass, kernel.PassCompositeLQ)
	}
	for _, rec := range h.kernel.passes {
		if rec.pass == kernel.PassCombineHQ || rec.pass == kernel.PassCompositeHQ {
			t.Errorf("high-quality pass %v dispatched in low-quality mode", rec.pass)
		}
	}
}

// TestProcessFrameHalvingDimensions verifies each downsample level halves
// the previous one.
func TestProcessFrameHalvingDimensions(t *testing.T) {
	h := newHarness(t)
	if err := h.effect.ProcessFrame(hostTarget(1024, 768), hostTarget(1024, 768)); err != nil {
		t.Fatalf("ProcessFrame() error = %v", err)
	}

	prevW, prevH := 1024, 768
	for i, rec := range h.kernel.passes {
		switch rec.pass {
		case kernel.PassDownsampleFirst, kernel.PassDownsample:
			if rec.dstWidth != prevW/2 || rec.dstHeight != prevH/2 {
				t.Errorf("downsample pass %d target = %dx%d, want %dx%d", i, rec.dstWidth, rec.dstHeight, prevW/2, prevH/2)
			}
			prevW, prevH = rec.dstWidth, rec.dstHeight
		}
	}
}

// TestProcessFrameSingleIteration verifies the degenerate one-level pyramid
// skips the combine chain entirely.
func TestProcessFrameSingleIteration(t *testing.T) {
	h := newHarness(t)
	if err := h.effect.ProcessFrame(hostTarget(64, 64), hostTarget(64, 64)); err != nil {
		t.Fatalf("ProcessFrame() error = %v", err)
	}

	want := []kernel.Pass{kernel.PassPrefilter, kernel.PassDownsampleFirst, kernel.PassCompositeHQ}
	if len(h.kernel.passes) != len(want) {
		t.Fatalf("dispatched %d passes, want %d", len(h.kernel.passes), len(want))
	}
	for i, rec := range h.kernel.passes {
		if rec.pass != want[i] {
			t.Errorf("pass %d = %v, want %v", i, rec.pass, want[i])
		}
	}
	if h.pool.totalIssued != 2 {
		t.Errorf("issued %d temporaries, want 2", h.pool.totalIssued)
	}
}

// TestProcessFrameWritesDestinationOnce verifies the destination is the
// target of exactly the final dispatch with the source bound as the base.
func TestProcessFrameWritesDestinationOnce(t *testing.T) {
	h := newHarness(t)
	src := hostTarget(512, 512)
	dst := hostTarget(512, 512)
	if err := h.effect.ProcessFrame(src, dst); err != nil {
		t.Fatalf("ProcessFrame() error = %v", err)
	}

	writes := 0
	for i, seen := range h.kernel.dstSeen {
		if seen == target.Target(dst) {
			writes++
			if i != len(h.kernel.dstSeen)-1 {
				t.Errorf("destination written at pass %d, want only the final pass", i)
			}
		}
	}
	if writes != 1 {
		t.Errorf("destination written %d times, want 1", writes)
	}
	if h.kernel.base != nil {
		t.Error("base texture binding not cleared after the frame")
	}
}

// TestProcessFrameAllocationFailure verifies a mid-frame pool failure aborts
// the frame, releases everything acquired so far, and never touches dst.
func TestProcessFrameAllocationFailure(t *testing.T) {
	// With a 1024-high source the frame wants 8 buffers (prefilter, four
	// downsample levels, three combine levels); fail each one in turn.
	for failAt := 1; failAt <= 8; failAt++ {
		t.Run(fmt.Sprintf("fail allocation %d", failAt), func(t *testing.T) {
			h := newHarness(t)
			h.pool.failAt = failAt
			dst := hostTarget(1024, 1024)

			err := h.effect.ProcessFrame(hostTarget(1024, 1024), dst)
			if err == nil {
				t.Fatal("ProcessFrame() error = nil, want allocation failure")
			}
			if h.pool.outstanding != 0 {
				t.Errorf("%d temporaries still outstanding after failed frame", h.pool.outstanding)
			}
			for _, seen := range h.kernel.dstSeen {
				if seen == target.Target(dst) {
					t.Error("destination written during a failed frame")
				}
			}
		})
	}
}

// TestProcessFrameDispatchFailure verifies a failed pass aborts the frame
// without leaking temporaries.
func TestProcessFrameDispatchFailure(t *testing.T) {
	for failAt := 1; failAt <= 9; failAt++ {
		t.Run(fmt.Sprintf("fail pass %d", failAt), func(t *testing.T) {
			h := newHarness(t)
			h.kernel.failPass = failAt

			err := h.effect.ProcessFrame(hostTarget(1024, 1024), hostTarget(1024, 1024))
			if err == nil {
				t.Fatal("ProcessFrame() error = nil, want dispatch failure")
			}
			if h.pool.outstanding != 0 {
				t.Errorf("%d temporaries still outstanding after failed frame", h.pool.outstanding)
			}
		})
	}
}

// TestProcessFrameConstrainedFormat verifies constrained platforms allocate
// 8-bit temporaries.
func TestProcessFrameConstrainedFormat(t *testing.T) {
	k := newFakeKernel()
	pool := &fakePool{}
	b := NewBloom(&fakeProvider{kernel: k}, pool, &fakePlatform{constrained: true})
	if err := b.Activate(); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	if err := b.ProcessFrame(hostTarget(256, 256), hostTarget(256, 256)); err != nil {
		t.Fatalf("ProcessFrame() error = %v", err)
	}
	for i, seen := range k.dstSeen[:len(k.dstSeen)-1] {
		if seen.Format() != target.FormatRGBA8Unorm {
			t.Errorf("temporary %d format = %v, want %v", i, seen.Format(), target.FormatRGBA8Unorm)
		}
	}
}

// TestProcessFrameStagesParameters verifies the derived parameter set is
// staged on the kernel before dispatch.
func TestProcessFrameStagesParameters(t *testing.T) {
	h := newHarness(t, WithThreshold(0.6), WithIntensity(1.5))
	if err := h.effect.ProcessFrame(hostTarget(1024, 1024), hostTarget(1024, 1024)); err != nil {
		t.Fatalf("ProcessFrame() error = %v", err)
	}

	cfg := defaultTestConfig()
	cfg.threshold = 0.6
	cfg.intensity = 1.5
	p := deriveParams(cfg, 1024)

	if got := h.kernel.floats[kernel.ParamThreshold]; got != p.threshold {
		t.Errorf("staged threshold = %v, want %v", got, p.threshold)
	}
	if got := h.kernel.floats[kernel.ParamSampleScale]; got != p.sampleScale {
		t.Errorf("staged sample scale = %v, want %v", got, p.sampleScale)
	}
	if got := h.kernel.floats[kernel.ParamIntensity]; got != p.intensity {
		t.Errorf("staged intensity = %v, want %v", got, p.intensity)
	}
	if got := h.kernel.vecs[kernel.ParamCurve]; got != p.curve {
		t.Errorf("staged curve = %v, want %v", got, p.curve)
	}
}

// TestSetterClamping verifies configuration setters clamp to their
// documented ranges.
func TestSetterClamping(t *testing.T) {
	h := newHarness(t)
	b := h.effect

	b.SetThreshold(1.5)
	if b.Threshold() != 1 {
		t.Errorf("Threshold() = %v, want 1", b.Threshold())
	}
	b.SetThreshold(-1)
	if b.Threshold() != 0 {
		t.Errorf("Threshold() = %v, want 0", b.Threshold())
	}
	b.SetSoftKnee(2)
	if b.SoftKnee() != 1 {
		t.Errorf("SoftKnee() = %v, want 1", b.SoftKnee())
	}
	b.SetRadius(0)
	if b.Radius() != 1 {
		t.Errorf("Radius() = %v, want 1", b.Radius())
	}
	b.SetRadius(10)
	if b.Radius() != 8 {
		t.Errorf("Radius() = %v, want 8", b.Radius())
	}
	b.SetIntensity(5)
	if b.Intensity() != 2 {
		t.Errorf("Intensity() = %v, want 2", b.Intensity())
	}
	b.SetMaxIterations(0)
	if b.MaxIterations() != 1 {
		t.Errorf("MaxIterations() = %v, want 1", b.MaxIterations())
	}
	b.SetMaxIterations(99)
	if b.MaxIterations() != 20 {
		t.Errorf("MaxIterations() = %v, want 20", b.MaxIterations())
	}
}

// TestNewBloomDefaults verifies the default configuration.
func TestNewBloomDefaults(t *testing.T) {
	b := NewBloom(&fakeProvider{kernel: newFakeKernel()}, &fakePool{}, &fakePlatform{})
	if b.Threshold() != 0.8 {
		t.Errorf("Threshold() = %v, want 0.8", b.Threshold())
	}
	if b.SoftKnee() != 0.5 {
		t.Errorf("SoftKnee() = %v, want 0.5", b.SoftKnee())
	}
	if b.Radius() != 2.5 {
		t.Errorf("Radius() = %v, want 2.5", b.Radius())
	}
	if b.Intensity() != 0.8 {
		t.Errorf("Intensity() = %v, want 0.8", b.Intensity())
	}
	if b.MaxIterations() != 16 {
		t.Errorf("MaxIterations() = %v, want 16", b.MaxIterations())
	}
	if !b.HighQuality() {
		t.Error("HighQuality() = false, want true")
	}
	if b.AntiFlicker() {
		t.Error("AntiFlicker() = true, want false")
	}
}
