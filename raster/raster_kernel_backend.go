package raster

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/transform"
	xdraw "golang.org/x/image/draw"

	"github.com/Carmen-Shannon/bloom-go/common"
	"github.com/Carmen-Shannon/bloom-go/effect/kernel"
	"github.com/Carmen-Shannon/bloom-go/effect/target"
)

// rasterKernel is the CPU implementation of the filter-kernel capability.
// Filtering matches the GPU shader variants: the same soft-knee prefilter,
// box downsample, luma-weighted anti-flicker downsample, and scaled-tap
// upsample run per pixel in normalized channel space.
type rasterKernel struct {
	workers     worker.DynamicWorkerPool
	workerCount int

	threshold     float32
	sampleScale   float32
	prefilterOffs float32
	intensity     float32
	curve         [3]float32

	base target.Target
}

var _ kernel.Kernel = &rasterKernel{}

func newRasterKernel(workers worker.DynamicWorkerPool, workerCount int) kernel.Kernel {
	return &rasterKernel{
		workers:     workers,
		workerCount: workerCount,
	}
}

func (k *rasterKernel) SetFloat(name string, value float32) {
	switch name {
	case kernel.ParamThreshold:
		k.threshold = value
	case kernel.ParamSampleScale:
		k.sampleScale = value
	case kernel.ParamPrefilterOffs:
		k.prefilterOffs = value
	case kernel.ParamIntensity:
		k.intensity = value
	}
}

func (k *rasterKernel) SetVec3(name string, value [3]float32) {
	if name == kernel.ParamCurve {
		k.curve = value
	}
}

func (k *rasterKernel) SetTexture(name string, t target.Target) {
	if name == kernel.ParamBaseTex {
		k.base = t
	}
}

func (k *rasterKernel) Run(src, dst target.Target, pass kernel.Pass) error {
	srcImg := imageOf(src)
	dstImg := imageOf(dst)
	if srcImg == nil || dstImg == nil {
		return errors.New("source or destination target was not created by this backend")
	}

	switch pass {
	case kernel.PassPrefilter:
		k.prefilter(srcImg, dstImg, false)
	case kernel.PassPrefilterAntiFlicker:
		k.prefilter(srcImg, dstImg, true)
	case kernel.PassDownsampleFirst, kernel.PassDownsample:
		k.downsample(srcImg, dstImg)
	case kernel.PassDownsampleFirstAntiFlicker:
		k.downsampleAntiFlicker(srcImg, dstImg)
	case kernel.PassCombineLQ:
		return k.combine(srcImg, dstImg, false, false)
	case kernel.PassCombineHQ:
		return k.combine(srcImg, dstImg, true, false)
	case kernel.PassCompositeLQ:
		return k.combine(srcImg, dstImg, false, true)
	case kernel.PassCompositeHQ:
		return k.combine(srcImg, dstImg, true, true)
	default:
		return fmt.Errorf("unknown pass %d", pass)
	}

	return nil
}

// prefilter suppresses below-threshold content while resampling the source
// onto the destination grid. The anti-flicker variant despeckles the source
// with a median filter first, so an isolated hot pixel cannot survive into
// the pyramid.
func (k *rasterKernel) prefilter(src, dst *image.RGBA, antiFlicker bool) {
	input := src
	if antiFlicker {
		input = effect.Median(src, 3)
	}

	dw, dh := dst.Bounds().Dx(), dst.Bounds().Dy()
	texelX := k.prefilterOffs / float32(input.Bounds().Dx())
	texelY := k.prefilterOffs / float32(input.Bounds().Dy())

	k.parallelRows(dh, func(y int) {
		v := (float32(y)+0.5)/float32(dh) + texelY
		for x := 0; x < dw; x++ {
			u := (float32(x)+0.5)/float32(dw) + texelX
			c := k.applyKnee(sampleBilinear(input, u, v))
			setPixel(dst, x, y, c, 1)
		}
	})
}

// downsample halves the source into the destination with a box-equivalent
// linear resample.
func (k *rasterKernel) downsample(src, dst *image.RGBA) {
	resized := transform.Resize(src, dst.Bounds().Dx(), dst.Bounds().Dy(), transform.Linear)
	copyPixels(dst, resized)
}

// downsampleAntiFlicker halves the source with a brightness-weighted 4-tap
// box so a single hot pixel cannot dominate the average.
func (k *rasterKernel) downsampleAntiFlicker(src, dst *image.RGBA) {
	dw, dh := dst.Bounds().Dx(), dst.Bounds().Dy()
	texelX := 1 / float32(src.Bounds().Dx())
	texelY := 1 / float32(src.Bounds().Dy())

	k.parallelRows(dh, func(y int) {
		v := (float32(y) + 0.5) / float32(dh)
		for x := 0; x < dw; x++ {
			u := (float32(x) + 0.5) / float32(dw)

			s1 := sampleBilinear(src, u-texelX, v-texelY)
			s2 := sampleBilinear(src, u+texelX, v-texelY)
			s3 := sampleBilinear(src, u-texelX, v+texelY)
			s4 := sampleBilinear(src, u+texelX, v+texelY)

			w1 := 1 / (brightness(s1) + 1)
			w2 := 1 / (brightness(s2) + 1)
			w3 := 1 / (brightness(s3) + 1)
			w4 := 1 / (brightness(s4) + 1)
			wsum := w1 + w2 + w3 + w4

			var c [3]float32
			for i := 0; i < 3; i++ {
				c[i] = (s1[i]*w1 + s2[i]*w2 + s3[i]*w3 + s4[i]*w4) / wsum
			}
			setPixel(dst, x, y, c, 1)
		}
	})
}

// combine upsamples the accumulator onto the destination grid and adds the
// staged base image. In the final composite the accumulator contribution is
// scaled by the intensity and the base alpha is preserved.
func (k *rasterKernel) combine(src, dst *image.RGBA, highQuality, final bool) error {
	base := imageOf(k.base)
	if base == nil {
		return errors.New("combine pass requires a staged base image")
	}
	dw, dh := dst.Bounds().Dx(), dst.Bounds().Dy()
	if base.Bounds().Dx() != dw || base.Bounds().Dy() != dh {
		return fmt.Errorf("base image is %dx%d, destination is %dx%d",
			base.Bounds().Dx(), base.Bounds().Dy(), dw, dh)
	}

	factor := float32(1)
	if final {
		factor = k.intensity
	}

	if highQuality {
		// Catmull-Rom resampling plays the role of the GPU tent filter: a
		// wide separable kernel that hides the block artifacts a plain
		// bilinear upsample would ring into the glow.
		up := image.NewRGBA(image.Rect(0, 0, dw, dh))
		xdraw.CatmullRom.Scale(up, up.Bounds(), src, src.Bounds(), xdraw.Src, nil)

		k.parallelRows(dh, func(y int) {
			for x := 0; x < dw; x++ {
				b := pixelAt(base, x, y)
				u := pixelAt(up, x, y)
				k.writeCombined(dst, x, y, b, [3]float32{u[0], u[1], u[2]}, factor, final)
			}
		})
		return nil
	}

	// 4-tap box upsample with the filter radius scaled to the pyramid's
	// fractional level.
	texelX := k.sampleScale * 0.5 / float32(src.Bounds().Dx())
	texelY := k.sampleScale * 0.5 / float32(src.Bounds().Dy())

	k.parallelRows(dh, func(y int) {
		v := (float32(y) + 0.5) / float32(dh)
		for x := 0; x < dw; x++ {
			u := (float32(x) + 0.5) / float32(dw)

			s1 := sampleBilinear(src, u-texelX, v-texelY)
			s2 := sampleBilinear(src, u+texelX, v-texelY)
			s3 := sampleBilinear(src, u-texelX, v+texelY)
			s4 := sampleBilinear(src, u+texelX, v+texelY)

			var blur [3]float32
			for i := 0; i < 3; i++ {
				blur[i] = (s1[i] + s2[i] + s3[i] + s4[i]) * 0.25
			}
			b := pixelAt(base, x, y)
			k.writeCombined(dst, x, y, b, blur, factor, final)
		}
	})
	return nil
}

func (k *rasterKernel) writeCombined(dst *image.RGBA, x, y int, base [4]float32, blur [3]float32, factor float32, final bool) {
	var c [3]float32
	for i := 0; i < 3; i++ {
		c[i] = base[i] + blur[i]*factor
	}
	alpha := float32(1)
	if final {
		alpha = base[3]
	}
	setPixel(dst, x, y, c, alpha)
}

// applyKnee is the quadratic soft-knee ramp around the threshold, matching
// the GPU prefilter.
func (k *rasterKernel) applyKnee(c [3]float32) [3]float32 {
	br := brightness(c)
	rq := common.Clamp(br-k.curve[0], 0, k.curve[1])
	rq = k.curve[2] * rq * rq
	gain := max(rq, br-k.threshold) / max(br, 1e-5)
	return [3]float32{c[0] * gain, c[1] * gain, c[2] * gain}
}

// parallelRows runs fn for every row index in [0, height), splitting the
// rows into contiguous bands across the worker pool. Small images run inline
// to avoid the scheduling overhead.
func (k *rasterKernel) parallelRows(height int, fn func(y int)) {
	bands := min(k.workerCount, height)
	if bands <= 1 || height < 64 {
		for y := 0; y < height; y++ {
			fn(y)
		}
		return
	}

	var wg sync.WaitGroup
	rowsPerBand := (height + bands - 1) / bands
	taskID := 0
	for start := 0; start < height; start += rowsPerBand {
		end := min(start+rowsPerBand, height)
		wg.Add(1)
		s, e := start, end
		k.workers.SubmitTask(worker.Task{
			ID: taskID,
			Do: func() (any, error) {
				defer wg.Done()
				for y := s; y < e; y++ {
					fn(y)
				}
				return nil, nil
			},
		})
		taskID++
	}
	wg.Wait()
}

func imageOf(t target.Target) *image.RGBA {
	it, ok := t.(*imageTarget)
	if !ok || it == nil {
		return nil
	}
	return it.img
}

func brightness(c [3]float32) float32 {
	return max(c[0], max(c[1], c[2]))
}

// pixelAt reads a pixel as normalized RGBA.
func pixelAt(img *image.RGBA, x, y int) [4]float32 {
	i := img.PixOffset(img.Bounds().Min.X+x, img.Bounds().Min.Y+y)
	return [4]float32{
		float32(img.Pix[i]) / 255,
		float32(img.Pix[i+1]) / 255,
		float32(img.Pix[i+2]) / 255,
		float32(img.Pix[i+3]) / 255,
	}
}

// setPixel writes a normalized color, clamping each channel to [0, 1].
func setPixel(img *image.RGBA, x, y int, c [3]float32, a float32) {
	i := img.PixOffset(img.Bounds().Min.X+x, img.Bounds().Min.Y+y)
	img.Pix[i] = uint8(common.Clamp(c[0], 0, 1)*255 + 0.5)
	img.Pix[i+1] = uint8(common.Clamp(c[1], 0, 1)*255 + 0.5)
	img.Pix[i+2] = uint8(common.Clamp(c[2], 0, 1)*255 + 0.5)
	img.Pix[i+3] = uint8(common.Clamp(a, 0, 1)*255 + 0.5)
}

// sampleBilinear samples the image at normalized coordinates with bilinear
// filtering and clamp-to-edge addressing, matching the GPU sampler.
func sampleBilinear(img *image.RGBA, u, v float32) [3]float32 {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()

	px := u*float32(w) - 0.5
	py := v*float32(h) - 0.5

	x0 := int(common.Floor(px))
	y0 := int(common.Floor(py))
	fx := px - float32(x0)
	fy := py - float32(y0)

	x1 := common.ClampInt(x0+1, 0, w-1)
	y1 := common.ClampInt(y0+1, 0, h-1)
	x0 = common.ClampInt(x0, 0, w-1)
	y0 = common.ClampInt(y0, 0, h-1)

	c00 := pixelAt(img, x0, y0)
	c10 := pixelAt(img, x1, y0)
	c01 := pixelAt(img, x0, y1)
	c11 := pixelAt(img, x1, y1)

	var out [3]float32
	for i := 0; i < 3; i++ {
		top := common.Lerp(c00[i], c10[i], fx)
		bot := common.Lerp(c01[i], c11[i], fx)
		out[i] = common.Lerp(top, bot, fy)
	}
	return out
}

// copyPixels copies src into dst; the two must share dimensions.
func copyPixels(dst, src *image.RGBA) {
	if dst.Stride == src.Stride && len(dst.Pix) == len(src.Pix) {
		copy(dst.Pix, src.Pix)
		return
	}
	h := dst.Bounds().Dy()
	rowLen := dst.Bounds().Dx() * 4
	for y := 0; y < h; y++ {
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+rowLen], src.Pix[y*src.Stride:y*src.Stride+rowLen])
	}
}
