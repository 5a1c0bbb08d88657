package renderer

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/bloom-go/effect/target"
)

// textureBinding is the backend-internal view of a render target. Every
// target type produced by this package satisfies it; the kernel uses it to
// bind targets as shader inputs and render attachments.
type textureBinding interface {
	textureView() *wgpu.TextureView
	textureFormat() wgpu.TextureFormat
}

// wgpuFormat maps a pipeline target format onto the WGPU texture format.
func wgpuFormat(f target.Format) wgpu.TextureFormat {
	if f == target.FormatRGBA16Float {
		return wgpu.TextureFormatRGBA16Float
	}
	return wgpu.TextureFormatRGBA8Unorm
}

// pooledTexture is a temporary render target borrowed from a texturePool.
// Release hands it back to the pool's reuse bucket rather than destroying it.
type pooledTexture struct {
	tex    *wgpu.Texture
	view   *wgpu.TextureView
	width  int
	height int
	format target.Format
	pool   *texturePool
}

var _ target.Target = &pooledTexture{}
var _ textureBinding = &pooledTexture{}

func (t *pooledTexture) Width() int                       { return t.width }
func (t *pooledTexture) Height() int                      { return t.height }
func (t *pooledTexture) Format() target.Format            { return t.format }
func (t *pooledTexture) Release()                         { t.pool.put(t) }
func (t *pooledTexture) textureView() *wgpu.TextureView   { return t.view }
func (t *pooledTexture) textureFormat() wgpu.TextureFormat { return wgpuFormat(t.format) }

// sourceTexture is a host-owned sampleable texture uploaded from CPU pixels.
// The pipeline never releases it; the owner destroys it through the renderer.
type sourceTexture struct {
	tex    *wgpu.Texture
	view   *wgpu.TextureView
	width  int
	height int
}

var _ target.Target = &sourceTexture{}
var _ textureBinding = &sourceTexture{}

func (t *sourceTexture) Width() int                       { return t.width }
func (t *sourceTexture) Height() int                      { return t.height }
func (t *sourceTexture) Format() target.Format            { return target.FormatRGBA8Unorm }
func (t *sourceTexture) Release()                         {}
func (t *sourceTexture) textureView() *wgpu.TextureView   { return t.view }
func (t *sourceTexture) textureFormat() wgpu.TextureFormat { return wgpu.TextureFormatRGBA8UnormSrgb }

// surfaceTarget wraps the acquired swapchain texture for the duration of one
// frame. The renderer owns the underlying texture and view; Present releases
// them, so Release here is a no-op.
type surfaceTarget struct {
	view   *wgpu.TextureView
	format wgpu.TextureFormat
	width  int
	height int
}

var _ target.Target = &surfaceTarget{}
var _ textureBinding = &surfaceTarget{}

func (t *surfaceTarget) Width() int                       { return t.width }
func (t *surfaceTarget) Height() int                      { return t.height }
func (t *surfaceTarget) Format() target.Format            { return target.FormatRGBA8Unorm }
func (t *surfaceTarget) Release()                         {}
func (t *surfaceTarget) textureView() *wgpu.TextureView   { return t.view }
func (t *surfaceTarget) textureFormat() wgpu.TextureFormat { return t.format }

// poolKey buckets reusable textures by their exact dimensions and format.
type poolKey struct {
	width  int
	height int
	format target.Format
}

// texturePool hands out frame-scoped render targets, reusing released
// textures of matching dimensions instead of reallocating every frame. The
// mip pyramid requests the same handful of sizes each frame, so after the
// first frame the pool serves entirely from its buckets.
type texturePool struct {
	mu      sync.Mutex
	device  *wgpu.Device
	buckets map[poolKey][]*pooledTexture
}

func newTexturePool(device *wgpu.Device) *texturePool {
	return &texturePool{
		device:  device,
		buckets: make(map[poolKey][]*pooledTexture),
	}
}

func (p *texturePool) get(width, height int, format target.Format) (target.Target, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("invalid render target size %dx%d", width, height)
	}

	key := poolKey{width: width, height: height, format: format}

	p.mu.Lock()
	if bucket := p.buckets[key]; len(bucket) > 0 {
		t := bucket[len(bucket)-1]
		p.buckets[key] = bucket[:len(bucket)-1]
		p.mu.Unlock()
		return t, nil
	}
	p.mu.Unlock()

	tex, err := p.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Bloom Working Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpuFormat(format),
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pooled texture: %w", err)
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("failed to create pooled texture view: %w", err)
	}

	return &pooledTexture{
		tex:    tex,
		view:   view,
		width:  width,
		height: height,
		format: format,
		pool:   p,
	}, nil
}

func (p *texturePool) put(t *pooledTexture) {
	key := poolKey{width: t.width, height: t.height, format: t.format}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.buckets[key] = append(p.buckets[key], t)
}

func (p *texturePool) destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for key, bucket := range p.buckets {
		for _, t := range bucket {
			t.view.Release()
			t.tex.Release()
		}
		delete(p.buckets, key)
	}
}
