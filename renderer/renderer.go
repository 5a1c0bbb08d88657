// Package renderer provides the WebGPU backend for the bloom pipeline. It
// owns the instance, adapter, device, and queue, manages the window surface,
// and implements the pipeline's collaborator contracts: the filter-kernel
// provider, the temporary render-target pool, and the platform capability
// probe.
package renderer

import (
	"errors"
	"fmt"
	"image"
	"runtime"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/bloom-go/effect/kernel"
	"github.com/Carmen-Shannon/bloom-go/effect/target"
)

// PresentMode represents the presentation mode used by the renderer for frame delivery to the display.
type PresentMode int

const (
	// PresentModeUncapped delivers frames as fast as possible with no synchronization.
	PresentModeUncapped PresentMode = iota

	// PresentModeVSync synchronizes frame delivery with the display refresh rate.
	PresentModeVSync
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat *wgpu.TextureFormat
	presentMode   wgpu.PresentMode

	pool *texturePool

	// Frame state for the currently acquired swapchain texture.
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
	frameWidth   int
	frameHeight  int

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	constrained          bool
	pendingPresentMode   *PresentMode
}

// Renderer defines the interface for the WebGPU rendering system.
//
// This is a high-level API designed to simplify running the bloom pipeline
// against a window surface. The Renderer satisfies the pipeline's kernel
// provider, target pool, and platform probe contracts, so a single Renderer
// can be passed for all three collaborators.
type Renderer interface {
	target.Pool
	target.Platform
	kernel.Provider

	// ConfigureSurface configures the underlying surface for a new size.
	// This should be called once after creation and again whenever the
	// window is resized.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	ConfigureSurface(width, height int)

	// SetPresentMode sets the surface present mode which controls how frames
	// are delivered to the display. Takes effect on the next ConfigureSurface.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// CreateSourceTexture uploads an RGBA image as a sampleable GPU texture.
	// The returned target is owned by the caller and must be destroyed with
	// DestroySourceTexture, not Release.
	//
	// Parameters:
	//   - img: the image to upload; must have a non-empty bounds
	//
	// Returns:
	//   - target.Target: the uploaded texture
	//   - error: an error if the texture could not be created
	CreateSourceTexture(img *image.RGBA) (target.Target, error)

	// DestroySourceTexture releases a texture previously returned by
	// CreateSourceTexture.
	//
	// Parameters:
	//   - t: the source texture to destroy
	DestroySourceTexture(t target.Target)

	// BeginFrame acquires the next swapchain texture and wraps it as a
	// render target suitable as the pipeline's destination. Must be paired
	// with Present.
	//
	// Returns:
	//   - target.Target: the swapchain render target
	//   - error: an error if the swapchain texture could not be acquired
	BeginFrame() (target.Target, error)

	// Present presents the acquired swapchain texture to the display and
	// releases it. Must be called once per frame after BeginFrame.
	Present()

	// Device retrieves the underlying WGPU device.
	//
	// Returns:
	//   - *wgpu.Device: the device
	Device() *wgpu.Device

	// Queue retrieves the underlying WGPU queue.
	//
	// Returns:
	//   - *wgpu.Queue: the queue
	Queue() *wgpu.Queue

	// Destroy releases the pooled textures, the device, and all other GPU
	// resources held by the renderer. The renderer must not be used after
	// Destroy.
	Destroy()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer bound to the given surface descriptor. It
// requests an adapter and device eagerly; failures at this stage are
// unrecoverable and panic.
//
// Parameters:
//   - surfaceDescriptor: the OS surface obtained from the window layer
//   - options: optional builder options to customize the renderer
//
// Returns:
//   - Renderer: the new Renderer instance
func NewRenderer(surfaceDescriptor *wgpu.SurfaceDescriptor, options ...RendererBuilderOption) Renderer {
	runtime.LockOSThread()
	r := &renderer{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeImmediate,
	}
	for _, opt := range options {
		opt(r)
	}
	if r.pendingPresentMode != nil {
		r.SetPresentMode(*r.pendingPresentMode)
		r.pendingPresentMode = nil
	}

	r.surface = r.instance.CreateSurface(surfaceDescriptor)

	a, err := r.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: r.forceFallbackAdapter,
		CompatibleSurface:    r.surface,
	})
	if err != nil {
		panic(err)
	}
	r.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Bloom Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		panic(err)
	}
	r.device = d
	r.queue = d.GetQueue()
	r.pool = newTexturePool(d)

	return r
}

func (r *renderer) ConfigureSurface(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	capabilities := r.surface.GetCapabilities(r.adapter)
	r.surfaceFormat = &capabilities.Formats[0]

	r.surface.Configure(r.adapter, r.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      *r.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: r.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch mode {
	case PresentModeVSync:
		r.presentMode = wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		r.presentMode = wgpu.PresentModeImmediate
	}
}

func (r *renderer) CreateSourceTexture(img *image.RGBA) (target.Target, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, errors.New("source image must be non-empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	width := img.Bounds().Dx()
	height := img.Bounds().Dy()

	tex, err := r.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Bloom Source Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create source texture: %w", err)
	}

	r.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		img.Pix,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(img.Stride),
			RowsPerImage: uint32(height),
		},
		&wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("failed to create source texture view: %w", err)
	}

	return &sourceTexture{
		tex:    tex,
		view:   view,
		width:  width,
		height: height,
	}, nil
}

func (r *renderer) DestroySourceTexture(t target.Target) {
	src, ok := t.(*sourceTexture)
	if !ok || src == nil {
		return
	}
	src.view.Release()
	src.tex.Release()
}

func (r *renderer) BeginFrame() (target.Target, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// If a previous frame's surface texture is still held, avoid acquiring
	// another one. This prevents wgpu-native validation errors like
	// "Surface image is already acquired" when frames overlap.
	if r.frameSurface != nil {
		return nil, fmt.Errorf("previous frame surface not yet presented")
	}
	if r.surfaceFormat == nil {
		return nil, fmt.Errorf("surface not configured, call ConfigureSurface first")
	}

	surfaceTexture, err := r.surface.GetCurrentTexture()
	if err != nil {
		return nil, err
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return nil, err
	}

	r.frameSurface = surfaceTexture
	r.frameView = view
	r.frameWidth = int(surfaceTexture.GetWidth())
	r.frameHeight = int(surfaceTexture.GetHeight())

	return &surfaceTarget{
		view:   view,
		format: *r.surfaceFormat,
		width:  r.frameWidth,
		height: r.frameHeight,
	}, nil
}

func (r *renderer) Present() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frameSurface == nil {
		return
	}

	r.surface.Present()

	r.frameView.Release()
	r.frameView = nil
	r.frameSurface.Release()
	r.frameSurface = nil
}

func (r *renderer) Get(width, height int, format target.Format) (target.Target, error) {
	return r.pool.get(width, height, format)
}

func (r *renderer) Constrained() bool {
	return r.constrained
}

func (r *renderer) Acquire() (kernel.Kernel, error) {
	return newWGPUKernel(r.device, r.queue)
}

func (r *renderer) Release(k kernel.Kernel) {
	wk, ok := k.(*wgpuKernel)
	if !ok || wk == nil {
		return
	}
	wk.destroy()
}

func (r *renderer) Device() *wgpu.Device {
	return r.device
}

func (r *renderer) Queue() *wgpu.Queue {
	return r.queue
}

func (r *renderer) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frameView != nil {
		r.frameView.Release()
		r.frameView = nil
	}
	if r.frameSurface != nil {
		r.frameSurface.Release()
		r.frameSurface = nil
	}
	if r.pool != nil {
		r.pool.destroy()
		r.pool = nil
	}
	if r.device != nil {
		r.device.Release()
		r.device = nil
	}
	if r.surface != nil {
		r.surface.Release()
		r.surface = nil
	}
	if r.adapter != nil {
		r.adapter.Release()
		r.adapter = nil
	}
	if r.instance != nil {
		r.instance.Release()
		r.instance = nil
	}
}
