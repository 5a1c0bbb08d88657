// Package raster provides the CPU backend for the bloom pipeline. It
// implements the same collaborator contracts as the WebGPU renderer against
// plain image.RGBA buffers, which makes the full pipeline runnable headless:
// in tests, in offline tools, and on machines without a usable GPU.
//
// The backend reports itself as constrained, so the pipeline allocates 8-bit
// temporaries. Filtering runs in normalized [0, 1] channel space; per-pixel
// loops are spread across a reusable worker pool.
package raster

import (
	"image"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"

	"github.com/Carmen-Shannon/bloom-go/effect/kernel"
	"github.com/Carmen-Shannon/bloom-go/effect/target"
)

// backend is the implementation of the Backend interface.
type backend struct {
	pool    *imagePool
	workers worker.DynamicWorkerPool

	workerCount int
}

// Backend is the CPU rendering backend. Like the WebGPU renderer it
// satisfies the pipeline's kernel provider, target pool, and platform probe
// contracts, so a single Backend serves all three collaborators.
type Backend interface {
	target.Pool
	target.Platform
	kernel.Provider

	// NewTarget wraps a caller-owned image as a render target suitable as
	// the pipeline's source or destination. The pipeline never releases it;
	// the caller keeps ownership of the underlying pixels.
	//
	// Parameters:
	//   - img: the image to wrap; must have a non-empty bounds
	//
	// Returns:
	//   - target.Target: the wrapped image
	NewTarget(img *image.RGBA) target.Target

	// Image retrieves the pixel buffer behind a target produced by this
	// backend.
	//
	// Parameters:
	//   - t: the target to unwrap
	//
	// Returns:
	//   - *image.RGBA: the backing image, or nil if the target is foreign
	Image(t target.Target) *image.RGBA
}

var _ Backend = &backend{}

// NewBackend creates a CPU Backend.
//
// Parameters:
//   - options: optional builder options to customize the backend
//
// Returns:
//   - Backend: the new Backend instance
func NewBackend(options ...BackendBuilderOption) Backend {
	b := &backend{
		pool:        newImagePool(),
		workerCount: max(runtime.NumCPU()-1, 1),
	}
	for _, option := range options {
		option(b)
	}

	// Queue size of 256 accommodates the row bands of a deep pyramid frame
	// with headroom. Idle workers exit after a second and respawn on demand.
	b.workers = worker.NewDynamicWorkerPool(b.workerCount, 256, 1*time.Second)

	return b
}

func (b *backend) Get(width, height int, format target.Format) (target.Target, error) {
	return b.pool.get(width, height, format)
}

func (b *backend) Constrained() bool {
	return true
}

func (b *backend) Acquire() (kernel.Kernel, error) {
	return newRasterKernel(b.workers, b.workerCount), nil
}

func (b *backend) Release(k kernel.Kernel) {
	// CPU kernels hold no resources beyond the shared worker pool.
}

func (b *backend) NewTarget(img *image.RGBA) target.Target {
	if img == nil || img.Bounds().Empty() {
		return nil
	}
	return &imageTarget{img: img, format: target.FormatRGBA8Unorm}
}

func (b *backend) Image(t target.Target) *image.RGBA {
	it, ok := t.(*imageTarget)
	if !ok || it == nil {
		return nil
	}
	return it.img
}
