package raster

import (
	"fmt"
	"image"
	"sync"

	"github.com/Carmen-Shannon/bloom-go/effect/target"
)

// imageTarget is a render target backed by a plain RGBA image. Targets
// borrowed from an imagePool hand themselves back on Release; caller-owned
// targets created through NewTarget have no pool and Release is a no-op.
type imageTarget struct {
	img    *image.RGBA
	format target.Format
	pool   *imagePool
}

var _ target.Target = &imageTarget{}

func (t *imageTarget) Width() int            { return t.img.Bounds().Dx() }
func (t *imageTarget) Height() int           { return t.img.Bounds().Dy() }
func (t *imageTarget) Format() target.Format { return t.format }

func (t *imageTarget) Release() {
	if t.pool != nil {
		t.pool.put(t)
	}
}

// poolKey buckets reusable images by their exact dimensions and format.
type poolKey struct {
	width  int
	height int
	format target.Format
}

// imagePool hands out frame-scoped image buffers, reusing released images of
// matching dimensions instead of reallocating every frame.
type imagePool struct {
	mu      sync.Mutex
	buckets map[poolKey][]*imageTarget
}

func newImagePool() *imagePool {
	return &imagePool{
		buckets: make(map[poolKey][]*imageTarget),
	}
}

func (p *imagePool) get(width, height int, format target.Format) (target.Target, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("invalid render target size %dx%d", width, height)
	}

	key := poolKey{width: width, height: height, format: format}

	p.mu.Lock()
	defer p.mu.Unlock()

	if bucket := p.buckets[key]; len(bucket) > 0 {
		t := bucket[len(bucket)-1]
		p.buckets[key] = bucket[:len(bucket)-1]
		return t, nil
	}

	return &imageTarget{
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
		format: format,
		pool:   p,
	}, nil
}

func (p *imagePool) put(t *imageTarget) {
	key := poolKey{width: t.Width(), height: t.Height(), format: t.format}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.buckets[key] = append(p.buckets[key], t)
}
