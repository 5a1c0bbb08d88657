package bloom

import "github.com/Carmen-Shannon/bloom-go/common"

func (b *bloomEffect) Threshold() float32 {
	return b.cfg.threshold
}

func (b *bloomEffect) SetThreshold(v float32) {
	b.cfg.threshold = common.Clamp(v, 0, 1)
}

func (b *bloomEffect) SoftKnee() float32 {
	return b.cfg.softKnee
}

func (b *bloomEffect) SetSoftKnee(v float32) {
	b.cfg.softKnee = common.Clamp(v, 0, 1)
}

func (b *bloomEffect) Radius() float32 {
	return b.cfg.radius
}

func (b *bloomEffect) SetRadius(v float32) {
	b.cfg.radius = common.Clamp(v, 1, 8)
}

func (b *bloomEffect) Intensity() float32 {
	return b.cfg.intensity
}

func (b *bloomEffect) SetIntensity(v float32) {
	b.cfg.intensity = common.Clamp(v, 0, 2)
}

func (b *bloomEffect) MaxIterations() int {
	return b.cfg.maxIterations
}

func (b *bloomEffect) SetMaxIterations(n int) {
	b.cfg.maxIterations = common.ClampInt(n, 1, 20)
}

func (b *bloomEffect) HighQuality() bool {
	return b.cfg.highQuality
}

func (b *bloomEffect) SetHighQuality(on bool) {
	b.cfg.highQuality = on
}

func (b *bloomEffect) AntiFlicker() bool {
	return b.cfg.antiFlicker
}

func (b *bloomEffect) SetAntiFlicker(on bool) {
	b.cfg.antiFlicker = on
}
