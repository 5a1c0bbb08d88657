package renderer

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUBloomShaderSource is the WGSL source for the bloom filter kernel: the
// fullscreen-triangle vertex shader, the BloomParams uniform definition, and
// one fragment entry point per pass variant.
//
//go:embed assets/bloom.wgsl
var GPUBloomShaderSource string

// GPUBloomParams is the GPU-aligned uniform block for the bloom fragment
// shaders. Matches the WGSL BloomParams struct layout exactly (see
// GPUBloomShaderSource). Size: 48 bytes (vec3 + 5 scalars + vec2, std140
// aligned with explicit padding).
type GPUBloomParams struct {
	Curve         [3]float32 // offset 0: soft-knee coefficients (12 bytes)
	Threshold     float32    // offset 12: luminance cutoff in linear space
	SampleScale   float32    // offset 16: upsample filter radius correction
	PrefilterOffs float32    // offset 20: prefilter sampling-grid offset
	Intensity     float32    // offset 24: final composite strength
	Pad0          float32    // offset 28: aligns Texel to 8 bytes
	Texel         [2]float32 // offset 32: main texture texel size (1/w, 1/h)
	Pad1          [2]float32 // offset 40: rounds the struct to 48 bytes
}

// Size returns the size of the GPUBloomParams struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUBloomParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUBloomParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 48-byte buffer ready for GPU upload.
func (g *GPUBloomParams) Marshal() []byte {
	fields := [12]float32{
		g.Curve[0], g.Curve[1], g.Curve[2],
		g.Threshold,
		g.SampleScale,
		g.PrefilterOffs,
		g.Intensity,
		g.Pad0,
		g.Texel[0], g.Texel[1],
		g.Pad1[0], g.Pad1[1],
	}
	buf := make([]byte, len(fields)*4)
	for i, f := range fields {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(f))
	}
	return buf
}
