// Package kernel defines the filter-kernel capability consumed by the bloom
// pipeline. A Kernel runs one of nine fixed pass variants over a source
// target into a destination target, parameterized through named scalar,
// vector, and texture slots. The kernels themselves (shader programs or CPU
// filters) live in backend packages; the pipeline treats them as opaque.
package kernel

import "github.com/Carmen-Shannon/bloom-go/effect/target"

// Parameter slot names understood by every Kernel implementation.
const (
	// ParamThreshold is the hard luminance cutoff in linear space (float).
	ParamThreshold = "Threshold"

	// ParamCurve holds the soft-knee curve coefficients
	// (threshold-knee, 2*knee, 0.25/knee) as a 3-vector.
	ParamCurve = "Curve"

	// ParamPrefilterOffs is the sampling-grid correction offset applied by
	// the prefilter passes (float, 0 or -0.5).
	ParamPrefilterOffs = "PrefilterOffs"

	// ParamSampleScale is the upsample filter radius correction for
	// non-power-of-two mip alignment (float).
	ParamSampleScale = "SampleScale"

	// ParamIntensity is the additive strength of the final composite (float).
	ParamIntensity = "Intensity"

	// ParamBaseTex is the secondary image input blended by the combine and
	// composite passes (texture binding).
	ParamBaseTex = "BaseTex"
)

// Kernel is the filter-kernel capability. Parameter slots persist between Run
// calls until overwritten; the bloom pipeline stages all scalar parameters
// once per frame and rebinds ParamBaseTex per combine pass.
//
// A Kernel is used by a single frame invocation at a time; implementations do
// not need to be safe for concurrent Run calls.
type Kernel interface {
	// SetFloat stages a scalar parameter.
	//
	// Parameters:
	//   - name: the parameter slot name (Param* constants)
	//   - value: the scalar value
	SetFloat(name string, value float32)

	// SetVec3 stages a 3-vector parameter.
	//
	// Parameters:
	//   - name: the parameter slot name (Param* constants)
	//   - value: the vector value
	SetVec3(name string, value [3]float32)

	// SetTexture stages a texture binding. Passing nil clears the slot.
	//
	// Parameters:
	//   - name: the parameter slot name (Param* constants)
	//   - t: the target to bind
	SetTexture(name string, t target.Target)

	// Run applies the named pass, sampling src and writing fully into dst,
	// using the currently staged parameters.
	//
	// Parameters:
	//   - src: the image to sample
	//   - dst: the image to write; fully overwritten
	//   - pass: the pass variant to apply
	//
	// Returns:
	//   - error: an error if the pass could not be encoded or executed
	Run(src, dst target.Target, pass Pass) error
}

// Provider acquires and releases the shared filter-kernel capability. Acquire
// is called once when the effect is activated and Release once when it is
// deactivated; a failed Acquire is fatal to the effect.
type Provider interface {
	// Acquire creates or looks up the filter kernel.
	//
	// Returns:
	//   - Kernel: the kernel capability
	//   - error: an error if the kernel is unavailable on this backend
	Acquire() (Kernel, error)

	// Release destroys the kernel and any resources it holds.
	//
	// Parameters:
	//   - k: the kernel previously returned by Acquire
	Release(k Kernel)
}
