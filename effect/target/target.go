// Package target defines the render-target contracts consumed by the bloom
// pipeline: frame-scoped image buffers, the pool they are borrowed from, and
// the platform capability probe that selects their pixel format.
package target

// Format identifies the pixel format of a render target.
type Format int

const (
	// FormatRGBA8Unorm is the standard low-dynamic-range format used on
	// bandwidth or precision constrained platforms.
	FormatRGBA8Unorm Format = iota

	// FormatRGBA16Float is the extended-dynamic-range format used everywhere else.
	FormatRGBA16Float
)

// String returns the name of the format.
//
// Returns:
//   - string: a human-readable format name
func (f Format) String() string {
	switch f {
	case FormatRGBA8Unorm:
		return "RGBA8Unorm"
	case FormatRGBA16Float:
		return "RGBA16Float"
	default:
		return "Unknown"
	}
}

// Target is a handle to a GPU-resident (or backend-equivalent) image buffer.
// Host-owned images such as the frame source and destination also satisfy
// Target; the pipeline only ever releases targets it acquired from a Pool,
// and releases each of those exactly once per frame.
type Target interface {
	// Width returns the width of the target in pixels.
	//
	// Returns:
	//   - int: width in pixels
	Width() int

	// Height returns the height of the target in pixels.
	//
	// Returns:
	//   - int: height in pixels
	Height() int

	// Format returns the pixel format of the target.
	//
	// Returns:
	//   - Format: the target's pixel format
	Format() Format

	// Release returns the target to its owner. Calling Release on a target
	// more than once, or on a host-owned target, is a caller error.
	Release()
}

// Pool hands out frame-scoped temporary targets. Implementations may satisfy
// Get from a reuse cache; the returned target's contents are undefined until
// written.
type Pool interface {
	// Get acquires a temporary target with the given dimensions and format.
	// The caller must Release the target within the same frame.
	//
	// Parameters:
	//   - width: target width in pixels (>= 1)
	//   - height: target height in pixels (>= 1)
	//   - format: the pixel format for the target
	//
	// Returns:
	//   - Target: the acquired target
	//   - error: an error if the backing allocator is exhausted
	Get(width, height int, format Format) (Target, error)
}

// Platform reports capabilities of the device backing a Pool. The answer is
// constant within a frame.
type Platform interface {
	// Constrained reports whether the device is bandwidth or precision
	// limited, in which case temporaries use FormatRGBA8Unorm instead of
	// FormatRGBA16Float.
	//
	// Returns:
	//   - bool: true on constrained/mobile-class targets
	Constrained() bool
}
