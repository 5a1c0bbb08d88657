package kernel

// Pass identifies one of the nine filter pass variants. The numeric values
// preserve the historical 0-8 pass ordering, so backends may index shader
// entry points directly by Pass.
type Pass int

const (
	// PassPrefilter extracts over-threshold luminance with the soft-knee curve.
	PassPrefilter Pass = iota

	// PassPrefilterAntiFlicker is the prefilter with an extra median filter
	// that suppresses temporal flicker from isolated bright pixels.
	PassPrefilterAntiFlicker

	// PassDownsampleFirst is the first pyramid downsample from the
	// prefiltered image.
	PassDownsampleFirst

	// PassDownsampleFirstAntiFlicker is the first downsample with
	// luma-weighted sampling to suppress flicker.
	PassDownsampleFirstAntiFlicker

	// PassDownsample is the uniform downsample used for every level after
	// the first.
	PassDownsample

	// PassCombineLQ upsamples the accumulator with a 4-tap box filter and
	// adds the base level.
	PassCombineLQ

	// PassCombineHQ upsamples the accumulator with a 9-tap tent filter and
	// adds the base level.
	PassCombineHQ

	// PassCompositeLQ is the final additive composite onto the original
	// source, low-quality filtering.
	PassCompositeLQ

	// PassCompositeHQ is the final additive composite onto the original
	// source, high-quality filtering.
	PassCompositeHQ
)

// PassCount is the number of pass variants.
const PassCount = 9

var passNames = [PassCount]string{
	"Prefilter",
	"PrefilterAntiFlicker",
	"DownsampleFirst",
	"DownsampleFirstAntiFlicker",
	"Downsample",
	"CombineLQ",
	"CombineHQ",
	"CompositeLQ",
	"CompositeHQ",
}

// String returns the name of the pass.
//
// Returns:
//   - string: a human-readable pass name
func (p Pass) String() string {
	if p < 0 || int(p) >= PassCount {
		return "Unknown"
	}
	return passNames[p]
}

// PrefilterPass selects the prefilter variant.
//
// Parameters:
//   - antiFlicker: whether the anti-flicker median filter is enabled
//
// Returns:
//   - Pass: PassPrefilterAntiFlicker when antiFlicker is set, else PassPrefilter
func PrefilterPass(antiFlicker bool) Pass {
	if antiFlicker {
		return PassPrefilterAntiFlicker
	}
	return PassPrefilter
}

// DownsamplePass selects the downsample variant for a pyramid level.
// Anti-flicker filtering only applies to the first level; deeper levels
// always use the uniform chain kernel.
//
// Parameters:
//   - first: whether this is pyramid level 0
//   - antiFlicker: whether anti-flicker filtering is enabled
//
// Returns:
//   - Pass: the downsample pass variant for the level
func DownsamplePass(first, antiFlicker bool) Pass {
	if !first {
		return PassDownsample
	}
	if antiFlicker {
		return PassDownsampleFirstAntiFlicker
	}
	return PassDownsampleFirst
}

// CombinePass selects the upsample/combine variant.
//
// Parameters:
//   - highQuality: whether wide-tap filtering is enabled
//
// Returns:
//   - Pass: PassCombineHQ in high-quality mode, else PassCombineLQ
func CombinePass(highQuality bool) Pass {
	if highQuality {
		return PassCombineHQ
	}
	return PassCombineLQ
}

// CompositePass selects the final composite variant.
//
// Parameters:
//   - highQuality: whether wide-tap filtering is enabled
//
// Returns:
//   - Pass: PassCompositeHQ in high-quality mode, else PassCompositeLQ
func CompositePass(highQuality bool) Pass {
	if highQuality {
		return PassCompositeHQ
	}
	return PassCompositeLQ
}
