package texture

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/gogpu/gputypes"
)

// Sampler describes how a texture is addressed and filtered during lookup.
// The field types are shared with the hardware host so one descriptor
// configures both.
//
// Unset fields behave like the WebGPU defaults: clamp-to-edge addressing and
// nearest filtering.
type Sampler struct {
	AddressModeU gputypes.AddressMode
	AddressModeV gputypes.AddressMode
	MagFilter    gputypes.FilterMode
	MinFilter    gputypes.FilterMode
}

// DefaultSampler returns clamp-to-edge addressing with linear filtering.
func DefaultSampler() Sampler {
	return Sampler{
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
	}
}

// NearestSampler returns clamp-to-edge addressing with nearest filtering.
func NearestSampler() Sampler {
	return Sampler{
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeNearest,
		MinFilter:    gputypes.FilterModeNearest,
	}
}

// WithAddressMode returns a copy of s using mode on both axes.
func (s Sampler) WithAddressMode(mode gputypes.AddressMode) Sampler {
	s.AddressModeU = mode
	s.AddressModeV = mode
	return s
}

// WithFilter returns a copy of s using mode for both magnification and
// minification.
func (s Sampler) WithFilter(mode gputypes.FilterMode) Sampler {
	s.MagFilter = mode
	s.MinFilter = mode
	return s
}

// Filter returns the filter that applies to a lookup whose screen footprint
// covers the given number of texels per pixel. Footprints above one texel
// minify; anything else magnifies.
func (s Sampler) Filter(footprint float32) gputypes.FilterMode {
	if footprint > 1 {
		return s.MinFilter
	}
	return s.MagFilter
}

// String implements fmt.Stringer.
func (s Sampler) String() string {
	return fmt.Sprintf("Sampler[u=%s v=%s mag=%s min=%s]",
		addressModeName(s.AddressModeU), addressModeName(s.AddressModeV),
		filterModeName(s.MagFilter), filterModeName(s.MinFilter))
}

// Sample looks up img at normalized coordinates (u, v) with the sampler's
// magnification filter.
func Sample(img *Image, s Sampler, u, v float32) Color {
	return SampleFootprint(img, s, u, v, 0)
}

// SampleFootprint looks up img at (u, v) choosing the filter from the
// lookup's screen footprint in texels per pixel. The image has a single
// level, so minification changes only the filter, never the level.
//
// A nil image samples as transparent black, the value WebGPU defines for
// reads that resolve to no texel.
func SampleFootprint(img *Image, s Sampler, u, v, footprint float32) Color {
	if img == nil {
		return Transparent
	}
	if s.Filter(footprint) == gputypes.FilterModeLinear {
		return sampleLinear(img, s, u, v)
	}
	return sampleNearest(img, s, u, v)
}

// sampleNearest selects the texel containing (u, v).
func sampleNearest(img *Image, s Sampler, u, v float32) Color {
	x := texelIndex(u*float32(img.width), img.width, s.AddressModeU)
	y := texelIndex(v*float32(img.height), img.height, s.AddressModeV)
	return img.Texel(x, y)
}

// sampleLinear blends the four texels whose centres surround (u, v).
func sampleLinear(img *Image, s Sampler, u, v float32) Color {
	fx := saturate(u*float32(img.width) - 0.5)
	fy := saturate(v*float32(img.height) - 0.5)

	fx0 := math32.Floor(fx)
	fy0 := math32.Floor(fy)
	tx := fx - fx0
	ty := fy - fy0

	x0 := resolve(int(fx0), img.width, s.AddressModeU)
	x1 := resolve(int(fx0)+1, img.width, s.AddressModeU)
	y0 := resolve(int(fy0), img.height, s.AddressModeV)
	y1 := resolve(int(fy0)+1, img.height, s.AddressModeV)

	c00 := img.Texel(x0, y0)
	c10 := img.Texel(x1, y0)
	c01 := img.Texel(x0, y1)
	c11 := img.Texel(x1, y1)

	top := c00.Lerp(c10, tx)
	bottom := c01.Lerp(c11, tx)
	return top.Lerp(bottom, ty)
}

// texelIndex converts a continuous texel-space coordinate to a resolved
// texel index.
func texelIndex(f float32, n int, mode gputypes.AddressMode) int {
	return resolve(int(math32.Floor(saturate(f))), n, mode)
}

// saturate maps NaN to zero and bounds f so that converting it to int
// cannot overflow.
func saturate(f float32) float32 {
	const limit = 1 << 24
	switch {
	case math32.IsNaN(f):
		return 0
	case f > limit:
		return limit
	case f < -limit:
		return -limit
	}
	return f
}

// resolve applies an address mode to texel index i of an axis with n texels.
func resolve(i, n int, mode gputypes.AddressMode) int {
	switch mode {
	case gputypes.AddressModeRepeat:
		i %= n
		if i < 0 {
			i += n
		}
		return i
	case gputypes.AddressModeMirrorRepeat:
		period := 2 * n
		i %= period
		if i < 0 {
			i += period
		}
		if i >= n {
			i = period - 1 - i
		}
		return i
	default:
		return clamp(i, 0, n-1)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func addressModeName(m gputypes.AddressMode) string {
	switch m {
	case gputypes.AddressModeRepeat:
		return "repeat"
	case gputypes.AddressModeMirrorRepeat:
		return "mirror-repeat"
	case gputypes.AddressModeClampToEdge:
		return "clamp-to-edge"
	default:
		return "default"
	}
}

func filterModeName(m gputypes.FilterMode) string {
	switch m {
	case gputypes.FilterModeLinear:
		return "linear"
	case gputypes.FilterModeNearest:
		return "nearest"
	default:
		return "default"
	}
}
