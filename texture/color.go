package texture

import "fmt"

// Color is a linear RGBA color with float32 components, nominally in [0, 1].
// It is the value a fragment stage writes to its color attachment.
type Color struct {
	R, G, B, A float32
}

// Common colors.
var (
	Black       = Color{0, 0, 0, 1}
	White       = Color{1, 1, 1, 1}
	Transparent = Color{}
)

// RGBA8 returns a Color from 8-bit channel values.
func RGBA8(r, g, b, a uint8) Color {
	return Color{
		R: float32(r) / 255,
		G: float32(g) / 255,
		B: float32(b) / 255,
		A: float32(a) / 255,
	}
}

// ToRGBA8 converts the color to 8-bit channels, clamping out-of-range
// components and rounding to nearest.
func (c Color) ToRGBA8() (r, g, b, a uint8) {
	return unorm8(c.R), unorm8(c.G), unorm8(c.B), unorm8(c.A)
}

// Lerp interpolates between c and d by t.
func (c Color) Lerp(d Color, t float32) Color {
	return Color{
		R: c.R + (d.R-c.R)*t,
		G: c.G + (d.G-c.G)*t,
		B: c.B + (d.B-c.B)*t,
		A: c.A + (d.A-c.A)*t,
	}
}

// String implements fmt.Stringer.
func (c Color) String() string {
	return fmt.Sprintf("rgba(%.3f, %.3f, %.3f, %.3f)", c.R, c.G, c.B, c.A)
}

func unorm8(v float32) uint8 {
	// NaN fails both comparisons and lands on zero.
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
