package texquad

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Interpolate blends three vertex outputs with barycentric weights. The
// weights are used as given; callers pass weights that sum to one.
//
// This is linear (screen-space) interpolation, equivalent to WGSL's
// @interpolate(linear).
func Interpolate(a, b, c VertexOutput, bary mgl32.Vec3) VertexOutput {
	return VertexOutput{
		ClipPosition: a.ClipPosition.Mul(bary[0]).
			Add(b.ClipPosition.Mul(bary[1])).
			Add(c.ClipPosition.Mul(bary[2])),
		TexCoords: a.TexCoords.Mul(bary[0]).
			Add(b.TexCoords.Mul(bary[1])).
			Add(c.TexCoords.Mul(bary[2])),
	}
}

// InterpolatePerspective blends three vertex outputs with screen-space
// barycentric weights, correcting for perspective: each weight is divided by
// its vertex's clip w and the results are renormalized. This is the default
// interpolation WebGPU applies to user-defined outputs.
//
// If the corrected weights cannot be normalized (a w of zero or a zero
// sum) the linear result is returned.
func InterpolatePerspective(a, b, c VertexOutput, bary mgl32.Vec3) VertexOutput {
	wa, wb, wc := a.ClipPosition[3], b.ClipPosition[3], c.ClipPosition[3]
	if wa == 0 || wb == 0 || wc == 0 {
		return Interpolate(a, b, c, bary)
	}

	pa := bary[0] / wa
	pb := bary[1] / wb
	pc := bary[2] / wc
	sum := pa + pb + pc
	if sum == 0 || math32.IsNaN(sum) || math32.IsInf(sum, 0) {
		return Interpolate(a, b, c, bary)
	}

	return Interpolate(a, b, c, mgl32.Vec3{pa / sum, pb / sum, pc / sum})
}
