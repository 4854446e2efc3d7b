package texquad

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/texquad/texture"
)

// VertexStage is the Go form of vs_main. It extends the position to
// homogeneous coordinates with w = 1, left-multiplies it by the camera
// transform and copies the texture coordinate.
//
// Non-finite inputs propagate through the arithmetic unchanged.
func VertexStage(in VertexInput, cam CameraUniform) VertexOutput {
	return VertexOutput{
		ClipPosition: cam.ViewProj.Mul4x1(in.Position.Vec4(1)),
		TexCoords:    in.TexCoords,
	}
}

// FragmentStage is the Go form of fs_main: a filtered lookup of tex at uv
// using the injected sampler. The sampled value is returned unchanged.
func FragmentStage(uv mgl32.Vec2, tex *texture.Image, s texture.Sampler) Color {
	return texture.Sample(tex, s, uv[0], uv[1])
}

// FragmentStageFootprint is FragmentStage for a fragment whose screen
// footprint covers the given number of texels per pixel, letting the
// sampler choose between its magnification and minification filters.
func FragmentStageFootprint(uv mgl32.Vec2, tex *texture.Image, s texture.Sampler, footprint float32) Color {
	return texture.SampleFootprint(tex, s, uv[0], uv[1], footprint)
}
