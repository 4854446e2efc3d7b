package texquad

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/texquad/texture"
)

// Color is the RGBA value written by the fragment stage.
type Color = texture.Color

// CameraUniformSize is the size of CameraUniform in uniform storage.
const CameraUniformSize = 64

// CameraUniform holds the combined view-projection transform read by every
// vertex invocation of a draw.
type CameraUniform struct {
	ViewProj mgl32.Mat4
}

// IdentityCamera returns a camera uniform whose transform is the identity.
func IdentityCamera() CameraUniform {
	return CameraUniform{ViewProj: mgl32.Ident4()}
}

// Bytes returns the uniform in its buffer layout: sixteen little-endian
// float32 values in column-major order.
func (c CameraUniform) Bytes() []byte {
	buf := make([]byte, CameraUniformSize)
	for i, v := range c.ViewProj {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// VertexInput is one record of the vertex buffer.
type VertexInput struct {
	Position  mgl32.Vec3 // location 0, model space
	TexCoords mgl32.Vec2 // location 1, normalized by convention, unclamped
}

// Vertex is shorthand for building a VertexInput.
func Vertex(x, y, z, u, v float32) VertexInput {
	return VertexInput{
		Position:  mgl32.Vec3{x, y, z},
		TexCoords: mgl32.Vec2{u, v},
	}
}

// String implements fmt.Stringer.
func (v VertexInput) String() string {
	return fmt.Sprintf("Vertex{pos=(%g, %g, %g) uv=(%g, %g)}",
		v.Position[0], v.Position[1], v.Position[2], v.TexCoords[0], v.TexCoords[1])
}

// VertexOutput is produced by the vertex stage and consumed by the
// interpolator.
type VertexOutput struct {
	ClipPosition mgl32.Vec4 // homogeneous clip space
	TexCoords    mgl32.Vec2 // location 0
}

// NDC returns the normalized device coordinates of the output, the clip
// position divided by w.
func (o VertexOutput) NDC() mgl32.Vec3 {
	w := o.ClipPosition[3]
	return mgl32.Vec3{o.ClipPosition[0] / w, o.ClipPosition[1] / w, o.ClipPosition[2] / w}
}
