// Package camera computes the view-projection transform that feeds the
// camera uniform.
package camera

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/texquad"
)

// ErrInvalidCamera is returned by Camera.Validate.
var ErrInvalidCamera = errors.New("camera: invalid parameters")

// OpenGLToWGPU remaps OpenGL clip depth [-1, 1] to the WebGPU range [0, 1].
var OpenGLToWGPU = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// Camera is a right-handed perspective camera.
type Camera struct {
	Eye    mgl32.Vec3
	Target mgl32.Vec3
	Up     mgl32.Vec3
	Aspect float32 // width / height
	FovY   float32 // vertical field of view, radians
	ZNear  float32
	ZFar   float32
}

// Default returns a camera one unit up and two units back from the origin,
// looking at it with a 45 degree field of view.
func Default() Camera {
	return Camera{
		Eye:    mgl32.Vec3{0, 1, 2},
		Target: mgl32.Vec3{0, 0, 0},
		Up:     mgl32.Vec3{0, 1, 0},
		Aspect: 1,
		FovY:   mgl32.DegToRad(45),
		ZNear:  0.1,
		ZFar:   100,
	}
}

// View returns the right-handed look-at matrix.
func (c Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Eye, c.Target, c.Up)
}

// Projection returns the right-handed perspective matrix with OpenGL depth.
func (c Camera) Projection() mgl32.Mat4 {
	return mgl32.Perspective(c.FovY, c.Aspect, c.ZNear, c.ZFar)
}

// ViewProjection returns OpenGLToWGPU * Projection * View. Geometry centred
// on the origin without a camera would sit half outside the depth range;
// the remap keeps the whole frustum in [0, 1].
func (c Camera) ViewProjection() mgl32.Mat4 {
	return OpenGLToWGPU.Mul4(c.Projection()).Mul4(c.View())
}

// Uniform returns the camera uniform for this camera.
func (c Camera) Uniform() texquad.CameraUniform {
	return texquad.CameraUniform{ViewProj: c.ViewProjection()}
}

// SetViewport updates the aspect ratio for a viewport of the given size.
// Zero-height viewports are ignored.
func (c *Camera) SetViewport(width, height int) {
	if width > 0 && height > 0 {
		c.Aspect = float32(width) / float32(height)
	}
}

// Validate reports parameters that would produce a degenerate transform.
func (c Camera) Validate() error {
	switch {
	case !(c.Aspect > 0):
		return fmt.Errorf("%w: aspect %v", ErrInvalidCamera, c.Aspect)
	case !(c.FovY > 0 && c.FovY < math32.Pi):
		return fmt.Errorf("%w: fov %v outside (0, pi)", ErrInvalidCamera, c.FovY)
	case !(c.ZNear > 0 && c.ZFar > c.ZNear):
		return fmt.Errorf("%w: depth range [%v, %v]", ErrInvalidCamera, c.ZNear, c.ZFar)
	}
	dir := c.Target.Sub(c.Eye)
	if dir.Len() == 0 {
		return fmt.Errorf("%w: eye and target coincide", ErrInvalidCamera)
	}
	if dir.Cross(c.Up).Len() == 0 {
		return fmt.Errorf("%w: up is parallel to the view direction", ErrInvalidCamera)
	}
	return nil
}

// Orbit returns a copy of c with the eye rotated by angle radians around
// the up axis through the target.
func Orbit(c Camera, angle float32) Camera {
	axis := c.Up.Normalize()
	offset := c.Eye.Sub(c.Target)
	c.Eye = c.Target.Add(mgl32.QuatRotate(angle, axis).Rotate(offset))
	return c
}

// String implements fmt.Stringer.
func (c Camera) String() string {
	return fmt.Sprintf("Camera[eye=%v target=%v fovy=%.1fdeg aspect=%.3f]",
		c.Eye, c.Target, mgl32.RadToDeg(c.FovY), c.Aspect)
}
