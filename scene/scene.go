// Package scene ray traces a small sphere scene into a texture on the CPU.
//
// Each pixel casts one ray from the eye through the z = -1 image plane.
// The nearest sphere hit is shaded with a single directional light
// (Lambert), misses get the background colour. The result is an ordinary
// texture.Image, so either host can draw it on the quad:
//
//	img, err := scene.Default().Render(ctx, 256, 256, 0)
package scene

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/texquad/texture"
)

// ErrInvalidScene is returned for scenes that cannot be traced.
var ErrInvalidScene = errors.New("scene: invalid scene")

// Sphere is a diffuse sphere.
type Sphere struct {
	Position mgl32.Vec3
	Radius   float32
	Albedo   mgl32.Vec3 // linear RGB reflectance
}

// Scene is a set of spheres lit by one directional light.
type Scene struct {
	Spheres []Sphere

	// Eye is the origin of every primary ray.
	Eye mgl32.Vec3

	// Light is the direction the light travels in. It need not be
	// normalized.
	Light mgl32.Vec3

	Background texture.Color
}

// Default returns a magenta unit sphere at the origin in front of a
// larger blue sphere, seen from (0, 0, 2).
func Default() Scene {
	return Scene{
		Spheres: []Sphere{
			{Position: mgl32.Vec3{0, 0, 0}, Radius: 0.5, Albedo: mgl32.Vec3{1, 0, 1}},
			{Position: mgl32.Vec3{1, 0, -5}, Radius: 1.5, Albedo: mgl32.Vec3{0.2, 0.3, 1}},
		},
		Eye:        mgl32.Vec3{0, 0, 2},
		Light:      mgl32.Vec3{-1, -1, -1},
		Background: texture.Black,
	}
}

// Validate reports spheres with non-positive radius and a zero light
// direction.
func (s Scene) Validate() error {
	if s.Light.Len() == 0 {
		return fmt.Errorf("%w: zero light direction", ErrInvalidScene)
	}
	for i, sp := range s.Spheres {
		if !(sp.Radius > 0) {
			return fmt.Errorf("%w: sphere %d radius %v", ErrInvalidScene, i, sp.Radius)
		}
	}
	return nil
}

// Spin returns a copy of s with every sphere rotated by angle radians
// around the Y axis through the origin.
func (s Scene) Spin(angle float32) Scene {
	rot := mgl32.Rotate3DY(angle)
	spheres := make([]Sphere, len(s.Spheres))
	for i, sp := range s.Spheres {
		sp.Position = rot.Mul3x1(sp.Position)
		spheres[i] = sp
	}
	s.Spheres = spheres
	return s
}

// Trace returns the colour seen along the ray from origin in direction
// dir. Only hits in front of the origin count.
func (s Scene) Trace(origin, dir mgl32.Vec3) texture.Color {
	var (
		closest *Sphere
		hitT    = float32(math32.MaxFloat32)
	)
	a := dir.Dot(dir)
	if a == 0 {
		return s.Background
	}
	for i := range s.Spheres {
		sp := &s.Spheres[i]
		o := origin.Sub(sp.Position)
		b := 2 * o.Dot(dir)
		c := o.Dot(o) - sp.Radius*sp.Radius

		disc := b*b - 4*a*c
		if disc < 0 {
			continue
		}
		t := (-b - math32.Sqrt(disc)) / (2 * a)
		if t > 0 && t < hitT {
			hitT = t
			closest = sp
		}
	}
	if closest == nil {
		return s.Background
	}

	normal := origin.Add(dir.Mul(hitT)).Sub(closest.Position).Normalize()
	intensity := max(normal.Dot(s.Light.Normalize().Mul(-1)), 0)
	lit := closest.Albedo.Mul(intensity)
	return texture.Color{R: lit[0], G: lit[1], B: lit[2], A: 1}
}
