package raster

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/texquad"
	"github.com/gogpu/texquad/internal/parallel"
	"github.com/gogpu/texquad/texture"
)

type triangleStatus uint8

const (
	triangleVisible triangleStatus = iota
	triangleCulled
	triangleRejected
)

// setup is a triangle after perspective divide and viewport transform,
// ordered so that area is positive.
type setup struct {
	v    [3]texquad.VertexOutput
	x, y [3]float32 // framebuffer coordinates, y down
	z    [3]float32 // NDC depth

	area    float32
	topLeft [3]bool // edge opposite vertex i is a top or left edge

	// Barycentric change per pixel step in x and in y.
	dbdx, dbdy mgl32.Vec3

	// Pixel bounding box, half-open, clamped to the framebuffer.
	minX, minY, maxX, maxY int
}

// setupTriangle transforms three vertex outputs to framebuffer space and
// applies rejection and face culling.
//
// Triangles with any vertex at w <= 0 are rejected whole: the host does
// not clip against the near plane.
func (p *Pipeline) setupTriangle(a, b, c texquad.VertexOutput) (setup, triangleStatus) {
	var s setup
	s.v = [3]texquad.VertexOutput{a, b, c}

	width := float32(p.cfg.Width)
	height := float32(p.cfg.Height)
	for i, o := range s.v {
		if !(o.ClipPosition[3] > 0) {
			return s, triangleRejected
		}
		ndc := o.NDC()
		s.x[i] = (ndc[0] + 1) * 0.5 * width
		s.y[i] = (1 - ndc[1]) * 0.5 * height
		s.z[i] = ndc[2]
	}

	area := edge(s.x[0], s.y[0], s.x[1], s.y[1], s.x[2], s.y[2])
	if area == 0 || math32.IsNaN(area) || math32.IsInf(area, 0) {
		return s, triangleRejected
	}

	// The viewport flips y, so a positive area here is counter-clockwise
	// in NDC.
	ccw := area > 0
	front := ccw == (p.cfg.FrontFace == gputypes.FrontFaceCCW)
	switch p.cfg.CullMode {
	case gputypes.CullModeBack:
		if !front {
			return s, triangleCulled
		}
	case gputypes.CullModeFront:
		if front {
			return s, triangleCulled
		}
	}

	if area < 0 {
		s.v[1], s.v[2] = s.v[2], s.v[1]
		s.x[1], s.x[2] = s.x[2], s.x[1]
		s.y[1], s.y[2] = s.y[2], s.y[1]
		s.z[1], s.z[2] = s.z[2], s.z[1]
		area = -area
	}
	s.area = area

	inv := 1 / area
	for i := range 3 {
		j, k := (i+1)%3, (i+2)%3
		dx := s.x[k] - s.x[j]
		dy := s.y[k] - s.y[j]
		s.topLeft[i] = dy > 0 || (dy == 0 && dx < 0)
		s.dbdx[i] = dy * inv
		s.dbdy[i] = -dx * inv
	}

	s.minX = max(0, int(math32.Floor(min(s.x[0], s.x[1], s.x[2]))))
	s.minY = max(0, int(math32.Floor(min(s.y[0], s.y[1], s.y[2]))))
	s.maxX = min(p.cfg.Width, int(math32.Ceil(max(s.x[0], s.x[1], s.x[2]))))
	s.maxY = min(p.cfg.Height, int(math32.Ceil(max(s.y[0], s.y[1], s.y[2]))))
	if s.minX >= s.maxX || s.minY >= s.maxY {
		return s, triangleRejected
	}
	return s, triangleVisible
}

// shader holds the per-draw fragment state shared by all tiles.
type shader struct {
	tex       *texture.Image
	sampler   texture.Sampler
	footprint bool // whether the sampler distinguishes min and mag filters
	interp    Interpolation
}

// rasterize shades the pixels of s that fall inside tile.
func (sh *shader) rasterize(fb *Framebuffer, s *setup, tile parallel.Tile) {
	x0, y0, x1, y1, ok := tile.Clip(s.minX, s.minY, s.maxX, s.maxY)
	if !ok {
		return
	}
	inv := 1 / s.area

	for py := y0; py < y1; py++ {
		cy := float32(py) + 0.5
		for px := x0; px < x1; px++ {
			cx := float32(px) + 0.5

			w0 := edge(s.x[1], s.y[1], s.x[2], s.y[2], cx, cy)
			w1 := edge(s.x[2], s.y[2], s.x[0], s.y[0], cx, cy)
			w2 := edge(s.x[0], s.y[0], s.x[1], s.y[1], cx, cy)
			if !covers(w0, s.topLeft[0]) || !covers(w1, s.topLeft[1]) || !covers(w2, s.topLeft[2]) {
				continue
			}

			bary := mgl32.Vec3{w0 * inv, w1 * inv, w2 * inv}
			z := bary[0]*s.z[0] + bary[1]*s.z[1] + bary[2]*s.z[2]
			if z < 0 || z > 1 {
				continue
			}

			out := sh.interpolate(s, bary)
			var fp float32
			if sh.footprint {
				fp = sh.texelFootprint(s, bary, out.TexCoords)
			}
			fb.set(px, py, texquad.FragmentStageFootprint(out.TexCoords, sh.tex, sh.sampler, fp))
		}
	}
}

func (sh *shader) interpolate(s *setup, bary mgl32.Vec3) texquad.VertexOutput {
	if sh.interp == Linear {
		return texquad.Interpolate(s.v[0], s.v[1], s.v[2], bary)
	}
	return texquad.InterpolatePerspective(s.v[0], s.v[1], s.v[2], bary)
}

// texelFootprint estimates how many texels one pixel step covers, from the
// change in texture coordinates towards the next pixel in x and in y.
func (sh *shader) texelFootprint(s *setup, bary mgl32.Vec3, uv mgl32.Vec2) float32 {
	tw := float32(sh.tex.Width())
	th := float32(sh.tex.Height())

	du := sh.interpolate(s, bary.Add(s.dbdx)).TexCoords.Sub(uv)
	dv := sh.interpolate(s, bary.Add(s.dbdy)).TexCoords.Sub(uv)

	fx := mgl32.Vec2{du[0] * tw, du[1] * th}.Len()
	fy := mgl32.Vec2{dv[0] * tw, dv[1] * th}.Len()
	return max(fx, fy)
}

// edge is twice the signed area of triangle (a, b, c). It is positive when
// c lies to the left of a->b in framebuffer coordinates.
func edge(ax, ay, bx, by, cx, cy float32) float32 {
	return (cx-ax)*(by-ay) - (cy-ay)*(bx-ax)
}

// covers applies the top-left fill rule: pixel centres exactly on an edge
// belong to the triangle only if the edge is a top or left edge.
func covers(w float32, topLeft bool) bool {
	return w > 0 || (w == 0 && topLeft)
}
