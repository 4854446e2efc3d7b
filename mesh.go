package texquad

import (
	"errors"
	"fmt"
)

// ErrInvalidMesh is returned by Mesh.Validate.
var ErrInvalidMesh = errors.New("texquad: invalid mesh")

// Mesh is an indexed triangle list.
type Mesh struct {
	Vertices []VertexInput
	Indices  []uint16 // three per triangle, counter-clockwise front faces
}

// Triangle is one assembled primitive.
type Triangle [3]VertexInput

// UnitQuad returns the quad covering clip space under an identity camera:
// corners (-1,-1), (1,-1), (1,1), (-1,1) at z = 0 with texture coordinates
// (0,0), (1,0), (1,1), (0,1), split into two counter-clockwise triangles.
func UnitQuad() Mesh {
	return Mesh{
		Vertices: []VertexInput{
			Vertex(-1, -1, 0, 0, 0),
			Vertex(1, -1, 0, 1, 0),
			Vertex(1, 1, 0, 1, 1),
			Vertex(-1, 1, 0, 0, 1),
		},
		Indices: []uint16{0, 1, 2, 0, 2, 3},
	}
}

// Validate reports whether the index list describes whole triangles that
// reference existing vertices.
func (m Mesh) Validate() error {
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices is not a multiple of 3", ErrInvalidMesh, len(m.Indices))
	}
	for i, idx := range m.Indices {
		if int(idx) >= len(m.Vertices) {
			return fmt.Errorf("%w: index %d at position %d exceeds %d vertices",
				ErrInvalidMesh, idx, i, len(m.Vertices))
		}
	}
	return nil
}

// TriangleCount returns the number of triangles in the index list.
func (m Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Triangles assembles the index list into primitives. The mesh must be
// valid.
func (m Mesh) Triangles() []Triangle {
	tris := make([]Triangle, 0, m.TriangleCount())
	for i := 0; i+2 < len(m.Indices); i += 3 {
		tris = append(tris, Triangle{
			m.Vertices[m.Indices[i]],
			m.Vertices[m.Indices[i+1]],
			m.Vertices[m.Indices[i+2]],
		})
	}
	return tris
}

// Flatten returns the de-indexed vertex list, three vertices per triangle,
// for hosts that issue non-indexed draws. The mesh must be valid.
func (m Mesh) Flatten() []VertexInput {
	out := make([]VertexInput, 0, len(m.Indices))
	for _, idx := range m.Indices {
		out = append(out, m.Vertices[idx])
	}
	return out
}
