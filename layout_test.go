package texquad

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestVertexBufferLayout(t *testing.T) {
	l := VertexBufferLayout()
	if l.ArrayStride != VertexStride {
		t.Errorf("ArrayStride = %d, want %d", l.ArrayStride, VertexStride)
	}
	if len(l.Attributes) != 2 {
		t.Fatalf("len(Attributes) = %d, want 2", len(l.Attributes))
	}
	pos, uv := l.Attributes[0], l.Attributes[1]
	if pos.ShaderLocation != 0 || pos.Format != gputypes.VertexFormatFloat32x3 || pos.Offset != 0 {
		t.Errorf("position attribute = %+v", pos)
	}
	if uv.ShaderLocation != 1 || uv.Format != gputypes.VertexFormatFloat32x2 || uv.Offset != 12 {
		t.Errorf("texture_coords attribute = %+v", uv)
	}
}

func TestBindGroupLayoutEntries(t *testing.T) {
	tex := TextureBindGroupLayoutEntries()
	if len(tex) != 2 {
		t.Fatalf("group 0 has %d entries, want 2", len(tex))
	}
	if tex[0].Binding != 0 || tex[0].Texture == nil {
		t.Errorf("binding 0 = %+v, want texture", tex[0])
	}
	if tex[1].Binding != 1 || tex[1].Sampler == nil {
		t.Errorf("binding 1 = %+v, want sampler", tex[1])
	}

	cam := CameraBindGroupLayoutEntries()
	if len(cam) != 1 || cam[0].Buffer == nil {
		t.Fatalf("group 1 = %+v, want one uniform buffer", cam)
	}
	if cam[0].Buffer.Type != gputypes.BufferBindingTypeUniform {
		t.Errorf("buffer type = %v, want uniform", cam[0].Buffer.Type)
	}
	if cam[0].Visibility&gputypes.ShaderStageVertex == 0 {
		t.Error("camera must be visible to the vertex stage")
	}
}

func TestEncodeVertices(t *testing.T) {
	b := EncodeVertices([]VertexInput{Vertex(1, 2, 3, 4, 5), Vertex(-1, 0, 0, 0.5, 0.25)})
	if len(b) != 2*VertexStride {
		t.Fatalf("len = %d, want %d", len(b), 2*VertexStride)
	}
	want := []float32{1, 2, 3, 4, 5, -1, 0, 0, 0.5, 0.25}
	for i, w := range want {
		got := math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
		if got != w {
			t.Errorf("float %d = %v, want %v", i, got, w)
		}
	}
}
