package texquad

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"
)

// Bind group and binding indices.
const (
	TextureGroup   = 0
	TextureBinding = 0
	SamplerBinding = 1

	CameraGroup   = 1
	CameraBinding = 0
)

// Vertex attribute locations and buffer layout.
const (
	PositionLocation  = 0
	TexCoordsLocation = 1

	// VertexStride is the byte size of one packed VertexInput:
	// position (3 x f32) followed by texture_coords (2 x f32).
	VertexStride = 20
)

// VertexBufferLayout returns the layout of the single vertex buffer.
func VertexBufferLayout() gputypes.VertexBufferLayout {
	return gputypes.VertexBufferLayout{
		ArrayStride: VertexStride,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: PositionLocation},
			{Format: gputypes.VertexFormatFloat32x2, Offset: 12, ShaderLocation: TexCoordsLocation},
		},
	}
}

// TextureBindGroupLayoutEntries returns the entries of group 0: a filterable
// 2-D float texture and a filtering sampler, both visible to the fragment
// stage.
func TextureBindGroupLayoutEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		{
			Binding:    TextureBinding,
			Visibility: gputypes.ShaderStageFragment,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			},
		},
		{
			Binding:    SamplerBinding,
			Visibility: gputypes.ShaderStageFragment,
			Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
		},
	}
}

// CameraBindGroupLayoutEntries returns the entries of group 1: the camera
// uniform buffer, visible to the vertex stage.
func CameraBindGroupLayoutEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		{
			Binding:    CameraBinding,
			Visibility: gputypes.ShaderStageVertex,
			Buffer: &gputypes.BufferBindingLayout{
				Type:           gputypes.BufferBindingTypeUniform,
				MinBindingSize: CameraUniformSize,
			},
		},
	}
}

// EncodeVertices packs vertices into vertex buffer bytes (little-endian,
// VertexStride bytes per vertex).
func EncodeVertices(vertices []VertexInput) []byte {
	buf := make([]byte, len(vertices)*VertexStride)
	for i, v := range vertices {
		b := buf[i*VertexStride:]
		binary.LittleEndian.PutUint32(b[0:4], math.Float32bits(v.Position[0]))
		binary.LittleEndian.PutUint32(b[4:8], math.Float32bits(v.Position[1]))
		binary.LittleEndian.PutUint32(b[8:12], math.Float32bits(v.Position[2]))
		binary.LittleEndian.PutUint32(b[12:16], math.Float32bits(v.TexCoords[0]))
		binary.LittleEndian.PutUint32(b[16:20], math.Float32bits(v.TexCoords[1]))
	}
	return buf
}
