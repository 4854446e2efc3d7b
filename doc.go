// Package texquad provides a textured, camera-transformed shader program
// and the host-side contracts needed to run it.
//
// # Overview
//
// The program has two stages. The vertex stage maps a model-space vertex to
// clip space through a per-frame view-projection uniform and passes the
// texture coordinate through. The fragment stage samples a bound texture
// with a bound sampler and returns the texel unchanged.
//
// The WGSL source is embedded and can be handed to any WebGPU host:
//
//	src := texquad.ShaderSource()
//
// The same stage contracts are available as pure Go functions so a software
// host or a test harness can evaluate them directly:
//
//	out := texquad.VertexStage(in, texquad.IdentityCamera())
//	c := texquad.FragmentStage(out.TexCoords, img, texture.DefaultSampler())
//
// Hardware interpolation between the two stages is modelled explicitly by
// [Interpolate] and [InterpolatePerspective].
//
// # Binding Layout
//
//	Group  Binding  Resource          Type
//	0      0        texture_data      2-D float texture
//	0      1        texture_sampler   sampler
//	1      0        camera            uniform buffer, one mat4x4<f32>
//
// Vertex attributes are position (location 0, 3 x float32) and
// texture_coords (location 1, 2 x float32), tightly packed with a 20-byte
// stride.
//
// # Hosts
//
// Package raster runs the program on the CPU. Package gpu runs it through
// a WebGPU HAL device. Both take the camera, texture and sampler as an
// explicit per-draw binding set; nothing is held in package state.
//
// # Coordinate System
//
// Clip space follows WebGPU: x right, y up, z in [0, 1]. Framebuffer row 0
// is the top row. Texture coordinate (0, 0) addresses texel (0, 0), which is
// the first texel of the uploaded data.
package texquad

// Version is the current version of the module.
const Version = "0.1.0"
