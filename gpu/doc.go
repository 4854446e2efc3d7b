// Package gpu draws textured meshes on a hardware device through the
// wgpu HAL.
//
// The Renderer compiles the embedded WGSL program once, builds the two bind
// group layouts (texture and sampler at group 0, camera uniform at group 1)
// and renders each Frame into an offscreen RGBA8 target that is read back
// into an *image.NRGBA.
//
// A Renderer can own its device (OpenDefault) or borrow one from a host
// application that exposes HAL types (NewRendererFromProvider):
//
//	r, err := gpu.OpenDefault()
//	if err != nil {
//		return err
//	}
//	defer r.Destroy()
//
//	img, err := r.Render(gpu.Frame{
//		Width: 256, Height: 256,
//		Mesh:    texquad.UnitQuad(),
//		Camera:  texquad.IdentityCamera(),
//		Texture: tex,
//		Sampler: texture.DefaultSampler(),
//	})
//
// Build with the nogpu tag to exclude the Vulkan backend.
package gpu
