package gpu

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/texquad"
	"github.com/gogpu/texquad/internal/cache"
	"github.com/gogpu/texquad/texture"
)

// Render errors.
var (
	// ErrInvalidFrame is returned for frames with non-positive dimensions,
	// a missing texture or a malformed mesh.
	ErrInvalidFrame = errors.New("gpu: invalid frame")

	// ErrUnsupportedFormat is returned by NewRenderer for colour target
	// formats that cannot be read back as RGBA8.
	ErrUnsupportedFormat = errors.New("gpu: unsupported target format")

	// ErrDestroyed is returned by Render after Destroy.
	ErrDestroyed = errors.New("gpu: renderer destroyed")

	// ErrTimeout is returned by Render when the queue does not report the
	// frame's submission complete within the configured timeout.
	ErrTimeout = errors.New("gpu: frame timed out")
)

const (
	// copyRowAlignment is the row pitch alignment required for texture to
	// buffer copies.
	copyRowAlignment = 256

	// pollInterval is how often waitSubmission asks the queue for progress.
	pollInterval = 100 * time.Microsecond
)

// Frame is one draw: a mesh, its bindings and the size of the target.
type Frame struct {
	Width, Height int
	Mesh          texquad.Mesh
	Camera        texquad.CameraUniform // group 1, binding 0
	Texture       *texture.Image        // group 0, binding 0
	Sampler       texture.Sampler       // group 0, binding 1
}

// Validate reports frames Render would reject.
func (f *Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidFrame, f.Width, f.Height)
	}
	if f.Texture == nil {
		return fmt.Errorf("%w: no texture bound", ErrInvalidFrame)
	}
	if err := f.Mesh.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFrame, err)
	}
	return nil
}

// Renderer draws frames with the textured-quad program on a HAL device.
// It is safe for concurrent use; frames are rendered one at a time.
type Renderer struct {
	mu   sync.Mutex
	opts options

	instance   hal.Instance
	device     hal.Device
	queue      hal.Queue
	ownsDevice bool
	destroyed  bool

	// Pipeline objects, created on first Render.
	shader        hal.ShaderModule
	textureLayout hal.BindGroupLayout
	cameraLayout  hal.BindGroupLayout
	pipeLayout    hal.PipelineLayout
	pipeline      hal.RenderPipeline

	// Colour target, recreated when the frame size changes.
	target     hal.Texture
	targetView hal.TextureView
	width      uint32
	height     uint32

	// Uploaded textures and device samplers, least recently used evicted.
	sources  *cache.LRU[*texture.Image, residentTexture]
	samplers *cache.LRU[texture.Sampler, hal.Sampler]
}

// residentTexture is a texture uploaded to the device.
type residentTexture struct {
	tex  hal.Texture
	view hal.TextureView
}

// NewRenderer creates a Renderer on an existing device and queue. The caller
// keeps ownership of both.
func NewRenderer(device hal.Device, queue hal.Queue, opts ...Option) (*Renderer, error) {
	if device == nil || queue == nil {
		return nil, ErrNoDevice
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	switch o.format {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm:
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, o.format)
	}
	r := &Renderer{
		opts:   o,
		device: device,
		queue:  queue,
	}
	r.sources = cache.New(o.residentTextures, func(_ *texture.Image, rt residentTexture) {
		r.device.DestroyTextureView(rt.view)
		r.device.DestroyTexture(rt.tex)
	})
	r.samplers = cache.New(o.residentTextures, func(_ texture.Sampler, s hal.Sampler) {
		r.device.DestroySampler(s)
	})
	return r, nil
}

// Size returns the current colour target dimensions.
func (r *Renderer) Size() (uint32, uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

// Render draws frame into a cleared target and returns the pixels.
func (r *Renderer) Render(frame Frame) (*image.NRGBA, error) {
	if err := frame.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.destroyed {
		return nil, ErrDestroyed
	}

	w, h := uint32(frame.Width), uint32(frame.Height) //nolint:gosec // validated positive
	if err := r.ensureReady(w, h); err != nil {
		return nil, err
	}
	source, err := r.sources.GetOrCreate(frame.Texture, func() (residentTexture, error) {
		return r.upload(frame.Texture)
	})
	if err != nil {
		return nil, err
	}
	sampler, err := r.samplers.GetOrCreate(frame.Sampler, func() (hal.Sampler, error) {
		hs, err := r.device.CreateSampler(samplerDescriptor(frame.Sampler))
		if err != nil {
			return nil, fmt.Errorf("gpu: create sampler %s: %w", frame.Sampler, err)
		}
		return hs, nil
	})
	if err != nil {
		return nil, err
	}

	vertices := frame.Mesh.Flatten()
	if len(vertices) == 0 {
		return r.clearOnly(w, h)
	}

	vertBuf, err := r.createAndUploadBuffer("texquad_vertices",
		texquad.EncodeVertices(vertices), gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	defer r.device.DestroyBuffer(vertBuf)

	cameraBuf, err := r.createAndUploadBuffer("texquad_camera",
		frame.Camera.Bytes(), gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	defer r.device.DestroyBuffer(cameraBuf)

	textureGroup, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "texquad_texture_bind",
		Layout: r.textureLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: texquad.TextureBinding, Resource: gputypes.TextureViewBinding{
				TextureView: source.view.NativeHandle(),
			}},
			{Binding: texquad.SamplerBinding, Resource: gputypes.SamplerBinding{
				Sampler: sampler.NativeHandle(),
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create texture bind group: %w", err)
	}
	defer r.device.DestroyBindGroup(textureGroup)

	cameraGroup, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "texquad_camera_bind",
		Layout: r.cameraLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: texquad.CameraBinding, Resource: gputypes.BufferBinding{
				Buffer: cameraBuf.NativeHandle(), Offset: 0, Size: texquad.CameraUniformSize,
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create camera bind group: %w", err)
	}
	defer r.device.DestroyBindGroup(cameraGroup)

	texquad.Logger().Debug("gpu: render",
		"width", w, "height", h,
		"vertices", len(vertices), "sampler", frame.Sampler.String())

	return r.encodeAndReadback(w, h, func(rp hal.RenderPassEncoder) {
		rp.SetPipeline(r.pipeline)
		rp.SetBindGroup(texquad.TextureGroup, textureGroup, nil)
		rp.SetBindGroup(texquad.CameraGroup, cameraGroup, nil)
		rp.SetVertexBuffer(0, vertBuf, 0)
		rp.Draw(uint32(len(vertices)), 1, 0, 0) //nolint:gosec // vertex count fits in uint32
	})
}

// clearOnly renders a frame with no geometry.
func (r *Renderer) clearOnly(w, h uint32) (*image.NRGBA, error) {
	return r.encodeAndReadback(w, h, nil)
}

// ensureReady creates the pipeline and colour target if needed.
func (r *Renderer) ensureReady(w, h uint32) error {
	if r.pipeline == nil {
		if err := r.createPipeline(); err != nil {
			return err
		}
	}
	return r.ensureTarget(w, h)
}

// createPipeline compiles the shader and creates the layouts and the render
// pipeline. Partially created objects are released on failure.
func (r *Renderer) createPipeline() error {
	shader, err := r.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "texquad_shader",
		Source: hal.ShaderSource{WGSL: texquad.ShaderSource()},
	})
	if err != nil {
		return fmt.Errorf("gpu: compile shader: %w", err)
	}
	r.shader = shader

	textureLayout, err := r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   "texquad_texture_layout",
		Entries: texquad.TextureBindGroupLayoutEntries(),
	})
	if err != nil {
		r.destroyPipeline()
		return fmt.Errorf("gpu: create texture layout: %w", err)
	}
	r.textureLayout = textureLayout

	cameraLayout, err := r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   "texquad_camera_layout",
		Entries: texquad.CameraBindGroupLayoutEntries(),
	})
	if err != nil {
		r.destroyPipeline()
		return fmt.Errorf("gpu: create camera layout: %w", err)
	}
	r.cameraLayout = cameraLayout

	// Group order follows the binding table: textures at 0, camera at 1.
	pipeLayout, err := r.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "texquad_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{r.textureLayout, r.cameraLayout},
	})
	if err != nil {
		r.destroyPipeline()
		return fmt.Errorf("gpu: create pipeline layout: %w", err)
	}
	r.pipeLayout = pipeLayout

	pipeline, err := r.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "texquad_pipeline",
		Layout: r.pipeLayout,
		Vertex: hal.VertexState{
			Module:     r.shader,
			EntryPoint: texquad.VertexEntryPoint,
			Buffers:    []gputypes.VertexBufferLayout{texquad.VertexBufferLayout()},
		},
		Fragment: &hal.FragmentState{
			Module:     r.shader,
			EntryPoint: texquad.FragmentEntryPoint,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    r.opts.format,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleList,
			FrontFace: r.opts.frontFace,
			CullMode:  r.opts.cullMode,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		r.destroyPipeline()
		return fmt.Errorf("gpu: create render pipeline: %w", err)
	}
	r.pipeline = pipeline

	texquad.Logger().Debug("gpu: pipeline created",
		"format", r.opts.format, "cull", r.opts.cullMode, "front", r.opts.frontFace)
	return nil
}

// ensureTarget creates or recreates the colour target when the requested
// dimensions differ from the current size.
func (r *Renderer) ensureTarget(w, h uint32) error {
	if r.width == w && r.height == h && r.target != nil {
		return nil
	}
	r.destroyTarget()

	tex, err := r.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "texquad_target",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        r.opts.format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("gpu: create target: %w", err)
	}
	r.target = tex

	view, err := r.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "texquad_target_view",
		Format:        r.opts.format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		r.destroyTarget()
		return fmt.Errorf("gpu: create target view: %w", err)
	}
	r.targetView = view

	r.width = w
	r.height = h
	return nil
}

// upload copies img into a new sampled texture.
func (r *Renderer) upload(img *texture.Image) (residentTexture, error) {
	w, h := uint32(img.Width()), uint32(img.Height()) //nolint:gosec // image dimensions are positive
	tex, err := r.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "texquad_source",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return residentTexture{}, fmt.Errorf("gpu: create source texture: %w", err)
	}

	view, err := r.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "texquad_source_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		r.device.DestroyTexture(tex)
		return residentTexture{}, fmt.Errorf("gpu: create source view: %w", err)
	}

	err = r.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, MipLevel: 0},
		img.Bytes(),
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(img.Stride()), //nolint:gosec // image dimensions are positive
			RowsPerImage: h,
		},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
	if err != nil {
		r.device.DestroyTextureView(view)
		r.device.DestroyTexture(tex)
		return residentTexture{}, fmt.Errorf("gpu: write source texture: %w", err)
	}
	texquad.Logger().Debug("gpu: texture uploaded", "image", img.String())
	return residentTexture{tex: tex, view: view}, nil
}

// samplerDescriptor maps a texture.Sampler onto the HAL descriptor. Unset
// fields resolve to clamp-to-edge and nearest, as in the software sampler.
func samplerDescriptor(s texture.Sampler) *hal.SamplerDescriptor {
	return &hal.SamplerDescriptor{
		Label:        "texquad_sampler",
		AddressModeU: addressMode(s.AddressModeU),
		AddressModeV: addressMode(s.AddressModeV),
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    filterMode(s.MagFilter),
		MinFilter:    filterMode(s.MinFilter),
		MipmapFilter: gputypes.FilterModeNearest,
	}
}

func addressMode(m gputypes.AddressMode) gputypes.AddressMode {
	switch m {
	case gputypes.AddressModeRepeat, gputypes.AddressModeMirrorRepeat:
		return m
	default:
		return gputypes.AddressModeClampToEdge
	}
}

func filterMode(m gputypes.FilterMode) gputypes.FilterMode {
	if m == gputypes.FilterModeLinear {
		return m
	}
	return gputypes.FilterModeNearest
}

// encodeAndReadback encodes one render pass that clears the target and
// runs draw, copies the target to a staging buffer, submits, waits, and
// reads back pixels. A nil draw only clears.
func (r *Renderer) encodeAndReadback(w, h uint32, draw func(hal.RenderPassEncoder)) (*image.NRGBA, error) {
	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "texquad_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("texquad"); err != nil {
		return nil, fmt.Errorf("gpu: begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(r.passDescriptor())
	if draw != nil {
		draw(rp)
	}
	rp.End()

	// The target leaves the pass in attachment layout; the copy needs it
	// as a transfer source. No-op on backends without layouts.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: r.target,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	rowPitch := alignedRowPitch(w)
	stagingSize := uint64(rowPitch) * uint64(h)
	stagingBuf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "texquad_staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("gpu: create staging buffer: %w", err)
	}
	defer r.device.DestroyBuffer(stagingBuf)

	encoder.CopyTextureToBuffer(r.target, stagingBuf, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: rowPitch, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: r.target, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("gpu: end encoding: %w", err)
	}
	defer r.device.FreeCommandBuffer(cmdBuf)

	idx, err := r.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return nil, fmt.Errorf("gpu: submit: %w", err)
	}
	if err := r.waitSubmission(idx); err != nil {
		return nil, err
	}

	mapping, err := r.device.MapBuffer(stagingBuf, 0, stagingSize)
	if err != nil {
		return nil, fmt.Errorf("gpu: map staging buffer: %w", err)
	}
	staging := make([]byte, stagingSize)
	copy(staging, unsafe.Slice((*byte)(mapping.Ptr), stagingSize))
	if err := r.device.UnmapBuffer(stagingBuf); err != nil {
		return nil, fmt.Errorf("gpu: unmap staging buffer: %w", err)
	}
	return unpackRows(staging, w, h, rowPitch, r.opts.format == gputypes.TextureFormatBGRA8Unorm), nil
}

// waitSubmission polls the queue until submission idx has completed. It
// returns ErrTimeout once the configured timeout has passed.
func (r *Renderer) waitSubmission(idx uint64) error {
	deadline := time.Now().Add(r.opts.timeout)
	for r.queue.PollCompleted() < idx {
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: submission %d after %v", ErrTimeout, idx, r.opts.timeout)
		}
		time.Sleep(pollInterval)
	}
	return nil
}

// passDescriptor describes the single render pass: one colour attachment
// cleared to the configured colour and stored.
func (r *Renderer) passDescriptor() *hal.RenderPassDescriptor {
	c := r.opts.clearColor
	return &hal.RenderPassDescriptor{
		Label: "texquad_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       r.targetView,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B), A: float64(c.A)},
			},
		},
	}
}

// alignedRowPitch rounds a row of w RGBA8 pixels up to copyRowAlignment.
func alignedRowPitch(w uint32) uint32 {
	pitch := w * texture.BytesPerTexel
	return (pitch + copyRowAlignment - 1) / copyRowAlignment * copyRowAlignment
}

// unpackRows strips row padding from staging and, for BGRA targets, swaps
// the red and blue channels.
func unpackRows(staging []byte, w, h, rowPitch uint32, bgra bool) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, int(w), int(h)))
	rowBytes := int(w) * texture.BytesPerTexel
	for y := 0; y < int(h); y++ {
		src := staging[y*int(rowPitch) : y*int(rowPitch)+rowBytes]
		dst := img.Pix[y*img.Stride : y*img.Stride+rowBytes]
		copy(dst, src)
		if bgra {
			for i := 0; i < rowBytes; i += texture.BytesPerTexel {
				dst[i], dst[i+2] = dst[i+2], dst[i]
			}
		}
	}
	return img
}

// createAndUploadBuffer creates a GPU buffer and uploads data.
func (r *Renderer) createAndUploadBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create %s: %w", label, err)
	}
	if err := r.queue.WriteBuffer(buf, 0, data); err != nil {
		r.device.DestroyBuffer(buf)
		return nil, fmt.Errorf("gpu: write %s: %w", label, err)
	}
	return buf, nil
}

// Destroy releases every resource the renderer created, in reverse
// creation order, and the device if the renderer opened it. It is safe to
// call more than once.
func (r *Renderer) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.destroyed {
		return
	}
	r.destroyed = true

	r.samplers.Clear()
	r.sources.Clear()
	r.destroyTarget()
	r.destroyPipeline()

	if r.ownsDevice {
		r.device.Destroy()
	}
	if r.instance != nil {
		r.instance.Destroy()
		r.instance = nil
	}
}

func (r *Renderer) destroyTarget() {
	if r.targetView != nil {
		r.device.DestroyTextureView(r.targetView)
		r.targetView = nil
	}
	if r.target != nil {
		r.device.DestroyTexture(r.target)
		r.target = nil
	}
	r.width = 0
	r.height = 0
}

// destroyPipeline releases all pipeline resources in reverse creation order.
func (r *Renderer) destroyPipeline() {
	if r.pipeline != nil {
		r.device.DestroyRenderPipeline(r.pipeline)
		r.pipeline = nil
	}
	if r.pipeLayout != nil {
		r.device.DestroyPipelineLayout(r.pipeLayout)
		r.pipeLayout = nil
	}
	if r.cameraLayout != nil {
		r.device.DestroyBindGroupLayout(r.cameraLayout)
		r.cameraLayout = nil
	}
	if r.textureLayout != nil {
		r.device.DestroyBindGroupLayout(r.textureLayout)
		r.textureLayout = nil
	}
	if r.shader != nil {
		r.device.DestroyShaderModule(r.shader)
		r.shader = nil
	}
}
