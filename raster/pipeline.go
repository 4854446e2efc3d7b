package raster

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/texquad"
	"github.com/gogpu/texquad/internal/parallel"
	"github.com/gogpu/texquad/texture"
)

// Pipeline errors.
var (
	// ErrInvalidSize is returned for non-positive framebuffer dimensions.
	ErrInvalidSize = errors.New("raster: invalid framebuffer size")

	// ErrNilTexture is returned when a draw has no texture bound.
	ErrNilTexture = errors.New("raster: no texture bound")

	// ErrInvalidMesh is returned when a mesh's index list is malformed.
	ErrInvalidMesh = texquad.ErrInvalidMesh

	// ErrSizeMismatch is returned by DrawInto when the target framebuffer
	// differs from the pipeline's configured size.
	ErrSizeMismatch = errors.New("raster: framebuffer size mismatch")
)

// Bindings is the resource set bound for one draw. It is read-only for the
// duration of the draw and shared by every invocation.
type Bindings struct {
	Camera  texquad.CameraUniform // group 1, binding 0
	Texture *texture.Image        // group 0, binding 0
	Sampler texture.Sampler       // group 0, binding 1
}

// Validate reports missing resources.
func (b Bindings) Validate() error {
	if b.Texture == nil {
		return ErrNilTexture
	}
	return nil
}

// Pipeline is a configured software render pipeline. It holds no per-draw
// state and may be used by several goroutines at once.
type Pipeline struct {
	cfg   Config
	pool  *parallel.WorkerPool
	tiles []parallel.Tile
}

// NewPipeline creates a pipeline rendering into width x height
// framebuffers. Close releases its worker goroutines.
func NewPipeline(width, height int, opts ...Option) (*Pipeline, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	cfg := defaultConfig(width, height)
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Pipeline{
		cfg:   cfg,
		pool:  parallel.NewWorkerPool(cfg.Workers),
		tiles: parallel.Split(width, height, cfg.TileSize),
	}
	texquad.Logger().Debug("raster: pipeline created",
		"width", width, "height", height,
		"workers", p.pool.Workers(), "tiles", len(p.tiles),
		"interpolation", cfg.Interpolation)
	return p, nil
}

// Config returns the resolved configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Close stops the worker goroutines. Draws after Close fail.
func (p *Pipeline) Close() {
	p.pool.Close()
}

// Draw clears a new framebuffer to the configured clear colour and draws
// mesh into it.
func (p *Pipeline) Draw(ctx context.Context, mesh texquad.Mesh, b Bindings) (*Framebuffer, error) {
	fb, err := NewFramebuffer(p.cfg.Width, p.cfg.Height)
	if err != nil {
		return nil, err
	}
	fb.Clear(p.cfg.ClearColor)
	if err := p.DrawInto(ctx, fb, mesh, b); err != nil {
		return nil, err
	}
	return fb, nil
}

// DrawInto draws mesh into an existing framebuffer without clearing it,
// the equivalent of a render pass with a load operation of "load".
func (p *Pipeline) DrawInto(ctx context.Context, fb *Framebuffer, mesh texquad.Mesh, b Bindings) error {
	if fb.width != p.cfg.Width || fb.height != p.cfg.Height {
		return fmt.Errorf("%w: framebuffer %dx%d, pipeline %dx%d",
			ErrSizeMismatch, fb.width, fb.height, p.cfg.Width, p.cfg.Height)
	}
	if err := b.Validate(); err != nil {
		return err
	}
	if err := mesh.Validate(); err != nil {
		return fmt.Errorf("raster: %w", err)
	}

	// Vertex stage, once per vertex.
	outputs := make([]texquad.VertexOutput, len(mesh.Vertices))
	for i, v := range mesh.Vertices {
		outputs[i] = texquad.VertexStage(v, b.Camera)
	}

	// Primitive assembly and triangle setup.
	tris := make([]setup, 0, mesh.TriangleCount())
	var rejected, culled int
	for i := 0; i+2 < len(mesh.Indices); i += 3 {
		a := outputs[mesh.Indices[i]]
		bb := outputs[mesh.Indices[i+1]]
		c := outputs[mesh.Indices[i+2]]
		s, status := p.setupTriangle(a, bb, c)
		switch status {
		case triangleVisible:
			tris = append(tris, s)
		case triangleCulled:
			culled++
		default:
			rejected++
		}
	}

	texquad.Logger().Debug("raster: draw",
		"vertices", len(mesh.Vertices), "triangles", mesh.TriangleCount(),
		"visible", len(tris), "culled", culled, "rejected", rejected)

	if len(tris) == 0 {
		return ctx.Err()
	}

	sh := shader{
		tex:       b.Texture,
		sampler:   b.Sampler,
		footprint: b.Sampler.MinFilter != b.Sampler.MagFilter,
		interp:    p.cfg.Interpolation,
	}
	err := p.pool.Run(ctx, len(p.tiles), func(i int) {
		tile := p.tiles[i]
		for j := range tris {
			sh.rasterize(fb, &tris[j], tile)
		}
	})
	if err != nil {
		return fmt.Errorf("raster: draw: %w", err)
	}
	return nil
}
