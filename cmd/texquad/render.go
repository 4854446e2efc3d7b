package main

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/gogpu/texquad"
	"github.com/gogpu/texquad/config"
	"github.com/gogpu/texquad/gpu"
	"github.com/gogpu/texquad/raster"
	"github.com/gogpu/texquad/texture"
)

// frameRenderer draws the unit quad under a camera uniform with tex bound.
type frameRenderer interface {
	Render(ctx context.Context, cam texquad.CameraUniform, tex *texture.Image) (image.Image, error)
	Close()
}

// textures hands out the texture for each frame. Animated textures are
// built per frame, the rest once.
type textures struct {
	cfg    config.Config
	static *texture.Image
}

func newTextures(cfg config.Config) (*textures, error) {
	if cfg.Animated() {
		return &textures{cfg: cfg}, nil
	}
	img, err := cfg.Image()
	if err != nil {
		return nil, err
	}
	return &textures{cfg: cfg, static: img}, nil
}

func (t *textures) frame(ctx context.Context, i int) (*texture.Image, error) {
	if t.static != nil {
		return t.static, nil
	}
	return t.cfg.FrameImage(ctx, i)
}

func newRenderer(cfg config.Config) (frameRenderer, error) {
	sampler, err := cfg.TextureSampler()
	if err != nil {
		return nil, err
	}
	cull, err := cfg.CullMode()
	if err != nil {
		return nil, err
	}
	front, err := cfg.Winding()
	if err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case config.BackendGPU:
		r, err := gpu.OpenDefault(
			gpu.WithCullMode(cull),
			gpu.WithFrontFace(front),
			gpu.WithClearColor(cfg.Clear()),
		)
		if err != nil {
			return nil, err
		}
		return &gpuRenderer{r: r, cfg: cfg, sampler: sampler}, nil

	case config.BackendSoftware:
		interp := raster.PerspectiveCorrect
		if cfg.Interpolation == "linear" {
			interp = raster.Linear
		}
		p, err := raster.NewPipeline(cfg.Width, cfg.Height,
			raster.WithCullMode(cull),
			raster.WithFrontFace(front),
			raster.WithClearColor(cfg.Clear()),
			raster.WithInterpolation(interp),
			raster.WithWorkers(cfg.Workers),
		)
		if err != nil {
			return nil, err
		}
		return &softwareRenderer{p: p, sampler: sampler}, nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

type softwareRenderer struct {
	p       *raster.Pipeline
	sampler texture.Sampler
}

func (s *softwareRenderer) Render(ctx context.Context, cam texquad.CameraUniform, tex *texture.Image) (image.Image, error) {
	fb, err := s.p.Draw(ctx, texquad.UnitQuad(), raster.Bindings{
		Camera:  cam,
		Texture: tex,
		Sampler: s.sampler,
	})
	if err != nil {
		return nil, err
	}
	return fb.Image(), nil
}

func (s *softwareRenderer) Close() { s.p.Close() }

type gpuRenderer struct {
	r       *gpu.Renderer
	cfg     config.Config
	sampler texture.Sampler
}

func (g *gpuRenderer) Render(ctx context.Context, cam texquad.CameraUniform, tex *texture.Image) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := g.r.Render(gpu.Frame{
		Width:   g.cfg.Width,
		Height:  g.cfg.Height,
		Mesh:    texquad.UnitQuad(),
		Camera:  cam,
		Texture: tex,
		Sampler: g.sampler,
	})
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (g *gpuRenderer) Close() { g.r.Destroy() }

func savePNG(path string, img image.Image) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
