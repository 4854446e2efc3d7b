package raster

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/texquad"
	"github.com/gogpu/texquad/internal/parallel"
)

// Interpolation selects how vertex outputs are blended across a triangle.
type Interpolation uint8

const (
	// PerspectiveCorrect divides barycentric weights by clip w. This is the
	// WebGPU default for user-defined outputs.
	PerspectiveCorrect Interpolation = iota

	// Linear blends in screen space.
	Linear
)

// String implements fmt.Stringer.
func (i Interpolation) String() string {
	if i == Linear {
		return "linear"
	}
	return "perspective"
}

// DefaultClearColor is the colour pixels receive before any triangle is
// drawn.
var DefaultClearColor = texquad.Color{R: 0.1, G: 0.2, B: 0.3, A: 1}

// Config is the resolved pipeline configuration.
type Config struct {
	Width, Height int
	ClearColor    texquad.Color
	CullMode      gputypes.CullMode
	FrontFace     gputypes.FrontFace
	Interpolation Interpolation
	Workers       int // 0 selects GOMAXPROCS
	TileSize      int // edge length of a tile in pixels
}

func defaultConfig(width, height int) Config {
	return Config{
		Width:         width,
		Height:        height,
		ClearColor:    DefaultClearColor,
		CullMode:      gputypes.CullModeBack,
		FrontFace:     gputypes.FrontFaceCCW,
		Interpolation: PerspectiveCorrect,
		TileSize:      parallel.DefaultTileSize,
	}
}

// Option configures a Pipeline.
//
// Example:
//
//	p, err := raster.NewPipeline(640, 480,
//	    raster.WithCullMode(gputypes.CullModeNone),
//	    raster.WithClearColor(texquad.Color{A: 1}),
//	)
type Option func(*Config)

// WithClearColor sets the colour the framebuffer is cleared to.
func WithClearColor(c texquad.Color) Option {
	return func(cfg *Config) {
		cfg.ClearColor = c
	}
}

// WithCullMode sets which faces are discarded. The default is
// gputypes.CullModeBack.
func WithCullMode(mode gputypes.CullMode) Option {
	return func(cfg *Config) {
		cfg.CullMode = mode
	}
}

// WithFrontFace sets the winding, as seen in NDC with +y up, that counts
// as front facing. The default is gputypes.FrontFaceCCW.
func WithFrontFace(face gputypes.FrontFace) Option {
	return func(cfg *Config) {
		cfg.FrontFace = face
	}
}

// WithInterpolation selects the interpolation mode.
func WithInterpolation(mode Interpolation) Option {
	return func(cfg *Config) {
		cfg.Interpolation = mode
	}
}

// WithWorkers sets the number of shading goroutines.
func WithWorkers(n int) Option {
	return func(cfg *Config) {
		cfg.Workers = n
	}
}

// WithTileSize sets the tile edge length in pixels.
func WithTileSize(size int) Option {
	return func(cfg *Config) {
		if size > 0 {
			cfg.TileSize = size
		}
	}
}
