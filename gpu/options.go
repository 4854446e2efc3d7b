package gpu

import (
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/texquad"
)

// DefaultTimeout bounds how long Render waits for the GPU to finish a frame.
const DefaultTimeout = 5 * time.Second

// DefaultResidentTextures is how many uploaded textures, and separately how
// many samplers, a Renderer keeps on the device.
const DefaultResidentTextures = 8

// DefaultClearColor matches the software rasterizer's clear colour.
var DefaultClearColor = texquad.Color{R: 0.1, G: 0.2, B: 0.3, A: 1}

type options struct {
	format     gputypes.TextureFormat
	cullMode   gputypes.CullMode
	frontFace  gputypes.FrontFace
	clearColor texquad.Color
	timeout    time.Duration

	residentTextures int
}

func defaultOptions() options {
	return options{
		format:     gputypes.TextureFormatRGBA8Unorm,
		cullMode:   gputypes.CullModeBack,
		frontFace:  gputypes.FrontFaceCCW,
		clearColor: DefaultClearColor,
		timeout:    DefaultTimeout,

		residentTextures: DefaultResidentTextures,
	}
}

// Option configures a Renderer.
type Option func(*options)

// WithFormat sets the colour target format. RGBA8Unorm and BGRA8Unorm are
// supported; Render always returns RGBA pixels.
func WithFormat(f gputypes.TextureFormat) Option {
	return func(o *options) {
		o.format = f
	}
}

// WithCullMode sets which faces the rasterizer discards.
func WithCullMode(m gputypes.CullMode) Option {
	return func(o *options) {
		o.cullMode = m
	}
}

// WithFrontFace sets the winding that counts as front-facing.
func WithFrontFace(f gputypes.FrontFace) Option {
	return func(o *options) {
		o.frontFace = f
	}
}

// WithClearColor sets the colour the target is cleared to before drawing.
func WithClearColor(c texquad.Color) Option {
	return func(o *options) {
		o.clearColor = c
	}
}

// WithTimeout sets how long Render waits for the frame to complete.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithResidentTextures sets how many uploaded textures and samplers stay on
// the device between frames. The least recently used are released first.
func WithResidentTextures(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.residentTextures = n
		}
	}
}
