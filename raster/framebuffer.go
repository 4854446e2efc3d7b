package raster

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"github.com/gogpu/texquad"
	"github.com/gogpu/texquad/texture"
)

// Framebuffer is the colour attachment of a draw: one float RGBA value per
// pixel, row 0 at the top.
type Framebuffer struct {
	width  int
	height int
	pix    []texquad.Color
}

// NewFramebuffer allocates a width x height framebuffer cleared to
// transparent black.
func NewFramebuffer(width, height int) (*Framebuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	return &Framebuffer{
		width:  width,
		height: height,
		pix:    make([]texquad.Color, width*height),
	}, nil
}

// Width returns the width in pixels.
func (f *Framebuffer) Width() int { return f.width }

// Height returns the height in pixels.
func (f *Framebuffer) Height() int { return f.height }

// Clear sets every pixel to c.
func (f *Framebuffer) Clear(c texquad.Color) {
	for i := range f.pix {
		f.pix[i] = c
	}
}

// At returns the pixel at (x, y), or transparent black outside the bounds.
func (f *Framebuffer) At(x, y int) texquad.Color {
	if x < 0 || y < 0 || x >= f.width || y >= f.height {
		return texture.Transparent
	}
	return f.pix[y*f.width+x]
}

func (f *Framebuffer) set(x, y int, c texquad.Color) {
	f.pix[y*f.width+x] = c
}

// Image converts the framebuffer to 8-bit channels the way an RGBA8Unorm
// attachment stores them: clamped, rounded, alpha not premultiplied.
func (f *Framebuffer) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, f.width, f.height))
	for i, c := range f.pix {
		r, g, b, a := c.ToRGBA8()
		img.Pix[i*4+0] = r
		img.Pix[i*4+1] = g
		img.Pix[i*4+2] = b
		img.Pix[i*4+3] = a
	}
	return img
}

// EncodePNG writes the framebuffer to w as PNG.
func (f *Framebuffer) EncodePNG(w io.Writer) error {
	if err := png.Encode(w, f.Image()); err != nil {
		return fmt.Errorf("raster: encode PNG: %w", err)
	}
	return nil
}

// SavePNG writes the framebuffer to a PNG file.
func (f *Framebuffer) SavePNG(path string) error {
	file, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return fmt.Errorf("raster: create %s: %w", path, err)
	}
	if err := f.EncodePNG(file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
