package texture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// Image errors.
var (
	// ErrInvalidDimensions is returned when width or height is non-positive.
	ErrInvalidDimensions = errors.New("texture: invalid dimensions")

	// ErrDataTooSmall is returned when raw texel data is shorter than width*height*4.
	ErrDataTooSmall = errors.New("texture: data buffer too small")

	// ErrNilImage is returned when a nil image is passed to a constructor.
	ErrNilImage = errors.New("texture: image is nil")
)

// BytesPerTexel is the size of one RGBA8 texel.
const BytesPerTexel = 4

// Image is a 2-D RGBA8 texture with straight (non-premultiplied) alpha.
//
// Texel rows are stored bottom-up: texel (0, 0) is the bottom-left corner
// of the picture and sits at texture coordinate (0, 0). This is also the
// upload order, so the unit quad under the identity camera shows the
// picture upright. FromStdImage, ToStdImage and At convert between this
// layout and the top-down layout of the image package.
//
// An Image is never modified after construction, so it is safe to sample
// from any number of goroutines.
type Image struct {
	width  int
	height int
	data   []byte
}

// New creates an image from raw RGBA8 texel data, bottom row first. The
// data is copied.
func New(width, height int, data []byte) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	n := width * height * BytesPerTexel
	if len(data) < n {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrDataTooSmall, n, len(data))
	}
	buf := make([]byte, n)
	copy(buf, data)
	return &Image{width: width, height: height, data: buf}, nil
}

// FromStdImage converts any image.Image to an Image, flipping its rows so
// the top of the picture becomes the last texel row.
func FromStdImage(src image.Image) (*Image, error) {
	if src == nil {
		return nil, ErrNilImage
	}
	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, ErrInvalidDimensions
	}

	// image.NRGBA keeps straight alpha, which is what gets uploaded.
	nrgba, ok := src.(*image.NRGBA)
	if !ok || nrgba.Stride != b.Dx()*BytesPerTexel || b.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), src, b.Min, draw.Src)
	}
	return &Image{
		width:  b.Dx(),
		height: b.Dy(),
		data:   flipRows(nrgba.Pix, b.Dx()*BytesPerTexel, b.Dy()),
	}, nil
}

// flipRows returns a copy of pix with its rows in reverse order.
func flipRows(pix []byte, stride, rows int) []byte {
	out := make([]byte, stride*rows)
	for y := range rows {
		copy(out[(rows-1-y)*stride:(rows-y)*stride], pix[y*stride:(y+1)*stride])
	}
	return out
}

// Solid creates a width x height image filled with a single color.
func Solid(width, height int, c Color) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	r, g, b, a := c.ToRGBA8()
	data := make([]byte, width*height*BytesPerTexel)
	for i := 0; i < len(data); i += BytesPerTexel {
		data[i+0] = r
		data[i+1] = g
		data[i+2] = b
		data[i+3] = a
	}
	return &Image{width: width, height: height, data: data}, nil
}

// Checkerboard creates a size x size image split into cells x cells squares.
// The cell containing texel (0, 0), the bottom-left of the picture, uses
// color a; cells alternate from there.
func Checkerboard(size, cells int, a, b Color) (*Image, error) {
	if size <= 0 || cells <= 0 || cells > size {
		return nil, ErrInvalidDimensions
	}
	ar, ag, ab, aa := a.ToRGBA8()
	br, bg, bb, ba := b.ToRGBA8()

	data := make([]byte, size*size*BytesPerTexel)
	for y := range size {
		cy := y * cells / size
		for x := range size {
			cx := x * cells / size
			i := (y*size + x) * BytesPerTexel
			if (cx+cy)%2 == 0 {
				data[i], data[i+1], data[i+2], data[i+3] = ar, ag, ab, aa
			} else {
				data[i], data[i+1], data[i+2], data[i+3] = br, bg, bb, ba
			}
		}
	}
	return &Image{width: size, height: size, data: data}, nil
}

// Width returns the width in texels.
func (m *Image) Width() int { return m.width }

// Height returns the height in texels.
func (m *Image) Height() int { return m.height }

// Size returns width and height.
func (m *Image) Size() (int, int) { return m.width, m.height }

// Stride returns the number of bytes per row.
func (m *Image) Stride() int { return m.width * BytesPerTexel }

// Bytes returns the raw RGBA8 texel data, bottom row first. The returned
// slice must not be modified.
func (m *Image) Bytes() []byte { return m.data }

// Texel returns the texel at integer coordinates (x, y). The coordinates
// must already be resolved to the image bounds.
func (m *Image) Texel(x, y int) Color {
	i := (y*m.width + x) * BytesPerTexel
	return RGBA8(m.data[i], m.data[i+1], m.data[i+2], m.data[i+3])
}

// ToStdImage returns a copy of the image as *image.NRGBA, top row first.
func (m *Image) ToStdImage() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, m.width, m.height))
	out.Pix = flipRows(m.data, m.Stride(), m.height)
	return out
}

// Bounds implements image.Image.
func (m *Image) Bounds() image.Rectangle { return image.Rect(0, 0, m.width, m.height) }

// ColorModel implements image.Image.
func (m *Image) ColorModel() color.Model { return color.NRGBAModel }

// At implements image.Image. y counts down from the top of the picture.
func (m *Image) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return color.NRGBA{}
	}
	i := ((m.height-1-y)*m.width + x) * BytesPerTexel
	return color.NRGBA{R: m.data[i], G: m.data[i+1], B: m.data[i+2], A: m.data[i+3]}
}

// String returns a short description of the image.
func (m *Image) String() string {
	return fmt.Sprintf("Image[%dx%d RGBA8]", m.width, m.height)
}
