package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	// Decoders register themselves with image.Decode.
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// I/O errors.
var (
	// ErrUnsupportedFormat is returned when the file extension names a
	// format no registered decoder handles.
	ErrUnsupportedFormat = errors.New("texture: unsupported format")

	// ErrEmptyData is returned when image data is empty.
	ErrEmptyData = errors.New("texture: empty data")
)

// supportedExt lists the file extensions Load accepts.
var supportedExt = map[string]string{
	".png":  "png",
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".bmp":  "bmp",
	".tif":  "tiff",
	".tiff": "tiff",
	".webp": "webp",
}

// Load decodes a texture from a file. PNG, JPEG, BMP, TIFF and WebP are
// supported; the extension must name one of them.
func Load(path string) (*Image, error) {
	ext := strings.ToLower(filepath.Ext(path))
	want, ok := supportedExt[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("texture: open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("texture: decode %s: %w", path, err)
	}
	if format != want {
		return nil, fmt.Errorf("%w: %s holds %s data", ErrUnsupportedFormat, path, format)
	}
	return FromStdImage(img)
}

// Decode decodes a texture from r, detecting the format from its content.
func Decode(r io.Reader) (*Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("texture: decode: %w", err)
	}
	return FromStdImage(img)
}

// DecodeBytes decodes a texture held in memory.
func DecodeBytes(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}
	return Decode(bytes.NewReader(data))
}

// EncodePNG writes the image to w as PNG.
func (m *Image) EncodePNG(w io.Writer) error {
	if err := png.Encode(w, m.ToStdImage()); err != nil {
		return fmt.Errorf("texture: encode PNG: %w", err)
	}
	return nil
}
