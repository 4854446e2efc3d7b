package texture

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	src, err := Checkerboard(8, 2, Color{R: 1, A: 1}, Color{B: 1, A: 1})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := src.EncodePNG(&buf); err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}

	got, err := DecodeBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}
	if !bytes.Equal(got.Bytes(), src.Bytes()) {
		t.Error("decoded texels differ from encoded texels")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	src, err := Solid(2, 2, Color{G: 1, A: 1})
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "solid.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := src.EncodePNG(f); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	img, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if img.Texel(1, 1) != (Color{G: 1, A: 1}) {
		t.Errorf("Texel(1, 1) = %v", img.Texel(1, 1))
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := Load(filepath.Join(dir, "texture.gif")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("gif: error = %v, want %v", err, ErrUnsupportedFormat)
	}

	if _, err := Load(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("missing file: expected error")
	}

	// PNG data behind a .bmp name is rejected.
	var buf bytes.Buffer
	src, _ := Solid(1, 1, White)
	if err := src.EncodePNG(&buf); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "mislabeled.bmp")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("mislabeled: error = %v, want %v", err, ErrUnsupportedFormat)
	}
}

func TestDecodeBytesEmpty(t *testing.T) {
	if _, err := DecodeBytes(nil); !errors.Is(err, ErrEmptyData) {
		t.Errorf("error = %v, want %v", err, ErrEmptyData)
	}
}
