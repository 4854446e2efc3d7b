package raster

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/texquad"
	"github.com/gogpu/texquad/texture"
)

var (
	red   = texquad.Color{R: 1, A: 1}
	green = texquad.Color{G: 1, A: 1}
	blue  = texquad.Color{B: 1, A: 1}
	white = texquad.Color{R: 1, G: 1, B: 1, A: 1}
)

func newPipeline(t *testing.T, w, h int, opts ...Option) *Pipeline {
	t.Helper()
	p, err := NewPipeline(w, h, opts...)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	t.Cleanup(p.Close)
	return p
}

// quadrants returns a 2x2 picture with a distinct colour per pixel, red
// top-left, green top-right, blue bottom-left, white bottom-right, and the
// texture built from it.
func quadrants(t *testing.T) (*image.NRGBA, *texture.Image) {
	t.Helper()
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	src.SetNRGBA(1, 0, color.NRGBA{G: 255, A: 255})
	src.SetNRGBA(0, 1, color.NRGBA{B: 255, A: 255})
	src.SetNRGBA(1, 1, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	img, err := texture.FromStdImage(src)
	if err != nil {
		t.Fatal(err)
	}
	return src, img
}

// assertShowsPicture checks that fb is want scaled up by an integer
// factor, with no flips.
func assertShowsPicture(t *testing.T, fb *Framebuffer, want *image.NRGBA) {
	t.Helper()
	got := fb.Image()
	ww, wh := want.Bounds().Dx(), want.Bounds().Dy()
	for y := range fb.Height() {
		for x := range fb.Width() {
			wx, wy := x*ww/fb.Width(), y*wh/fb.Height()
			if g, w := got.NRGBAAt(x, y), want.NRGBAAt(wx, wy); g != w {
				t.Fatalf("output pixel (%d, %d) = %v, want picture pixel (%d, %d) = %v", x, y, g, wx, wy, w)
			}
		}
	}
}

func TestDrawUnitQuadCheckerboard(t *testing.T) {
	const size = 8
	board, err := texture.Checkerboard(2, 2, texture.Black, texture.White)
	if err != nil {
		t.Fatal(err)
	}

	p := newPipeline(t, size, size)
	fb, err := p.Draw(context.Background(), texquad.UnitQuad(), Bindings{
		Camera:  texquad.IdentityCamera(),
		Texture: board,
		Sampler: texture.NearestSampler(),
	})
	if err != nil {
		t.Fatalf("Draw failed: %v", err)
	}

	assertShowsPicture(t, fb, board.ToStdImage())
	// Texel (0,0) is black and is the bottom-left of the picture.
	if got := fb.At(0, size-1); got != texture.Black {
		t.Errorf("bottom-left pixel = %v, want black", got)
	}
}

func TestDrawUnitQuadOrientation(t *testing.T) {
	const size = 16
	src, img := quadrants(t)
	p := newPipeline(t, size, size)
	fb, err := p.Draw(context.Background(), texquad.UnitQuad(), Bindings{
		Camera:  texquad.IdentityCamera(),
		Texture: img,
		Sampler: texture.NearestSampler(),
	})
	if err != nil {
		t.Fatalf("Draw failed: %v", err)
	}

	assertShowsPicture(t, fb, src)

	tests := []struct {
		name string
		x, y int
		want texquad.Color
	}{
		{"top-left", 0, 0, red},
		{"top-right", size - 1, 0, green},
		{"bottom-left", 0, size - 1, blue},
		{"bottom-right", size - 1, size - 1, white},
	}
	for _, tt := range tests {
		if got := fb.At(tt.x, tt.y); got != tt.want {
			t.Errorf("%s: pixel (%d, %d) = %v, want %v", tt.name, tt.x, tt.y, got, tt.want)
		}
	}
}

func TestDrawConstantTextureAnyFilter(t *testing.T) {
	c := texture.RGBA8(200, 100, 50, 255)
	img, err := texture.Solid(3, 5, c)
	if err != nil {
		t.Fatal(err)
	}

	for _, s := range []texture.Sampler{texture.NearestSampler(), texture.DefaultSampler()} {
		p := newPipeline(t, 10, 10)
		fb, err := p.Draw(context.Background(), texquad.UnitQuad(), Bindings{
			Camera:  texquad.IdentityCamera(),
			Texture: img,
			Sampler: s,
		})
		if err != nil {
			t.Fatal(err)
		}
		for y := range 10 {
			for x := range 10 {
				if got := fb.At(x, y); got != c {
					t.Fatalf("%s: pixel (%d, %d) = %v, want %v", s, x, y, got, c)
				}
			}
		}
	}
}

func TestDrawClearColorOutsideGeometry(t *testing.T) {
	img, _ := texture.Solid(1, 1, red)
	p := newPipeline(t, 8, 8, WithClearColor(blue))

	cam := texquad.CameraUniform{ViewProj: mgl32.Scale3D(0.5, 0.5, 1)}
	fb, err := p.Draw(context.Background(), texquad.UnitQuad(), Bindings{
		Camera: cam, Texture: img, Sampler: texture.NearestSampler(),
	})
	if err != nil {
		t.Fatal(err)
	}

	if got := fb.At(0, 0); got != blue {
		t.Errorf("corner = %v, want clear colour", got)
	}
	if got := fb.At(4, 4); got != red {
		t.Errorf("centre = %v, want red", got)
	}
	// The scaled quad spans pixels [2, 6) on both axes.
	for x := range 8 {
		want := blue
		if x >= 2 && x < 6 {
			want = red
		}
		if got := fb.At(x, 3); got != want {
			t.Errorf("pixel (%d, 3) = %v, want %v", x, got, want)
		}
	}
}

func TestDrawCulling(t *testing.T) {
	img, _ := texture.Solid(1, 1, red)
	quad := texquad.UnitQuad()
	reversed := texquad.Mesh{Vertices: quad.Vertices, Indices: []uint16{0, 2, 1, 0, 3, 2}}

	tests := []struct {
		name    string
		mesh    texquad.Mesh
		opts    []Option
		covered bool
	}{
		{"ccw drawn by default", quad, nil, true},
		{"cw culled by default", reversed, nil, false},
		{"cw drawn without culling", reversed, []Option{WithCullMode(gputypes.CullModeNone)}, true},
		{"cw drawn as front face", reversed, []Option{WithFrontFace(gputypes.FrontFaceCW)}, true},
		{"ccw culled as front", quad, []Option{WithCullMode(gputypes.CullModeFront)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := append([]Option{WithClearColor(blue)}, tt.opts...)
			p := newPipeline(t, 4, 4, opts...)
			fb, err := p.Draw(context.Background(), tt.mesh, Bindings{
				Camera: texquad.IdentityCamera(), Texture: img, Sampler: texture.NearestSampler(),
			})
			if err != nil {
				t.Fatal(err)
			}
			want := blue
			if tt.covered {
				want = red
			}
			if got := fb.At(1, 2); got != want {
				t.Errorf("pixel = %v, want %v", got, want)
			}
		})
	}
}

func TestDrawRejectsBehindCamera(t *testing.T) {
	img, _ := texture.Solid(1, 1, red)
	p := newPipeline(t, 4, 4, WithClearColor(blue))

	// A negative w row puts every vertex behind the camera.
	m := mgl32.Ident4()
	m[15] = -1
	fb, err := p.Draw(context.Background(), texquad.UnitQuad(), Bindings{
		Camera: texquad.CameraUniform{ViewProj: m}, Texture: img, Sampler: texture.NearestSampler(),
	})
	if err != nil {
		t.Fatal(err)
	}
	for y := range 4 {
		for x := range 4 {
			if got := fb.At(x, y); got != blue {
				t.Fatalf("pixel (%d, %d) = %v, want clear colour", x, y, got)
			}
		}
	}
}

func TestDrawDepthClip(t *testing.T) {
	img, _ := texture.Solid(1, 1, red)
	p := newPipeline(t, 4, 4, WithClearColor(blue))

	fb, err := p.Draw(context.Background(), texquad.UnitQuad(), Bindings{
		Camera:  texquad.CameraUniform{ViewProj: mgl32.Translate3D(0, 0, 2)},
		Texture: img,
		Sampler: texture.NearestSampler(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := fb.At(2, 2); got != blue {
		t.Errorf("pixel beyond the far plane = %v, want clear colour", got)
	}
}

func TestDrawDeterministicAcrossWorkers(t *testing.T) {
	img, err := texture.Checkerboard(16, 4, red, green)
	if err != nil {
		t.Fatal(err)
	}
	b := Bindings{
		Camera:  texquad.CameraUniform{ViewProj: mgl32.HomogRotate3DZ(0.3).Mul4(mgl32.Scale3D(0.8, 0.8, 1))},
		Texture: img,
		Sampler: texture.DefaultSampler(),
	}

	ref := newPipeline(t, 33, 27, WithWorkers(1))
	want, err := ref.Draw(context.Background(), texquad.UnitQuad(), b)
	if err != nil {
		t.Fatal(err)
	}

	par := newPipeline(t, 33, 27, WithWorkers(8), WithTileSize(5))
	got, err := par.Draw(context.Background(), texquad.UnitQuad(), b)
	if err != nil {
		t.Fatal(err)
	}

	for y := range 27 {
		for x := range 33 {
			if got.At(x, y) != want.At(x, y) {
				t.Fatalf("pixel (%d, %d): %v with 8 workers, %v with 1", x, y, got.At(x, y), want.At(x, y))
			}
		}
	}
}

func TestDrawSharedEdgeCoveredOnce(t *testing.T) {
	// Two triangles sharing the quad diagonal, each sampling its own
	// constant colour via DrawInto. With the top-left rule every pixel is
	// written by exactly one of them, so drawing both over a cleared target
	// leaves no clear-coloured pixels.
	redImg, _ := texture.Solid(1, 1, red)
	p := newPipeline(t, 9, 9, WithClearColor(blue))
	fb, err := NewFramebuffer(9, 9)
	if err != nil {
		t.Fatal(err)
	}
	fb.Clear(blue)

	quad := texquad.UnitQuad()
	for _, idx := range [][]uint16{{0, 1, 2}, {0, 2, 3}} {
		mesh := texquad.Mesh{Vertices: quad.Vertices, Indices: idx}
		err := p.DrawInto(context.Background(), fb, mesh, Bindings{
			Camera: texquad.IdentityCamera(), Texture: redImg, Sampler: texture.NearestSampler(),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	for y := range 9 {
		for x := range 9 {
			if fb.At(x, y) != red {
				t.Fatalf("pixel (%d, %d) not covered", x, y)
			}
		}
	}
}

func TestDrawErrors(t *testing.T) {
	img, _ := texture.Solid(1, 1, red)
	p := newPipeline(t, 4, 4)
	ctx := context.Background()

	if _, err := p.Draw(ctx, texquad.UnitQuad(), Bindings{Camera: texquad.IdentityCamera()}); !errors.Is(err, ErrNilTexture) {
		t.Errorf("nil texture: error = %v, want %v", err, ErrNilTexture)
	}

	bad := texquad.Mesh{Vertices: texquad.UnitQuad().Vertices, Indices: []uint16{0, 1, 9}}
	if _, err := p.Draw(ctx, bad, Bindings{Texture: img}); !errors.Is(err, ErrInvalidMesh) {
		t.Errorf("bad mesh: error = %v, want %v", err, ErrInvalidMesh)
	}

	small, _ := NewFramebuffer(2, 2)
	if err := p.DrawInto(ctx, small, texquad.UnitQuad(), Bindings{Texture: img}); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("size mismatch: error = %v, want %v", err, ErrSizeMismatch)
	}

	if _, err := NewPipeline(0, 4); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("zero width: error = %v, want %v", err, ErrInvalidSize)
	}
}

func TestDrawCancelled(t *testing.T) {
	img, _ := texture.Solid(1, 1, red)
	p := newPipeline(t, 64, 64, WithTileSize(8))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Draw(ctx, texquad.UnitQuad(), Bindings{
		Camera: texquad.IdentityCamera(), Texture: img, Sampler: texture.NearestSampler(),
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Draw() = %v, want context.Canceled", err)
	}
}

func TestDrawAfterClose(t *testing.T) {
	img, _ := texture.Solid(1, 1, red)
	p, err := NewPipeline(4, 4)
	if err != nil {
		t.Fatal(err)
	}
	p.Close()
	if _, err := p.Draw(context.Background(), texquad.UnitQuad(), Bindings{Camera: texquad.IdentityCamera(), Texture: img}); err == nil {
		t.Error("Draw after Close should fail")
	}
}

func TestConfigDefaults(t *testing.T) {
	p := newPipeline(t, 3, 2)
	cfg := p.Config()
	if cfg.CullMode != gputypes.CullModeBack || cfg.FrontFace != gputypes.FrontFaceCCW {
		t.Errorf("cull = %v, front = %v", cfg.CullMode, cfg.FrontFace)
	}
	if cfg.ClearColor != DefaultClearColor {
		t.Errorf("ClearColor = %v", cfg.ClearColor)
	}
	if cfg.Interpolation != PerspectiveCorrect {
		t.Errorf("Interpolation = %v", cfg.Interpolation)
	}
}
