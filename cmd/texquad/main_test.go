package main

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/texquad"
	"github.com/gogpu/texquad/config"
)

func TestFramePath(t *testing.T) {
	tests := []struct {
		output string
		i      int
		want   string
	}{
		{"out.png", 0, "out_000.png"},
		{"dir/frame.png", 12, "dir/frame_012.png"},
		{"noext", 3, "noext_003"},
	}
	for _, tt := range tests {
		if got := framePath(tt.output, tt.i); got != tt.want {
			t.Errorf("framePath(%q, %d) = %q, want %q", tt.output, tt.i, got, tt.want)
		}
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	a := app{backend: config.BackendGPU, frames: 3, workers: 2}
	cfg, err := a.loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Backend != config.BackendGPU || cfg.Frames != 3 || cfg.Workers != 2 {
		t.Errorf("overrides not applied: %+v", cfg)
	}

	a = app{backend: "metal", workers: -1}
	if _, err := a.loadConfig(); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("bad backend: err = %v, want ErrInvalid", err)
	}
}

func writeScene(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "scene.yaml")
	src := "width: 16\nheight: 16\ntexture:\n  kind: checkerboard\n  size: 2\n  cells: 2\n"
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunSoftwareSingleFrame(t *testing.T) {
	t.Cleanup(func() { texquad.SetLogger(nil) })
	dir := t.TempDir()
	out := filepath.Join(dir, "quad.png")

	var a app
	err := a.run(context.Background(), []string{"-config", writeScene(t, dir), "-output", out})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 16 {
		t.Errorf("output bounds = %v, want 16x16", b)
	}
	// Bottom-left pixel samples texel (0, 0), which is black.
	if r, g, b, _ := img.At(0, 15).RGBA(); r != 0 || g != 0 || b != 0 {
		t.Errorf("bottom-left pixel = (%d, %d, %d), want black", r, g, b)
	}
}

func TestRunSoftwareFrames(t *testing.T) {
	t.Cleanup(func() { texquad.SetLogger(nil) })
	dir := t.TempDir()
	out := filepath.Join(dir, "orbit.png")

	var a app
	err := a.run(context.Background(), []string{
		"-config", writeScene(t, dir), "-output", out, "-frames", "3", "-workers", "1",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for i := range 3 {
		if _, err := os.Stat(framePath(out, i)); err != nil {
			t.Errorf("frame %d: %v", i, err)
		}
	}
}

func TestRunSoftwareSpinningSpheres(t *testing.T) {
	t.Cleanup(func() { texquad.SetLogger(nil) })
	dir := t.TempDir()
	path := filepath.Join(dir, "spheres.yaml")
	src := "width: 16\nheight: 16\ntexture:\n  kind: spheres\n  size: 16\n  spin: 90\n"
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "spheres.png")

	var a app
	err := a.run(context.Background(), []string{"-config", path, "-output", out, "-frames", "3"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	first, err := os.ReadFile(framePath(out, 0))
	if err != nil {
		t.Fatalf("frame 0: %v", err)
	}
	second, err := os.ReadFile(framePath(out, 1))
	if err != nil {
		t.Fatalf("frame 1: %v", err)
	}
	// The identity camera is the same for every frame, so only the traced
	// texture can tell the frames apart.
	if bytes.Equal(first, second) {
		t.Error("frames 0 and 1 are identical, want the spheres to turn")
	}
}

func TestRunCancelled(t *testing.T) {
	t.Cleanup(func() { texquad.SetLogger(nil) })
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var a app
	err := a.run(ctx, []string{"-config", writeScene(t, dir), "-output", filepath.Join(dir, "x.png")})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("run with cancelled context = %v, want context.Canceled", err)
	}
}

func TestRunValidate(t *testing.T) {
	t.Cleanup(func() { texquad.SetLogger(nil) })
	var a app
	if err := a.run(context.Background(), []string{"-validate"}); err != nil {
		t.Errorf("run -validate: %v", err)
	}
}

func TestRunSPIRV(t *testing.T) {
	t.Cleanup(func() { texquad.SetLogger(nil) })
	path := filepath.Join(t.TempDir(), "quad.spv")
	if err := writeSPIRV(path); err != nil {
		t.Fatalf("writeSPIRV: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) < 20 || data[0] != 0x03 || data[1] != 0x02 || data[2] != 0x23 || data[3] != 0x07 {
		t.Errorf("SPIR-V header = % x, want magic 03 02 23 07", data[:min(len(data), 4)])
	}
}

func TestRunBadFlag(t *testing.T) {
	var a app
	if err := a.run(context.Background(), []string{"-no-such-flag"}); err == nil {
		t.Error("expected flag parse error")
	}
}
