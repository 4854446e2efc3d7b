// Command texquad renders a textured quad to PNG with the software
// rasterizer or a GPU.
//
// Usage:
//
//	texquad [-config scene.yaml] [-output out.png] [-backend software|gpu]
//	        [-frames n] [-workers n] [-validate] [-spirv out.spv] [-v]
//
// With -frames greater than one the camera orbits its target and frame i
// is written to out_NNN.png. A spheres texture with a spin is traced again
// for every frame.
package main

import (
	"context"
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/texquad"
	"github.com/gogpu/texquad/config"
)

type app struct {
	configPath string
	output     string
	backend    string
	frames     int
	workers    int
	validate   bool
	spirvPath  string
	dumpConfig bool
	verbose    bool
}

func (a *app) parseFlags(args []string) error {
	fs := flag.NewFlagSet("texquad", flag.ContinueOnError)
	fs.StringVar(&a.configPath, "config", "", "scene YAML file (default: built-in checkerboard)")
	fs.StringVar(&a.output, "output", "texquad.png", "output PNG file")
	fs.StringVar(&a.backend, "backend", "", "override backend: software or gpu")
	fs.IntVar(&a.frames, "frames", 0, "override frame count")
	fs.IntVar(&a.workers, "workers", -1, "override software rasterizer workers (0 = GOMAXPROCS)")
	fs.BoolVar(&a.validate, "validate", false, "reflect and validate the shader, then exit")
	fs.StringVar(&a.spirvPath, "spirv", "", "write the compiled SPIR-V module to this file")
	fs.BoolVar(&a.dumpConfig, "dump-config", false, "print the effective configuration and exit")
	fs.BoolVar(&a.verbose, "v", false, "verbose logging")
	return fs.Parse(args)
}

func (a *app) loadConfig() (config.Config, error) {
	cfg := config.Default()
	if a.configPath != "" {
		var err error
		if cfg, err = config.Load(a.configPath); err != nil {
			return cfg, err
		}
	}
	if a.backend != "" {
		cfg.Backend = a.backend
	}
	if a.frames > 0 {
		cfg.Frames = a.frames
	}
	if a.workers >= 0 {
		cfg.Workers = a.workers
	}
	return cfg, cfg.Validate()
}

func (a *app) run(ctx context.Context, args []string) error {
	if err := a.parseFlags(args); err != nil {
		return err
	}

	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	texquad.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if a.validate {
		return validateShader()
	}
	if a.spirvPath != "" {
		if err := writeSPIRV(a.spirvPath); err != nil {
			return err
		}
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if a.dumpConfig {
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}
	return a.render(ctx, cfg)
}

func (a *app) render(ctx context.Context, cfg config.Config) error {
	r, err := newRenderer(cfg)
	if err != nil {
		return err
	}
	defer r.Close()
	texs, err := newTextures(cfg)
	if err != nil {
		return err
	}
	frame := func(ctx context.Context, i int) (image.Image, error) {
		tex, err := texs.frame(ctx, i)
		if err != nil {
			return nil, err
		}
		return r.Render(ctx, cfg.Uniform(i), tex)
	}

	if cfg.Frames == 1 {
		img, err := frame(ctx, 0)
		if err != nil {
			return err
		}
		if err := savePNG(a.output, img); err != nil {
			return err
		}
		texquad.Logger().Info("wrote frame", "path", a.output, "backend", cfg.Backend)
		return nil
	}

	pb := progressbar.Default(int64(cfg.Frames), "rendering")
	defer pb.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range cfg.Frames {
		g.Go(func() error {
			img, err := frame(ctx, i)
			if err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
			if err := savePNG(framePath(a.output, i), img); err != nil {
				return err
			}
			return pb.Add(1)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	texquad.Logger().Info("wrote frames", "count", cfg.Frames, "pattern", framePath(a.output, 0))
	return nil
}

// framePath inserts a zero-padded frame index before the extension.
func framePath(output string, i int) string {
	ext := filepath.Ext(output)
	return fmt.Sprintf("%s_%03d%s", strings.TrimSuffix(output, ext), i, ext)
}

// validateShader checks the embedded program against the binding table
// and prints what it found.
func validateShader() error {
	r, err := texquad.Reflect(texquad.ShaderSource())
	if err != nil {
		return err
	}
	for _, ep := range r.EntryPoints {
		fmt.Printf("entry  %-8s %s\n", ep.Stage, ep.Name)
	}
	for _, b := range r.Bindings {
		fmt.Printf("group %d binding %d  %-16s %s", b.Group, b.Binding, b.Name, b.Kind)
		if b.Size > 0 {
			fmt.Printf(" (%d bytes)", b.Size)
		}
		fmt.Println()
	}
	if err := texquad.ValidateLayout(r); err != nil {
		return err
	}
	fmt.Println("shader layout OK")
	return nil
}

func writeSPIRV(path string) error {
	words, err := texquad.CompileSPIRV(texquad.ShaderSource())
	if err != nil {
		return err
	}
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := binary.Write(f, binary.LittleEndian, words); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	texquad.Logger().Info("wrote SPIR-V", "path", path, "words", len(words))
	return f.Close()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var a app
	if err := a.run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "texquad: %v\n", err)
		os.Exit(1)
	}
}
