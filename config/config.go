// Package config reads the YAML scene description used by the texquad
// command: output size, backend, camera, sampler, texture and frame count.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/texquad"
	"github.com/gogpu/texquad/camera"
	"github.com/gogpu/texquad/scene"
	"github.com/gogpu/texquad/texture"
)

// ErrInvalid is returned for configurations that fail validation.
var ErrInvalid = errors.New("config: invalid")

// Backends.
const (
	BackendSoftware = "software"
	BackendGPU      = "gpu"
)

// Camera modes.
const (
	// CameraIdentity binds the identity matrix: positions are clip
	// coordinates and the unit quad fills the viewport.
	CameraIdentity = "identity"

	// CameraPerspective binds a look-at perspective camera.
	CameraPerspective = "perspective"
)

// Texture kinds.
const (
	TextureCheckerboard = "checkerboard"
	TextureSolid        = "solid"
	TextureFile         = "file"

	// TextureSpheres ray traces a sphere scene into the texture. With
	// Spin set the scene turns and is traced again for every frame.
	TextureSpheres = "spheres"
)

// Config is a complete scene description.
type Config struct {
	Width         int       `yaml:"width"`
	Height        int       `yaml:"height"`
	Backend       string    `yaml:"backend"`
	ClearColor    []float32 `yaml:"clearColor"`
	Cull          string    `yaml:"cull"`
	FrontFace     string    `yaml:"frontFace"`
	Interpolation string    `yaml:"interpolation"`
	Workers       int       `yaml:"workers,omitempty"`

	Camera  CameraConfig  `yaml:"camera"`
	Sampler SamplerConfig `yaml:"sampler"`
	Texture TextureConfig `yaml:"texture"`

	// Frames renders an orbit of this many frames around the camera
	// target, OrbitDegrees apart in total.
	Frames       int     `yaml:"frames"`
	OrbitDegrees float32 `yaml:"orbitDegrees"`
}

// CameraConfig describes the camera uniform.
type CameraConfig struct {
	Mode   string    `yaml:"mode"`
	Eye    []float32 `yaml:"eye,omitempty"`
	Target []float32 `yaml:"target,omitempty"`
	Up     []float32 `yaml:"up,omitempty"`
	FovY   float32   `yaml:"fovy,omitempty"` // degrees
	ZNear  float32   `yaml:"znear,omitempty"`
	ZFar   float32   `yaml:"zfar,omitempty"`

	// Keys are movement keys (w, s) replayed through a camera controller
	// before the first frame.
	Keys  []string `yaml:"keys,omitempty"`
	Speed float32  `yaml:"speed,omitempty"`
}

// SamplerConfig describes texture addressing and filtering.
type SamplerConfig struct {
	Address   string `yaml:"address"`
	Filter    string `yaml:"filter"`
	MinFilter string `yaml:"minFilter,omitempty"`
}

// TextureConfig describes the bound texture.
type TextureConfig struct {
	Kind   string      `yaml:"kind"`
	Size   int         `yaml:"size,omitempty"`
	Cells  int         `yaml:"cells,omitempty"`
	Colors [][]float32 `yaml:"colors,omitempty"`
	Path   string      `yaml:"path,omitempty"`

	// Spheres kind only. Empty Spheres and Light keep scene.Default.
	Spheres []SphereConfig `yaml:"spheres,omitempty"`
	Light   []float32      `yaml:"light,omitempty"`
	Spin    float32        `yaml:"spin,omitempty"` // degrees over all frames
}

// SphereConfig is one sphere of a traced texture.
type SphereConfig struct {
	Position []float32 `yaml:"position"`
	Radius   float32   `yaml:"radius"`
	Albedo   []float32 `yaml:"albedo"`
}

// Default returns the scene drawn when no file is given: a 2x2
// checkerboard on the unit quad under the identity camera.
func Default() Config {
	return Config{
		Width:         512,
		Height:        512,
		Backend:       BackendSoftware,
		ClearColor:    []float32{0.1, 0.2, 0.3, 1},
		Cull:          "back",
		FrontFace:     "ccw",
		Interpolation: "perspective",
		Camera: CameraConfig{
			Mode:  CameraIdentity,
			Speed: 0.2,
		},
		Sampler: SamplerConfig{
			Address: "clamp",
			Filter:  "nearest",
		},
		Texture: TextureConfig{
			Kind:   TextureCheckerboard,
			Size:   2,
			Cells:  2,
			Colors: [][]float32{{0, 0, 0, 1}, {1, 1, 1, 1}},
		},
		Frames:       1,
		OrbitDegrees: 360,
	}
}

// Load reads and validates a YAML file. Fields absent from the file keep
// their Default values. A relative texture path is resolved against the
// file's directory.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Texture.Path != "" && !filepath.IsAbs(cfg.Texture.Path) {
		cfg.Texture.Path = filepath.Join(filepath.Dir(path), cfg.Texture.Path)
	}
	return cfg, nil
}

// Parse decodes and validates YAML data over Default.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Marshal encodes the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("config: marshal: %w", err)
	}
	return data, nil
}

// Validate reports every problem with the configuration in one error.
func (c Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...)))
	}

	if c.Width <= 0 || c.Height <= 0 {
		add("size %dx%d", c.Width, c.Height)
	}
	switch c.Backend {
	case BackendSoftware, BackendGPU:
	default:
		add("backend %q", c.Backend)
	}
	if len(c.ClearColor) != 4 {
		add("clearColor needs 4 components, got %d", len(c.ClearColor))
	}
	if _, err := c.CullMode(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Winding(); err != nil {
		errs = append(errs, err)
	}
	switch c.Interpolation {
	case "perspective", "linear":
	default:
		add("interpolation %q", c.Interpolation)
	}
	if c.Workers < 0 {
		add("workers %d", c.Workers)
	}
	if c.Frames < 1 {
		add("frames %d", c.Frames)
	}

	switch c.Camera.Mode {
	case CameraIdentity:
	case CameraPerspective:
		if err := c.PerspectiveCamera().Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", ErrInvalid, err))
		}
	default:
		add("camera mode %q", c.Camera.Mode)
	}
	for _, v := range []struct {
		name string
		v    []float32
	}{{"eye", c.Camera.Eye}, {"target", c.Camera.Target}, {"up", c.Camera.Up}} {
		if len(v.v) != 0 && len(v.v) != 3 {
			add("camera %s needs 3 components, got %d", v.name, len(v.v))
		}
	}
	for _, k := range c.Camera.Keys {
		if camera.ParseKey(k) == camera.KeyUnknown {
			add("camera key %q", k)
		}
	}
	if _, err := c.TextureSampler(); err != nil {
		errs = append(errs, err)
	}

	switch c.Texture.Kind {
	case TextureCheckerboard:
		if len(c.Texture.Colors) != 2 {
			add("checkerboard needs 2 colors, got %d", len(c.Texture.Colors))
		}
		if c.Texture.Size <= 0 || c.Texture.Cells <= 0 || c.Texture.Cells > c.Texture.Size {
			add("checkerboard size %d cells %d", c.Texture.Size, c.Texture.Cells)
		}
	case TextureSolid:
		if len(c.Texture.Colors) == 0 {
			add("solid texture needs a color")
		}
		if c.Texture.Size <= 0 {
			add("solid texture size %d", c.Texture.Size)
		}
	case TextureFile:
		if c.Texture.Path == "" {
			add("file texture without path")
		}
	case TextureSpheres:
		if c.Texture.Size <= 0 {
			add("spheres texture size %d", c.Texture.Size)
		}
		if len(c.Texture.Light) != 0 && len(c.Texture.Light) != 3 {
			add("spheres light needs 3 components, got %d", len(c.Texture.Light))
		}
		for i, sp := range c.Texture.Spheres {
			if len(sp.Position) != 3 || len(sp.Albedo) != 3 {
				add("sphere %d needs 3-component position and albedo", i)
			}
		}
		if err := c.Scene().Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", ErrInvalid, err))
		}
	default:
		add("texture kind %q", c.Texture.Kind)
	}
	for i, col := range c.Texture.Colors {
		if len(col) != 4 {
			add("texture color %d needs 4 components, got %d", i, len(col))
		}
	}
	return errors.Join(errs...)
}

// Clear returns the clear colour.
func (c Config) Clear() texquad.Color {
	return color(c.ClearColor)
}

// CullMode returns the face culling mode.
func (c Config) CullMode() (gputypes.CullMode, error) {
	switch strings.ToLower(c.Cull) {
	case "back":
		return gputypes.CullModeBack, nil
	case "front":
		return gputypes.CullModeFront, nil
	case "none":
		return gputypes.CullModeNone, nil
	}
	return gputypes.CullModeNone, fmt.Errorf("%w: cull %q", ErrInvalid, c.Cull)
}

// Winding returns the front face winding.
func (c Config) Winding() (gputypes.FrontFace, error) {
	switch strings.ToLower(c.FrontFace) {
	case "ccw":
		return gputypes.FrontFaceCCW, nil
	case "cw":
		return gputypes.FrontFaceCW, nil
	}
	return gputypes.FrontFaceCCW, fmt.Errorf("%w: frontFace %q", ErrInvalid, c.FrontFace)
}

// TextureSampler returns the sampler descriptor.
func (c Config) TextureSampler() (texture.Sampler, error) {
	var s texture.Sampler
	switch strings.ToLower(c.Sampler.Address) {
	case "clamp", "clamp-to-edge":
		s = s.WithAddressMode(gputypes.AddressModeClampToEdge)
	case "repeat":
		s = s.WithAddressMode(gputypes.AddressModeRepeat)
	case "mirror", "mirror-repeat":
		s = s.WithAddressMode(gputypes.AddressModeMirrorRepeat)
	default:
		return s, fmt.Errorf("%w: sampler address %q", ErrInvalid, c.Sampler.Address)
	}

	mag, err := filter(c.Sampler.Filter)
	if err != nil {
		return s, err
	}
	s = s.WithFilter(mag)
	if c.Sampler.MinFilter != "" {
		if s.MinFilter, err = filter(c.Sampler.MinFilter); err != nil {
			return s, err
		}
	}
	return s, nil
}

func filter(name string) (gputypes.FilterMode, error) {
	switch strings.ToLower(name) {
	case "nearest":
		return gputypes.FilterModeNearest, nil
	case "linear":
		return gputypes.FilterModeLinear, nil
	}
	return gputypes.FilterModeNearest, fmt.Errorf("%w: sampler filter %q", ErrInvalid, name)
}

// Image builds or loads the texture.
func (c Config) Image() (*texture.Image, error) {
	t := c.Texture
	switch t.Kind {
	case TextureCheckerboard:
		return texture.Checkerboard(t.Size, t.Cells, color(t.Colors[0]), color(t.Colors[1]))
	case TextureSolid:
		return texture.Solid(t.Size, t.Size, color(t.Colors[0]))
	case TextureFile:
		return texture.Load(t.Path)
	case TextureSpheres:
		return c.FrameImage(context.Background(), 0)
	}
	return nil, fmt.Errorf("%w: texture kind %q", ErrInvalid, t.Kind)
}

// Animated reports whether the texture changes from frame to frame.
func (c Config) Animated() bool {
	return c.Texture.Kind == TextureSpheres && c.Texture.Spin != 0 && c.Frames > 1
}

// FrameImage returns the texture for frame i. Only animated textures
// differ between frames; the rest are built as by Image.
func (c Config) FrameImage(ctx context.Context, i int) (*texture.Image, error) {
	if c.Texture.Kind != TextureSpheres {
		return c.Image()
	}
	s := c.Scene()
	if c.Animated() {
		s = s.Spin(mgl32.DegToRad(c.Texture.Spin) * float32(i) / float32(c.Frames))
	}
	return s.Render(ctx, c.Texture.Size, c.Texture.Size, c.Workers)
}

// Scene returns the sphere scene of a spheres texture: scene.Default with
// the configured spheres, light and background (Colors[0]) in place.
func (c Config) Scene() scene.Scene {
	s := scene.Default()
	t := c.Texture
	if len(t.Spheres) > 0 {
		s.Spheres = make([]scene.Sphere, 0, len(t.Spheres))
		for _, sp := range t.Spheres {
			pos, _ := vec3(sp.Position)
			albedo, _ := vec3(sp.Albedo)
			s.Spheres = append(s.Spheres, scene.Sphere{Position: pos, Radius: sp.Radius, Albedo: albedo})
		}
	}
	if v, ok := vec3(t.Light); ok {
		s.Light = v
	}
	if len(t.Colors) > 0 {
		s.Background = color(t.Colors[0])
	}
	return s
}

// PerspectiveCamera returns the camera for the first frame, after the
// configured keys have been replayed. Its aspect matches the output size.
func (c Config) PerspectiveCamera() camera.Camera {
	cam := c.perspective()
	ctrl := camera.NewController(c.Camera.Speed)
	for _, k := range c.Camera.Keys {
		ctrl.HandleKey(&cam, camera.ParseKey(k))
	}
	return cam
}

// Uniform returns the camera uniform for frame i of the orbit.
func (c Config) Uniform(i int) texquad.CameraUniform {
	if c.Camera.Mode == CameraIdentity {
		return texquad.IdentityCamera()
	}
	cam := c.PerspectiveCamera()
	if c.Frames > 1 {
		angle := mgl32.DegToRad(c.OrbitDegrees) * float32(i) / float32(c.Frames)
		cam = camera.Orbit(cam, angle)
	}
	return cam.Uniform()
}

// perspective builds the camera from the configured fields over
// camera.Default.
func (c Config) perspective() camera.Camera {
	cam := camera.Default()
	if v, ok := vec3(c.Camera.Eye); ok {
		cam.Eye = v
	}
	if v, ok := vec3(c.Camera.Target); ok {
		cam.Target = v
	}
	if v, ok := vec3(c.Camera.Up); ok {
		cam.Up = v
	}
	if c.Camera.FovY != 0 {
		cam.FovY = mgl32.DegToRad(c.Camera.FovY)
	}
	if c.Camera.ZNear != 0 {
		cam.ZNear = c.Camera.ZNear
	}
	if c.Camera.ZFar != 0 {
		cam.ZFar = c.Camera.ZFar
	}
	cam.SetViewport(c.Width, c.Height)
	return cam
}

func vec3(v []float32) (mgl32.Vec3, bool) {
	if len(v) != 3 {
		return mgl32.Vec3{}, false
	}
	return mgl32.Vec3{v[0], v[1], v[2]}, true
}

// color converts a 4-component slice; anything shorter is transparent.
func color(v []float32) texquad.Color {
	if len(v) != 4 {
		return texture.Transparent
	}
	return texquad.Color{R: v[0], G: v[1], B: v[2], A: v[3]}
}
