package texquad

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

// Shader reflection errors.
var (
	// ErrShaderParse is returned when WGSL source cannot be parsed or lowered.
	ErrShaderParse = errors.New("texquad: shader parse failed")

	// ErrShaderInvalid is returned when the lowered module fails validation.
	ErrShaderInvalid = errors.New("texquad: shader validation failed")

	// ErrLayoutMismatch is returned when a shader's bindings or entry points
	// differ from the layout the hosts build.
	ErrLayoutMismatch = errors.New("texquad: binding layout mismatch")
)

// Stage identifies a shader stage.
type Stage uint8

// Shader stages.
const (
	StageVertex Stage = iota
	StageFragment
	StageCompute
)

// String implements fmt.Stringer.
func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageCompute:
		return "compute"
	default:
		return fmt.Sprintf("Stage(%d)", s)
	}
}

// ResourceKind classifies a bound resource.
type ResourceKind uint8

// Resource kinds.
const (
	ResourceOther ResourceKind = iota
	ResourceUniformBuffer
	ResourceTexture2D
	ResourceSampler
)

// String implements fmt.Stringer.
func (k ResourceKind) String() string {
	switch k {
	case ResourceUniformBuffer:
		return "uniform buffer"
	case ResourceTexture2D:
		return "2-D float texture"
	case ResourceSampler:
		return "sampler"
	default:
		return "other"
	}
}

// ResourceBinding describes one @group/@binding resource of a shader.
type ResourceBinding struct {
	Name    string
	Group   uint32
	Binding uint32
	Kind    ResourceKind
	Size    uint32 // byte size of uniform buffers, zero otherwise
}

// EntryPoint is a named stage function.
type EntryPoint struct {
	Name  string
	Stage Stage
}

// Reflection is what the hosts need to know about a shader module.
type Reflection struct {
	EntryPoints []EntryPoint
	Bindings    []ResourceBinding // sorted by group, then binding
}

// BindingTable is the resource layout both hosts build for the program.
var BindingTable = []ResourceBinding{
	{Name: "texture_data", Group: TextureGroup, Binding: TextureBinding, Kind: ResourceTexture2D},
	{Name: "texture_sampler", Group: TextureGroup, Binding: SamplerBinding, Kind: ResourceSampler},
	{Name: "camera", Group: CameraGroup, Binding: CameraBinding, Kind: ResourceUniformBuffer, Size: CameraUniformSize},
}

// Reflect parses, lowers and validates WGSL source and reports its entry
// points and resource bindings.
func Reflect(src string) (*Reflection, error) {
	module, err := lower(src)
	if err != nil {
		return nil, err
	}

	r := &Reflection{}
	for _, ep := range module.EntryPoints {
		r.EntryPoints = append(r.EntryPoints, EntryPoint{Name: ep.Name, Stage: stageFromIR(ep.Stage)})
	}
	for _, gv := range module.GlobalVariables {
		if gv.Binding == nil {
			continue
		}
		b := ResourceBinding{
			Name:    gv.Name,
			Group:   gv.Binding.Group,
			Binding: gv.Binding.Binding,
		}
		if int(gv.Type) < len(module.Types) {
			b.Kind, b.Size = classify(gv.Space, module.Types[gv.Type].Inner)
		}
		r.Bindings = append(r.Bindings, b)
	}
	sort.Slice(r.Bindings, func(i, j int) bool {
		if r.Bindings[i].Group != r.Bindings[j].Group {
			return r.Bindings[i].Group < r.Bindings[j].Group
		}
		return r.Bindings[i].Binding < r.Bindings[j].Binding
	})

	Logger().Debug("texquad: shader reflected",
		"entry_points", len(r.EntryPoints), "bindings", len(r.Bindings))
	return r, nil
}

// Binding returns the resource at group/binding.
func (r *Reflection) Binding(group, binding uint32) (ResourceBinding, bool) {
	for _, b := range r.Bindings {
		if b.Group == group && b.Binding == binding {
			return b, true
		}
	}
	return ResourceBinding{}, false
}

// EntryPoint returns the entry point with the given name.
func (r *Reflection) EntryPoint(name string) (EntryPoint, bool) {
	for _, ep := range r.EntryPoints {
		if ep.Name == name {
			return ep, true
		}
	}
	return EntryPoint{}, false
}

// ValidateLayout checks that a reflected shader exposes exactly the
// bindings in BindingTable, a vertex entry point named VertexEntryPoint
// and a fragment entry point named FragmentEntryPoint. All mismatches are
// reported together.
func ValidateLayout(r *Reflection) error {
	var problems []string

	for _, want := range BindingTable {
		got, ok := r.Binding(want.Group, want.Binding)
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("missing @group(%d) @binding(%d) %s", want.Group, want.Binding, want.Name))
		case got.Kind != want.Kind:
			problems = append(problems, fmt.Sprintf("@group(%d) @binding(%d) is %s, want %s", want.Group, want.Binding, got.Kind, want.Kind))
		case want.Size != 0 && got.Size != want.Size:
			problems = append(problems, fmt.Sprintf("@group(%d) @binding(%d) is %d bytes, want %d", want.Group, want.Binding, got.Size, want.Size))
		}
	}
	if extra := len(r.Bindings) - len(BindingTable); extra > 0 {
		problems = append(problems, fmt.Sprintf("%d unexpected bindings", extra))
	}

	for _, want := range []EntryPoint{
		{Name: VertexEntryPoint, Stage: StageVertex},
		{Name: FragmentEntryPoint, Stage: StageFragment},
	} {
		got, ok := r.EntryPoint(want.Name)
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("missing %s entry point %q", want.Stage, want.Name))
		case got.Stage != want.Stage:
			problems = append(problems, fmt.Sprintf("entry point %q is %s, want %s", want.Name, got.Stage, want.Stage))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrLayoutMismatch, strings.Join(problems, "; "))
	}
	return nil
}

// CompileSPIRV compiles WGSL source to SPIR-V words.
func CompileSPIRV(src string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("texquad: compile shader: %w", err)
	}

	// SPIR-V is a stream of little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

func lower(src string) (*ir.Module, error) {
	ast, err := naga.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrShaderParse, err)
	}
	module, err := naga.LowerWithSource(ast, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrShaderParse, err)
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrShaderInvalid, err)
	}
	if len(verrs) > 0 {
		msgs := make([]string, len(verrs))
		for i, e := range verrs {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("%w: %s", ErrShaderInvalid, strings.Join(msgs, "; "))
	}
	return module, nil
}

func stageFromIR(s ir.ShaderStage) Stage {
	switch s {
	case ir.StageVertex:
		return StageVertex
	case ir.StageFragment:
		return StageFragment
	default:
		return StageCompute
	}
}

func classify(space ir.AddressSpace, inner ir.TypeInner) (ResourceKind, uint32) {
	switch t := inner.(type) {
	case ir.StructType:
		if space == ir.SpaceUniform {
			return ResourceUniformBuffer, t.Span
		}
	case ir.MatrixType:
		if space == ir.SpaceUniform {
			return ResourceUniformBuffer, uint32(t.Columns) * uint32(t.Rows) * 4
		}
	case ir.ImageType:
		if t.Dim == ir.Dim2D && t.Class == ir.ImageClassSampled && !t.Arrayed && !t.Multisampled {
			return ResourceTexture2D, 0
		}
	case ir.SamplerType:
		if !t.Comparison {
			return ResourceSampler, 0
		}
	}
	return ResourceOther, 0
}
