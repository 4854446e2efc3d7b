package texquad

import (
	_ "embed"
)

//go:embed shaders/textured.wgsl
var texturedShaderSource string

// Entry point names the host pipeline must reference.
const (
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"
)

// ShaderSource returns the WGSL source of the program.
func ShaderSource() string {
	return texturedShaderSource
}
