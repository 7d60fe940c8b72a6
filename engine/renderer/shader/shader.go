package shader

import (
	_ "embed"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies a programmable pipeline stage.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex stage.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment stage.
	ShaderTypeFragment
)

//go:embed triangle.wgsl
var triangleSource string

// TriangleKey is the key of the built-in triangle shader.
const TriangleKey = "triangle"

// shader is the implementation of the Shader interface.
// Entry points and layouts are reflected from the WGSL source once, at construction.
type shader struct {
	key    string
	source string

	entryPoints                map[ShaderType]string
	vertexLayouts              []wgpu.VertexBufferLayout
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
}

// Shader is a WGSL module holding both a vertex and a fragment entry point. It exposes the
// vertex buffer layouts and bind group layout descriptors reflected from the source, which the
// renderer uses to build the pipeline without hand-written layout tables.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used as the module label.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the WGSL shader source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// EntryPoint returns the entry point name for the given stage.
	//
	// Parameters:
	//   - shaderType: the stage to look up
	//
	// Returns:
	//   - string: the function name carrying the stage attribute
	EntryPoint(shaderType ShaderType) string

	// VertexLayouts returns the vertex buffer layouts, one per vertex input struct, in
	// declaration order. Index i is bound to vertex buffer slot i.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the vertex buffer layouts
	VertexLayouts() []wgpu.VertexBufferLayout

	// BindGroupLayoutDescriptors returns the bind group layouts keyed by group index.
	// Buffer entries carry MinBindingSize computed from the bound struct.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// Module returns the descriptor used to create the GPU shader module.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the WGSL module descriptor labelled with the key
	Module() *wgpu.ShaderModuleDescriptor
}

var _ Shader = &shader{}

// NewShader reflects a WGSL module that must define one @vertex and one @fragment entry point.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - source: the WGSL source code
//
// Returns:
//   - Shader: the reflected shader
//   - error: an error if an entry point is missing
func NewShader(key, source string) (Shader, error) {
	cleaned := stripComments(source)

	vertexMain := entryPoint(cleaned, vertexEntryRe)
	if vertexMain == "" {
		return nil, fmt.Errorf("shader %s: no @vertex entry point", key)
	}
	fragmentMain := entryPoint(cleaned, fragmentEntryRe)
	if fragmentMain == "" {
		return nil, fmt.Errorf("shader %s: no @fragment entry point", key)
	}

	structs := parseStructs(cleaned)
	stages := map[wgpu.ShaderStage]string{
		wgpu.ShaderStageVertex:   functionBody(cleaned, vertexMain),
		wgpu.ShaderStageFragment: functionBody(cleaned, fragmentMain),
	}

	return &shader{
		key:    key,
		source: source,
		entryPoints: map[ShaderType]string{
			ShaderTypeVertex:   vertexMain,
			ShaderTypeFragment: fragmentMain,
		},
		vertexLayouts:              vertexLayouts(structs),
		bindGroupLayoutDescriptors: bindGroupLayouts(cleaned, structs, stages),
	}, nil
}

// NewTriangleShader returns the embedded triangle shader: a position/color vertex input,
// one uniform view-projection matrix at group 0 binding 0, entry points vertex_main and fragment_main.
//
// Returns:
//   - Shader: the reflected triangle shader
//   - error: an error if the embedded source fails reflection
func NewTriangleShader() (Shader, error) {
	return NewShader(TriangleKey, triangleSource)
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) EntryPoint(shaderType ShaderType) string {
	return s.entryPoints[shaderType]
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return &wgpu.ShaderModuleDescriptor{
		Label: s.key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: s.source,
		},
	}
}
