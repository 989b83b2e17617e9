package shader

import (
	"fmt"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies the pipeline stage a shader is written for.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex shader type, used for vertex processing in render pipelines.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

// shader is the implementation of the Shader interface.
// It holds the WGSL source together with everything reflected from it.
type shader struct {
	key                        string
	source                     string
	shaderType                 ShaderType
	entryPoint                 string
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	constantBuffers            []ConstantBuffer
	textures                   []TextureResource
	vertexInputs               []VertexInput
	module                     *wgpu.ShaderModuleDescriptor
}

// Shader defines the interface for a loaded and reflected WGSL shader stage. It exposes the
// source, entry point and bind group layouts needed for pipeline creation, and the constant
// buffers, textures and vertex inputs needed for material binding and draw assembly.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the WGSL shader source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// ShaderType returns the stage of the shader.
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex or ShaderTypeFragment
	ShaderType() ShaderType

	// EntryPoint returns the entry point name for this shader.
	//
	// Returns:
	//   - string: the entry point name (e.g. "vs_main")
	EntryPoint() string

	// BindGroupLayoutDescriptor retrieves the bind group layout descriptor for a group index.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the descriptor, or an empty descriptor if not declared
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors retrieves all reflected bind group layout descriptors keyed by group index.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName retrieves the variable name declared at a group and binding index.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the variable name, or an empty string if not found
	BindGroupVarName(group, binding int) string

	// BindGroupVarNames retrieves all variable names keyed by group and binding index.
	//
	// Returns:
	//   - map[int]map[int]string: variable names keyed by group and binding index
	BindGroupVarNames() map[int]map[int]string

	// ConstantBuffers returns the uniform blocks declared by the shader, in declaration order.
	//
	// Returns:
	//   - []ConstantBuffer: the reflected constant buffers
	ConstantBuffers() []ConstantBuffer

	// Textures returns the texture bindings declared by the shader, in declaration order.
	//
	// Returns:
	//   - []TextureResource: the reflected textures
	Textures() []TextureResource

	// VertexInputs returns the per-vertex inputs of a vertex shader's entry point.
	// Fragment shaders return nil.
	//
	// Returns:
	//   - []VertexInput: the classified vertex inputs in declaration order
	VertexInputs() []VertexInput

	// VertexLayouts returns one non-interleaved vertex buffer layout per classified vertex input.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the buffer layouts in vertex input order
	VertexLayouts() []wgpu.VertexBufferLayout

	// Module returns the wgpu.ShaderModuleDescriptor for this shader.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the shader module descriptor containing the WGSL code and label
	Module() *wgpu.ShaderModuleDescriptor
}

var _ Shader = &shader{}

// NewShader creates a new Shader from WGSL source and reflects it with naga.
//
// Parameters:
//   - key: a unique identifier for the shader, used for caching and lookups
//   - shaderType: the stage whose entry point should be reflected
//   - source: the WGSL source code
//
// Returns:
//   - Shader: the reflected shader
//   - error: an error if the source does not parse or lacks an entry point for the stage
func NewShader(key string, shaderType ShaderType, source string) (Shader, error) {
	r, err := parseSource(source, shaderType)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}

	return &shader{
		key:                        key,
		source:                     source,
		shaderType:                 shaderType,
		entryPoint:                 r.entryPoint,
		bindGroupLayoutDescriptors: r.bindGroups,
		bindingVarNames:            r.varNames,
		constantBuffers:            r.constantBuffers,
		textures:                   r.textures,
		vertexInputs:               r.vertexInputs,
		module: &wgpu.ShaderModuleDescriptor{
			Label: key,
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
				Code: source,
			},
		},
	}, nil
}

// LoadShader reads a WGSL file and creates a Shader from it.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - shaderType: the stage whose entry point should be reflected
//   - path: the file path to read WGSL source from
//
// Returns:
//   - Shader: the reflected shader
//   - error: an error if the file cannot be read or reflected
func LoadShader(key string, shaderType ShaderType, path string) (Shader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("shader %s: failed to read source file %q: %w", key, path, err)
	}
	return NewShader(key, shaderType, string(data))
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) BindGroupVarName(group, binding int) string {
	if s.bindingVarNames[group] == nil {
		return ""
	}
	return s.bindingVarNames[group][binding]
}

func (s *shader) BindGroupVarNames() map[int]map[int]string {
	return s.bindingVarNames
}

func (s *shader) ConstantBuffers() []ConstantBuffer {
	return s.constantBuffers
}

func (s *shader) Textures() []TextureResource {
	return s.textures
}

func (s *shader) VertexInputs() []VertexInput {
	return s.vertexInputs
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return VertexBufferLayouts(s.vertexInputs)
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}
