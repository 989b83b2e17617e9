package shader

import "fmt"

// pass is the implementation of the Pass interface.
type pass struct {
	name            string
	constantBuffers []ConstantBuffer
	textures        []TextureResource
	vertexInputs    []VertexInput
	vertexShader    Shader
	fragmentShader  Shader
}

// Pass is one shader-stage pipeline configuration within a Technique. It exposes the
// reflected parameter layout and vertex input semantics shared by its stages.
type Pass interface {
	// Name returns the pass name, unique within its technique.
	//
	// Returns:
	//   - string: the pass name
	Name() string

	// ConstantBuffers returns the constant buffers used by the pass, merged across stages.
	//
	// Returns:
	//   - []ConstantBuffer: the constant buffers in declaration order
	ConstantBuffers() []ConstantBuffer

	// Textures returns the texture resources used by the pass, merged across stages.
	//
	// Returns:
	//   - []TextureResource: the textures in declaration order
	Textures() []TextureResource

	// VertexInputs returns the per-vertex inputs the pass consumes.
	//
	// Returns:
	//   - []VertexInput: the vertex inputs in declaration order
	VertexInputs() []VertexInput

	// Shader returns the shader for a stage, or nil if the pass has none for it.
	//
	// Parameters:
	//   - shaderType: the stage to look up
	//
	// Returns:
	//   - Shader: the stage's shader or nil
	Shader(shaderType ShaderType) Shader
}

var _ Pass = &pass{}

// NewPass creates a Pass from explicit descriptors.
//
// Parameters:
//   - name: the pass name
//   - options: variadic list of PassBuilderOption functions
//
// Returns:
//   - Pass: the configured pass
func NewPass(name string, options ...PassBuilderOption) Pass {
	p := &pass{name: name}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// ReflectPass builds a Pass from a vertex and fragment shader. Constant buffers and textures
// are merged by name across both stages, and vertex inputs come from the vertex stage.
//
// Parameters:
//   - name: the pass name
//   - vertex: the reflected vertex shader
//   - fragment: the reflected fragment shader, may be nil for depth-only passes
//
// Returns:
//   - Pass: the reflected pass
//   - error: an error if the stages disagree on a constant buffer's size
func ReflectPass(name string, vertex, fragment Shader) (Pass, error) {
	if vertex == nil || vertex.ShaderType() != ShaderTypeVertex {
		return nil, fmt.Errorf("pass %s: %w", name, ErrNoVertexEntryPoint)
	}
	if fragment != nil && fragment.ShaderType() != ShaderTypeFragment {
		return nil, fmt.Errorf("pass %s: %w", name, ErrNoFragmentEntryPoint)
	}

	p := &pass{
		name:           name,
		vertexShader:   vertex,
		fragmentShader: fragment,
		vertexInputs:   vertex.VertexInputs(),
	}

	stages := []Shader{vertex}
	if fragment != nil {
		stages = append(stages, fragment)
	}

	seenBuffers := make(map[string]uint32)
	seenTextures := make(map[string]bool)
	for _, s := range stages {
		for _, cb := range s.ConstantBuffers() {
			if size, ok := seenBuffers[cb.Name]; ok {
				if size != cb.Size {
					return nil, fmt.Errorf("pass %s: constant buffer %q declared with sizes %d and %d", name, cb.Name, size, cb.Size)
				}
				continue
			}
			seenBuffers[cb.Name] = cb.Size
			p.constantBuffers = append(p.constantBuffers, cb)
		}
		for _, tex := range s.Textures() {
			if seenTextures[tex.Name] {
				continue
			}
			seenTextures[tex.Name] = true
			p.textures = append(p.textures, tex)
		}
	}

	return p, nil
}

func (p *pass) Name() string {
	return p.name
}

func (p *pass) ConstantBuffers() []ConstantBuffer {
	return p.constantBuffers
}

func (p *pass) Textures() []TextureResource {
	return p.textures
}

func (p *pass) VertexInputs() []VertexInput {
	return p.vertexInputs
}

func (p *pass) Shader(shaderType ShaderType) Shader {
	switch shaderType {
	case ShaderTypeVertex:
		return p.vertexShader
	case ShaderTypeFragment:
		return p.fragmentShader
	default:
		return nil
	}
}
