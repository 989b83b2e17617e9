package shader

// PassBuilderOption is a function that configures a pass during construction.
type PassBuilderOption func(*pass)

// WithConstantBuffer appends a constant buffer descriptor to the pass.
//
// Parameters:
//   - cb: the constant buffer descriptor
//
// Returns:
//   - PassBuilderOption: a function that applies the constant buffer to a pass
func WithConstantBuffer(cb ConstantBuffer) PassBuilderOption {
	return func(p *pass) {
		p.constantBuffers = append(p.constantBuffers, cb)
	}
}

// WithTexture appends a texture resource descriptor to the pass.
//
// Parameters:
//   - name: the texture parameter name
//
// Returns:
//   - PassBuilderOption: a function that applies the texture to a pass
func WithTexture(name string) PassBuilderOption {
	return func(p *pass) {
		p.textures = append(p.textures, TextureResource{Name: name})
	}
}

// WithVertexInput appends a vertex input to the pass. The semantic is classified here.
//
// Parameters:
//   - input: the vertex input, its Semantic field is recomputed from SemanticName
//
// Returns:
//   - PassBuilderOption: a function that applies the vertex input to a pass
func WithVertexInput(input VertexInput) PassBuilderOption {
	return func(p *pass) {
		input.Semantic = ClassifySemantic(input.SemanticName)
		p.vertexInputs = append(p.vertexInputs, input)
	}
}

// WithVertexShader sets the vertex stage shader of the pass.
//
// Parameters:
//   - s: the vertex shader
//
// Returns:
//   - PassBuilderOption: a function that applies the vertex shader to a pass
func WithVertexShader(s Shader) PassBuilderOption {
	return func(p *pass) {
		p.vertexShader = s
	}
}

// WithFragmentShader sets the fragment stage shader of the pass.
//
// Parameters:
//   - s: the fragment shader
//
// Returns:
//   - PassBuilderOption: a function that applies the fragment shader to a pass
func WithFragmentShader(s Shader) PassBuilderOption {
	return func(p *pass) {
		p.fragmentShader = s
	}
}
