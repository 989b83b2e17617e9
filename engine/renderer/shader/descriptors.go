package shader

import "github.com/cogentcore/webgpu/wgpu"

// ConstantBufferVariable is one member of a reflected constant buffer.
type ConstantBufferVariable struct {
	Name        string
	StartOffset uint32
	Size        uint32
}

// ConstantBuffer describes one reflected uniform block: its name, its byte size and the
// ordered list of variables it contains.
type ConstantBuffer struct {
	Name      string
	Size      uint32
	Group     uint32
	Binding   uint32
	Variables []ConstantBufferVariable
}

// TextureResource describes one reflected texture binding.
type TextureResource struct {
	Name    string
	Group   uint32
	Binding uint32
}

// VertexInput is one per-vertex input declared by a vertex entry point. Slot is the
// @location index, SemanticName the upper-cased input name and Semantic its classification.
type VertexInput struct {
	Slot         uint32
	SemanticName string
	Semantic     Semantic
	Format       wgpu.VertexFormat
}

// NewVertexInput builds a VertexInput and classifies its semantic name.
//
// Parameters:
//   - slot: the @location index of the input
//   - semanticName: the semantic name, e.g. "POSITION" or "TEXCOORD0"
//   - format: the vertex format of the attribute
//
// Returns:
//   - VertexInput: the classified vertex input
func NewVertexInput(slot uint32, semanticName string, format wgpu.VertexFormat) VertexInput {
	return VertexInput{
		Slot:         slot,
		SemanticName: semanticName,
		Semantic:     ClassifySemantic(semanticName),
		Format:       format,
	}
}
