package actor

import (
	"errors"

	"github.com/Carmen-Shannon/prism/engine/mesh"
	"github.com/Carmen-Shannon/prism/engine/renderer/material"
	"github.com/Carmen-Shannon/prism/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/prism/engine/texture"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrMissingVertexBuffer is returned when a shader pass requires a vertex attribute the mesh does not supply.
var ErrMissingVertexBuffer = errors.New("actor: mesh is missing a vertex buffer required by the shader pass")

// MeshDrawCommand is everything needed to draw one mesh section with one shader pass.
// ConstantBuffers and Textures are the material's live storage for the pass, so parameter
// writes made after the command was built are visible through it.
type MeshDrawCommand struct {
	Pass     string
	Material material.Material
	Pipeline pipeline.Pipeline

	// VertexBuffers are ordered like the pass vertex inputs and bound to consecutive slots.
	VertexBuffers []*mesh.VertexBuffer
	IndexBuffer   *mesh.IndexBuffer

	ConstantBuffers map[string][]byte
	Textures        map[string]texture.Texture

	VertexStart uint32
	VertexCount uint32
	IndexStart  uint32
	IndexCount  uint32
}

// PipelineFinalizer is the graphics device side of draw-command assembly. It reports the
// current swap chain formats and compiles pipeline descriptions into GPU pipelines.
type PipelineFinalizer interface {
	// SwapChainFormats returns the back-buffer and depth-buffer formats.
	//
	// Returns:
	//   - wgpu.TextureFormat: the color format
	//   - wgpu.TextureFormat: the depth format
	SwapChainFormats() (wgpu.TextureFormat, wgpu.TextureFormat)

	// FinalizePipeline compiles the description and stores the GPU pipeline on it.
	//
	// Parameters:
	//   - p: the pipeline description
	//
	// Returns:
	//   - error: an error if the pipeline could not be created
	FinalizePipeline(p pipeline.Pipeline) error
}
