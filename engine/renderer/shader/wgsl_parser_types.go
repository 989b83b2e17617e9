package shader

import "github.com/cogentcore/webgpu/wgpu"

// wgslTypeLayout holds the byte size and alignment for a WGSL type.
type wgslTypeLayout struct {
	size  uint64
	align uint64
}

// wgslMemberLayout is the placement of one struct member.
type wgslMemberLayout struct {
	offset uint64
	size   uint64
}

// reflection is everything extracted from one lowered WGSL module for a single stage.
type reflection struct {
	entryPoint      string
	constantBuffers []ConstantBuffer
	textures        []TextureResource
	vertexInputs    []VertexInput
	bindGroups      map[int]wgpu.BindGroupLayoutDescriptor
	varNames        map[int]map[int]string
}
